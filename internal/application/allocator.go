package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/bnema/subaccount-pool/internal/ports"
	"github.com/sirupsen/logrus"
)

const DefaultStaleRetryDelay = 500 * time.Millisecond

const (
	opAcquire            = "acquire"
	opRelease            = "release"
	opAdopt              = "adopt"
	opReconcile          = "reconcile"
	opSetSignatureSecret = "set signature secret"
	opCreateStandalone   = "create standalone"
	opIndex              = "index"
	opRecord             = "record"
)

// Allocation paths reported to the AllocationObserver.
const (
	PathCreated    = "created"
	PathRotated    = "rotated"
	PathReused     = "reused"
	PathModifyOnly = "modify_only"
	PathReleased   = "released"
)

type AllocationObserver interface {
	ObserveAllocation(op string, path string, err error)
}

type AllocatorOptions struct {
	Logger          logrus.FieldLogger
	Observer        AllocationObserver
	StaleRetryDelay time.Duration
	Sleep           func(ctx context.Context, d time.Duration) error
}

// Allocator lends pool members out and takes them back. It reconciles the
// remote subaccount with the local pool state on every transition.
type Allocator struct {
	state           ports.PoolStateRepository
	secrets         *SecretLifecycle
	subaccounts     *SubaccountLifecycle
	logger          logrus.FieldLogger
	observer        AllocationObserver
	staleRetryDelay time.Duration
	sleep           func(ctx context.Context, d time.Duration) error
}

func NewAllocator(state ports.PoolStateRepository, api ports.AccountsAPI, opts AllocatorOptions) *Allocator {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	delay := opts.StaleRetryDelay
	if delay <= 0 {
		delay = DefaultStaleRetryDelay
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	return &Allocator{
		state:           state,
		secrets:         NewSecretLifecycle(api, logger),
		subaccounts:     NewSubaccountLifecycle(api),
		logger:          logger,
		observer:        opts.Observer,
		staleRetryDelay: delay,
		sleep:           sleep,
	}
}

// Acquire leases a free pool member, or provisions a new one when none is
// free. The returned record is unsuspended and marked used.
func (a *Allocator) Acquire(ctx context.Context, cmd AcquireCommand) (record domain.Subaccount, err error) {
	path := ""
	defer func() { a.observe(opAcquire, path, err) }()

	if err := cmd.Credentials.Validate(); err != nil {
		return domain.Subaccount{}, err
	}
	if err := domain.ValidateName(cmd.Name).Err(opAcquire); err != nil {
		return domain.Subaccount{}, err
	}
	if err := domain.ValidateSecret(cmd.Secret).Err(opAcquire); err != nil {
		return domain.Subaccount{}, err
	}

	primaryKey := cmd.Credentials.APIKey
	log := a.logger.WithFields(logrus.Fields{"op": opAcquire, "primary": primaryKey})

	member, err := a.state.FindFree(ctx, primaryKey)
	var (
		missing    *domain.MissingRecordError
		unreadable *domain.LeasedRecordError
	)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNoneFree):
		path = PathCreated
		return a.provision(ctx, cmd, log)
	case errors.As(err, &missing):
		log.WithField("subaccount", missing.APIKey).WithError(err).Warn("index entry without record; rebuilding from remote")
		member, err = a.rebuild(ctx, cmd.Credentials, missing.APIKey, log)
		if err != nil {
			a.revertLease(ctx, primaryKey, missing.APIKey, log)
			return domain.Subaccount{}, err
		}
	case errors.As(err, &unreadable):
		a.revertLease(ctx, primaryKey, unreadable.APIKey, log)
		return domain.Subaccount{}, domain.WrapError(domain.KindStoreInconsistency, opAcquire, err)
	default:
		return domain.Subaccount{}, domain.WrapError(domain.KindStoreInconsistency, opAcquire, err)
	}

	log = log.WithField("subaccount", member.APIKey)
	leased, leasePath, err := a.lease(ctx, cmd, member, log)
	path = leasePath
	if err != nil {
		a.revertLease(ctx, primaryKey, member.APIKey, log)
		return domain.Subaccount{}, err
	}

	log.WithField("path", path).Info("subaccount leased")
	return leased, nil
}

// Release suspends a member and returns it to the free pool. Releasing an
// already released member succeeds.
func (a *Allocator) Release(ctx context.Context, cmd ReleaseCommand) (record domain.Subaccount, err error) {
	defer func() { a.observe(opRelease, PathReleased, err) }()

	if err := cmd.Credentials.Validate(); err != nil {
		return domain.Subaccount{}, err
	}

	primaryKey := cmd.Credentials.APIKey
	key := domain.RecordKey{PrimaryKey: primaryKey, APIKey: cmd.SubaccountKey}
	log := a.logger.WithFields(logrus.Fields{"op": opRelease, "primary": primaryKey, "subaccount": cmd.SubaccountKey})

	current, err := a.state.GetRecord(ctx, key)
	if err != nil {
		return domain.Subaccount{}, recordLookupError(opRelease, key, err)
	}

	updated, err := a.modify(ctx, cmd.Credentials, cmd.SubaccountKey, current.Name, true, log)
	if err != nil {
		return domain.Subaccount{}, err
	}

	released := updated.CarryForward(current)
	released.SignatureSecret = current.SignatureSecret
	released.Secret = current.Secret
	released.PrimaryAccountAPIKey = primaryKey
	released.Suspended = true
	released.Used = false

	if err := a.state.SaveReleased(ctx, released); err != nil {
		warnStore(log, "save released record", err)
	}
	if err := a.state.UpdateMembership(ctx, primaryKey, cmd.SubaccountKey, false); err != nil {
		return domain.Subaccount{}, domain.WrapError(domain.KindStoreInconsistency, opRelease, err)
	}

	outcome, err := a.secrets.RotateOldest(ctx, cmd.Credentials, cmd.SubaccountKey)
	if err != nil {
		log.WithError(err).Warn("post-release secret rotation failed")
	} else {
		log.WithField("rotation", outcome).Debug("post-release secret rotation")
	}

	log.Info("subaccount released")
	return released, nil
}

// Index returns the membership list of a primary account, empty when the
// account has no pool.
func (a *Allocator) Index(ctx context.Context, primaryKey string) (domain.PoolIndex, error) {
	index, err := a.state.GetIndex(ctx, primaryKey)
	if err != nil {
		return nil, domain.WrapError(domain.KindInternal, opIndex, err)
	}
	if index == nil {
		index = domain.PoolIndex{}
	}

	return index, nil
}

func (a *Allocator) Summary(ctx context.Context, primaryKey string) (PoolSummary, error) {
	index, err := a.Index(ctx, primaryKey)
	if err != nil {
		return PoolSummary{}, err
	}

	return NewPoolSummary(primaryKey, index), nil
}

func (a *Allocator) Record(ctx context.Context, query RecordQuery) (domain.Subaccount, error) {
	record, err := a.state.GetRecord(ctx, query.Key())
	if err != nil {
		return domain.Subaccount{}, recordLookupError(opRecord, query.Key(), err)
	}

	return record, nil
}

// Adopt brings an existing remote subaccount into the pool. Its membership
// follows its remote suspended flag.
func (a *Allocator) Adopt(ctx context.Context, cmd AdoptCommand) (domain.Subaccount, error) {
	if err := cmd.Credentials.Validate(); err != nil {
		return domain.Subaccount{}, err
	}

	primaryKey := cmd.Credentials.APIKey
	key := domain.RecordKey{PrimaryKey: primaryKey, APIKey: cmd.SubaccountKey}
	log := a.logger.WithFields(logrus.Fields{"op": opAdopt, "primary": primaryKey, "subaccount": cmd.SubaccountKey})

	if _, err := a.state.GetRecord(ctx, key); err == nil {
		return domain.Subaccount{}, domain.NewError(domain.KindConflict, opAdopt, fmt.Sprintf("subaccount %s is already a member of %s", cmd.SubaccountKey, primaryKey))
	} else if !errors.Is(err, domain.ErrRecordNotFound) {
		return domain.Subaccount{}, domain.WrapError(domain.KindInternal, opAdopt, err)
	}

	remote, err := a.subaccounts.Retrieve(ctx, cmd.Credentials, cmd.SubaccountKey)
	if err != nil {
		return domain.Subaccount{}, err
	}
	if remote.PrimaryAccountAPIKey != primaryKey {
		return domain.Subaccount{}, domain.NewError(domain.KindForbidden, opAdopt, fmt.Sprintf("subaccount %s belongs to %s", cmd.SubaccountKey, remote.PrimaryAccountAPIKey))
	}
	remote.Used = !remote.Suspended

	if err := a.state.PutRecord(ctx, remote, true); err != nil {
		if errors.Is(err, domain.ErrStateDrift) {
			return domain.Subaccount{}, domain.WrapError(domain.KindConflict, opAdopt, err)
		}
		return domain.Subaccount{}, domain.WrapError(domain.KindStoreInconsistency, opAdopt, err)
	}
	if err := a.state.SetIndexMembership(ctx, remote, remote.Used); err != nil {
		return domain.Subaccount{}, domain.WrapError(domain.KindStoreInconsistency, opAdopt, err)
	}

	log.WithField("used", remote.Used).Info("subaccount adopted")
	return remote, nil
}

// Reconcile overwrites local state with the remote view of a subaccount.
// Membership is derived from the remote suspended flag.
func (a *Allocator) Reconcile(ctx context.Context, cmd ReconcileCommand) (domain.Subaccount, error) {
	if err := cmd.Credentials.Validate(); err != nil {
		return domain.Subaccount{}, err
	}

	primaryKey := cmd.Credentials.APIKey
	key := domain.RecordKey{PrimaryKey: primaryKey, APIKey: cmd.SubaccountKey}
	log := a.logger.WithFields(logrus.Fields{"op": opReconcile, "primary": primaryKey, "subaccount": cmd.SubaccountKey})

	remote, err := a.subaccounts.Retrieve(ctx, cmd.Credentials, cmd.SubaccountKey)
	if err != nil {
		return domain.Subaccount{}, err
	}
	if remote.PrimaryAccountAPIKey != primaryKey {
		return domain.Subaccount{}, domain.NewError(domain.KindForbidden, opReconcile, fmt.Sprintf("subaccount %s belongs to %s", cmd.SubaccountKey, remote.PrimaryAccountAPIKey))
	}
	remote.Used = !remote.Suspended

	if err := a.state.ReplaceRecord(ctx, remote); err != nil {
		return domain.Subaccount{}, domain.WrapError(domain.KindStoreInconsistency, opReconcile, err)
	}
	if err := a.state.UpdateMembership(ctx, primaryKey, cmd.SubaccountKey, remote.Used); err != nil {
		return domain.Subaccount{}, domain.WrapError(domain.KindStoreInconsistency, opReconcile, err)
	}

	reconciled, err := a.state.GetRecord(ctx, key)
	if err != nil {
		return domain.Subaccount{}, domain.WrapError(domain.KindStoreInconsistency, opReconcile, err)
	}

	log.WithField("used", reconciled.Used).Info("subaccount reconciled")
	return reconciled, nil
}

func (a *Allocator) SetSignatureSecret(ctx context.Context, cmd SetSignatureSecretCommand) (domain.Subaccount, error) {
	if strings.TrimSpace(cmd.SignatureSecret) == "" {
		return domain.Subaccount{}, domain.NewError(domain.KindValidation, opSetSignatureSecret, "signature secret is required")
	}

	key := domain.RecordKey{PrimaryKey: cmd.PrimaryKey, APIKey: cmd.SubaccountKey}
	record, err := a.state.SetSignatureSecret(ctx, key, cmd.SignatureSecret)
	if err != nil {
		return domain.Subaccount{}, recordLookupError(opSetSignatureSecret, key, err)
	}

	return record, nil
}

// CreateStandalone creates a subaccount outside the pool. The index is
// never touched.
func (a *Allocator) CreateStandalone(ctx context.Context, cmd CreateStandaloneCommand) (domain.Subaccount, error) {
	if err := cmd.Credentials.Validate(); err != nil {
		return domain.Subaccount{}, err
	}
	if err := domain.ValidateName(cmd.Name).Err(opCreateStandalone); err != nil {
		return domain.Subaccount{}, err
	}
	if err := domain.ValidateSecret(cmd.Secret).Err(opCreateStandalone); err != nil {
		return domain.Subaccount{}, err
	}

	return a.subaccounts.CreatePlain(ctx, cmd.Credentials, cmd.Name, cmd.Secret)
}

func (a *Allocator) provision(ctx context.Context, cmd AcquireCommand, log logrus.FieldLogger) (domain.Subaccount, error) {
	created, err := a.subaccounts.CreateWithSignature(ctx, cmd.Credentials, cmd.Name, cmd.Secret)
	if err != nil {
		if domain.KindOf(err) == domain.KindRemoteUnavailable {
			log.WithError(err).Warn("create outcome unknown; the remote may hold an unindexed subaccount")
		}
		return domain.Subaccount{}, err
	}

	created.PrimaryAccountAPIKey = cmd.Credentials.APIKey
	created.Secret = cmd.Secret
	created.Suspended = false
	created.Used = true
	log = log.WithField("subaccount", created.APIKey)

	if err := a.state.PutRecord(ctx, created, true); err != nil {
		warnStore(log, "store new record", err)
	}
	if err := a.state.SetIndexMembership(ctx, created, true); err != nil {
		return domain.Subaccount{}, &domain.Error{
			Kind:   domain.KindStoreInconsistency,
			Op:     opAcquire,
			Detail: fmt.Sprintf("subaccount %s was created but could not be indexed", created.APIKey),
			Err:    err,
		}
	}

	log.Info("subaccount provisioned")
	return created, nil
}

// lease runs the rotation path on a member FindFree already marked used.
func (a *Allocator) lease(ctx context.Context, cmd AcquireCommand, member domain.Subaccount, log logrus.FieldLogger) (domain.Subaccount, string, error) {
	creds := cmd.Credentials

	secrets, err := a.secrets.List(ctx, creds, member.APIKey)
	if err != nil {
		return domain.Subaccount{}, PathReused, err
	}

	path := PathReused
	secret := member.Secret
	switch {
	case len(secrets) >= domain.MaxLiveSecrets:
		path = PathRotated
		if _, err := a.secrets.RotateOldest(ctx, creds, member.APIKey); err != nil {
			return domain.Subaccount{}, path, err
		}
		secret, err = a.setSecret(ctx, cmd, member, false, log)
	case len(secrets) == 1:
		secret, err = a.setSecret(ctx, cmd, member, true, log)
	default:
		path = PathModifyOnly
		log.Warn("subaccount has no remote secret; keeping local secret")
	}
	if err != nil {
		return domain.Subaccount{}, path, err
	}

	updated, err := a.modify(ctx, creds, member.APIKey, cmd.Name, false, log)
	if err != nil {
		return domain.Subaccount{}, path, err
	}

	leased := updated.CarryForward(member)
	leased.PrimaryAccountAPIKey = creds.APIKey
	leased.SignatureSecret = member.SignatureSecret
	leased.Secret = secret
	leased.Name = cmd.Name
	leased.Suspended = false
	leased.Used = true

	if err := a.state.PutRecord(ctx, leased, false); err != nil {
		warnStore(log, "update leased record", err)
	}
	if err := a.state.UpdateMembership(ctx, creds.APIKey, member.APIKey, true); err != nil {
		return domain.Subaccount{}, path, domain.WrapError(domain.KindStoreInconsistency, opAcquire, err)
	}

	return leased, path, nil
}

// setSecret creates the requested secret and returns the secret to record.
// A secret-limit rejection rotates and retries once when retryOnLimit is set.
// Other rejections fall back to the modify-only path.
func (a *Allocator) setSecret(ctx context.Context, cmd AcquireCommand, member domain.Subaccount, retryOnLimit bool, log logrus.FieldLogger) (string, error) {
	creds := cmd.Credentials

	err := a.secrets.Create(ctx, creds, member.APIKey, cmd.Secret)
	if err != nil && retryOnLimit && domain.HasReason(err, domain.ReasonSecretLimit) {
		log.Info("secret limit reached; rotating and retrying")
		if _, rotateErr := a.secrets.RotateOldest(ctx, creds, member.APIKey); rotateErr != nil {
			return "", rotateErr
		}
		err = a.secrets.Create(ctx, creds, member.APIKey, cmd.Secret)
	}
	if err == nil {
		return cmd.Secret, nil
	}
	if domain.KindOf(err) != domain.KindRemoteRejected {
		return "", err
	}

	if domain.HasReason(err, domain.ReasonSecretRejected) {
		log.WithError(err).Info("requested secret already live; continuing without secret change")
		return cmd.Secret, nil
	}

	log.WithError(err).Warn("secret rejected; keeping previous secret")
	return member.Secret, nil
}

// modify calls the remote modify and retries once after the stale retry
// delay on a stale version conflict.
func (a *Allocator) modify(ctx context.Context, creds domain.Credentials, subaccountKey string, name string, suspended bool, log logrus.FieldLogger) (domain.Subaccount, error) {
	updated, err := a.subaccounts.Modify(ctx, creds, subaccountKey, name, suspended)
	if err == nil || !domain.HasReason(err, domain.ReasonStaleVersion) {
		return updated, err
	}

	log.WithField("delay", a.staleRetryDelay).Info("stale version conflict; retrying modify once")
	if err := a.sleep(ctx, a.staleRetryDelay); err != nil {
		return domain.Subaccount{}, domain.WrapError(domain.KindRemoteUnavailable, opModifySubaccount, err)
	}

	return a.subaccounts.Modify(ctx, creds, subaccountKey, name, suspended)
}

// rebuild recreates a missing record from the remote subaccount.
func (a *Allocator) rebuild(ctx context.Context, creds domain.Credentials, subaccountKey string, log logrus.FieldLogger) (domain.Subaccount, error) {
	remote, err := a.subaccounts.Retrieve(ctx, creds, subaccountKey)
	if err != nil {
		return domain.Subaccount{}, err
	}

	remote.PrimaryAccountAPIKey = creds.APIKey
	remote.Used = true
	if err := a.state.PutRecord(ctx, remote, true); err != nil {
		warnStore(log, "store rebuilt record", err)
	}

	return remote, nil
}

func (a *Allocator) revertLease(ctx context.Context, primaryKey string, subaccountKey string, log logrus.FieldLogger) {
	if err := a.state.UpdateMembership(context.WithoutCancel(ctx), primaryKey, subaccountKey, false); err != nil {
		warnStore(log, "return member to free pool", err)
	}
}

func (a *Allocator) observe(op string, path string, err error) {
	if a.observer == nil {
		return
	}
	a.observer.ObserveAllocation(op, path, err)
}

func warnStore(log logrus.FieldLogger, action string, err error) {
	log.WithError(err).WithField("kind", domain.KindStoreInconsistency).Warn(action)
}

func recordLookupError(op string, key domain.RecordKey, err error) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return &domain.Error{Kind: domain.KindNotFound, Op: op, Detail: fmt.Sprintf("subaccount %s is not a pool member", key), Err: err}
	}

	return domain.WrapError(domain.KindInternal, op, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
