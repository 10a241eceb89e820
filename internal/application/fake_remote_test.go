package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/bnema/subaccount-pool/internal/ports"
)

type fakeSecret struct {
	id        string
	value     string
	createdAt time.Time
}

type fakeSubaccount struct {
	record  domain.Subaccount
	secrets []fakeSecret
}

// fakeRemote is an in-memory remote API that enforces the two-live-secret
// cap and rejects duplicate secrets.
type fakeRemote struct {
	mu sync.Mutex

	primaryKey    string
	primarySecret string
	subaccounts   map[string]*fakeSubaccount
	nextSub       int
	nextSecret    int
	now           time.Time

	calls   map[string]int
	revoked []string

	staleModifies   int
	unavailable     map[string]bool
	raceSecretOnce  bool
	rejectSecretAll bool
}

var _ ports.AccountsAPI = (*fakeRemote)(nil)

func newFakeRemote(primaryKey, primarySecret string) *fakeRemote {
	return &fakeRemote{
		primaryKey:    primaryKey,
		primarySecret: primarySecret,
		subaccounts:   map[string]*fakeSubaccount{},
		now:           time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		calls:         map[string]int{},
		unavailable:   map[string]bool{},
	}
}

func (f *fakeRemote) enter(op string, creds domain.Credentials) error {
	f.calls[op]++
	if f.unavailable[op] {
		return &ports.TransportError{Op: op, Err: errors.New("connection refused")}
	}
	if creds.APIKey != f.primaryKey || creds.Secret != f.primarySecret {
		return &ports.StatusError{Op: op, Status: http.StatusUnauthorized, Title: "Invalid credentials"}
	}
	return nil
}

func (f *fakeRemote) tick() time.Time {
	f.now = f.now.Add(time.Minute)
	return f.now
}

// seed registers a subaccount with the given live secret values, oldest first.
func (f *fakeRemote) seed(apiKey, name string, suspended bool, secrets ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sub := &fakeSubaccount{record: domain.Subaccount{
		APIKey:               apiKey,
		PrimaryAccountAPIKey: f.primaryKey,
		Name:                 name,
		Suspended:            suspended,
		CreatedAt:            f.tick(),
	}}
	for _, value := range secrets {
		sub.secrets = append(sub.secrets, f.newSecret(value))
	}
	f.subaccounts[apiKey] = sub
}

func (f *fakeRemote) newSecret(value string) fakeSecret {
	f.nextSecret++
	return fakeSecret{id: fmt.Sprintf("sec-%d", f.nextSecret), value: value, createdAt: f.tick()}
}

func (f *fakeRemote) secretValues(apiKey string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var values []string
	for _, secret := range f.subaccounts[apiKey].secrets {
		values = append(values, secret.value)
	}
	return values
}

func (f *fakeRemote) remote(apiKey string) domain.Subaccount {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.subaccounts[apiKey].record
}

// reassign moves a seeded subaccount under another primary account.
func (f *fakeRemote) reassign(apiKey, primaryKey string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.subaccounts[apiKey].record.PrimaryAccountAPIKey = primaryKey
}

func (f *fakeRemote) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[op]
}

func (f *fakeRemote) CreateSubaccount(_ context.Context, creds domain.Credentials, req ports.CreateSubaccountRequest) (domain.Subaccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("CreateSubaccount", creds); err != nil {
		return domain.Subaccount{}, err
	}

	f.nextSub++
	apiKey := fmt.Sprintf("S%d", f.nextSub)
	sub := &fakeSubaccount{
		record: domain.Subaccount{
			APIKey:               apiKey,
			PrimaryAccountAPIKey: f.primaryKey,
			Name:                 req.Name,
			CreatedAt:            f.tick(),
		},
		secrets: []fakeSecret{f.newSecret(req.Secret)},
	}
	f.subaccounts[apiKey] = sub

	created := sub.record
	created.Secret = req.Secret
	if req.WithSignature {
		created.SignatureSecret = "sig-" + apiKey
	}
	return created, nil
}

func (f *fakeRemote) GetSubaccount(_ context.Context, creds domain.Credentials, subaccountKey string) (domain.Subaccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("GetSubaccount", creds); err != nil {
		return domain.Subaccount{}, err
	}
	sub, ok := f.subaccounts[subaccountKey]
	if !ok {
		return domain.Subaccount{}, &ports.StatusError{Op: "GetSubaccount", Status: http.StatusNotFound, Title: "Invalid API Key"}
	}
	return sub.record, nil
}

func (f *fakeRemote) ModifySubaccount(_ context.Context, creds domain.Credentials, subaccountKey string, req ports.ModifySubaccountRequest) (domain.Subaccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("ModifySubaccount", creds); err != nil {
		return domain.Subaccount{}, err
	}
	sub, ok := f.subaccounts[subaccountKey]
	if !ok {
		return domain.Subaccount{}, &ports.StatusError{Op: "ModifySubaccount", Status: http.StatusNotFound}
	}
	if f.staleModifies > 0 {
		f.staleModifies--
		return domain.Subaccount{}, &ports.StatusError{Op: "ModifySubaccount", Status: http.StatusForbidden, Detail: "stale version"}
	}

	sub.record.Name = req.Name
	sub.record.Suspended = req.Suspended
	return sub.record, nil
}

func (f *fakeRemote) CreateSecret(_ context.Context, creds domain.Credentials, subaccountKey string, secret string) (domain.Secret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("CreateSecret", creds); err != nil {
		return domain.Secret{}, err
	}
	sub, ok := f.subaccounts[subaccountKey]
	if !ok {
		return domain.Secret{}, &ports.StatusError{Op: "CreateSecret", Status: http.StatusNotFound}
	}
	if f.raceSecretOnce {
		f.raceSecretOnce = false
		sub.secrets = append(sub.secrets, f.newSecret("Racing99x"))
	}
	if f.rejectSecretAll {
		return domain.Secret{}, &ports.StatusError{Op: "CreateSecret", Status: http.StatusUnprocessableEntity, Detail: "secret policy"}
	}
	if len(sub.secrets) >= domain.MaxLiveSecrets {
		return domain.Secret{}, &ports.StatusError{Op: "CreateSecret", Status: http.StatusForbidden, Detail: "secret limit reached"}
	}
	for _, existing := range sub.secrets {
		if existing.value == secret {
			return domain.Secret{}, &ports.StatusError{Op: "CreateSecret", Status: http.StatusBadRequest, Detail: "duplicate secret"}
		}
	}

	created := f.newSecret(secret)
	sub.secrets = append(sub.secrets, created)
	return domain.Secret{ID: created.id, CreatedAt: created.createdAt}, nil
}

// ListSecrets answers newest first so callers must sort by creation time.
func (f *fakeRemote) ListSecrets(_ context.Context, creds domain.Credentials, subaccountKey string) ([]domain.Secret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("ListSecrets", creds); err != nil {
		return nil, err
	}
	sub, ok := f.subaccounts[subaccountKey]
	if !ok {
		return nil, &ports.StatusError{Op: "ListSecrets", Status: http.StatusNotFound}
	}

	secrets := make([]domain.Secret, 0, len(sub.secrets))
	for i := len(sub.secrets) - 1; i >= 0; i-- {
		secrets = append(secrets, domain.Secret{ID: sub.secrets[i].id, CreatedAt: sub.secrets[i].createdAt})
	}
	return secrets, nil
}

func (f *fakeRemote) RevokeSecret(_ context.Context, creds domain.Credentials, subaccountKey string, secretID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("RevokeSecret", creds); err != nil {
		return err
	}
	sub, ok := f.subaccounts[subaccountKey]
	if !ok {
		return &ports.StatusError{Op: "RevokeSecret", Status: http.StatusNotFound}
	}
	for i, secret := range sub.secrets {
		if secret.id == secretID {
			sub.secrets = append(sub.secrets[:i], sub.secrets[i+1:]...)
			f.revoked = append(f.revoked, secretID)
			return nil
		}
	}
	return &ports.StatusError{Op: "RevokeSecret", Status: http.StatusNotFound}
}
