package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrKeyNotFound      = errors.New("key not found")
	ErrRecordNotFound   = errors.New("subaccount record not found")
	ErrNoneFree         = errors.New("no free subaccount in pool")
	ErrStateDrift       = errors.New("pool state drift")
	ErrMainKeysNotFound = errors.New("main keys not configured")
	ErrSecretNotFound   = errors.New("secret not found")
)

// Kind classifies a failure for callers. It drives the retry and fallback
// decisions of the allocator and the HTTP status of the caller-facing API.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindRemoteRejected     Kind = "remote_rejected"
	KindRemoteUnavailable  Kind = "remote_unavailable"
	KindStoreInconsistency Kind = "store_inconsistency"
	KindNotFound           Kind = "not_found"
	KindConflict           Kind = "conflict"
	KindForbidden          Kind = "forbidden"
	KindUnauthorized       Kind = "unauthorized"
	KindInternal           Kind = "internal"
)

// Reason narrows a RemoteRejected failure to a shape the allocator recovers from.
type Reason string

const (
	ReasonSecretLimit    Reason = "secret_limit"
	ReasonSecretRejected Reason = "secret_rejected"
	ReasonStaleVersion   Reason = "stale_version"
)

type Error struct {
	Kind    Kind
	Reason  Reason
	Op      string
	Detail  string
	Status  int
	Reasons []string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Reason != "" {
		b.WriteString(" (")
		b.WriteString(string(e.Reason))
		b.WriteString(")")
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind Kind, op string, detail string) *Error {
	return &Error{Kind: kind, Op: op, Detail: detail}
}

func WrapError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain. Plain errors are
// KindInternal; a nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	if errors.Is(err, ErrRecordNotFound) || errors.Is(err, ErrMainKeysNotFound) {
		return KindNotFound
	}

	return KindInternal
}

func HasReason(err error, reason Reason) bool {
	var domainErr *Error
	if !errors.As(err, &domainErr) {
		return false
	}

	return domainErr.Reason == reason
}

// MissingRecordError reports an index entry whose record is absent.
type MissingRecordError struct {
	PrimaryKey string
	APIKey     string
}

func (e *MissingRecordError) Error() string {
	return fmt.Sprintf("index of %s lists %s but its record is missing", e.PrimaryKey, e.APIKey)
}

func (e *MissingRecordError) Is(target error) bool {
	return target == ErrRecordNotFound
}

// LeasedRecordError reports a member whose index entry was leased but whose
// record could not be loaded.
type LeasedRecordError struct {
	PrimaryKey string
	APIKey     string
	Err        error
}

func (e *LeasedRecordError) Error() string {
	return fmt.Sprintf("leased %s from %s but its record is unreadable: %v", e.APIKey, e.PrimaryKey, e.Err)
}

func (e *LeasedRecordError) Unwrap() error {
	return e.Err
}
