package ports

import (
	"context"
	"fmt"

	"github.com/bnema/subaccount-pool/internal/domain"
)

// AccountsAPI is the remote account-management API. Every call is
// authenticated with the primary credentials. Failures are one of
// *StatusError, *TransportError or *RequestError.
type AccountsAPI interface {
	CreateSubaccount(ctx context.Context, creds domain.Credentials, req CreateSubaccountRequest) (domain.Subaccount, error)
	GetSubaccount(ctx context.Context, creds domain.Credentials, subaccountKey string) (domain.Subaccount, error)
	ModifySubaccount(ctx context.Context, creds domain.Credentials, subaccountKey string, req ModifySubaccountRequest) (domain.Subaccount, error)

	CreateSecret(ctx context.Context, creds domain.Credentials, subaccountKey string, secret string) (domain.Secret, error)
	ListSecrets(ctx context.Context, creds domain.Credentials, subaccountKey string) ([]domain.Secret, error)
	RevokeSecret(ctx context.Context, creds domain.Credentials, subaccountKey string, secretID string) error
}

type CreateSubaccountRequest struct {
	Name          string
	Secret        string
	WithSignature bool
}

type ModifySubaccountRequest struct {
	Name      string
	Suspended bool
}

// StatusError means the remote responded with a non-success status.
type StatusError struct {
	Op     string
	Status int
	Type   string
	Title  string
	Detail string
}

func (e *StatusError) Error() string {
	msg := e.Title
	if e.Detail != "" {
		if msg != "" {
			msg += ": "
		}
		msg += e.Detail
	}
	if msg == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}

	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, msg)
}

// TransportError means no usable response was received.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RequestError means the request could not be built.
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: invalid request: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
