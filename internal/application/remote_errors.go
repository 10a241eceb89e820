package application

import (
	"errors"
	"net/http"

	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/bnema/subaccount-pool/internal/ports"
)

// statusReasons maps remote status codes of one operation to the rejection
// shapes the allocator recovers from.
type statusReasons map[int]domain.Reason

var (
	createSecretReasons = statusReasons{
		http.StatusBadRequest: domain.ReasonSecretRejected,
		http.StatusForbidden:  domain.ReasonSecretLimit,
	}
	modifySubaccountReasons = statusReasons{
		http.StatusForbidden: domain.ReasonStaleVersion,
	}
)

// classifyRemote turns an AccountsAPI failure into a *domain.Error.
func classifyRemote(op string, err error, reasons statusReasons) error {
	if err == nil {
		return nil
	}

	var (
		statusErr    *ports.StatusError
		transportErr *ports.TransportError
		requestErr   *ports.RequestError
	)
	switch {
	case errors.As(err, &statusErr):
		classified := &domain.Error{Op: op, Status: statusErr.Status, Detail: problemDetail(statusErr), Err: err}
		reason, known := reasons[statusErr.Status]
		switch {
		case known:
			classified.Kind = domain.KindRemoteRejected
			classified.Reason = reason
		case statusErr.Status == http.StatusNotFound:
			classified.Kind = domain.KindNotFound
		case statusErr.Status == http.StatusUnauthorized:
			classified.Kind = domain.KindUnauthorized
		case statusErr.Status >= http.StatusInternalServerError:
			classified.Kind = domain.KindRemoteUnavailable
		default:
			classified.Kind = domain.KindRemoteRejected
		}
		return classified
	case errors.As(err, &transportErr):
		return &domain.Error{Kind: domain.KindRemoteUnavailable, Op: op, Err: err}
	case errors.As(err, &requestErr):
		kind := domain.KindInternal
		var inner *domain.Error
		if errors.As(requestErr.Err, &inner) {
			kind = inner.Kind
		}
		return &domain.Error{Kind: kind, Op: op, Err: err}
	default:
		return &domain.Error{Kind: domain.KindInternal, Op: op, Err: err}
	}
}

func problemDetail(err *ports.StatusError) string {
	if err.Detail != "" {
		return err.Detail
	}
	return err.Title
}
