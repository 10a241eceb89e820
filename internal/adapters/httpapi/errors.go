package httpapi

import (
	"net/http"

	"github.com/bnema/subaccount-pool/internal/domain"
)

type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Kind      string   `json:"kind"`
	Detail    string   `json:"detail"`
	Reason    string   `json:"reason,omitempty"`
	Reasons   []string `json:"reasons,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindRemoteRejected:
		if status := remoteStatus(err); status >= 400 && status < 500 {
			return status
		}
		return http.StatusUnprocessableEntity
	case domain.KindRemoteUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func remoteStatus(err error) int {
	domainErr, ok := asDomainError(err)
	if !ok {
		return 0
	}
	return domainErr.Status
}

// writeError never exposes wrapped transport or store errors; callers see
// the kind and the domain detail only.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	payload := errorPayload{
		Kind:      string(domain.KindOf(err)),
		RequestID: requestIDFrom(r.Context()),
	}

	if domainErr, ok := asDomainError(err); ok {
		payload.Detail = domainErr.Detail
		payload.Reason = string(domainErr.Reason)
		payload.Reasons = domainErr.Reasons
	}
	if payload.Detail == "" {
		payload.Detail = http.StatusText(statusFor(err))
	}

	writeJSON(w, statusFor(err), errorBody{Error: payload})
}
