package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/bnema/subaccount-pool/internal/application"
	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 64 << 10

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleReplaceMainKeys(w http.ResponseWriter, r *http.Request) {
	var body []mainKeyDTO
	if err := decodeJSON(r.Body, &body); err != nil {
		writeError(w, r, err)
		return
	}

	keys, err := h.mainKeys.Replace(r.Context(), fromMainKeyDTOs(body))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toMainKeyDTOs(keys))
}

func (h *handler) handleListMainKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.mainKeys.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toMainKeyDTOs(keys))
}

func (h *handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	index, err := h.pool.Index(r.Context(), chi.URLParam(r, "apikey"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toIndexDTO(index))
}

func (h *handler) handleAcquire(w http.ResponseWriter, r *http.Request) {
	var body subaccountRequest
	if err := decodeJSON(r.Body, &body); err != nil {
		writeError(w, r, err)
		return
	}

	record, err := h.pool.Acquire(r.Context(), application.AcquireCommand{
		Credentials: credentialsFrom(r.Context()),
		Name:        body.Name,
		Secret:      body.Secret,
	})
	h.respondRecord(w, r, record, err)
}

func (h *handler) handleRelease(w http.ResponseWriter, r *http.Request) {
	record, err := h.pool.Release(r.Context(), application.ReleaseCommand{
		Credentials:   credentialsFrom(r.Context()),
		SubaccountKey: chi.URLParam(r, "subkey"),
	})
	h.respondRecord(w, r, record, err)
}

func (h *handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	record, err := h.pool.Record(r.Context(), application.RecordQuery{
		PrimaryKey:    chi.URLParam(r, "apikey"),
		SubaccountKey: chi.URLParam(r, "subkey"),
	})
	h.respondRecord(w, r, record, err)
}

func (h *handler) handleAdopt(w http.ResponseWriter, r *http.Request) {
	record, err := h.pool.Adopt(r.Context(), application.AdoptCommand{
		Credentials:   credentialsFrom(r.Context()),
		SubaccountKey: chi.URLParam(r, "subkey"),
	})
	h.respondRecord(w, r, record, err)
}

func (h *handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	record, err := h.pool.Reconcile(r.Context(), application.ReconcileCommand{
		Credentials:   credentialsFrom(r.Context()),
		SubaccountKey: chi.URLParam(r, "subkey"),
	})
	h.respondRecord(w, r, record, err)
}

func (h *handler) handleSetSignatureSecret(w http.ResponseWriter, r *http.Request) {
	var body signatureRequest
	if err := decodeJSON(r.Body, &body); err != nil {
		writeError(w, r, err)
		return
	}

	record, err := h.pool.SetSignatureSecret(r.Context(), application.SetSignatureSecretCommand{
		PrimaryKey:      chi.URLParam(r, "apikey"),
		SubaccountKey:   chi.URLParam(r, "subkey"),
		SignatureSecret: body.SignatureSecret,
	})
	h.respondRecord(w, r, record, err)
}

func (h *handler) handleCreateStandalone(w http.ResponseWriter, r *http.Request) {
	var body subaccountRequest
	if err := decodeJSON(r.Body, &body); err != nil {
		writeError(w, r, err)
		return
	}

	record, err := h.pool.CreateStandalone(r.Context(), application.CreateStandaloneCommand{
		Credentials: credentialsFrom(r.Context()),
		Name:        body.Name,
		Secret:      body.Secret,
	})
	h.respondRecord(w, r, record, err)
}

func (h *handler) respondRecord(w http.ResponseWriter, r *http.Request, record domain.Subaccount, err error) {
	if err != nil {
		h.logger.WithField("request_id", requestIDFrom(r.Context())).WithError(err).Debug("request rejected")
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSubaccountDTO(record))
}

func decodeJSON(body io.Reader, dst interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return &domain.Error{Kind: domain.KindValidation, Op: "decode request", Detail: "invalid json body", Err: err}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func asDomainError(err error) (*domain.Error, bool) {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}
