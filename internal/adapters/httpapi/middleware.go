package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/bnema/subaccount-pool/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

type contextKey int

const (
	requestIDKey contextKey = iota
	credentialsKey
)

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func credentialsFrom(ctx context.Context) domain.Credentials {
	creds, _ := ctx.Value(credentialsKey).(domain.Credentials)
	return creds
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			entry := logger.WithFields(logrus.Fields{
				"request_id": requestIDFrom(r.Context()),
				"method":     r.Method,
				"route":      routePattern(r),
				"status":     rec.status,
				"elapsed":    time.Since(start).String(),
			})
			if rec.status >= http.StatusInternalServerError {
				entry.Warn("request failed")
				return
			}
			entry.Info("request handled")
		})
	}
}

func instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			m.RequestStarted()
			defer m.RequestFinished()

			next.ServeHTTP(rec, r)
			m.ObserveHTTPRequest(r.Method, routePattern(r), rec.status, time.Since(start))
		})
	}
}

// basicAuth stores the primary credential pair for the handlers. It does not
// verify the pair; the remote API does that on every call.
func basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			writeError(w, r, domain.NewError(domain.KindUnauthorized, "authenticate", "no auth headers"))
			return
		}

		apiKey, secret, ok := r.BasicAuth()
		creds := domain.Credentials{APIKey: apiKey, Secret: secret}
		if !ok || creds.Validate() != nil {
			writeError(w, r, domain.NewError(domain.KindUnauthorized, "authenticate", "invalid authorization header"))
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), credentialsKey, creds)))
	})
}

// matchAccount rejects requests whose path key differs from the auth key.
func matchAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "apikey") != credentialsFrom(r.Context()).APIKey {
			writeError(w, r, domain.NewError(domain.KindUnauthorized, "authenticate", "key/header mismatch"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *handler) requirePooled(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h.mainKeys.RequirePooled(r.Context(), chi.URLParam(r, "apikey")); err != nil {
			writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.written {
		r.status = code
		r.written = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.written = true
	return r.ResponseWriter.Write(b)
}
