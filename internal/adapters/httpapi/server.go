// Package httpapi exposes the pool over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bnema/subaccount-pool/internal/application"
	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/bnema/subaccount-pool/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Pool is the allocator surface served by the API.
type Pool interface {
	Acquire(ctx context.Context, cmd application.AcquireCommand) (domain.Subaccount, error)
	Release(ctx context.Context, cmd application.ReleaseCommand) (domain.Subaccount, error)
	Index(ctx context.Context, primaryKey string) (domain.PoolIndex, error)
	Record(ctx context.Context, query application.RecordQuery) (domain.Subaccount, error)
	Adopt(ctx context.Context, cmd application.AdoptCommand) (domain.Subaccount, error)
	Reconcile(ctx context.Context, cmd application.ReconcileCommand) (domain.Subaccount, error)
	SetSignatureSecret(ctx context.Context, cmd application.SetSignatureSecretCommand) (domain.Subaccount, error)
	CreateStandalone(ctx context.Context, cmd application.CreateStandaloneCommand) (domain.Subaccount, error)
}

type MainKeys interface {
	Replace(ctx context.Context, keys []domain.MainKey) ([]domain.MainKey, error)
	List(ctx context.Context) ([]domain.MainKey, error)
	RequirePooled(ctx context.Context, apiKey string) error
}

type Options struct {
	Pool     Pool
	MainKeys MainKeys
	Logger   logrus.FieldLogger
	Metrics  *metrics.Metrics
}

type handler struct {
	pool     Pool
	mainKeys MainKeys
	logger   logrus.FieldLogger
}

func NewHandler(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	h := &handler{pool: opts.Pool, mainKeys: opts.MainKeys, logger: logger}

	router := chi.NewRouter()
	router.Use(requestID)
	router.Use(requestLogger(logger))
	if opts.Metrics != nil {
		router.Use(instrument(opts.Metrics))
	}
	router.Use(middleware.Recoverer)

	for _, path := range []string{"/healthz", "/_/health", "/keep-alive"} {
		router.Get(path, h.handleHealth)
	}
	if opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	router.Group(func(r chi.Router) {
		r.Use(basicAuth)

		r.Put("/mainkeys", h.handleReplaceMainKeys)
		r.Get("/mainkeys", h.handleListMainKeys)

		r.Route("/account/{apikey}", func(r chi.Router) {
			r.Use(matchAccount)

			r.Get("/index", h.handleIndex)
			r.Post("/standalone", h.handleCreateStandalone)

			r.Group(func(r chi.Router) {
				r.Use(h.requirePooled)
				r.Post("/subaccounts", h.handleAcquire)
				r.Delete("/subaccounts/{subkey}", h.handleRelease)
			})

			r.Get("/subaccounts/{subkey}", h.handleRecord)
			r.Post("/subaccounts/{subkey}/adopt", h.handleAdopt)
			r.Post("/subaccounts/{subkey}/reconcile", h.handleReconcile)
			r.Put("/subaccounts/{subkey}/signature", h.handleSetSignatureSecret)
		})
	})

	return router
}

// Serve runs the API until ctx is done, then drains in-flight requests.
func Serve(ctx context.Context, addr string, h http.Handler, logger logrus.FieldLogger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("http server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	logger.Info("http server shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
