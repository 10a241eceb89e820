package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/bnema/subaccount-pool/internal/adapters/accountsapi"
	"github.com/bnema/subaccount-pool/internal/adapters/kv/file"
	"github.com/bnema/subaccount-pool/internal/adapters/kv/memory"
	"github.com/bnema/subaccount-pool/internal/adapters/kv/redis"
	poolrender "github.com/bnema/subaccount-pool/internal/adapters/render/pool"
	"github.com/bnema/subaccount-pool/internal/adapters/repo/kvstate"
	tomlrepo "github.com/bnema/subaccount-pool/internal/adapters/repo/toml"
	chainstore "github.com/bnema/subaccount-pool/internal/adapters/secrets/chain"
	passstore "github.com/bnema/subaccount-pool/internal/adapters/secrets/pass"
	"github.com/bnema/subaccount-pool/internal/application"
	"github.com/bnema/subaccount-pool/internal/config"
	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/bnema/subaccount-pool/internal/logging"
	"github.com/bnema/subaccount-pool/internal/metrics"
	"github.com/bnema/subaccount-pool/internal/ports"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	configFileEnv = "SUBPOOL_CONFIG"
	envFile       = ".env"
)

type app struct {
	cfg            config.Config
	logger         *logrus.Logger
	metrics        *metrics.Metrics
	store          ports.KVStore
	allocator      *application.Allocator
	mainKeys       *application.MainKeyService
	credentials    *application.CredentialService
	summaryRender  func(application.PoolSummary) (string, error)
	recordRenderer func(domain.Subaccount, poolrender.RenderOptions) (string, error)
}

func wireApp() (*app, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg, v, err := config.Load(config.LoadOptions{
		HomeDir:    homeDir,
		ConfigFile: os.Getenv(configFileEnv),
		EnvFile:    envFile,
	})
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	mainKeyRepo, err := tomlrepo.NewMainKeyRepository(v)
	if err != nil {
		return nil, fmt.Errorf("wire mainkeys repository: %w", err)
	}

	secretStore, err := chainstore.NewPassFirstWithFileFallback(passstore.Options{
		Command: cfg.Pass.Command,
		Prefix:  cfg.Pass.Prefix,
	}, cfg.SecretsPath, logger)
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}

	store, err := newKVStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	client := accountsapi.Client{
		BaseURL:        cfg.API.BaseURL,
		HTTPClient:     &http.Client{Timeout: cfg.API.Timeout},
		RequestTimeout: cfg.API.Timeout,
		Limiter:        newLimiter(cfg.API),
		Observer:       m,
		Clock:          ports.SystemClock{},
	}

	allocator := application.NewAllocator(kvstate.NewPoolStateRepository(store), client, application.AllocatorOptions{
		Logger:          logger,
		Observer:        m,
		StaleRetryDelay: cfg.Pool.StaleRetryDelay,
	})

	return &app{
		cfg:            cfg,
		logger:         logger,
		metrics:        m,
		store:          store,
		allocator:      allocator,
		mainKeys:       application.NewMainKeyService(mainKeyRepo),
		credentials:    application.NewCredentialService(secretStore),
		summaryRender:  poolrender.RenderSummary,
		recordRenderer: poolrender.RenderRecord,
	}, nil
}

func newKVStore(cfg config.StoreConfig) (ports.KVStore, error) {
	switch cfg.Driver {
	case config.StoreDriverFile:
		return file.NewStore(cfg.Path), nil
	case config.StoreDriverRedis:
		return redis.NewStore(redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		}), nil
	case config.StoreDriverMemory:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

// newLimiter returns nil when rate limiting is disabled.
func newLimiter(cfg config.APIConfig) *rate.Limiter {
	if cfg.RateLimit <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
}

func (a *app) close() {
	closer, ok := a.store.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		a.logger.WithError(err).Warn("close state store")
	}
}
