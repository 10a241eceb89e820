// Package config resolves process settings from defaults, an optional TOML
// config file, a .env file and SUBPOOL_ environment variables, in rising
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix  = "SUBPOOL"
	configName = "config"
	configType = "toml"
	configDir  = ".subpool"
)

const (
	KeyListenAddr      = "listen_addr"
	KeyAPIBaseURL      = "api.base_url"
	KeyAPITimeout      = "api.timeout"
	KeyAPIRateLimit    = "api.rate_limit"
	KeyAPIBurst        = "api.burst"
	KeyStoreDriver     = "store.driver"
	KeyStorePath       = "store.path"
	KeyRedisAddr       = "store.redis.addr"
	KeyRedisPassword   = "store.redis.password"
	KeyRedisDB         = "store.redis.db"
	KeyRedisPrefix     = "store.redis.prefix"
	KeyStaleRetryDelay = "pool.stale_retry_delay"
	KeyMainKeysPath    = "mainkeys.path"
	KeySecretsPath     = "secrets.path"
	KeyPassCommand     = "secrets.pass_command"
	KeyPassPrefix      = "secrets.pass_prefix"
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
)

const (
	StoreDriverFile   = "file"
	StoreDriverRedis  = "redis"
	StoreDriverMemory = "memory"
)

type Config struct {
	ListenAddr   string
	API          APIConfig
	Store        StoreConfig
	Pool         PoolConfig
	MainKeysPath string
	SecretsPath  string
	Pass         PassConfig
	Log          LogConfig
}

type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64
	Burst     int
}

type StoreConfig struct {
	Driver string
	Path   string
	Redis  RedisConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type PoolConfig struct {
	StaleRetryDelay time.Duration
}

type PassConfig struct {
	Command string
	Prefix  string
}

type LogConfig struct {
	Level  string
	Format string
}

type LoadOptions struct {
	// HomeDir overrides the user home directory used for defaults.
	HomeDir string
	// ConfigFile is an explicit config path; empty means ~/.subpool/config.toml when present.
	ConfigFile string
	// EnvFile is loaded into the environment when it exists. Variables
	// already set are left alone.
	EnvFile string
}

// Load returns the resolved configuration and the viper instance it was
// read from so adapters can be constructed from the same source.
func Load(opts LoadOptions) (Config, *viper.Viper, error) {
	homeDir := opts.HomeDir
	if homeDir == "" {
		resolved, err := os.UserHomeDir()
		if err != nil {
			return Config{}, nil, fmt.Errorf("resolve home directory: %w", err)
		}
		homeDir = resolved
	}

	if err := loadEnvFile(opts.EnvFile); err != nil {
		return Config{}, nil, err
	}

	v := viper.New()
	setDefaults(v, homeDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(filepath.Join(homeDir, configDir))
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &configNotFound) {
			return Config{}, nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return Config{}, nil, err
	}

	return cfg, v, nil
}

func setDefaults(v *viper.Viper, homeDir string) {
	base := filepath.Join(homeDir, configDir)

	v.SetDefault(KeyListenAddr, ":8080")
	v.SetDefault(KeyAPIBaseURL, "https://api.nexmo.com")
	v.SetDefault(KeyAPITimeout, 30*time.Second)
	v.SetDefault(KeyAPIRateLimit, 8.0)
	v.SetDefault(KeyAPIBurst, 4)
	v.SetDefault(KeyStoreDriver, StoreDriverFile)
	v.SetDefault(KeyStorePath, filepath.Join(base, "state"))
	v.SetDefault(KeyRedisAddr, "127.0.0.1:6379")
	v.SetDefault(KeyRedisPassword, "")
	v.SetDefault(KeyRedisDB, 0)
	v.SetDefault(KeyRedisPrefix, "subpool:")
	v.SetDefault(KeyStaleRetryDelay, 500*time.Millisecond)
	v.SetDefault(KeyMainKeysPath, filepath.Join(base, "mainkeys.toml"))
	v.SetDefault(KeySecretsPath, filepath.Join(base, "secrets"))
	v.SetDefault(KeyPassCommand, "pass")
	v.SetDefault(KeyPassPrefix, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
}

func fromViper(v *viper.Viper) Config {
	return Config{
		ListenAddr: v.GetString(KeyListenAddr),
		API: APIConfig{
			BaseURL:   strings.TrimRight(v.GetString(KeyAPIBaseURL), "/"),
			Timeout:   v.GetDuration(KeyAPITimeout),
			RateLimit: v.GetFloat64(KeyAPIRateLimit),
			Burst:     v.GetInt(KeyAPIBurst),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(strings.TrimSpace(v.GetString(KeyStoreDriver))),
			Path:   v.GetString(KeyStorePath),
			Redis: RedisConfig{
				Addr:     v.GetString(KeyRedisAddr),
				Password: v.GetString(KeyRedisPassword),
				DB:       v.GetInt(KeyRedisDB),
				Prefix:   v.GetString(KeyRedisPrefix),
			},
		},
		Pool: PoolConfig{
			StaleRetryDelay: v.GetDuration(KeyStaleRetryDelay),
		},
		MainKeysPath: v.GetString(KeyMainKeysPath),
		SecretsPath:  v.GetString(KeySecretsPath),
		Pass: PassConfig{
			Command: v.GetString(KeyPassCommand),
			Prefix:  v.GetString(KeyPassPrefix),
		},
		Log: LogConfig{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
	}
}

func (c Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverFile:
		if c.Store.Path == "" {
			return errors.New("store path is empty")
		}
	case StoreDriverRedis:
		if c.Store.Redis.Addr == "" {
			return errors.New("redis address is empty")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}

	if c.API.BaseURL == "" {
		return errors.New("api base url is empty")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api timeout must be positive, got %s", c.API.Timeout)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("api rate limit must not be negative, got %v", c.API.RateLimit)
	}
	if c.Pool.StaleRetryDelay < 0 {
		return fmt.Errorf("stale retry delay must not be negative, got %s", c.Pool.StaleRetryDelay)
	}

	return nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}

	return nil
}
