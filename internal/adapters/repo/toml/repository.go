package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/bnema/subaccount-pool/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	mainKeysPathKey    = "mainkeys.path"
	mainKeysFileMode   = 0o600
	mainKeysDirMode    = 0o700
	mainKeysConfigDir  = ".subpool"
	mainKeysConfigFile = "mainkeys.toml"
	tempFilePattern    = ".mainkeys-*.toml.tmp"
)

// MainKeyRepository persists the main key registry as a versioned TOML file.
// A missing file means the registry was never set.
type MainKeyRepository struct {
	path string
	mu   *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.MainKeyRepository = (*MainKeyRepository)(nil)

func NewMainKeyRepository(cfg *viper.Viper) (*MainKeyRepository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	if !cfg.IsSet(mainKeysPathKey) {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.SetDefault(mainKeysPathKey, filepath.Join(homeDir, mainKeysConfigDir, mainKeysConfigFile))
	}

	path := cfg.GetString(mainKeysPathKey)
	if path == "" {
		return nil, errors.New("mainkeys path is empty")
	}
	path, err := normalizePath(path)
	if err != nil {
		return nil, err
	}

	return &MainKeyRepository{path: path, mu: lockForPath(path)}, nil
}

func (r *MainKeyRepository) List(ctx context.Context) ([]domain.MainKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, found, err := r.readSchema()
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrMainKeysNotFound
	}

	keys := make([]domain.MainKey, 0, len(file.MainKeys))
	for _, entry := range file.MainKeys {
		keys = append(keys, domain.MainKey{APIKey: entry.APIKey, Pool: entry.Pool})
	}

	return keys, nil
}

func (r *MainKeyRepository) Replace(ctx context.Context, keys []domain.MainKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file := fileSchema{MainKeys: make([]mainKeySchema, 0, len(keys))}
	for _, key := range keys {
		file.MainKeys = append(file.MainKeys, mainKeySchema{APIKey: key.APIKey, Pool: key.Pool})
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *MainKeyRepository) readSchema() (fileSchema, bool, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, false, nil
		}
		return fileSchema{}, false, fmt.Errorf("read mainkeys file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, false, fmt.Errorf("decode mainkeys file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, false, err
	}
	file.applyDefaults()

	return file, true, nil
}

func normalizePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve mainkeys path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *MainKeyRepository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.path), mainKeysDirMode); err != nil {
		return fmt.Errorf("create mainkeys directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode mainkeys file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp mainkeys file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp mainkeys file: %w", err)
	}

	if err := tempFile.Chmod(mainKeysFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp mainkeys file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp mainkeys file: %w", err)
	}

	if err := os.Rename(tempName, r.path); err != nil {
		return fmt.Errorf("replace mainkeys file: %w", err)
	}

	cleanup = false

	return nil
}
