package toml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T, path string) *MainKeyRepository {
	t.Helper()

	config := viper.New()
	config.Set("mainkeys.path", path)
	repo, err := NewMainKeyRepository(config)
	require.NoError(t, err)
	return repo
}

func TestMainKeyRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "mainkeys.toml"))
	keys := []domain.MainKey{{APIKey: "P1", Pool: true}, {APIKey: "P2"}}

	require.NoError(t, repo.Replace(context.Background(), keys))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, keys, got)

	require.NoError(t, repo.Replace(context.Background(), []domain.MainKey{{APIKey: "P3", Pool: true}}))
	got, err = repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.MainKey{{APIKey: "P3", Pool: true}}, got)
}

func TestMainKeyRepositoryNeverSetReturnsNotFound(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "missing", "mainkeys.toml"))

	_, err := repo.List(context.Background())
	require.ErrorIs(t, err, domain.ErrMainKeysNotFound)
}

func TestMainKeyRepositoryDefaultPathAndPermissions(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	repo, err := NewMainKeyRepository(viper.New())
	require.NoError(t, err)
	require.NoError(t, repo.Replace(context.Background(), []domain.MainKey{{APIKey: "P1", Pool: true}}))

	info, err := os.Stat(filepath.Join(homeDir, ".subpool", "mainkeys.toml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestMainKeyRepositorySerializedTOML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mainkeys.toml")
	repo := newTestRepository(t, path)
	require.NoError(t, repo.Replace(context.Background(), []domain.MainKey{{APIKey: "P1", Pool: true}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
	assert.Contains(t, string(data), "[[mainkeys]]")
	assert.Contains(t, string(data), "api_key = 'P1'")
}

func TestMainKeyRepositoryMalformedTOMLReturnsError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mainkeys.toml")
	require.NoError(t, os.WriteFile(path, []byte("mainkeys = ["), 0o600))

	_, err := newTestRepository(t, path).List(context.Background())
	assert.ErrorContains(t, err, "decode mainkeys file")
}

func TestMainKeyRepositoryFutureSchemaVersionReturnsError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mainkeys.toml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		"version = 999",
		"mainkeys = []",
		"",
	}, "\n")), 0o600))

	_, err := newTestRepository(t, path).List(context.Background())
	assert.ErrorContains(t, err, "unsupported mainkeys schema version")
}

func TestMainKeyRepositoryCanceledContext(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "mainkeys.toml"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Replace(ctx, []domain.MainKey{{APIKey: "P1"}})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestMainKeyRepositoryConcurrentReplacesStayReadable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mainkeys.toml")
	repoA := newTestRepository(t, path)
	repoB := newTestRepository(t, path)

	var wg sync.WaitGroup
	errCh := make(chan error, 100)
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			errCh <- repoA.Replace(context.Background(), []domain.MainKey{{APIKey: "A" + strconv.Itoa(i), Pool: true}})
		}(i)
		go func() {
			defer wg.Done()
			_, err := repoB.List(context.Background())
			if errors.Is(err, domain.ErrMainKeysNotFound) {
				err = nil
			}
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	keys, err := repoB.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}
