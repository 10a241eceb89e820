package pass

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const credentialKey = "subpool/primary/P1/secret"

func TestPutInsertsSingleLineEntryWithConfirmation(t *testing.T) {
	t.Parallel()

	called := false
	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			called = true
			assert.Equal(t, []string{"insert", "-f", credentialKey}, args)
			assert.Equal(t, "PrimarySecret1\nPrimarySecret1\n", input)
			return "", "", nil
		},
	}

	require.NoError(t, store.Put(context.Background(), credentialKey, "PrimarySecret1"))
	assert.True(t, called)
}

func TestPutRejectsMultilineSecrets(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			t.Fatal("pass must not be invoked")
			return "", "", nil
		},
	}

	err := store.Put(context.Background(), credentialKey, "line1\nline2")
	require.ErrorIs(t, err, errMultiline)
}

func TestGetReturnsFirstLineOfEntry(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			assert.Equal(t, []string{"show", credentialKey}, args)
			assert.Empty(t, input)
			return "PrimarySecret1\r\nowner: ops\n", "", nil
		},
	}

	value, err := store.Get(context.Background(), credentialKey)
	require.NoError(t, err)
	assert.Equal(t, "PrimarySecret1", value)
}

func TestPrefixNamespacesEntries(t *testing.T) {
	t.Parallel()

	store := &Store{
		prefix: "work",
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			assert.Equal(t, []string{"rm", "-f", "work/" + credentialKey}, args)
			return "", "", nil
		},
	}

	require.NoError(t, store.Delete(context.Background(), credentialKey))
}

func TestNewStoreTrimsPrefixSlashes(t *testing.T) {
	t.Parallel()

	store := NewStore(Options{Prefix: "/work/"})
	assert.Equal(t, "work/"+credentialKey, store.entry(credentialKey))
}

func TestGetReturnsClearError(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			return "", "gpg: decryption failed", errors.New("exit status 2")
		},
	}

	_, err := store.Get(context.Background(), credentialKey)
	require.Error(t, err)
	assert.ErrorContains(t, err, "pass get")
	assert.ErrorContains(t, err, credentialKey)
	assert.ErrorContains(t, err, "gpg: decryption failed")
}

func TestMissingEntryMapsToKeyNotFound(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			return "", "Error: " + credentialKey + " is not in the password store.", errors.New("exit status 1")
		},
	}

	_, err := store.Get(context.Background(), credentialKey)
	require.ErrorIs(t, err, domain.ErrKeyNotFound)

	err = store.Delete(context.Background(), credentialKey)
	require.ErrorIs(t, err, domain.ErrKeyNotFound)
}

func TestCanceledContextSkipsCommand(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			t.Fatal("pass must not be invoked")
			return "", "", nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Get(ctx, credentialKey)
	require.ErrorIs(t, err, context.Canceled)
}
