package credentials

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{ err error }

func (f failingStore) Lookup(context.Context, string) (string, error) {
	return "", f.err
}

func TestResolveToken(t *testing.T) {
	store := MapStore{"kanboard-token": "stored-secret"}
	boom := errors.New("store unavailable")

	tests := []struct {
		name         string
		store        Store
		credentialID string
		literal      string
		expected     string
		fromStore    bool
		wantErr      error
	}{
		{
			name:     "no credential id uses literal",
			store:    store,
			literal:  "literal-token",
			expected: "literal-token",
		},
		{
			name:         "credential id resolves",
			store:        store,
			credentialID: "kanboard-token",
			literal:      "literal-token",
			expected:     "stored-secret",
			fromStore:    true,
		},
		{
			name:         "unknown credential id falls back",
			store:        store,
			credentialID: "missing",
			literal:      "literal-token",
			expected:     "literal-token",
		},
		{
			name:         "nil store falls back",
			credentialID: "kanboard-token",
			literal:      "literal-token",
			expected:     "literal-token",
		},
		{
			name:         "store failure is returned",
			store:        failingStore{err: boom},
			credentialID: "kanboard-token",
			literal:      "literal-token",
			wantErr:      boom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, fromStore, err := ResolveToken(context.Background(), tt.store, tt.credentialID, tt.literal)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, token)
			assert.Equal(t, tt.fromStore, fromStore)
		})
	}
}

func TestEnvStore(t *testing.T) {
	env := map[string]string{
		"KB_CRED_KANBOARD_API_TOKEN": "from-env",
		"KB_CRED_EMPTY":              "",
	}
	store := &EnvStore{Prefix: "KB_CRED_", Getenv: func(k string) string { return env[k] }}

	assert.Equal(t, "KB_CRED_KANBOARD_API_TOKEN", store.VarName("kanboard-api.token"))

	secret, err := store.Lookup(context.Background(), "kanboard-api.token")
	require.NoError(t, err)
	assert.Equal(t, "from-env", secret)

	_, err = store.Lookup(context.Background(), "empty")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnvStoreProcessEnvironment(t *testing.T) {
	t.Setenv("KBTEST_TOKEN", "process-secret")
	secret, err := NewEnvStore("KBTEST_").Lookup(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, "process-secret", secret)
}

func TestChain(t *testing.T) {
	chain := Chain{
		nil,
		MapStore{"a": "first"},
		MapStore{"a": "shadowed", "b": "second"},
	}

	secret, err := chain.Lookup(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "first", secret)

	secret, err = chain.Lookup(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "second", secret)

	_, err = chain.Lookup(context.Background(), "c")
	assert.ErrorIs(t, err, ErrNotFound)

	boom := errors.New("boom")
	_, err = Chain{failingStore{err: boom}, MapStore{"a": "x"}}.Lookup(context.Background(), "a")
	assert.ErrorIs(t, err, boom)
}

func writeCredentials(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	writeCredentials(t, path, `
credentials:
  - id: kanboard-api-token
    secret: abc123
    description: CI integration token
  - id: other
    secret: xyz
`)

	store, err := NewFileStore(path, nil)
	require.NoError(t, err)

	secret, err := store.Lookup(context.Background(), "kanboard-api-token")
	require.NoError(t, err)
	assert.Equal(t, "abc123", secret)

	_, err = store.Lookup(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreInvalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{name: "missing id", content: "credentials:\n  - secret: x\n", errMsg: "has no id"},
		{name: "duplicate id", content: "credentials:\n  - id: a\n    secret: x\n  - id: a\n    secret: y\n", errMsg: "duplicate id"},
		{name: "not yaml", content: "credentials: [unterminated", errMsg: "cannot parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			writeCredentials(t, path, tt.content)
			_, err := NewFileStore(path, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	_, err := NewFileStore(filepath.Join(dir, "absent.yaml"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileStoreReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	writeCredentials(t, path, "credentials:\n  - id: a\n    secret: one\n")

	store, err := NewFileStore(path, nil)
	require.NoError(t, err)

	writeCredentials(t, path, "credentials: [broken")
	assert.Error(t, store.Reload())

	secret, err := store.Lookup(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "one", secret)
}

func TestFileStoreWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	writeCredentials(t, path, "credentials:\n  - id: a\n    secret: one\n")

	store, err := NewFileStore(path, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.Watch(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// Give the watcher time to register before changing the file
	time.Sleep(100 * time.Millisecond)
	writeCredentials(t, path, "credentials:\n  - id: a\n    secret: two\n")

	assert.Eventually(t, func() bool {
		secret, err := store.Lookup(context.Background(), "a")
		return err == nil && secret == "two"
	}, 3*time.Second, 50*time.Millisecond)
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLiteStore("sqlite://" + filepath.Join(t.TempDir(), "credentials.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	_, err = store.Lookup(ctx, "kanboard-api-token")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, Credential{ID: "kanboard-api-token", Secret: "first"}))
	require.NoError(t, store.Put(ctx, Credential{ID: "another", Secret: "x", Description: "unused"}))
	require.NoError(t, store.Put(ctx, Credential{ID: "kanboard-api-token", Secret: "rotated"}))

	secret, err := store.Lookup(ctx, "kanboard-api-token")
	require.NoError(t, err)
	assert.Equal(t, "rotated", secret)

	ids, err := store.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"another", "kanboard-api-token"}, ids)

	require.NoError(t, store.Delete(ctx, "another"))
	assert.ErrorIs(t, store.Delete(ctx, "another"), ErrNotFound)

	assert.Error(t, store.Put(ctx, Credential{Secret: "no id"}))
}

func TestOpenSQLiteStoreEmptyPath(t *testing.T) {
	_, err := OpenSQLiteStore("sqlite://")
	assert.Error(t, err)
}
