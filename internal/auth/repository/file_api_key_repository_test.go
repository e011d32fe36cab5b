package repository

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/playready-proxy/internal/auth/domain"
	apperrors "github.com/allisson/playready-proxy/internal/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFileRepo(t *testing.T, content string) *FileAPIKeyRepository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "APIKEY.json")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	repo, err := NewFileAPIKeyRepository(path, discardLogger())
	require.NoError(t, err)
	return repo
}

func TestNewFileAPIKeyRepository(t *testing.T) {
	t.Run("missing file is empty", func(t *testing.T) {
		repo := newFileRepo(t, "")

		keys, err := repo.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("legacy layout", func(t *testing.T) {
		repo := newFileRepo(t, `[{"username":"alice","apikey":"alice_0011"},{"username":"bob","apikey":"bob_2233"}]`)

		keys, err := repo.List(context.Background())
		require.NoError(t, err)
		require.Len(t, keys, 2)
		assert.Equal(t, "alice", keys[0].Username)
		assert.Equal(t, "bob_2233", keys[1].Key)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "APIKEY.json")
		require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

		repo, err := NewFileAPIKeyRepository(path, discardLogger())
		assert.Error(t, err)
		assert.Nil(t, repo)
	})
}

func TestFileAPIKeyRepository_ReplaceAndGet(t *testing.T) {
	repo := newFileRepo(t, `[{"username":"bob","apikey":"bob_2233"}]`)
	ctx := context.Background()

	apiKey := &authDomain.APIKey{Username: "alice", Key: "alice_aa", KeyHash: "h", KeyHint: "aa", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Replace(ctx, apiKey))

	found, err := repo.GetByKey(ctx, "alice_aa")
	require.NoError(t, err)
	assert.Equal(t, "alice", found.Username)
	assert.Empty(t, found.KeyHash)

	_, err = repo.GetByKey(ctx, "alice_ab")
	assert.ErrorIs(t, err, authDomain.ErrAPIKeyNotFound)

	// Replacing drops the previous key of the same user and keeps the others.
	require.NoError(t, repo.Replace(ctx, &authDomain.APIKey{Username: "alice", Key: "alice_bb"}))
	_, err = repo.GetByKey(ctx, "alice_aa")
	assert.ErrorIs(t, err, authDomain.ErrAPIKeyNotFound)
	_, err = repo.GetByKey(ctx, "bob_2233")
	assert.NoError(t, err)

	keys, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, "alice_bb", keys[1].Key)

	// Another user's key is never taken over.
	err = repo.Replace(ctx, &authDomain.APIKey{Username: "carol", Key: "bob_2233"})
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	// The change is on disk in the legacy layout.
	reopened, err := NewFileAPIKeyRepository(repo.Path(), discardLogger())
	require.NoError(t, err)
	found, err = reopened.GetByKey(ctx, "alice_bb")
	require.NoError(t, err)
	assert.Equal(t, "alice", found.Username)

	data, err := os.ReadFile(repo.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"apikey": "alice_bb"`)
	assert.NotContains(t, string(data), "alice_aa")
}

func TestFileAPIKeyRepository_ReplaceWriteFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "keys")
	require.NoError(t, os.Mkdir(dir, 0o700))
	repo, err := NewFileAPIKeyRepository(filepath.Join(dir, "APIKEY.json"), discardLogger())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, repo.Replace(ctx, &authDomain.APIKey{Username: "alice", Key: "alice_aa"}))
	require.NoError(t, os.RemoveAll(dir))

	err = repo.Replace(ctx, &authDomain.APIKey{Username: "alice", Key: "alice_bb"})
	require.Error(t, err)

	found, err := repo.GetByKey(ctx, "alice_aa")
	require.NoError(t, err)
	assert.Equal(t, "alice", found.Username)
	_, err = repo.GetByKey(ctx, "alice_bb")
	assert.ErrorIs(t, err, authDomain.ErrAPIKeyNotFound)
}

func TestFileAPIKeyRepository_DeleteByUsername(t *testing.T) {
	repo := newFileRepo(t, `[{"username":"alice","apikey":"alice_0011"},{"username":"bob","apikey":"bob_2233"}]`)
	ctx := context.Background()

	require.NoError(t, repo.DeleteByUsername(ctx, "alice"))

	_, err := repo.GetByKey(ctx, "alice_0011")
	assert.ErrorIs(t, err, authDomain.ErrAPIKeyNotFound)

	_, err = repo.GetByKey(ctx, "bob_2233")
	assert.NoError(t, err)

	err = repo.DeleteByUsername(ctx, "alice")
	assert.ErrorIs(t, err, authDomain.ErrAPIKeyNotFound)
}

func TestFileAPIKeyRepository_ListReturnsCopies(t *testing.T) {
	repo := newFileRepo(t, `[{"username":"alice","apikey":"alice_0011"}]`)
	ctx := context.Background()

	keys, err := repo.List(ctx)
	require.NoError(t, err)
	keys[0].Key = "tampered"

	_, err = repo.GetByKey(ctx, "alice_0011")
	assert.NoError(t, err)
}

func TestFileAPIKeyRepository_Reload(t *testing.T) {
	repo := newFileRepo(t, `[{"username":"alice","apikey":"alice_0011"}]`)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(repo.Path(), []byte(`[{"username":"alice","apikey":"alice_ffff"}]`), 0o600))
	require.NoError(t, repo.Reload())

	_, err := repo.GetByKey(ctx, "alice_0011")
	assert.ErrorIs(t, err, authDomain.ErrAPIKeyNotFound)
	_, err = repo.GetByKey(ctx, "alice_ffff")
	assert.NoError(t, err)

	// A broken file keeps the previous cache.
	require.NoError(t, os.WriteFile(repo.Path(), []byte(`[`), 0o600))
	assert.Error(t, repo.Reload())
	_, err = repo.GetByKey(ctx, "alice_ffff")
	assert.NoError(t, err)
}

func TestFileAPIKeyRepository_ReloadDuringReplace(t *testing.T) {
	repo := newFileRepo(t, "")
	ctx := context.Background()

	const rounds = 50
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range rounds {
			key := fmt.Sprintf("alice_%04d", i)
			assert.NoError(t, repo.Replace(ctx, &authDomain.APIKey{Username: "alice", Key: key}))
		}
	}()
	go func() {
		defer wg.Done()
		for range rounds {
			assert.NoError(t, repo.Reload())
		}
	}()
	wg.Wait()

	// A reload that raced the last write must not leave a stale key cached.
	last := fmt.Sprintf("alice_%04d", rounds-1)
	found, err := repo.GetByKey(ctx, last)
	require.NoError(t, err)
	assert.Equal(t, "alice", found.Username)

	keys, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, last, keys[0].Key)
}

func TestFileAPIKeyRepository_Watch(t *testing.T) {
	repo := newFileRepo(t, `[{"username":"alice","apikey":"alice_0011"}]`)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- repo.Watch(ctx)
	}()

	// Give the watcher time to register before rewriting the file.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, writeKeyFile(repo.Path(), []*authDomain.APIKey{{Username: "carol", Key: "carol_beef"}}))

	require.Eventually(t, func() bool {
		_, err := repo.GetByKey(context.Background(), "carol_beef")
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
