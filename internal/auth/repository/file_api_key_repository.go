package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	authDomain "github.com/allisson/playready-proxy/internal/auth/domain"
	apperrors "github.com/allisson/playready-proxy/internal/errors"
)

// FileAPIKeyRepository keeps API keys in a JSON array of {"username", "apikey"} objects.
// The whole file is cached in memory; writes replace the file atomically and update
// the cache before returning, so a replaced key stops validating immediately.
type FileAPIKeyRepository struct {
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	keys  []*authDomain.APIKey
	byKey map[string]*authDomain.APIKey
}

// NewFileAPIKeyRepository loads path and returns a repository backed by it.
// A missing file is treated as an empty key list.
func NewFileAPIKeyRepository(path string, logger *slog.Logger) (*FileAPIKeyRepository, error) {
	r := &FileAPIKeyRepository{
		path:   path,
		logger: logger,
		byKey:  make(map[string]*authDomain.APIKey),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the backing file path.
func (r *FileAPIKeyRepository) Path() string {
	return r.path
}

// Reload re-reads the backing file. On error the cache is left untouched.
// The file is read under the write lock so a reload never overwrites the cache
// with a snapshot older than a concurrent Replace or DeleteByUsername.
func (r *FileAPIKeyRepository) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys, err := readKeyFile(r.path)
	if err != nil {
		return err
	}
	r.setLocked(keys)
	return nil
}

// Replace drops any key of apiKey.Username and appends apiKey with a single file
// write. On a failed write neither the file nor the cache change. Returns
// ErrConflict if another username holds the same key.
func (r *FileAPIKeyRepository) Replace(ctx context.Context, apiKey *authDomain.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byKey[apiKey.Key]; ok && existing.Username != apiKey.Username {
		return apperrors.Wrap(apperrors.ErrConflict, "api key already exists")
	}

	keys := make([]*authDomain.APIKey, 0, len(r.keys)+1)
	for _, existing := range r.keys {
		if existing.Username != apiKey.Username {
			keys = append(keys, existing)
		}
	}
	stored := authDomain.APIKey{Username: apiKey.Username, Key: apiKey.Key, CreatedAt: apiKey.CreatedAt}
	keys = append(keys, &stored)

	if err := writeKeyFile(r.path, keys); err != nil {
		return err
	}
	r.setLocked(keys)
	return nil
}

// GetByKey returns the APIKey with the given key value.
func (r *FileAPIKeyRepository) GetByKey(ctx context.Context, key string) (*authDomain.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	apiKey, ok := r.byKey[key]
	if !ok {
		return nil, authDomain.ErrAPIKeyNotFound
	}
	found := *apiKey
	return &found, nil
}

// DeleteByUsername removes the key of username.
func (r *FileAPIKeyRepository) DeleteByUsername(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]*authDomain.APIKey, 0, len(r.keys))
	for _, existing := range r.keys {
		if existing.Username != username {
			keys = append(keys, existing)
		}
	}
	if len(keys) == len(r.keys) {
		return authDomain.ErrAPIKeyNotFound
	}

	if err := writeKeyFile(r.path, keys); err != nil {
		return err
	}
	r.setLocked(keys)
	return nil
}

// List returns all keys in file order.
func (r *FileAPIKeyRepository) List(ctx context.Context) ([]*authDomain.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*authDomain.APIKey, 0, len(r.keys))
	for _, k := range r.keys {
		c := *k
		out = append(out, &c)
	}
	return out, nil
}

// Watch reloads the cache whenever another process rewrites the backing file.
// It watches the parent directory so atomic renames are seen. Blocks until ctx is done.
func (r *FileAPIKeyRepository) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return apperrors.Wrap(err, "failed to create api key file watcher")
	}
	defer func() {
		_ = watcher.Close()
	}()

	dir := filepath.Dir(r.path)
	if err := watcher.Add(dir); err != nil {
		return apperrors.Wrapf(err, "failed to watch %s", dir)
	}

	target := filepath.Clean(r.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			if err := r.Reload(); err != nil {
				r.logger.Error("failed to reload api key file",
					slog.String("path", r.path),
					slog.Any("error", err))
				continue
			}
			r.logger.Info("api key file reloaded", slog.String("path", r.path))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("api key file watcher error", slog.Any("error", err))
		}
	}
}

func (r *FileAPIKeyRepository) setLocked(keys []*authDomain.APIKey) {
	byKey := make(map[string]*authDomain.APIKey, len(keys))
	for _, k := range keys {
		byKey[k.Key] = k
	}
	r.keys = keys
	r.byKey = byKey
}

func readKeyFile(path string) ([]*authDomain.APIKey, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator supplied path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*authDomain.APIKey{}, nil
		}
		return nil, apperrors.Wrapf(err, "failed to read api key file %s", path)
	}

	keys := make([]*authDomain.APIKey, 0)
	if len(data) == 0 {
		return keys, nil
	}
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, apperrors.Wrapf(err, "failed to parse api key file %s", path)
	}

	filtered := keys[:0]
	for _, k := range keys {
		if k != nil && k.Key != "" {
			filtered = append(filtered, k)
		}
	}
	return filtered, nil
}

// writeKeyFile replaces path atomically with a temp file and rename.
func writeKeyFile(path string, keys []*authDomain.APIKey) error {
	data, err := json.MarshalIndent(keys, "", "    ")
	if err != nil {
		return apperrors.Wrap(err, "failed to encode api key file")
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return apperrors.Wrap(err, "failed to create temporary api key file")
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return apperrors.Wrap(err, "failed to write api key file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return apperrors.Wrap(err, "failed to sync api key file")
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrap(err, "failed to close api key file")
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return apperrors.Wrap(err, "failed to set api key file permissions")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return apperrors.Wrap(err, "failed to replace api key file")
	}
	return nil
}
