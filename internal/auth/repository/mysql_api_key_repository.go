package repository

import (
	"context"
	"database/sql"

	authDomain "github.com/allisson/playready-proxy/internal/auth/domain"
	"github.com/allisson/playready-proxy/internal/database"
	apperrors "github.com/allisson/playready-proxy/internal/errors"
)

// MySQLAPIKeyRepository implements API key persistence for MySQL.
type MySQLAPIKeyRepository struct {
	db *sql.DB
}

// Replace upserts the hash and hint of apiKey keyed by username. The key itself
// is never stored.
func (m *MySQLAPIKeyRepository) Replace(ctx context.Context, apiKey *authDomain.APIKey) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO api_keys (username, key_hash, key_hint, created_at) VALUES (?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE
			  key_hash = VALUES(key_hash), key_hint = VALUES(key_hint), created_at = VALUES(created_at)`

	_, err := querier.ExecContext(ctx, query, apiKey.Username, apiKey.KeyHash, apiKey.KeyHint, apiKey.CreatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to replace api key")
	}
	return nil
}

// GetByKey retrieves the entry of the username key was issued to. The caller
// verifies key against KeyHash. Returns ErrAPIKeyNotFound if absent.
func (m *MySQLAPIKeyRepository) GetByKey(ctx context.Context, key string) (*authDomain.APIKey, error) {
	username, ok := authDomain.UsernameFromKey(key)
	if !ok {
		return nil, authDomain.ErrAPIKeyNotFound
	}

	querier := database.GetTx(ctx, m.db)

	query := `SELECT username, key_hash, key_hint, created_at FROM api_keys WHERE username = ?`

	return scanAPIKey(querier.QueryRowContext(ctx, query, username))
}

// DeleteByUsername removes the key of username. Returns ErrAPIKeyNotFound if none existed.
func (m *MySQLAPIKeyRepository) DeleteByUsername(ctx context.Context, username string) error {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM api_keys WHERE username = ?`, username)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete api key")
	}
	return checkDeleted(result)
}

// List returns all keys ordered by username.
func (m *MySQLAPIKeyRepository) List(ctx context.Context) ([]*authDomain.APIKey, error) {
	querier := database.GetTx(ctx, m.db)

	rows, err := querier.QueryContext(ctx, `SELECT username, key_hash, key_hint, created_at FROM api_keys ORDER BY username`)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list api keys")
	}
	return scanAPIKeys(rows)
}

// NewMySQLAPIKeyRepository creates a new MySQL APIKey repository.
// The DSN must carry parseTime=true so created_at scans into time.Time.
func NewMySQLAPIKeyRepository(db *sql.DB) *MySQLAPIKeyRepository {
	return &MySQLAPIKeyRepository{db: db}
}
