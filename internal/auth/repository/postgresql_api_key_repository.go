// Package repository provides the API key stores: a JSON file compatible with the
// historical APIKEY.json layout, PostgreSQL and MySQL. The SQL stores keep an
// Argon2id hash and a short hint instead of the key.
package repository

import (
	"context"
	"database/sql"
	"errors"

	authDomain "github.com/allisson/playready-proxy/internal/auth/domain"
	"github.com/allisson/playready-proxy/internal/database"
	apperrors "github.com/allisson/playready-proxy/internal/errors"
)

// PostgreSQLAPIKeyRepository implements API key persistence for PostgreSQL.
type PostgreSQLAPIKeyRepository struct {
	db *sql.DB
}

// Replace upserts the hash and hint of apiKey keyed by username. The key itself
// is never stored.
func (p *PostgreSQLAPIKeyRepository) Replace(ctx context.Context, apiKey *authDomain.APIKey) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO api_keys (username, key_hash, key_hint, created_at) VALUES ($1, $2, $3, $4)
			  ON CONFLICT (username) DO UPDATE
			  SET key_hash = EXCLUDED.key_hash, key_hint = EXCLUDED.key_hint, created_at = EXCLUDED.created_at`

	_, err := querier.ExecContext(ctx, query, apiKey.Username, apiKey.KeyHash, apiKey.KeyHint, apiKey.CreatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to replace api key")
	}
	return nil
}

// GetByKey retrieves the entry of the username key was issued to. The caller
// verifies key against KeyHash. Returns ErrAPIKeyNotFound if absent.
func (p *PostgreSQLAPIKeyRepository) GetByKey(ctx context.Context, key string) (*authDomain.APIKey, error) {
	username, ok := authDomain.UsernameFromKey(key)
	if !ok {
		return nil, authDomain.ErrAPIKeyNotFound
	}

	querier := database.GetTx(ctx, p.db)

	query := `SELECT username, key_hash, key_hint, created_at FROM api_keys WHERE username = $1`

	return scanAPIKey(querier.QueryRowContext(ctx, query, username))
}

// DeleteByUsername removes the key of username. Returns ErrAPIKeyNotFound if none existed.
func (p *PostgreSQLAPIKeyRepository) DeleteByUsername(ctx context.Context, username string) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM api_keys WHERE username = $1`, username)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete api key")
	}
	return checkDeleted(result)
}

// List returns all keys ordered by username.
func (p *PostgreSQLAPIKeyRepository) List(ctx context.Context) ([]*authDomain.APIKey, error) {
	querier := database.GetTx(ctx, p.db)

	rows, err := querier.QueryContext(ctx, `SELECT username, key_hash, key_hint, created_at FROM api_keys ORDER BY username`)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list api keys")
	}
	return scanAPIKeys(rows)
}

// NewPostgreSQLAPIKeyRepository creates a new PostgreSQL APIKey repository.
func NewPostgreSQLAPIKeyRepository(db *sql.DB) *PostgreSQLAPIKeyRepository {
	return &PostgreSQLAPIKeyRepository{db: db}
}

func checkDeleted(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return authDomain.ErrAPIKeyNotFound
	}
	return nil
}

func scanAPIKey(row *sql.Row) (*authDomain.APIKey, error) {
	var apiKey authDomain.APIKey
	err := row.Scan(&apiKey.Username, &apiKey.KeyHash, &apiKey.KeyHint, &apiKey.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrAPIKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get api key")
	}
	return &apiKey, nil
}

func scanAPIKeys(rows *sql.Rows) ([]*authDomain.APIKey, error) {
	defer func() {
		_ = rows.Close()
	}()

	apiKeys := make([]*authDomain.APIKey, 0)
	for rows.Next() {
		var apiKey authDomain.APIKey
		if err := rows.Scan(&apiKey.Username, &apiKey.KeyHash, &apiKey.KeyHint, &apiKey.CreatedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan api key")
		}
		apiKeys = append(apiKeys, &apiKey)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate api keys")
	}

	return apiKeys, nil
}
