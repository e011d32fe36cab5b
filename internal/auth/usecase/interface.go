// Package usecase defines business logic for issuing and validating API keys.
package usecase

import (
	"context"

	authDomain "github.com/allisson/playready-proxy/internal/auth/domain"
)

// APIKeyRepository defines persistence operations for API keys.
// SQL implementations support transaction-aware operations via context propagation.
type APIKeyRepository interface {
	// Replace stores apiKey as the only key of its username in one atomic step,
	// overwriting any previous key. Returns ErrConflict if another username
	// already holds the same key.
	Replace(ctx context.Context, apiKey *authDomain.APIKey) error

	// GetByKey retrieves the entry a presented key may belong to. Stores that keep
	// only hashes look the entry up by the username prefix, so callers must still
	// verify the key. Returns ErrAPIKeyNotFound if not found.
	GetByKey(ctx context.Context, key string) (*authDomain.APIKey, error)

	// DeleteByUsername removes the key of username. Returns ErrAPIKeyNotFound if none existed.
	DeleteByUsername(ctx context.Context, username string) error

	// List returns every stored key.
	List(ctx context.Context) ([]*authDomain.APIKey, error)
}

// APIKeyUseCase is the API key store exposed to the HTTP layer and the CLI.
type APIKeyUseCase interface {
	// Validate returns the owner of key. An empty key yields ErrAPIKeyMissing and an
	// unknown key ErrAPIKeyInvalid.
	Validate(ctx context.Context, key string) (*authDomain.APIKey, error)

	// Issue generates a fresh key for username, replacing any previous key.
	// The previous key stops validating as soon as Issue returns.
	Issue(ctx context.Context, username string) (*authDomain.APIKey, error)

	// Revoke deletes the key of username. Returns ErrAPIKeyNotFound if none existed.
	Revoke(ctx context.Context, username string) error

	// List returns every issued key.
	List(ctx context.Context) ([]*authDomain.APIKey, error)
}
