package domain

import (
	"github.com/allisson/playready-proxy/internal/errors"
)

// API key errors.
var (
	// ErrAPIKeyMissing indicates the request carried no X-API-KEY header.
	ErrAPIKeyMissing = errors.Wrap(errors.ErrForbidden, "API key is missing")

	// ErrAPIKeyInvalid indicates the presented key is not in the store.
	ErrAPIKeyInvalid = errors.Wrap(errors.ErrForbidden, "Invalid API key")

	// ErrAPIKeyNotFound indicates no key exists for the given username.
	ErrAPIKeyNotFound = errors.Wrap(errors.ErrNotFound, "api key not found")
)
