// Package http provides HTTP middleware and utilities for API key authentication.
package http

import (
	"context"

	authDomain "github.com/allisson/playready-proxy/internal/auth/domain"
)

// apiKeyKey is a context key type for storing the authenticated API key.
type apiKeyKey struct{}

// WithAPIKey stores the authenticated API key in the context.
func WithAPIKey(ctx context.Context, apiKey *authDomain.APIKey) context.Context {
	return context.WithValue(ctx, apiKeyKey{}, apiKey)
}

// GetAPIKey retrieves the authenticated API key from the context.
// Returns (apiKey, true) if present, or (nil, false) if the request was not authenticated.
func GetAPIKey(ctx context.Context) (*authDomain.APIKey, bool) {
	apiKey, ok := ctx.Value(apiKeyKey{}).(*authDomain.APIKey)
	return apiKey, ok
}
