package usecase

import (
	"context"
	"time"

	authDomain "github.com/allisson/playready-proxy/internal/auth/domain"
	"github.com/allisson/playready-proxy/internal/metrics"
)

// apiKeyUseCaseWithMetrics decorates APIKeyUseCase with metrics instrumentation.
type apiKeyUseCaseWithMetrics struct {
	next    APIKeyUseCase
	metrics metrics.BusinessMetrics
}

// NewAPIKeyUseCaseWithMetrics wraps an APIKeyUseCase with metrics recording.
func NewAPIKeyUseCaseWithMetrics(useCase APIKeyUseCase, m metrics.BusinessMetrics) APIKeyUseCase {
	return &apiKeyUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (a *apiKeyUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := metrics.StatusOf(err)
	a.metrics.RecordOperation(ctx, metrics.DomainAuth, operation, status)
	a.metrics.RecordDuration(ctx, metrics.DomainAuth, operation, time.Since(start), status)
}

// Validate records metrics for key validation.
func (a *apiKeyUseCaseWithMetrics) Validate(ctx context.Context, key string) (*authDomain.APIKey, error) {
	start := time.Now()
	apiKey, err := a.next.Validate(ctx, key)
	a.record(ctx, "api_key_validate", start, err)
	return apiKey, err
}

// Issue records metrics for key issuance.
func (a *apiKeyUseCaseWithMetrics) Issue(ctx context.Context, username string) (*authDomain.APIKey, error) {
	start := time.Now()
	apiKey, err := a.next.Issue(ctx, username)
	a.record(ctx, "api_key_issue", start, err)
	return apiKey, err
}

// Revoke records metrics for key revocation.
func (a *apiKeyUseCaseWithMetrics) Revoke(ctx context.Context, username string) error {
	start := time.Now()
	err := a.next.Revoke(ctx, username)
	a.record(ctx, "api_key_revoke", start, err)
	return err
}

// List records metrics for key listing.
func (a *apiKeyUseCaseWithMetrics) List(ctx context.Context) ([]*authDomain.APIKey, error) {
	start := time.Now()
	apiKeys, err := a.next.List(ctx)
	a.record(ctx, "api_key_list", start, err)
	return apiKeys, err
}
