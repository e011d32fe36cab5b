package usecase

import (
	"context"
	"time"

	"github.com/allisson/playready-proxy/internal/metrics"
	"github.com/allisson/playready-proxy/internal/playready/domain"
)

// sessionUseCaseWithMetrics decorates SessionUseCase with metrics instrumentation.
type sessionUseCaseWithMetrics struct {
	next    SessionUseCase
	metrics metrics.BusinessMetrics
}

// NewSessionUseCaseWithMetrics wraps a SessionUseCase with metrics recording.
func NewSessionUseCaseWithMetrics(useCase SessionUseCase, m metrics.BusinessMetrics) SessionUseCase {
	return &sessionUseCaseWithMetrics{next: useCase, metrics: m}
}

func record(ctx context.Context, m metrics.BusinessMetrics, operation string, start time.Time, err error) {
	status := metrics.StatusOf(err)
	m.RecordOperation(ctx, metrics.DomainPlayReady, operation, status)
	m.RecordDuration(ctx, metrics.DomainPlayReady, operation, time.Since(start), status)
}

// Open records metrics for session open operations.
func (s *sessionUseCaseWithMetrics) Open(ctx context.Context, device string) (*domain.Session, error) {
	start := time.Now()
	session, err := s.next.Open(ctx, device)
	record(ctx, s.metrics, "session_open", start, err)
	return session, err
}

// Lookup records metrics for session lookups.
func (s *sessionUseCaseWithMetrics) Lookup(ctx context.Context, device, sessionID string) (*domain.Session, error) {
	start := time.Now()
	session, err := s.next.Lookup(ctx, device, sessionID)
	record(ctx, s.metrics, "session_lookup", start, err)
	return session, err
}

// Close records metrics for session close operations.
func (s *sessionUseCaseWithMetrics) Close(ctx context.Context, device, sessionID string) error {
	start := time.Now()
	err := s.next.Close(ctx, device, sessionID)
	record(ctx, s.metrics, "session_close", start, err)
	return err
}

// licenseUseCaseWithMetrics decorates LicenseUseCase with metrics instrumentation.
type licenseUseCaseWithMetrics struct {
	next    LicenseUseCase
	metrics metrics.BusinessMetrics
}

// NewLicenseUseCaseWithMetrics wraps a LicenseUseCase with metrics recording.
func NewLicenseUseCaseWithMetrics(useCase LicenseUseCase, m metrics.BusinessMetrics) LicenseUseCase {
	return &licenseUseCaseWithMetrics{next: useCase, metrics: m}
}

// GenerateChallenge records metrics for challenge generation.
func (l *licenseUseCaseWithMetrics) GenerateChallenge(
	ctx context.Context,
	device, sessionID, psshPayload string,
) (string, error) {
	start := time.Now()
	challenge, err := l.next.GenerateChallenge(ctx, device, sessionID, psshPayload)
	record(ctx, l.metrics, "license_challenge", start, err)
	return challenge, err
}

// ExtractKeys records metrics for key extraction.
func (l *licenseUseCaseWithMetrics) ExtractKeys(
	ctx context.Context,
	device, sessionID, licensePayload string,
) ([]*domain.ContentKey, error) {
	start := time.Now()
	keys, err := l.next.ExtractKeys(ctx, device, sessionID, licensePayload)
	record(ctx, l.metrics, "license_keys", start, err)
	return keys, err
}
