// Package mocks provides mock implementations of the playready use case layer for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/playready-proxy/internal/playready/domain"
)

// MockSessionUseCase is a mock implementation of SessionUseCase.
type MockSessionUseCase struct {
	mock.Mock
}

// Open mocks the Open method.
func (m *MockSessionUseCase) Open(ctx context.Context, device string) (*domain.Session, error) {
	args := m.Called(ctx, device)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

// Lookup mocks the Lookup method.
func (m *MockSessionUseCase) Lookup(ctx context.Context, device, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, device, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

// Close mocks the Close method.
func (m *MockSessionUseCase) Close(ctx context.Context, device, sessionID string) error {
	args := m.Called(ctx, device, sessionID)
	return args.Error(0)
}

// MockLicenseUseCase is a mock implementation of LicenseUseCase.
type MockLicenseUseCase struct {
	mock.Mock
}

// GenerateChallenge mocks the GenerateChallenge method.
func (m *MockLicenseUseCase) GenerateChallenge(
	ctx context.Context,
	device, sessionID, psshPayload string,
) (string, error) {
	args := m.Called(ctx, device, sessionID, psshPayload)
	return args.String(0), args.Error(1)
}

// ExtractKeys mocks the ExtractKeys method.
func (m *MockLicenseUseCase) ExtractKeys(
	ctx context.Context,
	device, sessionID, licensePayload string,
) ([]*domain.ContentKey, error) {
	args := m.Called(ctx, device, sessionID, licensePayload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ContentKey), args.Error(1)
}

// MockHeaderResolver is a mock implementation of service.HeaderResolver.
type MockHeaderResolver struct {
	mock.Mock
}

// Resolve mocks the Resolve method.
func (m *MockHeaderResolver) Resolve(payload string) (string, error) {
	args := m.Called(payload)
	return args.String(0), args.Error(1)
}
