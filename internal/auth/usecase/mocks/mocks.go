// Package mocks provides mock implementations of the auth use case layer for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/playready-proxy/internal/auth/domain"
)

// MockAPIKeyRepository is a mock implementation of APIKeyRepository.
type MockAPIKeyRepository struct {
	mock.Mock
}

// Replace mocks the Replace method.
func (m *MockAPIKeyRepository) Replace(ctx context.Context, apiKey *authDomain.APIKey) error {
	args := m.Called(ctx, apiKey)
	return args.Error(0)
}

// GetByKey mocks the GetByKey method.
func (m *MockAPIKeyRepository) GetByKey(ctx context.Context, key string) (*authDomain.APIKey, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.APIKey), args.Error(1)
}

// DeleteByUsername mocks the DeleteByUsername method.
func (m *MockAPIKeyRepository) DeleteByUsername(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

// List mocks the List method.
func (m *MockAPIKeyRepository) List(ctx context.Context) ([]*authDomain.APIKey, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.APIKey), args.Error(1)
}

// MockAPIKeyUseCase is a mock implementation of APIKeyUseCase.
type MockAPIKeyUseCase struct {
	mock.Mock
}

// Validate mocks the Validate method.
func (m *MockAPIKeyUseCase) Validate(ctx context.Context, key string) (*authDomain.APIKey, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.APIKey), args.Error(1)
}

// Issue mocks the Issue method.
func (m *MockAPIKeyUseCase) Issue(ctx context.Context, username string) (*authDomain.APIKey, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.APIKey), args.Error(1)
}

// Revoke mocks the Revoke method.
func (m *MockAPIKeyUseCase) Revoke(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

// List mocks the List method.
func (m *MockAPIKeyUseCase) List(ctx context.Context) ([]*authDomain.APIKey, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.APIKey), args.Error(1)
}

// MockKeyService is a mock implementation of KeyService.
type MockKeyService struct {
	mock.Mock
}

// GenerateKey mocks the GenerateKey method.
func (m *MockKeyService) GenerateKey(username string) (string, error) {
	args := m.Called(username)
	return args.String(0), args.Error(1)
}

// HashKey mocks the HashKey method.
func (m *MockKeyService) HashKey(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

// VerifyKey mocks the VerifyKey method.
func (m *MockKeyService) VerifyKey(presented, hash string) bool {
	args := m.Called(presented, hash)
	return args.Bool(0)
}

// CompareKey mocks the CompareKey method.
func (m *MockKeyService) CompareKey(presented, stored string) bool {
	args := m.Called(presented, stored)
	return args.Bool(0)
}
