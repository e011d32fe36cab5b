package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/playready-proxy/internal/auth/domain"
	"github.com/allisson/playready-proxy/internal/auth/usecase"
	usecaseMocks "github.com/allisson/playready-proxy/internal/auth/usecase/mocks"
)

// mockBusinessMetrics is a local mock for metrics.BusinessMetrics.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func (m *mockBusinessMetrics) RecordActiveSessions(ctx context.Context, device string, delta int64) {
	m.Called(ctx, device, delta)
}

func expectAuthMetric(m *mockBusinessMetrics, ctx context.Context, operation, status string) {
	m.On("RecordOperation", ctx, "auth", operation, status).Return().Once()
	m.On("RecordDuration", ctx, "auth", operation, mock.AnythingOfType("time.Duration"), status).
		Return().
		Once()
}

func TestAPIKeyUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("Validate success", func(t *testing.T) {
		mockNext := &usecaseMocks.MockAPIKeyUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewAPIKeyUseCaseWithMetrics(mockNext, mockMetrics)

		apiKey := &authDomain.APIKey{Username: "alice", Key: "alice_00"}
		mockNext.On("Validate", ctx, "alice_00").Return(apiKey, nil).Once()
		expectAuthMetric(mockMetrics, ctx, "api_key_validate", "success")

		res, err := uc.Validate(ctx, "alice_00")
		assert.NoError(t, err)
		assert.Equal(t, apiKey, res)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Validate error", func(t *testing.T) {
		mockNext := &usecaseMocks.MockAPIKeyUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewAPIKeyUseCaseWithMetrics(mockNext, mockMetrics)

		mockNext.On("Validate", ctx, "bad").Return(nil, authDomain.ErrAPIKeyInvalid).Once()
		expectAuthMetric(mockMetrics, ctx, "api_key_validate", "error")

		_, err := uc.Validate(ctx, "bad")
		assert.ErrorIs(t, err, authDomain.ErrAPIKeyInvalid)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Issue", func(t *testing.T) {
		mockNext := &usecaseMocks.MockAPIKeyUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewAPIKeyUseCaseWithMetrics(mockNext, mockMetrics)

		mockNext.On("Issue", ctx, "alice").Return(&authDomain.APIKey{Username: "alice"}, nil).Once()
		expectAuthMetric(mockMetrics, ctx, "api_key_issue", "success")

		_, err := uc.Issue(ctx, "alice")
		assert.NoError(t, err)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Revoke", func(t *testing.T) {
		mockNext := &usecaseMocks.MockAPIKeyUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewAPIKeyUseCaseWithMetrics(mockNext, mockMetrics)

		mockNext.On("Revoke", ctx, "alice").Return(errors.New("boom")).Once()
		expectAuthMetric(mockMetrics, ctx, "api_key_revoke", "error")

		assert.Error(t, uc.Revoke(ctx, "alice"))
		mockMetrics.AssertExpectations(t)
	})

	t.Run("List", func(t *testing.T) {
		mockNext := &usecaseMocks.MockAPIKeyUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewAPIKeyUseCaseWithMetrics(mockNext, mockMetrics)

		mockNext.On("List", ctx).Return([]*authDomain.APIKey{}, nil).Once()
		expectAuthMetric(mockMetrics, ctx, "api_key_list", "success")

		res, err := uc.List(ctx)
		assert.NoError(t, err)
		assert.Empty(t, res)
		mockMetrics.AssertExpectations(t)
	})
}
