package usecase

import (
	"context"
	"time"

	validation "github.com/jellydator/validation"

	authDomain "github.com/allisson/playready-proxy/internal/auth/domain"
	authService "github.com/allisson/playready-proxy/internal/auth/service"
	"github.com/allisson/playready-proxy/internal/database"
	apperrors "github.com/allisson/playready-proxy/internal/errors"
	customValidation "github.com/allisson/playready-proxy/internal/validation"
)

// apiKeyUseCase implements APIKeyUseCase on top of any APIKeyRepository.
type apiKeyUseCase struct {
	txManager  database.TxManager
	repo       APIKeyRepository
	keyService authService.KeyService
	now        func() time.Time
}

// Validate looks the key up and verifies it against the stored hash, or compares
// it in constant time when the store keeps keys in clear. The comparison also
// guards stores whose lookups are case-insensitive.
func (a *apiKeyUseCase) Validate(ctx context.Context, key string) (*authDomain.APIKey, error) {
	if key == "" {
		return nil, authDomain.ErrAPIKeyMissing
	}

	apiKey, err := a.repo.GetByKey(ctx, key)
	if err != nil {
		if apperrors.Is(err, authDomain.ErrAPIKeyNotFound) {
			return nil, authDomain.ErrAPIKeyInvalid
		}
		return nil, err
	}

	if !a.matches(key, apiKey) {
		return nil, authDomain.ErrAPIKeyInvalid
	}

	return apiKey, nil
}

func (a *apiKeyUseCase) matches(key string, apiKey *authDomain.APIKey) bool {
	if apiKey.KeyHash != "" {
		return a.keyService.VerifyKey(key, apiKey.KeyHash)
	}
	if apiKey.Key == "" {
		return false
	}
	return a.keyService.CompareKey(key, apiKey.Key)
}

// Issue replaces the key of username with a single upsert, so concurrent issues
// for the same username never leave it without a key.
func (a *apiKeyUseCase) Issue(ctx context.Context, username string) (*authDomain.APIKey, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	key, err := a.keyService.GenerateKey(username)
	if err != nil {
		return nil, err
	}

	hash, err := a.keyService.HashKey(key)
	if err != nil {
		return nil, err
	}

	apiKey := &authDomain.APIKey{
		Username:  username,
		Key:       key,
		KeyHash:   hash,
		KeyHint:   authDomain.KeyHint(key),
		CreatedAt: a.now().UTC(),
	}

	err = a.txManager.WithTx(ctx, func(ctx context.Context) error {
		return a.repo.Replace(ctx, apiKey)
	})
	if err != nil {
		return nil, err
	}

	return apiKey, nil
}

// Revoke deletes the key of username.
func (a *apiKeyUseCase) Revoke(ctx context.Context, username string) error {
	if err := validateUsername(username); err != nil {
		return err
	}
	return a.repo.DeleteByUsername(ctx, username)
}

// List returns every issued key.
func (a *apiKeyUseCase) List(ctx context.Context) ([]*authDomain.APIKey, error) {
	return a.repo.List(ctx)
}

func validateUsername(username string) error {
	err := validation.Validate(username,
		validation.Required,
		validation.Length(1, 64),
		customValidation.Identifier,
	)
	if err != nil {
		return customValidation.WrapValidationError(validation.Errors{"username": err})
	}
	return nil
}

// NewAPIKeyUseCase creates a new APIKeyUseCase.
func NewAPIKeyUseCase(
	txManager database.TxManager,
	repo APIKeyRepository,
	keyService authService.KeyService,
) APIKeyUseCase {
	return &apiKeyUseCase{
		txManager:  txManager,
		repo:       repo,
		keyService: keyService,
		now:        time.Now,
	}
}
