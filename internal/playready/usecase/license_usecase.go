package usecase

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"

	apperrors "github.com/allisson/playready-proxy/internal/errors"
	"github.com/allisson/playready-proxy/internal/playready/domain"
	playreadyService "github.com/allisson/playready-proxy/internal/playready/service"
)

// licenseUseCase implements LicenseUseCase. Every engine call happens inside
// SessionRegistry.WithSession.
type licenseUseCase struct {
	registry SessionRegistry
	engine   Engine
	resolver playreadyService.HeaderResolver
	logger   *slog.Logger
}

// NewLicenseUseCase creates a LicenseUseCase.
func NewLicenseUseCase(
	registry SessionRegistry,
	engine Engine,
	resolver playreadyService.HeaderResolver,
	logger *slog.Logger,
) LicenseUseCase {
	return &licenseUseCase{
		registry: registry,
		engine:   engine,
		resolver: resolver,
		logger:   logger,
	}
}

// GenerateChallenge may be called repeatedly for the same session.
func (l *licenseUseCase) GenerateChallenge(
	ctx context.Context,
	device, sessionID, psshPayload string,
) (string, error) {
	var challengeB64 string

	err := l.registry.WithSession(ctx, device, sessionID, func(ctx context.Context, s *domain.Session) error {
		header, err := l.resolver.Resolve(psshPayload)
		if err != nil {
			return err
		}

		challenge, err := l.engine.GetLicenseChallenge(ctx, s.Handle, header)
		if err != nil {
			return classifyEngineError(err)
		}
		if len(challenge) == 0 {
			return apperrors.Wrap(domain.ErrEngineGeneric, "engine returned an empty challenge")
		}

		challengeB64 = base64.StdEncoding.EncodeToString(challenge)
		l.logger.Debug("license challenge generated",
			slog.String("device", device),
			slog.String("session_id", s.ID),
			slog.Int("challenge_bytes", len(challenge)))
		return nil
	})
	if err != nil {
		return "", err
	}

	return challengeB64, nil
}

// ExtractKeys validates the payload before the engine sees it.
func (l *licenseUseCase) ExtractKeys(
	ctx context.Context,
	device, sessionID, licensePayload string,
) ([]*domain.ContentKey, error) {
	var keys []*domain.ContentKey

	err := l.registry.WithSession(ctx, device, sessionID, func(ctx context.Context, s *domain.Session) error {
		license, err := decodeLicense(licensePayload)
		if err != nil {
			return err
		}

		if err := l.engine.ParseLicense(ctx, s.Handle, license); err != nil {
			return classifyEngineError(err)
		}

		engineKeys, err := l.engine.GetKeys(ctx, s.Handle)
		if err != nil {
			return classifyEngineError(err)
		}

		keys, err = normalizeKeys(engineKeys)
		if err != nil {
			return err
		}

		l.logger.Info("license parsed",
			slog.String("device", device),
			slog.String("session_id", s.ID),
			slog.Int("keys", len(keys)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return keys, nil
}

// decodeLicense returns the license XML carried by payload. Bytes that are not
// valid UTF-8 are dropped.
func decodeLicense(payload string) (string, error) {
	if strings.TrimSpace(payload) == "" {
		return "", domain.ErrInvalidLicensePayload
	}

	raw, err := playreadyService.DecodeBase64(payload)
	if err != nil {
		return "", apperrors.Wrap(domain.ErrInvalidLicensePayload, "license_b64 is not valid base64")
	}

	license := strings.ToValidUTF8(string(raw), "")
	if strings.TrimSpace(license) == "" {
		return "", domain.ErrInvalidLicensePayload
	}
	return license, nil
}

// normalizeKeys keeps engine order.
func normalizeKeys(engineKeys []domain.EngineKey) ([]*domain.ContentKey, error) {
	keys := make([]*domain.ContentKey, 0, len(engineKeys))
	for i, k := range engineKeys {
		keyID, err := playreadyService.NormalizeKeyMaterial(k.KeyID)
		if err != nil {
			return nil, apperrors.Wrapf(domain.ErrEngineGeneric, "key #%d id: %v", i+1, err)
		}
		key, err := playreadyService.NormalizeKeyMaterial(k.Key)
		if err != nil {
			return nil, apperrors.Wrapf(domain.ErrEngineGeneric, "key #%d value: %v", i+1, err)
		}
		keys = append(keys, &domain.ContentKey{KeyID: keyID, Key: key})
	}
	return keys, nil
}
