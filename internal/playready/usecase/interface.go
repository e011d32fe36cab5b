// Package usecase implements the PlayReady session registry and the license
// workflow on top of a CDM Engine.
package usecase

import (
	"context"

	"github.com/allisson/playready-proxy/internal/playready/domain"
)

// Engine is the CDM that performs the actual cryptography. Calls for one
// handle are never issued concurrently. Implementations report a stale or
// unknown handle with ErrEngineInvalidSession and a rejected license with
// ErrEngineInvalidLicense.
type Engine interface {
	// Open starts a conversation with the credentials of device.
	Open(ctx context.Context, device *domain.Device) (*domain.EngineSession, error)

	// GetLicenseChallenge builds a license request for wrmHeader. On success the
	// session is ready for ParseLicense.
	GetLicenseChallenge(ctx context.Context, handle *domain.Handle, wrmHeader string) ([]byte, error)

	// ParseLicense loads the license XML into the session.
	ParseLicense(ctx context.Context, handle *domain.Handle, license string) error

	// GetKeys returns the content keys of the parsed license in engine order.
	GetKeys(ctx context.Context, handle *domain.Handle) ([]domain.EngineKey, error)

	// Close ends the conversation.
	Close(ctx context.Context, handle *domain.Handle) error
}

// DeviceCatalogue resolves configured devices by name.
type DeviceCatalogue interface {
	Get(name string) (*domain.Device, error)
	List() []*domain.Device
}

// SessionUseCase manages the single live session of each device.
type SessionUseCase interface {
	// Open returns the live session of device, opening one if needed.
	Open(ctx context.Context, device string) (*domain.Session, error)

	// Lookup returns the live session of device when sessionID matches it exactly.
	// Fails with ErrUnknownDevice, ErrNoActiveSession or ErrSessionIDMismatch.
	Lookup(ctx context.Context, device, sessionID string) (*domain.Session, error)

	// Close tears the session down. An engine reporting the session as already
	// gone still counts as a successful close.
	Close(ctx context.Context, device, sessionID string) error
}

// SessionRegistry is the authoritative table of live sessions.
type SessionRegistry interface {
	SessionUseCase

	// WithSession runs fn with the matching session while holding the device lock,
	// so fn is the only user of the session's engine handle.
	WithSession(ctx context.Context, device, sessionID string, fn func(ctx context.Context, s *domain.Session) error) error

	// CloseAll closes every live session, concurrently across devices.
	CloseAll(ctx context.Context) error

	// Devices returns the configured devices.
	Devices() []*domain.Device
}

// LicenseUseCase runs the challenge and key extraction phases.
type LicenseUseCase interface {
	// GenerateChallenge resolves psshPayload to a WRM header and returns the
	// engine challenge, base64 encoded.
	GenerateChallenge(ctx context.Context, device, sessionID, psshPayload string) (string, error)

	// ExtractKeys feeds the base64 license to the engine and returns the content
	// keys as lowercase hex, in engine order.
	ExtractKeys(ctx context.Context, device, sessionID, licensePayload string) ([]*domain.ContentKey, error)
}
