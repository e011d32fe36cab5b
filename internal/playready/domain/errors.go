package domain

import (
	"github.com/allisson/playready-proxy/internal/errors"
)

// Session lookup errors. The three kinds call for different remediation:
// fix the URL, open a session, or resend the live session id.
var (
	// ErrUnknownDevice indicates the device name is not configured.
	ErrUnknownDevice = errors.Wrap(errors.ErrNotFound, "unknown device")

	// ErrNoActiveSession indicates the device has no open session.
	ErrNoActiveSession = errors.Wrap(errors.ErrInvalidInput, "no active session")

	// ErrSessionIDMismatch indicates the presented session id is not the live one.
	ErrSessionIDMismatch = errors.Wrap(errors.ErrInvalidInput, "session id mismatch")
)

// Input errors detected before the engine is called.
var (
	// ErrHeaderResolutionFailed indicates no strategy produced a WRM header.
	ErrHeaderResolutionFailed = errors.New("unable to extract a valid protected-content header from input")

	// ErrInvalidLicensePayload indicates the license was empty or not base64.
	ErrInvalidLicensePayload = errors.Wrap(errors.ErrInvalidInput, "invalid or empty license payload")
)

// Engine errors.
var (
	// ErrEngineInvalidSession indicates the engine does not know the session (closed or expired).
	ErrEngineInvalidSession = errors.New("engine: invalid session")

	// ErrEngineInvalidLicense indicates the engine rejected the license.
	ErrEngineInvalidLicense = errors.New("engine: invalid license")

	// ErrEngineGeneric covers every other engine failure.
	ErrEngineGeneric = errors.Wrap(errors.ErrUnavailable, "engine failure")
)
