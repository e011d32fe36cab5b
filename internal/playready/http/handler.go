// Package http provides the HTTP handlers of the PlayReady license workflow.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/playready-proxy/internal/errors"
	"github.com/allisson/playready-proxy/internal/httputil"
	"github.com/allisson/playready-proxy/internal/playready/domain"
	"github.com/allisson/playready-proxy/internal/playready/http/dto"
	playreadyUseCase "github.com/allisson/playready-proxy/internal/playready/usecase"
)

// MissingFieldsMessage is returned when a JSON body lacks a required field.
const MissingFieldsMessage = "Missing required fields in JSON body."

// operation identifies the endpoint whose error is being written, since some
// failures carry endpoint specific statuses and messages.
type operation int

const (
	opOpen operation = iota
	opClose
	opChallenge
	opKeys
)

// Handler serves the per-device session and license endpoints.
type Handler struct {
	devices  playreadyUseCase.DeviceCatalogue
	sessions playreadyUseCase.SessionUseCase
	licenses playreadyUseCase.LicenseUseCase
	logger   *slog.Logger
}

// NewHandler creates a playready handler.
func NewHandler(
	devices playreadyUseCase.DeviceCatalogue,
	sessions playreadyUseCase.SessionUseCase,
	licenses playreadyUseCase.LicenseUseCase,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		devices:  devices,
		sessions: sessions,
		licenses: licenses,
		logger:   logger,
	}
}

// RegisterRoutes mounts the endpoints under group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/:device/open", h.OpenHandler)
	group.GET("/:device/close/:session_id", h.CloseHandler)
	group.POST("/:device/get_challenge", h.GetChallengeHandler)
	group.POST("/:device/get_keys", h.GetKeysHandler)
}

// OpenHandler opens, or returns the already open, session of a device.
// GET /{device}/open
func (h *Handler) OpenHandler(c *gin.Context) {
	device := c.Param("device")

	session, err := h.sessions.Open(c.Request.Context(), device)
	if err != nil {
		h.handleError(c, opOpen, device, "", err)
		return
	}

	httputil.RespondGin(c, http.StatusOK, dto.MapSessionToResponse(session))
}

// CloseHandler closes the live session of a device.
// GET /{device}/close/{session_id}
func (h *Handler) CloseHandler(c *gin.Context) {
	device := c.Param("device")
	sessionID := c.Param("session_id")

	if err := h.sessions.Close(c.Request.Context(), device, sessionID); err != nil {
		h.handleError(c, opClose, device, sessionID, err)
		return
	}

	httputil.RespondGin(c, http.StatusOK, dto.MessageResponse{
		Message: fmt.Sprintf("Session %s closed successfully.", sessionID),
	})
}

// GetChallengeHandler builds a license request for the submitted PSSH.
// POST /{device}/get_challenge
func (h *Handler) GetChallengeHandler(c *gin.Context) {
	device := c.Param("device")
	if !h.knownDevice(c, device) {
		return
	}

	var req dto.GetChallengeRequest
	if !h.bind(c, &req, req.Validate) {
		return
	}

	challenge, err := h.licenses.GenerateChallenge(c.Request.Context(), device, req.SessionID, req.PSSH)
	if err != nil {
		h.handleError(c, opChallenge, device, req.SessionID, err)
		return
	}

	httputil.RespondGin(c, http.StatusOK, dto.ChallengeResponse{ChallengeB64: challenge})
}

// GetKeysHandler parses a license and returns its content keys.
// POST /{device}/get_keys
func (h *Handler) GetKeysHandler(c *gin.Context) {
	device := c.Param("device")
	if !h.knownDevice(c, device) {
		return
	}

	var req dto.GetKeysRequest
	if !h.bind(c, &req, req.Validate) {
		return
	}

	keys, err := h.licenses.ExtractKeys(c.Request.Context(), device, req.SessionID, req.LicenseB64)
	if err != nil {
		h.handleError(c, opKeys, device, req.SessionID, err)
		return
	}

	httputil.RespondGin(c, http.StatusOK, dto.MapKeysToResponse(keys))
}

// knownDevice rejects unknown devices before the body is read.
func (h *Handler) knownDevice(c *gin.Context, device string) bool {
	if _, err := h.devices.Get(device); err != nil {
		h.handleError(c, opOpen, device, "", err)
		return false
	}
	return true
}

func (h *Handler) bind(c *gin.Context, req any, validate func() error) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Debug("invalid request body", slog.Any("error", err))
		httputil.WriteErrorGin(c, http.StatusBadRequest, "validation_error", MissingFieldsMessage)
		return false
	}
	if err := validate(); err != nil {
		h.logger.Debug("request validation failed", slog.Any("error", err))
		httputil.WriteErrorGin(c, http.StatusBadRequest, "validation_error", MissingFieldsMessage)
		return false
	}
	return true
}

// handleError maps playready error kinds to statuses and messages. Anything
// else falls back to httputil.HandleErrorGin.
func (h *Handler) handleError(c *gin.Context, op operation, device, sessionID string, err error) {
	var (
		status  int
		code    string
		message string
	)

	switch {
	case apperrors.Is(err, domain.ErrUnknownDevice):
		status, code, message = http.StatusNotFound, "unknown_device", "Ops! Invalid Device :P"

	case apperrors.Is(err, domain.ErrNoActiveSession):
		status, code = http.StatusBadRequest, "no_active_session"
		message = fmt.Sprintf("No active session for device %s.", device)
		if op == opClose {
			message = "No active session for this device."
		}

	case apperrors.Is(err, domain.ErrSessionIDMismatch):
		status, code = http.StatusBadRequest, "session_id_mismatch"
		message = fmt.Sprintf("Invalid session ID: %s", sessionID)
		if op == opClose {
			status, message = http.StatusNotFound, "Invalid Session ID :P"
		}

	case apperrors.Is(err, domain.ErrHeaderResolutionFailed):
		status, code = http.StatusInternalServerError, "header_resolution_failed"
		message = "Unable to extract a valid WRM header from PSSH"

	case apperrors.Is(err, domain.ErrInvalidLicensePayload):
		status, code = http.StatusBadRequest, "invalid_license_payload"
		message = "Invalid or empty license_message."

	case apperrors.Is(err, domain.ErrEngineInvalidSession):
		status, code = http.StatusBadRequest, "engine_invalid_session"
		message = fmt.Sprintf("Invalid Session ID '%s', it may have expired.", sessionID)

	case apperrors.Is(err, domain.ErrEngineInvalidLicense):
		status, code = http.StatusBadRequest, "engine_invalid_license"
		message = fmt.Sprintf("Invalid License, %v", err)

	case apperrors.Is(err, domain.ErrEngineGeneric):
		status, code = http.StatusInternalServerError, "engine_error"
		switch op {
		case opOpen:
			message = fmt.Sprintf("Error opening session: %v", err)
		case opClose:
			message = "Unexpected error while closing session."
		case opChallenge:
			message = fmt.Sprintf("Error generating challenge: %v", err)
		default:
			message = fmt.Sprintf("Error getting keys: %v", err)
		}

	default:
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	logAttrs := []any{
		slog.String("device", device),
		slog.String("error_code", code),
		slog.Any("error", err),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("playready request failed", logAttrs...)
	} else {
		h.logger.Warn("playready request rejected", logAttrs...)
	}

	httputil.WriteErrorGin(c, status, code, message)
}
