// Package engine contains CDM engine adapters.
package engine

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/moogar0880/problems"

	apperrors "github.com/allisson/playready-proxy/internal/errors"
	"github.com/allisson/playready-proxy/internal/playready/domain"
)

// SecretHeader carries the shared secret expected by the remote CDM.
const SecretHeader = "X-Secret-Key"

const maxResponseBytes = 4 << 20

// remoteResponse is the envelope used by every remote CDM endpoint.
type remoteResponse struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type openData struct {
	SessionID string `json:"session_id"`
	Device    struct {
		SecurityLevel int `json:"security_level"`
	} `json:"device"`
}

type challengeData struct {
	Challenge string `json:"challenge"`
}

type keysData struct {
	Keys []struct {
		KeyID string `json:"key_id"`
		Key   string `json:"key"`
		Type  string `json:"type"`
	} `json:"keys"`
}

// RemoteEngine talks to a remote CDM over HTTP. The device credentials live
// on the remote side; the proxy addresses them by device name.
type RemoteEngine struct {
	baseURL *url.URL
	secret  string
	client  *http.Client
	logger  *slog.Logger
}

// NewRemoteEngine validates baseURL and returns an engine whose calls are
// bounded by timeout.
func NewRemoteEngine(baseURL, secret string, timeout time.Duration, logger *slog.Logger) (*RemoteEngine, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("cdm engine: invalid url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("cdm engine: url %q must be absolute http(s)", baseURL)
	}

	return &RemoteEngine{
		baseURL: u,
		secret:  secret,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// Open opens a session for device.
func (e *RemoteEngine) Open(ctx context.Context, device *domain.Device) (*domain.EngineSession, error) {
	var data openData
	if err := e.do(ctx, http.MethodGet, e.endpoint(device.Name, "open"), nil, &data); err != nil {
		return nil, err
	}

	id, err := hex.DecodeString(data.SessionID)
	if err != nil || len(id) == 0 {
		return nil, apperrors.Wrapf(domain.ErrEngineGeneric, "cdm engine returned session id %q", data.SessionID)
	}
	return &domain.EngineSession{SessionID: id, SecurityLevel: data.Device.SecurityLevel}, nil
}

// GetLicenseChallenge asks the remote CDM for a license request.
func (e *RemoteEngine) GetLicenseChallenge(
	ctx context.Context,
	handle *domain.Handle,
	wrmHeader string,
) ([]byte, error) {
	if !handle.Valid() {
		return nil, domain.ErrEngineInvalidSession
	}

	body := map[string]string{
		"session_id": hex.EncodeToString(handle.SessionID),
		"init_data":  wrmHeader,
	}
	var data challengeData
	if err := e.do(ctx, http.MethodPost, e.endpoint(handle.DeviceName, "get_license_challenge"), body, &data); err != nil {
		return nil, err
	}
	return []byte(data.Challenge), nil
}

// ParseLicense loads license into the remote session.
func (e *RemoteEngine) ParseLicense(ctx context.Context, handle *domain.Handle, license string) error {
	if !handle.Valid() {
		return domain.ErrEngineInvalidSession
	}

	body := map[string]string{
		"session_id":      hex.EncodeToString(handle.SessionID),
		"license_message": license,
	}
	return e.do(ctx, http.MethodPost, e.endpoint(handle.DeviceName, "parse_license"), body, nil)
}

// GetKeys returns the keys of the parsed license as reported by the remote CDM.
func (e *RemoteEngine) GetKeys(ctx context.Context, handle *domain.Handle) ([]domain.EngineKey, error) {
	if !handle.Valid() {
		return nil, domain.ErrEngineInvalidSession
	}

	body := map[string]string{"session_id": hex.EncodeToString(handle.SessionID)}
	var data keysData
	if err := e.do(ctx, http.MethodPost, e.endpoint(handle.DeviceName, "get_keys"), body, &data); err != nil {
		return nil, err
	}

	keys := make([]domain.EngineKey, 0, len(data.Keys))
	for _, k := range data.Keys {
		keys = append(keys, domain.EngineKey{KeyID: k.KeyID, Key: k.Key})
	}
	return keys, nil
}

// Close closes the remote session.
func (e *RemoteEngine) Close(ctx context.Context, handle *domain.Handle) error {
	if !handle.Valid() {
		return domain.ErrEngineInvalidSession
	}

	return e.do(ctx, http.MethodGet,
		e.endpoint(handle.DeviceName, "close", hex.EncodeToString(handle.SessionID)), nil, nil)
}

func (e *RemoteEngine) endpoint(device string, parts ...string) string {
	return e.baseURL.JoinPath(append([]string{device}, parts...)...).String()
}

// do sends one request and decodes the data member of the envelope into out.
func (e *RemoteEngine) do(ctx context.Context, method, endpoint string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return apperrors.Wrapf(domain.ErrEngineGeneric, "cdm engine: marshal request: %v", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return apperrors.Wrapf(domain.ErrEngineGeneric, "cdm engine: create request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if e.secret != "" {
		req.Header.Set(SecretHeader, e.secret)
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return apperrors.Wrapf(domain.ErrEngineGeneric, "cdm engine: %s %s: %v", method, req.URL.Path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apperrors.Wrapf(domain.ErrEngineGeneric, "cdm engine: read response: %v", err)
	}

	e.logger.Debug("cdm engine call",
		slog.String("method", method),
		slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		return classifyResponse(resp, respBody)
	}

	var envelope remoteResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return apperrors.Wrapf(domain.ErrEngineGeneric, "cdm engine: invalid response: %v", err)
	}
	if envelope.Status != 0 && envelope.Status != http.StatusOK {
		return classifyMessage(envelope.Status, envelope.Message)
	}
	if out == nil {
		return nil
	}
	if len(envelope.Data) == 0 {
		return apperrors.Wrap(domain.ErrEngineGeneric, "cdm engine: response has no data")
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return apperrors.Wrapf(domain.ErrEngineGeneric, "cdm engine: invalid response data: %v", err)
	}
	return nil
}

// classifyResponse turns a non-200 reply into an engine error kind.
func classifyResponse(resp *http.Response, body []byte) error {
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == problems.ProblemMediaType {
		var prob problems.DefaultProblem
		if err := json.Unmarshal(body, &prob); err == nil {
			msg := prob.Detail
			if msg == "" {
				msg = prob.Title
			}
			return classifyMessage(resp.StatusCode, msg)
		}
	}

	var envelope remoteResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		return classifyMessage(resp.StatusCode, envelope.Message)
	}
	return classifyMessage(resp.StatusCode, strings.TrimSpace(string(body)))
}

func classifyMessage(status int, message string) error {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "invalid session"):
		return apperrors.Wrap(domain.ErrEngineInvalidSession, message)
	case strings.Contains(lower, "invalid license"):
		return apperrors.Wrap(domain.ErrEngineInvalidLicense, message)
	default:
		return apperrors.Wrapf(domain.ErrEngineGeneric, "cdm engine status %d: %s", status, message)
	}
}
