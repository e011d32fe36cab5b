package dto

import (
	"github.com/allisson/playready-proxy/internal/playready/domain"
)

// SessionResponse describes an open session.
type SessionResponse struct {
	SessionID     string `json:"session_id"`
	DeviceName    string `json:"device_name"`
	SecurityLevel int    `json:"security_level"`
}

// MapSessionToResponse converts a domain session to its API representation.
func MapSessionToResponse(s *domain.Session) SessionResponse {
	return SessionResponse{
		SessionID:     s.ID,
		DeviceName:    s.DeviceName,
		SecurityLevel: s.SecurityLevel,
	}
}

// MessageResponse carries a human readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// ChallengeResponse carries the base64 license request.
type ChallengeResponse struct {
	ChallengeB64 string `json:"challenge_b64"`
}

// KeyResponse is one content key in lowercase hex.
type KeyResponse struct {
	KeyID string `json:"key_id"`
	Key   string `json:"key"`
}

// KeysResponse lists the keys extracted from a license in engine order.
type KeysResponse struct {
	Message string        `json:"message"`
	Keys    []KeyResponse `json:"keys"`
}

// MapKeysToResponse converts content keys to their API representation.
func MapKeysToResponse(keys []*domain.ContentKey) KeysResponse {
	out := make([]KeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, KeyResponse{KeyID: k.KeyID, Key: k.Key})
	}
	return KeysResponse{Message: domain.LicenseParsedMessage, Keys: out}
}
