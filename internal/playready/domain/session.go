package domain

import (
	"sync/atomic"
	"time"
)

// Handle is the engine-side reference of one open CDM conversation.
// It is owned by exactly one Session and becomes unusable once the session is closed.
type Handle struct {
	DeviceName string
	SessionID  []byte

	closed atomic.Bool
}

// NewHandle creates a valid handle.
func NewHandle(deviceName string, sessionID []byte) *Handle {
	return &Handle{DeviceName: deviceName, SessionID: sessionID}
}

// Valid reports whether the handle may still be passed to the engine.
func (h *Handle) Valid() bool {
	return h != nil && !h.closed.Load()
}

// Invalidate marks the handle as closed. Later engine calls with it fail with
// ErrEngineInvalidSession.
func (h *Handle) Invalidate() {
	h.closed.Store(true)
}

// Session is one open CDM conversation for a device.
type Session struct {
	// ID is the lowercase hex form of the engine session identifier.
	ID            string
	DeviceName    string
	SecurityLevel int
	Handle        *Handle
	CreatedAt     time.Time
}

// EngineSession is what the engine returns when a conversation is opened.
type EngineSession struct {
	SessionID     []byte
	SecurityLevel int
}

// EngineKey is a content key as returned by the engine. KeyID and Key keep the
// engine's native representation until normalised.
type EngineKey struct {
	KeyID any
	Key   any
}

// ContentKey is a content key in its normalised lowercase hex form.
type ContentKey struct {
	KeyID string `json:"key_id"`
	Key   string `json:"key"`
}
