// Package enginetest provides an in-memory CDM engine for tests.
package enginetest

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/allisson/playready-proxy/internal/playready/domain"
)

// Engine method names, used with Calls.
const (
	CallOpen      = "Open"
	CallChallenge = "GetLicenseChallenge"
	CallParse     = "ParseLicense"
	CallKeys      = "GetKeys"
	CallClose     = "Close"
)

type fakeSession struct {
	challenged bool
	parsed     bool
	header     string
}

// FakeEngine is a thread-safe in-memory engine that counts calls. Errors set
// on it are returned by the matching method.
type FakeEngine struct {
	SecurityLevel int
	Keys          []domain.EngineKey
	// OpenDelay and CallDelay widen race windows in concurrency tests. CallDelay
	// applies to every method but Open.
	OpenDelay time.Duration
	CallDelay time.Duration

	OpenErr      error
	ChallengeErr error
	ParseErr     error
	KeysErr      error
	CloseErr     error

	mu       sync.Mutex
	sessions map[string]*fakeSession
	calls    map[string]int
	inFlight map[string]int
	overlaps int
}

// New returns a FakeEngine reporting security level 2000 and two keys.
func New() *FakeEngine {
	return &FakeEngine{
		SecurityLevel: 2000,
		Keys: []domain.EngineKey{
			{KeyID: "E11A656F-E4DB-3444-BCB4-690D1564C41C", Key: []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}},
			{KeyID: []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}, Key: "FFEEDDCCBBAA99887766554433221100"},
		},
		sessions: make(map[string]*fakeSession),
		calls:    make(map[string]int),
		inFlight: make(map[string]int),
	}
}

// Calls returns how many times method was invoked.
func (f *FakeEngine) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// OpenSessions returns the number of sessions the engine still holds.
func (f *FakeEngine) OpenSessions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

// Overlaps returns how many calls started while another call for the same
// device was still running.
func (f *FakeEngine) Overlaps() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overlaps
}

// Expire forgets a session as if it timed out on the engine side.
func (f *FakeEngine) Expire(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, sessionID)
}

// LastHeader returns the WRM header of the last challenge for sessionID.
func (f *FakeEngine) LastHeader(sessionID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[sessionID]; ok {
		return s.header
	}
	return ""
}

func (f *FakeEngine) enter(method, device string) func() {
	f.mu.Lock()
	f.calls[method]++
	if f.inFlight[device] > 0 {
		f.overlaps++
	}
	f.inFlight[device]++
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		f.inFlight[device]--
		f.mu.Unlock()
	}
}

func (f *FakeEngine) lookup(handle *domain.Handle) (*fakeSession, error) {
	if !handle.Valid() {
		return nil, domain.ErrEngineInvalidSession
	}
	s, ok := f.sessions[hex.EncodeToString(handle.SessionID)]
	if !ok {
		return nil, domain.ErrEngineInvalidSession
	}
	return s, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Open creates a session with a random 16 byte id.
func (f *FakeEngine) Open(ctx context.Context, device *domain.Device) (*domain.EngineSession, error) {
	defer f.enter(CallOpen, device.Name)()

	if err := sleep(ctx, f.OpenDelay); err != nil {
		return nil, err
	}
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}

	id := make([]byte, 16)
	if _, err := rand.Read(id); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.sessions[hex.EncodeToString(id)] = &fakeSession{}
	f.mu.Unlock()

	return &domain.EngineSession{SessionID: id, SecurityLevel: f.SecurityLevel}, nil
}

// GetLicenseChallenge returns a fake license request embedding the header.
func (f *FakeEngine) GetLicenseChallenge(
	ctx context.Context,
	handle *domain.Handle,
	wrmHeader string,
) ([]byte, error) {
	defer f.enter(CallChallenge, handle.DeviceName)()

	if err := sleep(ctx, f.CallDelay); err != nil {
		return nil, err
	}

	if f.ChallengeErr != nil {
		return nil, f.ChallengeErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.lookup(handle)
	if err != nil {
		return nil, err
	}
	s.challenged = true
	s.header = wrmHeader
	return []byte(`<?xml version="1.0" encoding="utf-8"?><soap:Envelope><AcquireLicense>` + wrmHeader +
		`</AcquireLicense></soap:Envelope>`), nil
}

// ParseLicense accepts any license containing "<LICENSE" or "XMR".
func (f *FakeEngine) ParseLicense(ctx context.Context, handle *domain.Handle, license string) error {
	defer f.enter(CallParse, handle.DeviceName)()

	if err := sleep(ctx, f.CallDelay); err != nil {
		return err
	}

	if f.ParseErr != nil {
		return f.ParseErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.lookup(handle)
	if err != nil {
		return err
	}
	if !strings.Contains(license, "<LICENSE") && !strings.Contains(license, "XMR") {
		return domain.ErrEngineInvalidLicense
	}
	s.parsed = true
	return nil
}

// GetKeys returns Keys once a license was parsed.
func (f *FakeEngine) GetKeys(ctx context.Context, handle *domain.Handle) ([]domain.EngineKey, error) {
	defer f.enter(CallKeys, handle.DeviceName)()

	if err := sleep(ctx, f.CallDelay); err != nil {
		return nil, err
	}

	if f.KeysErr != nil {
		return nil, f.KeysErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.lookup(handle)
	if err != nil {
		return nil, err
	}
	if !s.parsed {
		return []domain.EngineKey{}, nil
	}
	return append([]domain.EngineKey(nil), f.Keys...), nil
}

// Close forgets the session.
func (f *FakeEngine) Close(ctx context.Context, handle *domain.Handle) error {
	defer f.enter(CallClose, handle.DeviceName)()

	if err := sleep(ctx, f.CallDelay); err != nil {
		return err
	}

	if f.CloseErr != nil {
		return f.CloseErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.lookup(handle); err != nil {
		return err
	}
	delete(f.sessions, hex.EncodeToString(handle.SessionID))
	return nil
}
