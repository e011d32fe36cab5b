package usecase

import (
	"context"
	"encoding/hex"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/allisson/playready-proxy/internal/errors"
	"github.com/allisson/playready-proxy/internal/metrics"
	"github.com/allisson/playready-proxy/internal/playready/domain"
)

// deviceSlot holds the live session of one device. lock is a one-slot
// semaphore so waiting for it honours context cancellation.
type deviceSlot struct {
	device  *domain.Device
	lock    chan struct{}
	session *domain.Session
}

func (s *deviceSlot) acquire(ctx context.Context) error {
	select {
	case s.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *deviceSlot) release() {
	<-s.lock
}

// sessionRegistry implements SessionRegistry with one lock per device. The slot
// map is built once from the immutable catalogue and never written afterwards,
// so it needs no lock of its own.
type sessionRegistry struct {
	catalogue DeviceCatalogue
	engine    Engine
	metrics   metrics.BusinessMetrics
	logger    *slog.Logger
	slots     map[string]*deviceSlot
	now       func() time.Time
}

// NewSessionRegistry creates a registry for every device of catalogue.
func NewSessionRegistry(
	catalogue DeviceCatalogue,
	engine Engine,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) SessionRegistry {
	slots := make(map[string]*deviceSlot)
	for _, d := range catalogue.List() {
		slots[d.Name] = &deviceSlot{device: d, lock: make(chan struct{}, 1)}
	}
	return &sessionRegistry{
		catalogue: catalogue,
		engine:    engine,
		metrics:   businessMetrics,
		logger:    logger,
		slots:     slots,
		now:       time.Now,
	}
}

func (r *sessionRegistry) slot(device string) (*deviceSlot, error) {
	s, ok := r.slots[device]
	if !ok {
		return nil, domain.ErrUnknownDevice
	}
	return s, nil
}

// Open is idempotent: a device with a live session gets that session back.
func (r *sessionRegistry) Open(ctx context.Context, device string) (*domain.Session, error) {
	slot, err := r.slot(device)
	if err != nil {
		return nil, err
	}
	if err := slot.acquire(ctx); err != nil {
		return nil, err
	}
	defer slot.release()

	if slot.session != nil {
		r.logger.Info("existing cdm session reused",
			slog.String("device", device),
			slog.String("session_id", slot.session.ID))
		return slot.session, nil
	}

	opened, err := r.engine.Open(ctx, slot.device)
	if err != nil {
		return nil, classifyEngineError(err)
	}
	if opened == nil || len(opened.SessionID) == 0 {
		return nil, apperrors.Wrap(domain.ErrEngineGeneric, "engine returned an empty session id")
	}

	session := &domain.Session{
		ID:            hex.EncodeToString(opened.SessionID),
		DeviceName:    device,
		SecurityLevel: opened.SecurityLevel,
		Handle:        domain.NewHandle(device, opened.SessionID),
		CreatedAt:     r.now().UTC(),
	}
	slot.session = session
	r.metrics.RecordActiveSessions(ctx, device, 1)

	r.logger.Info("cdm session opened",
		slog.String("device", device),
		slog.String("session_id", session.ID),
		slog.Int("security_level", session.SecurityLevel))
	return session, nil
}

// Lookup requires an exact, case-sensitive session id match.
func (r *sessionRegistry) Lookup(ctx context.Context, device, sessionID string) (*domain.Session, error) {
	var found *domain.Session
	err := r.WithSession(ctx, device, sessionID, func(_ context.Context, s *domain.Session) error {
		found = s
		return nil
	})
	return found, err
}

// Close removes the session even when the engine no longer knows it. Any other
// engine failure leaves the entry in place so the caller can retry.
func (r *sessionRegistry) Close(ctx context.Context, device, sessionID string) error {
	slot, err := r.slot(device)
	if err != nil {
		return err
	}
	if err := slot.acquire(ctx); err != nil {
		return err
	}
	defer slot.release()

	session, err := matchSession(slot, sessionID)
	if err != nil {
		return err
	}

	if err := r.engine.Close(ctx, session.Handle); err != nil {
		if !apperrors.Is(err, domain.ErrEngineInvalidSession) {
			return classifyEngineError(err)
		}
		r.logger.Warn("cdm session already gone, dropping local entry",
			slog.String("device", device),
			slog.String("session_id", session.ID))
	}

	r.removeLocked(ctx, slot)
	r.logger.Info("cdm session closed",
		slog.String("device", device),
		slog.String("session_id", session.ID))
	return nil
}

// WithSession holds the device lock for the whole of fn.
func (r *sessionRegistry) WithSession(
	ctx context.Context,
	device, sessionID string,
	fn func(ctx context.Context, s *domain.Session) error,
) error {
	slot, err := r.slot(device)
	if err != nil {
		return err
	}
	if err := slot.acquire(ctx); err != nil {
		return err
	}
	defer slot.release()

	session, err := matchSession(slot, sessionID)
	if err != nil {
		return err
	}
	return fn(ctx, session)
}

// CloseAll is used on shutdown. Every device is attempted; the first failure is returned.
func (r *sessionRegistry) CloseAll(ctx context.Context) error {
	var g errgroup.Group
	for name, slot := range r.slots {
		g.Go(func() error {
			if err := slot.acquire(ctx); err != nil {
				return err
			}
			defer slot.release()

			if slot.session == nil {
				return nil
			}
			if err := r.engine.Close(ctx, slot.session.Handle); err != nil &&
				!apperrors.Is(err, domain.ErrEngineInvalidSession) {
				r.logger.Error("failed to close cdm session on shutdown",
					slog.String("device", name),
					slog.Any("error", err))
				r.removeLocked(ctx, slot)
				return classifyEngineError(err)
			}
			r.removeLocked(ctx, slot)
			r.logger.Info("cdm session closed on shutdown", slog.String("device", name))
			return nil
		})
	}
	return g.Wait()
}

// Devices returns the configured devices sorted by name.
func (r *sessionRegistry) Devices() []*domain.Device {
	return r.catalogue.List()
}

func (r *sessionRegistry) removeLocked(ctx context.Context, slot *deviceSlot) {
	slot.session.Handle.Invalidate()
	slot.session = nil
	r.metrics.RecordActiveSessions(ctx, slot.device.Name, -1)
}

func matchSession(slot *deviceSlot, sessionID string) (*domain.Session, error) {
	if slot.session == nil {
		return nil, domain.ErrNoActiveSession
	}
	if sessionID != slot.session.ID {
		return nil, domain.ErrSessionIDMismatch
	}
	return slot.session, nil
}
