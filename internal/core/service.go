package core

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Krish120003/databind/internal/logging"
	"github.com/Krish120003/databind/internal/sheet"
)

// Defaults for Options fields left zero.
const (
	DefaultSessionTTL    = time.Hour
	DefaultMaxSessions   = 1000
	DefaultPageSize      = 20
	DefaultMaxPageSize   = 500
	DefaultUploadTimeout = 2 * time.Minute
)

// Options configures a Service.
type Options struct {
	SessionTTL    time.Duration
	MaxSessions   int
	PageSize      int
	MaxPageSize   int
	UploadTimeout time.Duration

	// Limiter bounds concurrent file parsing. Nil creates one with the
	// package defaults.
	Limiter *UploadLimiter

	// Audit receives audit entries. Nil disables auditing.
	Audit AuditStore

	// Now is the clock. Nil uses time.Now.
	Now func() time.Time
}

// Service manages join sessions.
type Service struct {
	opts    Options
	limiter *UploadLimiter
	audit   AuditStore
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewService creates a new Service instance.
func NewService(opts Options) *Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.MaxPageSize < opts.PageSize {
		opts.MaxPageSize = max(DefaultMaxPageSize, opts.PageSize)
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = DefaultUploadTimeout
	}
	if opts.Limiter == nil {
		opts.Limiter = NewUploadLimiter(DefaultMaxConcurrentUploads, DefaultMaxWaitTime)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		opts:     opts,
		limiter:  opts.Limiter,
		audit:    opts.Audit,
		now:      opts.Now,
		sessions: make(map[string]*session),
	}
}

// PageSize returns the default preview page size.
func (s *Service) PageSize() int {
	return s.opts.PageSize
}

// withSession runs fn with the session locked and marks it as used.
func (s *Service) withSession(id string, fn func(*session) error) error {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touchedAt = s.now()
	return fn(sess)
}

// CreateSession starts an empty session.
func (s *Service) CreateSession(ctx context.Context) (Snapshot, error) {
	now := s.now()
	sess := newSession(uuid.NewString(), now)

	s.mu.Lock()
	if len(s.sessions) >= s.opts.MaxSessions {
		s.mu.Unlock()
		return Snapshot{}, ErrTooManySessions
	}
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	ctx = logging.WithSession(ctx, sess.id)
	logging.FromContext(ctx).Info("session created")
	s.logAudit(ctx, AuditEntry{Action: ActionSessionCreate, SessionID: sess.id})

	return sess.snapshot(), nil
}

// Session returns a snapshot of session id.
func (s *Service) Session(id string) (Snapshot, error) {
	var snap Snapshot
	err := s.withSession(id, func(sess *session) error {
		snap = sess.snapshot()
		return nil
	})
	return snap, err
}

// DeleteSession discards session id.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	s.logAudit(ctx, AuditEntry{Action: ActionSessionDelete, SessionID: id})
	return nil
}

// Reset clears both files, the key selection and any join result.
func (s *Service) Reset(ctx context.Context, id string) (Snapshot, error) {
	var snap Snapshot
	err := s.withSession(id, func(sess *session) error {
		sess.files = make(map[Side]*loadedFile, 2)
		sess.selection = Selection{}
		sess.join = nil
		snap = sess.snapshot()
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	s.logAudit(ctx, AuditEntry{Action: ActionSessionReset, SessionID: id})
	return snap, nil
}

// LoadFile parses the file called name from r and stores it as side.
//
// On success the side's previous file, its key selection and any join
// result are replaced. On failure the session is unchanged.
func (s *Service) LoadFile(ctx context.Context, id string, side Side, name string, r io.Reader) (Snapshot, error) {
	if _, err := ParseSide(string(side)); err != nil {
		return Snapshot{}, err
	}
	if _, err := s.Session(id); err != nil {
		return Snapshot{}, err
	}
	if !sheet.Accepts(name) {
		return Snapshot{}, fmt.Errorf("%w: %s: accepted file types are %v", sheet.ErrUnparsableFile, name, sheet.Formats())
	}

	ctx = logging.WithSession(ctx, id)
	logger := logging.WithFields(ctx, "side", side, "file", name)

	if err := s.limiter.Acquire(ctx); err != nil {
		return Snapshot{}, err
	}
	defer s.limiter.Release()

	parseCtx, cancel := context.WithTimeout(ctx, s.opts.UploadTimeout)
	defer cancel()

	start := time.Now()
	data, info, err := sheet.ParseWithInfo(parseCtx, name, r)
	if err != nil {
		logger.Warn("file load failed", "error", err)
		return Snapshot{}, err
	}
	logger.Info("file loaded",
		"rows", data.Len(),
		"columns", len(data.Columns),
		"bytes", info.Bytes,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	var snap Snapshot
	err = s.withSession(id, func(sess *session) error {
		sess.files[side] = &loadedFile{name: name, info: info, data: data, loadedAt: s.now()}
		sess.selection.clear(side)
		sess.join = nil
		snap = sess.snapshot()
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	s.logAudit(ctx, AuditEntry{
		Action:       ActionFileLoad,
		SessionID:    id,
		Side:         string(side),
		FileName:     name,
		RowsAffected: data.Len(),
		Details: map[string]any{
			"columns": len(data.Columns),
			"format":  info.Format,
			"bytes":   info.Bytes,
		},
	})
	return snap, nil
}

// ClearFile removes side's file along with its selection and any join
// result.
func (s *Service) ClearFile(ctx context.Context, id string, side Side) (Snapshot, error) {
	if _, err := ParseSide(string(side)); err != nil {
		return Snapshot{}, err
	}

	var (
		snap Snapshot
		name string
	)
	err := s.withSession(id, func(sess *session) error {
		f, err := sess.file(side)
		if err != nil {
			return err
		}
		name = f.name
		delete(sess.files, side)
		sess.selection.clear(side)
		sess.join = nil
		snap = sess.snapshot()
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	s.logAudit(ctx, AuditEntry{Action: ActionFileClear, SessionID: id, Side: string(side), FileName: name})
	return snap, nil
}

// ToggleColumn adds column to side's key selection, or removes it if it is
// already selected. A changed selection discards any join result.
func (s *Service) ToggleColumn(id string, side Side, column string) (Snapshot, error) {
	if _, err := ParseSide(string(side)); err != nil {
		return Snapshot{}, err
	}

	var snap Snapshot
	err := s.withSession(id, func(sess *session) error {
		f, err := sess.file(side)
		if err != nil {
			return err
		}
		if !f.data.HasColumn(column) {
			return fmt.Errorf("%w: %q in %s file", ErrUnknownColumn, column, side)
		}
		sess.selection.toggle(side, column)
		sess.join = nil
		snap = sess.snapshot()
		return nil
	})
	return snap, err
}

// ResetSelections clears the key selection on both sides.
func (s *Service) ResetSelections(id string) (Snapshot, error) {
	var snap Snapshot
	err := s.withSession(id, func(sess *session) error {
		sess.selection = Selection{}
		sess.join = nil
		snap = sess.snapshot()
		return nil
	})
	return snap, err
}

// SweepIdle removes sessions that have not been used for the session TTL
// and returns how many were removed.
func (s *Service) SweepIdle(ctx context.Context) int {
	cutoff := s.now().Add(-s.opts.SessionTTL)

	var expired []string
	s.mu.Lock()
	for id, sess := range s.sessions {
		// Sessions in use are skipped rather than waited for.
		if !sess.mu.TryLock() {
			continue
		}
		idle := sess.touchedAt.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			expired = append(expired, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		s.logAudit(ctx, AuditEntry{Action: ActionSessionExpire, SessionID: id})
	}
	return len(expired)
}

// ServiceStatus reports load for monitoring.
type ServiceStatus struct {
	Sessions    int                 `json:"sessions"`
	MaxSessions int                 `json:"maxSessions"`
	Uploads     UploadLimiterStatus `json:"uploads"`
}

// Status returns the current session count and upload slot usage.
func (s *Service) Status() ServiceStatus {
	s.mu.RLock()
	n := len(s.sessions)
	s.mu.RUnlock()

	return ServiceStatus{
		Sessions:    n,
		MaxSessions: s.opts.MaxSessions,
		Uploads:     s.limiter.Status(),
	}
}

// WaitForUploads blocks until in-flight file parses finish or ctx is done.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
