package core

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Krish120003/databind/internal/logging"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionSessionCreate AuditAction = "session_create"
	ActionFileLoad      AuditAction = "file_load"
	ActionFileClear     AuditAction = "file_clear"
	ActionJoin          AuditAction = "join"
	ActionResolve       AuditAction = "resolve"
	ActionResolveAll    AuditAction = "resolve_all"
	ActionBack          AuditAction = "back"
	ActionExport        AuditAction = "export"
	ActionSessionReset  AuditAction = "session_reset"
	ActionSessionDelete AuditAction = "session_delete"
	ActionSessionExpire AuditAction = "session_expire"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow    AuditSeverity = "low"
	SeverityMedium AuditSeverity = "medium"
	SeverityHigh   AuditSeverity = "high"
)

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID           string         `json:"id"`
	Action       AuditAction    `json:"action"`
	Severity     AuditSeverity  `json:"severity"`
	SessionID    string         `json:"sessionId"`
	Side         string         `json:"side,omitempty"`
	FileName     string         `json:"fileName,omitempty"`
	RowsAffected int            `json:"rowsAffected,omitempty"`
	IPAddress    string         `json:"ipAddress,omitempty"`
	UserAgent    string         `json:"userAgent,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// AuditStore persists audit entries.
type AuditStore interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// AuditReader is implemented by stores that can list recent entries.
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]AuditEntry, error)
}

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionExport, ActionSessionReset, ActionSessionDelete, ActionResolveAll:
		return SeverityHigh
	case ActionFileLoad, ActionJoin, ActionFileClear:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// logAudit fills in the entry and hands it to the store. A failing store is
// logged and never fails the operation being audited.
func (s *Service) logAudit(ctx context.Context, entry AuditEntry) {
	if s.audit == nil {
		return
	}

	entry.ID = uuid.NewString()
	entry.Severity = determineSeverity(entry.Action)
	entry.CreatedAt = s.now().UTC()
	client := ClientFromContext(ctx)
	entry.IPAddress = client.IPAddress
	entry.UserAgent = client.UserAgent

	if err := s.audit.Record(ctx, entry); err != nil {
		logging.FromContext(ctx).Warn("audit record failed",
			"action", entry.Action,
			"error", err,
		)
	}
}

// AuditLog returns up to limit recent entries, newest first.
func (s *Service) AuditLog(ctx context.Context, limit int) ([]AuditEntry, error) {
	reader, ok := s.audit.(AuditReader)
	if !ok {
		return nil, ErrAuditUnavailable
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return reader.Recent(ctx, limit)
}

// LogAuditStore writes audit entries to a slog logger and keeps the most
// recent ones in memory.
type LogAuditStore struct {
	logger *slog.Logger

	mu     sync.Mutex
	recent []AuditEntry
	next   int
	full   bool
}

// NewLogAuditStore returns a store that logs through logger and remembers
// the last keep entries.
func NewLogAuditStore(logger *slog.Logger, keep int) *LogAuditStore {
	if logger == nil {
		logger = slog.Default()
	}
	if keep <= 0 {
		keep = 500
	}
	return &LogAuditStore{logger: logger, recent: make([]AuditEntry, keep)}
}

// Record implements AuditStore.
func (l *LogAuditStore) Record(ctx context.Context, entry AuditEntry) error {
	l.logger.LogAttrs(ctx, slog.LevelInfo, "audit",
		slog.String("audit_id", entry.ID),
		slog.String("action", string(entry.Action)),
		slog.String("severity", string(entry.Severity)),
		slog.String("session_id", entry.SessionID),
		slog.String("side", entry.Side),
		slog.String("file", entry.FileName),
		slog.Int("rows", entry.RowsAffected),
		slog.String("ip", entry.IPAddress),
		slog.Any("details", entry.Details),
	)

	l.mu.Lock()
	l.recent[l.next] = entry
	l.next = (l.next + 1) % len(l.recent)
	if l.next == 0 {
		l.full = true
	}
	l.mu.Unlock()
	return nil
}

// Recent implements AuditReader.
func (l *LogAuditStore) Recent(_ context.Context, limit int) ([]AuditEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.next
	if l.full {
		n = len(l.recent)
	}
	if limit > n {
		limit = n
	}

	out := make([]AuditEntry, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (l.next - i + len(l.recent)) % len(l.recent)
		out = append(out, l.recent[idx])
	}
	return out, nil
}
