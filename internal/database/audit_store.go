package database

import (
	"context"
	"encoding/json"
	"fmt"
	"net/netip"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/Krish120003/databind/internal/core"
)

// DBTX is the subset of pgxpool.Pool, pgx.Conn and pgx.Tx the store uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// AuditStore persists audit entries in the audit_log table.
type AuditStore struct {
	db DBTX
}

// NewAuditStore creates a store backed by db.
func NewAuditStore(db DBTX) *AuditStore {
	return &AuditStore{db: db}
}

var (
	_ core.AuditStore  = (*AuditStore)(nil)
	_ core.AuditReader = (*AuditStore)(nil)
)

const insertAuditLog = `INSERT INTO audit_log (
	id, action, severity, session_id, side, file_name, rows_affected,
	ip_address, user_agent, details, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// Record implements core.AuditStore.
func (s *AuditStore) Record(ctx context.Context, entry core.AuditEntry) error {
	var details []byte
	if len(entry.Details) > 0 {
		var err error
		details, err = json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
	}

	id, err := toPgUUID(entry.ID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, insertAuditLog,
		id,
		string(entry.Action),
		string(entry.Severity),
		entry.SessionID,
		toPgText(entry.Side),
		toPgText(entry.FileName),
		toPgInt4(entry.RowsAffected),
		parseIP(entry.IPAddress),
		toPgText(entry.UserAgent),
		details,
		pgtype.Timestamptz{Time: entry.CreatedAt, Valid: !entry.CreatedAt.IsZero()},
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

const selectRecentAuditLog = `SELECT id, action, severity, session_id, side, file_name,
	rows_affected, ip_address, user_agent, details, created_at
	FROM audit_log ORDER BY created_at DESC LIMIT $1`

// Recent implements core.AuditReader.
func (s *AuditStore) Recent(ctx context.Context, limit int) ([]core.AuditEntry, error) {
	rows, err := s.db.Query(ctx, selectRecentAuditLog, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	entries := make([]core.AuditEntry, 0, limit)
	for rows.Next() {
		entry, err := scanAuditRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func scanAuditRow(rows pgx.Rows) (core.AuditEntry, error) {
	var (
		id           pgtype.UUID
		action       string
		severity     string
		sessionID    string
		side         pgtype.Text
		fileName     pgtype.Text
		rowsAffected pgtype.Int4
		ipAddress    *netip.Addr
		userAgent    pgtype.Text
		details      []byte
		createdAt    pgtype.Timestamptz
	)

	err := rows.Scan(
		&id, &action, &severity, &sessionID, &side, &fileName,
		&rowsAffected, &ipAddress, &userAgent, &details, &createdAt,
	)
	if err != nil {
		return core.AuditEntry{}, fmt.Errorf("scan audit row: %w", err)
	}

	entry := core.AuditEntry{
		ID:           pgUUIDToString(id),
		Action:       core.AuditAction(action),
		Severity:     core.AuditSeverity(severity),
		SessionID:    sessionID,
		Side:         side.String,
		FileName:     fileName.String,
		RowsAffected: int(rowsAffected.Int32),
		UserAgent:    userAgent.String,
		CreatedAt:    createdAt.Time,
	}
	if ipAddress != nil {
		entry.IPAddress = ipAddress.String()
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &entry.Details); err != nil {
			return core.AuditEntry{}, fmt.Errorf("decode audit details: %w", err)
		}
	}
	return entry, nil
}
