package core

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/Krish120003/databind/internal/dataset"
	"github.com/Krish120003/databind/internal/logging"
	"github.com/Krish120003/databind/internal/merge"
	"github.com/Krish120003/databind/internal/sheet"
)

// Join merges the session's files on the selected key columns. A new join
// replaces any earlier result and starts with no resolutions. On error the
// session keeps its previous state.
func (s *Service) Join(ctx context.Context, id string) (Snapshot, error) {
	ctx = logging.WithSession(ctx, id)

	var (
		snap  Snapshot
		stats merge.Stats
		keys  int
	)
	err := s.withSession(id, func(sess *session) error {
		primary, err := sess.file(SidePrimary)
		if err != nil {
			return err
		}
		secondary, err := sess.file(SideSecondary)
		if err != nil {
			return err
		}

		pk := append([]string(nil), sess.selection.Primary...)
		sk := append([]string(nil), sess.selection.Secondary...)

		start := time.Now()
		result, err := merge.Join(primary.data, secondary.data, pk, sk)
		if err != nil {
			return err
		}
		logging.FromContext(ctx).Info("join completed",
			"rows", result.Joined.Len(),
			"conflicts", len(result.Conflicts),
			"duplicate_secondary_keys", result.Stats.DuplicateSecondaryKeys,
			"duration_ms", time.Since(start).Milliseconds(),
		)

		sess.join = &joinState{
			primaryKey:   pk,
			secondaryKey: sk,
			result:       result,
			resolutions:  merge.Resolutions{},
			joinedAt:     s.now(),
		}
		stats = result.Stats
		keys = len(pk)
		snap = sess.snapshot()
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	s.logAudit(ctx, AuditEntry{
		Action:       ActionJoin,
		SessionID:    id,
		RowsAffected: snap.Join.Rows,
		Details: map[string]any{
			"key_columns":    keys,
			"conflicts":      snap.Join.Conflicts,
			"matched":        stats.Matched,
			"primary_only":   stats.PrimaryOnly,
			"secondary_only": stats.SecondaryOnly,
		},
	})
	return snap, nil
}

// Resolve records that the conflict at rowIndex takes its values from
// source. Choosing again overwrites the earlier choice.
func (s *Service) Resolve(ctx context.Context, id string, rowIndex int, source merge.Source) (Snapshot, error) {
	if !source.Valid() {
		return Snapshot{}, fmt.Errorf("%w: %q", merge.ErrInvalidSource, source)
	}

	var snap Snapshot
	err := s.withSession(id, func(sess *session) error {
		j, err := sess.joined()
		if err != nil {
			return err
		}
		if _, ok := j.result.FindConflict(rowIndex); !ok {
			return fmt.Errorf("%w: row %d", ErrConflictNotFound, rowIndex)
		}
		j.resolutions[rowIndex] = source
		snap = sess.snapshot()
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	s.logAudit(ctx, AuditEntry{
		Action:    ActionResolve,
		SessionID: id,
		Details:   map[string]any{"row": rowIndex, "source": source},
	})
	return snap, nil
}

// ResolveAll sets source on every conflict that has no resolution yet and
// returns how many were set.
func (s *Service) ResolveAll(ctx context.Context, id string, source merge.Source) (int, Snapshot, error) {
	if !source.Valid() {
		return 0, Snapshot{}, fmt.Errorf("%w: %q", merge.ErrInvalidSource, source)
	}

	var (
		snap Snapshot
		n    int
	)
	err := s.withSession(id, func(sess *session) error {
		j, err := sess.joined()
		if err != nil {
			return err
		}
		for _, row := range j.unresolved() {
			j.resolutions[row] = source
			n++
		}
		snap = sess.snapshot()
		return nil
	})
	if err != nil {
		return 0, Snapshot{}, err
	}

	s.logAudit(ctx, AuditEntry{
		Action:       ActionResolveAll,
		SessionID:    id,
		RowsAffected: n,
		Details:      map[string]any{"source": source},
	})
	return n, snap, nil
}

// Back discards the join result and its resolutions so the keys can be
// changed. The key selection is kept.
func (s *Service) Back(ctx context.Context, id string) (Snapshot, error) {
	var snap Snapshot
	err := s.withSession(id, func(sess *session) error {
		sess.join = nil
		snap = sess.snapshot()
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	s.logAudit(ctx, AuditEntry{Action: ActionBack, SessionID: id})
	return snap, nil
}

// RowsPage is one page of the join preview.
type RowsPage struct {
	View       View          `json:"view"`
	Columns    []string      `json:"columns"`
	Rows       []dataset.Row `json:"rows"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalRows  int           `json:"totalRows"`
	TotalPages int           `json:"totalPages"`

	// Offset is the row index of Rows[0] in the joined dataset.
	Offset int `json:"offset"`

	// Conflicts maps row indexes on this page to their conflict state.
	Conflicts map[int]ConflictView `json:"conflicts"`
}

// Rows returns the 1-based page of the preview. pageSize <= 0 selects the
// default page size; larger sizes are capped.
func (s *Service) Rows(id string, page, pageSize int, view View) (RowsPage, error) {
	view, err := ParseView(string(view))
	if err != nil {
		return RowsPage{}, err
	}
	if pageSize <= 0 {
		pageSize = s.opts.PageSize
	}
	if pageSize > s.opts.MaxPageSize {
		pageSize = s.opts.MaxPageSize
	}

	var out RowsPage
	err = s.withSession(id, func(sess *session) error {
		j, err := sess.joined()
		if err != nil {
			return err
		}

		data := j.result.Joined
		if view == ViewResolved {
			data = j.result.Resolve(j.resolutions)
		}

		totalPages := data.PageCount(pageSize)
		if page < 1 {
			page = 1
		}
		if totalPages > 0 && page > totalPages {
			page = totalPages
		}

		rows := data.Page(page, pageSize)
		out = RowsPage{
			View:       view,
			Columns:    append([]string(nil), data.Columns...),
			Rows:       make([]dataset.Row, len(rows)),
			Page:       page,
			PageSize:   pageSize,
			TotalRows:  data.Len(),
			TotalPages: totalPages,
			Offset:     (page - 1) * pageSize,
			Conflicts:  make(map[int]ConflictView),
		}
		for i, r := range rows {
			out.Rows[i] = r.Clone()
			if c, ok := j.result.FindConflict(out.Offset + i); ok {
				out.Conflicts[c.RowIndex] = conflictView(c, j.resolutions)
			}
		}
		return nil
	})
	return out, err
}

// ConflictView is a conflict together with its resolution, if any.
type ConflictView struct {
	merge.Conflict
	Resolution merge.Source `json:"resolution,omitempty"`
}

func conflictView(c merge.Conflict, res merge.Resolutions) ConflictView {
	return ConflictView{
		Conflict: merge.Conflict{
			RowIndex:  c.RowIndex,
			Primary:   c.Primary.Clone(),
			Secondary: c.Secondary.Clone(),
			Columns:   append([]string(nil), c.Columns...),
		},
		Resolution: res[c.RowIndex],
	}
}

// ConflictList lists every conflict of a join.
type ConflictList struct {
	Conflicts  []ConflictView `json:"conflicts"`
	Total      int            `json:"total"`
	Unresolved int            `json:"unresolved"`
}

// Conflicts returns every conflict of the session's join in row order.
func (s *Service) Conflicts(id string) (ConflictList, error) {
	var out ConflictList
	err := s.withSession(id, func(sess *session) error {
		j, err := sess.joined()
		if err != nil {
			return err
		}
		out.Conflicts = make([]ConflictView, len(j.result.Conflicts))
		for i, c := range j.result.Conflicts {
			out.Conflicts[i] = conflictView(c, j.resolutions)
		}
		out.Total = len(j.result.Conflicts)
		out.Unresolved = len(j.unresolved())
		return nil
	})
	return out, err
}

// ExportFile is a serialized join result ready for download.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
	Rows        int
}

// Export resolves the join and serializes it. It is refused while any
// conflict has no resolution.
func (s *Service) Export(ctx context.Context, id string, format sheet.Format) (*ExportFile, error) {
	ctx = logging.WithSession(ctx, id)

	var (
		resolved *dataset.Dataset
		name     string
	)
	err := s.withSession(id, func(sess *session) error {
		j, err := sess.joined()
		if err != nil {
			return err
		}
		if n := len(j.unresolved()); n > 0 {
			return fmt.Errorf("%w: %d of %d conflicts still need a source", ErrUnresolvedConflicts, n, len(j.result.Conflicts))
		}
		resolved = j.result.Resolve(j.resolutions)

		var pName, sName string
		if f := sess.files[SidePrimary]; f != nil {
			pName = f.name
		}
		if f := sess.files[SideSecondary]; f != nil {
			sName = f.name
		}
		name = sheet.ExportFileName(pName, sName) + format.Ext()
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Serialization works on the resolved copy outside the session lock.
	var buf bytes.Buffer
	if err := sheet.Export(&buf, resolved, format); err != nil {
		logging.FromContext(ctx).Error("export failed", "format", format, "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logAudit(ctx, AuditEntry{
		Action:       ActionExport,
		SessionID:    id,
		FileName:     name,
		RowsAffected: resolved.Len(),
		Details:      map[string]any{"format": format, "bytes": buf.Len()},
	})

	return &ExportFile{
		Name:        name,
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
		Rows:        resolved.Len(),
	}, nil
}
