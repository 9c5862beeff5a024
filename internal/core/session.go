package core

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Krish120003/databind/internal/dataset"
	"github.com/Krish120003/databind/internal/merge"
	"github.com/Krish120003/databind/internal/sheet"
)

// Side names one of the two files of a session.
type Side string

const (
	SidePrimary   Side = "primary"
	SideSecondary Side = "secondary"
)

// ParseSide parses a side name, case-insensitively.
func ParseSide(s string) (Side, error) {
	switch side := Side(strings.ToLower(strings.TrimSpace(s))); side {
	case SidePrimary, SideSecondary:
		return side, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSide, s)
	}
}

// View selects which rows a preview shows.
type View string

const (
	// ViewMerged shows rows as joined, conflicts holding the primary value.
	ViewMerged View = "merged"
	// ViewResolved applies the resolutions chosen so far.
	ViewResolved View = "resolved"
)

// ParseView parses a view name. The empty string selects ViewMerged.
func ParseView(s string) (View, error) {
	switch v := View(strings.ToLower(strings.TrimSpace(s))); v {
	case "", ViewMerged:
		return ViewMerged, nil
	case ViewResolved:
		return ViewResolved, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidView, s)
	}
}

// Selection holds the key columns picked on each side, in key order.
type Selection struct {
	Primary   []string `json:"primary"`
	Secondary []string `json:"secondary"`
}

// Columns returns the selection for side.
func (s Selection) Columns(side Side) []string {
	if side == SideSecondary {
		return s.Secondary
	}
	return s.Primary
}

// CanJoin reports whether both sides have the same, non-zero number of key
// columns.
func (s Selection) CanJoin() bool {
	return len(s.Primary) > 0 && len(s.Primary) == len(s.Secondary)
}

// Badge returns the 1-based key position of column on side, or 0 when it is
// not selected.
func (s Selection) Badge(side Side, column string) int {
	for i, c := range s.Columns(side) {
		if c == column {
			return i + 1
		}
	}
	return 0
}

// toggle appends column to the side's selection, or removes it when it is
// already there.
func (s *Selection) toggle(side Side, column string) {
	cols := &s.Primary
	if side == SideSecondary {
		cols = &s.Secondary
	}
	for i, c := range *cols {
		if c == column {
			*cols = append((*cols)[:i:i], (*cols)[i+1:]...)
			return
		}
	}
	*cols = append(*cols, column)
}

func (s *Selection) clear(side Side) {
	if side == SideSecondary {
		s.Secondary = nil
	} else {
		s.Primary = nil
	}
}

func (s Selection) clone() Selection {
	return Selection{
		Primary:   append([]string{}, s.Primary...),
		Secondary: append([]string{}, s.Secondary...),
	}
}

// loadedFile is a parsed upload.
type loadedFile struct {
	name     string
	info     sheet.Info
	data     *dataset.Dataset
	loadedAt time.Time
}

// joinState is a completed join and the decisions made on it.
type joinState struct {
	primaryKey   []string
	secondaryKey []string
	result       *merge.Result
	resolutions  merge.Resolutions
	joinedAt     time.Time
}

func (j *joinState) unresolved() []int {
	return j.result.Unresolved(j.resolutions)
}

// session is the mutable state of one join workflow.
type session struct {
	mu sync.Mutex

	id        string
	createdAt time.Time
	touchedAt time.Time

	files     map[Side]*loadedFile
	selection Selection
	join      *joinState
}

func newSession(id string, now time.Time) *session {
	return &session{
		id:        id,
		createdAt: now,
		touchedAt: now,
		files:     make(map[Side]*loadedFile, 2),
	}
}

// file returns the loaded file for side or ErrFileNotLoaded.
func (s *session) file(side Side) (*loadedFile, error) {
	f, ok := s.files[side]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotLoaded, side)
	}
	return f, nil
}

// joined returns the join state or ErrNotJoined.
func (s *session) joined() (*joinState, error) {
	if s.join == nil {
		return nil, ErrNotJoined
	}
	return s.join, nil
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID            string       `json:"id"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
	Primary       *FileSummary `json:"primary,omitempty"`
	Secondary     *FileSummary `json:"secondary,omitempty"`
	Selection     Selection    `json:"selection"`
	CanJoin       bool         `json:"canJoin"`
	CommonColumns []string     `json:"commonColumns"`
	Join          *JoinSummary `json:"join,omitempty"`
}

// File returns the summary for side, or nil.
func (s Snapshot) File(side Side) *FileSummary {
	if side == SideSecondary {
		return s.Secondary
	}
	return s.Primary
}

// FileSummary describes a loaded file.
type FileSummary struct {
	Name     string     `json:"name"`
	Columns  []string   `json:"columns"`
	Rows     int        `json:"rows"`
	Info     sheet.Info `json:"info"`
	LoadedAt time.Time  `json:"loadedAt"`
}

// JoinSummary describes a stored join result.
type JoinSummary struct {
	PrimaryKey   []string    `json:"primaryKey"`
	SecondaryKey []string    `json:"secondaryKey"`
	Columns      []string    `json:"columns"`
	Rows         int         `json:"rows"`
	Conflicts    int         `json:"conflicts"`
	Unresolved   int         `json:"unresolved"`
	Stats        merge.Stats `json:"stats"`
	JoinedAt     time.Time   `json:"joinedAt"`
}

// snapshot copies the session state. The caller holds s.mu.
func (s *session) snapshot() Snapshot {
	snap := Snapshot{
		ID:            s.id,
		CreatedAt:     s.createdAt,
		UpdatedAt:     s.touchedAt,
		Selection:     s.selection.clone(),
		CanJoin:       s.selection.CanJoin(),
		CommonColumns: []string{},
	}

	summarize := func(f *loadedFile) *FileSummary {
		if f == nil {
			return nil
		}
		return &FileSummary{
			Name:     f.name,
			Columns:  append([]string(nil), f.data.Columns...),
			Rows:     f.data.Len(),
			Info:     f.info,
			LoadedAt: f.loadedAt,
		}
	}
	p, sec := s.files[SidePrimary], s.files[SideSecondary]
	snap.Primary = summarize(p)
	snap.Secondary = summarize(sec)
	if p != nil && sec != nil {
		if common := dataset.CommonColumns(p.data.Columns, sec.data.Columns); common != nil {
			snap.CommonColumns = common
		}
	}

	if j := s.join; j != nil {
		snap.Join = &JoinSummary{
			PrimaryKey:   append([]string(nil), j.primaryKey...),
			SecondaryKey: append([]string(nil), j.secondaryKey...),
			Columns:      append([]string(nil), j.result.AllColumns...),
			Rows:         j.result.Joined.Len(),
			Conflicts:    len(j.result.Conflicts),
			Unresolved:   len(j.unresolved()),
			Stats:        j.result.Stats,
			JoinedAt:     j.joinedAt,
		}
	}
	return snap
}
