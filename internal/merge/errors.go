package merge

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKeyConfiguration is returned when the key column lists are
// empty or differ in length.
var ErrInvalidKeyConfiguration = errors.New("invalid key configuration")

// ErrInvalidSource is returned when a resolution names an unknown side.
var ErrInvalidSource = errors.New("invalid source")

// Source names one side of a join.
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceSecondary Source = "secondary"
)

// Valid reports whether s is one of the two known sources.
func (s Source) Valid() bool {
	return s == SourcePrimary || s == SourceSecondary
}

// ParseSource parses a source name, case-insensitively.
func ParseSource(s string) (Source, error) {
	src := Source(strings.ToLower(strings.TrimSpace(s)))
	if !src.Valid() {
		return "", fmt.Errorf("%w: %q (want primary or secondary)", ErrInvalidSource, s)
	}
	return src, nil
}

// ValidateKeys checks the precondition of Join.
func ValidateKeys(primaryKey, secondaryKey []string) error {
	if len(primaryKey) == 0 || len(secondaryKey) == 0 {
		return fmt.Errorf("%w: select at least one column from each file", ErrInvalidKeyConfiguration)
	}
	if len(primaryKey) != len(secondaryKey) {
		return fmt.Errorf("%w: %d primary key columns but %d secondary key columns",
			ErrInvalidKeyConfiguration, len(primaryKey), len(secondaryKey))
	}
	return nil
}
