package diff

import (
	"errors"
	"fmt"
	"sort"

	"github.com/TsekNet/confdiff/internal/value"
)

// Kind is the type of a detected difference.
type Kind string

const (
	Added   Kind = "added"
	Removed Kind = "removed"
	Changed Kind = "changed"
)

// Severity ranks the likely impact of a change.
type Severity string

const (
	Critical Severity = "critical"
	Major    Severity = "major"
	Minor    Severity = "minor"
	Cosmetic Severity = "cosmetic"
)

// Rank orders severities: Critical is 3, Cosmetic is 0, unknown is -1.
func (s Severity) Rank() int {
	switch s {
	case Critical:
		return 3
	case Major:
		return 2
	case Minor:
		return 1
	case Cosmetic:
		return 0
	}
	return -1
}

// ParseSeverity converts a name into a Severity.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if sev.Rank() < 0 {
		return "", fmt.Errorf("unknown severity %q (want critical, major, minor or cosmetic)", s)
	}
	return sev, nil
}

// Category is the topical area a change belongs to.
type Category string

const (
	Security      Category = "security"
	Performance   Category = "performance"
	Configuration Category = "configuration"
	Structure     Category = "structure"
)

// Change is one difference at one path. OldValue is nil for Added changes
// and NewValue is nil for Removed changes.
type Change struct {
	Path     string // dot-delimited; sequence elements end in [index]
	Kind     Kind
	OldValue value.Value
	NewValue value.Value
	OldType  value.Kind
	NewType  value.Kind
	Severity Severity // set by the classifier
	Category Category // set by the classifier
}

// SortByPath orders changes by path (byte order), keeping the traversal
// order of equal paths.
func SortByPath(changes []Change) {
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
}

// ErrDepthExceeded is returned (wrapped in a *DepthError) when the trees nest
// deeper than the configured limit.
var ErrDepthExceeded = errors.New("maximum nesting depth exceeded")

// DepthError reports where the depth limit was hit.
type DepthError struct {
	Path  string
	Limit int
}

func (e *DepthError) Error() string {
	path := e.Path
	if path == "" {
		path = "(root)"
	}
	return fmt.Sprintf("%s at %s (limit %d)", ErrDepthExceeded, path, e.Limit)
}

func (e *DepthError) Unwrap() error {
	return ErrDepthExceeded
}
