// Package stats aggregates a change list into summary counts and a
// similarity percentage.
package stats

import (
	"strings"

	"fortio.org/safecast"

	"github.com/TsekNet/confdiff/internal/diff"
)

// Summary partitions changes by kind. Total equals Added+Removed+Changed.
type Summary struct {
	Added   int
	Removed int
	Changed int
	Total   int
}

// Stats is the aggregate view of one comparison.
type Stats struct {
	Summary    Summary
	Similarity float64 // percent, in [0, 100]
	LeftSize   uint
	RightSize  uint
	BySeverity map[diff.Severity]int
	ByCategory map[diff.Category]int
}

// Aggregate computes the summary and similarity. Sizes are caller-chosen
// units (the compare package uses source line counts). Similarity is
// 100 * (units - changes) / units with units = max(leftSize, rightSize),
// clamped to [0, 100]; it is 100 when both sizes are zero.
func Aggregate(changes []diff.Change, leftSize, rightSize uint) Stats {
	s := Stats{
		LeftSize:   leftSize,
		RightSize:  rightSize,
		BySeverity: make(map[diff.Severity]int),
		ByCategory: make(map[diff.Category]int),
	}
	for _, c := range changes {
		switch c.Kind {
		case diff.Added:
			s.Summary.Added++
		case diff.Removed:
			s.Summary.Removed++
		case diff.Changed:
			s.Summary.Changed++
		}
		if c.Severity != "" {
			s.BySeverity[c.Severity]++
		}
		if c.Category != "" {
			s.ByCategory[c.Category]++
		}
	}
	s.Summary.Total = s.Summary.Added + s.Summary.Removed + s.Summary.Changed
	changed, _ := safecast.Conv[uint](s.Summary.Total)
	s.Similarity = Similarity(changed, leftSize, rightSize)
	return s
}

// Similarity returns the clamped similarity percentage.
func Similarity(changed, leftSize, rightSize uint) float64 {
	units := max(leftSize, rightSize)
	if units == 0 {
		return 100
	}
	if changed >= units {
		return 0
	}
	return 100 * float64(units-changed) / float64(units)
}

// LineCount counts lines in raw source text; a trailing newline does not
// start a new line. Empty content has zero lines.
func LineCount(content string) uint {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	lines, err := safecast.Conv[uint](n)
	if err != nil {
		return 0
	}
	return lines
}
