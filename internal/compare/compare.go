// Package compare is the entry point of the engine: it normalizes two parsed
// config files, diffs them, classifies every change and aggregates the
// result. A comparison either returns a complete Result or an error; it
// never returns a partial change list.
package compare

import (
	"time"

	"github.com/TsekNet/confdiff/internal/classify"
	"github.com/TsekNet/confdiff/internal/diff"
	"github.com/TsekNet/confdiff/internal/normalize"
	"github.com/TsekNet/confdiff/internal/pathmatch"
	"github.com/TsekNet/confdiff/internal/stats"
	"github.com/TsekNet/confdiff/internal/transform"
	"github.com/TsekNet/confdiff/internal/value"
)

// ConfigFile is one parsed input.
type ConfigFile struct {
	Name    string
	Content string // raw source, used for size statistics
	Format  string
	Parsed  value.Value
}

// Mode selects how downstream renderers present a result. It does not change
// engine behavior.
type Mode string

const (
	ModeTree       Mode = "tree"
	ModeSideBySide Mode = "side-by-side"
	ModeUnified    Mode = "unified"
)

// Options is the full set of recognized comparison options.
type Options struct {
	IgnoreKeys           []string                   `json:"ignore_keys,omitempty"`
	CaseSensitive        bool                       `json:"case_sensitive"`
	SortKeys             bool                       `json:"sort_keys"`
	FlattenKeys          bool                       `json:"flatten_keys"`
	SemanticComparison   bool                       `json:"semantic_comparison"`
	IgnoreWhitespace     bool                       `json:"ignore_whitespace"`
	PathRules            []pathmatch.Rule           `json:"path_rules,omitempty"`
	ValueTransformations []transform.Transformation `json:"value_transformations,omitempty"`
	ContextLines         uint                       `json:"context_lines"` // read by unified renderers only
	DiffMode             Mode                       `json:"diff_mode"`
	MaxDepth             int                        `json:"max_depth,omitempty"`
	ArrayAlignment       diff.Alignment             `json:"array_alignment,omitempty"`
}

// DefaultOptions mirrors the defaults of the original tool: case-sensitive,
// structural comparison with three context lines in tree mode.
func DefaultOptions() Options {
	return Options{
		CaseSensitive:  true,
		ContextLines:   3,
		DiffMode:       ModeTree,
		ArrayAlignment: diff.Positional,
	}
}

// Metadata describes how a result was produced.
type Metadata struct {
	Duration  time.Duration
	Algorithm string
	Options   Options
}

// ComparisonTimeMs returns the comparison duration in milliseconds.
func (m Metadata) ComparisonTimeMs() float64 {
	return float64(m.Duration) / float64(time.Millisecond)
}

// Result is the outcome of one comparison. Changes are sorted by path.
type Result struct {
	Left     string
	Right    string
	Changes  []diff.Change
	Stats    stats.Stats
	Metadata Metadata
}

// Summary is shorthand for r.Stats.Summary.
func (r *Result) Summary() stats.Summary {
	return r.Stats.Summary
}

// HasChanges reports whether any difference was found.
func (r *Result) HasChanges() bool {
	return len(r.Changes) > 0
}

// Compare runs the full pipeline on left and right. The only error it
// returns is a *diff.DepthError.
func Compare(left, right ConfigFile, opts Options) (*Result, error) {
	start := time.Now()

	normOpts := normalize.Options{
		IgnoreKeys:    opts.IgnoreKeys,
		CaseSensitive: opts.CaseSensitive,
		SortKeys:      opts.SortKeys,
		FlattenKeys:   opts.FlattenKeys,
	}
	l := normalize.Normalize(left.Parsed, normOpts)
	r := normalize.Normalize(right.Parsed, normOpts)

	changes, err := diff.Diff(l, r, engineOptions(opts))
	if err != nil {
		return nil, err
	}
	if changes == nil {
		changes = []diff.Change{}
	}

	classify.Apply(changes)
	diff.SortByPath(changes)

	return &Result{
		Left:    left.Name,
		Right:   right.Name,
		Changes: changes,
		Stats:   stats.Aggregate(changes, stats.LineCount(left.Content), stats.LineCount(right.Content)),
		Metadata: Metadata{
			Duration:  time.Since(start),
			Algorithm: Algorithm(opts),
			Options:   opts,
		},
	}, nil
}

func engineOptions(opts Options) diff.Options {
	return diff.Options{
		Semantic:         opts.SemanticComparison,
		CaseSensitive:    opts.CaseSensitive,
		IgnoreWhitespace: opts.IgnoreWhitespace,
		PathRules:        opts.PathRules,
		Transformations:  opts.ValueTransformations,
		MaxDepth:         opts.MaxDepth,
		ArrayAlignment:   opts.ArrayAlignment,
	}
}

// Algorithm names the comparison strategy recorded in result metadata.
func Algorithm(opts Options) string {
	if opts.ArrayAlignment == diff.LCS {
		return "structural/" + string(diff.LCS)
	}
	return "structural/" + string(diff.Positional)
}
