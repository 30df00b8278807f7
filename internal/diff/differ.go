// Package diff computes a path-addressed change set between two normalized
// config trees. It walks both trees depth-first, prunes ignored paths,
// rewrites string leaves through the transformation pipeline and, when
// enabled, treats semantically equivalent values as unchanged.
package diff

import (
	"strconv"

	"github.com/TsekNet/confdiff/internal/pathmatch"
	"github.com/TsekNet/confdiff/internal/semantic"
	"github.com/TsekNet/confdiff/internal/transform"
	"github.com/TsekNet/confdiff/internal/value"
)

// DefaultMaxDepth bounds recursion when Options.MaxDepth is zero.
const DefaultMaxDepth = 256

// lcsCellLimit caps the LCS table size; larger sequences fall back to
// positional comparison.
const lcsCellLimit = 1 << 20

// Alignment selects how sequence elements are paired.
type Alignment string

const (
	// Positional pairs element i with element i. An insertion near the
	// front shows up as a run of changes plus a trailing addition.
	Positional Alignment = "positional"
	// LCS keeps the longest common subsequence of equal elements in place
	// and reports only the indexes outside it.
	LCS Alignment = "lcs"
)

// Options controls the engine.
type Options struct {
	Semantic         bool
	CaseSensitive    bool
	IgnoreWhitespace bool
	PathRules        []pathmatch.Rule
	Transformations  []transform.Transformation
	MaxDepth         int // 0 means DefaultMaxDepth, negative means unlimited
	ArrayAlignment   Alignment
}

// Engine holds the compiled rules for one comparison. It is not safe for
// concurrent use.
type Engine struct {
	semanticEnabled bool
	alignment       Alignment
	maxDepth        int
	rules           *pathmatch.Set
	pipeline        *transform.Pipeline
	comparator      *semantic.Comparator
}

// New compiles opts into an Engine. Invalid rule patterns are dropped.
func New(opts Options) *Engine {
	maxDepth := opts.MaxDepth
	if maxDepth == 0 {
		maxDepth = DefaultMaxDepth
	}
	alignment := opts.ArrayAlignment
	if alignment == "" {
		alignment = Positional
	}
	return &Engine{
		semanticEnabled: opts.Semantic,
		alignment:       alignment,
		maxDepth:        maxDepth,
		rules:           pathmatch.NewSet(opts.PathRules),
		pipeline:        transform.Compile(opts.Transformations),
		comparator:      semantic.New(opts.CaseSensitive, opts.IgnoreWhitespace),
	}
}

// Diff compares left and right with a fresh Engine.
func Diff(left, right value.Value, opts Options) ([]Change, error) {
	return New(opts).Diff(left, right)
}

// Diff returns the changes from left to right in traversal order. On error
// no changes are returned.
func (e *Engine) Diff(left, right value.Value) ([]Change, error) {
	w := &walker{Engine: e}
	if err := w.walk(left, right, "", 0); err != nil {
		return nil, err
	}
	return w.changes, nil
}

type walker struct {
	*Engine
	changes []Change
}

func (w *walker) walk(left, right value.Value, path string, depth int) error {
	if w.rules.Ignored(path) {
		return nil
	}
	if w.maxDepth > 0 && depth > w.maxDepth {
		return &DepthError{Path: path, Limit: w.maxDepth}
	}

	left = w.pipeline.Apply(left)
	right = w.pipeline.Apply(right)
	lk, rk := value.KindOf(left), value.KindOf(right)

	if w.semanticEnabled && lk != value.KindAbsent && rk != value.KindAbsent && w.comparator.Equal(left, right) {
		return nil
	}
	if value.Equal(left, right) {
		return nil
	}

	switch {
	case lk == value.KindAbsent:
		w.emit(Change{Path: path, Kind: Added, NewValue: right, OldType: lk, NewType: rk})
		return nil
	case rk == value.KindAbsent:
		w.emit(Change{Path: path, Kind: Removed, OldValue: left, OldType: lk, NewType: rk})
		return nil
	case !value.IsComposite(left) || !value.IsComposite(right):
		w.emit(Change{Path: path, Kind: Changed, OldValue: left, NewValue: right, OldType: lk, NewType: rk})
		return nil
	case lk == value.KindSequence || rk == value.KindSequence:
		return w.walkSequence(asSequence(left), asSequence(right), path, depth)
	default:
		return w.walkMapping(left.(*value.Mapping), right.(*value.Mapping), path, depth)
	}
}

func (w *walker) emit(c Change) {
	w.changes = append(w.changes, c)
}

func (w *walker) walkMapping(left, right *value.Mapping, path string, depth int) error {
	for _, k := range left.Keys() {
		lv, _ := left.Get(k)
		rv, _ := right.Get(k) // nil when missing: reported as Removed
		if err := w.walk(lv, rv, keyPath(path, k), depth+1); err != nil {
			return err
		}
	}
	for _, k := range right.Keys() {
		if left.Has(k) {
			continue
		}
		rv, _ := right.Get(k)
		if err := w.walk(nil, rv, keyPath(path, k), depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) walkSequence(left, right value.Sequence, path string, depth int) error {
	if w.alignment == LCS && len(left)*len(right) <= lcsCellLimit {
		return w.walkAligned(left, right, path, depth)
	}
	n := max(len(left), len(right))
	for i := 0; i < n; i++ {
		if err := w.walk(at(left, i), at(right, i), indexPath(path, i), depth+1); err != nil {
			return err
		}
	}
	return nil
}

// walkAligned matches equal elements by longest common subsequence. Every
// index outside the match is reported once: as a change when the index lost
// one element and gained another, otherwise as a removal (left index) or an
// addition (right index).
func (w *walker) walkAligned(left, right value.Sequence, path string, depth int) error {
	removed, added := w.unmatched(left, right)
	n := max(len(left), len(right))
	for i := 0; i < n; i++ {
		var l, r value.Value
		if removed[i] {
			l = left[i]
		}
		if added[i] {
			r = right[i]
		}
		if l == nil && r == nil {
			continue
		}
		if err := w.walk(l, r, indexPath(path, i), depth+1); err != nil {
			return err
		}
	}
	return nil
}

// unmatched returns the left indexes and right indexes that are not part of
// the longest common subsequence.
func (w *walker) unmatched(left, right value.Sequence) (map[int]bool, map[int]bool) {
	n, m := len(left), len(right)
	// lcs[i][j] is the LCS length of left[i:] and right[j:].
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if w.same(left[i], right[j]) {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	removed := make(map[int]bool)
	added := make(map[int]bool)
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case w.same(left[i], right[j]):
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			removed[i] = true
			i++
		default:
			added[j] = true
			j++
		}
	}
	for ; i < n; i++ {
		removed[i] = true
	}
	for ; j < m; j++ {
		added[j] = true
	}
	return removed, added
}

// same is the element equality used for alignment: transformed, then
// semantic when enabled, else structural.
func (w *walker) same(a, b value.Value) bool {
	a, b = w.pipeline.Apply(a), w.pipeline.Apply(b)
	if w.semanticEnabled && w.comparator.Equal(a, b) {
		return true
	}
	return value.Equal(a, b)
}

func asSequence(v value.Value) value.Sequence {
	if s, ok := v.(value.Sequence); ok {
		return s
	}
	return nil
}

func at(s value.Sequence, i int) value.Value {
	if i < len(s) {
		return s[i]
	}
	return nil
}

func keyPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func indexPath(parent string, i int) string {
	return parent + "[" + strconv.Itoa(i) + "]"
}
