package diff

import (
	"errors"
	"strings"
	"testing"

	"github.com/TsekNet/confdiff/internal/pathmatch"
	"github.com/TsekNet/confdiff/internal/transform"
	"github.com/TsekNet/confdiff/internal/value"
)

// summarize renders changes as "path kind" pairs for compact assertions.
func summarize(changes []Change) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.Path + " " + string(c.Kind)
	}
	return out
}

func mustDiff(t *testing.T, left, right value.Value, opts Options) []Change {
	t.Helper()
	changes, err := Diff(left, right, opts)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	SortByPath(changes)
	return changes
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name  string
		left  value.Value
		right value.Value
		opts  Options
		want  []string
	}{
		{
			name:  "identical trees",
			left:  value.MappingOf("a", 1, "b", []any{1, 2}),
			right: value.MappingOf("b", []any{1, 2}, "a", 1),
			want:  []string{},
		},
		{
			name:  "changed and added keys",
			left:  value.MappingOf("a", 1, "b", 2),
			right: value.MappingOf("a", 1, "b", 3, "c", 4),
			want:  []string{"b changed", "c added"},
		},
		{
			name:  "removed nested key",
			left:  value.MappingOf("db", value.MappingOf("host", "x", "port", 5432)),
			right: value.MappingOf("db", value.MappingOf("host", "x")),
			want:  []string{"db.port removed"},
		},
		{
			name:  "added subtree is one change",
			left:  value.MappingOf("a", 1),
			right: value.MappingOf("a", 1, "cache", value.MappingOf("ttl", 5, "size", 10)),
			want:  []string{"cache added"},
		},
		{
			name:  "positional array diff",
			left:  value.MappingOf("arr", []any{1, 2, 3}),
			right: value.MappingOf("arr", []any{1, 5, 3, 9}),
			want:  []string{"arr[1] changed", "arr[3] added"},
		},
		{
			name:  "front insertion cascades positionally",
			left:  value.MappingOf("arr", []any{1, 2, 3}),
			right: value.MappingOf("arr", []any{0, 1, 2, 3}),
			want:  []string{"arr[0] changed", "arr[1] changed", "arr[2] changed", "arr[3] added"},
		},
		{
			name:  "front insertion with lcs alignment",
			left:  value.MappingOf("arr", []any{1, 2, 3}),
			right: value.MappingOf("arr", []any{0, 1, 2, 3}),
			opts:  Options{ArrayAlignment: LCS},
			want:  []string{"arr[0] added"},
		},
		{
			name:  "lcs reports shared index once",
			left:  value.MappingOf("arr", []any{"a", "x", "b"}),
			right: value.MappingOf("arr", []any{"b", "y"}),
			opts:  Options{ArrayAlignment: LCS},
			want:  []string{"arr[0] removed", "arr[1] changed"},
		},
		{
			name:  "array elements recurse into mappings",
			left:  value.MappingOf("servers", []any{map[string]any{"host": "a", "port": 1}}),
			right: value.MappingOf("servers", []any{map[string]any{"host": "b", "port": 1}}),
			want:  []string{"servers[0].host changed"},
		},
		{
			name:  "scalar replaced by mapping",
			left:  value.MappingOf("log", "info"),
			right: value.MappingOf("log", value.MappingOf("level", "info")),
			want:  []string{"log changed"},
		},
		{
			name:  "mapping replaced by sequence treats mapping as empty",
			left:  value.MappingOf("x", value.MappingOf("k", 1)),
			right: value.MappingOf("x", []any{"a"}),
			want:  []string{"x[0] added"},
		},
		{
			name:  "scalar roots",
			left:  value.String("a"),
			right: value.String("b"),
			want:  []string{" changed"},
		},
		{
			name:  "sequence roots",
			left:  value.Sequence{value.Number(1)},
			right: value.Sequence{},
			want:  []string{"[0] removed"},
		},
		{
			name:  "semantic comparison hides equivalent values",
			left:  value.MappingOf("flag", "true", "port", "80", "name", "Svc"),
			right: value.MappingOf("flag", true, "port", 80, "name", "svc"),
			opts:  Options{Semantic: true},
			want:  []string{},
		},
		{
			name:  "semantic comparison respects case sensitivity",
			left:  value.MappingOf("name", "Svc"),
			right: value.MappingOf("name", "svc"),
			opts:  Options{Semantic: true, CaseSensitive: true},
			want:  []string{"name changed"},
		},
		{
			name:  "semantic comparison never hides an added null",
			left:  value.MappingOf("a", 1),
			right: value.MappingOf("a", 1, "b", nil),
			opts:  Options{Semantic: true},
			want:  []string{"b added"},
		},
		{
			name:  "transformations applied before comparing",
			left:  value.MappingOf("image", "app:v1.2.3"),
			right: value.MappingOf("image", "app:v1.4.0"),
			opts: Options{Transformations: []transform.Transformation{
				{Name: "versions", Pattern: `v\d+\.\d+\.\d+`, Replacement: "v*", Enabled: true},
			}},
			want: []string{},
		},
		{
			name:  "ignore rule prunes subtree",
			left:  value.MappingOf("meta", value.MappingOf("built", "mon", "by", "ci"), "a", 1),
			right: value.MappingOf("meta", value.MappingOf("built", "tue"), "a", 2),
			opts: Options{PathRules: []pathmatch.Rule{
				{Pattern: "meta", Kind: pathmatch.Exact, Action: pathmatch.Ignore},
			}},
			want: []string{"a changed"},
		},
		{
			name:  "ignore rule applies to added keys",
			left:  value.MappingOf("a", 1),
			right: value.MappingOf("a", 1, "generated_at", "now"),
			opts: Options{PathRules: []pathmatch.Rule{
				{Pattern: "*_at", Kind: pathmatch.Glob, Action: pathmatch.Ignore},
			}},
			want: []string{},
		},
		{
			name:  "ignore rule on array elements",
			left:  value.MappingOf("arr", []any{1, 2}),
			right: value.MappingOf("arr", []any{3, 4}),
			opts: Options{PathRules: []pathmatch.Rule{
				{Pattern: `^arr\[0\]$`, Kind: pathmatch.Regex, Action: pathmatch.Ignore},
			}},
			want: []string{"arr[1] changed"},
		},
		{
			name:  "non-ignore actions are not consulted",
			left:  value.MappingOf("a", 1),
			right: value.MappingOf("a", 2),
			opts: Options{PathRules: []pathmatch.Rule{
				{Pattern: "a", Kind: pathmatch.Exact, Action: pathmatch.Strict},
				{Pattern: "a", Kind: pathmatch.Exact, Action: pathmatch.Semantic},
			}},
			want: []string{"a changed"},
		},
		{
			name:  "invalid rule patterns are skipped",
			left:  value.MappingOf("a", "x"),
			right: value.MappingOf("a", "y"),
			opts: Options{
				PathRules:       []pathmatch.Rule{{Pattern: "(", Kind: pathmatch.Regex, Action: pathmatch.Ignore}},
				Transformations: []transform.Transformation{{Pattern: "(", Enabled: true}},
			},
			want: []string{"a changed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := summarize(mustDiff(t, tt.left, tt.right, tt.opts))
			if strings.Join(got, ", ") != strings.Join(tt.want, ", ") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiffChangeValues(t *testing.T) {
	changes := mustDiff(t,
		value.MappingOf("flag", "true", "gone", 1),
		value.MappingOf("flag", true, "new", "x"),
		Options{},
	)
	if len(changes) != 3 {
		t.Fatalf("expected 3 changes, got %v", summarize(changes))
	}

	flag := changes[0]
	if flag.Path != "flag" || flag.Kind != Changed {
		t.Fatalf("first change: %+v", flag)
	}
	if flag.OldType != value.KindString || flag.NewType != value.KindBool {
		t.Errorf("types: got %s -> %s", flag.OldType, flag.NewType)
	}
	if !value.Equal(flag.OldValue, value.String("true")) || !value.Equal(flag.NewValue, value.Bool(true)) {
		t.Errorf("values: got %s -> %s", value.Render(flag.OldValue), value.Render(flag.NewValue))
	}

	gone := changes[1]
	if gone.Kind != Removed || gone.NewValue != nil || gone.NewType != value.KindAbsent {
		t.Errorf("removed change: %+v", gone)
	}
	added := changes[2]
	if added.Kind != Added || added.OldValue != nil || added.OldType != value.KindAbsent {
		t.Errorf("added change: %+v", added)
	}
}

func TestDiffDepthLimit(t *testing.T) {
	deep := func(n int, leaf any) value.Value {
		v := value.From(leaf)
		for i := 0; i < n; i++ {
			v = value.MappingOf("n", v)
		}
		return v
	}

	_, err := Diff(deep(10, 1), deep(10, 2), Options{MaxDepth: 5})
	if !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("expected ErrDepthExceeded, got %v", err)
	}
	var de *DepthError
	if !errors.As(err, &de) || de.Limit != 5 || de.Path != "n.n.n.n.n.n" {
		t.Errorf("depth error: %+v", de)
	}

	changes, err := Diff(deep(10, 1), deep(10, 2), Options{MaxDepth: -1})
	if err != nil || len(changes) != 1 {
		t.Errorf("unlimited depth: %v, %v", summarize(changes), err)
	}

	// An ignored deep subtree is pruned before the limit is checked.
	rules := []pathmatch.Rule{{Pattern: "n.n.n", Kind: pathmatch.Exact, Action: pathmatch.Ignore}}
	if _, err := Diff(deep(10, 1), deep(10, 2), Options{MaxDepth: 5, PathRules: rules}); err != nil {
		t.Errorf("ignored subtree should not hit the limit: %v", err)
	}
}

func TestDiffSymmetry(t *testing.T) {
	left := value.MappingOf("a", 1, "b", []any{1, 2, 3}, "c", value.MappingOf("d", "x"))
	right := value.MappingOf("a", 2, "b", []any{1}, "e", true)

	forward := mustDiff(t, left, right, Options{})
	backward := mustDiff(t, right, left, Options{})

	if len(forward) != len(backward) {
		t.Fatalf("lengths differ: %v vs %v", summarize(forward), summarize(backward))
	}
	swap := map[Kind]Kind{Added: Removed, Removed: Added, Changed: Changed}
	for i := range forward {
		f, b := forward[i], backward[i]
		if f.Path != b.Path || swap[f.Kind] != b.Kind {
			t.Errorf("entry %d: %s %s vs %s %s", i, f.Path, f.Kind, b.Path, b.Kind)
		}
		if !value.Equal(f.OldValue, b.NewValue) || !value.Equal(f.NewValue, b.OldValue) {
			t.Errorf("entry %d: values not swapped", i)
		}
	}
}

func TestSortByPath(t *testing.T) {
	changes := []Change{{Path: "b"}, {Path: "a.z"}, {Path: "a"}, {Path: "arr[10]"}, {Path: "arr[2]"}}
	SortByPath(changes)
	want := "a a.z arr[10] arr[2] b"
	var got []string
	for _, c := range changes {
		got = append(got, c.Path)
	}
	if strings.Join(got, " ") != want {
		t.Errorf("got %v, want %s", got, want)
	}
}

func TestParseSeverity(t *testing.T) {
	if s, err := ParseSeverity("major"); err != nil || s != Major {
		t.Errorf("ParseSeverity(major) = %q, %v", s, err)
	}
	if _, err := ParseSeverity("huge"); err == nil {
		t.Error("expected error for unknown severity")
	}
	if Critical.Rank() <= Major.Rank() || Minor.Rank() <= Cosmetic.Rank() {
		t.Error("severity ranks out of order")
	}
}
