// Package normalize prepares a parsed tree for comparison: key case folding,
// key exclusion, key sorting and optional flattening into dot-joined keys.
// Every function here returns a new tree and leaves its input untouched.
package normalize

import (
	"strings"

	"github.com/TsekNet/confdiff/internal/value"
)

// Options controls Normalize.
type Options struct {
	IgnoreKeys    []string
	CaseSensitive bool
	SortKeys      bool
	FlattenKeys   bool
}

// Normalize applies the options to every mapping at every depth, including
// mappings nested in sequences.
func Normalize(v value.Value, opts Options) value.Value {
	ignore := make(map[string]bool, len(opts.IgnoreKeys))
	for _, k := range opts.IgnoreKeys {
		if !opts.CaseSensitive {
			k = strings.ToLower(k)
		}
		ignore[k] = true
	}

	out := normalize(v, opts, ignore)
	if opts.FlattenKeys {
		if m, ok := out.(*value.Mapping); ok {
			out = Flatten(m)
			if opts.SortKeys {
				out.(*value.Mapping).SortKeys()
			}
		}
	}
	return out
}

func normalize(v value.Value, opts Options, ignore map[string]bool) value.Value {
	switch x := v.(type) {
	case value.Sequence:
		seq := make(value.Sequence, len(x))
		for i, e := range x {
			seq[i] = normalize(e, opts, ignore)
		}
		return seq
	case *value.Mapping:
		if x == nil {
			return x
		}
		m := value.NewMapping(x.Len())
		for _, k := range x.Keys() {
			key := k
			if !opts.CaseSensitive {
				key = strings.ToLower(k)
			}
			if ignore[key] {
				continue
			}
			e, _ := x.Get(k)
			// Folded keys collide silently: the later key wins.
			m.Set(key, normalize(e, opts, ignore))
		}
		if opts.SortKeys {
			m.SortKeys()
		}
		return m
	}
	return v
}

// Flatten projects nested mappings into a single-level mapping keyed by
// dot-joined paths. Sequences and empty mappings are kept as leaf values so
// that Unflatten can rebuild the original tree.
func Flatten(m *value.Mapping) *value.Mapping {
	out := value.NewMapping(m.Len())
	flattenInto(out, m, "")
	return out
}

func flattenInto(out, m *value.Mapping, prefix string) {
	for _, k := range m.Keys() {
		full := k
		if prefix != "" {
			full = prefix + "." + k
		}
		e, _ := m.Get(k)
		if nested, ok := e.(*value.Mapping); ok && nested.Len() > 0 {
			flattenInto(out, nested, full)
			continue
		}
		out.Set(full, e)
	}
}

// Unflatten reverses Flatten by splitting keys on ".". It is an exact
// inverse only when no original key contained a dot.
func Unflatten(m *value.Mapping) *value.Mapping {
	out := value.NewMapping(m.Len())
	for _, k := range m.Keys() {
		e, _ := m.Get(k)
		parts := strings.Split(k, ".")
		cur := out
		for _, p := range parts[:len(parts)-1] {
			next, ok := cur.Get(p)
			child, isMap := next.(*value.Mapping)
			if !ok || !isMap {
				child = value.NewMapping(1)
				cur.Set(p, child)
			}
			cur = child
		}
		cur.Set(parts[len(parts)-1], e)
	}
	return out
}
