// Package value defines the format-agnostic tree that parsers produce and the
// diff engine consumes. A Value is one of Null, Bool, Number, String,
// Sequence or *Mapping; a nil Value means "absent" (the key or index does
// not exist on that side).
package value

import (
	"math"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindAbsent Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

var kindNames = map[Kind]string{
	KindAbsent:   "absent",
	KindNull:     "null",
	KindBool:     "bool",
	KindNumber:   "number",
	KindString:   "string",
	KindSequence: "sequence",
	KindMapping:  "mapping",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Value is the closed sum type of config tree nodes. Only types in this
// package implement it.
type Value interface {
	Kind() Kind
	sealed()
}

// Null is an explicit null.
type Null struct{}

// Bool is a boolean leaf.
type Bool bool

// Number is a numeric leaf. Every parsed number is stored as float64.
type Number float64

// String is a string leaf.
type String string

// Sequence is an ordered list of values.
type Sequence []Value

func (Null) Kind() Kind     { return KindNull }
func (Bool) Kind() Kind     { return KindBool }
func (Number) Kind() Kind   { return KindNumber }
func (String) Kind() Kind   { return KindString }
func (Sequence) Kind() Kind { return KindSequence }

func (Null) sealed()     {}
func (Bool) sealed()     {}
func (Number) sealed()   {}
func (String) sealed()   {}
func (Sequence) sealed() {}

// KindOf returns the kind of v, or KindAbsent for nil.
func KindOf(v Value) Kind {
	if v == nil {
		return KindAbsent
	}
	if m, ok := v.(*Mapping); ok && m == nil {
		return KindAbsent
	}
	return v.Kind()
}

// IsComposite reports whether v is a Sequence or a Mapping.
func IsComposite(v Value) bool {
	k := KindOf(v)
	return k == KindSequence || k == KindMapping
}

// Equal reports deep structural equality. Mapping key order is ignored,
// sequence order is not. NaN equals NaN so that a tree always equals itself.
func Equal(a, b Value) bool {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		return false
	}
	switch ka {
	case KindAbsent, KindNull:
		return true
	case KindBool:
		return a.(Bool) == b.(Bool)
	case KindNumber:
		x, y := float64(a.(Number)), float64(b.(Number))
		return x == y || (math.IsNaN(x) && math.IsNaN(y))
	case KindString:
		return a.(String) == b.(String)
	case KindSequence:
		sa, sb := a.(Sequence), b.(Sequence)
		if len(sa) != len(sb) {
			return false
		}
		for i := range sa {
			if !Equal(sa[i], sb[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		ma, mb := a.(*Mapping), b.(*Mapping)
		if ma.Len() != mb.Len() {
			return false
		}
		for _, k := range ma.Keys() {
			bv, ok := mb.Get(k)
			if !ok {
				return false
			}
			av, _ := ma.Get(k)
			if !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}

// Scalar returns the textual form of a scalar leaf and whether v is one.
// Null, absent and composite values are not scalars.
func Scalar(v Value) (string, bool) {
	switch x := v.(type) {
	case Bool:
		return strconv.FormatBool(bool(x)), true
	case Number:
		return FormatNumber(float64(x)), true
	case String:
		return string(x), true
	}
	return "", false
}

// FormatNumber renders integral floats without a fractional part.
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Render returns a compact, JSON-like rendering of v for display.
func Render(v Value) string {
	var sb strings.Builder
	render(&sb, v)
	return sb.String()
}

func render(sb *strings.Builder, v Value) {
	switch x := v.(type) {
	case nil:
		sb.WriteString("<absent>")
	case Null:
		sb.WriteString("null")
	case Bool, Number:
		s, _ := Scalar(x)
		sb.WriteString(s)
	case String:
		sb.WriteString(strconv.Quote(string(x)))
	case Sequence:
		sb.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				sb.WriteByte(',')
			}
			render(sb, e)
		}
		sb.WriteByte(']')
	case *Mapping:
		if x == nil {
			sb.WriteString("<absent>")
			return
		}
		sb.WriteByte('{')
		for i, k := range x.Keys() {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(k))
			sb.WriteByte(':')
			e, _ := x.Get(k)
			render(sb, e)
		}
		sb.WriteByte('}')
	}
}

// Interface converts v into plain Go values (nil, bool, float64, string,
// []any, map[string]any) for encoders.
func Interface(v Value) any {
	switch x := v.(type) {
	case Bool:
		return bool(x)
	case Number:
		return float64(x)
	case String:
		return string(x)
	case Sequence:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Interface(e)
		}
		return out
	case *Mapping:
		if x == nil {
			return nil
		}
		out := make(map[string]any, x.Len())
		for _, k := range x.Keys() {
			e, _ := x.Get(k)
			out[k] = Interface(e)
		}
		return out
	}
	return nil
}
