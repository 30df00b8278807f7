// Package semantic decides whether two differently represented values mean
// the same thing: "yes" and true, "8080" and 8080, or two strings that differ
// only in case or whitespace.
package semantic

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/TsekNet/confdiff/internal/value"
)

// wsRE collapses runs of whitespace (spaces, tabs, newlines) into a single space.
var wsRE = regexp.MustCompile(`\s+`)

var (
	truthy = map[string]bool{"true": true, "yes": true, "on": true, "1": true, "enabled": true}
	falsy  = map[string]bool{"false": true, "no": true, "off": true, "0": true, "disabled": true}
)

// Comparator holds the string options that affect equivalence. It is not
// safe for concurrent use; create one per comparison.
type Comparator struct {
	caseSensitive    bool
	ignoreWhitespace bool
	fold             cases.Caser
}

// New returns a Comparator.
func New(caseSensitive, ignoreWhitespace bool) *Comparator {
	return &Comparator{
		caseSensitive:    caseSensitive,
		ignoreWhitespace: ignoreWhitespace,
		fold:             cases.Fold(),
	}
}

// Equal applies the first matching rule:
//
//  1. both nullish (null, absent or "") are equal
//  2. both boolean-like compare as booleans
//  3. both numeric compare as numbers
//  4. both strings compare after optional case folding and whitespace collapsing
//  5. sequences compare pairwise in order
//  6. mappings compare key set and values
//
// Anything else is not equal.
func (c *Comparator) Equal(a, b value.Value) bool {
	if nullish(a) && nullish(b) {
		return true
	}
	if x, ok := AsBool(a); ok {
		if y, ok := AsBool(b); ok {
			return x == y
		}
	}
	if x, ok := AsNumber(a); ok {
		if y, ok := AsNumber(b); ok {
			return x == y
		}
	}

	switch x := a.(type) {
	case value.String:
		if y, ok := b.(value.String); ok {
			return c.normString(string(x)) == c.normString(string(y))
		}
	case value.Sequence:
		if y, ok := b.(value.Sequence); ok {
			if len(x) != len(y) {
				return false
			}
			for i := range x {
				if !c.Equal(x[i], y[i]) {
					return false
				}
			}
			return true
		}
	case *value.Mapping:
		if y, ok := b.(*value.Mapping); ok && x != nil && y != nil {
			if x.Len() != y.Len() {
				return false
			}
			for _, k := range x.Keys() {
				yv, ok := y.Get(k)
				if !ok {
					return false
				}
				xv, _ := x.Get(k)
				if !c.Equal(xv, yv) {
					return false
				}
			}
			return true
		}
	}
	return false
}

func (c *Comparator) normString(s string) string {
	if !c.caseSensitive {
		s = c.fold.String(norm.NFC.String(s))
	}
	if c.ignoreWhitespace {
		s = CollapseWhitespace(s)
	}
	return s
}

func nullish(v value.Value) bool {
	switch x := v.(type) {
	case nil, value.Null:
		return true
	case value.String:
		return x == ""
	case *value.Mapping:
		return x == nil
	}
	return false
}

// AsBool coerces bools, boolean token strings (case-insensitive) and the
// numbers 0 and 1.
func AsBool(v value.Value) (bool, bool) {
	switch x := v.(type) {
	case value.Bool:
		return bool(x), true
	case value.Number:
		switch float64(x) {
		case 1:
			return true, true
		case 0:
			return false, true
		}
	case value.String:
		s := strings.ToLower(strings.TrimSpace(string(x)))
		if truthy[s] {
			return true, true
		}
		if falsy[s] {
			return false, true
		}
	}
	return false, false
}

// AsNumber coerces numbers and numeric strings to a finite float64.
func AsNumber(v value.Value) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case value.Number:
		f = float64(x)
	case value.String:
		s := strings.TrimSpace(string(x))
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// CollapseWhitespace trims s and collapses internal whitespace runs to one space.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(wsRE.ReplaceAllString(s, " "))
}
