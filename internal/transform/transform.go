// Package transform rewrites string leaves with ordered regex replacement
// rules before they are compared.
package transform

import (
	"fmt"
	"regexp"

	"github.com/TsekNet/confdiff/internal/value"
)

// Transformation is one named regex rewrite. Replacement uses regexp
// expansion syntax ($1, ${name}).
type Transformation struct {
	Name        string `json:"name"`
	Pattern     string `json:"pattern"`
	Replacement string `json:"replacement"`
	Enabled     bool   `json:"enabled"`
}

// Pipeline is the compiled, enabled subset of a transformation list.
type Pipeline struct {
	steps []step
}

type step struct {
	re          *regexp.Regexp
	replacement string
}

// Compile keeps enabled transformations in order and skips those whose
// pattern does not compile.
func Compile(rules []Transformation) *Pipeline {
	p := &Pipeline{}
	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			continue
		}
		p.steps = append(p.steps, step{re: re, replacement: r.Replacement})
	}
	return p
}

// Empty reports whether the pipeline has nothing to apply.
func (p *Pipeline) Empty() bool {
	return p == nil || len(p.steps) == 0
}

// Apply returns v with every step applied if v is a String; any other value
// is returned unchanged.
func (p *Pipeline) Apply(v value.Value) value.Value {
	s, ok := v.(value.String)
	if !ok || p.Empty() {
		return v
	}
	out := string(s)
	for _, st := range p.steps {
		out = st.re.ReplaceAllString(out, st.replacement)
	}
	return value.String(out)
}

// Apply compiles rules and applies them to v.
func Apply(v value.Value, rules []Transformation) value.Value {
	return Compile(rules).Apply(v)
}

// Validate reports enabled transformations whose pattern does not compile.
func Validate(rules []Transformation) []error {
	var errs []error
	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		if _, err := regexp.Compile(r.Pattern); err != nil {
			errs = append(errs, fmt.Errorf("transformation %q: %w", r.Name, err))
		}
	}
	return errs
}
