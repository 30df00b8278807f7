// Package pathmatch matches dot-delimited tree paths against exact, glob and
// regex rules.
//
// Glob syntax: "*" matches any run of characters except ".", "**" matches
// anything including ".", "?" matches exactly one character. Every other
// character, including ".", is literal. Patterns are anchored at both ends.
//
// Invalid regexes never match; they do not fail the comparison.
package pathmatch

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind selects how a rule's pattern is interpreted.
type Kind string

const (
	Exact Kind = "exact"
	Glob  Kind = "glob"
	Regex Kind = "regex"
)

// Action says what the engine does with a matching path. Only Ignore is
// acted on; Semantic and Strict are accepted and kept for future use.
type Action string

const (
	Ignore   Action = "ignore"
	Semantic Action = "semantic"
	Strict   Action = "strict"
)

// Rule is a pattern plus the action applied to paths it matches.
type Rule struct {
	Pattern string `json:"pattern"`
	Kind    Kind   `json:"kind"`
	Action  Action `json:"action"`
}

// Matches reports whether path matches rule. Unknown kinds and invalid
// patterns report false.
func Matches(path string, rule Rule) bool {
	if rule.Kind == Exact {
		return path == rule.Pattern
	}
	re, err := compile(rule)
	if err != nil {
		return false
	}
	return re.MatchString(path)
}

// compile turns a glob or regex rule into a regexp.
func compile(rule Rule) (*regexp.Regexp, error) {
	switch rule.Kind {
	case Glob:
		return regexp.Compile(GlobToRegex(rule.Pattern))
	case Regex:
		return regexp.Compile(rule.Pattern)
	case Exact:
		return regexp.Compile("^" + regexp.QuoteMeta(rule.Pattern) + "$")
	default:
		return nil, fmt.Errorf("unknown rule kind %q", rule.Kind)
	}
}

// GlobToRegex translates a path glob into an anchored regular expression.
func GlobToRegex(glob string) string {
	var sb strings.Builder
	sb.WriteByte('^')
	for i := 0; i < len(glob); i++ {
		switch c := glob[i]; c {
		case '*':
			if i+1 < len(glob) && glob[i+1] == '*' {
				sb.WriteString(".*")
				i++
			} else {
				sb.WriteString(`[^.]*`)
			}
		case '?':
			sb.WriteByte('.')
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	sb.WriteByte('$')
	return sb.String()
}

// Validate returns one error per rule whose kind, action or pattern is
// unusable. The engine skips such rules; callers can surface the errors as
// warnings.
func Validate(rules []Rule) []error {
	var errs []error
	for i, r := range rules {
		switch r.Action {
		case Ignore, Semantic, Strict:
		default:
			errs = append(errs, fmt.Errorf("path rule %d (%q): unknown action %q", i, r.Pattern, r.Action))
		}
		if _, err := compile(r); err != nil {
			errs = append(errs, fmt.Errorf("path rule %d (%q): %w", i, r.Pattern, err))
		}
	}
	return errs
}

// Set is a precompiled list of rules. Build it once per comparison.
type Set struct {
	compiled []compiledRule
}

type compiledRule struct {
	rule Rule
	re   *regexp.Regexp // nil for exact rules
}

// NewSet compiles rules, dropping the ones that fail to compile.
func NewSet(rules []Rule) *Set {
	s := &Set{compiled: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		if r.Kind == Exact {
			s.compiled = append(s.compiled, compiledRule{rule: r})
			continue
		}
		re, err := compile(r)
		if err != nil {
			continue
		}
		s.compiled = append(s.compiled, compiledRule{rule: r, re: re})
	}
	return s
}

// Match returns the first rule with the given action that matches path.
func (s *Set) Match(path string, action Action) (Rule, bool) {
	if s == nil {
		return Rule{}, false
	}
	for _, c := range s.compiled {
		if c.rule.Action != action {
			continue
		}
		if c.re == nil {
			if path == c.rule.Pattern {
				return c.rule, true
			}
			continue
		}
		if c.re.MatchString(path) {
			return c.rule, true
		}
	}
	return Rule{}, false
}

// Ignored reports whether an Ignore rule matches path.
func (s *Set) Ignored(path string) bool {
	_, ok := s.Match(path, Ignore)
	return ok
}
