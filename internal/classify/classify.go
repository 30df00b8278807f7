// Package classify assigns a severity and a category to each change using
// static path heuristics. The rule tables are plain data so the policy can
// be tested on its own.
package classify

import (
	"math"
	"regexp"
	"strings"

	"github.com/TsekNet/confdiff/internal/diff"
	"github.com/TsekNet/confdiff/internal/value"
)

// Large value changes: absolute length delta above largeDelta characters or
// relative delta above largeRatio of the mean length.
const (
	largeDelta = 50
	largeRatio = 0.5
)

// Rule tags paths matching Pattern. Patterns run against the lower-cased path.
type Rule struct {
	Pattern *regexp.Regexp
	Tag     string
}

func rules(tag string, patterns ...string) []Rule {
	out := make([]Rule, len(patterns))
	for i, p := range patterns {
		out[i] = Rule{Pattern: regexp.MustCompile(p), Tag: tag}
	}
	return out
}

// CriticalRules flag credentials and network identity.
var CriticalRules = append(
	rules("credential",
		`password`, `passwd`, `secret`, `token`, `key`, `credential`, `auth`,
		`ssl`, `tls`, `cert`,
	),
	rules("network",
		`(^|\.)port$`, `host$`, `url$`, `endpoint$`,
		`(^|\.)database\..*\.host$`, `(^|\.)server\..*\.port$`, `(^|\.)api\..*\.endpoint$`,
		`(kafka|rabbitmq|amqp|broker|queue|redis|memcached?|zookeeper|etcd|consul)\..*(host|port)`,
	)...,
)

// SecurityRules flag security-adjacent settings.
var SecurityRules = rules("security",
	`cors`, `csrf`, `xsrf`, `permission`, `role`, `session`, `cookie`, `jwt`,
	`oauth`, `saml`, `firewall`, `allow_?list`, `deny_?list`, `whitelist`,
	`blacklist`, `(^|\.)acls?`, `encrypt`, `cipher`, `allowed_origins`,
)

// PerformanceRules flag tuning knobs.
var PerformanceRules = rules("performance",
	`cache`, `timeout`, `pool`, `connection`, `thread`, `limit`, `throttle`,
	`rate`, `buffer`, `retry`, `retries`, `circuit_?breaker`, `backoff`,
	`concurrency`, `worker`, `max_?conn`, `keepalive`, `batch`,
)

// CategoryRules map paths to categories; the first match wins.
var CategoryRules = append(append(
	rules(string(diff.Security),
		`password`, `secret`, `token`, `key`, `credential`, `auth`, `ssl`, `tls`, `cert`,
	),
	rules(string(diff.Performance),
		`cache`, `timeout`, `pool`, `connection`, `thread`, `memory`, `cpu`,
		`limit`, `throttle`, `rate`,
	)...),
	rules(string(diff.Configuration),
		`config`, `setting`, `option`, `preference`, `param`,
	)...,
)

func firstMatch(table []Rule, path string) (Rule, bool) {
	for _, r := range table {
		if r.Pattern.MatchString(path) {
			return r, true
		}
	}
	return Rule{}, false
}

// Classify returns the severity and category of c. It depends only on the
// path, the value types and the value lengths, so swapping the sides of a
// comparison yields the same result.
func Classify(c diff.Change) (diff.Severity, diff.Category) {
	path := strings.ToLower(c.Path)
	return severity(c, path), category(path)
}

// Apply classifies every change in place.
func Apply(changes []diff.Change) {
	for i := range changes {
		changes[i].Severity, changes[i].Category = Classify(changes[i])
	}
}

func severity(c diff.Change, path string) diff.Severity {
	if _, ok := firstMatch(CriticalRules, path); ok {
		return diff.Critical
	}
	if _, ok := firstMatch(SecurityRules, path); ok {
		return diff.Major
	}
	if _, ok := firstMatch(PerformanceRules, path); ok {
		return diff.Major
	}
	if c.OldType != c.NewType {
		return diff.Major
	}
	if LargeValueChange(c.OldValue, c.NewValue) {
		return diff.Minor
	}
	return diff.Cosmetic
}

func category(path string) diff.Category {
	if r, ok := firstMatch(CategoryRules, path); ok {
		return diff.Category(r.Tag)
	}
	return diff.Structure
}

// LargeValueChange reports whether two scalar values differ in length by
// more than 50 characters or by more than half their mean length. Null
// counts as the text "null".
func LargeValueChange(before, after value.Value) bool {
	a, ok := scalarText(before)
	if !ok {
		return false
	}
	b, ok := scalarText(after)
	if !ok {
		return false
	}
	la, lb := float64(len([]rune(a))), float64(len([]rune(b)))
	delta := math.Abs(la - lb)
	if delta > largeDelta {
		return true
	}
	avg := (la + lb) / 2
	if avg == 0 {
		return false
	}
	return delta/avg > largeRatio
}

func scalarText(v value.Value) (string, bool) {
	if _, ok := v.(value.Null); ok {
		return "null", true
	}
	return value.Scalar(v)
}
