// Package config resolves comparison options.
// Priority: flags > env vars > config file (<dir>/.config/confdiff.json or ~/.config/confdiff.json).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/TsekNet/confdiff/internal/compare"
	"github.com/TsekNet/confdiff/internal/diff"
	"github.com/TsekNet/confdiff/internal/pathmatch"
	"github.com/TsekNet/confdiff/internal/transform"
)

const (
	EnvIgnoreKeys       = "CONFDIFF_IGNORE_KEYS"
	EnvCaseSensitive    = "CONFDIFF_CASE_SENSITIVE"
	EnvSemantic         = "CONFDIFF_SEMANTIC"
	EnvIgnoreWhitespace = "CONFDIFF_IGNORE_WHITESPACE"
	EnvSortKeys         = "CONFDIFF_SORT_KEYS"
	EnvFlattenKeys      = "CONFDIFF_FLATTEN_KEYS"
	EnvMaxDepth         = "CONFDIFF_MAX_DEPTH"
	// EnvContext selects a named context from the config file.
	EnvContext = "CONFDIFF_CONTEXT"

	// ConfigRelPath is the config file path relative to a root directory.
	ConfigRelPath = ".config/confdiff.json"
)

// Layer is one source of option values. Nil fields leave the value from
// lower-priority layers untouched.
type Layer struct {
	IgnoreKeys           []string                   `json:"ignore_keys"`
	CaseSensitive        *bool                      `json:"case_sensitive"`
	SortKeys             *bool                      `json:"sort_keys"`
	FlattenKeys          *bool                      `json:"flatten_keys"`
	SemanticComparison   *bool                      `json:"semantic_comparison"`
	IgnoreWhitespace     *bool                      `json:"ignore_whitespace"`
	PathRules            []pathmatch.Rule           `json:"path_rules"`
	ValueTransformations []transform.Transformation `json:"value_transformations"`
	ContextLines         *uint                      `json:"context_lines"`
	DiffMode             string                     `json:"diff_mode"`
	MaxDepth             *int                       `json:"max_depth"`
	ArrayAlignment       string                     `json:"array_alignment"`
}

// configFile supports both flat and contexts-based JSON formats:
//
//	Flat:     {"ignore_keys":["id"],"semantic_comparison":true}
//	Contexts: {"contexts":{"k8s":{...},"dotenv":{...}},"default_context":"k8s"}
//
// A selected context is applied on top of the flat options.
type configFile struct {
	Layer
	Contexts       map[string]Layer `json:"contexts"`
	DefaultContext string           `json:"default_context"`
}

// layer returns the effective file layer for the named context, or the
// default context when name is empty.
func (c configFile) layer(name string) (Layer, error) {
	explicit := name != ""
	if !explicit {
		name = c.DefaultContext
	}
	if name == "" {
		return c.Layer, nil
	}
	ctx, ok := c.Contexts[name]
	if !ok {
		if explicit {
			return Layer{}, fmt.Errorf("context %q not found in config file", name)
		}
		return c.Layer, nil
	}
	merged := c.Layer
	merged.apply(ctx)
	return merged, nil
}

// loadConfigFile reads .config/confdiff.json from the given directory. A
// missing file yields zero values and found == false.
func loadConfigFile(root string) (cfg configFile, found bool, err error) {
	path := filepath.Join(root, ConfigRelPath)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return configFile{}, false, nil
	}
	if err != nil {
		return configFile{}, false, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return configFile{}, false, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, true, nil
}

// findConfigFile checks root then $HOME for a config file.
func findConfigFile(root string) (configFile, error) {
	if root != "" {
		cfg, found, err := loadConfigFile(root)
		if err != nil || found {
			return cfg, err
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg, _, err := loadConfigFile(home)
		return cfg, err
	}
	return configFile{}, nil
}

// Resolve builds comparison options with priority: flags > env vars > config
// file > defaults. context names a config file context ("" uses
// $CONFDIFF_CONTEXT, then default_context). The config file is searched in
// root first, then $HOME.
func Resolve(flags Layer, context, root string) (compare.Options, error) {
	cfg, err := findConfigFile(root)
	if err != nil {
		return compare.Options{}, err
	}
	if context == "" {
		context = os.Getenv(EnvContext)
	}
	file, err := cfg.layer(context)
	if err != nil {
		return compare.Options{}, err
	}
	env, err := envLayer()
	if err != nil {
		return compare.Options{}, err
	}

	var merged Layer
	merged.apply(file)
	merged.apply(env)
	merged.apply(flags)
	return merged.options()
}

// apply overlays the set fields of o onto l.
func (l *Layer) apply(o Layer) {
	if o.IgnoreKeys != nil {
		l.IgnoreKeys = o.IgnoreKeys
	}
	if o.CaseSensitive != nil {
		l.CaseSensitive = o.CaseSensitive
	}
	if o.SortKeys != nil {
		l.SortKeys = o.SortKeys
	}
	if o.FlattenKeys != nil {
		l.FlattenKeys = o.FlattenKeys
	}
	if o.SemanticComparison != nil {
		l.SemanticComparison = o.SemanticComparison
	}
	if o.IgnoreWhitespace != nil {
		l.IgnoreWhitespace = o.IgnoreWhitespace
	}
	if o.PathRules != nil {
		l.PathRules = o.PathRules
	}
	if o.ValueTransformations != nil {
		l.ValueTransformations = o.ValueTransformations
	}
	if o.ContextLines != nil {
		l.ContextLines = o.ContextLines
	}
	if o.DiffMode != "" {
		l.DiffMode = o.DiffMode
	}
	if o.MaxDepth != nil {
		l.MaxDepth = o.MaxDepth
	}
	if o.ArrayAlignment != "" {
		l.ArrayAlignment = o.ArrayAlignment
	}
}

// options turns the merged layer into compare.Options on top of the
// defaults, validating the enumerated fields.
func (l Layer) options() (compare.Options, error) {
	opts := compare.DefaultOptions()
	opts.IgnoreKeys = l.IgnoreKeys
	opts.PathRules = l.PathRules
	opts.ValueTransformations = l.ValueTransformations
	setBool(&opts.CaseSensitive, l.CaseSensitive)
	setBool(&opts.SortKeys, l.SortKeys)
	setBool(&opts.FlattenKeys, l.FlattenKeys)
	setBool(&opts.SemanticComparison, l.SemanticComparison)
	setBool(&opts.IgnoreWhitespace, l.IgnoreWhitespace)
	if l.ContextLines != nil {
		opts.ContextLines = *l.ContextLines
	}
	if l.MaxDepth != nil {
		opts.MaxDepth = *l.MaxDepth
	}

	switch m := compare.Mode(l.DiffMode); m {
	case "":
	case compare.ModeTree, compare.ModeSideBySide, compare.ModeUnified:
		opts.DiffMode = m
	default:
		return compare.Options{}, fmt.Errorf("unknown diff mode %q (want tree, side-by-side or unified)", l.DiffMode)
	}

	switch a := diff.Alignment(l.ArrayAlignment); a {
	case "":
	case diff.Positional, diff.LCS:
		opts.ArrayAlignment = a
	default:
		return compare.Options{}, fmt.Errorf("unknown array alignment %q (want positional or lcs)", l.ArrayAlignment)
	}
	return opts, nil
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// envLayer reads the CONFDIFF_* variables. Unset or empty variables are
// skipped; malformed values are errors.
func envLayer() (Layer, error) {
	var l Layer
	if v := os.Getenv(EnvIgnoreKeys); v != "" {
		l.IgnoreKeys = SplitList(v)
	}
	for _, b := range []struct {
		name string
		dst  **bool
	}{
		{EnvCaseSensitive, &l.CaseSensitive},
		{EnvSemantic, &l.SemanticComparison},
		{EnvIgnoreWhitespace, &l.IgnoreWhitespace},
		{EnvSortKeys, &l.SortKeys},
		{EnvFlattenKeys, &l.FlattenKeys},
	} {
		v := os.Getenv(b.name)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return Layer{}, fmt.Errorf("$%s: invalid boolean %q", b.name, v)
		}
		*b.dst = &parsed
	}
	if v := os.Getenv(EnvMaxDepth); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Layer{}, fmt.Errorf("$%s: invalid integer %q", EnvMaxDepth, v)
		}
		l.MaxDepth = &n
	}
	return l, nil
}

// SplitList splits a comma-separated list, trimming blanks and dropping
// empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
