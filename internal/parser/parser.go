// Package parser turns config files into the format-agnostic value tree the
// comparison engine works on. Each supported format has its own adapter;
// the format is detected from the file name unless the caller forces one.
package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/TsekNet/confdiff/internal/compare"
	"github.com/TsekNet/confdiff/internal/value"
)

// Format identifies a config file syntax.
type Format string

const (
	JSON       Format = "json"
	YAML       Format = "yaml"
	TOML       Format = "toml"
	Env        Format = "env"
	Properties Format = "properties"
	INI        Format = "ini"
)

type decodeFunc func(data []byte) (value.Value, error)

var decoders = map[Format]decodeFunc{
	JSON:       decodeJSON,
	YAML:       decodeYAML,
	TOML:       decodeTOML,
	Env:        decodeEnv,
	Properties: decodeProperties,
	INI:        decodeINI,
}

var extensions = map[string]Format{
	".json":       JSON,
	".yaml":       YAML,
	".yml":        YAML,
	".toml":       TOML,
	".env":        Env,
	".properties": Properties,
	".ini":        INI,
	".cfg":        INI,
	".conf":       INI,
}

// Formats lists the supported format names in sorted order.
func Formats() []string {
	out := make([]string, 0, len(decoders))
	for f := range decoders {
		out = append(out, string(f))
	}
	sort.Strings(out)
	return out
}

// ParseFormat validates a user-supplied format name. "yml" is accepted as
// an alias for yaml.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "yml" {
		f = YAML
	}
	if _, ok := decoders[f]; !ok {
		return "", fmt.Errorf("unsupported format %q (want one of %s)", s, strings.Join(Formats(), ", "))
	}
	return f, nil
}

// DetectFormat infers the format from a file name. Dotenv files are matched
// by name (".env", ".env.local", "prod.env").
func DetectFormat(name string) (Format, error) {
	base := strings.ToLower(filepath.Base(name))
	if base == ".env" || strings.HasPrefix(base, ".env.") {
		return Env, nil
	}
	if f, ok := extensions[filepath.Ext(base)]; ok {
		return f, nil
	}
	return "", fmt.Errorf("cannot detect format of %q from its extension; pass a format explicitly", name)
}

// ParseError describes a file that could not be decoded.
type ParseError struct {
	File    string
	Side    string // "left" or "right" when known
	Format  Format
	Line    int // 1-based; 0 when the decoder gives no position
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	if e.Side != "" {
		sb.WriteString(e.Side)
		sb.WriteString(" file ")
	}
	sb.WriteString(e.File)
	if e.Line > 0 {
		fmt.Fprintf(&sb, ":%d", e.Line)
	}
	fmt.Fprintf(&sb, ": invalid %s: %s", e.Format, e.Message)
	return sb.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// syntaxError is returned by the adapters; Parse wraps it into a ParseError.
type syntaxError struct {
	line int
	msg  string
	err  error
}

func (e *syntaxError) Error() string {
	if e.line > 0 {
		return fmt.Sprintf("line %d: %s", e.line, e.msg)
	}
	return e.msg
}

func (e *syntaxError) Unwrap() error {
	return e.err
}

// lineScanner splits data into lines. The whole input is already in memory,
// so a single line may be as long as the input itself.
func lineScanner(data []byte) *bufio.Scanner {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), max(len(data)+1, bufio.MaxScanTokenSize))
	return sc
}

// Parse decodes data as format. An empty format is detected from name.
func Parse(name string, data []byte, format Format) (compare.ConfigFile, error) {
	if format == "" {
		f, err := DetectFormat(name)
		if err != nil {
			return compare.ConfigFile{}, err
		}
		format = f
	}
	decode, ok := decoders[format]
	if !ok {
		return compare.ConfigFile{}, fmt.Errorf("unsupported format %q", format)
	}

	v, err := decode(data)
	if err != nil {
		pe := &ParseError{File: name, Format: format, Message: err.Error(), Err: err}
		if se, ok := err.(*syntaxError); ok {
			pe.Line = se.line
			pe.Message = se.msg
		}
		return compare.ConfigFile{}, pe
	}
	return compare.ConfigFile{
		Name:    name,
		Content: string(data),
		Format:  string(format),
		Parsed:  v,
	}, nil
}

// Load reads and parses the file at path. side ("left"/"right") is recorded
// in any error so callers can say which input was broken.
func Load(side, path string, format Format) (compare.ConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return compare.ConfigFile{}, fmt.Errorf("reading %s file: %w", side, err)
	}
	cf, err := Parse(path, data, format)
	if err != nil {
		return compare.ConfigFile{}, WithSide(err, side)
	}
	return cf, nil
}

// WithSide records side on a *ParseError, or prefixes any other error with
// it.
func WithSide(err error, side string) error {
	if pe, ok := err.(*ParseError); ok {
		pe.Side = side
		return pe
	}
	return fmt.Errorf("%s file: %w", side, err)
}
