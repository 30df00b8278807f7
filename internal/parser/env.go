package parser

import (
	"fmt"
	"strings"

	"github.com/TsekNet/confdiff/internal/value"
)

// decodeEnv reads dotenv files: KEY=VALUE lines, an optional "export "
// prefix, '#' comments and single- or double-quoted values. Every value is a
// string; the result is a flat mapping.
func decodeEnv(data []byte) (value.Value, error) {
	m := value.NewMapping(0)
	sc := lineScanner(data)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		text = strings.TrimPrefix(text, "export ")

		key, raw, ok := strings.Cut(text, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" || strings.ContainsAny(key, " \t") {
			return nil, &syntaxError{line: line, msg: fmt.Sprintf("expected KEY=VALUE, got %q", text)}
		}
		val, err := envValue(strings.TrimSpace(raw))
		if err != nil {
			return nil, &syntaxError{line: line, msg: err.Error()}
		}
		m.Set(key, value.String(val))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func envValue(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	switch q := raw[0]; q {
	case '\'', '"':
		end := closingQuote(raw, q)
		if end < 0 {
			return "", fmt.Errorf("unterminated %c quote", q)
		}
		body := raw[1:end]
		if q == '"' {
			body = unescapeDouble(body)
		}
		return body, nil
	}
	// Unquoted values end at an inline " #" comment.
	if i := strings.Index(raw, " #"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw), nil
}

func closingQuote(s string, q byte) int {
	for i := 1; i < len(s); i++ {
		if s[i] == '\\' && q == '"' {
			i++
			continue
		}
		if s[i] == q {
			return i
		}
	}
	return -1
}

var doubleQuoteEscapes = strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\r`, "\r", `\"`, `"`, `\\`, `\`)

func unescapeDouble(s string) string {
	return doubleQuoteEscapes.Replace(s)
}
