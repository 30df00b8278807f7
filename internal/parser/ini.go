package parser

import (
	"fmt"
	"strings"

	"github.com/TsekNet/confdiff/internal/value"
)

// decodeINI reads INI files. Keys before the first [section] sit at the
// root; each section becomes a nested mapping. ';' and '#' start comments.
// A repeated section is merged into the first one.
func decodeINI(data []byte) (value.Value, error) {
	root := value.NewMapping(0)
	current := root
	sc := lineScanner(data)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == ';' || text[0] == '#' {
			continue
		}

		if text[0] == '[' {
			end := strings.IndexByte(text, ']')
			name := ""
			if end > 0 {
				name = strings.TrimSpace(text[1:end])
			}
			if name == "" {
				return nil, &syntaxError{line: line, msg: fmt.Sprintf("malformed section header %q", text)}
			}
			existing, ok := root.Get(name)
			if sec, isMap := existing.(*value.Mapping); ok && isMap {
				current = sec
				continue
			}
			current = value.NewMapping(0)
			root.Set(name, current)
			continue
		}

		i := strings.IndexAny(text, "=:")
		if i <= 0 {
			return nil, &syntaxError{line: line, msg: fmt.Sprintf("expected key = value, got %q", text)}
		}
		key := strings.TrimSpace(text[:i])
		current.Set(key, value.String(iniValue(strings.TrimSpace(text[i+1:]))))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return root, nil
}

func iniValue(raw string) string {
	if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') && raw[len(raw)-1] == raw[0] {
		return raw[1 : len(raw)-1]
	}
	for _, marker := range []string{" ;", " #"} {
		if i := strings.Index(raw, marker); i >= 0 {
			raw = raw[:i]
		}
	}
	return strings.TrimSpace(raw)
}
