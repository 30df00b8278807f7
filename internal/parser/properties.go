package parser

import (
	"strconv"
	"strings"

	"github.com/TsekNet/confdiff/internal/value"
)

// decodeProperties reads Java .properties files. Keys and values are
// separated by '=', ':' or whitespace; '#' and '!' start comments; a trailing
// backslash continues the logical line. Dotted keys stay flat.
func decodeProperties(data []byte) (value.Value, error) {
	m := value.NewMapping(0)
	sc := lineScanner(data)
	line, start := 0, 0
	var logical strings.Builder
	for sc.Scan() {
		line++
		text := strings.TrimLeft(sc.Text(), " \t\f")
		if logical.Len() == 0 {
			if text == "" || text[0] == '#' || text[0] == '!' {
				continue
			}
			start = line
		}
		if continued(text) {
			logical.WriteString(text[:len(text)-1])
			continue
		}
		logical.WriteString(text)
		key, val := splitProperty(logical.String())
		logical.Reset()
		k, err := unescapeProperty(key)
		if err != nil {
			return nil, &syntaxError{line: start, msg: err.Error()}
		}
		v, err := unescapeProperty(val)
		if err != nil {
			return nil, &syntaxError{line: start, msg: err.Error()}
		}
		m.Set(k, value.String(v))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if logical.Len() > 0 {
		key, val := splitProperty(logical.String())
		m.Set(key, value.String(val))
	}
	return m, nil
}

// continued reports an odd number of trailing backslashes.
func continued(s string) bool {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

func splitProperty(s string) (string, string) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '=', ':':
			return s[:i], strings.TrimLeft(s[i+1:], " \t\f")
		case ' ', '\t', '\f':
			rest := strings.TrimLeft(s[i:], " \t\f")
			if rest != "" && (rest[0] == '=' || rest[0] == ':') {
				rest = strings.TrimLeft(rest[1:], " \t\f")
			}
			return s[:i], rest
		}
	}
	return s, ""
}

func unescapeProperty(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 't':
			sb.WriteByte('\t')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 'f':
			sb.WriteByte('\f')
		case 'u':
			if i+4 >= len(s) {
				return "", strconv.ErrSyntax
			}
			r, err := strconv.ParseUint(s[i+1:i+5], 16, 32)
			if err != nil {
				return "", err
			}
			sb.WriteRune(rune(r))
			i += 4
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String(), nil
}
