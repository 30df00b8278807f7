package parser

import (
	"bytes"

	"github.com/tidwall/gjson"

	"github.com/TsekNet/confdiff/internal/value"
)

// decodeJSON walks the document with gjson so object keys keep their source
// order. A repeated key keeps its first position and its last value.
func decodeJSON(data []byte) (value.Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return value.Null{}, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, &syntaxError{line: jsonErrorLine(data), msg: "malformed JSON document"}
	}
	return fromJSON(gjson.ParseBytes(data)), nil
}

func fromJSON(r gjson.Result) value.Value {
	switch r.Type {
	case gjson.Null:
		return value.Null{}
	case gjson.True:
		return value.Bool(true)
	case gjson.False:
		return value.Bool(false)
	case gjson.Number:
		return value.Number(r.Num)
	case gjson.String:
		return value.String(r.Str)
	}

	if r.IsArray() {
		seq := value.Sequence{}
		r.ForEach(func(_, elem gjson.Result) bool {
			seq = append(seq, fromJSON(elem))
			return true
		})
		return seq
	}
	m := value.NewMapping(0)
	r.ForEach(func(key, elem gjson.Result) bool {
		m.Set(key.String(), fromJSON(elem))
		return true
	})
	return m
}

// jsonErrorLine finds the line of the first unbalanced or unexpected
// bracket. It is a best-effort hint; 0 means unknown.
func jsonErrorLine(data []byte) int {
	line := 1
	var stack []byte
	inString, escaped := false, false
	for _, c := range data {
		if c == '\n' {
			line++
		}
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			open := byte('{')
			if c == ']' {
				open = '['
			}
			if len(stack) == 0 || stack[len(stack)-1] != open {
				return line
			}
			stack = stack[:len(stack)-1]
		}
	}
	if inString || len(stack) > 0 {
		return line
	}
	return 0
}
