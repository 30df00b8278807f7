package parser

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/TsekNet/confdiff/internal/value"
)

// decodeTOML decodes into plain Go maps. TOML tables carry no meaningful
// order, so keys come out sorted.
func decodeTOML(data []byte) (value.Value, error) {
	var doc map[string]any
	if _, err := toml.Decode(string(data), &doc); err != nil {
		var pe toml.ParseError
		if errors.As(err, &pe) {
			return nil, &syntaxError{line: pe.Position.Line, msg: pe.Message, err: err}
		}
		return nil, err
	}
	return fromTOML(doc), nil
}

func fromTOML(x any) value.Value {
	switch v := x.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := value.NewMapping(len(keys))
		for _, k := range keys {
			m.Set(k, fromTOML(v[k]))
		}
		return m
	case []map[string]any:
		seq := make(value.Sequence, len(v))
		for i, t := range v {
			seq[i] = fromTOML(t)
		}
		return seq
	case []any:
		seq := make(value.Sequence, len(v))
		for i, e := range v {
			seq[i] = fromTOML(e)
		}
		return seq
	case time.Time:
		return value.String(formatTOMLTime(v))
	case fmt.Stringer:
		return value.String(v.String())
	}
	return value.From(x)
}

func formatTOMLTime(t time.Time) string {
	// Local date/time values carry a marker zone instead of an offset.
	switch t.Location().String() {
	case "date-local":
		return t.Format("2006-01-02")
	case "time-local":
		return t.Format("15:04:05.999999999")
	case "datetime-local":
		return t.Format("2006-01-02T15:04:05.999999999")
	}
	return t.Format(time.RFC3339Nano)
}
