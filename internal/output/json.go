package output

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/TsekNet/confdiff/internal/compare"
	"github.com/TsekNet/confdiff/internal/diff"
	"github.com/TsekNet/confdiff/internal/value"
)

// JSONResult is the structured JSON output for CI and other tools.
type JSONResult struct {
	Left     string       `json:"left"`
	Right    string       `json:"right"`
	Changes  []JSONChange `json:"changes"`
	Summary  JSONSummary  `json:"summary"`
	Stats    JSONStats    `json:"stats"`
	Metadata JSONMetadata `json:"metadata"`
}

// JSONChange is a single change in JSON format. Values keep their source
// key order; non-finite numbers are written as strings.
type JSONChange struct {
	Path     string     `json:"path"`
	Kind     diff.Kind  `json:"kind"`
	OldValue *JSONValue `json:"oldValue,omitempty"`
	NewValue *JSONValue `json:"newValue,omitempty"`
	OldType  string     `json:"oldType"`
	NewType  string     `json:"newType"`
	Severity string     `json:"severity"`
	Category string     `json:"category"`
}

// JSONSummary holds change counts by kind.
type JSONSummary struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Changed int `json:"changed"`
	Total   int `json:"total"`
}

// JSONStats holds similarity, input sizes and breakdowns.
type JSONStats struct {
	Similarity float64        `json:"similarity"`
	LeftSize   uint           `json:"leftSize"`
	RightSize  uint           `json:"rightSize"`
	BySeverity map[string]int `json:"bySeverity"`
	ByCategory map[string]int `json:"byCategory"`
}

// JSONMetadata describes how the result was produced.
type JSONMetadata struct {
	ComparisonTimeMs float64         `json:"comparisonTimeMs"`
	Algorithm        string          `json:"algorithm"`
	Options          compare.Options `json:"options"`
}

// JSONValue marshals a value tree without losing mapping order.
type JSONValue struct {
	v value.Value
}

// MarshalJSON implements json.Marshaler.
func (j JSONValue) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSONValue(&buf, j.v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSONValue(buf *bytes.Buffer, v value.Value) error {
	switch x := v.(type) {
	case value.Bool, value.String:
		data, err := json.Marshal(value.Interface(x))
		if err != nil {
			return err
		}
		buf.Write(data)
	case value.Number:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			data, _ := json.Marshal(value.FormatNumber(f))
			buf.Write(data)
			return nil
		}
		data, err := json.Marshal(f)
		if err != nil {
			return err
		}
		buf.Write(data)
	case value.Sequence:
		buf.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONValue(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *value.Mapping:
		if x == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('{')
		for i, k := range x.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			e, _ := x.Get(k)
			if err := writeJSONValue(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		buf.WriteString("null")
	}
	return nil
}

// RenderJSON renders a comparison result as indented JSON. The change list
// is never filtered.
func RenderJSON(res *compare.Result) (string, error) {
	out := JSONResult{
		Left:    res.Left,
		Right:   res.Right,
		Changes: make([]JSONChange, 0, len(res.Changes)),
		Summary: JSONSummary(res.Summary()),
		Stats: JSONStats{
			Similarity: res.Stats.Similarity,
			LeftSize:   res.Stats.LeftSize,
			RightSize:  res.Stats.RightSize,
			BySeverity: make(map[string]int, len(res.Stats.BySeverity)),
			ByCategory: make(map[string]int, len(res.Stats.ByCategory)),
		},
		Metadata: JSONMetadata{
			ComparisonTimeMs: res.Metadata.ComparisonTimeMs(),
			Algorithm:        res.Metadata.Algorithm,
			Options:          res.Metadata.Options,
		},
	}
	for k, n := range res.Stats.BySeverity {
		out.Stats.BySeverity[string(k)] = n
	}
	for k, n := range res.Stats.ByCategory {
		out.Stats.ByCategory[string(k)] = n
	}
	for _, c := range res.Changes {
		out.Changes = append(out.Changes, convertChange(c))
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func convertChange(c diff.Change) JSONChange {
	jc := JSONChange{
		Path:     c.Path,
		Kind:     c.Kind,
		OldType:  c.OldType.String(),
		NewType:  c.NewType.String(),
		Severity: string(c.Severity),
		Category: string(c.Category),
	}
	if c.Kind != diff.Added {
		jc.OldValue = &JSONValue{v: c.OldValue}
	}
	if c.Kind != diff.Removed {
		jc.NewValue = &JSONValue{v: c.NewValue}
	}
	return jc
}
