package transform

import (
	"testing"

	"github.com/TsekNet/confdiff/internal/value"
)

func TestApply(t *testing.T) {
	stripVersion := Transformation{Name: "strip version", Pattern: `v\d+\.\d+\.\d+`, Replacement: "vX", Enabled: true}
	lower := Transformation{Name: "host alias", Pattern: `^localhost$`, Replacement: "127.0.0.1", Enabled: true}

	tests := []struct {
		name  string
		in    value.Value
		rules []Transformation
		want  value.Value
	}{
		{
			name:  "single rule",
			in:    value.String("image:v1.2.3"),
			rules: []Transformation{stripVersion},
			want:  value.String("image:vX"),
		},
		{
			name:  "rules apply in order",
			in:    value.String("a"),
			rules: []Transformation{{Pattern: "a", Replacement: "b", Enabled: true}, {Pattern: "b", Replacement: "c", Enabled: true}},
			want:  value.String("c"),
		},
		{
			name:  "disabled rule skipped",
			in:    value.String("localhost"),
			rules: []Transformation{{Pattern: "localhost", Replacement: "x", Enabled: false}},
			want:  value.String("localhost"),
		},
		{
			name:  "invalid regex skipped, rest still applies",
			in:    value.String("localhost"),
			rules: []Transformation{{Name: "bad", Pattern: "(", Enabled: true}, lower},
			want:  value.String("127.0.0.1"),
		},
		{
			name:  "capture groups expand",
			in:    value.String("user=alice"),
			rules: []Transformation{{Pattern: `user=(\w+)`, Replacement: "name:$1", Enabled: true}},
			want:  value.String("name:alice"),
		},
		{
			name:  "numbers untouched",
			in:    value.Number(123),
			rules: []Transformation{{Pattern: `\d`, Replacement: "x", Enabled: true}},
			want:  value.Number(123),
		},
		{
			name:  "mappings untouched",
			in:    value.MappingOf("a", "1"),
			rules: []Transformation{{Pattern: `1`, Replacement: "2", Enabled: true}},
			want:  value.MappingOf("a", "1"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(tt.in, tt.rules)
			if !value.Equal(got, tt.want) {
				t.Errorf("got %s, want %s", value.Render(got), value.Render(tt.want))
			}
		})
	}
}

func TestCompileEmpty(t *testing.T) {
	if !Compile(nil).Empty() {
		t.Error("nil rules should compile to an empty pipeline")
	}
	if !Compile([]Transformation{{Pattern: "x", Enabled: false}}).Empty() {
		t.Error("disabled rules should compile to an empty pipeline")
	}
	var p *Pipeline
	if got := p.Apply(value.String("s")); !value.Equal(got, value.String("s")) {
		t.Errorf("nil pipeline changed value: %s", value.Render(got))
	}
}

func TestValidate(t *testing.T) {
	errs := Validate([]Transformation{
		{Name: "ok", Pattern: "a", Enabled: true},
		{Name: "bad", Pattern: "(", Enabled: true},
		{Name: "bad but off", Pattern: "(", Enabled: false},
	})
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
}
