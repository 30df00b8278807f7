package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/TsekNet/confdiff/internal/output"
	"github.com/TsekNet/confdiff/internal/testutil"
)

// execute runs the root command with args and returns what it printed to
// stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, name := range []string{"CONFDIFF_IGNORE_KEYS", "CONFDIFF_SEMANTIC", "CONFDIFF_CASE_SENSITIVE", "CONFDIFF_CONTEXT", "CONFDIFF_TOKEN", "NO_COLOR"} {
		t.Setenv(name, "")
	}

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	root := buildRootCmd()
	root.SetArgs(args)
	err := root.Execute()

	w.Close()
	var buf bytes.Buffer
	buf.ReadFrom(r)
	os.Stdout = old

	return buf.String(), err
}

// ---------- version command ----------

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version command error: %v", err)
	}
	if !strings.Contains(out, "confdiff") {
		t.Errorf("version output should contain 'confdiff', got:\n%s", out)
	}
}

// ---------- global flags ----------

func TestGlobalFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T)
	}{
		{
			name: "format flag",
			args: []string{"--format", "json", "version"},
			check: func(t *testing.T) {
				if flagFormat != "json" {
					t.Errorf("flagFormat: got %q, want json", flagFormat)
				}
			},
		},
		{
			name: "no-color flag",
			args: []string{"--no-color", "version"},
			check: func(t *testing.T) {
				if !flagNoColor {
					t.Error("flagNoColor should be true")
				}
			},
		},
		{
			name: "verbose shorthand",
			args: []string{"-v", "version"},
			check: func(t *testing.T) {
				if !flagVerbose {
					t.Error("flagVerbose should be true")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			execute(t, tt.args...)
			tt.check(t)
		})
	}
}

func TestRootFlagsIncludeAllFlags(t *testing.T) {
	out, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("--help error: %v", err)
	}
	for _, flag := range []string{"--ignore-key", "--semantic", "--exit-code", "--min-severity", "--array-alignment", "--format-left", "--verbose"} {
		if !strings.Contains(out, flag) {
			t.Errorf("help should mention %s, got:\n%s", flag, out)
		}
	}
}

func TestRequiresTwoArgs(t *testing.T) {
	if _, err := execute(t, testutil.Fixture(t, "left.yaml")); err == nil {
		t.Error("expected error with a single argument")
	}
}

// ---------- comparisons ----------

func TestCompareFixtures(t *testing.T) {
	left := testutil.Fixture(t, "left.yaml")
	right := testutil.Fixture(t, "right.yaml")

	tests := []struct {
		name     string
		args     []string
		wantAll  []string
		wantNone []string
	}{
		{
			name:    "terminal output",
			args:    []string{"--no-color", left, right},
			wantAll: []string{"~ database.password", "[critical/security]", "+ tls", "+ features[3]", "Severity:"},
		},
		{
			name:     "ignore key",
			args:     []string{"--no-color", "--ignore-key", "password", left, right},
			wantAll:  []string{"~ database.host"},
			wantNone: []string{"database.password"},
		},
		{
			name:     "ignore path glob",
			args:     []string{"--no-color", "--ignore-path", "database.**", left, right},
			wantAll:  []string{"~ service.port"},
			wantNone: []string{"database."},
		},
		{
			name:     "min severity",
			args:     []string{"--no-color", "--min-severity", "critical", left, right},
			wantAll:  []string{"~ database.password", "hidden"},
			wantNone: []string{"~ logging.level"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.wantAll {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
			for _, unwanted := range tt.wantNone {
				if strings.Contains(out, unwanted) {
					t.Errorf("output should not contain %q:\n%s", unwanted, out)
				}
			}
		})
	}
}

func TestCompareJSONOutput(t *testing.T) {
	out, err := execute(t, "--format", "json", "--array-alignment", "lcs",
		testutil.Fixture(t, "left.toml"), testutil.Fixture(t, "right.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var res output.JSONResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(res.Changes) == 0 || res.Summary.Total != len(res.Changes) {
		t.Errorf("changes %d, summary %+v", len(res.Changes), res.Summary)
	}
	if res.Metadata.Algorithm != "structural/lcs" {
		t.Errorf("algorithm: %q", res.Metadata.Algorithm)
	}
}

func TestCrossFormatCompare(t *testing.T) {
	out, err := execute(t, "--format", "json", "--exit-code",
		testutil.Fixture(t, "left.yaml"), testutil.Fixture(t, "left.json"))
	if err != nil {
		t.Fatalf("equivalent YAML and JSON should not differ: %v\n%s", err, out)
	}
}

func TestExitCode(t *testing.T) {
	left := testutil.Fixture(t, "left.env")
	right := testutil.Fixture(t, "right.env")

	if _, err := execute(t, "--no-color", left, right); err != nil {
		t.Errorf("without --exit-code: %v", err)
	}
	if _, err := execute(t, "--no-color", "--exit-code", left, right); !errors.Is(err, errChangesDetected) {
		t.Errorf("with --exit-code: got %v, want errChangesDetected", err)
	}
	if _, err := execute(t, "--no-color", "--exit-code", left, left); err != nil {
		t.Errorf("identical files: %v", err)
	}
}

func TestErrors(t *testing.T) {
	left := testutil.Fixture(t, "left.json")
	broken := testutil.WriteFile(t, "broken.json", `{"a": `)

	tests := []struct {
		name    string
		args    []string
		wantSub string
	}{
		{name: "broken right file", args: []string{left, broken}, wantSub: "right file"},
		{name: "missing left file", args: []string{"/nonexistent.yaml", left}, wantSub: "left file"},
		{name: "unknown output format", args: []string{"--format", "markdown", left, left}, wantSub: "output format"},
		{name: "unknown severity", args: []string{"--min-severity", "huge", left, left}, wantSub: "unknown severity"},
		{name: "unknown input format", args: []string{"--format-left", "xml", left, left}, wantSub: "--format-left"},
		{name: "unknown alignment", args: []string{"--array-alignment", "fuzzy", left, left}, wantSub: "array alignment"},
		{name: "undetectable format", args: []string{testutil.WriteFile(t, "conf.txt", "a"), left}, wantSub: "cannot detect format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("got %v, want error containing %q", err, tt.wantSub)
			}
		})
	}
}

func TestForcedInputFormat(t *testing.T) {
	env := testutil.WriteFile(t, "settings.txt", "PORT=8080\n")
	props := testutil.WriteFile(t, "settings.conf", "PORT=8080\n")
	if _, err := execute(t, "--exit-code", "--format-left", "env", "--format-right", "properties", env, props); err != nil {
		t.Errorf("same keys in env and properties should match: %v", err)
	}
}
