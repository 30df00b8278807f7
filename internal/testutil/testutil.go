// Package testutil provides shared test helpers for confdiff packages.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// TestdataRoot returns the absolute path to the shared testdata/ fixtures.
// It uses runtime.Caller to locate the caller's file, then walks up to the
// repo root and appends "testdata".
func TestdataRoot(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(1)
	if !ok {
		t.Fatal("could not determine test file path")
	}
	return testdataFrom(t, filepath.Dir(thisFile))
}

func testdataFrom(t *testing.T, dir string) string {
	t.Helper()
	// Walk up from the calling file to find the repo root (contains go.mod).
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find repo root (no go.mod found)")
		}
		dir = parent
	}
	abs, err := filepath.Abs(filepath.Join(dir, "testdata"))
	if err != nil {
		t.Fatalf("resolving testdata root: %v", err)
	}
	if _, err := os.Stat(abs); err != nil {
		t.Fatalf("testdata directory not found at %s: %v", abs, err)
	}
	return abs
}

// Fixture returns the absolute path of a file under testdata/, failing the
// test when it does not exist.
func Fixture(t *testing.T, name string) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(1)
	if !ok {
		t.Fatal("could not determine test file path")
	}
	path := filepath.Join(testdataFrom(t, filepath.Dir(thisFile)), name)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("fixture %s: %v", name, err)
	}
	return path
}

// WriteFile writes content to name inside a fresh temp dir and returns the
// path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}
