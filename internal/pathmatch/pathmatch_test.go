package pathmatch

import "testing"

func TestMatches(t *testing.T) {
	tests := []struct {
		name string
		path string
		rule Rule
		want bool
	}{
		{"exact hit", "database.host", Rule{Pattern: "database.host", Kind: Exact}, true},
		{"exact miss", "database.host2", Rule{Pattern: "database.host", Kind: Exact}, false},
		{"exact has no wildcards", "database.host", Rule{Pattern: "database.*", Kind: Exact}, false},
		{"star within segment", "database.host", Rule{Pattern: "database.*", Kind: Glob}, true},
		{"star stops at dot", "database.primary.host", Rule{Pattern: "database.*", Kind: Glob}, false},
		{"double star crosses dots", "database.primary.host", Rule{Pattern: "database.**", Kind: Glob}, true},
		{"star in middle", "servers[0].port", Rule{Pattern: "servers*.port", Kind: Glob}, true},
		{"question mark single char", "a.b1", Rule{Pattern: "a.b?", Kind: Glob}, true},
		{"question mark needs a char", "a.b", Rule{Pattern: "a.b?", Kind: Glob}, false},
		{"literal dot escaped", "aXb", Rule{Pattern: "a.b", Kind: Glob}, false},
		{"brackets are literal", "arr[1]", Rule{Pattern: "arr[1]", Kind: Glob}, true},
		{"glob is anchored", "x.database.host", Rule{Pattern: "database.*", Kind: Glob}, false},
		{"regex as given", "metadata.timestamp", Rule{Pattern: `\.timestamp$`, Kind: Regex}, true},
		{"regex unanchored", "a.timestamp.b", Rule{Pattern: `timestamp`, Kind: Regex}, true},
		{"invalid regex never matches", "anything", Rule{Pattern: `(`, Kind: Regex}, false},
		{"unknown kind never matches", "a", Rule{Pattern: "a", Kind: "fuzzy"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.path, tt.rule); got != tt.want {
				t.Errorf("Matches(%q, %+v) = %v, want %v", tt.path, tt.rule, got, tt.want)
			}
		})
	}
}

func TestGlobToRegex(t *testing.T) {
	tests := map[string]string{
		"a.*":    `^a\.[^.]*$`,
		"**.key": `^.*\.key$`,
		"a?":     `^a.$`,
	}
	for in, want := range tests {
		if got := GlobToRegex(in); got != want {
			t.Errorf("GlobToRegex(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSetIgnored(t *testing.T) {
	s := NewSet([]Rule{
		{Pattern: `(`, Kind: Regex, Action: Ignore},
		{Pattern: "meta.**", Kind: Glob, Action: Ignore},
		{Pattern: "strict.path", Kind: Exact, Action: Strict},
		{Pattern: "version", Kind: Exact, Action: Ignore},
	})

	tests := map[string]bool{
		"meta.build.time": true,
		"version":         true,
		"strict.path":     false,
		"name":            false,
	}
	for path, want := range tests {
		if got := s.Ignored(path); got != want {
			t.Errorf("Ignored(%q) = %v, want %v", path, got, want)
		}
	}

	if r, ok := s.Match("strict.path", Strict); !ok || r.Pattern != "strict.path" {
		t.Errorf("Match strict: got %+v, %v", r, ok)
	}

	var nilSet *Set
	if nilSet.Ignored("a") {
		t.Error("nil set should ignore nothing")
	}
}

func TestValidate(t *testing.T) {
	errs := Validate([]Rule{
		{Pattern: "ok.*", Kind: Glob, Action: Ignore},
		{Pattern: `[`, Kind: Regex, Action: Ignore},
		{Pattern: "x", Kind: Exact, Action: "drop"},
	})
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
	}
}
