package pathsafety

import "testing"

func TestMatchGlobStarCrossesSlash(t *testing.T) {
	cases := []struct {
		pattern, name string
		want          bool
	}{
		{"*.py", "src/pkg/x.py", true},
		{"*.py", "x.py", true},
		{"*.py", "x.txt", false},
		{"*config*", "app/config/prod.yaml", true},
		{".env*", ".env.local", true},
		{".env*", "config/.env", false},
		{"*", "anything/at/all.ext", true},
		{"secrets/?.key", "secrets/a.key", true},
		{"secrets/?.key", "secrets/ab.key", false},
	}
	for _, c := range cases {
		got := MatchGlob(c.pattern, c.name)
		if got != c.want {
			t.Errorf("MatchGlob(%q, %q) = %v, want %v", c.pattern, c.name, got, c.want)
		}
	}
}

func TestMatchGlobCharacterClass(t *testing.T) {
	if !MatchGlob("file[0-9].txt", "file5.txt") {
		t.Error("expected digit class to match")
	}
	if MatchGlob("file[0-9].txt", "fileA.txt") {
		t.Error("expected digit class to reject letter")
	}
	if !MatchGlob("file[!0-9].txt", "fileA.txt") {
		t.Error("expected negated class to match non-digit")
	}
}

func TestMatchGlobEmptyPattern(t *testing.T) {
	if !MatchGlob("*", "") {
		t.Error("expected '*' to match empty string")
	}
	if MatchGlob("a", "") {
		t.Error("expected literal pattern to not match empty string")
	}
}
