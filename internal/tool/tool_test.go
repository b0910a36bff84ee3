package tool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/workspace-governor/governor/internal/governor"
	"github.com/workspace-governor/governor/internal/policy"
)

func testGovernor(t *testing.T, profile string) *governor.Governor {
	t.Helper()
	cfg, err := policy.Load(profile, "", false)
	if err != nil {
		t.Fatal(err)
	}
	g, err := governor.New(cfg, t.TempDir(), false, nil)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func writeWorkspaceFile(t *testing.T, g *governor.Governor, rel, content string) {
	t.Helper()
	full := filepath.Join(g.Root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
