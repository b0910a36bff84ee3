package tool

import (
	"testing"

	"github.com/workspace-governor/governor/internal/response"
)

func TestRepoSearchFindsMatch(t *testing.T) {
	g := testGovernor(t, "dev")
	writeWorkspaceFile(t, g, "src/main.go", "package main\n\nfunc needle() {}\n")
	writeWorkspaceFile(t, g, "src/other.go", "package main\n")

	r := RepoSearch(g, "needle", nil, 10, "", "")
	if r.Status != response.StatusOK {
		t.Fatalf("expected ok, got %+v", r)
	}
	if r.Data["count"].(int) < 1 {
		t.Fatalf("expected at least one match, got %+v", r.Data)
	}
}

func TestRepoSearchEmptyQueryBlocks(t *testing.T) {
	g := testGovernor(t, "dev")
	r := RepoSearch(g, "   ", nil, 10, "", "")
	if r.Status != response.StatusBlocked {
		t.Fatalf("expected blocked, got %+v", r)
	}
	v := r.Data["policy_violation"].(response.Violation)
	if v.Key != "INVALID_QUERY" {
		t.Fatalf("expected INVALID_QUERY, got %s", v.Key)
	}
}

func TestRepoSearchRespectsDenyGlobs(t *testing.T) {
	g := testGovernor(t, "dev")
	g.Config.DenyGlobs = []string{"*.env*"}
	writeWorkspaceFile(t, g, ".env", "SECRET=needle\n")
	writeWorkspaceFile(t, g, "src/main.go", "// needle\n")

	r := RepoSearch(g, "needle", nil, 10, "", "")
	if r.Status != response.StatusOK {
		t.Fatalf("expected ok, got %+v", r)
	}
	matches, _ := r.Data["matches"].([]SearchMatch)
	for _, m := range matches {
		if m.Path == ".env" {
			t.Fatalf("expected .env to be excluded by deny_globs, got match %+v", m)
		}
	}
}
