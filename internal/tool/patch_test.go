package tool

import (
	"testing"

	"github.com/workspace-governor/governor/internal/response"
)

func TestValidatePatchAcceptsWellFormedDiff(t *testing.T) {
	g := testGovernor(t, "dev")
	writeWorkspaceFile(t, g, "x.go", "package x\n")

	diff := "--- a/x.go\n+++ b/x.go\n@@ -1 +1,2 @@\n package x\n+func F() {}\n"
	r := ValidatePatch(g, "x.go", diff, "", "")
	if r.Status != response.StatusOK {
		t.Fatalf("expected ok, got %+v", r)
	}
}

func TestValidatePatchMissingFileNotFound(t *testing.T) {
	g := testGovernor(t, "dev")
	diff := "--- a/missing.go\n+++ b/missing.go\n+x\n"
	r := ValidatePatch(g, "missing.go", diff, "", "")
	if r.Status != response.StatusError || r.Code != response.CodeNotFound {
		t.Fatalf("expected not_found, got %+v", r)
	}
}

func TestValidatePatchRejectsMalformedDiff(t *testing.T) {
	g := testGovernor(t, "dev")
	writeWorkspaceFile(t, g, "x.go", "package x\n")
	r := ValidatePatch(g, "x.go", "not a diff", "", "")
	if r.Status != response.StatusError || r.Code != response.CodeInvalidInput {
		t.Fatalf("expected invalid_input, got %+v", r)
	}
}

func TestApplyPatchRejectsUnparsableDiff(t *testing.T) {
	g := testGovernor(t, "dev")
	r := ApplyPatch(g, "not a diff at all", "", "")
	if r.Status != response.StatusError || r.Code != response.CodeInvalidInput {
		t.Fatalf("expected invalid_input, got %+v", r)
	}
}

func TestApplyPatchRejectsTargetOutsideAllowPaths(t *testing.T) {
	g := testGovernor(t, "dev")
	g.Config.AllowPaths = []string{"src"}
	diff := "--- a/docs/readme.md\n+++ b/docs/readme.md\n+hello\n"
	r := ApplyPatch(g, diff, "", "")
	if r.Status != response.StatusBlocked {
		t.Fatalf("expected blocked, got %+v", r)
	}
}

func TestApplyPatchModifiesFile(t *testing.T) {
	g := testGovernor(t, "dev")
	writeWorkspaceFile(t, g, "greet.txt", "hello\n")

	diff := "--- a/greet.txt\n+++ b/greet.txt\n@@ -1 +1 @@\n-hello\n+hello world\n"
	r := ApplyPatch(g, diff, "", "")
	if r.Status != response.StatusOK {
		t.Fatalf("expected ok (requires the 'patch' binary on PATH), got %+v", r)
	}
	modified, _ := r.Data["modified_files"].([]string)
	if len(modified) != 1 || modified[0] != "greet.txt" {
		t.Fatalf("expected modified_files=[greet.txt], got %+v", modified)
	}
}
