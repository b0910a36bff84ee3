package tool

import (
	"testing"

	"github.com/workspace-governor/governor/internal/response"
)

func TestReadFileWholeFile(t *testing.T) {
	g := testGovernor(t, "dev")
	writeWorkspaceFile(t, g, "src/main.go", "line1\nline2\nline3")

	r := ReadFile(g, "src/main.go", 0, 0, "", "")
	if r.Status != response.StatusOK {
		t.Fatalf("expected ok, got %+v", r)
	}
	if r.Data["total_lines"] != 3 {
		t.Fatalf("expected 3 total_lines, got %v", r.Data["total_lines"])
	}
	if r.Data["content"] != "line1\nline2\nline3" {
		t.Fatalf("unexpected content: %v", r.Data["content"])
	}
}

func TestReadFileLineRange(t *testing.T) {
	g := testGovernor(t, "dev")
	writeWorkspaceFile(t, g, "notes.txt", "a\nb\nc\nd")

	r := ReadFile(g, "notes.txt", 2, 3, "", "")
	if r.Status != response.StatusOK {
		t.Fatalf("expected ok, got %+v", r)
	}
	if r.Data["content"] != "b\nc" {
		t.Fatalf("expected 'b\\nc', got %v", r.Data["content"])
	}
	if r.Data["lines_read"] != "2-3" {
		t.Fatalf("expected lines_read=2-3, got %v", r.Data["lines_read"])
	}
}

func TestReadFileInvalidLineRangeBlocks(t *testing.T) {
	g := testGovernor(t, "dev")
	writeWorkspaceFile(t, g, "notes.txt", "a\nb\nc")

	r := ReadFile(g, "notes.txt", 3, 1, "", "")
	if r.Status != response.StatusBlocked {
		t.Fatalf("expected blocked, got %+v", r)
	}
	v := r.Data["policy_violation"].(response.Violation)
	if v.Key != "INVALID_LINE_RANGE" {
		t.Fatalf("expected INVALID_LINE_RANGE, got %s", v.Key)
	}
}

func TestReadFileMissingFileNotFound(t *testing.T) {
	g := testGovernor(t, "dev")
	r := ReadFile(g, "does-not-exist.txt", 0, 0, "", "")
	if r.Status != response.StatusError || r.Code != response.CodeNotFound {
		t.Fatalf("expected not_found, got %+v", r)
	}
}

func TestReadFileExceedsMaxBytesBlocks(t *testing.T) {
	g := testGovernor(t, "dev")
	g.Config.MaxFileBytes = 4
	writeWorkspaceFile(t, g, "big.txt", "this is way more than four bytes")

	r := ReadFile(g, "big.txt", 0, 0, "", "")
	if r.Status != response.StatusBlocked {
		t.Fatalf("expected blocked, got %+v", r)
	}
	v := r.Data["policy_violation"].(response.Violation)
	if v.Key != "FILE_EXCEEDS_MAX_BYTES" {
		t.Fatalf("expected FILE_EXCEEDS_MAX_BYTES, got %s", v.Key)
	}
}

func TestReadFileOutsideAllowPathsBlocks(t *testing.T) {
	g := testGovernor(t, "dev")
	g.Config.AllowPaths = []string{"src"}
	writeWorkspaceFile(t, g, "docs/readme.md", "hello")

	r := ReadFile(g, "docs/readme.md", 0, 0, "", "")
	if r.Status != response.StatusBlocked {
		t.Fatalf("expected blocked, got %+v", r)
	}
}
