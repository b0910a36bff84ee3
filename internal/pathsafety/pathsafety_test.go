package pathsafety

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveWithinRoot(t *testing.T) {
	root := t.TempDir()
	resolved, err := Resolve(root, "sub/file.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(root, "sub", "file.txt")
	if resolved != want {
		t.Fatalf("got %q, want %q", resolved, want)
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	_, err := Resolve(root, "../outside.txt")
	if err == nil {
		t.Fatal("expected traversal to be rejected")
	}
	var pathErr *Error
	if !isPathSafetyError(err, &pathErr) {
		t.Fatalf("expected *pathsafety.Error, got %T", err)
	}
}

func TestResolveRejectsAbsoluteOutsideRoot(t *testing.T) {
	root := t.TempDir()
	_, err := Resolve(root, "/etc/passwd")
	if err == nil {
		t.Fatal("expected absolute path outside root to be rejected")
	}
}

func TestValidateDenyGlob(t *testing.T) {
	root := t.TempDir()
	resolved, _ := Resolve(root, "config/prod.yaml")
	err := Validate(resolved, root, []string{"*.yaml"}, nil)
	if err == nil {
		t.Fatal("expected deny glob match to be rejected")
	}
}

func TestValidateAllowPaths(t *testing.T) {
	root := t.TempDir()
	resolved, _ := Resolve(root, "src/main.go")
	if err := Validate(resolved, root, nil, []string{"src"}); err != nil {
		t.Fatalf("expected path under allowed 'src' to pass, got %v", err)
	}

	resolved2, _ := Resolve(root, "docs/readme.md")
	if err := Validate(resolved2, root, nil, []string{"src"}); err == nil {
		t.Fatal("expected path outside allow_paths to be rejected")
	}
}

func TestValidateEmptyAllowListMeansAny(t *testing.T) {
	root := t.TempDir()
	resolved, _ := Resolve(root, "anything.txt")
	if err := Validate(resolved, root, nil, []string{""}); err != nil {
		t.Fatalf("expected an allow_paths containing empty string to permit everything, got %v", err)
	}
}

func TestResolveFollowsSymlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "secret.txt")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	_, err := Resolve(root, "link.txt")
	if err == nil {
		t.Fatal("expected symlink escaping root to be rejected")
	}
}

func isPathSafetyError(err error, target **Error) bool {
	e, ok := err.(*Error)
	if ok {
		*target = e
	}
	return ok
}
