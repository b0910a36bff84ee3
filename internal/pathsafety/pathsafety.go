// Package pathsafety resolves caller-supplied paths against a workspace
// root and enforces allow/deny glob policy on the result. It is the one
// line of defense between an untrusted tool argument and the filesystem.
package pathsafety

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Error reports a path-safety violation: traversal outside the workspace
// root, a deny-glob match, or an allow-path miss.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return "path safety violation: " + e.Reason }

func violation(format string, args ...any) error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

// Resolve joins target to root (unless target is already absolute) and
// canonicalizes the result, then verifies it is root or a descendant of
// root. Symlinks are resolved by filepath.EvalSymlinks when the path
// exists; a not-yet-existing path (e.g. a file about to be created by
// apply_patch) is canonicalized lexically instead.
func Resolve(root, target string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("pathsafety: resolve root: %w", err)
	}
	absRoot = filepath.Clean(absRoot)

	var candidate string
	if filepath.IsAbs(target) {
		candidate = filepath.Clean(target)
	} else {
		candidate = filepath.Clean(filepath.Join(absRoot, target))
	}

	if real, err := filepath.EvalSymlinks(candidate); err == nil {
		candidate = real
	}

	if !isWithin(absRoot, candidate) {
		return "", violation("%q escapes workspace root %q", target, root)
	}
	return candidate, nil
}

// isWithin reports whether candidate equals root or is a descendant of it,
// comparing cleaned, OS-separator paths.
func isWithin(root, candidate string) bool {
	if candidate == root {
		return true
	}
	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return !strings.HasPrefix(rel, "..") && rel != ".."
}

// Validate checks a resolved absolute path against deny globs and, if
// allowPaths is non-empty, against the allow-list. The path is first made
// relative to root and normalized to forward slashes with no leading "./",
// matching the wire format used throughout audit entries and bundle ids.
func Validate(resolved, root string, denyGlobs, allowPaths []string) error {
	rel, err := Relative(resolved, root)
	if err != nil {
		return err
	}

	for _, pattern := range denyGlobs {
		if MatchGlob(pattern, rel) {
			return violation("%q matches deny glob %q", rel, pattern)
		}
	}

	if len(allowPaths) > 0 && !containsEmpty(allowPaths) {
		if !coveredByAllowList(rel, allowPaths) {
			return violation("%q is not under any allow_paths entry", rel)
		}
	}
	return nil
}

func containsEmpty(paths []string) bool {
	for _, p := range paths {
		if p == "" {
			return true
		}
	}
	return false
}

func coveredByAllowList(rel string, allowPaths []string) bool {
	for _, base := range allowPaths {
		base = NormalizeSlashes(strings.TrimSuffix(base, "/"))
		if base == "." || base == "" {
			return true
		}
		if rel == base || strings.HasPrefix(rel, base+"/") {
			return true
		}
	}
	return false
}

// Relative returns resolved's path relative to root, POSIX-normalized
// (forward slashes, no leading "./").
func Relative(resolved, root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("pathsafety: resolve root: %w", err)
	}
	rel, err := filepath.Rel(filepath.Clean(absRoot), filepath.Clean(resolved))
	if err != nil {
		return "", fmt.Errorf("pathsafety: relativize: %w", err)
	}
	rel = NormalizeSlashes(rel)
	rel = strings.TrimPrefix(rel, "./")
	return rel, nil
}

// NormalizeSlashes converts backslashes to forward slashes, matching the
// original implementation's treatment of Windows-style input paths.
func NormalizeSlashes(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
