package pathsafety

// MatchGlob reports whether name matches pattern using shell-style
// wildcards, the same way Python's fnmatch.fnmatch behaves: "*" matches
// any run of characters INCLUDING "/", and "?" matches exactly one
// character including "/". This is deliberately not Go's
// path/filepath.Match or path.Match, both of which stop "*" at a path
// separator — the policy's deny_globs and risk_rules (e.g. "*.py") are
// authored against fnmatch semantics and must match "src/pkg/x.py"
// against "*.py", which filepath.Match refuses to do.
//
// Supported syntax: "*" (any run, including empty), "?" (any single rune),
// "[set]" / "[!set]" character classes with the same semantics as
// fnmatch/Python's translate (ranges via "a-z", negation via "!" or "^").
// No escaping syntax is supported, matching fnmatch's default behavior.
func MatchGlob(pattern, name string) bool {
	return matchGlob([]rune(pattern), []rune(name))
}

func matchGlob(pattern, name []rune) bool {
	// Standard greedy backtracking matcher over rune slices.
	var pi, ni int
	var starIdx = -1
	var matchIdx int

	for ni < len(name) {
		switch {
		case pi < len(pattern) && pattern[pi] == '*':
			starIdx = pi
			matchIdx = ni
			pi++
		case pi < len(pattern) && pattern[pi] == '?':
			pi++
			ni++
		case pi < len(pattern) && pattern[pi] == '[':
			end, ok := classEnd(pattern, pi)
			if !ok && name[ni] == '[' {
				pi++
				ni++
			} else if ok && matchClass(pattern[pi:end+1], name[ni]) {
				pi = end + 1
				ni++
			} else if starIdx != -1 {
				pi = starIdx + 1
				matchIdx++
				ni = matchIdx
			} else {
				return false
			}
		case pi < len(pattern) && pattern[pi] == name[ni]:
			pi++
			ni++
		case starIdx != -1:
			pi = starIdx + 1
			matchIdx++
			ni = matchIdx
		default:
			return false
		}
	}

	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}

// classEnd returns the index of the closing ']' for a class starting at
// pattern[start] == '[', and false if the class is unterminated (in which
// case '[' should be treated as a literal by the caller's fallback).
func classEnd(pattern []rune, start int) (int, bool) {
	i := start + 1
	if i < len(pattern) && (pattern[i] == '!' || pattern[i] == '^') {
		i++
	}
	if i < len(pattern) && pattern[i] == ']' {
		i++
	}
	for i < len(pattern) && pattern[i] != ']' {
		i++
	}
	if i >= len(pattern) {
		return 0, false
	}
	return i, true
}

func matchClass(class []rune, c rune) bool {
	// class includes the surrounding '[' ... ']'.
	body := class[1 : len(class)-1]
	negate := false
	if len(body) > 0 && (body[0] == '!' || body[0] == '^') {
		negate = true
		body = body[1:]
	}
	matched := false
	for i := 0; i < len(body); {
		if i+2 < len(body) && body[i+1] == '-' {
			if body[i] <= c && c <= body[i+2] {
				matched = true
			}
			i += 3
			continue
		}
		if body[i] == c {
			matched = true
		}
		i++
	}
	return matched != negate
}
