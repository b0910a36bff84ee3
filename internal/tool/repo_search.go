package tool

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/workspace-governor/governor/internal/governor"
	"github.com/workspace-governor/governor/internal/pathsafety"
	"github.com/workspace-governor/governor/internal/response"
)

// SearchMatch is one line matched by RepoSearch.
type SearchMatch struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

const defaultSearchLimit = 50
const maxSearchLimit = 200

// RepoSearch finds lines matching query under the workspace root,
// respecting the policy's deny_globs and an optional caller-supplied set
// of file globs to restrict the search to. It shells out to ripgrep when
// available, since that is dramatically faster on a large tree, and falls
// back to a plain directory walk otherwise.
func RepoSearch(g *governor.Governor, query string, fileGlobs []string, limit int, runID, ownerID string) response.Response {
	start := time.Now()
	decision := g.ValidateAction("repo_search", governor.RiskRead, map[string]any{"query": query}, runID, ownerID, false)
	if !decision.Allowed() {
		return finish(g, decision.AuditID, start, *decision.BlockResponse)
	}

	if strings.TrimSpace(query) == "" {
		meta := g.GetMeta(decision.AuditID, "repo_search", governor.RiskRead, 0, runID, false)
		v := response.Violation{Key: "INVALID_QUERY", Details: map[string]any{"query": query}, ConfigPath: ""}
		return finish(g, decision.AuditID, start, response.Blocked("Search query must not be empty", v, meta))
	}

	bounded := limit
	if bounded <= 0 {
		bounded = defaultSearchLimit
	}
	if bounded > maxSearchLimit {
		bounded = maxSearchLimit
	}

	timeout := g.Config.MaxRuntime()
	if timeout <= 0 || timeout > 10*time.Second {
		timeout = 10 * time.Second
	}

	matches, truncated, engineErr := searchWithRipgrep(g.Root, query, g.Config.DenyGlobs, fileGlobs, bounded, timeout)
	if engineErr != nil {
		matches, truncated = searchWithWalk(g.Root, query, g.Config.DenyGlobs, fileGlobs, bounded, int64(g.Config.MaxFileBytes))
	}

	data := map[string]any{
		"matches":   matches,
		"count":     len(matches),
		"truncated": truncated,
	}
	meta := g.GetMeta(decision.AuditID, "repo_search", governor.RiskRead, 0, runID, false)
	meta.OutputTruncated = truncated
	return finish(g, decision.AuditID, start, response.Success(fmt.Sprintf("Found %d match(es)", len(matches)), data, meta))
}

// searchWithRipgrep shells out to `rg`. A non-nil error means ripgrep is
// unavailable or failed outright; the caller falls back to the native
// walk in that case (rg exiting 1 for "no matches" is not an error here).
func searchWithRipgrep(root, query string, denyGlobs, fileGlobs []string, limit int, timeout time.Duration) ([]SearchMatch, bool, error) {
	if _, err := exec.LookPath("rg"); err != nil {
		return nil, false, err
	}

	args := []string{"--no-heading", "--line-number", "--max-count", strconv.Itoa(limit)}
	for _, glob := range denyGlobs {
		args = append(args, "-g", "!"+glob)
	}
	for _, glob := range fileGlobs {
		args = append(args, "-g", glob)
	}
	args = append(args, query, ".")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, "rg", args...)
	cmd.Dir = root
	cmd.Env = scrubbedEnv()
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	runErr := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, false, ctx.Err()
	}
	// Exit code 1 from rg means "ran fine, no matches" — not a failure.
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return []SearchMatch{}, false, nil
		}
		return nil, false, runErr
	}

	var matches []SearchMatch
	scanner := bufio.NewScanner(&stdout)
	for scanner.Scan() {
		m, ok := parseRipgrepLine(scanner.Text())
		if ok {
			matches = append(matches, m)
		}
	}
	return matches, len(matches) >= limit, nil
}

// parseRipgrepLine parses one "path:line:text" line from
// --no-heading --line-number output.
func parseRipgrepLine(line string) (SearchMatch, bool) {
	first := strings.IndexByte(line, ':')
	if first < 0 {
		return SearchMatch{}, false
	}
	second := strings.IndexByte(line[first+1:], ':')
	if second < 0 {
		return SearchMatch{}, false
	}
	second += first + 1
	lineNo, err := strconv.Atoi(line[first+1 : second])
	if err != nil {
		return SearchMatch{}, false
	}
	return SearchMatch{
		Path: strings.TrimPrefix(line[:first], "./"),
		Line: lineNo,
		Text: line[second+1:],
	}, true
}

// searchWithWalk is the pure-Go fallback used when ripgrep is not
// installed: a directory walk honoring the same deny_globs/file_globs and
// a per-file byte cap, skipping any file larger than maxFileBytes rather
// than partially matching it.
func searchWithWalk(root, query string, denyGlobs, fileGlobs []string, limit int, maxFileBytes int64) ([]SearchMatch, bool) {
	var matches []SearchMatch
	truncated := false

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || truncated {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := pathsafety.Relative(path, root)
		if relErr != nil {
			return nil
		}
		for _, glob := range denyGlobs {
			if pathsafety.MatchGlob(glob, rel) {
				return nil
			}
		}
		if len(fileGlobs) > 0 {
			matched := false
			for _, glob := range fileGlobs {
				if pathsafety.MatchGlob(glob, rel) {
					matched = true
					break
				}
			}
			if !matched {
				return nil
			}
		}
		info, statErr := d.Info()
		if statErr != nil || (maxFileBytes > 0 && info.Size() > maxFileBytes) {
			return nil
		}

		f, openErr := os.Open(path)
		if openErr != nil {
			return nil
		}
		defer f.Close()

		lineNo := 0
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lineNo++
			text := scanner.Text()
			if strings.Contains(text, query) {
				matches = append(matches, SearchMatch{Path: rel, Line: lineNo, Text: text})
				if len(matches) >= limit {
					truncated = true
					return filepath.SkipAll
				}
			}
		}
		return nil
	})

	if matches == nil {
		matches = []SearchMatch{}
	}
	return matches, truncated
}
