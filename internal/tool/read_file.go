package tool

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/workspace-governor/governor/internal/governor"
	"github.com/workspace-governor/governor/internal/pathsafety"
	"github.com/workspace-governor/governor/internal/response"
)

// ReadFile reads a line range from a file inside the workspace root.
// startLine/endLine are 1-based and inclusive; a zero endLine means "to
// the end of the file".
func ReadFile(g *governor.Governor, path string, startLine, endLine int, runID, ownerID string) response.Response {
	start := time.Now()
	decision := g.ValidateAction("read_file", governor.RiskRead, map[string]any{"path": path}, runID, ownerID, false)
	if !decision.Allowed() {
		return finish(g, decision.AuditID, start, *decision.BlockResponse)
	}

	resolved, err := pathsafety.Resolve(g.Root, path)
	if err == nil {
		err = pathsafety.Validate(resolved, g.Root, g.Config.DenyGlobs, g.Config.AllowPaths)
	}
	if err != nil {
		var pathErr *pathsafety.Error
		if errors.As(err, &pathErr) {
			meta := g.GetMeta(decision.AuditID, "read_file", governor.RiskRead, 0, runID, false)
			v := response.Violation{Key: "PATH_OUTSIDE_ALLOW_PATHS", Details: map[string]any{"error": pathErr.Error()}, ConfigPath: ""}
			return finish(g, decision.AuditID, start, response.Blocked("Read targets unsafe file", v, meta))
		}
		meta := g.GetMeta(decision.AuditID, "read_file", governor.RiskRead, 0, runID, false)
		return finish(g, decision.AuditID, start, response.Error(err.Error(), response.CodeToolFailed, nil, meta))
	}

	info, err := os.Stat(resolved)
	if err != nil {
		meta := g.GetMeta(decision.AuditID, "read_file", governor.RiskRead, 0, runID, false)
		if os.IsNotExist(err) {
			return finish(g, decision.AuditID, start, response.Error("File not found", response.CodeNotFound, map[string]any{"path": path}, meta))
		}
		return finish(g, decision.AuditID, start, response.Error(err.Error(), response.CodeToolFailed, nil, meta))
	}

	if int64(g.Config.MaxFileBytes) > 0 && info.Size() > int64(g.Config.MaxFileBytes) {
		meta := g.GetMeta(decision.AuditID, "read_file", governor.RiskRead, 0, runID, false)
		v := response.Violation{
			Key:        "FILE_EXCEEDS_MAX_BYTES",
			Details:    map[string]any{"path": path, "size": info.Size(), "max_file_bytes": g.Config.MaxFileBytes},
			ConfigPath: fmt.Sprintf("profiles.%s.max_file_bytes", g.Config.Profile),
		}
		return finish(g, decision.AuditID, start, response.Blocked("File exceeds max_file_bytes", v, meta))
	}

	raw, err := os.ReadFile(resolved)
	if err != nil {
		meta := g.GetMeta(decision.AuditID, "read_file", governor.RiskRead, 0, runID, false)
		return finish(g, decision.AuditID, start, response.Error(err.Error(), response.CodeToolFailed, nil, meta))
	}

	lines := strings.Split(string(raw), "\n")
	totalLines := len(lines)

	if startLine < 0 || endLine < 0 || (startLine > 0 && endLine > 0 && endLine < startLine) {
		meta := g.GetMeta(decision.AuditID, "read_file", governor.RiskRead, 0, runID, false)
		v := response.Violation{
			Key:        "INVALID_LINE_RANGE",
			Details:    map[string]any{"start_line": startLine, "end_line": endLine, "total_lines": totalLines},
			ConfigPath: "",
		}
		return finish(g, decision.AuditID, start, response.Blocked("Invalid line range", v, meta))
	}
	if startLine == 0 {
		startLine = 1
	}
	if endLine == 0 || endLine > totalLines {
		endLine = totalLines
	}

	lo, hi := startLine-1, endLine
	if lo > totalLines {
		lo = totalLines
	}
	if hi > totalLines {
		hi = totalLines
	}
	slice := lines[lo:hi]

	rel, err := pathsafety.Relative(resolved, g.Root)
	if err != nil {
		rel = path
	}

	data := map[string]any{
		"path":        rel,
		"content":     strings.Join(slice, "\n"),
		"total_lines": totalLines,
		"lines_read":  fmt.Sprintf("%d-%d", lo+1, hi),
	}

	meta := g.GetMeta(decision.AuditID, "read_file", governor.RiskRead, 0, runID, false)
	return finish(g, decision.AuditID, start, response.Success(fmt.Sprintf("Read %s", rel), data, meta))
}
