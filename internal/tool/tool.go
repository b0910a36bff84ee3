// Package tool implements the workspace-facing adapters dispatched by the
// MCP stdio transport: one function per tool name, each following the
// same five-step shape as ValidateAction's callers everywhere else in this
// codebase — record a start time, check the decision, do the bounded I/O,
// stamp the duration, return the envelope.
package tool

import (
	"time"

	"github.com/workspace-governor/governor/internal/governor"
	"github.com/workspace-governor/governor/internal/response"
)

// finish stamps resp's duration_ms (both in its meta block and in the
// corresponding audit row) and returns it. Every adapter funnels its
// return value through this, including the blocked and error paths, so
// that duration is never missing from an audit entry.
func finish(g *governor.Governor, auditID string, start time.Time, resp response.Response) response.Response {
	ms := time.Since(start).Milliseconds()
	resp.Meta.DurationMs = ms
	g.UpdateAudit(auditID, ms)
	return resp
}

// scrubbedEnv is the fixed environment every subprocess this package
// launches runs with: no caller secrets, no ambient PATH surprises.
func scrubbedEnv() []string {
	return []string{"PATH=/usr/bin:/bin:/usr/local/bin", "LANG=C.UTF-8"}
}

// truncateOutput caps b at maxBytes, appending a marker and reporting
// truncation. maxBytes <= 0 means unlimited.
func truncateOutput(b []byte, maxBytes int) (string, bool) {
	if maxBytes <= 0 || len(b) <= maxBytes {
		return string(b), false
	}
	return string(b[:maxBytes]) + "\n... [TRUNCATED]", true
}
