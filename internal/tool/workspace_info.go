package tool

import (
	"runtime"
	"time"

	"github.com/workspace-governor/governor/internal/governor"
	"github.com/workspace-governor/governor/internal/response"
)

// WorkspaceInfo reports the static facts a caller needs before choosing
// which other tools to call: the workspace root, the Go runtime version
// standing in for the original's interpreter version, the task names the
// active policy allowlists, and the file-size/runtime limits in force.
func WorkspaceInfo(g *governor.Governor, runID, ownerID string) response.Response {
	start := time.Now()
	decision := g.ValidateAction("workspace_info", governor.RiskRead, map[string]any{}, runID, ownerID, false)
	if !decision.Allowed() {
		return finish(g, decision.AuditID, start, *decision.BlockResponse)
	}

	allowed := make([]string, 0, len(g.Config.AllowTasks))
	for name := range g.Config.AllowTasks {
		allowed = append(allowed, name)
	}

	data := map[string]any{
		"workspace_root": g.Root,
		"go_version":     runtime.Version(),
		"allowed_tasks":  allowed,
		"limits": map[string]any{
			"max_file_bytes":      g.Config.MaxFileBytes,
			"max_runtime_seconds": g.Config.MaxRuntimeSeconds,
		},
	}

	meta := g.GetMeta(decision.AuditID, "workspace_info", governor.RiskRead, 0, runID, false)
	return finish(g, decision.AuditID, start, response.Success("Workspace info", data, meta))
}
