package tool

import (
	"github.com/workspace-governor/governor/internal/governor"
	"github.com/workspace-governor/governor/internal/response"
)

// StartRun, EndRun, and GetRunSummary forward straight to the governor:
// the lifecycle's audit/meta bookkeeping is the whole of the operation,
// so there is no separate I/O step for an adapter to wrap. They exist
// here, rather than being called directly by the transport, so every tool
// name the MCP server dispatches on resolves through this one package.
func StartRun(g *governor.Governor, ownerID string, metadata map[string]any) response.Response {
	return g.StartRun(ownerID, metadata)
}

func EndRun(g *governor.Governor, runID, ownerID string) response.Response {
	return g.EndRun(runID, ownerID)
}

func GetRunSummary(g *governor.Governor, runID, ownerID string) response.Response {
	return g.GetRunSummary(runID, ownerID)
}
