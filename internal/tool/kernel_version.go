package tool

import (
	"time"

	"github.com/workspace-governor/governor/internal/governor"
	"github.com/workspace-governor/governor/internal/response"
)

// KernelVersion reports the governor build, contract, and policy
// identifiers a caller needs to decide whether it is compatible with this
// server instance.
func KernelVersion(g *governor.Governor, runID, ownerID string) response.Response {
	start := time.Now()
	decision := g.ValidateAction("kernel_version", governor.RiskRead, map[string]any{}, runID, ownerID, false)
	if !decision.Allowed() {
		return finish(g, decision.AuditID, start, *decision.BlockResponse)
	}

	data := map[string]any{
		"kernel_version":       governor.KernelVersion,
		"contract_version":     response.ContractVersion,
		"policy_schema_version": governor.PolicySchemaVersion,
		"policy_profile":       g.Config.Profile,
		"policy_hash":          g.Config.PolicyHash,
		"server_instance_id":   g.ServerInstanceID,
	}

	meta := g.GetMeta(decision.AuditID, "kernel_version", governor.RiskRead, 0, runID, false)
	return finish(g, decision.AuditID, start, response.Success("Kernel version", data, meta))
}
