package tool

import (
	"strings"
	"time"

	"github.com/workspace-governor/governor/internal/governor"
	"github.com/workspace-governor/governor/internal/response"
)

type checkResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// SelfCheck runs a handful of internal consistency checks and reports
// "ok" only if every one of them passes: the policy actually loaded, the
// three bounded stores were constructed with sane (positive) capacity and
// TTL, and a freshly built meta block satisfies the timestamp contract.
func SelfCheck(g *governor.Governor, runID, ownerID string) response.Response {
	start := time.Now()
	decision := g.ValidateAction("self_check", governor.RiskRead, map[string]any{}, runID, ownerID, false)
	if !decision.Allowed() {
		return finish(g, decision.AuditID, start, *decision.BlockResponse)
	}

	checks := []checkResult{
		checkPolicyLoaded(g),
		checkBoundedStores(g),
		checkMetaContract(g, decision.AuditID, runID),
	}

	overall := "ok"
	for _, c := range checks {
		if c.Status != "ok" {
			overall = "error"
			break
		}
	}

	data := map[string]any{
		"status":         overall,
		"kernel_version": governor.KernelVersion,
		"checks":         checks,
	}

	meta := g.GetMeta(decision.AuditID, "self_check", governor.RiskRead, 0, runID, false)
	summary := "Self check passed"
	if overall != "ok" {
		summary = "Self check found a problem"
	}
	return finish(g, decision.AuditID, start, response.Success(summary, data, meta))
}

func checkPolicyLoaded(g *governor.Governor) checkResult {
	if g.Config == nil || g.Config.PolicyHash == "" || g.Config.Profile == "" {
		return checkResult{Name: "policy_loaded", Status: "error", Error: "policy config or hash is empty"}
	}
	return checkResult{Name: "policy_loaded", Status: "ok"}
}

// checkBoundedStores validates the capacity/TTL configuration that backs
// Runs, Bundles, and AuditLogs. boundedstore.Store exposes no accessor for
// its own maxSize/ttl (they are set once at construction and never need to
// be read back), so this checks the same policy.Config fields that
// governor.New used to build them, plus that the store pointers
// themselves are non-nil.
func checkBoundedStores(g *governor.Governor) checkResult {
	if g.Runs == nil || g.Bundles == nil || g.AuditLogs == nil {
		return checkResult{Name: "bounded_stores", Status: "error", Error: "a bounded store was never constructed"}
	}
	limits := map[string]int{
		"max_runs": g.Config.MaxRuns, "run_ttl_seconds": g.Config.RunTTLSeconds,
		"max_bundles": g.Config.MaxBundles, "bundle_ttl_seconds": g.Config.BundleTTLSeconds,
		"max_audit_logs": g.Config.MaxAuditLogs, "audit_ttl_seconds": g.Config.AuditTTLSeconds,
	}
	for name, v := range limits {
		if v <= 0 {
			return checkResult{Name: "bounded_stores", Status: "error", Error: name + " must be positive"}
		}
	}
	return checkResult{Name: "bounded_stores", Status: "ok"}
}

func checkMetaContract(g *governor.Governor, auditID, runID string) checkResult {
	meta := g.GetMeta(auditID, "self_check", governor.RiskRead, 0, runID, false)
	if !strings.HasSuffix(meta.Timestamp, "Z") {
		return checkResult{Name: "meta_contract", Status: "error", Error: "timestamp missing Z suffix"}
	}
	return checkResult{Name: "meta_contract", Status: "ok"}
}
