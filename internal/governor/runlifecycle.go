package governor

import (
	"time"

	"github.com/google/uuid"

	"github.com/workspace-governor/governor/internal/response"
)

// Run lifecycle tools (start_run, end_run, get_run_summary) intentionally
// bypass ValidateAction: they are how a run comes to exist in the first
// place, so they cannot depend on the run/owner preconditions ValidateAction
// enforces for every other tool. Each duplicates its own owner/run checks
// and writes its own audit entry directly.

// StartRun creates a new owner-bound run and returns its run_id.
func (g *Governor) StartRun(ownerID string, metadata map[string]any) response.Response {
	auditID := uuid.NewString()

	if ownerID == "" {
		return g.lifecycleBlocked(auditID, "start_run", "", "OWNER_ID_REQUIRED", nil)
	}

	runID := uuid.NewString()
	run := &RunRecord{
		RunID:            runID,
		OwnerHash:        hashOwner(ownerID),
		Metadata:         metadata,
		StartTime:        time.Now().UTC(),
		Status:           "active",
		ToolSequence:     []string{},
		RiskDistribution: map[string]int{},
	}
	g.Runs.Set(runID, run)
	if g.metrics != nil {
		g.metrics.ActiveRuns.Inc()
	}

	g.logAudit(auditID, "start_run", string(RiskRead), string(DecisionAllowed), response.CodeSuccess, g.hashArgs(map[string]any{"metadata": metadata}), nil, runID, ownerID)

	meta := g.GetMeta(auditID, "start_run", RiskRead, 0, runID, false)
	return response.Success("Run started", map[string]any{"run_id": runID}, meta)
}

// EndRun marks a run ended. Only the owner that started it may end it.
func (g *Governor) EndRun(runID, ownerID string) response.Response {
	auditID := uuid.NewString()

	if ownerID == "" {
		return g.lifecycleBlocked(auditID, "end_run", runID, "OWNER_ID_REQUIRED", nil)
	}

	run, ok := g.Runs.Get(runID)
	if !ok || run.OwnerHash != hashOwner(ownerID) {
		return g.lifecycleNotFound(auditID, "end_run", runID, ownerID)
	}
	if run.Status == "ended" {
		return g.lifecycleError(auditID, "end_run", runID, ownerID, "RUN_ALREADY_ENDED", response.CodeInvalidInput)
	}

	now := time.Now().UTC()
	run.EndTime = &now
	run.Status = "ended"
	g.Runs.Set(runID, run)
	if g.metrics != nil {
		g.metrics.ActiveRuns.Dec()
	}

	g.logAudit(auditID, "end_run", string(RiskRead), string(DecisionAllowed), response.CodeSuccess, g.hashArgs(map[string]any{"run_id": runID}), nil, runID, ownerID)

	meta := g.GetMeta(auditID, "end_run", RiskRead, 0, runID, false)
	return response.Success("Run ended", map[string]any{"run_id": runID, "status": run.Status}, meta)
}

// GetRunSummary returns the accumulated rollups for a run. Read-only: does
// not require the run to still be active.
func (g *Governor) GetRunSummary(runID, ownerID string) response.Response {
	auditID := uuid.NewString()

	if ownerID == "" {
		return g.lifecycleBlocked(auditID, "get_run_summary", runID, "OWNER_ID_REQUIRED", nil)
	}

	run, ok := g.Runs.Get(runID)
	if !ok || run.OwnerHash != hashOwner(ownerID) {
		return g.lifecycleNotFound(auditID, "get_run_summary", runID, ownerID)
	}

	g.logAudit(auditID, "get_run_summary", string(RiskRead), string(DecisionAllowed), response.CodeSuccess, g.hashArgs(map[string]any{"run_id": runID}), nil, runID, ownerID)

	data := map[string]any{
		"run_id":            run.RunID,
		"status":            run.Status,
		"start_time":        run.StartTime.Format("2006-01-02T15:04:05.000Z"),
		"tool_sequence":     run.ToolSequence,
		"risk_distribution": run.RiskDistribution,
		"allowed_count":     run.AllowedCount,
		"blocked_count":     run.BlockedCount,
	}
	if run.EndTime != nil {
		data["end_time"] = run.EndTime.Format("2006-01-02T15:04:05.000Z")
	}

	meta := g.GetMeta(auditID, "get_run_summary", RiskRead, 0, runID, false)
	return response.Success("Run summary", data, meta)
}

func (g *Governor) lifecycleBlocked(auditID, tool, runID, violationKey string, details map[string]any) response.Response {
	if details == nil {
		details = map[string]any{}
	}
	if runID != "" {
		details["run_id"] = runID
	}
	v := response.Violation{Key: violationKey, Details: details, ConfigPath: ""}
	g.logAudit(auditID, tool, string(RiskRead), string(DecisionBlocked), response.CodeBlocked, "", &v, runID, "")

	meta := g.GetMeta(auditID, tool, RiskRead, 0, runID, false)
	meta.Decision = string(DecisionBlocked)
	meta.Code = response.CodeBlocked
	return response.Blocked("Run lifecycle precondition failed", v, meta)
}

func (g *Governor) lifecycleNotFound(auditID, tool, runID, ownerID string) response.Response {
	g.logAudit(auditID, tool, string(RiskRead), string(DecisionError), response.CodeNotFound, "", &response.Violation{Key: "RUN_NOT_FOUND", Details: map[string]any{"run_id": runID}}, runID, ownerID)

	meta := g.GetMeta(auditID, tool, RiskRead, 0, runID, false)
	meta.Decision = string(DecisionError)
	meta.Code = response.CodeNotFound
	return response.Error("Run not found", response.CodeNotFound, map[string]any{"run_id": runID}, meta)
}

func (g *Governor) lifecycleError(auditID, tool, runID, ownerID, violationKey, code string) response.Response {
	g.logAudit(auditID, tool, string(RiskRead), string(DecisionError), code, "", &response.Violation{Key: violationKey, Details: map[string]any{"run_id": runID}}, runID, ownerID)

	meta := g.GetMeta(auditID, tool, RiskRead, 0, runID, false)
	meta.Decision = string(DecisionError)
	meta.Code = code
	return response.Error("Run lifecycle error", code, map[string]any{"run_id": runID, "violation": violationKey}, meta)
}
