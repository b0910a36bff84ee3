package governor

import (
	"log/slog"
	"time"

	"github.com/workspace-governor/governor/internal/response"
)

// logAudit writes one synchronous audit entry and, unless tool is a
// lifecycle tool (start_run/end_run/get_run_summary), mutates the owning
// run's tool_sequence/risk_distribution/allowed_count/blocked_count. The
// run is only counted into when it exists, has not ended, and ownerID
// hashes to its owner.
// Lifecycle tools still get an audit entry — they just never count toward
// their own run's rollups, matching the original's non_counted_tools set.
// The entry is keyed by auditID so a caller can UpdateAudit once the
// underlying I/O finishes and its duration is known.
func (g *Governor) logAudit(auditID, tool, risk, decision, code, argsHash string, violation *response.Violation, runID, ownerID string) {
	entry := &AuditEntry{
		AuditID:          auditID,
		Timestamp:        nowTimestamp(),
		Tool:             tool,
		Risk:             risk,
		Decision:         decision,
		Code:             code,
		ArgsSHA256:       argsHash,
		DurationMs:       0,
		PolicyHash:       g.Config.PolicyHash,
		PolicyProfile:    g.Config.Profile,
		ServerInstanceID: g.ServerInstanceID,
		RunCounter:       g.runCounter.Load(),
		Violation:        violation,
		RunID:            runID,
	}
	if ownerID != "" {
		entry.OwnerIDHash = hashOwner(ownerID)
	}

	g.AuditLogs.Set(auditID, entry)
	if g.metrics != nil {
		g.metrics.ObserveAudit(tool)
	}

	if lifecycleTools[tool] {
		return
	}
	if runID == "" {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	run, ok := g.Runs.Get(runID)
	if !ok || run.Status == "ended" || run.OwnerHash != entry.OwnerIDHash {
		return
	}
	run.ToolSequence = append(run.ToolSequence, tool)
	if run.RiskDistribution == nil {
		run.RiskDistribution = map[string]int{}
	}
	run.RiskDistribution[risk]++
	if decision == string(DecisionAllowed) {
		run.AllowedCount++
	} else if decision == string(DecisionBlocked) {
		run.BlockedCount++
	}
	g.Runs.Set(runID, run)
}

// UpdateAudit back-fills the duration once a tool call has finished its
// actual I/O, since that elapsed time is not known at ValidateAction time.
func (g *Governor) UpdateAudit(auditID string, durationMs int64) {
	entry, ok := g.AuditLogs.Get(auditID)
	if !ok {
		slog.Debug("governor: audit entry not found for duration update", "id", auditID)
		return
	}
	entry.DurationMs = durationMs
	g.AuditLogs.Set(auditID, entry)
}

func nowTimestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}
