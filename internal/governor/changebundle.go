package governor

import (
	"sort"
	"strings"
	"time"

	"github.com/workspace-governor/governor/internal/canonicalhash"
	"github.com/workspace-governor/governor/internal/pathsafety"
	"github.com/workspace-governor/governor/internal/response"
)

// normalizeDiffText collapses CRLF/CR to LF, right-strips trailing
// whitespace from every line, and drops trailing blank lines, so a
// bundle's content hash is stable across platforms and editors that
// produced the diff. Matches change_bundle.py's normalize_diff_text.
func normalizeDiffText(diff string) string {
	diff = strings.ReplaceAll(diff, "\r\n", "\n")
	diff = strings.ReplaceAll(diff, "\r", "\n")

	lines := strings.Split(diff, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\f\v")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// bundleID computes the content-addressed identifier for a change bundle:
// a canonical hash over the contract version, the active policy hash, the
// sorted target file list, and the normalized diff text. Two identical
// diffs against the same policy always produce the same bundle_id, which
// is what makes CreateChangeBundle idempotent.
func bundleID(policyHash string, targetFiles []string, diffText string) (string, error) {
	sorted := append([]string(nil), targetFiles...)
	sort.Strings(sorted)
	return canonicalhash.Sum(map[string]any{
		"contract_version": response.ContractVersion,
		"policy_hash":      policyHash,
		"target_files":     sorted,
		"diff":             normalizeDiffText(diffText),
	})
}

// ComputeBundleID exposes bundleID to callers outside the package, namely
// the verify-bundle command checking a diff/policy_hash/target_files tuple
// from the golden corpus against its recorded expected_bundle_id.
func ComputeBundleID(policyHash string, targetFiles []string, diffText string) (string, error) {
	return bundleID(policyHash, targetFiles, diffText)
}

// classifyRisk returns the highest risk tier any of targetFiles matches,
// checked high, then medium, then low, falling back to low if nothing
// matches any configured glob.
func (g *Governor) classifyRisk(targetFiles []string) string {
	for _, f := range targetFiles {
		for _, glob := range g.Config.RiskRules.HighGlobs {
			if pathsafety.MatchGlob(glob, f) {
				return "high"
			}
		}
	}
	for _, f := range targetFiles {
		for _, glob := range g.Config.RiskRules.MediumGlobs {
			if pathsafety.MatchGlob(glob, f) {
				return "medium"
			}
		}
	}
	return "low"
}

// CreateChangeBundle registers (or, if an identical bundle already exists,
// returns) a content-addressed record of a proposed change. Like every
// write-risk tool, it is mediated by ValidateAction: a ci-profile call
// with no run_id is blocked with RUN_ID_REQUIRED, and targetFiles are
// checked against deny_globs/allow_paths before the bundle is recorded.
// Embedders that already know their target file list (pkg/governorsdk)
// call this directly; the MCP-facing create_change_bundle tool instead
// calls StoreChangeBundle after parsing targets from the diff itself and
// running its own filesystem-level path-safety check against the same
// decision, matching change_bundle.py's single-decision flow.
func (g *Governor) CreateChangeBundle(diffText string, targetFiles []string, runID, ownerID string, metadata map[string]any) response.Response {
	decision := g.ValidateAction("create_change_bundle", RiskWrite, map[string]any{"diff_size": len(diffText), "paths": targetFiles}, runID, ownerID, false)
	if !decision.Allowed() {
		return *decision.BlockResponse
	}
	return g.StoreChangeBundle(decision.AuditID, diffText, targetFiles, runID, metadata, ownerID)
}

// StoreChangeBundle computes the bundle id and records it without calling
// ValidateAction; callers that need their own decision (the MCP adapter,
// which validates before it has finished resolving target paths) supply
// the auditID from their own ValidateAction call.
func (g *Governor) StoreChangeBundle(auditID, diffText string, targetFiles []string, runID string, metadata map[string]any, ownerID string) response.Response {
	id, err := bundleID(g.Config.PolicyHash, targetFiles, diffText)
	if err != nil {
		meta := g.GetMeta(auditID, "create_change_bundle", RiskWrite, 0, runID, false)
		meta.Decision = string(DecisionError)
		meta.Code = response.CodeToolFailed
		return response.Error("Failed to compute bundle id", response.CodeToolFailed, nil, meta)
	}

	ownerHash := ""
	if ownerID != "" {
		ownerHash = hashOwner(ownerID)
	}

	created := false
	g.mu.Lock()
	existing, ok := g.Bundles.Get(id)
	if !ok {
		created = true
		existing = &BundleRecord{
			BundleID:    id,
			DiffText:    normalizeDiffText(diffText),
			Metadata:    metadata,
			TargetFiles: append([]string(nil), targetFiles...),
			CreatedAt:   time.Now().UTC(),
			OwnerHash:   ownerHash,
		}
		g.Bundles.Set(id, existing)
		if g.metrics != nil {
			g.metrics.BundlesCreated.Inc()
		}
	}
	g.mu.Unlock()

	sort.Strings(existing.TargetFiles)
	data := map[string]any{
		"bundle_id":    existing.BundleID,
		"target_files": existing.TargetFiles,
		"risk":         g.classifyRisk(existing.TargetFiles),
		"created_at":   existing.CreatedAt.Format("2006-01-02T15:04:05.000Z"),
	}

	meta := g.GetMeta(auditID, "create_change_bundle", RiskWrite, 0, runID, false)
	summary := "Returned existing change bundle"
	if created {
		summary = "Change bundle created"
	}
	return response.Success(summary, data, meta)
}

// BundleReport returns risk classification and line-delta statistics for a
// previously created bundle. Like run lookups, an owner mismatch is
// indistinguishable from an absent bundle_id.
func (g *Governor) BundleReport(bundleID, runID, ownerID string) response.Response {
	decision := g.ValidateAction("bundle_report", RiskRead, map[string]any{"bundle_id": bundleID}, runID, ownerID, false)
	if !decision.Allowed() {
		return *decision.BlockResponse
	}

	bundle, ok := g.Bundles.Get(bundleID)
	mismatched := ok && bundle.OwnerHash != "" && bundle.OwnerHash != hashOwner(ownerID)
	if !ok || mismatched {
		meta := g.GetMeta(decision.AuditID, "bundle_report", RiskRead, 0, runID, false)
		meta.Decision = string(DecisionError)
		meta.Code = response.CodeNotFound
		return response.Error("Bundle not found", response.CodeNotFound, map[string]any{"bundle_id": bundleID}, meta)
	}

	added, removed := diffLineStats(bundle.DiffText)
	data := map[string]any{
		"bundle_id":     bundle.BundleID,
		"target_files":  bundle.TargetFiles,
		"risk":          g.classifyRisk(bundle.TargetFiles),
		"lines_added":   added,
		"lines_removed": removed,
		"created_at":    bundle.CreatedAt.Format("2006-01-02T15:04:05.000Z"),
	}

	meta := g.GetMeta(decision.AuditID, "bundle_report", RiskRead, 0, runID, false)
	return response.Success("Bundle report", data, meta)
}

// diffLineStats counts unified-diff added/removed lines, ignoring the
// +++ / --- file header lines.
func diffLineStats(diff string) (added, removed int) {
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---"):
			continue
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	return added, removed
}
