package governor

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/workspace-governor/governor/internal/response"
)

// explanation is one row of the violation -> human-facing guidance table.
type explanation struct {
	Evidence              string
	CompliantAlternative  string
	ConfigLocationFormat  string
}

// violationExplanations covers every violation key ValidateAction and the
// run lifecycle can produce. explain_policy_decision looks a key up here
// rather than re-deriving the explanation from the raw policy each time.
var violationExplanations = map[string]explanation{
	"PATH_MATCHES_DENY_GLOBS": {
		Evidence:             "The path matches one of the profile's deny_globs patterns.",
		CompliantAlternative: "Choose a path that does not match any deny_globs entry, or ask an operator to narrow the glob.",
		ConfigLocationFormat: "profiles.%s.deny_globs",
	},
	"PATH_OUTSIDE_ALLOW_PATHS": {
		Evidence:             "The path does not fall under any of the profile's allow_paths prefixes.",
		CompliantAlternative: "Use a path under one of allow_paths, or ask an operator to add the needed prefix.",
		ConfigLocationFormat: "profiles.%s.allow_paths",
	},
	"TASK_NOT_ALLOWLISTED": {
		Evidence:             "The requested task_name is not a key in the profile's allow_tasks map.",
		CompliantAlternative: "Use one of the allowlisted task names, or ask an operator to register the task's argv.",
		ConfigLocationFormat: "profiles.%s.allow_tasks",
	},
	"RUN_ID_REQUIRED": {
		Evidence:             "This profile (or the strict flag) requires an active run_id for write/execute calls.",
		CompliantAlternative: "Call start_run first and pass the returned run_id on subsequent write/execute calls.",
		ConfigLocationFormat: "profiles.%s",
	},
	"OWNER_ID_REQUIRED": {
		Evidence:             "A run-scoped call was made without an owner_id.",
		CompliantAlternative: "Pass the same owner_id used to start the run.",
		ConfigLocationFormat: "",
	},
	"FILE_EXCEEDS_MAX_BYTES": {
		Evidence:             "The target file is larger than the profile's max_file_bytes limit.",
		CompliantAlternative: "Read a smaller file (a line range does not lift the limit), or ask an operator to raise max_file_bytes.",
		ConfigLocationFormat: "profiles.%s.max_file_bytes",
	},
	"PATH_SAFETY_ERROR": {
		Evidence:             "The path could not be safely resolved inside the workspace root (traversal, symlink escape, or similar).",
		CompliantAlternative: "Use a path that resolves to a location inside the workspace root.",
		ConfigLocationFormat: "",
	},
	"INVALID_LINE_RANGE": {
		Evidence:             "start_line or end_line was negative, or end_line was less than start_line.",
		CompliantAlternative: "Pass a 1-based start_line <= end_line, or omit both to read the whole file.",
		ConfigLocationFormat: "",
	},
	"RUN_NOT_FOUND": {
		Evidence:             "No active run matches the given run_id for the given owner_id.",
		CompliantAlternative: "Call start_run to obtain a valid run_id, and pass the matching owner_id.",
		ConfigLocationFormat: "",
	},
	"RUN_ALREADY_ENDED": {
		Evidence:             "The run has already been ended and cannot accept further writes.",
		CompliantAlternative: "Call start_run to begin a new run.",
		ConfigLocationFormat: "",
	},
	"BUNDLE_NOT_FOUND": {
		Evidence:             "No change bundle matches the given bundle_id for the given owner_id.",
		CompliantAlternative: "Ensure the bundle_id is correct and belongs to the provided owner_id.",
		ConfigLocationFormat: "",
	},
	"INVALID_QUERY": {
		Evidence:             "The search query was empty or whitespace-only.",
		CompliantAlternative: "Pass a non-empty query string.",
		ConfigLocationFormat: "",
	},
}

// defaultExplanation covers violation keys with no dedicated table entry.
var defaultExplanation = explanation{
	Evidence:             "The action violated the workspace security policy.",
	CompliantAlternative: "Review the policy configuration to ensure this action is permitted.",
}

// ExplainPolicyDecision looks up a previously logged audit entry and
// reports why it was allowed or blocked. It never writes an audit entry
// itself (skip_audit behavior): the caller is asking what the policy did,
// not performing an action the policy should govern. A missing audit_id
// and an owner_id mismatch against the logged entry both surface as the
// same not_found response, the same leakage policy ValidateAction applies
// to runs and bundles.
func (g *Governor) ExplainPolicyDecision(auditID, ownerID string) response.Response {
	callAuditID := uuid.NewString()
	meta := g.GetMeta(callAuditID, "explain_policy_decision", RiskRead, 0, "", false)

	entry, ok := g.AuditLogs.Get(auditID)
	if !ok || (ownerID != "" && entry.OwnerIDHash != hashOwner(ownerID)) {
		meta.Decision = string(DecisionError)
		meta.Code = response.CodeNotFound
		return response.Error(
			"Audit log not found",
			response.CodeNotFound,
			map[string]any{"audit_id": auditID},
			meta,
		)
	}

	data := map[string]any{
		"audit_id": auditID,
		"tool":     entry.Tool,
		"decision": entry.Decision,
	}

	if entry.Decision == string(DecisionBlocked) && entry.Violation != nil {
		key := entry.Violation.Key
		exp, known := violationExplanations[key]
		if !known {
			exp = defaultExplanation
		}
		configLocation := entry.Violation.ConfigPath
		if configLocation == "" && exp.ConfigLocationFormat != "" {
			configLocation = fmt.Sprintf(exp.ConfigLocationFormat, g.Config.Profile)
		}
		if configLocation == "" {
			configLocation = "unknown"
		}
		data["rule_triggered"] = key
		data["evidence"] = exp.Evidence
		data["compliant_alternative"] = exp.CompliantAlternative
		data["config_location"] = configLocation
	} else {
		data["rule_triggered"] = "None"
		data["evidence"] = "The action passed all policy checks."
		data["compliant_alternative"] = "N/A"
		data["config_location"] = "N/A"
	}

	return response.Success(fmt.Sprintf("Explained policy decision for %s", auditID), data, meta)
}
