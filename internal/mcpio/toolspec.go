package mcpio

// Tool name constants mirror the operation names bound in server.py's
// _bind_tools: the MCP tool name is always the operation name, never the
// internal/tool Go function name (which is capitalized for export).
const (
	ToolWorkspaceInfo        = "workspace_info"
	ToolRepoSearch           = "repo_search"
	ToolReadFile             = "read_file"
	ToolValidatePatch        = "validate_patch"
	ToolApplyPatch           = "apply_patch"
	ToolRunTask              = "run_task"
	ToolStartRun             = "start_run"
	ToolEndRun               = "end_run"
	ToolGetRunSummary        = "get_run_summary"
	ToolCreateChangeBundle   = "create_change_bundle"
	ToolBundleReport         = "bundle_report"
	ToolExplainPolicyDecision = "explain_policy_decision"
	ToolKernelVersion        = "kernel_version"
	ToolSelfCheck            = "self_check"
)

// toolDescriptions gives every registered tool the one-line description
// the MCP client sees in its tool listing. Kept short, matching the
// descriptions the teacher's credentials-mcp registers with mcp.AddTool.
var toolDescriptions = map[string]string{
	ToolWorkspaceInfo:         "Report workspace root, allowed tasks, and active policy limits.",
	ToolRepoSearch:            "Search repository contents for a text query, honoring deny globs and file globs.",
	ToolReadFile:              "Read a workspace file, optionally restricted to a line range.",
	ToolValidatePatch:         "Check that a target file exists in the workspace and that a diff has unified-diff headers, without applying it.",
	ToolApplyPatch:            "Apply a unified diff to the workspace.",
	ToolRunTask:               "Run an allowlisted task by name inside the workspace.",
	ToolStartRun:              "Start a new run, returning a run_id subsequent tool calls should pass.",
	ToolEndRun:                "Mark a run ended.",
	ToolGetRunSummary:         "Report the status and tool-call counts for a run.",
	ToolCreateChangeBundle:    "Record a reviewable bundle of changes for a diff.",
	ToolBundleReport:          "Report the status of a previously created change bundle.",
	ToolExplainPolicyDecision: "Explain why a previous tool call was allowed or blocked.",
	ToolKernelVersion:         "Report the governor kernel, contract, and policy schema versions.",
	ToolSelfCheck:             "Run internal consistency checks and report their status.",
}
