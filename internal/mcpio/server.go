// Package mcpio wires the governor's tool adapters onto a stdio MCP
// server, matching the tool surface _bind_tools exposes in the Python
// original: one mcp.Tool per internal/tool adapter, with arguments
// sanitized before they reach the governor's decision pipeline.
package mcpio

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/workspace-governor/governor/internal/domain/validation"
	"github.com/workspace-governor/governor/internal/governor"
	"github.com/workspace-governor/governor/internal/response"
	"github.com/workspace-governor/governor/internal/tool"
)

// Server binds a governor.Governor to an MCP tool surface over stdio.
type Server struct {
	gov       *governor.Governor
	sanitizer *validation.Sanitizer
	mcpServer *mcp.Server
}

// New builds a Server with every tool registered, ready to Run.
func New(gov *governor.Governor, name, version string) *Server {
	s := &Server{
		gov:       gov,
		sanitizer: validation.NewSanitizer(),
	}

	impl := &mcp.Implementation{
		Name:    name,
		Title:   "Workspace Governor",
		Version: version,
	}
	s.mcpServer = mcp.NewServer(impl, &mcp.ServerOptions{HasTools: true})
	s.bindTools()
	return s
}

// Run serves the bound tools over stdio until ctx is canceled or the
// client closes the connection.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) bindTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{Name: ToolWorkspaceInfo, Description: toolDescriptions[ToolWorkspaceInfo]}, s.workspaceInfo)
	mcp.AddTool(s.mcpServer, &mcp.Tool{Name: ToolRepoSearch, Description: toolDescriptions[ToolRepoSearch]}, s.repoSearch)
	mcp.AddTool(s.mcpServer, &mcp.Tool{Name: ToolReadFile, Description: toolDescriptions[ToolReadFile]}, s.readFile)
	mcp.AddTool(s.mcpServer, &mcp.Tool{Name: ToolValidatePatch, Description: toolDescriptions[ToolValidatePatch]}, s.validatePatch)
	mcp.AddTool(s.mcpServer, &mcp.Tool{Name: ToolApplyPatch, Description: toolDescriptions[ToolApplyPatch]}, s.applyPatch)
	mcp.AddTool(s.mcpServer, &mcp.Tool{Name: ToolRunTask, Description: toolDescriptions[ToolRunTask]}, s.runTask)
	mcp.AddTool(s.mcpServer, &mcp.Tool{Name: ToolStartRun, Description: toolDescriptions[ToolStartRun]}, s.startRun)
	mcp.AddTool(s.mcpServer, &mcp.Tool{Name: ToolEndRun, Description: toolDescriptions[ToolEndRun]}, s.endRun)
	mcp.AddTool(s.mcpServer, &mcp.Tool{Name: ToolGetRunSummary, Description: toolDescriptions[ToolGetRunSummary]}, s.getRunSummary)
	mcp.AddTool(s.mcpServer, &mcp.Tool{Name: ToolCreateChangeBundle, Description: toolDescriptions[ToolCreateChangeBundle]}, s.createChangeBundle)
	mcp.AddTool(s.mcpServer, &mcp.Tool{Name: ToolBundleReport, Description: toolDescriptions[ToolBundleReport]}, s.bundleReport)
	mcp.AddTool(s.mcpServer, &mcp.Tool{Name: ToolExplainPolicyDecision, Description: toolDescriptions[ToolExplainPolicyDecision]}, s.explainPolicyDecision)
	mcp.AddTool(s.mcpServer, &mcp.Tool{Name: ToolKernelVersion, Description: toolDescriptions[ToolKernelVersion]}, s.kernelVersion)
	mcp.AddTool(s.mcpServer, &mcp.Tool{Name: ToolSelfCheck, Description: toolDescriptions[ToolSelfCheck]}, s.selfCheck)
}

// sanitizeString runs a single string argument through the shared
// sanitizer, rejecting the call outright on a validation failure rather
// than silently passing through attacker-controlled bytes.
func (s *Server) sanitizeString(v string) (string, error) {
	clean, err := s.sanitizer.SanitizeValue(v)
	if err != nil {
		return "", err
	}
	str, _ := clean.(string)
	return str, nil
}

func (s *Server) sanitizeMap(m map[string]any) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}
	clean, err := s.sanitizer.SanitizeValue(m)
	if err != nil {
		return nil, err
	}
	out, _ := clean.(map[string]any)
	return out, nil
}

type WorkspaceInfoInput struct {
	RunID   string `json:"run_id,omitempty"`
	OwnerID string `json:"owner_id,omitempty"`
}

func (s *Server) workspaceInfo(_ context.Context, _ *mcp.CallToolRequest, in WorkspaceInfoInput) (*mcp.CallToolResult, response.Response, error) {
	return nil, tool.WorkspaceInfo(s.gov, in.RunID, in.OwnerID), nil
}

type RepoSearchInput struct {
	Query     string `json:"query"`
	FileGlobs string `json:"file_globs,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	RunID     string `json:"run_id,omitempty"`
	OwnerID   string `json:"owner_id,omitempty"`
}

func (s *Server) repoSearch(_ context.Context, _ *mcp.CallToolRequest, in RepoSearchInput) (*mcp.CallToolResult, response.Response, error) {
	query, err := s.sanitizeString(in.Query)
	if err != nil {
		return nil, invalidInputResponse(err), nil
	}
	limit := in.Limit
	if limit == 0 {
		limit = 20
	}
	var globs []string
	if in.FileGlobs != "" {
		for _, g := range strings.Split(in.FileGlobs, ",") {
			if trimmed := strings.TrimSpace(g); trimmed != "" {
				globs = append(globs, trimmed)
			}
		}
	}
	return nil, tool.RepoSearch(s.gov, query, globs, limit, in.RunID, in.OwnerID), nil
}

type ReadFileInput struct {
	Path      string `json:"path"`
	StartLine int    `json:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
	RunID     string `json:"run_id,omitempty"`
	OwnerID   string `json:"owner_id,omitempty"`
}

func (s *Server) readFile(_ context.Context, _ *mcp.CallToolRequest, in ReadFileInput) (*mcp.CallToolResult, response.Response, error) {
	path, err := s.sanitizeString(in.Path)
	if err != nil {
		return nil, invalidInputResponse(err), nil
	}
	return nil, tool.ReadFile(s.gov, path, in.StartLine, in.EndLine, in.RunID, in.OwnerID), nil
}

type ValidatePatchInput struct {
	TargetFile string `json:"target_file"`
	DiffText   string `json:"diff_text"`
	RunID      string `json:"run_id,omitempty"`
	OwnerID    string `json:"owner_id,omitempty"`
}

func (s *Server) validatePatch(_ context.Context, _ *mcp.CallToolRequest, in ValidatePatchInput) (*mcp.CallToolResult, response.Response, error) {
	diffText, err := s.sanitizeString(in.DiffText)
	if err != nil {
		return nil, invalidInputResponse(err), nil
	}
	return nil, tool.ValidatePatch(s.gov, in.TargetFile, diffText, in.RunID, in.OwnerID), nil
}

type ApplyPatchInput struct {
	DiffText string `json:"diff_text"`
	RunID    string `json:"run_id,omitempty"`
	OwnerID  string `json:"owner_id,omitempty"`
}

func (s *Server) applyPatch(_ context.Context, _ *mcp.CallToolRequest, in ApplyPatchInput) (*mcp.CallToolResult, response.Response, error) {
	diffText, err := s.sanitizeString(in.DiffText)
	if err != nil {
		return nil, invalidInputResponse(err), nil
	}
	return nil, tool.ApplyPatch(s.gov, diffText, in.RunID, in.OwnerID), nil
}

type RunTaskInput struct {
	TaskName string `json:"task_name"`
	RunID    string `json:"run_id,omitempty"`
	OwnerID  string `json:"owner_id,omitempty"`
}

func (s *Server) runTask(_ context.Context, _ *mcp.CallToolRequest, in RunTaskInput) (*mcp.CallToolResult, response.Response, error) {
	taskName, err := s.sanitizeString(in.TaskName)
	if err != nil {
		return nil, invalidInputResponse(err), nil
	}
	return nil, tool.RunTask(s.gov, taskName, in.RunID, in.OwnerID), nil
}

type StartRunInput struct {
	Metadata map[string]any `json:"metadata,omitempty"`
	OwnerID  string         `json:"owner_id,omitempty"`
}

func (s *Server) startRun(_ context.Context, _ *mcp.CallToolRequest, in StartRunInput) (*mcp.CallToolResult, response.Response, error) {
	metadata, err := s.sanitizeMap(in.Metadata)
	if err != nil {
		return nil, invalidInputResponse(err), nil
	}
	return nil, tool.StartRun(s.gov, in.OwnerID, metadata), nil
}

type EndRunInput struct {
	RunID   string `json:"run_id"`
	OwnerID string `json:"owner_id,omitempty"`
}

func (s *Server) endRun(_ context.Context, _ *mcp.CallToolRequest, in EndRunInput) (*mcp.CallToolResult, response.Response, error) {
	return nil, tool.EndRun(s.gov, in.RunID, in.OwnerID), nil
}

type GetRunSummaryInput struct {
	RunID   string `json:"run_id"`
	OwnerID string `json:"owner_id,omitempty"`
}

func (s *Server) getRunSummary(_ context.Context, _ *mcp.CallToolRequest, in GetRunSummaryInput) (*mcp.CallToolResult, response.Response, error) {
	return nil, tool.GetRunSummary(s.gov, in.RunID, in.OwnerID), nil
}

type CreateChangeBundleInput struct {
	DiffText string         `json:"diff_text"`
	Metadata map[string]any `json:"metadata,omitempty"`
	RunID    string         `json:"run_id,omitempty"`
	OwnerID  string         `json:"owner_id,omitempty"`
}

func (s *Server) createChangeBundle(_ context.Context, _ *mcp.CallToolRequest, in CreateChangeBundleInput) (*mcp.CallToolResult, response.Response, error) {
	diffText, err := s.sanitizeString(in.DiffText)
	if err != nil {
		return nil, invalidInputResponse(err), nil
	}
	metadata, err := s.sanitizeMap(in.Metadata)
	if err != nil {
		return nil, invalidInputResponse(err), nil
	}
	return nil, tool.CreateChangeBundle(s.gov, diffText, in.RunID, in.OwnerID, metadata), nil
}

type BundleReportInput struct {
	BundleID string `json:"bundle_id"`
	RunID    string `json:"run_id,omitempty"`
	OwnerID  string `json:"owner_id,omitempty"`
}

func (s *Server) bundleReport(_ context.Context, _ *mcp.CallToolRequest, in BundleReportInput) (*mcp.CallToolResult, response.Response, error) {
	return nil, tool.BundleReport(s.gov, in.BundleID, in.RunID, in.OwnerID), nil
}

type ExplainPolicyDecisionInput struct {
	AuditID string `json:"audit_id"`
	OwnerID string `json:"owner_id,omitempty"`
}

func (s *Server) explainPolicyDecision(_ context.Context, _ *mcp.CallToolRequest, in ExplainPolicyDecisionInput) (*mcp.CallToolResult, response.Response, error) {
	return nil, tool.ExplainPolicyDecision(s.gov, in.AuditID, in.OwnerID), nil
}

type KernelVersionInput struct {
	RunID   string `json:"run_id,omitempty"`
	OwnerID string `json:"owner_id,omitempty"`
}

func (s *Server) kernelVersion(_ context.Context, _ *mcp.CallToolRequest, in KernelVersionInput) (*mcp.CallToolResult, response.Response, error) {
	return nil, tool.KernelVersion(s.gov, in.RunID, in.OwnerID), nil
}

type SelfCheckInput struct {
	RunID   string `json:"run_id,omitempty"`
	OwnerID string `json:"owner_id,omitempty"`
}

func (s *Server) selfCheck(_ context.Context, _ *mcp.CallToolRequest, in SelfCheckInput) (*mcp.CallToolResult, response.Response, error) {
	return nil, tool.SelfCheck(s.gov, in.RunID, in.OwnerID), nil
}

// invalidInputResponse builds a bare error envelope for arguments the
// sanitizer rejects before a call ever reaches the governor, so a
// caller sees the same contract shape it would for any other failure.
func invalidInputResponse(err error) response.Response {
	return response.Error(fmt.Sprintf("Invalid arguments: %v", err), response.CodeInvalidInput, nil, response.Meta{Code: response.CodeInvalidInput})
}
