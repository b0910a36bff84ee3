// Package governor implements the single policy-enforcement point every
// tool call passes through: ValidateAction. It owns the three bounded
// state stores (runs, bundles, audit log), the process's salted hashing
// secret, and the monotonic counter embedded in every response.
package governor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/workspace-governor/governor/internal/boundedstore"
	"github.com/workspace-governor/governor/internal/canonicalhash"
	"github.com/workspace-governor/governor/internal/pathsafety"
	"github.com/workspace-governor/governor/internal/policy"
	"github.com/workspace-governor/governor/internal/response"
	"github.com/workspace-governor/governor/internal/telemetry"
)

// RiskLevel is one of the four risk tiers a tool call is classified under.
type RiskLevel string

const (
	RiskRead    RiskLevel = "read"
	RiskWrite   RiskLevel = "write"
	RiskExecute RiskLevel = "execute"
	RiskNetwork RiskLevel = "network"
)

// DecisionKind is the coarse verdict of ValidateAction.
type DecisionKind string

const (
	DecisionAllowed DecisionKind = "allowed"
	DecisionBlocked DecisionKind = "blocked"
	DecisionError   DecisionKind = "error"
)

// Decision is the result of ValidateAction: the adapter checks Allowed()
// and, if false, returns BlockResponse verbatim (after stamping duration).
type Decision struct {
	AuditID       string
	Tool          string
	Risk          RiskLevel
	Kind          DecisionKind
	Code          string
	Violation     *response.Violation
	BlockResponse *response.Response
}

// Allowed reports whether the call may proceed to do its I/O.
func (d Decision) Allowed() bool { return d.Kind == DecisionAllowed }

// RunRecord tracks a caller-owned unit of work across multiple tool calls.
type RunRecord struct {
	RunID           string
	OwnerHash       string
	Metadata        map[string]any
	StartTime       time.Time
	EndTime         *time.Time
	Status          string // "active" | "ended"
	ToolSequence    []string
	RiskDistribution map[string]int
	AllowedCount    int
	BlockedCount    int
}

// BundleRecord is an immutable, content-addressed change bundle.
type BundleRecord struct {
	BundleID    string
	DiffText    string
	Metadata    map[string]any
	TargetFiles []string
	CreatedAt   time.Time
	OwnerHash   string
}

// AuditEntry is a single synchronously-written audit log row.
type AuditEntry struct {
	AuditID          string
	Timestamp        string
	Tool             string
	Risk             string
	Decision         string
	Code             string
	ArgsSHA256       string
	DurationMs       int64
	PolicyHash       string
	PolicyProfile    string
	ServerInstanceID string
	RunCounter       int64
	Violation        *response.Violation
	RunID            string
	OwnerIDHash      string
}

// lifecycleTools are excluded from their own run's tool_sequence/counters —
// see spec.md §4.5 step 7 and §4.8.
var lifecycleTools = map[string]bool{
	"start_run": true, "end_run": true, "get_run_summary": true,
}

// Governor is process-scoped: one instance per running server, holding the
// merged policy, the resolved workspace root, and the three bounded
// stores. Safe for concurrent use.
type Governor struct {
	Config           *policy.Config
	Root             string
	Strict           bool
	ServerInstanceID string

	runCounter atomic.Int64

	mu    sync.Mutex
	Runs  *boundedstore.Store[string, *RunRecord]
	Bundles *boundedstore.Store[string, *BundleRecord]
	AuditLogs *boundedstore.Store[string, *AuditEntry]

	metrics *telemetry.Metrics
	tracer  oteltrace.Tracer
}

// SetTracer attaches a tracer so ValidateAction emits one span per decision.
// Left unset, ValidateAction skips span creation entirely; cmd/serve.go only
// calls this when the dev profile and tracing are both enabled, per
// SPEC_FULL.md's scoped tracing disposition.
func (g *Governor) SetTracer(tracer oteltrace.Tracer) {
	g.tracer = tracer
}

// New constructs a Governor for the given policy and workspace root,
// creating the root directory if it does not already exist.
func New(cfg *policy.Config, workspaceRoot string, strict bool, metrics *telemetry.Metrics) (*Governor, error) {
	root, err := filepath.Abs(workspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("governor: resolve workspace root: %w", err)
	}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		if mkErr := os.MkdirAll(root, 0o755); mkErr != nil {
			slog.Error("governor: failed to create workspace root", "root", root, "error", mkErr)
		}
	}

	return &Governor{
		Config:           cfg,
		Root:             root,
		Strict:           strict,
		ServerInstanceID: uuid.NewString(),
		Runs:             boundedstore.New[string, *RunRecord](cfg.MaxRuns, cfg.RunTTL()),
		Bundles:          boundedstore.New[string, *BundleRecord](cfg.MaxBundles, cfg.BundleTTL()),
		AuditLogs:        boundedstore.New[string, *AuditEntry](cfg.MaxAuditLogs, cfg.AuditTTL()),
		metrics:          metrics,
	}, nil
}

// hashArgs produces the salted audit-safe fingerprint of a tool call's
// arguments: sha256({args, salt: server_instance_id}).
func (g *Governor) hashArgs(args map[string]any) string {
	h, err := canonicalhash.Sum(map[string]any{"args": args, "salt": g.ServerInstanceID})
	if err != nil {
		// Arguments are always JSON-representable in practice (they came
		// off the wire as JSON); a failure here means a caller passed a
		// non-serializable Go value, which is a programming error.
		slog.Error("governor: failed to hash arguments", "error", err)
		return ""
	}
	return h
}

// GetMeta builds the meta block for a response. It carries no owner
// information (the contract's closed meta-key set has no owner_hint
// slot); see response.Meta for the fixed shape.
func (g *Governor) GetMeta(auditID, tool string, risk RiskLevel, durationMs int64, runID string, outputTruncated bool) response.Meta {
	return response.Meta{
		AuditID:          auditID,
		Tool:             tool,
		Risk:             string(risk),
		Decision:         string(DecisionAllowed),
		Code:             response.CodeSuccess,
		DurationMs:       durationMs,
		RunID:            runID,
		RunCounter:       g.runCounter.Load(),
		PolicyHash:       g.Config.PolicyHash,
		PolicyProfile:    g.Config.Profile,
		ServerInstanceID: g.ServerInstanceID,
		OutputTruncated:  outputTruncated,
		Timestamp:        response.NewTimestamp(time.Now()),
	}
}

// ValidateAction is the central enforcement point. Every tool adapter
// calls this before doing any I/O.
func (g *Governor) ValidateAction(toolName string, risk RiskLevel, arguments map[string]any, runID, ownerID string, skipAudit bool) Decision {
	if g.tracer != nil {
		var span oteltrace.Span
		_, span = g.tracer.Start(context.Background(), "governor.validate_action",
			oteltrace.WithAttributes(
				attribute.String("tool", toolName),
				attribute.String("risk", string(risk)),
			),
		)
		defer span.End()
	}

	if !skipAudit {
		g.runCounter.Add(1)
	}

	auditID := uuid.NewString()
	kind := DecisionAllowed
	code := response.CodeSuccess
	var violation *response.Violation

	argHash := g.hashArgs(arguments)

	// 1. Run/owner preconditions.
	if runID != "" {
		switch {
		case ownerID == "":
			kind, code = DecisionBlocked, response.CodeBlocked
			violation = &response.Violation{Key: "OWNER_ID_REQUIRED", Details: map[string]any{"run_id": runID}, ConfigPath: ""}
		default:
			run, ok := g.Runs.Get(runID)
			switch {
			case !ok:
				kind, code = DecisionError, response.CodeNotFound
				violation = &response.Violation{Key: "RUN_NOT_FOUND", Details: map[string]any{"run_id": runID}, ConfigPath: ""}
			case run.Status == "ended":
				kind, code = DecisionError, response.CodeInvalidInput
				violation = &response.Violation{Key: "RUN_ALREADY_ENDED", Details: map[string]any{"run_id": runID}, ConfigPath: ""}
			case run.OwnerHash != hashOwner(ownerID):
				kind, code = DecisionError, response.CodeNotFound
				violation = &response.Violation{Key: "RUN_NOT_FOUND", Details: map[string]any{"run_id": runID}, ConfigPath: ""}
			}
		}
	}

	// 2. Profile guard.
	if kind == DecisionAllowed && g.Config.RequiresRunID(g.Strict, string(risk)) && runID == "" {
		kind, code = DecisionBlocked, response.CodeBlocked
		violation = &response.Violation{
			Key:        "RUN_ID_REQUIRED",
			Details:    map[string]any{"profile": g.Config.Profile, "risk": string(risk)},
			ConfigPath: fmt.Sprintf("profiles.%s", g.Config.Profile),
		}
	}

	// 3. Policy checks.
	if kind == DecisionAllowed {
		switch risk {
		case RiskExecute:
			taskName, _ := arguments["task_name"].(string)
			if _, ok := g.Config.AllowTasks[taskName]; taskName == "" || !ok {
				allowed := make([]string, 0, len(g.Config.AllowTasks))
				for name := range g.Config.AllowTasks {
					allowed = append(allowed, name)
				}
				kind, code = DecisionBlocked, response.CodeBlocked
				violation = &response.Violation{
					Key:        "TASK_NOT_ALLOWLISTED",
					Details:    map[string]any{"task_name": arguments["task_name"], "allowed": allowed},
					ConfigPath: fmt.Sprintf("profiles.%s.allow_tasks", g.Config.Profile),
				}
			}
		case RiskRead:
			if target, ok := arguments["path"].(string); ok {
				kind, code, violation = g.checkPath(target, []string{target}, false)
			}
		case RiskWrite:
			var paths []string
			if p, ok := arguments["path"].(string); ok {
				paths = []string{p}
			} else if list, ok := arguments["paths"].([]any); ok {
				for _, e := range list {
					if s, ok := e.(string); ok {
						paths = append(paths, s)
					}
				}
			} else if list, ok := arguments["paths"].([]string); ok {
				paths = list
			}
			if paths != nil {
				kind, code, violation = g.checkPath("", paths, true)
			}
		}
	}

	// 4. Build the block response, if any.
	var blockResponse *response.Response
	if kind != DecisionAllowed {
		meta := g.GetMeta(auditID, toolName, risk, 0, runID, false)
		meta.Decision = string(kind)
		meta.Code = code
		if kind == DecisionBlocked {
			v := response.Violation{Key: "UNKNOWN", Details: map[string]any{}, ConfigPath: ""}
			if violation != nil {
				v = *violation
			}
			r := response.Blocked("Policy violation detected by Governor", v, meta)
			blockResponse = &r
		} else {
			var details map[string]any
			if violation != nil {
				details = map[string]any{"key": violation.Key, "details": violation.Details, "config_path": violation.ConfigPath}
			}
			r := response.Error("Action failed validation", code, details, meta)
			blockResponse = &r
		}
	}

	// 5. Audit.
	if !skipAudit {
		g.logAudit(auditID, toolName, string(risk), string(kind), code, argHash, violation, runID, ownerID)
	}
	if g.metrics != nil {
		g.metrics.ObserveDecision(string(risk), string(kind))
	}

	return Decision{
		AuditID: auditID, Tool: toolName, Risk: risk, Kind: kind, Code: code,
		Violation: violation, BlockResponse: blockResponse,
	}
}

// checkPath evaluates either a single read path or a list of write paths
// against deny_globs then allow_paths, in that order, mirroring the
// original source's argument-level (pre-filesystem-resolution) check. The
// tool adapter performs the authoritative filesystem-level pathsafety
// check afterward; this is the policy-level pre-check that can reject a
// call before any I/O is attempted.
func (g *Governor) checkPath(single string, paths []string, isWrite bool) (DecisionKind, string, *response.Violation) {
	normalized := make([]string, len(paths))
	for i, p := range paths {
		normalized[i] = normalizeArgPath(p)
	}

	for _, p := range normalized {
		for _, glob := range g.Config.DenyGlobs {
			if pathsafety.MatchGlob(glob, p) {
				detailsKey := "path"
				detailsVal := any(single)
				if isWrite {
					detailsKey, detailsVal = "paths", any(paths)
				}
				return DecisionBlocked, response.CodeBlocked, &response.Violation{
					Key:        "PATH_MATCHES_DENY_GLOBS",
					Details:    map[string]any{detailsKey: detailsVal},
					ConfigPath: fmt.Sprintf("profiles.%s.deny_globs", g.Config.Profile),
				}
			}
		}
	}

	for _, p := range normalized {
		if !g.isAllowedPath(p) {
			detailsKey := "path"
			detailsVal := any(single)
			if isWrite {
				detailsKey, detailsVal = "paths", any(paths)
			}
			return DecisionBlocked, response.CodeBlocked, &response.Violation{
				Key:        "PATH_OUTSIDE_ALLOW_PATHS",
				Details:    map[string]any{detailsKey: detailsVal},
				ConfigPath: fmt.Sprintf("profiles.%s.allow_paths", g.Config.Profile),
			}
		}
	}

	return DecisionAllowed, response.CodeSuccess, nil
}

func (g *Governor) isAllowedPath(normalized string) bool {
	for _, raw := range g.Config.AllowPaths {
		allowed := normalizeArgPath(raw)
		if allowed == "" || allowed == "." {
			return true
		}
		if normalized == allowed || hasPrefixSlash(normalized, allowed) {
			return true
		}
	}
	return false
}

func hasPrefixSlash(s, prefix string) bool {
	return len(s) > len(prefix) && s[:len(prefix)] == prefix && s[len(prefix)] == '/'
}

func normalizeArgPath(p string) string {
	p = pathsafety.NormalizeSlashes(p)
	for len(p) >= 2 && p[0] == '.' && p[1] == '/' {
		p = p[2:]
	}
	return p
}

// hashOwner is the ownership token stored on a run: sha256(owner_id),
// hex-encoded. Never reversible, never logged in the clear.
func hashOwner(ownerID string) string {
	sum := sha256.Sum256([]byte(ownerID))
	return hex.EncodeToString(sum[:])
}
