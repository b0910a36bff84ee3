package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/workspace-governor/governor/internal/governor"
	"github.com/workspace-governor/governor/internal/pathsafety"
	"github.com/workspace-governor/governor/internal/response"
)

// diffPathHeader matches a unified diff's "--- a/x" / "+++ b/x" header
// lines, capturing the path with an optional a/ or b/ prefix stripped.
var diffPathHeader = regexp.MustCompile(`(?m)^(?:\+\+\+|---) (?:[ab]/)?(.+)$`)

// ValidatePatch checks that targetFile is a safe, existing file and that
// diffText is at least shaped like a unified diff, without applying
// anything.
func ValidatePatch(g *governor.Governor, targetFile, diffText, runID, ownerID string) response.Response {
	start := time.Now()
	decision := g.ValidateAction("validate_patch", governor.RiskRead, map[string]any{"path": targetFile, "diff_size": len(diffText)}, runID, ownerID, false)
	if !decision.Allowed() {
		return finish(g, decision.AuditID, start, *decision.BlockResponse)
	}

	resolved, err := pathsafety.Resolve(g.Root, targetFile)
	if err == nil {
		err = pathsafety.Validate(resolved, g.Root, g.Config.DenyGlobs, g.Config.AllowPaths)
	}
	if err != nil {
		var pathErr *pathsafety.Error
		if errors.As(err, &pathErr) {
			meta := g.GetMeta(decision.AuditID, "validate_patch", governor.RiskRead, 0, runID, false)
			v := response.Violation{Key: "PATH_OUTSIDE_ALLOW_PATHS", Details: map[string]any{"error": pathErr.Error()}, ConfigPath: ""}
			return finish(g, decision.AuditID, start, response.Blocked("Patch targets unsafe file", v, meta))
		}
		meta := g.GetMeta(decision.AuditID, "validate_patch", governor.RiskRead, 0, runID, false)
		return finish(g, decision.AuditID, start, response.Error(err.Error(), response.CodeToolFailed, nil, meta))
	}

	if _, statErr := os.Stat(resolved); statErr != nil {
		meta := g.GetMeta(decision.AuditID, "validate_patch", governor.RiskRead, 0, runID, false)
		return finish(g, decision.AuditID, start, response.Error("Target file not found", response.CodeNotFound, map[string]any{"path": targetFile}, meta))
	}

	if !strings.Contains(diffText, "---") || !strings.Contains(diffText, "+++") {
		meta := g.GetMeta(decision.AuditID, "validate_patch", governor.RiskRead, 0, runID, false)
		return finish(g, decision.AuditID, start, response.Error("Invalid diff format", response.CodeInvalidInput, nil, meta))
	}

	meta := g.GetMeta(decision.AuditID, "validate_patch", governor.RiskRead, 0, runID, false)
	data := map[string]any{"target_file": targetFile, "violations": []string{}}
	return finish(g, decision.AuditID, start, response.Success("Patch validation passed", data, meta))
}

// ApplyPatch applies a unified diff to the workspace, simulating with
// --dry-run first so a partially-applicable patch never touches disk.
func ApplyPatch(g *governor.Governor, diffText, runID, ownerID string) response.Response {
	start := time.Now()

	matches := diffPathHeader.FindAllStringSubmatch(diffText, -1)
	var parsedTargets []string
	for _, m := range matches {
		if t := strings.TrimSpace(m[1]); t != "/dev/null" {
			parsedTargets = append(parsedTargets, t)
		}
	}

	decision := g.ValidateAction("apply_patch", governor.RiskWrite, map[string]any{"diff_size": len(diffText), "paths": parsedTargets}, runID, ownerID, false)
	if !decision.Allowed() {
		return finish(g, decision.AuditID, start, *decision.BlockResponse)
	}

	if len(matches) == 0 {
		meta := g.GetMeta(decision.AuditID, "apply_patch", governor.RiskWrite, 0, runID, false)
		return finish(g, decision.AuditID, start, response.Error("Could not parse any target paths from diff", response.CodeInvalidInput, nil, meta))
	}

	targetFiles := map[string]bool{}
	for _, m := range matches {
		target := strings.TrimSpace(m[1])
		if target == "/dev/null" {
			continue
		}
		resolved, err := pathsafety.Resolve(g.Root, target)
		if err == nil {
			err = pathsafety.Validate(resolved, g.Root, g.Config.DenyGlobs, g.Config.AllowPaths)
		}
		if err != nil {
			var pathErr *pathsafety.Error
			if errors.As(err, &pathErr) {
				meta := g.GetMeta(decision.AuditID, "apply_patch", governor.RiskWrite, 0, runID, false)
				v := response.Violation{Key: "PATH_OUTSIDE_ALLOW_PATHS", Details: map[string]any{"error": pathErr.Error()}, ConfigPath: ""}
				return finish(g, decision.AuditID, start, response.Blocked("Patch targets unsafe file", v, meta))
			}
			meta := g.GetMeta(decision.AuditID, "apply_patch", governor.RiskWrite, 0, runID, false)
			return finish(g, decision.AuditID, start, response.Error(err.Error(), response.CodeToolFailed, nil, meta))
		}
		rel, relErr := pathsafety.Relative(resolved, g.Root)
		if relErr != nil {
			rel = target
		}
		targetFiles[rel] = true
	}

	tmp, err := os.CreateTemp("", "governor-patch-*.diff")
	if err != nil {
		meta := g.GetMeta(decision.AuditID, "apply_patch", governor.RiskWrite, 0, runID, false)
		return finish(g, decision.AuditID, start, response.Error(err.Error(), response.CodeToolFailed, nil, meta))
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(diffText); err != nil {
		tmp.Close()
		meta := g.GetMeta(decision.AuditID, "apply_patch", governor.RiskWrite, 0, runID, false)
		return finish(g, decision.AuditID, start, response.Error(err.Error(), response.CodeToolFailed, nil, meta))
	}
	tmp.Close()

	timeout := g.Config.MaxRuntime()
	runPatch := func(stripLevel string, dryRun bool) (*exec.Cmd, []byte, []byte, error) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		argv := []string{stripLevel, "--input", tmp.Name()}
		if dryRun {
			argv = append([]string{"--dry-run"}, argv...)
		}
		cmd := exec.CommandContext(ctx, "patch", argv...)
		cmd.Dir = g.Root
		cmd.Env = scrubbedEnv()
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		err := cmd.Run()
		if ctx.Err() == context.DeadlineExceeded {
			return cmd, stdout.Bytes(), stderr.Bytes(), context.DeadlineExceeded
		}
		return cmd, stdout.Bytes(), stderr.Bytes(), err
	}

	dryCmd, dryOut, dryErrOut, runErr := runPatch("-p1", true)
	if runErr == context.DeadlineExceeded {
		meta := g.GetMeta(decision.AuditID, "apply_patch", governor.RiskWrite, 0, runID, false)
		return finish(g, decision.AuditID, start, response.Error(fmt.Sprintf("Patch execution timed out after %ds", g.Config.MaxRuntimeSeconds), response.CodeTimeout, nil, meta))
	}
	if dryCmd.ProcessState == nil || dryCmd.ProcessState.ExitCode() != 0 {
		dryCmd, dryOut, dryErrOut, runErr = runPatch("-p0", true)
		if runErr == context.DeadlineExceeded {
			meta := g.GetMeta(decision.AuditID, "apply_patch", governor.RiskWrite, 0, runID, false)
			return finish(g, decision.AuditID, start, response.Error(fmt.Sprintf("Patch execution timed out after %ds", g.Config.MaxRuntimeSeconds), response.CodeTimeout, nil, meta))
		}
	}
	if dryCmd.ProcessState == nil || dryCmd.ProcessState.ExitCode() != 0 {
		meta := g.GetMeta(decision.AuditID, "apply_patch", governor.RiskWrite, 0, runID, false)
		details := map[string]any{"stdout": string(dryOut), "stderr": string(dryErrOut)}
		return finish(g, decision.AuditID, start, response.Error("Patch simulation failed", response.CodeToolFailed, details, meta))
	}

	cmd, out, errOut, runErr := runPatch("-p1", false)
	if runErr == context.DeadlineExceeded {
		meta := g.GetMeta(decision.AuditID, "apply_patch", governor.RiskWrite, 0, runID, false)
		return finish(g, decision.AuditID, start, response.Error(fmt.Sprintf("Patch execution timed out after %ds", g.Config.MaxRuntimeSeconds), response.CodeTimeout, nil, meta))
	}
	if cmd.ProcessState == nil || cmd.ProcessState.ExitCode() != 0 {
		cmd, out, errOut, runErr = runPatch("-p0", false)
		if runErr == context.DeadlineExceeded {
			meta := g.GetMeta(decision.AuditID, "apply_patch", governor.RiskWrite, 0, runID, false)
			return finish(g, decision.AuditID, start, response.Error(fmt.Sprintf("Patch execution timed out after %ds", g.Config.MaxRuntimeSeconds), response.CodeTimeout, nil, meta))
		}
	}
	if cmd.ProcessState == nil || cmd.ProcessState.ExitCode() != 0 {
		meta := g.GetMeta(decision.AuditID, "apply_patch", governor.RiskWrite, 0, runID, false)
		details := map[string]any{"stdout": string(out), "stderr": string(errOut)}
		return finish(g, decision.AuditID, start, response.Error("Patch failed to apply", response.CodeToolFailed, details, meta))
	}

	modified := make([]string, 0, len(targetFiles))
	for f := range targetFiles {
		modified = append(modified, f)
	}
	data := map[string]any{"modified_files": modified, "output": string(out)}
	meta := g.GetMeta(decision.AuditID, "apply_patch", governor.RiskWrite, 0, runID, false)
	return finish(g, decision.AuditID, start, response.Success("Patch applied successfully", data, meta))
}
