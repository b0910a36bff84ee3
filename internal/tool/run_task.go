package tool

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"os/exec"

	"github.com/workspace-governor/governor/internal/governor"
	"github.com/workspace-governor/governor/internal/response"
)

// RunTask executes a pre-defined, policy-allowlisted task and reports its
// exit code and (truncated) output. pytest and ruff get a little extra
// structured parsing on top of the raw stdout/stderr, matching the two
// task types the original tool special-cased.
func RunTask(g *governor.Governor, taskName, runID, ownerID string) response.Response {
	start := time.Now()
	decision := g.ValidateAction("run_task", governor.RiskExecute, map[string]any{"task_name": taskName}, runID, ownerID, false)
	if !decision.Allowed() {
		return finish(g, decision.AuditID, start, *decision.BlockResponse)
	}

	argv, ok := g.Config.AllowTasks[taskName]
	if !ok || len(argv) == 0 {
		allowed := make([]string, 0, len(g.Config.AllowTasks))
		for name := range g.Config.AllowTasks {
			allowed = append(allowed, name)
		}
		meta := g.GetMeta(decision.AuditID, "run_task", governor.RiskExecute, 0, runID, false)
		v := response.Violation{
			Key:        "TASK_NOT_ALLOWLISTED",
			Details:    map[string]any{"task_name": taskName, "allowed": allowed},
			ConfigPath: fmt.Sprintf("profiles.%s.allow_tasks", g.Config.Profile),
		}
		return finish(g, decision.AuditID, start, response.Blocked("Task not found", v, meta))
	}

	timeout := g.Config.MaxRuntime()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = g.Root
	cmd.Env = scrubbedEnv()
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	runStart := time.Now()
	err := cmd.Run()
	duration := time.Since(runStart)

	if ctx.Err() == context.DeadlineExceeded {
		meta := g.GetMeta(decision.AuditID, "run_task", governor.RiskExecute, 0, runID, false)
		msg := fmt.Sprintf("Task '%s' timed out after %ds", taskName, g.Config.MaxRuntimeSeconds)
		return finish(g, decision.AuditID, start, response.Error(msg, response.CodeTimeout, nil, meta))
	}

	exitCode := 0
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	} else if err != nil {
		meta := g.GetMeta(decision.AuditID, "run_task", governor.RiskExecute, 0, runID, false)
		return finish(g, decision.AuditID, start, response.Error(fmt.Sprintf("Execution failed: %v", err), response.CodeToolFailed, nil, meta))
	}

	stdout, stdoutTrunc := truncateOutput(stdoutBuf.Bytes(), g.Config.MaxOutputBytes)
	stderr, stderrTrunc := truncateOutput(stderrBuf.Bytes(), g.Config.MaxOutputBytes)
	outputTruncated := stdoutTrunc || stderrTrunc

	data := map[string]any{
		"exit_code":         exitCode,
		"stdout":            stdout,
		"stderr":            stderr,
		"duration_seconds":  duration.Seconds(),
	}

	switch taskName {
	case "pytest":
		if line := lastMatchingLine(stdout, "==", "passed", "failed"); line != "" {
			data["pytest_summary"] = line
		}
	case "ruff":
		data["ruff_violations_count"] = countLinesContaining(stdout, ".py:")
	}

	meta := g.GetMeta(decision.AuditID, "run_task", governor.RiskExecute, 0, runID, false)
	meta.OutputTruncated = outputTruncated
	summary := fmt.Sprintf("Task '%s' finished with code %d", taskName, exitCode)
	return finish(g, decision.AuditID, start, response.Success(summary, data, meta))
}

// lastMatchingLine returns the last line of text containing marker and at
// least one of the alternatives, trimmed, or "" if none match.
func lastMatchingLine(text, marker string, alternatives ...string) string {
	var last string
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, marker) {
			continue
		}
		for _, alt := range alternatives {
			if strings.Contains(line, alt) {
				last = strings.TrimSpace(line)
				break
			}
		}
	}
	return last
}

func countLinesContaining(text, needle string) int {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, needle) {
			count++
		}
	}
	return count
}
