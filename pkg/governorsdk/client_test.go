package governorsdk

import (
	"context"
	"errors"
	"testing"

	"github.com/workspace-governor/governor/internal/governor"
	"github.com/workspace-governor/governor/internal/policy"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	cfg, err := policy.Load(policy.ProfileDev, "", false)
	if err != nil {
		t.Fatal(err)
	}
	gov, err := governor.New(cfg, t.TempDir(), false, nil)
	if err != nil {
		t.Fatal(err)
	}
	return NewClient(gov)
}

func TestEvaluateAllowsWithinAllowPaths(t *testing.T) {
	c := testClient(t)
	resp, err := c.Evaluate(context.Background(), ActionRequest{
		Tool:      "read_file",
		Risk:      governor.RiskRead,
		Arguments: map[string]any{"path": "README.md"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("expected ok status, got %q", resp.Status)
	}
}

func TestEvaluateReturnsActionBlockedError(t *testing.T) {
	c := testClient(t)
	c.gov.Config.DenyGlobs = append(c.gov.Config.DenyGlobs, "*.env*")
	_, err := c.Evaluate(context.Background(), ActionRequest{
		Tool:      "read_file",
		Risk:      governor.RiskRead,
		Arguments: map[string]any{"path": ".env"},
	})
	var blocked *ActionBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected *ActionBlockedError, got %v (%T)", err, err)
	}
	if !errors.Is(err, ErrActionBlocked) {
		t.Fatal("expected errors.Is(err, ErrActionBlocked) to hold")
	}
}

func TestCheckReturnsFalseOnBlock(t *testing.T) {
	c := testClient(t)
	c.gov.Config.DenyGlobs = append(c.gov.Config.DenyGlobs, "*.env*")
	ok, err := c.Check(context.Background(), ActionRequest{
		Tool:      "read_file",
		Risk:      governor.RiskRead,
		Arguments: map[string]any{"path": ".env"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected Check to report false for a blocked action")
	}
}

func TestRunLifecycleRoundTrip(t *testing.T) {
	c := testClient(t)
	started, err := c.StartRun("owner-1", nil)
	if err != nil || started.Status != "ok" {
		t.Fatalf("start run failed: %v %+v", err, started)
	}
	runID, _ := started.Data["run_id"].(string)
	if runID == "" {
		t.Fatal("expected run_id in start_run response")
	}

	summary, err := c.GetRunSummary(runID, "owner-1")
	if err != nil || summary.Status != "ok" {
		t.Fatalf("get run summary failed: %v %+v", err, summary)
	}

	ended, err := c.EndRun(runID, "owner-1")
	if err != nil || ended.Status != "ok" {
		t.Fatalf("end run failed: %v %+v", err, ended)
	}

	if _, err := c.EndRun(runID, "owner-1"); err == nil {
		t.Fatal("expected error ending an already-ended run")
	}
}

func TestExplainPolicyDecisionUnknownAuditIDFails(t *testing.T) {
	c := testClient(t)
	_, err := c.ExplainPolicyDecision("not-a-real-audit-id", "")
	var failed *ActionFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected *ActionFailedError, got %v (%T)", err, err)
	}
}

func TestExplainPolicyDecisionFollowsBlockedEvaluate(t *testing.T) {
	c := testClient(t)
	c.gov.Config.DenyGlobs = append(c.gov.Config.DenyGlobs, "*.env*")
	_, err := c.Evaluate(context.Background(), ActionRequest{
		Tool:      "read_file",
		Risk:      governor.RiskRead,
		Arguments: map[string]any{"path": ".env"},
	})
	var blocked *ActionBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected *ActionBlockedError, got %v (%T)", err, err)
	}
	explained, err := c.ExplainPolicyDecision(blocked.AuditID, "")
	if err != nil {
		t.Fatalf("unexpected error explaining decision: %v", err)
	}
	if explained.Data["rule_triggered"] != "PATH_MATCHES_DENY_GLOBS" {
		t.Fatalf("expected rule_triggered PATH_MATCHES_DENY_GLOBS, got %+v", explained.Data["rule_triggered"])
	}
}

func TestChangeBundleRoundTrip(t *testing.T) {
	c := testClient(t)
	diff := "--- a/x.go\n+++ b/x.go\n+line\n"
	created, err := c.CreateChangeBundle(diff, []string{"x.go"}, "", "owner-1", nil)
	if err != nil || created.Status != "ok" {
		t.Fatalf("create bundle failed: %v %+v", err, created)
	}
	bundleID, _ := created.Data["bundle_id"].(string)
	if bundleID == "" {
		t.Fatal("expected bundle_id in response")
	}

	report, err := c.BundleReport(bundleID, "", "owner-1")
	if err != nil || report.Status != "ok" {
		t.Fatalf("bundle report failed: %v %+v", err, report)
	}
}
