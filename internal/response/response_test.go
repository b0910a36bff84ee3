package response

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestFinalizeForcesMetaCodeToMatchTop(t *testing.T) {
	r := Error("boom", CodeTimeout, nil, Meta{Code: "success"})
	if r.Meta.Code != CodeTimeout {
		t.Fatalf("expected meta.code to mirror top-level code, got %q", r.Meta.Code)
	}
}

func TestSuccessShape(t *testing.T) {
	r := Success("did the thing", map[string]any{"x": 1}, Meta{})
	if r.Status != StatusOK || r.Code != CodeSuccess {
		t.Fatalf("unexpected status/code: %s/%s", r.Status, r.Code)
	}
}

func TestBlockedNestsViolation(t *testing.T) {
	v := Violation{Key: "PATH_MATCHES_DENY_GLOBS", Details: map[string]any{"glob": "*.env"}, ConfigPath: "profiles.dev.deny_globs"}
	r := Blocked("policy violation", v, Meta{})
	pv, ok := r.Data["policy_violation"].(Violation)
	if !ok || pv.Key != "PATH_MATCHES_DENY_GLOBS" {
		t.Fatalf("expected policy_violation in data, got %#v", r.Data)
	}
	if r.Status != StatusBlocked || r.Code != CodeBlocked {
		t.Fatalf("unexpected status/code: %s/%s", r.Status, r.Code)
	}
}

func TestMetaKeysMatchCanonicalSetOnMarshal(t *testing.T) {
	r := Success("ok", nil, Meta{
		AuditID: "a", Tool: "read_file", Risk: "read", Decision: "allowed",
		Code: "success", DurationMs: 5, RunID: "", RunCounter: 1,
		PolicyHash: "h", PolicyProfile: "dev", ServerInstanceID: "s",
		OutputTruncated: false, Timestamp: NewTimestamp(time.Now()),
	})
	raw, err := json.Marshal(r.Meta)
	if err != nil {
		t.Fatal(err)
	}
	var asMap map[string]any
	if err := json.Unmarshal(raw, &asMap); err != nil {
		t.Fatal(err)
	}
	if len(asMap) != len(CanonicalMetaKeys) {
		t.Fatalf("got %d meta keys, want %d", len(asMap), len(CanonicalMetaKeys))
	}
	for _, k := range CanonicalMetaKeys {
		if _, ok := asMap[k]; !ok {
			t.Fatalf("missing canonical meta key %q", k)
		}
	}
}

func TestTimestampEndsWithZ(t *testing.T) {
	ts := NewTimestamp(time.Now())
	if !strings.HasSuffix(ts, "Z") {
		t.Fatalf("expected timestamp to end with Z, got %q", ts)
	}
}
