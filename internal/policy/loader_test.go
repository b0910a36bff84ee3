package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadKernelOnlyDevProfile(t *testing.T) {
	cfg, err := Load(ProfileDev, "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("got profile %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.MaxFileBytes != 200000 {
		t.Fatalf("got MaxFileBytes %d, want 200000", cfg.MaxFileBytes)
	}
	if cfg.PolicyHash == "" {
		t.Fatal("expected non-empty policy hash")
	}
}

func TestLoadUnknownProfile(t *testing.T) {
	if _, err := Load("nonexistent", "", false); err == nil {
		t.Fatal("expected error for unknown profile")
	}
}

func TestLoadIsDeterministic(t *testing.T) {
	c1, err := Load(ProfileCI, "", false)
	if err != nil {
		t.Fatal(err)
	}
	c2, err := Load(ProfileCI, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if c1.PolicyHash != c2.PolicyHash {
		t.Fatalf("expected identical policy hash across reloads, got %q vs %q", c1.PolicyHash, c2.PolicyHash)
	}
}

func TestLoadOverlayDeepMerge(t *testing.T) {
	dir := t.TempDir()
	overlay := filepath.Join(dir, "overlay.yaml")
	content := `
version: 1
profiles:
  dev:
    max_file_bytes: 5000
    allow_tasks:
      echo: ["echo", "ok"]
`
	if err := os.WriteFile(overlay, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(ProfileDev, overlay, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxFileBytes != 5000 {
		t.Fatalf("expected overlay to override max_file_bytes, got %d", cfg.MaxFileBytes)
	}
	// risk_rules not present in overlay: should survive from kernel defaults.
	if len(cfg.RiskRules.HighGlobs) == 0 {
		t.Fatal("expected risk_rules to survive deep-merge from kernel defaults")
	}
	if _, ok := cfg.AllowTasks["echo"]; !ok {
		t.Fatal("expected overlay allow_tasks to be present")
	}
}

func TestLoadStrictModeRejectsUnknownTopKey(t *testing.T) {
	dir := t.TempDir()
	overlay := filepath.Join(dir, "overlay.yaml")
	content := `
version: 1
bogus_key: true
profiles:
  dev:
    max_file_bytes: 1000
`
	if err := os.WriteFile(overlay, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(ProfileDev, overlay, true); err == nil {
		t.Fatal("expected strict mode to reject unknown top-level key")
	}
}

func TestLoadStrictModeRejectsUnknownProfileKey(t *testing.T) {
	dir := t.TempDir()
	overlay := filepath.Join(dir, "overlay.yaml")
	content := `
version: 1
profiles:
  dev:
    totally_made_up: 1
`
	if err := os.WriteFile(overlay, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(ProfileDev, overlay, true); err == nil {
		t.Fatal("expected strict mode to reject unknown profile key")
	}
}

func TestConfigValidateRejectsEmptyTaskArgv(t *testing.T) {
	cfg, err := Load(ProfileDev, "", false)
	if err != nil {
		t.Fatal(err)
	}
	cfg.AllowTasks = map[string][]string{"broken": {}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for empty task argv")
	}
}

func TestRequiresRunID(t *testing.T) {
	cfg, err := Load(ProfileCI, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.RequiresRunID(false, "write") {
		t.Fatal("expected ci profile to require run_id for write risk")
	}
	if cfg.RequiresRunID(false, "read") {
		t.Fatal("expected read risk to never require run_id")
	}

	devCfg, err := Load(ProfileDev, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if devCfg.RequiresRunID(false, "write") {
		t.Fatal("expected dev profile without strict flag to not require run_id")
	}
	if !devCfg.RequiresRunID(true, "execute") {
		t.Fatal("expected strict flag to require run_id for execute risk regardless of profile")
	}
}
