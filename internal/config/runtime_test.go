package config

import "testing"

func TestSetDefaultsFillsProfileAndLogLevel(t *testing.T) {
	var cfg RuntimeConfig
	cfg.SetDefaults()
	if cfg.Workspace.Profile != "dev" {
		t.Fatalf("expected default profile dev, got %q", cfg.Workspace.Profile)
	}
	if cfg.Server.LogLevel != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.Server.LogLevel)
	}
	if cfg.Workspace.Root == "" {
		t.Fatal("expected default workspace root to be filled from cwd")
	}
}

func TestValidateRejectsUnknownProfile(t *testing.T) {
	cfg := RuntimeConfig{Workspace: WorkspaceConfig{Root: "/tmp", Profile: "not-a-real-profile"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown profile")
	}
}

func TestValidateAcceptsKnownProfile(t *testing.T) {
	cfg := RuntimeConfig{Workspace: WorkspaceConfig{Root: "/tmp", Profile: "dev"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsMissingRoot(t *testing.T) {
	cfg := RuntimeConfig{Workspace: WorkspaceConfig{Profile: "dev"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for missing workspace root")
	}
}
