// Package policy loads and validates the declarative policy that governs
// every tool call: which paths are readable/writable, which tasks may be
// executed, and the numeric limits on stores, files, and subprocess
// runtime. A policy is merged from a built-in kernel document and an
// optional project overlay, then fingerprinted so every audit entry and
// response can point back to exactly which policy produced it.
package policy

import "time"

// Profile names accepted by the runtime. The profile guard in the
// decision pipeline treats "ci" specially (see Config.RequiresRunID);
// "strict" is not a profile name (see SPEC_FULL.md "Resolved Open
// Questions") but an orthogonal CLI/config flag.
const (
	ProfileDev      = "dev"
	ProfileCI       = "ci"
	ProfileReadOnly = "read_only"
)

// ValidProfiles lists every accepted profile name.
var ValidProfiles = []string{ProfileDev, ProfileCI, ProfileReadOnly}

// RiskRules classifies target files into a risk tier for change-bundle
// reporting. Evaluated high, then medium, then low as a fallback.
type RiskRules struct {
	HighGlobs   []string `yaml:"high_globs" validate:"required"`
	MediumGlobs []string `yaml:"medium_globs" validate:"required"`
	LowGlobs    []string `yaml:"low_globs" validate:"required"`
}

// Config is the fully merged, validated, hash-stamped policy for one
// profile. Immutable once constructed by Load.
type Config struct {
	Profile    string `yaml:"-"`
	PolicyHash string `yaml:"-"`

	AllowPaths []string            `yaml:"allow_paths" validate:"required"`
	DenyGlobs  []string            `yaml:"deny_globs"`
	AllowTasks map[string][]string `yaml:"allow_tasks"`

	MaxFileBytes      int `yaml:"max_file_bytes" validate:"gte=0"`
	MaxRuntimeSeconds int `yaml:"max_runtime_seconds" validate:"gte=0"`
	MaxOutputBytes    int `yaml:"max_output_bytes" validate:"gte=0"`
	MaxRuns           int `yaml:"max_runs" validate:"gte=0"`
	RunTTLSeconds     int `yaml:"run_ttl_seconds" validate:"gte=0"`
	MaxBundles        int `yaml:"max_bundles" validate:"gte=0"`
	BundleTTLSeconds  int `yaml:"bundle_ttl_seconds" validate:"gte=0"`
	MaxAuditLogs      int `yaml:"max_audit_logs" validate:"gte=0"`
	AuditTTLSeconds   int `yaml:"audit_ttl_seconds" validate:"gte=0"`

	RiskRules RiskRules `yaml:"risk_rules" validate:"required"`
}

// RunTTL and friends convert the raw second counts to time.Duration for
// use with boundedstore.New.
func (c *Config) RunTTL() time.Duration    { return time.Duration(c.RunTTLSeconds) * time.Second }
func (c *Config) BundleTTL() time.Duration { return time.Duration(c.BundleTTLSeconds) * time.Second }
func (c *Config) AuditTTL() time.Duration  { return time.Duration(c.AuditTTLSeconds) * time.Second }
func (c *Config) MaxRuntime() time.Duration {
	return time.Duration(c.MaxRuntimeSeconds) * time.Second
}

// RequiresRunID reports whether the profile guard (spec §4.5 step 4)
// applies: the "ci" profile, or the orthogonal strict flag, for
// write/execute risk calls.
func (c *Config) RequiresRunID(strict bool, risk string) bool {
	if risk != "write" && risk != "execute" {
		return false
	}
	return c.Profile == ProfileCI || strict
}

// rawDocument is the YAML shape of one profile entry, used by the loader
// before it is fingerprinted into a Config.
type rawDocument struct {
	AllowPaths        []string            `yaml:"allow_paths"`
	DenyGlobs         []string            `yaml:"deny_globs"`
	AllowTasks        map[string][]string `yaml:"allow_tasks"`
	MaxFileBytes      *int                `yaml:"max_file_bytes"`
	MaxRuntimeSeconds *int                `yaml:"max_runtime_seconds"`
	MaxOutputBytes    *int                `yaml:"max_output_bytes"`
	MaxRuns           *int                `yaml:"max_runs"`
	RunTTLSeconds     *int                `yaml:"run_ttl_seconds"`
	MaxBundles        *int                `yaml:"max_bundles"`
	BundleTTLSeconds  *int                `yaml:"bundle_ttl_seconds"`
	MaxAuditLogs      *int                `yaml:"max_audit_logs"`
	AuditTTLSeconds   *int                `yaml:"audit_ttl_seconds"`
	RiskRules         *RiskRules          `yaml:"risk_rules"`
}

// document is the top-level shape of a kernel or overlay YAML file.
type document struct {
	Version  int                    `yaml:"version"`
	Profiles map[string]rawDocument `yaml:"profiles"`
}
