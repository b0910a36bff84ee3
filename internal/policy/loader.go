package policy

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/workspace-governor/governor/internal/canonicalhash"
)

//go:embed kernel_policy.yaml
var kernelPolicyYAML []byte

var allowedTopKeys = map[string]bool{"version": true, "profiles": true}

var allowedProfileKeys = map[string]bool{
	"allow_paths": true, "deny_globs": true, "allow_tasks": true,
	"max_file_bytes": true, "max_runtime_seconds": true, "max_output_bytes": true,
	"max_runs": true, "run_ttl_seconds": true, "max_bundles": true,
	"bundle_ttl_seconds": true, "max_audit_logs": true, "audit_ttl_seconds": true,
	"risk_rules": true,
}

var allowedRiskRuleKeys = map[string]bool{
	"high_globs": true, "medium_globs": true, "low_globs": true,
}

// Load reads the embedded kernel policy, deep-merges an optional project
// overlay file over it, validates the requested profile, and returns the
// fully hash-stamped Config. overlayPath may be empty, in which case only
// the kernel policy is used.
func Load(profile string, overlayPath string, strict bool) (*Config, error) {
	kernel, err := decodeYAMLMap(kernelPolicyYAML)
	if err != nil {
		return nil, fmt.Errorf("policy: decode kernel policy: %w", err)
	}

	merged := kernel
	if overlayPath != "" {
		raw, err := os.ReadFile(overlayPath)
		if err != nil {
			return nil, fmt.Errorf("policy: read overlay %s: %w", overlayPath, err)
		}
		overlay, err := decodeYAMLMap(raw)
		if err != nil {
			return nil, fmt.Errorf("policy: decode overlay %s: %w", overlayPath, err)
		}
		merged = deepMerge(kernel, overlay)
	}

	if strict {
		if err := validateTopLevel(merged); err != nil {
			return nil, err
		}
	}

	profiles, _ := merged["profiles"].(map[string]any)
	if profiles == nil {
		return nil, fmt.Errorf("policy: no profiles defined")
	}
	profileMap, ok := profiles[profile].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("policy: unknown profile %q", profile)
	}

	if strict {
		if err := validateProfileKeys(profile, profileMap); err != nil {
			return nil, err
		}
	}

	validated, err := requireProfileShape(profile, profileMap)
	if err != nil {
		return nil, err
	}

	cfg, err := buildConfig(profile, validated)
	if err != nil {
		return nil, err
	}

	hash, err := computePolicyHash(profile, validated)
	if err != nil {
		return nil, fmt.Errorf("policy: compute policy hash: %w", err)
	}
	cfg.PolicyHash = hash

	return cfg, nil
}

func decodeYAMLMap(raw []byte) (map[string]any, error) {
	var m map[string]any
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	return normalizeYAMLMaps(m).(map[string]any), nil
}

// normalizeYAMLMaps rewrites map[any]any (what yaml.v3 produces for nested
// maps under `any`) into map[string]any recursively, so downstream code
// never has to type-switch on both shapes.
func normalizeYAMLMaps(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalizeYAMLMaps(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[fmt.Sprint(k)] = normalizeYAMLMaps(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalizeYAMLMaps(e)
		}
		return out
	default:
		return val
	}
}

// deepMerge merges overlay onto base: nested maps merge key by key,
// everything else (scalars, lists) is overwritten wholesale by overlay's
// value when present.
func deepMerge(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, ov := range overlay {
		if bv, ok := out[k]; ok {
			bm, bIsMap := bv.(map[string]any)
			om, oIsMap := ov.(map[string]any)
			if bIsMap && oIsMap {
				out[k] = deepMerge(bm, om)
				continue
			}
		}
		out[k] = ov
	}
	return out
}

func validateTopLevel(doc map[string]any) error {
	for k := range doc {
		if !allowedTopKeys[k] {
			return fmt.Errorf("policy: unknown top-level key %q (strict mode)", k)
		}
	}
	return nil
}

func validateProfileKeys(profile string, p map[string]any) error {
	for k := range p {
		if !allowedProfileKeys[k] {
			return fmt.Errorf("policy: profile %q has unknown key %q (strict mode)", profile, k)
		}
	}
	if rr, ok := p["risk_rules"].(map[string]any); ok {
		for k := range rr {
			if !allowedRiskRuleKeys[k] {
				return fmt.Errorf("policy: profile %q risk_rules has unknown key %q (strict mode)", profile, k)
			}
		}
	}
	return nil
}

var requiredProfileKeys = []string{
	"allow_paths", "deny_globs", "allow_tasks",
	"max_file_bytes", "max_runtime_seconds", "max_output_bytes",
	"max_runs", "run_ttl_seconds", "max_bundles", "bundle_ttl_seconds",
	"max_audit_logs", "audit_ttl_seconds", "risk_rules",
}

// requireProfileShape checks every required key is present and of the
// right coarse type, returning a normalized copy with int-like numerics
// coerced to int and string lists coerced to []string.
func requireProfileShape(profile string, p map[string]any) (map[string]any, error) {
	for _, key := range requiredProfileKeys {
		if _, ok := p[key]; !ok {
			return nil, fmt.Errorf("policy: profile %q missing required key %q", profile, key)
		}
	}

	out := map[string]any{}
	var err error

	if out["allow_paths"], err = requireStringList(p["allow_paths"]); err != nil {
		return nil, fmt.Errorf("policy: profile %q allow_paths: %w", profile, err)
	}
	if out["deny_globs"], err = requireStringList(p["deny_globs"]); err != nil {
		return nil, fmt.Errorf("policy: profile %q deny_globs: %w", profile, err)
	}
	if out["allow_tasks"], err = requireTaskMap(p["allow_tasks"]); err != nil {
		return nil, fmt.Errorf("policy: profile %q allow_tasks: %w", profile, err)
	}

	for _, key := range []string{
		"max_file_bytes", "max_runtime_seconds", "max_output_bytes",
		"max_runs", "run_ttl_seconds", "max_bundles", "bundle_ttl_seconds",
		"max_audit_logs", "audit_ttl_seconds",
	} {
		n, err := requireNonNegativeInt(p[key])
		if err != nil {
			return nil, fmt.Errorf("policy: profile %q %s: %w", profile, key, err)
		}
		out[key] = n
	}

	riskRaw, ok := p["risk_rules"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("policy: profile %q risk_rules must be a mapping", profile)
	}
	riskOut := map[string]any{}
	for _, key := range []string{"high_globs", "medium_globs", "low_globs"} {
		v, ok := riskRaw[key]
		if !ok {
			return nil, fmt.Errorf("policy: profile %q risk_rules missing %q", profile, key)
		}
		list, err := requireStringList(v)
		if err != nil {
			return nil, fmt.Errorf("policy: profile %q risk_rules.%s: %w", profile, key, err)
		}
		riskOut[key] = list
	}
	out["risk_rules"] = riskOut

	return out, nil
}

func requireStringList(v any) ([]string, error) {
	list, ok := v.([]any)
	if !ok {
		if _, isStr := v.([]string); isStr {
			return v.([]string), nil
		}
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		s, ok := e.(string)
		if !ok {
			return nil, fmt.Errorf("expected string entries, got %T", e)
		}
		out = append(out, s)
	}
	return out, nil
}

func requireTaskMap(v any) (map[string][]string, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a mapping of name to argv, got %T", v)
	}
	out := make(map[string][]string, len(m))
	for name, argvRaw := range m {
		argv, err := requireStringList(argvRaw)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", name, err)
		}
		out[name] = argv
	}
	return out, nil
}

func requireNonNegativeInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		if n < 0 {
			return 0, fmt.Errorf("must be non-negative, got %d", n)
		}
		return n, nil
	case int64:
		return requireNonNegativeInt(int(n))
	case float64:
		return requireNonNegativeInt(int(n))
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

func buildConfig(profile string, validated map[string]any) (*Config, error) {
	riskRules := validated["risk_rules"].(map[string]any)
	cfg := &Config{
		Profile:           profile,
		AllowPaths:        validated["allow_paths"].([]string),
		DenyGlobs:         validated["deny_globs"].([]string),
		AllowTasks:        validated["allow_tasks"].(map[string][]string),
		MaxFileBytes:      validated["max_file_bytes"].(int),
		MaxRuntimeSeconds: validated["max_runtime_seconds"].(int),
		MaxOutputBytes:    validated["max_output_bytes"].(int),
		MaxRuns:           validated["max_runs"].(int),
		RunTTLSeconds:     validated["run_ttl_seconds"].(int),
		MaxBundles:        validated["max_bundles"].(int),
		BundleTTLSeconds:  validated["bundle_ttl_seconds"].(int),
		MaxAuditLogs:      validated["max_audit_logs"].(int),
		AuditTTLSeconds:   validated["audit_ttl_seconds"].(int),
		RiskRules: RiskRules{
			HighGlobs:   riskRules["high_globs"].([]string),
			MediumGlobs: riskRules["medium_globs"].([]string),
			LowGlobs:    riskRules["low_globs"].([]string),
		},
	}
	return cfg, nil
}

// computePolicyHash mirrors the original implementation's canonical
// payload exactly: {version, profile, policy:{...the validated subset}}.
func computePolicyHash(profile string, validated map[string]any) (string, error) {
	payload := map[string]any{
		"version": 1,
		"profile": profile,
		"policy": map[string]any{
			"allow_paths":          validated["allow_paths"],
			"deny_globs":           validated["deny_globs"],
			"allow_tasks":          validated["allow_tasks"],
			"max_file_bytes":       validated["max_file_bytes"],
			"max_runtime_seconds":  validated["max_runtime_seconds"],
			"max_output_bytes":     validated["max_output_bytes"],
			"max_runs":             validated["max_runs"],
			"run_ttl_seconds":      validated["run_ttl_seconds"],
			"max_bundles":          validated["max_bundles"],
			"bundle_ttl_seconds":   validated["bundle_ttl_seconds"],
			"max_audit_logs":       validated["max_audit_logs"],
			"audit_ttl_seconds":    validated["audit_ttl_seconds"],
			"risk_rules":           validated["risk_rules"],
		},
	}
	return canonicalhash.Sum(payload)
}
