// Package config loads the governor's runtime configuration: the settings
// that decide how the process starts (workspace root, policy profile,
// listen address) as opposed to the policy itself, which lives in
// internal/policy. Precedence is CLI flags > environment > config file >
// built-in defaults, following the teacher's internal/config/loader.go.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// RuntimeConfig is the top-level configuration for the governor process.
type RuntimeConfig struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Workspace WorkspaceConfig `yaml:"workspace" mapstructure:"workspace"`
	DevMode   bool            `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ServerConfig configures the optional HTTP listener that serves
// Prometheus metrics alongside the stdio MCP transport.
type ServerConfig struct {
	MetricsAddr string `yaml:"metrics_addr" mapstructure:"metrics_addr" validate:"omitempty,hostname_port"`
	LogLevel    string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	TraceOutput string `yaml:"trace_output" mapstructure:"trace_output"`
}

// WorkspaceConfig configures the governed workspace and the policy that
// governs it.
type WorkspaceConfig struct {
	Root        string `yaml:"root" mapstructure:"root" validate:"required"`
	Profile     string `yaml:"profile" mapstructure:"profile" validate:"required,profile_name"`
	PolicyFile  string `yaml:"policy_file" mapstructure:"policy_file"`
	Strict      bool   `yaml:"strict" mapstructure:"strict"`
}

// InitViper wires config file discovery and environment variable support.
// If configFile is empty, it searches standard locations for
// workspace-governor.yaml/.yml, mirroring the teacher's findConfigFile.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		viper.SetConfigName("workspace-governor")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("WORKSPACE_GOVERNOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{".", filepath.Join(home, ".workspace-governor"), "/etc/workspace-governor"}
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "workspace-governor"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

func bindNestedEnvKeys() {
	_ = viper.BindEnv("server.metrics_addr")
	_ = viper.BindEnv("server.log_level")
	_ = viper.BindEnv("server.trace_output")
	_ = viper.BindEnv("workspace.root")
	_ = viper.BindEnv("workspace.profile")
	_ = viper.BindEnv("workspace.policy_file")
	_ = viper.BindEnv("workspace.strict")
	_ = viper.BindEnv("dev_mode")
}

// SetDefaults applies defaults for fields the file/env/flags left unset.
func (c *RuntimeConfig) SetDefaults() {
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Workspace.Root == "" {
		if wd, err := os.Getwd(); err == nil {
			c.Workspace.Root = wd
		}
	}
	if c.Workspace.Profile == "" {
		c.Workspace.Profile = "dev"
	}
}

// LoadRuntimeConfig reads the configuration file (if any), applies
// environment overrides already bound by InitViper, and fills in defaults.
// Callers apply CLI flag overrides via viper.BindPFlag before calling this,
// so flags win over file/env by construction.
func LoadRuntimeConfig() (*RuntimeConfig, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: failed to read config file: %w", err)
		}
	}

	var cfg RuntimeConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal runtime config: %w", err)
	}
	cfg.SetDefaults()
	return &cfg, nil
}

// ConfigFileUsed returns the path of the config file that was loaded, or
// empty if none was found (environment/flags only).
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
