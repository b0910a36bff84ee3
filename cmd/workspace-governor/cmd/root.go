// Package cmd provides the CLI commands for the workspace governor.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/workspace-governor/governor/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "workspace-governor",
	Short: "Workspace Governor - a policy-mediated MCP workspace kernel",
	Long: `Workspace Governor mediates read/write/execute access to a workspace
for Model Context Protocol tool calls: every repo_search, read_file,
apply_patch, run_task, and change-bundle operation is checked against a
profile's deny_globs/allow_paths/task allowlist before it runs.

Quick start:
  1. Create a policy overlay: workspace-governor.yaml
  2. Run: workspace-governor serve

Configuration:
  Config is loaded from workspace-governor.yaml in the current directory,
  $HOME/.workspace-governor/, or /etc/workspace-governor/.

  Environment variables can override config values with the
  WORKSPACE_GOVERNOR_ prefix. Example: WORKSPACE_GOVERNOR_WORKSPACE_PROFILE=ci

Commands:
  serve         Start the stdio MCP server
  verify-bundle Check the golden bundle-id corpus for drift
  version       Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./workspace-governor.yaml)")
	rootCmd.PersistentFlags().String("workspace-root", "", "workspace directory the governor mediates access to")
	rootCmd.PersistentFlags().String("policy-path", "", "path to a policy overlay YAML file, merged over the embedded kernel defaults")
	rootCmd.PersistentFlags().String("profile", "", "policy profile: dev, ci, or read_only")
	rootCmd.PersistentFlags().Bool("strict", false, "require run_id for every write/execute-risk call, regardless of profile")

	_ = viper.BindPFlag("workspace.root", rootCmd.PersistentFlags().Lookup("workspace-root"))
	_ = viper.BindPFlag("workspace.policy_file", rootCmd.PersistentFlags().Lookup("policy-path"))
	_ = viper.BindPFlag("workspace.profile", rootCmd.PersistentFlags().Lookup("profile"))
	_ = viper.BindPFlag("workspace.strict", rootCmd.PersistentFlags().Lookup("strict"))
}

func initConfig() {
	config.InitViper(cfgFile)
}
