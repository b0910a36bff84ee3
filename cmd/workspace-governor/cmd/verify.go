package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/workspace-governor/governor/internal/governor"
)

// Exit codes for verify-bundle, documented in DESIGN.md: 0 means every
// case in the corpus reproduced its expected_bundle_id; 1 means at least
// one case drifted; 2 means the corpus itself could not be read/parsed.
const (
	exitDrift          = 1
	exitCorpusUnusable = 2
)

var corpusPath string

var verifyCmd = &cobra.Command{
	Use:   "verify-bundle",
	Short: "Check the golden bundle-id corpus for drift",
	Long: `Recompute the change-bundle id for every case in the golden corpus and
compare it against the recorded expected_bundle_id. A mismatch means the
canonical-hash inputs (contract_version, policy_hash, target_files, diff
normalization) have drifted from what the corpus was generated against.`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&corpusPath, "corpus", "testdata/golden_bundles.json", "path to the golden bundle-id corpus")
	rootCmd.AddCommand(verifyCmd)
}

type goldenCase struct {
	Name             string   `json:"name"`
	DiffText         string   `json:"diff_text"`
	TargetFiles      []string `json:"target_files"`
	PolicyHash       string   `json:"policy_hash"`
	ContractVersion  string   `json:"contract_version"`
	ExpectedBundleID string   `json:"expected_bundle_id"`
}

type goldenCorpus struct {
	Cases []goldenCase `json:"cases"`
}

func runVerify(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(corpusPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verify-bundle: failed to read corpus %s: %v\n", corpusPath, err)
		os.Exit(exitCorpusUnusable)
	}

	var corpus goldenCorpus
	if err := json.Unmarshal(raw, &corpus); err != nil {
		fmt.Fprintf(os.Stderr, "verify-bundle: failed to parse corpus %s: %v\n", corpusPath, err)
		os.Exit(exitCorpusUnusable)
	}

	if len(corpus.Cases) == 0 {
		fmt.Fprintf(os.Stderr, "verify-bundle: corpus %s has no cases\n", corpusPath)
		os.Exit(exitCorpusUnusable)
	}

	drifted := 0
	for _, c := range corpus.Cases {
		got, err := governor.ComputeBundleID(c.PolicyHash, c.TargetFiles, c.DiffText)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: compute error: %v\n", c.Name, err)
			drifted++
			continue
		}
		if got != c.ExpectedBundleID {
			fmt.Fprintf(os.Stderr, "FAIL %s: got %s, want %s\n", c.Name, got, c.ExpectedBundleID)
			drifted++
			continue
		}
		fmt.Printf("ok   %s\n", c.Name)
	}

	if drifted > 0 {
		fmt.Fprintf(os.Stderr, "verify-bundle: %d/%d cases drifted\n", drifted, len(corpus.Cases))
		os.Exit(exitDrift)
	}

	fmt.Printf("verify-bundle: %d cases OK\n", len(corpus.Cases))
	return nil
}
