/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chainguard.dev/agentprobe/regression"
	"chainguard.dev/agentprobe/report"
	"chainguard.dev/agentprobe/runner"
)

func baselineManager(cmd *cobra.Command) (*regression.BaselineManager, float64, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, 0, err
	}
	return regression.NewBaselineManager(cfg.Regression.Dir), cfg.Regression.Threshold, nil
}

func baselineCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage regression baselines",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved baselines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, _, err := baselineManager(cmd)
			if err != nil {
				return err
			}
			names, err := mgr.List()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a baseline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := baselineManager(cmd)
			if err != nil {
				return err
			}
			deleted, err := mgr.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("baseline %q does not exist", args[0])
			}
			return nil
		},
	})
	return cmd
}

func regressionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "regression BASELINE RESULTS_FILE",
		Short: "Compare current test results against a baseline",
		Long: `Compare a JSON file of test results against a saved baseline and
report per-test score regressions and improvements. Exits non-zero when
any regression is detected.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, threshold, err := baselineManager(cmd)
			if err != nil {
				return err
			}
			baseline, err := mgr.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("reading results %q: %w", args[1], err)
			}
			var current []*runner.TestResult
			if err := json.Unmarshal(data, &current); err != nil {
				return fmt.Errorf("decoding results %q: %w", args[1], err)
			}

			detector := regression.NewDetector(regression.WithThreshold(threshold))
			rep := detector.Compare(cmd.Context(), args[0], baseline, current)
			fmt.Fprint(cmd.OutOrStdout(), report.Regression(rep))
			if rep.HasRegressions() {
				return fmt.Errorf("%d regression(s) against baseline %q", rep.Regressions, args[0])
			}
			return nil
		},
	}
}
