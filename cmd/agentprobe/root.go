/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"github.com/spf13/cobra"

	"chainguard.dev/agentprobe/config"
)

var configPath string

func rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "agentprobe",
		Short:         "Agent testing: snapshots, baselines, and regression detection",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is ./agentprobe.yaml)")

	cmd.AddCommand(snapshotCommand())
	cmd.AddCommand(baselineCommand())
	cmd.AddCommand(regressionCommand())
	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(cmd.Context(), configPath)
}
