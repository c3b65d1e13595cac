/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chainguard.dev/agentprobe/report"
	"chainguard.dev/agentprobe/snapshot"
	"chainguard.dev/agentprobe/trace"
)

func snapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage golden-file snapshots",
	}
	cmd.AddCommand(snapshotListCommand())
	cmd.AddCommand(snapshotDeleteCommand())
	cmd.AddCommand(snapshotDiffCommand())
	return cmd
}

func snapshotManager(cmd *cobra.Command) (*snapshot.Manager, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return snapshot.NewManager(cfg.Snapshot.Dir,
		snapshot.WithThreshold(cfg.Snapshot.Threshold)), nil
}

func snapshotListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := snapshotManager(cmd)
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
	}
}

func snapshotDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := snapshotManager(cmd)
			if err != nil {
				return err
			}
			deleted, err := mgr.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("snapshot %q does not exist", args[0])
			}
			return nil
		},
	}
}

func snapshotDiffCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "diff NAME TRACE_FILE",
		Short: "Compare a recorded trace against a snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := snapshotManager(cmd)
			if err != nil {
				return err
			}
			tr, err := trace.LoadFile(args[1])
			if err != nil {
				return err
			}
			diff, err := mgr.Compare(cmd.Context(), args[0], tr)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.SnapshotDiff(diff))
			if !diff.IsMatch {
				return fmt.Errorf("snapshot %q mismatch: %.4f below threshold %.2f",
					args[0], diff.OverallSimilarity, diff.Threshold)
			}
			return nil
		},
	}
}
