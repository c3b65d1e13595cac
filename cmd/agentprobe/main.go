/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Command agentprobe manages snapshots and baselines, and runs
// regression comparisons from the command line.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/chainguard-dev/clog"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is fine; environment wins either way.
	_ = godotenv.Load()

	log := clog.New(slog.Default().Handler())
	ctx := clog.WithLogger(context.Background(), log)

	if err := rootCommand().ExecuteContext(ctx); err != nil {
		log.Errorf("agentprobe: %v", err)
		os.Exit(1)
	}
}
