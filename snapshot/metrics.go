/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package snapshot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var compareCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "agentprobe_snapshot_comparisons_total",
		Help: "Snapshot comparisons performed, by outcome",
	},
	[]string{"outcome"},
)

func observeDiff(diff *Diff) {
	outcome := "mismatch"
	if diff.IsMatch {
		outcome = "match"
	}
	compareCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}
