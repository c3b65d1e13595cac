/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package regression

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var changeCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "agentprobe_regression_changes_total",
		Help: "Score changes detected against baselines, by direction",
	},
	[]string{"baseline", "direction"},
)

func observeReport(report *Report) {
	changeCounter.With(prometheus.Labels{
		"baseline": report.BaselineName, "direction": "regression",
	}).Add(float64(report.Regressions))
	changeCounter.With(prometheus.Labels{
		"baseline": report.BaselineName, "direction": "improvement",
	}).Add(float64(report.Improvements))
}
