/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package evals

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Global metrics with consistent dimensions
	evaluationCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentprobe_evaluations_total",
			Help: "Total number of evaluations performed",
		},
		[]string{"evaluator", "verdict"},
	)

	scoreGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "agentprobe_evaluation_score",
			Help: "Most recent evaluation score (0.0-1.0)",
		},
		[]string{"evaluator"},
	)
)

// ObserveResult records an evaluation result in the process metrics.
// Callers that want per-result metrics (the runner does) invoke this once
// per EvalResult.
func ObserveResult(result *EvalResult) {
	evaluationCounter.With(prometheus.Labels{
		"evaluator": result.EvaluatorName,
		"verdict":   string(result.Verdict),
	}).Inc()
	scoreGauge.With(prometheus.Labels{
		"evaluator": result.EvaluatorName,
	}).Set(result.Score)
}
