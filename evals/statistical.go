/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package evals

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"chainguard.dev/agentprobe/trace"
)

// zValue95 is the normal-approximation z value for a 95% confidence
// interval. A t-distribution lookup is deliberately not used.
const zValue95 = 1.96

// StatisticalSummary aggregates the score distribution of repeated
// evaluations of the same test case. The raw scores are retained for
// reproducibility.
type StatisticalSummary struct {
	EvaluatorName string    `json:"evaluator_name"`
	SampleCount   int       `json:"sample_count"`
	Scores        []float64 `json:"scores"`
	Mean          float64   `json:"mean"`
	StdDev        float64   `json:"std_dev"`
	Median        float64   `json:"median"`
	P5            float64   `json:"p5"`
	P95           float64   `json:"p95"`
	CILower       float64   `json:"ci_lower"`
	CIUpper       float64   `json:"ci_upper"`
}

// StatisticalEvaluator wraps an inner evaluator and aggregates its scores
// across repeated traces of the same test case. Single-trace evaluation
// passes straight through to the inner evaluator.
type StatisticalEvaluator struct {
	name          string
	inner         Evaluator
	passThreshold float64
}

// StatisticalOption configures a StatisticalEvaluator.
type StatisticalOption func(*StatisticalEvaluator)

// WithStatisticalName overrides the evaluator name.
func WithStatisticalName(name string) StatisticalOption {
	return func(e *StatisticalEvaluator) {
		e.name = name
	}
}

// WithStatisticalPassThreshold overrides the mean-score pass threshold.
func WithStatisticalPassThreshold(threshold float64) StatisticalOption {
	return func(e *StatisticalEvaluator) {
		e.passThreshold = threshold
	}
}

// NewStatisticalEvaluator wraps the given inner evaluator.
func NewStatisticalEvaluator(inner Evaluator, opts ...StatisticalOption) *StatisticalEvaluator {
	e := &StatisticalEvaluator{
		name:          "statistical-" + inner.Name(),
		inner:         inner,
		passThreshold: DefaultPassThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements Evaluator.
func (e *StatisticalEvaluator) Name() string {
	return e.name
}

// Inner returns the wrapped evaluator.
func (e *StatisticalEvaluator) Inner() Evaluator {
	return e.inner
}

// Evaluate implements Evaluator by delegating to the inner evaluator.
// This is the degenerate single-sample case; use EvaluateMultiple for
// aggregation.
func (e *StatisticalEvaluator) Evaluate(ctx context.Context, tc *TestCase, tr *trace.Trace) (*EvalResult, error) {
	return e.inner.Evaluate(ctx, tc, tr)
}

// EvaluateMultiple runs the inner evaluator once per trace, strictly in
// order, and aggregates the resulting scores. Inner evaluator errors are
// captured as zero-score error results rather than aborting the batch.
// With no traces it returns a degenerate all-zero summary with SampleCount
// 1, which downstream consumers rely on.
func (e *StatisticalEvaluator) EvaluateMultiple(ctx context.Context, tc *TestCase, traces []*trace.Trace) *StatisticalSummary {
	scores := make([]float64, 0, len(traces))
	for _, tr := range traces {
		result := Run(ctx, e.inner, tc, tr)
		scores = append(scores, result.Score)
	}

	if len(scores) == 0 {
		return &StatisticalSummary{
			EvaluatorName: e.name,
			SampleCount:   1,
			Scores:        []float64{0.0},
		}
	}

	n := len(scores)
	mean := meanOf(scores)
	stdDev := 0.0
	if n > 1 {
		stdDev = sampleStdDev(scores, mean)
	}

	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)

	ciLower, ciUpper := mean, mean
	if n > 1 {
		se := stdDev / math.Sqrt(float64(n))
		ciLower = math.Max(0.0, mean-zValue95*se)
		ciUpper = math.Min(1.0, mean+zValue95*se)
	}

	return &StatisticalSummary{
		EvaluatorName: e.name,
		SampleCount:   n,
		Scores:        scores,
		Mean:          round6(mean),
		StdDev:        round6(stdDev),
		Median:        round6(medianOf(sorted)),
		P5:            round6(percentile(sorted, 5)),
		P95:           round6(percentile(sorted, 95)),
		CILower:       round6(ciLower),
		CIUpper:       round6(ciUpper),
	}
}

// SummaryToEvalResult converts an aggregated summary into a standard
// result, with the verdict keyed off the mean score.
func (e *StatisticalEvaluator) SummaryToEvalResult(summary *StatisticalSummary) *EvalResult {
	return &EvalResult{
		EvalID:        trace.NewID(),
		EvaluatorName: e.name,
		Verdict:       VerdictForScore(summary.Mean, e.passThreshold),
		Score:         summary.Mean,
		Reason: fmt.Sprintf("Statistical: mean=%.3f, std=%.3f, n=%d",
			summary.Mean, summary.StdDev, summary.SampleCount),
		Metadata: map[string]any{
			"std_dev":      summary.StdDev,
			"median":       summary.Median,
			"p5":           summary.P5,
			"p95":          summary.P95,
			"ci_lower":     summary.CILower,
			"ci_upper":     summary.CIUpper,
			"sample_count": summary.SampleCount,
		},
		CreatedAt: time.Now(),
	}
}

// percentile computes a linear-interpolation percentile over pre-sorted
// data; a single-element slice yields that element for every percentile.
func percentile(sorted []float64, pct float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0.0
	}
	if n == 1 {
		return sorted[0]
	}

	k := float64(n-1) * (pct / 100.0)
	f := math.Floor(k)
	c := math.Ceil(k)
	if f == c {
		return sorted[int(k)]
	}
	return sorted[int(f)]*(c-k) + sorted[int(c)]*(k-f)
}

func meanOf(scores []float64) float64 {
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// sampleStdDev computes the Bessel-corrected standard deviation.
func sampleStdDev(scores []float64, mean float64) float64 {
	sumSq := 0.0
	for _, s := range scores {
		d := s - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(scores)-1))
}

func medianOf(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2.0
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
