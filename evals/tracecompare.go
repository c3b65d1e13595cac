/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package evals

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"chainguard.dev/agentprobe/similarity"
	"chainguard.dev/agentprobe/trace"
)

// Dimension names used by the trace comparison evaluator.
const (
	DimToolSequence   = "tool_sequence"
	DimToolParameters = "tool_parameters"
	DimOutput         = "output_similarity"
	DimCostDeviation  = "cost_deviation"
)

// DefaultCompareWeights are the per-dimension weights applied when no
// overrides are given. A zero weight excludes a dimension entirely; the
// composite is renormalized by the sum of the weights actually present.
var DefaultCompareWeights = map[string]float64{
	DimToolSequence:   0.30,
	DimToolParameters: 0.20,
	DimOutput:         0.35,
	DimCostDeviation:  0.15,
}

// TraceCompareEvaluator scores a trace against a fixed reference trace
// across four weighted dimensions: tool sequence (edit distance), tool
// parameter keys (Jaccard), output text (keyword overlap), and token cost
// (ratio).
type TraceCompareEvaluator struct {
	name          string
	reference     *trace.Trace
	weights       map[string]float64
	passThreshold float64
}

// CompareOption configures a TraceCompareEvaluator.
type CompareOption func(*TraceCompareEvaluator)

// WithCompareName overrides the evaluator name.
func WithCompareName(name string) CompareOption {
	return func(e *TraceCompareEvaluator) {
		e.name = name
	}
}

// WithCompareWeights overrides the per-dimension weights.
func WithCompareWeights(weights map[string]float64) CompareOption {
	return func(e *TraceCompareEvaluator) {
		e.weights = weights
	}
}

// WithComparePassThreshold overrides the pass threshold.
func WithComparePassThreshold(threshold float64) CompareOption {
	return func(e *TraceCompareEvaluator) {
		e.passThreshold = threshold
	}
}

// NewTraceCompareEvaluator creates an evaluator bound to a reference trace.
func NewTraceCompareEvaluator(reference *trace.Trace, opts ...CompareOption) *TraceCompareEvaluator {
	e := &TraceCompareEvaluator{
		name:          "trace-compare",
		reference:     reference,
		weights:       DefaultCompareWeights,
		passThreshold: DefaultPassThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements Evaluator.
func (e *TraceCompareEvaluator) Name() string {
	return e.name
}

// Evaluate implements Evaluator. It never fails for well-formed traces.
func (e *TraceCompareEvaluator) Evaluate(_ context.Context, _ *TestCase, tr *trace.Trace) (*EvalResult, error) {
	scores := map[string]float64{
		DimToolSequence:   similarity.LevenshteinSimilarity(e.reference.ToolNames(), tr.ToolNames()),
		DimToolParameters: similarity.Jaccard(paramKeySet(e.reference), paramKeySet(tr)),
		DimOutput:         similarity.KeywordOverlap(e.reference.OutputText, tr.OutputText),
		DimCostDeviation:  similarity.Ratio(e.reference.TotalTokens(), tr.TotalTokens()),
	}

	var totalWeight, composite float64
	for dim, score := range scores {
		w := e.weights[dim]
		totalWeight += w
		composite += score * w
	}

	final := 0.0
	if totalWeight > 0 {
		final = composite / totalWeight
	}
	final = trace.Round4(Clamp01(final))

	return &EvalResult{
		EvalID:        trace.NewID(),
		EvaluatorName: e.name,
		Verdict:       VerdictForScore(final, e.passThreshold),
		Score:         final,
		Reason:        fmt.Sprintf("Trace comparison: %.3f (%s)", final, formatScores(scores)),
		Metadata: map[string]any{
			"dimension_scores": scores,
			"weights":          e.weights,
		},
		CreatedAt: time.Now(),
	}, nil
}

// paramKeySet collects "{tool_name}.{param_key}" strings from every tool
// call in the trace. Parameter values are ignored; only key presence
// matters.
func paramKeySet(tr *trace.Trace) map[string]struct{} {
	keys := make(map[string]struct{})
	for _, tc := range tr.ToolCalls {
		for k := range tc.ToolInput {
			keys[tc.ToolName+"."+k] = struct{}{}
		}
	}
	return keys
}

// formatScores renders dimension scores for the result reason, in a
// stable order.
func formatScores(scores map[string]float64) string {
	dims := make([]string, 0, len(scores))
	for dim := range scores {
		dims = append(dims, dim)
	}
	sort.Strings(dims)

	parts := make([]string, 0, len(dims))
	for _, dim := range dims {
		parts = append(parts, fmt.Sprintf("%s=%.2f", dim, scores[dim]))
	}
	return strings.Join(parts, ", ")
}
