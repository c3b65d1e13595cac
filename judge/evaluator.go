/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"context"
	"time"

	"chainguard.dev/agentprobe/evals"
	"chainguard.dev/agentprobe/trace"
)

// DefaultCriterion is used when the test case does not specify one.
const DefaultCriterion = "The response is correct, complete, and directly addresses the input."

// Evaluator adapts a judge into the evaluator interface. Test cases with
// an expected output are judged in golden mode; the rest standalone.
type Evaluator struct {
	judge     Interface
	name      string
	criterion string
	threshold float64
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithName overrides the evaluator name.
func WithName(name string) EvaluatorOption {
	return func(e *Evaluator) {
		e.name = name
	}
}

// WithCriterion sets the default criterion for test cases that do not
// carry one in metadata.
func WithCriterion(criterion string) EvaluatorOption {
	return func(e *Evaluator) {
		e.criterion = criterion
	}
}

// WithPassThreshold overrides the pass threshold.
func WithPassThreshold(threshold float64) EvaluatorOption {
	return func(e *Evaluator) {
		e.threshold = threshold
	}
}

// NewEvaluator wraps a judge as an evaluator.
func NewEvaluator(j Interface, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		judge:     j,
		name:      "llm-judge",
		criterion: DefaultCriterion,
		threshold: evals.DefaultPassThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements evals.Evaluator.
func (e *Evaluator) Name() string { return e.name }

// Evaluate implements evals.Evaluator.
func (e *Evaluator) Evaluate(ctx context.Context, tc *evals.TestCase, tr *trace.Trace) (*evals.EvalResult, error) {
	criterion := e.criterion
	if c, ok := tc.Metadata["criterion"].(string); ok && c != "" {
		criterion = c
	}

	request := &Request{
		Mode:         StandaloneMode,
		ActualAnswer: tr.OutputText,
		Criterion:    criterion,
	}
	if tc.ExpectedOutput != "" {
		request.Mode = GoldenMode
		request.ReferenceAnswer = tc.ExpectedOutput
	}

	judgement, err := e.judge.Judge(ctx, request)
	if err != nil {
		return nil, err
	}

	return &evals.EvalResult{
		EvalID:        trace.NewID(),
		EvaluatorName: e.name,
		Verdict:       evals.VerdictForScore(judgement.Score, e.threshold),
		Score:         judgement.Score,
		Reason:        judgement.Reasoning,
		Metadata: map[string]any{
			"mode":        string(judgement.Mode),
			"suggestions": judgement.Suggestions,
		},
		CreatedAt: time.Now().UTC(),
	}, nil
}
