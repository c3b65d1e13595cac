/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package evals

import (
	"context"
	"fmt"
	"time"

	"github.com/chainguard-dev/clog"

	"chainguard.dev/agentprobe/trace"
)

// Verdict is the outcome category an evaluator assigns to a trace.
type Verdict string

const (
	VerdictPass    Verdict = "pass"
	VerdictFail    Verdict = "fail"
	VerdictPartial Verdict = "partial"
	VerdictError   Verdict = "error"
)

// PartialThreshold is the composite score floor for a partial verdict,
// shared by every scoring evaluator.
const PartialThreshold = 0.5

// DefaultPassThreshold is the composite score floor for a pass verdict.
const DefaultPassThreshold = 0.7

// TestCase describes one scenario to run an agent through.
type TestCase struct {
	TestID         string         `json:"test_id"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	InputText      string         `json:"input_text"`
	ExpectedOutput string         `json:"expected_output,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
	Timeout        time.Duration  `json:"-"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// EvalResult is one evaluator's judgment of one trace. Results are
// constructed fresh per evaluation and never mutated.
type EvalResult struct {
	EvalID        string         `json:"eval_id"`
	EvaluatorName string         `json:"evaluator_name"`
	Verdict       Verdict        `json:"verdict"`
	Score         float64        `json:"score"`
	Reason        string         `json:"reason,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Passed reports whether the verdict counts as acceptable (pass or partial).
func (r *EvalResult) Passed() bool {
	return r.Verdict == VerdictPass || r.Verdict == VerdictPartial
}

// Evaluator scores a trace for a test case. Implementations must be total
// over well-formed inputs: a very different trace is a low score, not an
// error. Errors are reserved for missing references or backend failures.
type Evaluator interface {
	// Name identifies the evaluator in results and reports.
	Name() string
	// Evaluate scores the trace for the given test case.
	Evaluate(ctx context.Context, tc *TestCase, tr *trace.Trace) (*EvalResult, error)
}

// VerdictForScore maps a composite score to a verdict using the standard
// pass/partial/fail ladder.
func VerdictForScore(score, passThreshold float64) Verdict {
	switch {
	case score >= passThreshold:
		return VerdictPass
	case score >= PartialThreshold:
		return VerdictPartial
	default:
		return VerdictFail
	}
}

// Run executes an evaluator with timing and error capture, always
// returning a result. Evaluator errors become an error-verdict result
// rather than propagating, so a batch of evaluations never aborts on a
// single misbehaving evaluator.
func Run(ctx context.Context, e Evaluator, tc *TestCase, tr *trace.Trace) *EvalResult {
	log := clog.FromContext(ctx)
	start := time.Now()

	result, err := e.Evaluate(ctx, tc, tr)
	elapsed := time.Since(start)
	if err != nil {
		log.With("evaluator", e.Name(), "test", tc.Name).
			Errorf("Evaluation failed: %v", err)
		return &EvalResult{
			EvalID:        trace.NewID(),
			EvaluatorName: e.Name(),
			Verdict:       VerdictError,
			Score:         0.0,
			Reason:        fmt.Sprintf("evaluation error: %v", err),
			Metadata:      map[string]any{"duration_ms": elapsed.Milliseconds()},
			CreatedAt:     start,
		}
	}

	log.With("evaluator", e.Name(), "test", tc.Name,
		"verdict", string(result.Verdict), "score", result.Score).
		Debug("Evaluation completed")
	return result
}

// Clamp01 clamps a score into [0, 1].
func Clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
