/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge_test

import (
	"context"
	"errors"
	"testing"

	"chainguard.dev/agentprobe/evals"
	"chainguard.dev/agentprobe/judge"
	"chainguard.dev/agentprobe/trace"
)

// fakeJudge records the last request and returns a fixed judgement.
type fakeJudge struct {
	lastRequest *judge.Request
	judgement   *judge.Judgement
	err         error
}

func (f *fakeJudge) Judge(_ context.Context, request *judge.Request) (*judge.Judgement, error) {
	f.lastRequest = request
	if f.err != nil {
		return nil, f.err
	}
	return f.judgement, nil
}

func TestEvaluatorGoldenMode(t *testing.T) {
	fake := &fakeJudge{judgement: &judge.Judgement{
		Mode:      judge.GoldenMode,
		Score:     0.9,
		Reasoning: "matches the reference",
	}}
	e := judge.NewEvaluator(fake)

	tc := &evals.TestCase{
		Name:           "greeting",
		InputText:      "say hello",
		ExpectedOutput: "hello there",
	}
	tr := &trace.Trace{OutputText: "hi there"}

	result, err := e.Evaluate(context.Background(), tc, tr)
	if err != nil {
		t.Fatalf("Evaluate() = %v", err)
	}

	if fake.lastRequest.Mode != judge.GoldenMode {
		t.Errorf("Mode = %v, wanted = %v", fake.lastRequest.Mode, judge.GoldenMode)
	}
	if fake.lastRequest.ReferenceAnswer != "hello there" {
		t.Errorf("ReferenceAnswer = %q, wanted = %q", fake.lastRequest.ReferenceAnswer, "hello there")
	}
	if fake.lastRequest.ActualAnswer != "hi there" {
		t.Errorf("ActualAnswer = %q, wanted = %q", fake.lastRequest.ActualAnswer, "hi there")
	}
	if result.Score != 0.9 || result.Verdict != evals.VerdictPass {
		t.Errorf("result = (%v, %v), wanted = (0.9, pass)", result.Score, result.Verdict)
	}
	if result.Reason != "matches the reference" {
		t.Errorf("Reason = %q, wanted = %q", result.Reason, "matches the reference")
	}
}

func TestEvaluatorStandaloneMode(t *testing.T) {
	fake := &fakeJudge{judgement: &judge.Judgement{
		Mode:  judge.StandaloneMode,
		Score: 0.55,
	}}
	e := judge.NewEvaluator(fake, judge.WithCriterion("is polite"))

	tc := &evals.TestCase{Name: "greeting", InputText: "say hello"}
	tr := &trace.Trace{OutputText: "hi"}

	result, err := e.Evaluate(context.Background(), tc, tr)
	if err != nil {
		t.Fatalf("Evaluate() = %v", err)
	}

	if fake.lastRequest.Mode != judge.StandaloneMode {
		t.Errorf("Mode = %v, wanted = %v", fake.lastRequest.Mode, judge.StandaloneMode)
	}
	if fake.lastRequest.Criterion != "is polite" {
		t.Errorf("Criterion = %q, wanted = %q", fake.lastRequest.Criterion, "is polite")
	}
	if result.Verdict != evals.VerdictPartial {
		t.Errorf("Verdict = %v, wanted = %v", result.Verdict, evals.VerdictPartial)
	}
}

func TestEvaluatorCriterionFromMetadata(t *testing.T) {
	fake := &fakeJudge{judgement: &judge.Judgement{Score: 1.0}}
	e := judge.NewEvaluator(fake)

	tc := &evals.TestCase{
		Name:     "custom",
		Metadata: map[string]any{"criterion": "mentions the refund policy"},
	}
	if _, err := e.Evaluate(context.Background(), tc, &trace.Trace{OutputText: "x"}); err != nil {
		t.Fatalf("Evaluate() = %v", err)
	}
	if fake.lastRequest.Criterion != "mentions the refund policy" {
		t.Errorf("Criterion = %q, wanted metadata override", fake.lastRequest.Criterion)
	}
}

func TestEvaluatorPropagatesJudgeError(t *testing.T) {
	fake := &fakeJudge{err: errors.New("api quota exceeded")}
	e := judge.NewEvaluator(fake)

	_, err := e.Evaluate(context.Background(), &evals.TestCase{Name: "x"}, &trace.Trace{OutputText: "y"})
	if err == nil {
		t.Fatal("Evaluate() = nil error, wanted non-nil")
	}
}
