/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package runner_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chainguard.dev/agentprobe/evals"
	"chainguard.dev/agentprobe/runner"
	"chainguard.dev/agentprobe/trace"
)

// fakeAdapter returns canned traces keyed by input text.
type fakeAdapter struct {
	name     string
	invoked  atomic.Int64
	delay    time.Duration
	failOn   string
	response func(input string) *trace.Trace
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Invoke(ctx context.Context, inputText string) (*trace.Trace, error) {
	f.invoked.Add(1)
	if f.failOn == inputText {
		return nil, errors.New("agent crashed")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.response != nil {
		return f.response(inputText), nil
	}
	return &trace.Trace{
		TraceID:    trace.NewID(),
		AgentName:  f.name,
		InputText:  inputText,
		OutputText: "echo: " + inputText,
	}, nil
}

// fixedEvaluator always returns the same score.
type fixedEvaluator struct {
	name  string
	score float64
}

func (f *fixedEvaluator) Name() string { return f.name }

func (f *fixedEvaluator) Evaluate(context.Context, *evals.TestCase, *trace.Trace) (*evals.EvalResult, error) {
	return &evals.EvalResult{
		EvalID:        trace.NewID(),
		EvaluatorName: f.name,
		Verdict:       evals.VerdictForScore(f.score, evals.DefaultPassThreshold),
		Score:         f.score,
	}, nil
}

func cases(names ...string) []*evals.TestCase {
	tcs := make([]*evals.TestCase, 0, len(names))
	for _, name := range names {
		tcs = append(tcs, &evals.TestCase{
			TestID:    trace.NewID(),
			Name:      name,
			InputText: name,
		})
	}
	return tcs
}

func TestRunSequential(t *testing.T) {
	t.Parallel()
	adapter := &fakeAdapter{name: "echo"}
	r := runner.New(runner.WithEvaluators(&fixedEvaluator{name: "fixed", score: 0.9}))

	run := r.Run(context.Background(), adapter, cases("a", "b", "c"))

	require.Equal(t, "echo", run.AgentName)
	require.Equal(t, runner.RunCompleted, run.Status)
	require.Equal(t, 3, run.TotalTests)
	require.Equal(t, 3, run.Passed)
	require.Equal(t, int64(3), adapter.invoked.Load())
	for _, result := range run.TestResults {
		require.Equal(t, runner.StatusPassed, result.Status)
		require.Equal(t, 0.9, result.Score)
		require.NotNil(t, result.Trace)
		require.Len(t, result.EvalResults, 1)
	}
}

func TestRunNoEvaluators(t *testing.T) {
	t.Parallel()
	run := runner.New().Run(context.Background(), &fakeAdapter{name: "echo"}, cases("a"))

	require.Equal(t, runner.StatusPassed, run.TestResults[0].Status)
	require.Equal(t, 1.0, run.TestResults[0].Score)
	require.Empty(t, run.TestResults[0].EvalResults)
}

func TestRunScoreAveraging(t *testing.T) {
	t.Parallel()
	r := runner.New(runner.WithEvaluators(
		&fixedEvaluator{name: "high", score: 1.0},
		&fixedEvaluator{name: "low", score: 0.4},
	))
	run := r.Run(context.Background(), &fakeAdapter{name: "echo"}, cases("a"))

	result := run.TestResults[0]
	require.InDelta(t, 0.7, result.Score, 1e-9)
	// The 0.4 evaluator fails the test even though the average is passing.
	require.Equal(t, runner.StatusFailed, result.Status)
	require.Equal(t, 1, run.Failed)
}

func TestRunAdapterError(t *testing.T) {
	t.Parallel()
	adapter := &fakeAdapter{name: "echo", failOn: "b"}
	run := runner.New().Run(context.Background(), adapter, cases("a", "b"))

	require.Equal(t, runner.RunFailed, run.Status)
	require.Equal(t, 1, run.Passed)
	require.Equal(t, 1, run.Errors)
	require.Equal(t, runner.StatusError, run.TestResults[1].Status)
	require.Equal(t, "agent crashed", run.TestResults[1].Error)
}

func TestRunTimeout(t *testing.T) {
	t.Parallel()
	adapter := &fakeAdapter{name: "slow", delay: time.Second}
	r := runner.New(runner.WithTimeout(20 * time.Millisecond))

	run := r.Run(context.Background(), adapter, cases("a"))

	require.Equal(t, runner.StatusTimeout, run.TestResults[0].Status)
	require.Equal(t, runner.RunFailed, run.Status)
	require.Contains(t, run.TestResults[0].Error, "timed out")
}

func TestRunPerTestTimeoutOverride(t *testing.T) {
	t.Parallel()
	adapter := &fakeAdapter{name: "slow", delay: 30 * time.Millisecond}
	r := runner.New(runner.WithTimeout(5 * time.Millisecond))

	tcs := cases("a")
	tcs[0].Timeout = time.Second

	run := r.Run(context.Background(), adapter, tcs)
	require.Equal(t, runner.StatusPassed, run.TestResults[0].Status)
}

func TestRunParallelPreservesOrder(t *testing.T) {
	t.Parallel()
	adapter := &fakeAdapter{name: "echo", delay: 5 * time.Millisecond}
	r := runner.New(runner.WithParallel(4))

	run := r.Run(context.Background(), adapter, cases("a", "b", "c", "d", "e", "f"))

	require.Equal(t, 6, run.TotalTests)
	require.Equal(t, 6, run.Passed)
	wanted := []string{"a", "b", "c", "d", "e", "f"}
	for i, result := range run.TestResults {
		require.Equal(t, wanted[i], result.TestName)
	}
}

func TestChaosAdapter(t *testing.T) {
	t.Parallel()
	inner := &fakeAdapter{
		name: "echo",
		response: func(input string) *trace.Trace {
			return &trace.Trace{
				TraceID:    trace.NewID(),
				AgentName:  "echo",
				InputText:  input,
				OutputText: "ok",
				ToolCalls: []trace.ToolCall{{
					ToolName: "search",
					ToolOut:  "result",
					Success:  true,
				}},
			}
		},
	}
	injector := trace.NewChaosInjector([]trace.ChaosOverride{{
		Type:        trace.ChaosError,
		Probability: 1.0,
	}}, 42)
	adapter := runner.NewChaosAdapter(inner, injector)

	require.Equal(t, "echo+chaos", adapter.Name())

	tr, err := adapter.Invoke(context.Background(), "hello")
	require.NoError(t, err)
	require.False(t, tr.ToolCalls[0].Success)
	require.Contains(t, tr.ToolCalls[0].Error, "chaos:")
}
