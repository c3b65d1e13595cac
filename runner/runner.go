/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package runner orchestrates test-case execution against an agent
// adapter, applying evaluators to each resulting trace.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"

	"chainguard.dev/agentprobe/evals"
	"chainguard.dev/agentprobe/trace"
)

// TestStatus is the terminal state of one executed test case.
type TestStatus string

const (
	StatusPassed  TestStatus = "passed"
	StatusFailed  TestStatus = "failed"
	StatusError   TestStatus = "error"
	StatusTimeout TestStatus = "timeout"
	StatusSkipped TestStatus = "skipped"
)

// TestResult is the outcome of running a single test case, including the
// captured trace and every evaluator's result.
type TestResult struct {
	TestName    string              `json:"test_name"`
	Status      TestStatus          `json:"status"`
	Score       float64             `json:"score"`
	DurationMS  int64               `json:"duration_ms"`
	Trace       *trace.Trace        `json:"trace,omitempty"`
	EvalResults []*evals.EvalResult `json:"eval_results,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// RunStatus is the terminal state of a whole run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run aggregates the results of executing a suite of test cases.
type Run struct {
	AgentName   string        `json:"agent_name"`
	Status      RunStatus     `json:"status"`
	TestResults []*TestResult `json:"test_results"`
	TotalTests  int           `json:"total_tests"`
	Passed      int           `json:"passed"`
	Failed      int           `json:"failed"`
	Errors      int           `json:"errors"`
	Skipped     int           `json:"skipped"`
	DurationMS  int64         `json:"duration_ms"`
}

// Adapter connects the runner to an agent under test. Invoke executes
// the agent on the input and returns the full trace of what it did.
type Adapter interface {
	Name() string
	Invoke(ctx context.Context, inputText string) (*trace.Trace, error)
}

// ChaosAdapter wraps an adapter and injects faults into the traces it
// produces, for testing agent behavior under degraded conditions.
type ChaosAdapter struct {
	inner    Adapter
	injector *trace.ChaosInjector
}

// NewChaosAdapter wraps the adapter with the given chaos injector.
func NewChaosAdapter(inner Adapter, injector *trace.ChaosInjector) *ChaosAdapter {
	return &ChaosAdapter{inner: inner, injector: injector}
}

func (a *ChaosAdapter) Name() string { return a.inner.Name() + "+chaos" }

func (a *ChaosAdapter) Invoke(ctx context.Context, inputText string) (*trace.Trace, error) {
	tr, err := a.inner.Invoke(ctx, inputText)
	if err != nil {
		return nil, err
	}
	return a.injector.Apply(ctx, tr), nil
}

const (
	defaultMaxWorkers = 4
	defaultTimeout    = 60 * time.Second
)

// Runner executes test cases against an adapter, sequentially or with
// bounded parallelism, and applies the configured evaluators to each
// captured trace.
type Runner struct {
	evaluators []evals.Evaluator
	parallel   bool
	maxWorkers int
	timeout    time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithEvaluators sets the evaluators applied to every test.
func WithEvaluators(evaluators ...evals.Evaluator) Option {
	return func(r *Runner) {
		r.evaluators = evaluators
	}
}

// WithParallel enables concurrent execution with up to workers in flight.
func WithParallel(workers int) Option {
	return func(r *Runner) {
		r.parallel = true
		if workers > 0 {
			r.maxWorkers = workers
		}
	}
}

// WithTimeout sets the default per-test timeout, used when the test case
// does not carry its own.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Runner) {
		r.timeout = timeout
	}
}

// New creates a Runner. By default execution is sequential with a
// 60-second per-test timeout and no evaluators.
func New(opts ...Option) *Runner {
	r := &Runner{
		maxWorkers: defaultMaxWorkers,
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes all test cases against the adapter and aggregates the
// results. The returned Run is complete even when individual tests time
// out or error; the run status is failed only when at least one test
// errored.
func (r *Runner) Run(ctx context.Context, adapter Adapter, testCases []*evals.TestCase) *Run {
	start := time.Now()
	results := make([]*TestResult, len(testCases))

	if r.parallel {
		eg, gctx := errgroup.WithContext(ctx)
		eg.SetLimit(r.maxWorkers)
		for i, tc := range testCases {
			eg.Go(func() error {
				results[i] = r.executeSingle(gctx, adapter, tc)
				return nil
			})
		}
		// Workers never return errors; results carry the failures.
		_ = eg.Wait()
	} else {
		for i, tc := range testCases {
			results[i] = r.executeSingle(ctx, adapter, tc)
		}
	}

	run := &Run{
		AgentName:   adapter.Name(),
		TestResults: results,
		TotalTests:  len(results),
		DurationMS:  time.Since(start).Milliseconds(),
	}
	for _, result := range results {
		switch result.Status {
		case StatusPassed:
			run.Passed++
		case StatusFailed:
			run.Failed++
		case StatusTimeout, StatusError:
			run.Errors++
		case StatusSkipped:
			run.Skipped++
		}
	}
	run.Status = RunCompleted
	if run.Errors > 0 {
		run.Status = RunFailed
	}
	return run
}

// executeSingle runs one test case. The timeout covers only the agent
// invocation; evaluators run without a deadline of their own.
func (r *Runner) executeSingle(ctx context.Context, adapter Adapter, tc *evals.TestCase) *TestResult {
	log := clog.FromContext(ctx)
	start := time.Now()

	timeout := r.timeout
	if tc.Timeout > 0 {
		timeout = tc.Timeout
	}
	ictx, cancel := context.WithTimeout(ctx, timeout)
	tr, err := adapter.Invoke(ictx, tc.InputText)
	cancel()
	if err != nil {
		elapsed := time.Since(start).Milliseconds()
		if ictx.Err() == context.DeadlineExceeded {
			log.With("test", tc.Name).Warnf("Test timed out after %s", timeout)
			return &TestResult{
				TestName:   tc.Name,
				Status:     StatusTimeout,
				DurationMS: elapsed,
				Error:      fmt.Sprintf("timed out after %s", timeout),
			}
		}
		log.With("test", tc.Name).Errorf("Test errored: %v", err)
		return &TestResult{
			TestName:   tc.Name,
			Status:     StatusError,
			DurationMS: elapsed,
			Error:      err.Error(),
		}
	}

	evalResults := make([]*evals.EvalResult, 0, len(r.evaluators))
	for _, e := range r.evaluators {
		result := evals.Run(ctx, e, tc, tr)
		evals.ObserveResult(result)
		evalResults = append(evalResults, result)
	}

	score := 1.0
	allPassed := true
	if len(evalResults) > 0 {
		sum := 0.0
		for _, er := range evalResults {
			sum += er.Score
			if !er.Passed() {
				allPassed = false
			}
		}
		score = sum / float64(len(evalResults))
	}

	status := StatusPassed
	if !allPassed {
		status = StatusFailed
	}
	return &TestResult{
		TestName:    tc.Name,
		Status:      status,
		Score:       score,
		DurationMS:  time.Since(start).Milliseconds(),
		Trace:       tr,
		EvalResults: evalResults,
	}
}
