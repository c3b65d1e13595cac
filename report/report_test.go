/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report_test

import (
	"strings"
	"testing"

	"chainguard.dev/agentprobe/evals"
	"chainguard.dev/agentprobe/regression"
	"chainguard.dev/agentprobe/report"
	"chainguard.dev/agentprobe/runner"
	"chainguard.dev/agentprobe/snapshot"
	"chainguard.dev/agentprobe/trace"
)

func TestRunReport(t *testing.T) {
	run := &runner.Run{
		AgentName: "booking-agent",
		Status:    runner.RunCompleted,
		TestResults: []*runner.TestResult{
			{TestName: "happy-path", Status: runner.StatusPassed, Score: 0.95, DurationMS: 120},
			{TestName: "edge-case", Status: runner.StatusFailed, Score: 0.40, DurationMS: 95},
		},
		TotalTests: 2,
		Passed:     1,
		Failed:     1,
		DurationMS: 215,
	}

	out := report.Run(run)
	for _, fragment := range []string{
		"booking-agent",
		"happy-path", "0.9500",
		"edge-case", "failed",
		"2 tests: 1 passed, 1 failed",
	} {
		if !strings.Contains(out, fragment) {
			t.Errorf("report missing %q:\n%s", fragment, out)
		}
	}
}

func TestRegressionReport(t *testing.T) {
	rep := &regression.Report{
		BaselineName: "v1",
		Comparisons: []regression.TestComparison{
			{TestName: "worse", BaselineScore: 0.9, CurrentScore: 0.7, Delta: -0.2, IsRegression: true},
			{TestName: "better", BaselineScore: 0.6, CurrentScore: 0.8, Delta: 0.2, IsImprovement: true},
			{TestName: "same", BaselineScore: 0.8, CurrentScore: 0.8},
		},
		TotalTests:   3,
		Regressions:  1,
		Improvements: 1,
		Unchanged:    1,
		Threshold:    0.05,
	}

	out := report.Regression(rep)
	for _, fragment := range []string{"v1", "worse", "-0.2000", "regression", "improvement", "1 regressions"} {
		if !strings.Contains(out, fragment) {
			t.Errorf("report missing %q:\n%s", fragment, out)
		}
	}
}

func TestSnapshotDiffReport(t *testing.T) {
	diff := &snapshot.Diff{
		SnapshotName:      "weather",
		OverallSimilarity: 0.72,
		Diffs: []trace.DiffItem{
			{Dimension: "tool_calls", Expected: []string{"search"}, Actual: []string{"fetch"}, Similarity: 0.0},
			{Dimension: "output", Expected: "sunny", Actual: "rainy", Similarity: 0.0},
		},
		IsMatch:   false,
		Threshold: 0.8,
	}

	out := report.SnapshotDiff(diff)
	for _, fragment := range []string{"weather", "MISMATCH", "tool_calls", "0.7200"} {
		if !strings.Contains(out, fragment) {
			t.Errorf("report missing %q:\n%s", fragment, out)
		}
	}
}

func TestStatisticalReport(t *testing.T) {
	summary := &evals.StatisticalSummary{
		EvaluatorName: "statistical-scripted",
		SampleCount:   5,
		Mean:          0.8,
		StdDev:        0.158114,
		Median:        0.8,
		P5:            0.62,
		P95:           0.98,
		CILower:       0.661407,
		CIUpper:       0.938593,
	}

	out := report.Statistical(summary)
	for _, fragment := range []string{"statistical-scripted", "0.800000", "0.158114", "[0.661407, 0.938593]"} {
		if !strings.Contains(out, fragment) {
			t.Errorf("report missing %q:\n%s", fragment, out)
		}
	}
}
