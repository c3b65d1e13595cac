/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package report renders test runs, diffs, and regression reports as
// Markdown tables and plain-text summaries.
package report

import (
	"fmt"
	"strings"

	"chainguard.dev/agentprobe/evals"
	"chainguard.dev/agentprobe/regression"
	"chainguard.dev/agentprobe/runner"
	"chainguard.dev/agentprobe/snapshot"
	"chainguard.dev/agentprobe/trace"
)

// Run renders a test run as a Markdown table plus a summary line.
func Run(run *runner.Run) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Test Run: %s\n\n", run.AgentName))

	table := createStandardTable([]string{"Test", "Status", "Score", "Duration"}, &sb)
	for _, result := range run.TestResults {
		row := []string{
			result.TestName,
			string(result.Status),
			fmt.Sprintf("%.4f", result.Score),
			fmt.Sprintf("%dms", result.DurationMS),
		}
		_ = table.Append(row)
	}
	_ = table.Render()

	sb.WriteString(fmt.Sprintf("\n%d tests: %d passed, %d failed, %d errors, %d skipped (%dms)\n",
		run.TotalTests, run.Passed, run.Failed, run.Errors, run.Skipped, run.DurationMS))
	return sb.String()
}

// Regression renders a regression report. Regressed tests are marked
// with a down arrow, improved ones with an up arrow.
func Regression(rep *regression.Report) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Regression Report: %s\n\n", rep.BaselineName))

	table := createStandardTable([]string{"Test", "Baseline", "Current", "Delta", "Change"}, &sb)
	for _, cmp := range rep.Comparisons {
		change := ""
		switch {
		case cmp.IsRegression:
			change = "▼ regression"
		case cmp.IsImprovement:
			change = "▲ improvement"
		}
		row := []string{
			cmp.TestName,
			fmt.Sprintf("%.4f", cmp.BaselineScore),
			fmt.Sprintf("%.4f", cmp.CurrentScore),
			fmt.Sprintf("%+.4f", cmp.Delta),
			change,
		}
		_ = table.Append(row)
	}
	_ = table.Render()

	sb.WriteString(fmt.Sprintf("\n%d tests compared: %d regressions, %d improvements, %d unchanged (threshold %.2f)\n",
		rep.TotalTests, rep.Regressions, rep.Improvements, rep.Unchanged, rep.Threshold))
	return sb.String()
}

// SnapshotDiff renders a snapshot comparison.
func SnapshotDiff(diff *snapshot.Diff) string {
	var sb strings.Builder
	verdict := "MATCH"
	if !diff.IsMatch {
		verdict = "MISMATCH"
	}
	sb.WriteString(fmt.Sprintf("## Snapshot: %s (%s)\n\n", diff.SnapshotName, verdict))

	table := createStandardTable([]string{"Dimension", "Expected", "Actual", "Similarity"}, &sb)
	for _, item := range diff.Diffs {
		row := []string{
			item.Dimension,
			fmt.Sprintf("%v", item.Expected),
			fmt.Sprintf("%v", item.Actual),
			fmt.Sprintf("%.4f", item.Similarity),
		}
		_ = table.Append(row)
	}
	_ = table.Render()

	sb.WriteString(fmt.Sprintf("\nOverall similarity %.4f against threshold %.2f\n",
		diff.OverallSimilarity, diff.Threshold))
	return sb.String()
}

// TraceDiff renders a trace-vs-trace diff.
func TraceDiff(rep *trace.DiffReport) string {
	var sb strings.Builder
	sb.WriteString("## Trace Diff\n\n")

	table := createStandardTable([]string{"Dimension", "Expected", "Actual", "Similarity"}, &sb)
	for _, item := range rep.ToolCallDiffs {
		row := []string{
			item.Dimension,
			fmt.Sprintf("%v", item.Expected),
			fmt.Sprintf("%v", item.Actual),
			fmt.Sprintf("%.4f", item.Similarity),
		}
		_ = table.Append(row)
	}
	_ = table.Render()

	sb.WriteString(fmt.Sprintf("\nOverall similarity %.4f (tokens %+d, latency %+dms)\n",
		rep.OverallSimilarity, rep.TokenDelta, rep.LatencyDeltaMS))
	return sb.String()
}

// Statistical renders a multi-run statistical summary.
func Statistical(s *evals.StatisticalSummary) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Statistical Summary: %s\n\n", s.EvaluatorName))

	table := createStandardTable([]string{"Metric", "Value"}, &sb)
	rows := [][]string{
		{"samples", fmt.Sprintf("%d", s.SampleCount)},
		{"mean", fmt.Sprintf("%.6f", s.Mean)},
		{"std_dev", fmt.Sprintf("%.6f", s.StdDev)},
		{"median", fmt.Sprintf("%.6f", s.Median)},
		{"p5", fmt.Sprintf("%.6f", s.P5)},
		{"p95", fmt.Sprintf("%.6f", s.P95)},
		{"ci95", fmt.Sprintf("[%.6f, %.6f]", s.CILower, s.CIUpper)},
	}
	for _, row := range rows {
		_ = table.Append(row)
	}
	_ = table.Render()
	return sb.String()
}
