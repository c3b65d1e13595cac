/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package trace

import (
	"fmt"
	"math"
	"reflect"
)

// DiffItem is one labeled dimension of a comparison between two traces.
type DiffItem struct {
	Dimension  string  `json:"dimension"`
	Expected   any     `json:"expected"`
	Actual     any     `json:"actual"`
	Similarity float64 `json:"similarity"`
}

// DiffReport summarizes the structural differences between two traces.
// Deltas are signed (B minus A) and never clamped.
type DiffReport struct {
	TraceAID          string     `json:"trace_a_id"`
	TraceBID          string     `json:"trace_b_id"`
	ToolCallDiffs     []DiffItem `json:"tool_call_diffs,omitempty"`
	OutputMatches     bool       `json:"output_matches"`
	TokenDelta        int64      `json:"token_delta"`
	LatencyDeltaMS    int64      `json:"latency_delta_ms"`
	OverallSimilarity float64    `json:"overall_similarity"`
}

// Differ compares two traces across tool calls, output text, token usage,
// and latency. Diff is a pure function of its inputs.
type Differ struct {
	threshold float64
}

// NewDiffer creates a differ with the given match threshold. The threshold
// is advisory; it is carried for callers that want a boolean match signal.
func NewDiffer(threshold float64) *Differ {
	return &Differ{threshold: threshold}
}

// Matches reports whether a diff's overall similarity meets the threshold.
func (d *Differ) Matches(report *DiffReport) bool {
	return report.OverallSimilarity >= d.threshold
}

// Diff compares trace a (baseline) against trace b and produces a report.
func (d *Differ) Diff(a, b *Trace) *DiffReport {
	toolDiffs := diffToolCalls(a, b)
	outputMatches := a.OutputText == b.OutputText

	overall := overallSimilarity(toolDiffs, outputMatches)

	return &DiffReport{
		TraceAID:          a.TraceID,
		TraceBID:          b.TraceID,
		ToolCallDiffs:     toolDiffs,
		OutputMatches:     outputMatches,
		TokenDelta:        b.TotalTokens() - a.TotalTokens(),
		LatencyDeltaMS:    b.TotalLatencyMS - a.TotalLatencyMS,
		OverallSimilarity: Round4(overall),
	}
}

// diffToolCalls produces one DiffItem per tool-call index up to the longer
// trace's call count. Indices present on only one side score zero with the
// missing side left nil.
func diffToolCalls(a, b *Trace) []DiffItem {
	maxLen := max(len(a.ToolCalls), len(b.ToolCalls))
	if maxLen == 0 {
		return nil
	}

	diffs := make([]DiffItem, 0, maxLen)
	for i := 0; i < maxLen; i++ {
		switch {
		case i < len(a.ToolCalls) && i < len(b.ToolCalls):
			diffs = append(diffs, DiffItem{
				Dimension:  fmt.Sprintf("tool_call_%d", i),
				Expected:   a.ToolCalls[i].ToolName,
				Actual:     b.ToolCalls[i].ToolName,
				Similarity: Round4(toolCallSimilarity(a.ToolCalls[i], b.ToolCalls[i])),
			})
		case i < len(a.ToolCalls):
			diffs = append(diffs, DiffItem{
				Dimension: fmt.Sprintf("tool_call_%d", i),
				Expected:  a.ToolCalls[i].ToolName,
			})
		default:
			diffs = append(diffs, DiffItem{
				Dimension: fmt.Sprintf("tool_call_%d", i),
				Actual:    b.ToolCalls[i].ToolName,
			})
		}
	}
	return diffs
}

// toolCallSimilarity scores two tool calls by field equality: name, input,
// and stringified output each contribute one third.
func toolCallSimilarity(a, b ToolCall) float64 {
	score := 0.0
	if a.ToolName == b.ToolName {
		score++
	}
	if reflect.DeepEqual(a.ToolInput, b.ToolInput) {
		score++
	}
	if fmt.Sprint(a.ToolOut) == fmt.Sprint(b.ToolOut) {
		score++
	}
	return score / 3.0
}

// overallSimilarity weights the output match at 0.4 and the mean tool-call
// similarity at 0.6. With no tool calls the output score stands alone.
func overallSimilarity(toolDiffs []DiffItem, outputMatches bool) float64 {
	outputScore := 0.0
	if outputMatches {
		outputScore = 1.0
	}

	if len(toolDiffs) == 0 {
		return outputScore
	}

	toolScore := 0.0
	for _, d := range toolDiffs {
		toolScore += d.Similarity
	}
	toolScore /= float64(len(toolDiffs))

	return 0.4*outputScore + 0.6*toolScore
}

// Round4 rounds a score to four decimal places, matching the precision the
// wire format carries for similarity values.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
