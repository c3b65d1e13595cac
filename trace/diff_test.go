/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package trace_test

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"chainguard.dev/agentprobe/trace"
)

func makeTrace(id, output string, tokens, latency int64, calls ...trace.ToolCall) *trace.Trace {
	return &trace.Trace{
		TraceID:           id,
		AgentName:         "test-agent",
		InputText:         "do the thing",
		OutputText:        output,
		ToolCalls:         calls,
		TotalInputTokens:  tokens / 2,
		TotalOutputTokens: tokens - tokens/2,
		TotalLatencyMS:    latency,
	}
}

func call(name string, input map[string]any, out any) trace.ToolCall {
	return trace.ToolCall{
		CallID:    trace.NewID(),
		ToolName:  name,
		ToolInput: input,
		ToolOut:   out,
		Success:   true,
	}
}

func TestDiffIdenticalTraces(t *testing.T) {
	a := makeTrace("a", "done", 100, 250,
		call("search", map[string]any{"q": "weather"}, "sunny"),
		call("fetch", map[string]any{"url": "https://example.com"}, "ok"))
	b := makeTrace("b", "done", 100, 250,
		call("search", map[string]any{"q": "weather"}, "sunny"),
		call("fetch", map[string]any{"url": "https://example.com"}, "ok"))

	d := trace.NewDiffer(0.9)
	report := d.Diff(a, b)

	if report.OverallSimilarity != 1.0 {
		t.Errorf("OverallSimilarity = %v, wanted = 1.0", report.OverallSimilarity)
	}
	if !report.OutputMatches {
		t.Error("OutputMatches = false, wanted = true")
	}
	if report.TokenDelta != 0 {
		t.Errorf("TokenDelta = %v, wanted = 0", report.TokenDelta)
	}
	if report.LatencyDeltaMS != 0 {
		t.Errorf("LatencyDeltaMS = %v, wanted = 0", report.LatencyDeltaMS)
	}
	if !d.Matches(report) {
		t.Error("Matches() = false, wanted = true")
	}
}

func TestDiffToolCallScoring(t *testing.T) {
	tests := []struct {
		name   string
		a, b   trace.ToolCall
		wanted float64
	}{{
		name:   "all fields equal",
		a:      call("search", map[string]any{"q": "x"}, "out"),
		b:      trace.ToolCall{ToolName: "search", ToolInput: map[string]any{"q": "x"}, ToolOut: "out"},
		wanted: 1.0,
	}, {
		name:   "name differs",
		a:      trace.ToolCall{ToolName: "search", ToolInput: map[string]any{"q": "x"}, ToolOut: "out"},
		b:      trace.ToolCall{ToolName: "fetch", ToolInput: map[string]any{"q": "x"}, ToolOut: "out"},
		wanted: 0.6667,
	}, {
		name:   "input and output differ",
		a:      trace.ToolCall{ToolName: "search", ToolInput: map[string]any{"q": "x"}, ToolOut: "out"},
		b:      trace.ToolCall{ToolName: "search", ToolInput: map[string]any{"q": "y"}, ToolOut: "other"},
		wanted: 0.3333,
	}, {
		name:   "nothing matches",
		a:      trace.ToolCall{ToolName: "search", ToolInput: map[string]any{"q": "x"}, ToolOut: "out"},
		b:      trace.ToolCall{ToolName: "fetch", ToolInput: map[string]any{"u": "z"}, ToolOut: "other"},
		wanted: 0.0,
	}}

	d := trace.NewDiffer(0.8)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := makeTrace("a", "same", 10, 10, tt.a)
			b := makeTrace("b", "same", 10, 10, tt.b)
			report := d.Diff(a, b)
			if len(report.ToolCallDiffs) != 1 {
				t.Fatalf("len(ToolCallDiffs) = %v, wanted = 1", len(report.ToolCallDiffs))
			}
			if got := report.ToolCallDiffs[0].Similarity; got != tt.wanted {
				t.Errorf("Similarity = %v, wanted = %v", got, tt.wanted)
			}
		})
	}
}

func TestDiffLengthMismatch(t *testing.T) {
	a := makeTrace("a", "done", 10, 10,
		call("search", nil, "out"),
		call("fetch", nil, "out"))
	b := makeTrace("b", "done", 10, 10,
		call("search", nil, "out"))

	report := trace.NewDiffer(0.8).Diff(a, b)
	if len(report.ToolCallDiffs) != 2 {
		t.Fatalf("len(ToolCallDiffs) = %v, wanted = 2", len(report.ToolCallDiffs))
	}
	// The unmatched index scores zero and carries only the expected side.
	extra := report.ToolCallDiffs[1]
	if extra.Similarity != 0.0 {
		t.Errorf("extra Similarity = %v, wanted = 0.0", extra.Similarity)
	}
	if extra.Expected != "fetch" || extra.Actual != nil {
		t.Errorf("extra diff = (%v, %v), wanted = (fetch, <nil>)", extra.Expected, extra.Actual)
	}

	// The missing side serializes as an explicit null, not an absent key.
	raw, err := json.Marshal(extra)
	if err != nil {
		t.Fatalf("Marshal() = %v", err)
	}
	if !strings.Contains(string(raw), `"actual":null`) {
		t.Errorf("Marshal() = %s, wanted \"actual\":null", raw)
	}
}

func TestDiffSignedDeltas(t *testing.T) {
	a := makeTrace("a", "done", 200, 500)
	b := makeTrace("b", "done", 150, 800)

	report := trace.NewDiffer(0.8).Diff(a, b)
	if report.TokenDelta != -50 {
		t.Errorf("TokenDelta = %v, wanted = -50", report.TokenDelta)
	}
	if report.LatencyDeltaMS != 300 {
		t.Errorf("LatencyDeltaMS = %v, wanted = 300", report.LatencyDeltaMS)
	}
}

func TestDiffOverallWeighting(t *testing.T) {
	// Output mismatch and one perfect tool call: 0.4*0 + 0.6*1 = 0.6.
	a := makeTrace("a", "one answer", 10, 10, call("search", nil, "out"))
	b := makeTrace("b", "another answer", 10, 10, call("search", nil, "out"))

	report := trace.NewDiffer(0.8).Diff(a, b)
	if math.Abs(report.OverallSimilarity-0.6) > 1e-9 {
		t.Errorf("OverallSimilarity = %v, wanted = 0.6", report.OverallSimilarity)
	}
	if d := trace.NewDiffer(0.8); d.Matches(report) {
		t.Error("Matches() = true, wanted = false")
	}
}

func TestDiffNoToolCalls(t *testing.T) {
	a := makeTrace("a", "same", 10, 10)
	b := makeTrace("b", "same", 10, 10)

	report := trace.NewDiffer(0.8).Diff(a, b)
	if report.OverallSimilarity != 1.0 {
		t.Errorf("OverallSimilarity = %v, wanted = 1.0", report.OverallSimilarity)
	}
	if len(report.ToolCallDiffs) != 0 {
		t.Errorf("len(ToolCallDiffs) = %v, wanted = 0", len(report.ToolCallDiffs))
	}
}
