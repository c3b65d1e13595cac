/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package trace_test

import (
	"context"
	"testing"

	"chainguard.dev/agentprobe/trace"
)

func TestChaosInjectFaults(t *testing.T) {
	tests := []struct {
		name        string
		override    trace.ChaosOverride
		wantSuccess bool
		wantError   string
		wantOut     any
		wantLatency int64
	}{{
		name:        "timeout",
		override:    trace.ChaosOverride{Type: trace.ChaosTimeout, Probability: 1.0},
		wantSuccess: false,
		wantError:   "chaos: operation timed out",
		wantOut:     nil,
		wantLatency: 100,
	}, {
		name:        "error with message",
		override:    trace.ChaosOverride{Type: trace.ChaosError, Probability: 1.0, ErrorMessage: "disk full"},
		wantSuccess: false,
		wantError:   "chaos: disk full",
		wantOut:     nil,
		wantLatency: 100,
	}, {
		name:        "error default message",
		override:    trace.ChaosOverride{Type: trace.ChaosError, Probability: 1.0},
		wantSuccess: false,
		wantError:   "chaos: chaos fault injected",
		wantOut:     nil,
		wantLatency: 100,
	}, {
		name:        "malformed",
		override:    trace.ChaosOverride{Type: trace.ChaosMalformed, Probability: 1.0},
		wantSuccess: true,
		wantOut:     "{malformed: data, <<invalid>>}",
		wantLatency: 100,
	}, {
		name:        "rate limit",
		override:    trace.ChaosOverride{Type: trace.ChaosRateLimit, Probability: 1.0},
		wantSuccess: false,
		wantError:   "chaos: rate limit exceeded (429)",
		wantOut:     nil,
		wantLatency: 100,
	}, {
		name:        "slow",
		override:    trace.ChaosOverride{Type: trace.ChaosSlow, Probability: 1.0, DelayMS: 5000},
		wantSuccess: true,
		wantOut:     "recorded",
		wantLatency: 5100,
	}, {
		name:        "empty",
		override:    trace.ChaosOverride{Type: trace.ChaosEmpty, Probability: 1.0},
		wantSuccess: true,
		wantOut:     "",
		wantLatency: 100,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := makeTrace("t1", "done", 10, 100)
			tr.ToolCalls = []trace.ToolCall{{
				ToolName:  "search",
				ToolOut:   "recorded",
				Success:   true,
				LatencyMS: 100,
			}}

			injector := trace.NewChaosInjector([]trace.ChaosOverride{tt.override}, 42)
			out := injector.Apply(context.Background(), tr)

			tc := out.ToolCalls[0]
			if tc.Success != tt.wantSuccess {
				t.Errorf("Success = %v, wanted = %v", tc.Success, tt.wantSuccess)
			}
			if tc.Error != tt.wantError {
				t.Errorf("Error = %q, wanted = %q", tc.Error, tt.wantError)
			}
			if tc.ToolOut != tt.wantOut {
				t.Errorf("ToolOut = %v, wanted = %v", tc.ToolOut, tt.wantOut)
			}
			if tc.LatencyMS != tt.wantLatency {
				t.Errorf("LatencyMS = %v, wanted = %v", tc.LatencyMS, tt.wantLatency)
			}
			// The source trace must stay untouched.
			if tr.ToolCalls[0].ToolOut != "recorded" || !tr.ToolCalls[0].Success {
				t.Error("Apply() mutated the original trace")
			}
		})
	}
}

func TestChaosTargetTool(t *testing.T) {
	tr := makeTrace("t1", "done", 10, 10,
		call("search", nil, "a"),
		call("fetch", nil, "b"))

	injector := trace.NewChaosInjector([]trace.ChaosOverride{{
		Type:        trace.ChaosError,
		Probability: 1.0,
		TargetTool:  "fetch",
	}}, 42)
	out := injector.Apply(context.Background(), tr)

	if out.ToolCalls[0].Error != "" {
		t.Errorf("search Error = %q, wanted untouched", out.ToolCalls[0].Error)
	}
	if out.ToolCalls[1].Error == "" {
		t.Error("fetch Error empty, wanted chaos fault")
	}
}

func TestChaosZeroProbability(t *testing.T) {
	tr := makeTrace("t1", "done", 10, 10, call("search", nil, "a"))

	injector := trace.NewChaosInjector([]trace.ChaosOverride{{
		Type:        trace.ChaosError,
		Probability: 0.0,
	}}, 42)
	out := injector.Apply(context.Background(), tr)

	if out != tr {
		t.Error("Apply() with zero probability returned a new trace, wanted the original")
	}
}

func TestChaosDeterministicSeed(t *testing.T) {
	mk := func() *trace.Trace {
		return makeTrace("t1", "done", 10, 10,
			call("a", nil, "1"), call("b", nil, "2"), call("c", nil, "3"),
			call("d", nil, "4"), call("e", nil, "5"))
	}
	overrides := []trace.ChaosOverride{{Type: trace.ChaosError, Probability: 0.5}}

	first := trace.NewChaosInjector(overrides, 7).Apply(context.Background(), mk())
	second := trace.NewChaosInjector(overrides, 7).Apply(context.Background(), mk())

	for i := range first.ToolCalls {
		if first.ToolCalls[i].Error != second.ToolCalls[i].Error {
			t.Errorf("call %d: error %q vs %q, wanted identical runs for same seed",
				i, first.ToolCalls[i].Error, second.ToolCalls[i].Error)
		}
	}
}
