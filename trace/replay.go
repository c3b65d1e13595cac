/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package trace

import (
	"fmt"
)

// MockTool substitutes a recorded tool output during replay.
type MockTool func(input map[string]any) (any, error)

// ReplayDiff captures the differences between an original trace and its
// replay, using the same per-index tool-call scoring as the differ.
type ReplayDiff struct {
	OriginalTraceID string     `json:"original_trace_id"`
	ReplayTraceID   string     `json:"replay_trace_id"`
	ToolCallDiffs   []DiffItem `json:"tool_call_diffs,omitempty"`
	OutputMatches   bool       `json:"output_matches"`
	OriginalOutput  string     `json:"original_output"`
	ReplayOutput    string     `json:"replay_output"`
}

// ReplayEngine re-materializes recorded traces. In pure replay mode tool
// calls keep their recorded outputs; mock functions can override specific
// tools, and the final output text can be overridden wholesale.
type ReplayEngine struct {
	mockTools  map[string]MockTool
	mockOutput *string
}

// ReplayOption configures a ReplayEngine.
type ReplayOption func(*ReplayEngine)

// WithMockTool overrides the named tool's output during replay.
func WithMockTool(name string, fn MockTool) ReplayOption {
	return func(e *ReplayEngine) {
		e.mockTools[name] = fn
	}
}

// WithMockOutput overrides the replayed trace's output text.
func WithMockOutput(output string) ReplayOption {
	return func(e *ReplayEngine) {
		e.mockOutput = &output
	}
}

// NewReplayEngine creates a replay engine with the given overrides.
func NewReplayEngine(opts ...ReplayOption) *ReplayEngine {
	e := &ReplayEngine{
		mockTools: make(map[string]MockTool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Replay applies the configured overrides to a recorded trace, producing a
// fresh trace. Without overrides the original is returned unchanged.
func (e *ReplayEngine) Replay(original *Trace) *Trace {
	if len(e.mockTools) == 0 && e.mockOutput == nil {
		return original
	}

	modified := make([]ToolCall, 0, len(original.ToolCalls))
	for _, tc := range original.ToolCalls {
		fn, ok := e.mockTools[tc.ToolName]
		if !ok {
			modified = append(modified, tc)
			continue
		}

		out, err := fn(tc.ToolInput)
		clone := tc
		if err != nil {
			clone.Success = false
			clone.Error = fmt.Sprintf("mock error: %v", err)
			clone.ToolOut = nil
		} else {
			clone.ToolOut = out
		}
		modified = append(modified, clone)
	}

	replayed := original.WithToolCalls(modified)
	if e.mockOutput != nil {
		replayed = replayed.WithOutput(*e.mockOutput)
	}
	return replayed
}

// Diff compares an original trace against its replay.
func (e *ReplayEngine) Diff(original, replay *Trace) *ReplayDiff {
	return &ReplayDiff{
		OriginalTraceID: original.TraceID,
		ReplayTraceID:   replay.TraceID,
		ToolCallDiffs:   diffToolCalls(original, replay),
		OutputMatches:   original.OutputText == replay.OutputText,
		OriginalOutput:  original.OutputText,
		ReplayOutput:    replay.OutputText,
	}
}
