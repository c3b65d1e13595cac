/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package trace

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ToolCall is a single tool invocation within a trace.
// Once attached to a Trace it must not be mutated.
type ToolCall struct {
	CallID    string         `json:"call_id"`
	ToolName  string         `json:"tool_name"`
	ToolInput map[string]any `json:"tool_input,omitempty"`
	ToolOut   any            `json:"tool_output,omitempty"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
	LatencyMS int64          `json:"latency_ms"`
	Timestamp time.Time      `json:"timestamp"`
}

// LLMCall is a single model invocation within a trace.
type LLMCall struct {
	CallID       string    `json:"call_id"`
	Model        string    `json:"model"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
	InputText    string    `json:"input_text,omitempty"`
	OutputText   string    `json:"output_text,omitempty"`
	LatencyMS    int64     `json:"latency_ms"`
	Timestamp    time.Time `json:"timestamp"`
}

// Trace is the immutable record of one agent invocation. Adapters assemble
// it (typically through a Recorder) and hand it to evaluators, differs, and
// snapshot comparison, none of which modify it. Derived traces (replay,
// chaos injection) are fresh copies with replaced fields.
type Trace struct {
	TraceID           string         `json:"trace_id"`
	AgentName         string         `json:"agent_name"`
	Model             string         `json:"model,omitempty"`
	InputText         string         `json:"input_text"`
	OutputText        string         `json:"output_text"`
	ToolCalls         []ToolCall     `json:"tool_calls,omitempty"`
	LLMCalls          []LLMCall      `json:"llm_calls,omitempty"`
	TotalInputTokens  int64          `json:"total_input_tokens"`
	TotalOutputTokens int64          `json:"total_output_tokens"`
	TotalLatencyMS    int64          `json:"total_latency_ms"`
	Tags              []string       `json:"tags,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// NewID generates a unique identifier for traces, calls, and results.
func NewID() string {
	return uuid.NewString()
}

// TotalTokens returns the combined input and output token count.
func (t *Trace) TotalTokens() int64 {
	return t.TotalInputTokens + t.TotalOutputTokens
}

// ToolNames returns the ordered tool names of the trace's tool calls.
func (t *Trace) ToolNames() []string {
	names := make([]string, 0, len(t.ToolCalls))
	for _, tc := range t.ToolCalls {
		names = append(names, tc.ToolName)
	}
	return names
}

// WithToolCalls returns a copy of the trace with the tool-call list
// replaced. The original trace is left untouched.
func (t *Trace) WithToolCalls(calls []ToolCall) *Trace {
	clone := *t
	clone.ToolCalls = calls
	return &clone
}

// WithOutput returns a copy of the trace with the output text replaced.
func (t *Trace) WithOutput(output string) *Trace {
	clone := *t
	clone.OutputText = output
	return &clone
}

// String returns a structured representation of the trace
func (t *Trace) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("=== Trace %s ===\n", t.TraceID))
	sb.WriteString(fmt.Sprintf("Agent: %s\n", t.AgentName))
	sb.WriteString(fmt.Sprintf("Input: %q\n", t.InputText))
	sb.WriteString(fmt.Sprintf("Latency: %dms\n", t.TotalLatencyMS))
	sb.WriteString(fmt.Sprintf("Tokens: %d in / %d out\n", t.TotalInputTokens, t.TotalOutputTokens))

	if len(t.ToolCalls) > 0 {
		sb.WriteString(fmt.Sprintf("\nTool Calls (%d):\n", len(t.ToolCalls)))
		for i, tc := range t.ToolCalls {
			sb.WriteString(fmt.Sprintf("  [%d] %s (ID: %s)\n", i+1, tc.ToolName, tc.CallID))
			if len(tc.ToolInput) > 0 {
				sb.WriteString("      Input:\n")
				for k, v := range tc.ToolInput {
					sb.WriteString(fmt.Sprintf("        %s: %v\n", k, v))
				}
			}
			if tc.Error != "" {
				sb.WriteString(fmt.Sprintf("      Error: %s\n", tc.Error))
			} else if tc.ToolOut != nil {
				out := fmt.Sprintf("%v", tc.ToolOut)
				if len(out) > 200 {
					out = out[:197] + "..."
				}
				sb.WriteString(fmt.Sprintf("      Output: %s\n", out))
			}
		}
	} else {
		sb.WriteString("\nNo tool calls\n")
	}

	sb.WriteString("\nOutput:\n")
	out := t.OutputText
	if len(out) > 500 {
		out = out[:497] + "..."
	}
	sb.WriteString(fmt.Sprintf("  %s\n", out))

	if len(t.Metadata) > 0 {
		sb.WriteString("\nMetadata:\n")
		for k, v := range t.Metadata {
			sb.WriteString(fmt.Sprintf("  %s: %v\n", k, v))
		}
	}

	return sb.String()
}

// LoadFile reads a JSON-serialized trace from disk.
func LoadFile(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trace file: %w", err)
	}
	var t Trace
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding trace file %s: %w", path, err)
	}
	return &t, nil
}
