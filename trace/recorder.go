/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package trace

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const instrumentationName = "chainguard.dev/agentprobe/trace"

// Recorder accumulates the events of a single agent invocation and produces
// an immutable Trace when finished. Adapters create one Recorder per
// invocation; the Recorder is the only mutable stage in a trace's life.
type Recorder struct {
	agentName string
	model     string
	inputText string

	toolCalls []ToolCall
	llmCalls  []LLMCall
	tags      []string
	metadata  map[string]any
	started   time.Time

	mu   sync.Mutex
	ctx  context.Context
	span oteltrace.Span
}

// PendingToolCall is a tool call that has started but not yet completed.
type PendingToolCall struct {
	id       string
	name     string
	input    map[string]any
	started  time.Time
	recorder *Recorder
	span     oteltrace.Span
}

// NewRecorder starts recording a new agent invocation. A span covering the
// whole invocation is opened on the ambient tracer provider.
func NewRecorder(ctx context.Context, agentName, inputText string) *Recorder {
	tr := otel.Tracer(instrumentationName)
	ctx, span := tr.Start(ctx, "agent.invocation", oteltrace.WithAttributes(
		attribute.String("agent.name", agentName),
	))

	return &Recorder{
		agentName: agentName,
		inputText: inputText,
		metadata:  make(map[string]any),
		started:   time.Now(),
		ctx:       ctx,
		span:      span,
	}
}

// SetModel records the primary model identifier for the trace.
func (r *Recorder) SetModel(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.model = model
}

// AddTag appends a free-form tag to the trace.
func (r *Recorder) AddTag(tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags = append(r.tags, tag)
}

// SetMeta stores a metadata key/value on the trace.
func (r *Recorder) SetMeta(key string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metadata[key] = value
}

// StartToolCall opens a tool-call span and returns a handle to complete it.
func (r *Recorder) StartToolCall(name string, input map[string]any) *PendingToolCall {
	tr := otel.Tracer(instrumentationName)
	_, span := tr.Start(r.ctx, "agent.tool_call", oteltrace.WithAttributes(
		attribute.String("tool.name", name),
	))

	return &PendingToolCall{
		id:       NewID(),
		name:     name,
		input:    input,
		started:  time.Now(),
		recorder: r,
		span:     span,
	}
}

// Complete finishes the tool call and appends it to the parent recorder.
func (p *PendingToolCall) Complete(output any, err error) {
	elapsed := time.Since(p.started)

	tc := ToolCall{
		CallID:    p.id,
		ToolName:  p.name,
		ToolInput: p.input,
		ToolOut:   output,
		Success:   err == nil,
		LatencyMS: elapsed.Milliseconds(),
		Timestamp: p.started,
	}
	if err != nil {
		tc.Error = err.Error()
		p.span.RecordError(err)
		p.span.SetStatus(codes.Error, err.Error())
	} else {
		p.span.SetStatus(codes.Ok, "")
	}
	p.span.End()

	r := p.recorder
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toolCalls = append(r.toolCalls, tc)
}

// RecordLLMCall appends a completed model call and annotates the invocation
// span with token usage so consumption is visible without cross-referencing
// metrics.
func (r *Recorder) RecordLLMCall(call LLMCall) {
	if call.CallID == "" {
		call.CallID = NewID()
	}
	if call.Timestamp.IsZero() {
		call.Timestamp = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.llmCalls = append(r.llmCalls, call)

	r.span.SetAttributes(
		attribute.String("model", call.Model),
		attribute.Int64("tokens.input", call.InputTokens),
		attribute.Int64("tokens.output", call.OutputTokens),
	)
}

// Finish closes the invocation span and returns the immutable Trace.
// Token and latency totals are derived from the recorded model calls and
// overall wall-clock time.
func (r *Recorder) Finish(outputText string, err error) *Trace {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, err.Error())
	} else {
		r.span.SetStatus(codes.Ok, "")
	}
	r.span.End()

	var inputTokens, outputTokens int64
	for _, call := range r.llmCalls {
		inputTokens += call.InputTokens
		outputTokens += call.OutputTokens
	}

	t := &Trace{
		TraceID:           NewID(),
		AgentName:         r.agentName,
		Model:             r.model,
		InputText:         r.inputText,
		OutputText:        outputText,
		ToolCalls:         append([]ToolCall(nil), r.toolCalls...),
		LLMCalls:          append([]LLMCall(nil), r.llmCalls...),
		TotalInputTokens:  inputTokens,
		TotalOutputTokens: outputTokens,
		TotalLatencyMS:    time.Since(r.started).Milliseconds(),
		Tags:              append([]string(nil), r.tags...),
		Metadata:          r.metadata,
		CreatedAt:         r.started,
	}
	if err != nil {
		t.Metadata["error"] = err.Error()
	}
	return t
}
