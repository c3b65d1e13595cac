/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package trace

import (
	"context"
	"math/rand"

	"github.com/chainguard-dev/clog"
)

// ChaosType identifies a fault to inject into tool-call results.
type ChaosType string

const (
	ChaosTimeout   ChaosType = "timeout"
	ChaosError     ChaosType = "error"
	ChaosMalformed ChaosType = "malformed"
	ChaosRateLimit ChaosType = "rate_limit"
	ChaosSlow      ChaosType = "slow"
	ChaosEmpty     ChaosType = "empty"
)

// ChaosOverride configures a single fault-injection rule. An empty
// TargetTool matches every tool.
type ChaosOverride struct {
	Type         ChaosType `json:"chaos_type" yaml:"chaos_type"`
	Probability  float64   `json:"probability" yaml:"probability"`
	TargetTool   string    `json:"target_tool,omitempty" yaml:"target_tool,omitempty"`
	DelayMS      int64     `json:"delay_ms" yaml:"delay_ms"`
	ErrorMessage string    `json:"error_message,omitempty" yaml:"error_message,omitempty"`
}

// ChaosInjector rewrites tool-call results in a trace to simulate
// failures. The input trace is never mutated; when any fault fires a
// copy with a replaced tool-call list is returned.
type ChaosInjector struct {
	overrides []ChaosOverride
	rng       *rand.Rand
}

// NewChaosInjector creates an injector with the given rules. The seed makes
// fault selection deterministic across runs.
func NewChaosInjector(overrides []ChaosOverride, seed int64) *ChaosInjector {
	return &ChaosInjector{
		overrides: overrides,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Apply scans the trace's tool calls and probabilistically replaces their
// results with fault-injected variants.
func (c *ChaosInjector) Apply(ctx context.Context, t *Trace) *Trace {
	if len(t.ToolCalls) == 0 || len(c.overrides) == 0 {
		return t
	}
	log := clog.FromContext(ctx)

	modified := make([]ToolCall, 0, len(t.ToolCalls))
	anyModified := false

	for _, tc := range t.ToolCalls {
		override := c.matchOverride(tc)
		if override != nil && c.rng.Float64() < override.Probability {
			log.With("tool", tc.ToolName, "fault", string(override.Type)).
				Debug("Injecting chaos fault")
			modified = append(modified, injectFault(tc, *override))
			anyModified = true
		} else {
			modified = append(modified, tc)
		}
	}

	if !anyModified {
		return t
	}
	return t.WithToolCalls(modified)
}

// matchOverride finds the first rule applicable to the tool call.
func (c *ChaosInjector) matchOverride(tc ToolCall) *ChaosOverride {
	for i := range c.overrides {
		o := &c.overrides[i]
		if o.TargetTool == "" || o.TargetTool == tc.ToolName {
			return o
		}
	}
	return nil
}

// injectFault produces a fault-injected copy of the tool call.
func injectFault(tc ToolCall, override ChaosOverride) ToolCall {
	out := tc
	switch override.Type {
	case ChaosTimeout:
		out.Success = false
		out.Error = "chaos: operation timed out"
		out.ToolOut = nil
	case ChaosError:
		msg := override.ErrorMessage
		if msg == "" {
			msg = "chaos fault injected"
		}
		out.Success = false
		out.Error = "chaos: " + msg
		out.ToolOut = nil
	case ChaosMalformed:
		out.Success = true
		out.ToolOut = "{malformed: data, <<invalid>>}"
	case ChaosRateLimit:
		out.Success = false
		out.Error = "chaos: rate limit exceeded (429)"
		out.ToolOut = nil
	case ChaosSlow:
		out.Success = true
		out.LatencyMS = tc.LatencyMS + override.DelayMS
	case ChaosEmpty:
		out.Success = true
		out.ToolOut = ""
	default:
		out.Success = false
		out.Error = "chaos: unknown fault type " + string(override.Type)
	}
	return out
}
