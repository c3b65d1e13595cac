/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package evals

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"

	"chainguard.dev/agentprobe/trace"
)

// Rule checks a single declarative condition against an agent's output
// text and contributes its weight to the composite score when it passes.
type Rule struct {
	// Name identifies the rule in result metadata.
	Name string
	// Weight is the rule's relative contribution; must be positive.
	Weight float64
	// Check reports whether the condition holds for the output.
	Check func(output string) bool
}

// ContainsAny passes when the output contains any of the substrings.
func ContainsAny(values ...string) Rule {
	return Rule{
		Name:   "contains_any",
		Weight: 1.0,
		Check: func(output string) bool {
			for _, v := range values {
				if strings.Contains(output, v) {
					return true
				}
			}
			return false
		},
	}
}

// NotContains passes when the output contains none of the substrings.
func NotContains(values ...string) Rule {
	return Rule{
		Name:   "not_contains",
		Weight: 1.0,
		Check: func(output string) bool {
			for _, v := range values {
				if strings.Contains(output, v) {
					return false
				}
			}
			return true
		},
	}
}

// MaxLength passes when the output does not exceed n bytes.
func MaxLength(n int) Rule {
	return Rule{
		Name:   "max_length",
		Weight: 1.0,
		Check: func(output string) bool {
			return len(output) <= n
		},
	}
}

// Regex passes when the output matches the pattern.
func Regex(pattern *regexp.Regexp) Rule {
	return Rule{
		Name:   "regex",
		Weight: 1.0,
		Check: func(output string) bool {
			return pattern.MatchString(output)
		},
	}
}

// JSONValid passes when the output parses as JSON.
func JSONValid() Rule {
	return Rule{
		Name:   "json_valid",
		Weight: 1.0,
		Check: func(output string) bool {
			return json.Valid([]byte(output))
		},
	}
}

// Weighted returns a copy of the rule with the given weight.
func (r Rule) Weighted(w float64) Rule {
	r.Weight = w
	return r
}

// RuleEvaluator applies a set of declarative rules to the trace's output
// text. The score is the weighted fraction of passing rules; with no rules
// configured everything passes.
type RuleEvaluator struct {
	name          string
	rules         []Rule
	passThreshold float64
}

// NewRuleEvaluator creates a rule-based evaluator.
func NewRuleEvaluator(name string, rules ...Rule) *RuleEvaluator {
	if name == "" {
		name = "rule-based"
	}
	return &RuleEvaluator{
		name:          name,
		rules:         rules,
		passThreshold: DefaultPassThreshold,
	}
}

// Name implements Evaluator.
func (e *RuleEvaluator) Name() string {
	return e.name
}

// Evaluate implements Evaluator.
func (e *RuleEvaluator) Evaluate(ctx context.Context, _ *TestCase, tr *trace.Trace) (*EvalResult, error) {
	if len(e.rules) == 0 {
		return &EvalResult{
			EvalID:        trace.NewID(),
			EvaluatorName: e.name,
			Verdict:       VerdictPass,
			Score:         1.0,
			Reason:        "no rules configured, pass by default",
			CreatedAt:     time.Now(),
		}, nil
	}

	log := clog.FromContext(ctx)
	output := tr.OutputText

	var totalWeight, weightedScore float64
	outcomes := make([]map[string]any, 0, len(e.rules))
	failed := 0

	for _, rule := range e.rules {
		passed := rule.Check(output)
		totalWeight += rule.Weight
		if passed {
			weightedScore += rule.Weight
		} else {
			failed++
			log.With("rule", rule.Name).Debug("Rule failed")
		}
		outcomes = append(outcomes, map[string]any{
			"rule":   rule.Name,
			"weight": rule.Weight,
			"passed": passed,
		})
	}

	score := trace.Round4(Clamp01(weightedScore / totalWeight))
	return &EvalResult{
		EvalID:        trace.NewID(),
		EvaluatorName: e.name,
		Verdict:       VerdictForScore(score, e.passThreshold),
		Score:         score,
		Reason:        fmt.Sprintf("%d/%d rules passed", len(e.rules)-failed, len(e.rules)),
		Metadata:      map[string]any{"rules": outcomes},
		CreatedAt:     time.Now(),
	}, nil
}
