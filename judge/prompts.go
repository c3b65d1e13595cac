/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

const goldenPrompt = `<task>
You are evaluating a response against a reference answer.
Score the response based on the specific criterion provided.
</task>

<golden_answer>
%s
</golden_answer>

<actual_response>
%s
</actual_response>

<criterion>
%s
</criterion>

<instructions>
1. Compare the actual response to the golden answer
2. Evaluate specifically for the given criterion
3. Provide a score from 0.0 to 1.0: 1.0 means semantic equivalence or
   superior effectiveness, 0.75-0.99 minor variations, 0.50-0.74 notable
   gaps, 0.25-0.49 significant problems, below 0.25 fundamental failure
4. Explain your reasoning and provide concrete suggestions for any score
   below 1.0
</instructions>

<output_format>
Return your judgment as a JSON object with this structure:
{
  "mode": "golden",
  "score": 0.0-1.0,
  "reasoning": "explanation of the score for this criterion",
  "suggestions": ["improvement1", "improvement2"]
}
</output_format>`

const standalonePrompt = `<task>
You are evaluating a response on its own merits.
Score the response based on the specific criterion provided.
</task>

<actual_response>
%s
</actual_response>

<criterion>
%s
</criterion>

<instructions>
1. Evaluate the response specifically for the given criterion
2. Provide a score from 0.0 to 1.0: 1.0 means the criterion is fully
   satisfied, 0.5 partially satisfied, 0.0 not satisfied at all
3. Explain your reasoning and provide concrete suggestions for any score
   below 1.0
</instructions>

<output_format>
Return your judgment as a JSON object with this structure:
{
  "mode": "standalone",
  "score": 0.0-1.0,
  "reasoning": "explanation of the score for this criterion",
  "suggestions": ["improvement1", "improvement2"]
}
</output_format>`

// buildPrompt renders the judgment prompt for the request. The request
// is assumed validated.
func buildPrompt(request *Request) string {
	if request.Mode == GoldenMode {
		return fmt.Sprintf(goldenPrompt, request.ReferenceAnswer, request.ActualAnswer, request.Criterion)
	}
	return fmt.Sprintf(standalonePrompt, request.ActualAnswer, request.Criterion)
}

// parseJudgement extracts the JSON judgment from a model response, which
// may wrap it in markdown fences or surrounding prose.
func parseJudgement(mode Mode, text string) (*Judgement, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in judge response: %q", truncateForError(text))
	}

	var j Judgement
	if err := json.Unmarshal([]byte(text[start:end+1]), &j); err != nil {
		return nil, fmt.Errorf("decoding judge response: %w", err)
	}
	j.Mode = mode
	j.Score = math.Min(math.Max(j.Score, 0.0), 1.0)
	return &j, nil
}

func truncateForError(s string) string {
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
