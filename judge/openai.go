/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"context"
	"errors"
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o"

// openaiJudge implements Interface using the OpenAI chat completions API.
type openaiJudge struct {
	client openai.Client
	model  string
}

// NewOpenAI creates an OpenAI-backed judge. The API key is read from the
// environment by the SDK when opts do not supply one.
func NewOpenAI(model string, opts ...option.RequestOption) Interface {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &openaiJudge{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Judge implements Interface.
func (o *openaiJudge) Judge(ctx context.Context, request *Request) (*Judgement, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Temperature: openai.Float(judgeTemperature),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(buildPrompt(request)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai judge request: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("openai judge returned no choices")
	}

	clog.FromContext(ctx).With("model", o.model,
		"prompt_tokens", completion.Usage.PromptTokens,
		"completion_tokens", completion.Usage.CompletionTokens).
		Debug("Judge response received")

	return parseJudgement(request.Mode, completion.Choices[0].Message.Content)
}
