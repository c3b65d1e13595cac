/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/chainguard-dev/clog"
)

const (
	defaultClaudeModel = "claude-sonnet-4-5"
	judgeMaxTokens     = 8192
	judgeTemperature   = 0.1
)

// claude implements Interface using the Anthropic Messages API.
type claude struct {
	client anthropic.Client
	model  string
}

// NewClaude creates a Claude-backed judge. The API key is read from the
// environment by the SDK when opts do not supply one.
func NewClaude(model string, opts ...option.RequestOption) Interface {
	if model == "" {
		model = defaultClaudeModel
	}
	return &claude{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

// Judge implements Interface.
func (c *claude) Judge(ctx context.Context, request *Request) (*Judgement, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   judgeMaxTokens,
		Temperature: anthropic.Float(judgeTemperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(request))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude judge request: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, errors.New("claude judge returned no text content")
	}

	clog.FromContext(ctx).With("model", c.model,
		"input_tokens", message.Usage.InputTokens,
		"output_tokens", message.Usage.OutputTokens).
		Debug("Judge response received")

	return parseJudgement(request.Mode, sb.String())
}
