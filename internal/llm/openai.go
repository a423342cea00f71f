// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// OpenAI implements Completer over the official openai-go chat completions
// API.
type OpenAI struct {
	client    openai.Client
	model     string
	maxTokens int64
	cfg       types.AIConfig
}

// NewOpenAI builds an OpenAI completer from configuration. Extra request
// options are appended after the API key, so tests can point the client at a
// local server.
func NewOpenAI(cfg types.AIConfig, opts ...option.RequestOption) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key missing")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	all := append([]option.RequestOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	return &OpenAI{
		client:    openai.NewClient(all...),
		model:     cfg.Model,
		maxTokens: maxTokens,
		cfg:       cfg,
	}, nil
}

// Complete sends one chat completion request.
func (o *OpenAI) Complete(ctx context.Context, prompt string, preset types.TemperaturePreset) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(o.cfg.Temperature(preset)),
		MaxTokens:   openai.Int(o.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}
