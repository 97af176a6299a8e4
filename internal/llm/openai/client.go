package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"

	"github.com/joseph-ayodele/docextract/internal/llm"
)

var _ llm.Model = (*Client)(nil)

func (c *Client) Name() string { return c.cfg.Model }

// Generate implements llm.Model with a single chat completion. OpenAI has no top-k.
func (c *Client) Generate(ctx context.Context, prompt string, gen llm.GenerationConfig) (string, error) {
	start := time.Now()
	params := openai.ChatCompletionNewParams{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(gen.Temperature),
		TopP:        openai.Float(gen.TopP),
	}
	if gen.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(gen.MaxOutputTokens))
	}
	if gen.JSONResponse {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	completion, err := c.chat.Chat.Completions.New(ctx, params)
	if err != nil {
		c.logger.Error("llm.openai.http_error", "model", c.cfg.Model, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response")
	}
	c.logger.Debug("llm.openai.ok",
		"model", c.cfg.Model,
		"finish_reason", completion.Choices[0].FinishReason,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
