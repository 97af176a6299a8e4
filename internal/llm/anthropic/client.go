// Package anthropic is the Claude backend for llm.Model.
package anthropic

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/joseph-ayodele/docextract/internal/llm"
)

type Config struct {
	APIKey  string
	BaseURL string // default https://api.anthropic.com/
	Model   string
	Timeout time.Duration
}

type Client struct {
	cfg      Config
	messages anthropic.MessageService
	logger   *slog.Logger
}

var _ llm.Model = (*Client)(nil)

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com/"
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku-latest"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/") + "/"),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	return &Client{cfg: cfg, messages: anthropic.NewMessageService(opts...), logger: logger}
}

func (c *Client) Name() string { return c.cfg.Model }

// Generate sends one user message. Claude has no JSON mode, so the prompt's own
// "Return ONLY valid JSON" instruction carries the response type.
func (c *Client) Generate(ctx context.Context, prompt string, gen llm.GenerationConfig) (string, error) {
	start := time.Now()
	req := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.cfg.Model),
		MaxTokens:   int64(gen.MaxOutputTokens),
		Temperature: anthropic.Float(gen.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = 1024
	}
	if gen.TopK > 0 {
		req.TopK = anthropic.Int(int64(gen.TopK))
	}

	msg, err := c.messages.New(ctx, req)
	if err != nil {
		c.logger.Error("llm.anthropic.http_error", "model", c.cfg.Model, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("anthropic: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	c.logger.Debug("llm.anthropic.ok",
		"model", c.cfg.Model,
		"stop_reason", msg.StopReason,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return strings.TrimSpace(b.String()), nil
}
