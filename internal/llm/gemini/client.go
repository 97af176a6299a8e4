// Package gemini is the default llm.Model backend, calling Google's Gemini API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"google.golang.org/genai"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/llm"
)

const DefaultModel = "gemini-2.0-flash"

type Config struct {
	APIKey string // if empty, falls back to env API_KEY
	Model  string
}

type Client struct {
	model  string
	client *genai.Client
	logger *slog.Logger
}

var _ llm.Model = (*Client)(nil)

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, common.NewAppError("LLM_ERROR", "API_KEY is not set", common.ErrNotConfigured)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &Client{model: cfg.Model, client: client, logger: logger}, nil
}

func (c *Client) Name() string { return c.model }

func (c *Client) Generate(ctx context.Context, prompt string, gen llm.GenerationConfig) (string, error) {
	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), generateConfig(gen))
	if err != nil {
		c.logger.Error("llm.gemini.error", "model", c.model, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("gemini: %w", err)
	}
	text := resp.Text()
	c.logger.Debug("llm.gemini.ok", "model", c.model, "chars", len(text), "elapsed_ms", time.Since(start).Milliseconds())
	return text, nil
}

func generateConfig(gen llm.GenerationConfig) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(gen.Temperature)),
		TopP:            genai.Ptr(float32(gen.TopP)),
		MaxOutputTokens: int32(gen.MaxOutputTokens),
	}
	if gen.TopK > 0 {
		cfg.TopK = genai.Ptr(float32(gen.TopK))
	}
	if gen.JSONResponse {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}
