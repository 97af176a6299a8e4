package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/document"
	"github.com/joseph-ayodele/docextract/internal/format"
)

// Client runs prompt, call and parse against one Model. It is safe for concurrent use.
type Client struct {
	model   Model
	gen     GenerationConfig
	limiter *rate.Limiter
	schema  *jsonschema.Schema
	logger  *slog.Logger
}

type Option func(*Client)

// WithRateLimit paces model calls; perSec <= 0 disables pacing.
func WithRateLimit(perSec float64, burst int) Option {
	return func(c *Client) {
		if perSec <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

func WithGeneration(gen GenerationConfig) Option {
	return func(c *Client) { c.gen = gen }
}

func NewClient(model Model, logger *slog.Logger, opts ...Option) (*Client, error) {
	if model == nil {
		return nil, common.NewAppError("LLM_ERROR", "model is required", common.ErrNotConfigured)
	}
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := CompileSchema(ResponseSchema())
	if err != nil {
		return nil, err
	}
	c := &Client{model: model, gen: DefaultGeneration(), schema: schema, logger: logger}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// ModelName is the backend's model identifier, recorded alongside stored extractions.
func (c *Client) ModelName() string { return c.model.Name() }

// CallModel sends prompt and returns the raw response text.
func (c *Client) CallModel(ctx context.Context, prompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	start := time.Now()
	c.logger.Info("llm.call.start", "req_id", common.RequestIDFromContext(ctx), "model", c.model.Name(), "prompt_chars", len(prompt))
	out, err := c.model.Generate(ctx, prompt, c.gen)
	if err != nil {
		c.logger.Error("llm.call.failed",
			"req_id", common.RequestIDFromContext(ctx),
			"model", c.model.Name(),
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("%s: %w", c.model.Name(), err)
	}
	c.logger.Info("llm.call.ok",
		"req_id", common.RequestIDFromContext(ctx),
		"model", c.model.Name(),
		"response_chars", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// Extract asks the model for fields. A list answer passes through unchanged; any
// other answer is reduced to exactly fields, missing ones null.
func (c *Client) Extract(ctx context.Context, documentType string, fields []string, text string, hints format.Hints) (document.Result, error) {
	prompt, err := BuildPrompt(documentType, fields, hints, text)
	if err != nil {
		return document.Result{}, err
	}
	raw, err := c.CallModel(ctx, prompt)
	if err != nil {
		return document.Result{}, err
	}
	parsed, err := ParseJSON(raw)
	if err != nil {
		c.logger.Error("llm.extract.parse_failed", "req_id", common.RequestIDFromContext(ctx), "error", err, "raw_chars", len(raw))
		return document.Result{}, err
	}
	if vErr := c.schema.Validate(parsed); vErr != nil {
		c.logger.Warn("llm.extract.schema_mismatch", "req_id", common.RequestIDFromContext(ctx), "error", vErr)
	}

	res := Reduce(parsed, fields)
	c.logger.Info("llm.extract.ok",
		"req_id", common.RequestIDFromContext(ctx),
		"document_type", documentType,
		"fields", len(fields),
		"list", res.IsList(),
	)
	return res, nil
}

// Reduce shapes a decoded answer. Lists are kept verbatim. Objects keep only fields.
// Anything else counts as an empty object.
func Reduce(parsed any, fields []string) document.Result {
	keys := append([]string(nil), fields...)
	if rows, ok := parsed.([]any); ok {
		return document.Result{Rows: rows, Keys: keys}
	}
	obj, _ := parsed.(map[string]any)
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		out[f] = obj[f]
	}
	return document.Result{Fields: out, Keys: keys}
}
