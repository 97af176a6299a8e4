package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joseph-ayodele/docextract/internal/app"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/llm"
)

// Sends a prompt read from stdin to the configured model, optionally several times,
// and reports timing plus whether each reply parsed as JSON.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	times := 1
	if len(os.Args) >= 2 {
		if n, err := strconv.Atoi(os.Args[1]); err == nil && n > 0 {
			times = n
		}
	}

	prompt, err := io.ReadAll(os.Stdin)
	if err != nil || len(prompt) == 0 {
		logger.Error("usage: llm [times] < prompt.txt")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client, err := app.NewFieldExtractor(ctx, cfg.LLM, logger)
	if err != nil {
		logger.Error("build model", "error", err)
		os.Exit(1)
	}
	if client == nil {
		logger.Error("no model configured; set LLM_PROVIDER and its API key")
		os.Exit(2)
	}

	failures := 0
	for i := 1; i <= times; i++ {
		start := time.Now()
		raw, err := client.CallModel(ctx, string(prompt))
		if err != nil {
			logger.Error("model call failed", "run", i, "error", err)
			failures++
			continue
		}
		_, perr := llm.ParseJSON(raw)
		logger.Info("model call ok",
			"run", i,
			"model", client.ModelName(),
			"chars", len(raw),
			"json", perr == nil,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		if i == times {
			_, _ = os.Stdout.WriteString(raw + "\n")
		}
	}
	if failures > 0 {
		os.Exit(1)
	}
}
