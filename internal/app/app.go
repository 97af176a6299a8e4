// Package app assembles configured components for the binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/export"
	"github.com/joseph-ayodele/docextract/internal/format"
	"github.com/joseph-ayodele/docextract/internal/llm"
	"github.com/joseph-ayodele/docextract/internal/llm/anthropic"
	"github.com/joseph-ayodele/docextract/internal/llm/gemini"
	"github.com/joseph-ayodele/docextract/internal/llm/openai"
	"github.com/joseph-ayodele/docextract/internal/ocr"
	"github.com/joseph-ayodele/docextract/internal/pdftext"
	"github.com/joseph-ayodele/docextract/internal/pipeline"
	"github.com/joseph-ayodele/docextract/internal/repository"
)

// NewModel returns the provider client for cfg, or nil when no API key is set.
func NewModel(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.Model, error) {
	if cfg.APIKey == "" {
		logger.Warn("llm api key not configured, model step will be bypassed", "provider", cfg.Provider)
		return nil, nil
	}
	switch cfg.Provider {
	case "openai":
		return openai.NewClient(openai.Config{APIKey: cfg.APIKey, Model: cfg.Model, Timeout: cfg.Timeout}, logger), nil
	case "anthropic":
		return anthropic.NewClient(anthropic.Config{APIKey: cfg.APIKey, Model: cfg.Model, Timeout: cfg.Timeout}, logger), nil
	case "gemini", "":
		c, err := gemini.NewClient(ctx, gemini.Config{APIKey: cfg.APIKey, Model: cfg.Model}, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", common.ErrInvalidInput, cfg.Provider)
	}
}

// NewFieldExtractor wraps the configured model with pacing. A nil result means no model.
func NewFieldExtractor(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (*llm.Client, error) {
	model, err := NewModel(ctx, cfg, logger)
	if err != nil || model == nil {
		return nil, err
	}
	return llm.NewClient(model, logger, llm.WithRateLimit(cfg.RatePerSec, cfg.Burst))
}

// NewOCR builds the page-at-a-time OCR extractor for the configured engine.
func NewOCR(cfg common.OCRConfig, logger *slog.Logger) (*ocr.Extractor, error) {
	runner := ocr.NewExecRunner(logger)
	var engine ocr.Engine
	switch cfg.Engine {
	case "gosseract":
		e, err := ocr.NewGosseractEngine(cfg.Language, cfg.TessdataDir)
		if err != nil {
			return nil, err
		}
		engine = e
	default:
		engine = ocr.TesseractCLI{
			Binary:      cfg.Tesseract,
			Language:    cfg.Language,
			TessdataDir: cfg.TessdataDir,
			Runner:      runner,
		}
	}
	raster := ocr.PdftoppmRasterizer{Binary: cfg.Pdftoppm, Runner: runner}
	return ocr.NewExtractor(ocr.Config{DPI: cfg.DPI}, pdftext.PageCount, raster, engine, logger), nil
}

// NewProcessor wires every pipeline stage from cfg. The artifact writer is returned
// so callers can resolve report paths against its directory.
func NewProcessor(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*pipeline.Processor, *export.Writer, error) {
	text := pdftext.NewExtractor(logger)
	ocrx, err := NewOCR(cfg.OCR, logger)
	if err != nil {
		return nil, nil, err
	}
	fields, err := NewFieldExtractor(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, nil, err
	}
	writer := export.NewWriter(cfg.Export.OutputDir, logger)

	stages := pipeline.Stages{
		Classifier: text,
		Layout:     text,
		OCR:        ocrx,
		Tables:     text,
		Formatter:  format.NewFormatter(format.ProseRecognizer{}, logger),
		Artifacts:  writer,
	}
	// a typed nil would defeat the bypass check
	if fields != nil {
		stages.LLM = fields
	}
	proc, err := pipeline.NewProcessor(stages, logger)
	if err != nil {
		return nil, nil, err
	}
	return proc, writer, nil
}

// OpenDatabase opens and migrates the configured store. It returns nil when
// persistence is disabled; inMemory forces a private SQLite database.
func OpenDatabase(ctx context.Context, cfg common.DatabaseConfig, inMemory bool, logger *slog.Logger) (*repository.DB, error) {
	var (
		db  *repository.DB
		err error
	)
	switch {
	case inMemory:
		db, err = repository.OpenSQLite(ctx, ":memory:", logger)
	case cfg.DSN == "":
		logger.Warn("DB_URL not set, persistence disabled")
		return nil, nil
	case cfg.Driver == "sqlite":
		db, err = repository.OpenSQLite(ctx, cfg.DSN, logger)
	default:
		db, err = repository.Open(ctx, repository.Config{
			DSN:              cfg.DSN,
			MaxConns:         cfg.MaxConns,
			MinConns:         cfg.MinConns,
			MaxConnLifetime:  cfg.MaxConnLifetime,
			MaxConnIdleTime:  cfg.MaxConnIdleTime,
			DialTimeout:      cfg.DialTimeout,
			StatementTimeout: cfg.StatementTimeout,
		}, logger)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", common.ErrDatabase, err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close(logger)
		return nil, fmt.Errorf("%w: migrate: %v", common.ErrDatabase, err)
	}
	return db, nil
}
