// Package ocr turns scanned PDFs into word blocks, one page at a time.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/document"
)

// DefaultDPI is the rasterization resolution for scanned pages.
const DefaultDPI = 150

// ErrEngineNotEnabled is returned when the gosseract engine is requested but
// the binary was built without the "ocr" tag. Rebuild with -tags ocr.
var ErrEngineNotEnabled = errors.New("gosseract engine not enabled; rebuild with -tags ocr")

// PageError identifies the page (1-based) and stage at which OCR failed.
type PageError struct {
	Page  int
	Stage string // "limit" | "rasterize" | "recognize" | "release"
	Err   error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("ocr page %d: %s: %v", e.Page, e.Stage, e.Err)
}

func (e *PageError) Unwrap() []error { return []error{common.ErrOCR, e.Err} }

// PageCounter returns the number of pages of a PDF.
type PageCounter func(path string) (int, error)

type Config struct {
	DPI      int // default 150
	MaxPages int // 0 = no limit; longer documents are rejected, never truncated
}

// Extractor rasterizes and recognizes pages sequentially. It holds no per-document state.
type Extractor struct {
	cfg    Config
	pages  PageCounter
	raster Rasterizer
	engine Engine
	logger *slog.Logger
}

func NewExtractor(cfg Config, pages PageCounter, raster Rasterizer, engine Engine, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DPI <= 0 {
		cfg.DPI = DefaultDPI
	}
	return &Extractor{cfg: cfg, pages: pages, raster: raster, engine: engine, logger: logger}
}

// OCRToBlocks renders and recognizes each page in turn. The raster and word data of
// page n are released before page n+1 is rendered. Any page failure aborts the document.
func (e *Extractor) OCRToBlocks(ctx context.Context, path string) ([]document.Block, error) {
	start := time.Now()
	total, err := e.pages(path)
	if err != nil {
		return nil, err
	}
	if e.cfg.MaxPages > 0 && total > e.cfg.MaxPages {
		e.logger.Error("ocr.pages.over_limit", "path", path, "pages", total, "max_pages", e.cfg.MaxPages)
		return nil, &PageError{
			Page:  e.cfg.MaxPages + 1,
			Stage: "limit",
			Err:   fmt.Errorf("%w: document has %d pages, limit is %d", common.ErrInvalidInput, total, e.cfg.MaxPages),
		}
	}
	e.logger.Info("ocr.start", "path", path, "pages", total, "dpi", e.cfg.DPI)

	var blocks []document.Block
	for idx := 0; idx < total; idx++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pageBlocks, err := e.page(ctx, path, idx, total)
		if err != nil {
			e.logger.Error("ocr.page.failed", "path", path, "page", idx+1, "error", err)
			return nil, err
		}
		blocks = append(blocks, pageBlocks...)
	}

	e.logger.Info("ocr.ok",
		"path", path,
		"pages", total,
		"blocks", len(blocks),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return blocks, nil
}

func (e *Extractor) page(ctx context.Context, path string, idx, total int) ([]document.Block, error) {
	pageNum := idx + 1
	pageStart := time.Now()

	img, err := e.raster.Rasterize(ctx, path, pageNum, e.cfg.DPI)
	if err != nil {
		return nil, &PageError{Page: pageNum, Stage: "rasterize", Err: err}
	}

	words, recErr := e.engine.Recognize(ctx, img.Path)
	relErr := img.Release()
	if recErr != nil {
		return nil, &PageError{Page: pageNum, Stage: "recognize", Err: recErr}
	}
	if relErr != nil {
		return nil, &PageError{Page: pageNum, Stage: "release", Err: relErr}
	}

	blocks := wordsToBlocks(words, idx)
	e.logger.Debug("ocr.page.ok",
		"page", pageNum,
		"pages", total,
		"words", len(words),
		"blocks", len(blocks),
		"elapsed_ms", time.Since(pageStart).Milliseconds(),
	)
	return blocks, nil
}

func wordsToBlocks(words []Word, page int) []document.Block {
	out := make([]document.Block, 0, len(words))
	for _, w := range words {
		if strings.TrimSpace(w.Text) == "" {
			continue
		}
		out = append(out, document.Block{
			Text:   w.Text,
			X0:     float64(w.Left),
			Top:    float64(w.Top),
			X1:     float64(w.Left + w.Width),
			Bottom: float64(w.Top + w.Height),
			Page:   page,
		})
	}
	return out
}
