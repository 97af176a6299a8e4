package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/docextract/internal/app"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/document"
	"github.com/joseph-ayodele/docextract/internal/format"
	"github.com/joseph-ayodele/docextract/internal/pdftext"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	forceOCR := flag.Bool("ocr", false, "skip classification and always OCR")
	showText := flag.Bool("text", false, "print the formatted text and hints instead of blocks")
	flag.Parse()
	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "runocr [-ocr] [-text] <file.pdf>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg := common.LoadConfig()
	text := pdftext.NewExtractor(logger)
	ocrx, err := app.NewOCR(cfg.OCR, logger)
	if err != nil {
		logger.Error("build ocr", "error", err)
		os.Exit(1)
	}

	kind := document.KindScanned
	if !*forceOCR {
		if kind, err = text.Classify(path); err != nil {
			logger.Error("classify", "path", path, "error", err)
			os.Exit(1)
		}
	}

	start := time.Now()
	var blocks []document.Block
	if kind == document.KindText {
		blocks, err = text.ExtractLayout(path)
	} else {
		blocks, err = ocrx.OCRToBlocks(ctx, path)
	}
	dur := time.Since(start)
	if err != nil {
		logger.Error("block extraction failed", "path", path, "extract_path", kind.String(), "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}
	logger.Info("block extraction OK",
		"path", path,
		"extract_path", kind.String(),
		"blocks", len(blocks),
		"duration_ms", dur.Milliseconds(),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	var out any = blocks
	if *showText {
		formatted, hints, err := format.NewFormatter(format.ProseRecognizer{}, logger).FormatDocument(blocks)
		if err != nil {
			logger.Error("format", "error", err)
			os.Exit(1)
		}
		out = map[string]any{"text": formatted, "hints": hints}
	}
	if err := enc.Encode(out); err != nil {
		logger.Error("write output", "error", err)
		os.Exit(1)
	}
}
