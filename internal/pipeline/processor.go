// Package pipeline wires classification, extraction, formatting and the model step
// into one document-to-fields run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/document"
	"github.com/joseph-ayodele/docextract/internal/format"
)

// Result is one finished extraction.
type Result struct {
	Data      document.Result
	Kind      document.Kind
	ExcelPath string
	Artifact  Outcome
	Model     string
}

// Response is the wire shape: the field map plus excel_path, or for a list
// answer {"records": [...], "excel_path": ...}. excel_path is omitted when no artifact was written.
func (r *Result) Response() map[string]any {
	out := map[string]any{}
	if r.Data.IsList() {
		out["records"] = r.Data.Rows
	} else {
		for k, v := range r.Data.Fields {
			out[k] = v
		}
	}
	if r.ExcelPath != "" {
		out[constants.ExcelPathKey] = r.ExcelPath
	}
	return out
}

// Processor runs documents through the stages. It keeps no per-document state,
// so one value can serve concurrent calls.
type Processor struct {
	stages Stages
	logger *slog.Logger
}

func NewProcessor(stages Stages, logger *slog.Logger) (*Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch {
	case stages.Classifier == nil, stages.Layout == nil, stages.OCR == nil:
		return nil, common.NewAppError("PIPELINE_ERROR", "classifier, layout and ocr stages are required", common.ErrNotConfigured)
	case stages.Tables == nil, stages.Formatter == nil:
		return nil, common.NewAppError("PIPELINE_ERROR", "table and formatter stages are required", common.ErrNotConfigured)
	}
	return &Processor{stages: stages, logger: logger}, nil
}

// ModelName is the configured model, or "none" when the model step is bypassed.
func (p *Processor) ModelName() string {
	if p.stages.LLM == nil {
		return "none"
	}
	return p.stages.LLM.ModelName()
}

// Extract runs one document already on disk.
func (p *Processor) Extract(ctx context.Context, path string, req Request) (*Result, error) {
	ctx, rid := common.EnsureRequestID(ctx)
	req = NormalizeRequest(req)
	start := time.Now()
	p.logger.Info("pipeline.extract.start", "req_id", rid, "path", path, "document_type", req.DocumentType, "fields", req.Fields)

	kind, err := p.stages.Classifier.Classify(path)
	if err != nil {
		p.logger.Error("pipeline.classify.failed", "req_id", rid, "error", err)
		return nil, err
	}

	var blocks []document.Block
	switch kind {
	case document.KindText:
		blocks, err = p.stages.Layout.ExtractLayout(path)
	case document.KindScanned:
		blocks, err = p.stages.OCR.OCRToBlocks(ctx, path)
	default:
		err = fmt.Errorf("unknown document kind %d", kind)
	}
	if err != nil {
		p.logger.Error("pipeline.blocks.failed", "req_id", rid, "path_kind", kind.String(), "error", err)
		return nil, err
	}

	tables, err := p.stages.Tables.ExtractTables(path)
	if err != nil {
		p.logger.Error("pipeline.tables.failed", "req_id", rid, "error", err)
		return nil, err
	}

	text, hints, err := p.stages.Formatter.FormatDocument(blocks)
	if err != nil {
		return nil, fmt.Errorf("format document: %w", err)
	}
	text = format.AppendTables(text, tables)
	p.logger.Info("pipeline.formatted",
		"req_id", rid,
		"path_kind", kind.String(),
		"blocks", len(blocks),
		"tables", len(tables),
		"chars", len(text),
	)

	data, err := p.extractFields(ctx, req, text, hints)
	if err != nil {
		return nil, err
	}

	res := &Result{Data: data, Kind: kind, Model: p.ModelName()}
	if p.stages.Artifacts == nil {
		res.Artifact = Skipped("artifact writer not configured")
	} else {
		res.Artifact = BestEffort(ctx, p.logger, "artifact.write", func(context.Context) error {
			out, err := p.stages.Artifacts.Write(data)
			res.ExcelPath = out
			return err
		})
	}

	p.logger.Info("pipeline.extract.ok",
		"req_id", rid,
		"path_kind", kind.String(),
		"excel_path", res.ExcelPath,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (p *Processor) extractFields(ctx context.Context, req Request, text string, hints format.Hints) (document.Result, error) {
	if p.stages.LLM == nil {
		p.logger.Warn("pipeline.llm.bypassed", "req_id", common.RequestIDFromContext(ctx), "reason", "no model configured")
		return document.NullFields(req.Fields), nil
	}
	data, err := p.stages.LLM.Extract(ctx, req.DocumentType, req.Fields, text, hints)
	if err != nil {
		return document.Result{}, fmt.Errorf("llm extract: %w", err)
	}
	return data, nil
}
