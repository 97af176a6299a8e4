package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/document"
	"github.com/joseph-ayodele/docextract/internal/export"
	"github.com/joseph-ayodele/docextract/internal/format"
	"github.com/joseph-ayodele/docextract/internal/pdftext"
	"github.com/joseph-ayodele/docextract/internal/testutil"
)

type fakeLayout struct {
	calls  int
	blocks []document.Block
}

func (f *fakeLayout) ExtractLayout(string) ([]document.Block, error) {
	f.calls++
	return f.blocks, nil
}

type fakeOCR struct {
	calls  int
	blocks []document.Block
	err    error
}

func (f *fakeOCR) OCRToBlocks(context.Context, string) ([]document.Block, error) {
	f.calls++
	return f.blocks, f.err
}

type kindClassifier document.Kind

func (k kindClassifier) Classify(string) (document.Kind, error) { return document.Kind(k), nil }

type fixedTables []document.Table

func (t fixedTables) ExtractTables(string) ([]document.Table, error) { return t, nil }

type fakeLLM struct {
	text   string
	fields []string
	result document.Result
	err    error
}

func (f *fakeLLM) Extract(_ context.Context, _ string, fields []string, text string, _ format.Hints) (document.Result, error) {
	f.text, f.fields = text, fields
	return f.result, f.err
}

func (f *fakeLLM) ModelName() string { return "fake" }

type failingWriter struct{}

func (failingWriter) Write(document.Result) (string, error) { return "", errors.New("disk full") }

func newStages(kind document.Kind) (Stages, *fakeLayout, *fakeOCR) {
	layout := &fakeLayout{blocks: []document.Block{{Text: "Invoice"}, {Text: "#123", X0: 50}}}
	ocr := &fakeOCR{blocks: []document.Block{{Text: "Scanned"}}}
	return Stages{
		Classifier: kindClassifier(kind),
		Layout:     layout,
		OCR:        ocr,
		Tables:     fixedTables(nil),
		Formatter:  format.NewFormatter(nil, nil),
	}, layout, ocr
}

func TestExtract_DispatchesOnKind(t *testing.T) {
	stages, layout, ocr := newStages(document.KindScanned)
	p, err := NewProcessor(stages, nil)
	require.NoError(t, err)

	res, err := p.Extract(context.Background(), "scan.pdf", Request{})
	require.NoError(t, err)
	assert.Equal(t, document.KindScanned, res.Kind)
	assert.Equal(t, 1, ocr.calls)
	assert.Equal(t, 0, layout.calls)

	stages, layout, ocr = newStages(document.KindText)
	p, err = NewProcessor(stages, nil)
	require.NoError(t, err)
	_, err = p.Extract(context.Background(), "text.pdf", Request{})
	require.NoError(t, err)
	assert.Equal(t, 1, layout.calls)
	assert.Equal(t, 0, ocr.calls)
}

func TestExtract_BypassesMissingModel(t *testing.T) {
	stages, _, _ := newStages(document.KindText)
	p, err := NewProcessor(stages, nil)
	require.NoError(t, err)

	res, err := p.Extract(context.Background(), "a.pdf", Request{Fields: []string{" ", ""}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"invoice_number": nil, "invoice_date": nil, "total_amount": nil}, res.Data.Fields)
	assert.Equal(t, "none", res.Model)
	assert.False(t, res.Artifact.OK)
	assert.NotContains(t, res.Response(), "excel_path")
}

func TestExtract_AppendsTablesAndCallsModel(t *testing.T) {
	stages, _, _ := newStages(document.KindText)
	stages.Tables = fixedTables{{{document.NewCell("Qty"), document.NewCell("")}}}
	llm := &fakeLLM{result: document.Result{Fields: map[string]any{"total": "45.00"}, Keys: []string{"total"}}}
	stages.LLM = llm
	stages.Artifacts = export.NewWriter(filepath.Join(t.TempDir(), "generated_excel"), nil)

	p, err := NewProcessor(stages, nil)
	require.NoError(t, err)
	res, err := p.Extract(context.Background(), "a.pdf", Request{DocumentType: "receipt", Fields: []string{"total"}})
	require.NoError(t, err)

	assert.Equal(t, "Invoice #123\n\n\n[Table 1]\nQty | ", llm.text)
	assert.Equal(t, []string{"total"}, llm.fields)
	assert.True(t, res.Artifact.OK)
	assert.FileExists(t, res.ExcelPath)

	resp := res.Response()
	assert.Equal(t, "45.00", resp["total"])
	assert.Equal(t, res.ExcelPath, resp["excel_path"])
}

func TestExtract_ArtifactFailureIsNotFatal(t *testing.T) {
	stages, _, _ := newStages(document.KindText)
	stages.Artifacts = failingWriter{}
	p, err := NewProcessor(stages, nil)
	require.NoError(t, err)

	res, err := p.Extract(context.Background(), "a.pdf", Request{})
	require.NoError(t, err)
	assert.Equal(t, Outcome{Reason: "disk full"}, res.Artifact)
	assert.Empty(t, res.ExcelPath)
}

func TestExtract_OCRFailureIsFatal(t *testing.T) {
	stages, _, ocr := newStages(document.KindScanned)
	ocr.err = errors.New("page 2 broke")
	p, err := NewProcessor(stages, nil)
	require.NoError(t, err)

	_, err = p.Extract(context.Background(), "a.pdf", Request{})
	assert.ErrorContains(t, err, "page 2 broke")
}

func TestExtract_ModelFailureIsFatal(t *testing.T) {
	stages, _, _ := newStages(document.KindText)
	stages.LLM = &fakeLLM{err: common.ErrModelResponse}
	p, err := NewProcessor(stages, nil)
	require.NoError(t, err)

	_, err = p.Extract(context.Background(), "a.pdf", Request{})
	assert.ErrorIs(t, err, common.ErrModelResponse)
}

func TestExtract_ListResponse(t *testing.T) {
	stages, _, _ := newStages(document.KindText)
	rows := []any{map[string]any{"line": 1.0}}
	stages.LLM = &fakeLLM{result: document.Result{Rows: rows}}
	p, err := NewProcessor(stages, nil)
	require.NoError(t, err)

	res, err := p.Extract(context.Background(), "a.pdf", Request{})
	require.NoError(t, err)
	assert.Equal(t, rows, res.Response()["records"])
}

func TestNewProcessor_RequiresStages(t *testing.T) {
	_, err := NewProcessor(Stages{}, nil)
	assert.ErrorIs(t, err, common.ErrNotConfigured)
}

func TestEndToEnd_TextLayerPDF(t *testing.T) {
	path := testutil.WritePDF(t, "invoice.pdf", []testutil.Page{testutil.InvoicePage("Invoice #123 Total: $45.00")})
	pdf := pdftext.NewExtractor(nil)
	llm := &fakeLLM{result: document.Result{Fields: map[string]any{"invoice_number": "123"}}}
	p, err := NewProcessor(Stages{
		Classifier: pdf,
		Layout:     pdf,
		OCR:        &fakeOCR{err: errors.New("must not run")},
		Tables:     pdf,
		Formatter:  format.NewFormatter(nil, nil),
		LLM:        llm,
	}, nil)
	require.NoError(t, err)

	res, err := p.Extract(context.Background(), path, Request{})
	require.NoError(t, err)
	assert.Equal(t, document.KindText, res.Kind)
	assert.Equal(t, "Invoice #123 Total: $45.00", llm.text)
}

type recordingFormatter struct {
	DocumentFormatter
	hints format.Hints
}

func (r *recordingFormatter) FormatDocument(blocks []document.Block) (string, format.Hints, error) {
	text, hints, err := r.DocumentFormatter.FormatDocument(blocks)
	r.hints = hints
	return text, hints, err
}

func TestEndToEnd_BypassedModelReturnsRequestedNullFields(t *testing.T) {
	path := testutil.WritePDF(t, "invoice.pdf", []testutil.Page{testutil.InvoicePage("Invoice #123 Total: $45.00")})
	pdf := pdftext.NewExtractor(nil)
	formatter := &recordingFormatter{DocumentFormatter: format.NewFormatter(format.ProseRecognizer{}, nil)}
	p, err := NewProcessor(Stages{
		Classifier: pdf,
		Layout:     pdf,
		OCR:        &fakeOCR{err: errors.New("must not run")},
		Tables:     pdf,
		Formatter:  formatter,
	}, nil)
	require.NoError(t, err)

	res, err := p.Extract(context.Background(), path, Request{Fields: []string{"invoice_number", "total_amount"}})
	require.NoError(t, err)

	assert.Equal(t, document.KindText, res.Kind)
	assert.Contains(t, formatter.hints.AmountCandidates, "$45.00")
	assert.Equal(t, map[string]any{"invoice_number": nil, "total_amount": nil}, res.Data.Fields)
	assert.Equal(t, map[string]any{"invoice_number": nil, "total_amount": nil}, res.Response())
	assert.Equal(t, "none", res.Model)
}

func TestEndToEnd_ArtifactHasOnlyRequestedColumns(t *testing.T) {
	path := testutil.WritePDF(t, "invoice.pdf", []testutil.Page{testutil.InvoicePage("Invoice #123 Total: $45.00")})
	pdf := pdftext.NewExtractor(nil)
	writer := export.NewWriter(filepath.Join(t.TempDir(), "out"), nil)
	p, err := NewProcessor(Stages{
		Classifier: pdf,
		Layout:     pdf,
		OCR:        &fakeOCR{err: errors.New("must not run")},
		Tables:     pdf,
		Formatter:  format.NewFormatter(format.ProseRecognizer{}, nil),
		Artifacts:  writer,
	}, nil)
	require.NoError(t, err)

	res, err := p.Extract(context.Background(), path, Request{Fields: []string{"invoice_number", "total_amount"}})
	require.NoError(t, err)
	require.NotEmpty(t, res.ExcelPath)
	assert.True(t, res.Artifact.OK)

	f, headers, rows, err := export.Workbook(res.Data)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, 2, headers)
	assert.Equal(t, 1, rows)
}

func TestEndToEnd_ScannedPDFTakesOCRPath(t *testing.T) {
	path := testutil.WritePDF(t, "scan.pdf", []testutil.Page{{Shapes: true}, {Shapes: true}})
	pdf := pdftext.NewExtractor(nil)
	ocr := &fakeOCR{blocks: []document.Block{{Text: "Total", Top: 10}, {Text: "$9.99", Top: 10, X0: 80}}}
	llm := &fakeLLM{result: document.Result{Fields: map[string]any{}}}
	p, err := NewProcessor(Stages{Classifier: pdf, Layout: pdf, OCR: ocr, Tables: pdf, Formatter: format.NewFormatter(nil, nil), LLM: llm}, nil)
	require.NoError(t, err)

	res, err := p.Extract(context.Background(), path, Request{})
	require.NoError(t, err)
	assert.Equal(t, document.KindScanned, res.Kind)
	assert.Equal(t, 1, ocr.calls)
	assert.False(t, strings.Contains(llm.text, "[Table"))
	assert.Equal(t, "Total $9.99", llm.text)
}

func TestNormalizeRequest(t *testing.T) {
	got := NormalizeRequest(Request{DocumentType: "  ", Fields: []string{" a ", "", "b"}})
	assert.Equal(t, Request{DocumentType: "invoice", Fields: []string{"a", "b"}}, got)

	assert.Equal(t, []string{"invoice_number", "total"}, ParseFields(" invoice_number, ,total,"))
	assert.Empty(t, ParseFields(" , "))
}

func TestBestEffort(t *testing.T) {
	assert.Equal(t, Outcome{OK: true, Reason: "ok"}, BestEffort(context.Background(), nil, "x", func(context.Context) error { return nil }))
	assert.Equal(t, Outcome{Reason: "nope"}, BestEffort(context.Background(), nil, "x", func(context.Context) error { return errors.New("nope") }))
}
