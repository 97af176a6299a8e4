package pipeline

import (
	"context"

	"github.com/joseph-ayodele/docextract/internal/document"
	"github.com/joseph-ayodele/docextract/internal/format"
)

// Classifier decides which extraction path a document takes.
type Classifier interface {
	Classify(path string) (document.Kind, error)
}

// LayoutExtractor reads word blocks from a PDF text layer.
type LayoutExtractor interface {
	ExtractLayout(path string) ([]document.Block, error)
}

// OCRExtractor recognizes word blocks on rendered pages.
type OCRExtractor interface {
	OCRToBlocks(ctx context.Context, path string) ([]document.Block, error)
}

// TableExtractor detects tables in a PDF text layer.
type TableExtractor interface {
	ExtractTables(path string) ([]document.Table, error)
}

// DocumentFormatter produces prose and candidate hints from blocks.
type DocumentFormatter interface {
	FormatDocument(blocks []document.Block) (string, format.Hints, error)
}

// FieldExtractor asks a model for field values.
type FieldExtractor interface {
	Extract(ctx context.Context, documentType string, fields []string, text string, hints format.Hints) (document.Result, error)
	ModelName() string
}

// ArtifactWriter persists a result and returns where it went.
type ArtifactWriter interface {
	Write(res document.Result) (string, error)
}

// Stages are the collaborators a Processor runs. LLM and Artifacts may be nil.
type Stages struct {
	Classifier Classifier
	Layout     LayoutExtractor
	OCR        OCRExtractor
	Tables     TableExtractor
	Formatter  DocumentFormatter
	LLM        FieldExtractor
	Artifacts  ArtifactWriter
}
