package pdftext

import (
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/docextract/internal/document"
)

// Extractor reads the structural text layer of a PDF. It holds only configuration.
type Extractor struct {
	words  WordOptions
	tables TableOptions
	logger *slog.Logger
}

type Option func(*Extractor)

func WithWordOptions(o WordOptions) Option {
	return func(e *Extractor) { e.words = o }
}

func WithTableOptions(o TableOptions) Option {
	return func(e *Extractor) { e.tables = o }
}

func NewExtractor(logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{
		words:  DefaultWordOptions(),
		tables: DefaultTableOptions(),
		logger: logger,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// IsScanned reports true iff no page of the PDF yields any extractable text.
func (e *Extractor) IsScanned(path string) (bool, error) {
	doc, err := open(path)
	if err != nil {
		return false, err
	}
	defer func() { _ = doc.Close() }()

	n := doc.NumPages()
	for i := 0; i < n; i++ {
		p := doc.page(i)
		if p.V.IsNull() {
			continue
		}
		txt, err := plainText(p, i)
		if err != nil {
			return false, err
		}
		if strings.TrimSpace(txt) != "" {
			e.logger.Debug("pdftext.classify.text_layer", "path", path, "page", i+1, "pages", n)
			return false, nil
		}
	}
	e.logger.Debug("pdftext.classify.scanned", "path", path, "pages", n)
	return true, nil
}

// Classify returns the routing decision for path.
func (e *Extractor) Classify(path string) (document.Kind, error) {
	scanned, err := e.IsScanned(path)
	if err != nil {
		return document.KindText, err
	}
	if scanned {
		return document.KindScanned, nil
	}
	return document.KindText, nil
}

// ExtractLayout returns word blocks for every page in page order.
func (e *Extractor) ExtractLayout(path string) ([]document.Block, error) {
	start := time.Now()
	doc, err := open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = doc.Close() }()

	var blocks []document.Block
	n := doc.NumPages()
	for i := 0; i < n; i++ {
		words, err := e.pageWords(doc, i)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, words...)
	}
	e.logger.Info("pdftext.layout.ok",
		"path", path,
		"pages", n,
		"blocks", len(blocks),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return blocks, nil
}

func (e *Extractor) pageWords(doc *pdfFile, i int) ([]document.Block, error) {
	p := doc.page(i)
	if p.V.IsNull() {
		return nil, nil
	}
	glyphs, err := content(p, i)
	if err != nil {
		return nil, err
	}
	return groupWords(glyphs, mediaBox(p), i, e.words), nil
}
