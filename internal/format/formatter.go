// Package format turns extracted blocks into prose plus candidate hints for the model.
package format

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/joseph-ayodele/docextract/internal/document"
)

// Formatter is stateless apart from its recognizer; one value may serve many documents.
type Formatter struct {
	rec    EntityRecognizer
	logger *slog.Logger
}

func NewFormatter(rec EntityRecognizer, logger *slog.Logger) *Formatter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Formatter{rec: rec, logger: logger}
}

// BlocksToText orders blocks by (page, top, x0), ties keeping input order, and joins
// the non-blank texts with a single space.
func BlocksToText(blocks []document.Block) string {
	sorted := make([]document.Block, len(blocks))
	copy(sorted, blocks)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.Top != b.Top {
			return a.Top < b.Top
		}
		return a.X0 < b.X0
	})

	parts := make([]string, 0, len(sorted))
	for _, b := range sorted {
		if strings.TrimSpace(b.Text) == "" {
			continue
		}
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, " ")
}

// FormatDocument reconstructs the text and builds hints from it.
func (f *Formatter) FormatDocument(blocks []document.Block) (string, Hints, error) {
	text := BlocksToText(blocks)
	rx := RegexExtract(text)
	ents, err := ExtractEntities(f.rec, text)
	if err != nil {
		return "", Hints{}, err
	}
	hints := BuildHints(rx, ents)
	f.logger.Debug("format.ok",
		"blocks", len(blocks),
		"chars", len(text),
		"amounts", len(rx.AmountCandidates),
		"entities", len(ents.Organizations)+len(ents.Dates)+len(ents.Money)+len(ents.Persons)+len(ents.Locations),
	)
	return text, hints, nil
}
