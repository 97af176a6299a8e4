package pdftext

import (
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/docextract/internal/document"
)

// WordOptions control how glyph runs are merged into words.
type WordOptions struct {
	XTolerance float64 // max horizontal gap between glyphs of one word, points
	YTolerance float64 // max baseline drift within one word, points
}

// DefaultWordOptions mirror the usual 3pt tolerances of word extractors.
func DefaultWordOptions() WordOptions {
	return WordOptions{XTolerance: 3, YTolerance: 3}
}

type wordBuilder struct {
	text                   strings.Builder
	x0, x1, baseline, size float64
	open                   bool
}

func (w *wordBuilder) start(g pdf.Text, width float64) {
	w.text.Reset()
	w.text.WriteString(g.S)
	w.x0 = g.X
	w.x1 = g.X + width
	w.baseline = g.Y
	w.size = abs(g.FontSize)
	w.open = true
}

func (w *wordBuilder) add(g pdf.Text, width float64) {
	w.text.WriteString(g.S)
	if end := g.X + width; end > w.x1 {
		w.x1 = end
	}
	if s := abs(g.FontSize); s > w.size {
		w.size = s
	}
}

// glyphWidth falls back to half the font size for fonts without a widths table.
func glyphWidth(g pdf.Text) float64 {
	if g.W > 0 {
		return g.W
	}
	return abs(g.FontSize) * 0.5
}

func isBlank(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}

// groupWords merges positioned glyphs into word blocks for page index, converting
// from PDF bottom-up coordinates to top-down page-local coordinates.
func groupWords(glyphs []pdf.Text, mb box, index int, opts WordOptions) []document.Block {
	var (
		out []document.Block
		cur wordBuilder
	)
	flush := func() {
		if !cur.open {
			return
		}
		cur.open = false
		txt := cur.text.String()
		if strings.TrimSpace(txt) == "" {
			return
		}
		out = append(out, document.Block{
			Text:   txt,
			X0:     cur.x0 - mb.llx,
			X1:     cur.x1 - mb.llx,
			Top:    mb.ury - (cur.baseline + cur.size),
			Bottom: mb.ury - cur.baseline,
			Page:   index,
		})
	}

	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		if isBlank(g.S) {
			flush()
			continue
		}
		w := glyphWidth(g)
		if !cur.open {
			cur.start(g, w)
			continue
		}
		sameLine := abs(g.Y-cur.baseline) <= opts.YTolerance
		gap := g.X - cur.x1
		if !sameLine || gap > opts.XTolerance || g.X < cur.x0-opts.XTolerance {
			flush()
			cur.start(g, w)
			continue
		}
		cur.add(g, w)
	}
	flush()
	return out
}
