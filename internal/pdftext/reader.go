// Package pdftext reads the text layer of PDFs: scanned/text classification,
// word-level layout blocks and geometric table detection.
package pdftext

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/docextract/internal/common"
)

// default US Letter, used when a page carries no MediaBox
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

type pdfFile struct {
	f *os.File
	r *pdf.Reader
}

// open parses path. The PDF library panics on some malformed inputs, so those are
// converted to ErrInvalidPDF as well.
func open(path string) (doc *pdfFile, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("%w: %s: %v", common.ErrInvalidPDF, path, r)
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %v", common.ErrInvalidInput, path, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", common.ErrInvalidPDF, path, err)
	}
	return &pdfFile{f: f, r: r}, nil
}

func (d *pdfFile) Close() error {
	if d == nil || d.f == nil {
		return nil
	}
	return d.f.Close()
}

func (d *pdfFile) NumPages() int { return d.r.NumPage() }

// page returns the zero-based page i.
func (d *pdfFile) page(i int) pdf.Page { return d.r.Page(i + 1) }

// PageCount opens path and returns its number of pages.
func PageCount(path string) (int, error) {
	doc, err := open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = doc.Close() }()
	return doc.NumPages(), nil
}

// box is a page's MediaBox in PDF user space.
type box struct {
	llx, lly, urx, ury float64
}

func (b box) Height() float64 { return b.ury - b.lly }

// mediaBox walks up the page tree until a MediaBox is found.
func mediaBox(p pdf.Page) box {
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		mb := v.Key("MediaBox")
		if mb.Len() == 4 {
			b := box{
				llx: mb.Index(0).Float64(),
				lly: mb.Index(1).Float64(),
				urx: mb.Index(2).Float64(),
				ury: mb.Index(3).Float64(),
			}
			if b.urx < b.llx {
				b.llx, b.urx = b.urx, b.llx
			}
			if b.ury < b.lly {
				b.lly, b.ury = b.ury, b.lly
			}
			if b.Height() > 0 {
				return b
			}
		}
	}
	return box{urx: defaultPageWidth, ury: defaultPageHeight}
}

// content returns the positioned glyphs of a page, recovering from parser panics.
func content(p pdf.Page, index int) (texts []pdf.Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			texts = nil
			err = fmt.Errorf("%w: page %d: %v", common.ErrInvalidPDF, index+1, r)
		}
	}()
	return p.Content().Text, nil
}

// plainText returns the page text layer.
func plainText(p pdf.Page, index int) (txt string, err error) {
	defer func() {
		if r := recover(); r != nil {
			txt = ""
			err = fmt.Errorf("%w: page %d: %v", common.ErrInvalidPDF, index+1, r)
		}
	}()
	txt, err = p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("%w: page %d: %v", common.ErrInvalidPDF, index+1, err)
	}
	return txt, nil
}

func abs(v float64) float64 { return math.Abs(v) }
