// Package testutil builds small fixture files for package tests.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Text is one text run drawn at (X, Y) in PDF user space (bottom-up) with Helvetica at Size.
type Text struct {
	X, Y float64
	Size float64
	S    string
}

// Page is one page of a fixture PDF. A page with no Text but Shapes set draws filled
// rectangles only, which is how an image-only scan looks to a text extractor.
type Page struct {
	Texts  []Text
	Shapes bool
}

// helvetica widths in 1/1000 em for FirstChar 32..126
var helveticaWidths = func() []int {
	w := make([]int, 0, 95)
	for c := 32; c <= 126; c++ {
		switch {
		case c == ' ':
			w = append(w, 278)
		case c == 'i' || c == 'l' || c == 'j' || c == '.' || c == ',' || c == ':' || c == '|':
			w = append(w, 278)
		case c >= 'A' && c <= 'Z':
			w = append(w, 667)
		default:
			w = append(w, 556)
		}
	}
	return w
}()

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

// BuildPDF renders pages into an uncompressed PDF 1.4 byte stream with a valid xref table.
func BuildPDF(pages []Page) []byte {
	var buf bytes.Buffer
	var offsets []int

	obj := func(body string) int {
		offsets = append(offsets, buf.Len())
		id := len(offsets)
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", id, body)
		return id
	}

	buf.WriteString("%PDF-1.4\n")

	nPages := len(pages)
	// object ids: 1 catalog, 2 pages, 3 font, then (page, content) pairs
	kids := make([]string, nPages)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), nPages))

	widths := make([]string, len(helveticaWidths))
	for i, w := range helveticaWidths {
		widths[i] = fmt.Sprint(w)
	}
	obj(fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [%s] >>",
		strings.Join(widths, " ")))

	for i, p := range pages {
		var cs strings.Builder
		if p.Shapes {
			cs.WriteString("0.5 g\n72 500 468 200 re f\n")
		}
		for _, t := range p.Texts {
			size := t.Size
			if size == 0 {
				size = 12
			}
			fmt.Fprintf(&cs, "BT\n/F1 %g Tf\n%g %g Td\n(%s) Tj\nET\n", size, t.X, t.Y, escape(t.S))
		}
		stream := cs.String()
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

// WritePDF writes a fixture PDF into t's temp dir and returns its path.
func WritePDF(t testing.TB, name string, pages []Page) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, BuildPDF(pages), 0o600); err != nil {
		t.Fatalf("write fixture pdf: %v", err)
	}
	return path
}

// InvoicePage is a one-line text page.
func InvoicePage(line string) Page {
	return Page{Texts: []Text{{X: 72, Y: 720, Size: 12, S: line}}}
}
