package pdftext

import (
	"sort"
	"strings"
	"time"

	"github.com/joseph-ayodele/docextract/internal/document"
)

// TableOptions holds detector configuration. Distances are in points.
type TableOptions struct {
	// Minimum rows and columns for a valid table
	MinRows int
	MinCols int

	// Max top-edge difference for words sharing a line
	RowTolerance float64

	// Min horizontal gap separating two cells on a line
	CellGap float64

	// Max vertical gap between consecutive rows of one table
	MaxRowGap float64

	// Tolerance for column anchor alignment
	AlignmentTolerance float64
}

// DefaultTableOptions returns default configuration
func DefaultTableOptions() TableOptions {
	return TableOptions{
		MinRows:            2,
		MinCols:            2,
		RowTolerance:       3,
		CellGap:            12,
		MaxRowGap:          30,
		AlignmentTolerance: 6,
	}
}

// ExtractTables detects tables on every page of the text layer and returns them in page order.
// A PDF without a text layer yields no tables.
func (e *Extractor) ExtractTables(path string) ([]document.Table, error) {
	start := time.Now()
	doc, err := open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = doc.Close() }()

	var tables []document.Table
	n := doc.NumPages()
	for i := 0; i < n; i++ {
		words, err := e.pageWords(doc, i)
		if err != nil {
			return nil, err
		}
		tables = append(tables, DetectTables(words, e.tables)...)
	}
	e.logger.Info("pdftext.tables.ok",
		"path", path,
		"pages", n,
		"tables", len(tables),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return tables, nil
}

type segment struct {
	text   string
	x0, x1 float64
}

type line struct {
	top, bottom float64
	segments    []segment
}

// DetectTables finds tables among the word blocks of a single page.
func DetectTables(words []document.Block, opts TableOptions) []document.Table {
	if len(words) < opts.MinRows*opts.MinCols {
		return nil
	}
	lines := groupLines(words, opts)

	var tables []document.Table
	var run []line
	closeRun := func() {
		if t := buildTable(run, opts); t != nil {
			tables = append(tables, t)
		}
		run = nil
	}
	for _, ln := range lines {
		if len(ln.segments) < opts.MinCols {
			closeRun()
			continue
		}
		if len(run) > 0 && ln.top-run[len(run)-1].bottom > opts.MaxRowGap {
			closeRun()
		}
		run = append(run, ln)
	}
	closeRun()
	return tables
}

// groupLines clusters words into line bands top to bottom and splits each band into
// cells at gaps wider than CellGap.
func groupLines(words []document.Block, opts TableOptions) []line {
	sorted := make([]document.Block, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Top != sorted[j].Top {
			return sorted[i].Top < sorted[j].Top
		}
		return sorted[i].X0 < sorted[j].X0
	})

	var bands [][]document.Block
	for _, w := range sorted {
		if n := len(bands); n > 0 && abs(w.Top-bands[n-1][0].Top) <= opts.RowTolerance {
			bands[n-1] = append(bands[n-1], w)
			continue
		}
		bands = append(bands, []document.Block{w})
	}

	lines := make([]line, 0, len(bands))
	for _, band := range bands {
		sort.SliceStable(band, func(i, j int) bool { return band[i].X0 < band[j].X0 })
		ln := line{top: band[0].Top, bottom: band[0].Bottom}
		var cur *segment
		for _, w := range band {
			if w.Bottom > ln.bottom {
				ln.bottom = w.Bottom
			}
			if cur != nil && w.X0-cur.x1 <= opts.CellGap {
				cur.text += " " + w.Text
				if w.X1 > cur.x1 {
					cur.x1 = w.X1
				}
				continue
			}
			ln.segments = append(ln.segments, segment{text: w.Text, x0: w.X0, x1: w.X1})
			cur = &ln.segments[len(ln.segments)-1]
		}
		lines = append(lines, ln)
	}
	return lines
}

// buildTable projects a run of multi-cell lines onto column anchors shared by at
// least MinRows lines.
func buildTable(run []line, opts TableOptions) document.Table {
	if len(run) < opts.MinRows {
		return nil
	}
	var starts []float64
	for _, ln := range run {
		for _, s := range ln.segments {
			starts = append(starts, s.x0)
		}
	}
	anchors := columnAnchors(starts, opts.AlignmentTolerance, opts.MinRows)
	if len(anchors) < opts.MinCols {
		return nil
	}

	table := make(document.Table, 0, len(run))
	for _, ln := range run {
		texts := make([]string, len(anchors))
		for _, s := range ln.segments {
			col := columnFor(s.x0, anchors, opts.AlignmentTolerance)
			if texts[col] != "" {
				texts[col] += " "
			}
			texts[col] += s.text
		}
		row := make(document.Row, len(anchors))
		for i, t := range texts {
			row[i] = document.NewCell(strings.TrimSpace(t))
		}
		table = append(table, row)
	}
	return table
}

type anchor struct {
	x     float64
	count int
}

// columnAnchors clusters nearby values within tolerance, averaging each cluster,
// and keeps clusters with at least minSupport members.
func columnAnchors(values []float64, tolerance float64, minSupport int) []float64 {
	if len(values) == 0 {
		return nil
	}
	sort.Float64s(values)
	clusters := []anchor{{x: values[0], count: 1}}
	for _, v := range values[1:] {
		last := &clusters[len(clusters)-1]
		if v-last.x > tolerance {
			clusters = append(clusters, anchor{x: v, count: 1})
			continue
		}
		last.x = (last.x*float64(last.count) + v) / float64(last.count+1)
		last.count++
	}
	var out []float64
	for _, c := range clusters {
		if c.count >= minSupport {
			out = append(out, c.x)
		}
	}
	return out
}

// columnFor returns the right-most anchor starting at or before x.
func columnFor(x float64, anchors []float64, tolerance float64) int {
	col := 0
	for i, a := range anchors {
		if a <= x+tolerance {
			col = i
		}
	}
	return col
}
