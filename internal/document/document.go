// Package document holds the value types passed between extraction stages.
package document

import (
	"encoding/json"
	"strings"

	"github.com/joseph-ayodele/docextract/constants"
)

// Block is a positioned text fragment. Geometry is page-local with a top-left origin:
// PDF points on the layout path, raster pixels on the OCR path.
type Block struct {
	Text   string  `json:"text"`
	X0     float64 `json:"x0"`
	Top    float64 `json:"top"`
	X1     float64 `json:"x1"`
	Bottom float64 `json:"bottom"`
	Page   int     `json:"page"`
}

// Cell is a table cell; Valid is false for an empty (null) cell.
type Cell struct {
	Text  string
	Valid bool
}

// NewCell returns a valid cell for s, or a null cell when s is blank.
func NewCell(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{Text: s, Valid: true}
}

func (c Cell) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Text)
}

// Row is an ordered list of cells.
type Row []Cell

// Table is an ordered list of rows.
type Table []Row

// Kind is the classifier's decision for a document.
type Kind int

const (
	KindText Kind = iota
	KindScanned
)

func (k Kind) String() string {
	if k == KindScanned {
		return string(constants.PathOCR)
	}
	return string(constants.PathLayout)
}

// Extraction is one document's blocks and tables plus the path that produced the blocks.
type Extraction struct {
	Kind   Kind
	Blocks []Block
	Tables []Table
}

// Result is the extracted data: a single field map, or the list of rows a model
// returned verbatim. Rows is non-nil exactly when the answer was a list. Keys is the
// requested field order, used for column layout.
type Result struct {
	Fields map[string]any
	Rows   []any
	Keys   []string
}

// IsList reports whether the result carries rows rather than a field map.
func (r Result) IsList() bool { return r.Rows != nil }

// NullFields returns a single result with every field present and null.
func NullFields(fields []string) Result {
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		m[f] = nil
	}
	return Result{Fields: m, Keys: append([]string(nil), fields...)}
}

// Records returns the result as spreadsheet rows. Non-object list items become {"value": item}.
func (r Result) Records() []map[string]any {
	if !r.IsList() {
		return []map[string]any{r.Fields}
	}
	out := make([]map[string]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		if m, ok := row.(map[string]any); ok {
			out = append(out, m)
			continue
		}
		out = append(out, map[string]any{"value": row})
	}
	return out
}
