package pdftext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/internal/document"
)

func word(text string, x0, top float64) document.Block {
	return document.Block{Text: text, X0: x0, X1: x0 + float64(len(text))*6, Top: top, Bottom: top + 12}
}

func cellTexts(row document.Row) []any {
	out := make([]any, len(row))
	for i, c := range row {
		if c.Valid {
			out[i] = c.Text
		}
	}
	return out
}

func TestDetectTablesGrid(t *testing.T) {
	words := []document.Block{
		word("Invoice", 72, 60), // prose line, single cell
		word("Item", 72, 100), word("Qty", 250, 100), word("Amount", 400, 100),
		word("Widget", 72, 116), word("2", 250, 116), word("10.00", 400, 116),
		word("Gadget", 72, 132), word("large", 72+6*7, 132), word("5.50", 400, 132),
	}

	tables := DetectTables(words, DefaultTableOptions())
	require.Len(t, tables, 1)
	tbl := tables[0]
	require.Len(t, tbl, 3)

	assert.Equal(t, []any{"Item", "Qty", "Amount"}, cellTexts(tbl[0]))
	assert.Equal(t, []any{"Widget", "2", "10.00"}, cellTexts(tbl[1]))
	assert.Equal(t, []any{"Gadget large", nil, "5.50"}, cellTexts(tbl[2]), "missing cell is null")
}

func TestDetectTablesSplitsOnVerticalGap(t *testing.T) {
	words := []document.Block{
		word("A", 72, 100), word("B", 300, 100),
		word("C", 72, 116), word("D", 300, 116),
		word("E", 72, 400), word("F", 300, 400),
		word("G", 72, 416), word("H", 300, 416),
	}
	tables := DetectTables(words, DefaultTableOptions())
	require.Len(t, tables, 2)
	assert.Equal(t, []any{"A", "B"}, cellTexts(tables[0][0]))
	assert.Equal(t, []any{"G", "H"}, cellTexts(tables[1][1]))
}

func TestDetectTablesIgnoresProse(t *testing.T) {
	words := []document.Block{
		word("Thank", 72, 100), word("you", 72+36, 100), word("for", 72+60, 100),
		word("your", 72, 116), word("business", 72+30, 116),
	}
	assert.Empty(t, DetectTables(words, DefaultTableOptions()))
}

func TestColumnAnchorsSupport(t *testing.T) {
	anchors := columnAnchors([]float64{72, 73, 250, 400, 401}, 6, 2)
	require.Len(t, anchors, 2)
	assert.InDelta(t, 72.5, anchors[0], 0.001)
	assert.InDelta(t, 400.5, anchors[1], 0.001)
}
