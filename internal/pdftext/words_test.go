package pdftext

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// glyphs lays s out left to right from x at baseline y, one glyph per rune, 6pt wide.
func glyphs(s string, x, y float64) []pdf.Text {
	out := make([]pdf.Text, 0, len(s))
	for _, r := range s {
		out = append(out, pdf.Text{Font: "F1", FontSize: 12, X: x, Y: y, W: 6, S: string(r)})
		x += 6
	}
	return out
}

func TestGroupWordsSplitsOnSpaces(t *testing.T) {
	mb := box{urx: 612, ury: 792}
	words := groupWords(glyphs("Total: $45.00", 72, 720), mb, 0, DefaultWordOptions())

	require.Len(t, words, 2)
	assert.Equal(t, "Total:", words[0].Text)
	assert.Equal(t, "$45.00", words[1].Text)

	assert.InDelta(t, 72, words[0].X0, 0.001)
	assert.InDelta(t, 72+6*6, words[0].X1, 0.001)
	assert.InDelta(t, 792-720-12, words[0].Top, 0.001)
	assert.InDelta(t, 792-720, words[0].Bottom, 0.001)
	assert.Equal(t, 0, words[1].Page)
}

func TestGroupWordsSplitsOnGapAndLineChange(t *testing.T) {
	mb := box{urx: 612, ury: 792}
	var in []pdf.Text
	in = append(in, glyphs("Qty", 72, 700)...)
	in = append(in, glyphs("Price", 200, 700)...) // wide gap, same line
	in = append(in, glyphs("2", 72, 680)...)      // next line
	words := groupWords(in, mb, 3, DefaultWordOptions())

	require.Len(t, words, 3)
	assert.Equal(t, []string{"Qty", "Price", "2"}, []string{words[0].Text, words[1].Text, words[2].Text})
	for _, w := range words {
		assert.Equal(t, 3, w.Page)
	}
	assert.Less(t, words[0].Top, words[2].Top, "lower baseline means larger top")
}

func TestGroupWordsDropsWhitespaceOnly(t *testing.T) {
	mb := box{urx: 612, ury: 792}
	in := []pdf.Text{
		{FontSize: 12, X: 10, Y: 10, W: 3, S: " "},
		{FontSize: 12, X: 13, Y: 10, W: 3, S: "\t"},
	}
	assert.Empty(t, groupWords(in, mb, 0, DefaultWordOptions()))
}

func TestGroupWordsWithoutWidths(t *testing.T) {
	mb := box{urx: 612, ury: 792}
	in := []pdf.Text{
		{FontSize: 10, X: 0, Y: 100, S: "a"},
		{FontSize: 10, X: 5, Y: 100, S: "b"},
	}
	words := groupWords(in, mb, 0, DefaultWordOptions())
	require.Len(t, words, 1)
	assert.Equal(t, "ab", words[0].Text)
}

func TestGroupWordsOffsetMediaBox(t *testing.T) {
	mb := box{llx: 10, lly: 20, urx: 622, ury: 812}
	words := groupWords(glyphs("x", 110, 800), mb, 0, DefaultWordOptions())
	require.Len(t, words, 1)
	assert.InDelta(t, 100, words[0].X0, 0.001)
	assert.InDelta(t, 0, words[0].Top, 0.001)
}
