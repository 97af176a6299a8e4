package format

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/internal/document"
)

type fakeRecognizer struct {
	ents []Entity
	err  error
}

func (f fakeRecognizer) Recognize(string) ([]Entity, error) { return f.ents, f.err }

func TestBlocksToText_OrdersByPageTopX(t *testing.T) {
	blocks := []document.Block{
		{Text: "second-page", Page: 1, Top: 0, X0: 0},
		{Text: "world", Page: 0, Top: 10, X0: 50},
		{Text: "  ", Page: 0, Top: 10, X0: 60},
		{Text: "hello", Page: 0, Top: 10, X0: 5},
		{Text: "title", Page: 0, Top: 2, X0: 100},
	}
	assert.Equal(t, "title hello world second-page", BlocksToText(blocks))
	assert.Equal(t, "second-page", blocks[0].Text, "input must not be reordered")
}

func TestBlocksToText_TiesKeepInputOrder(t *testing.T) {
	blocks := []document.Block{
		{Text: "b", Top: 1, X0: 1},
		{Text: "a", Top: 1, X0: 1},
	}
	assert.Equal(t, "b a", BlocksToText(blocks))
}

func TestRegexExtract(t *testing.T) {
	text := "Invoice #123 Total: $45.00 due 12/05/2024. Mail billing@acme.io or ops@acme.io, call +1 5551234567."
	rx := RegexExtract(text)

	assert.Equal(t, []string{"billing@acme.io", "ops@acme.io"}, rx.Emails)
	assert.Equal(t, []string{"+1 5551234567"}, rx.Phones)
	assert.Equal(t, []string{"12/05/2024"}, rx.NumericDates)
	assert.Contains(t, rx.AmountCandidates, "$45.00")
	assert.Equal(t, "123", rx.AmountCandidates[0])
}

func TestRegexExtract_NoMatchesAreEmptyNotNil(t *testing.T) {
	rx := RegexExtract("nothing here")
	assert.NotNil(t, rx.Emails)
	assert.Empty(t, rx.Emails)
	assert.NotNil(t, rx.NumericDates)
}

func TestExtractEntities_Buckets(t *testing.T) {
	rec := fakeRecognizer{ents: []Entity{
		{Text: "Acme Corp", Label: "ORG"},
		{Text: "Paris", Label: "GPE"},
		{Text: "Jane Doe", Label: "PERSON"},
		{Text: "the Alps", Label: "LOC"},
		{Text: "March 3", Label: "DATE"},
		{Text: "$10", Label: "MONEY"},
		{Text: "ignored", Label: "NORP"},
	}}
	ents, err := ExtractEntities(rec, "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme Corp"}, ents.Organizations)
	assert.Equal(t, []string{"Paris", "the Alps"}, ents.Locations)
	assert.Equal(t, []string{"Jane Doe"}, ents.Persons)
	assert.Equal(t, []string{"March 3"}, ents.Dates)
	assert.Equal(t, []string{"$10"}, ents.Money)
}

func TestBuildHints_Caps(t *testing.T) {
	many := func(prefix string, n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = fmt.Sprintf("%s%d", prefix, i)
		}
		return out
	}
	rx := RegexMatches{
		Emails:           many("e", 8),
		Phones:           many("p", 6),
		AmountCandidates: many("a", 12),
		NumericDates:     many("d", 3),
	}
	ents := Entities{Organizations: many("o", 20), Persons: many("n", 10)}

	h := BuildHints(rx, ents)
	assert.Len(t, h.Emails, 5)
	assert.Len(t, h.Phones, 5)
	assert.Len(t, h.AmountCandidates, 10)
	assert.Len(t, h.NumericDates, 3)
	assert.Len(t, h.Organizations, 10)
	assert.Len(t, h.Persons, 10)
	assert.Equal(t, "e0", h.Emails[0])
	assert.Equal(t, "e4", h.Emails[4])
}

func TestHints_JSONOrderAndArrays(t *testing.T) {
	b, err := json.Marshal(BuildHints(RegexMatches{}, Entities{}))
	require.NoError(t, err)
	assert.Equal(t,
		`{"emails":[],"phones":[],"amount_candidates":[],"numeric_dates":[],"organizations":[],"dates":[],"money_entities":[],"persons":[],"locations":[]}`,
		string(b))
}

func TestFormatDocument(t *testing.T) {
	f := NewFormatter(fakeRecognizer{ents: []Entity{{Text: "Acme", Label: "ORG"}}}, nil)
	blocks := []document.Block{
		{Text: "Total:", Top: 20, X0: 10},
		{Text: "$45.00", Top: 20, X0: 60},
		{Text: "Invoice", Top: 5, X0: 10},
		{Text: "#123", Top: 5, X0: 80},
	}
	text, hints, err := f.FormatDocument(blocks)
	require.NoError(t, err)
	assert.Equal(t, "Invoice #123 Total: $45.00", text)
	assert.Contains(t, hints.AmountCandidates, "$45.00")
	assert.Equal(t, []string{"Acme"}, hints.Organizations)
}

func TestFormatDocument_RecognizerError(t *testing.T) {
	f := NewFormatter(fakeRecognizer{err: errors.New("model missing")}, nil)
	_, _, err := f.FormatDocument([]document.Block{{Text: "x"}})
	assert.Error(t, err)
}

func TestTablesToText(t *testing.T) {
	tables := []document.Table{
		{},
		{
			{document.NewCell("Item"), document.NewCell("Qty")},
			{},
			{document.NewCell("Widget"), document.NewCell("")},
		},
	}
	got := TablesToText(tables)
	assert.Equal(t, "\n[Table 2]\nItem | Qty\nWidget | ", got)
	assert.Equal(t, "", TablesToText(nil))
}

func TestAppendTables(t *testing.T) {
	assert.Equal(t, "prose", AppendTables("prose", nil))
	tables := []document.Table{{{document.NewCell("a"), document.NewCell("b")}}}
	got := AppendTables("prose", tables)
	assert.True(t, strings.HasPrefix(got, "prose\n\n\n[Table 1]\n"))
	assert.True(t, strings.HasSuffix(got, "a | b"))
}

func TestProseRecognizer_FillsEveryBucket(t *testing.T) {
	text := "Invoice from Acme Corporation to John Smith of Microsoft Inc. in Paris, France on March 3, 2024 for $500.00."
	ents, err := ExtractEntities(ProseRecognizer{}, text)
	require.NoError(t, err)

	assert.NotEmpty(t, ents.Organizations)
	assert.NotEmpty(t, ents.Persons)
	assert.NotEmpty(t, ents.Locations)
	assert.Equal(t, []string{"March 3, 2024"}, ents.Dates)
	assert.Equal(t, []string{"$500.00"}, ents.Money)
}

func TestProseRecognizer_TextOrder(t *testing.T) {
	ents, err := ProseRecognizer{}.Recognize("Paid $12.50 on 01/02/2024, then $3.00 on Jan 5 2024.")
	require.NoError(t, err)

	var got []Entity
	for _, e := range ents {
		if e.Label == "DATE" || e.Label == "MONEY" {
			got = append(got, e)
		}
	}
	assert.Equal(t, []Entity{
		{Text: "$12.50", Label: "MONEY"},
		{Text: "01/02/2024", Label: "DATE"},
		{Text: "$3.00", Label: "MONEY"},
		{Text: "Jan 5 2024", Label: "DATE"},
	}, got)
	for _, e := range ents {
		assert.NotEqual(t, "ORGANIZATION", e.Label)
	}
}
