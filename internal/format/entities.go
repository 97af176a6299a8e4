package format

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jdkato/prose/v2"
	"github.com/mingrammer/commonregex"
)

// Entity is one recognized span and its label (ORG, PERSON, GPE, ...).
type Entity struct {
	Text  string
	Label string
}

// EntityRecognizer finds named entities in text, in detection order.
type EntityRecognizer interface {
	Recognize(text string) ([]Entity, error)
}

// ProseRecognizer is the default recognizer. People, places and organizations come
// from prose's bundled NER model, which has no DATE or MONEY labels; those spans are
// found with commonregex's date and price patterns. Results are in text order.
type ProseRecognizer struct{}

// proseLabels maps prose tags onto the label set ExtractEntities buckets.
var proseLabels = map[string]string{
	"ORGANIZATION": "ORG",
	"PERSON":       "PERSON",
	"GPE":          "GPE",
	"LOCATION":     "LOC",
}

type span struct {
	start int
	Entity
}

func (ProseRecognizer) Recognize(text string) ([]Entity, error) {
	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("prose: %w", err)
	}

	var spans []span
	cursor := 0
	for _, e := range doc.Entities() {
		label, ok := proseLabels[e.Label]
		if !ok {
			label = e.Label
		}
		start := -1
		if i := strings.Index(text[cursor:], e.Text); i >= 0 {
			start = cursor + i
			cursor = start + len(e.Text)
		}
		spans = append(spans, span{start: start, Entity: Entity{Text: e.Text, Label: label}})
	}
	spans = append(spans, patternSpans(text, commonregex.DateRegex, "DATE")...)
	spans = append(spans, patternSpans(text, commonregex.PriceRegex, "MONEY")...)

	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	out := make([]Entity, 0, len(spans))
	for _, sp := range spans {
		out = append(out, sp.Entity)
	}
	return out, nil
}

func patternSpans(text string, re *regexp.Regexp, label string) []span {
	var out []span
	for _, loc := range re.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		m := strings.TrimSpace(raw)
		if m == "" {
			continue
		}
		start := loc[0] + strings.Index(raw, m)
		out = append(out, span{start: start, Entity: Entity{Text: m, Label: label}})
	}
	return out
}

// Entities groups recognized spans by category. Other labels are ignored.
type Entities struct {
	Organizations []string
	Dates         []string
	Money         []string
	Persons       []string
	Locations     []string
}

// ExtractEntities runs rec over text and buckets the results. GPE and LOC both land in Locations.
func ExtractEntities(rec EntityRecognizer, text string) (Entities, error) {
	out := Entities{
		Organizations: []string{},
		Dates:         []string{},
		Money:         []string{},
		Persons:       []string{},
		Locations:     []string{},
	}
	if rec == nil {
		return out, nil
	}
	ents, err := rec.Recognize(text)
	if err != nil {
		return out, err
	}
	for _, e := range ents {
		switch e.Label {
		case "ORG":
			out.Organizations = append(out.Organizations, e.Text)
		case "DATE":
			out.Dates = append(out.Dates, e.Text)
		case "MONEY":
			out.Money = append(out.Money, e.Text)
		case "PERSON":
			out.Persons = append(out.Persons, e.Text)
		case "GPE", "LOC":
			out.Locations = append(out.Locations, e.Text)
		}
	}
	return out, nil
}
