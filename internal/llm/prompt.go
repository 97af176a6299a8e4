package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/docextract/internal/format"
)

// BuildPrompt renders the extraction prompt. The output depends only on its inputs.
func BuildPrompt(documentType string, fields []string, hints format.Hints, text string) (string, error) {
	hintJSON, err := marshalHints(hints)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are extracting structured data from a %s.\n", documentType)
	b.WriteString("Extract ONLY the requested fields.\n")
	b.WriteString("Return ONLY valid JSON.\n")
	b.WriteString("If a field is missing, return null.\n")
	b.WriteString("FIELDS TO EXTRACT:\n")
	for _, f := range fields {
		b.WriteString("- ")
		b.WriteString(f)
		b.WriteString("\n")
	}
	b.WriteString("CANDIDATE ENTITIES:\n")
	b.WriteString(hintJSON)
	b.WriteString("\n")
	b.WriteString("DOCUMENT TEXT:\n")
	b.WriteString(text)
	b.WriteString("\n")
	return b.String(), nil
}

func marshalHints(h format.Hints) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(h); err != nil {
		return "", fmt.Errorf("marshal hints: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
