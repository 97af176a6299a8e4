package pipeline

import (
	"strings"

	"github.com/joseph-ayodele/docextract/constants"
)

// Request names what to extract from one document.
type Request struct {
	DocumentType string
	Fields       []string
}

// NormalizeRequest trims values, drops empty fields and applies defaults.
func NormalizeRequest(req Request) Request {
	out := Request{DocumentType: strings.TrimSpace(req.DocumentType)}
	if out.DocumentType == "" {
		out.DocumentType = constants.DefaultDocumentType
	}
	for _, f := range req.Fields {
		if f = strings.TrimSpace(f); f != "" {
			out.Fields = append(out.Fields, f)
		}
	}
	if len(out.Fields) == 0 {
		out.Fields = append([]string(nil), constants.DefaultFields...)
	}
	return out
}

// ParseFields splits a comma separated field list, dropping blanks.
func ParseFields(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
