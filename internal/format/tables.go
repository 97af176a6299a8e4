package format

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/docextract/internal/document"
)

// TablesToText flattens tables to "[Table N]" sections with " | " separated cells.
// Empty tables and rows are skipped; N counts every table, rendered or not.
func TablesToText(tables []document.Table) string {
	var parts []string
	for i, t := range tables {
		if len(t) == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("\n[Table %d]", i+1))
		for _, row := range t {
			if len(row) == 0 {
				continue
			}
			cells := make([]string, len(row))
			for j, c := range row {
				if c.Valid {
					cells[j] = c.Text
				}
			}
			parts = append(parts, strings.Join(cells, " | "))
		}
	}
	return strings.Join(parts, "\n")
}

// AppendTables adds the flattened tables after text, separated by a blank line.
func AppendTables(text string, tables []document.Table) string {
	tt := TablesToText(tables)
	if tt == "" {
		return text
	}
	return text + "\n\n" + tt
}
