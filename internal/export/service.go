// Package export writes extraction results to spreadsheet artifacts.
package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/document"
)

// DefaultDir is where artifacts land when no directory is configured.
const DefaultDir = "generated_excel"

const sheet = "Extraction"

// Writer turns a result into one xlsx file under dir.
type Writer struct {
	dir    string
	logger *slog.Logger
}

func NewWriter(dir string, logger *slog.Logger) *Writer {
	if strings.TrimSpace(dir) == "" {
		dir = DefaultDir
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{dir: dir, logger: logger}
}

// Dir is the artifact root.
func (w *Writer) Dir() string { return w.dir }

// Write saves res as extraction_<8 hex>.xlsx and returns its path joined onto Dir.
func (w *Writer) Write(res document.Result) (string, error) {
	start := time.Now()
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	f, headers, rows, err := Workbook(res)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	name := fmt.Sprintf("extraction_%s.%s", strings.ReplaceAll(uuid.NewString(), "-", "")[:8], constants.XLSXExt)
	path := filepath.Join(w.dir, name)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("xlsx write: %w", err)
	}

	w.logger.Info("export.xlsx.ok",
		"path", path,
		"columns", headers,
		"rows", rows,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return path, nil
}

// Workbook lays res out on one sheet: a header row, then one row per record.
func Workbook(res document.Result) (*excelize.File, int, int, error) {
	records := res.Records()
	keys := res.Keys
	if res.IsList() {
		keys = presentKeys(keys, records)
	}
	headers := Headers(keys, records)

	f := excelize.NewFile()
	if _, err := f.NewSheet(sheet); err != nil {
		_ = f.Close()
		return nil, 0, 0, err
	}
	idx, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			_ = f.Close()
			return nil, 0, 0, err
		}
	}
	for r, rec := range records {
		for c, h := range headers {
			v, ok := rec[h]
			if !ok || v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, cellValue(v)); err != nil {
				_ = f.Close()
				return nil, 0, 0, err
			}
		}
	}
	if len(headers) > 0 {
		last, _ := excelize.ColumnNumberToName(len(headers))
		_ = f.SetColWidth(sheet, "A", last, 22)
	}
	return f, len(headers), len(records), nil
}

// Headers is keys in order, then every other record key in first-seen order.
// Keys new to a record are taken alphabetically, since map order is not stable.
func Headers(keys []string, records []map[string]any) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for _, rec := range records {
		var extra []string
		for k := range rec {
			if !seen[k] {
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		for _, k := range extra {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// presentKeys keeps the keys that at least one record carries.
func presentKeys(keys []string, records []map[string]any) []string {
	var out []string
	for _, k := range keys {
		for _, rec := range records {
			if _, ok := rec[k]; ok {
				out = append(out, k)
				break
			}
		}
	}
	return out
}

func cellValue(v any) any {
	switch t := v.(type) {
	case string, bool, float64, float32, int, int64, int32:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}
