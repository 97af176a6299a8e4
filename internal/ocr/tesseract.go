package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Word is one recognized token with its pixel box.
type Word struct {
	Text                     string
	Left, Top, Width, Height int
	Confidence               float64 // 0..100, -1 when the engine reports none
}

// Engine recognizes word boxes in one image.
type Engine interface {
	Recognize(ctx context.Context, imagePath string) ([]Word, error)
}

// TesseractCLI runs the tesseract binary in TSV mode.
type TesseractCLI struct {
	Binary      string
	Language    string
	TessdataDir string
	PSM         int
	OEM         int
	Runner      Runner
}

func (t TesseractCLI) Recognize(ctx context.Context, imagePath string) ([]Word, error) {
	bin := t.Binary
	if bin == "" {
		bin = "tesseract"
	}
	lang := t.Language
	if lang == "" {
		lang = "eng"
	}
	args := []string{imagePath, "stdout", "-l", lang}
	if t.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.PSM))
	}
	if t.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(t.OEM))
	}
	if t.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.TessdataDir)
	}
	// TSV output
	args = append(args, "tsv")

	out, errb, err := t.Runner.Run(ctx, bin, args...)
	if err != nil {
		return nil, fmt.Errorf("tesseract TSV: %w: %s", err, strings.TrimSpace(truncate(string(errb), 512)))
	}
	return ParseTSV(string(out))
}

// ParseTSV reads tesseract's TSV: level page_num block_num par_num line_num word_num
// left top width height conf text. Rows without text are skipped.
func ParseTSV(tsv string) ([]Word, error) {
	var words []Word
	for i, ln := range strings.Split(tsv, "\n") {
		ln = strings.TrimRight(ln, "\r")
		if i == 0 || ln == "" {
			continue // header
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		text := strings.Join(cols[11:], "\t")
		if strings.TrimSpace(text) == "" {
			continue
		}
		var nums [4]int
		for j := 0; j < 4; j++ {
			v, err := strconv.Atoi(strings.TrimSpace(cols[6+j]))
			if err != nil {
				return nil, fmt.Errorf("tsv line %d: column %d: %w", i+1, 7+j, err)
			}
			nums[j] = v
		}
		conf, err := strconv.ParseFloat(strings.TrimSpace(cols[10]), 64)
		if err != nil {
			conf = -1
		}
		words = append(words, Word{
			Text:       text,
			Left:       nums[0],
			Top:        nums[1],
			Width:      nums[2],
			Height:     nums[3],
			Confidence: conf,
		})
	}
	return words, nil
}
