//go:build ocr

package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// GosseractEngine recognizes words through libtesseract. A client is created per
// image and closed before returning, so no OCR state outlives the page.
type GosseractEngine struct {
	Language    string
	TessdataDir string
}

// GosseractEnabled reports whether the binary was built with the ocr tag.
const GosseractEnabled = true

func NewGosseractEngine(lang, tessdata string) (Engine, error) {
	return GosseractEngine{Language: lang, TessdataDir: tessdata}, nil
}

func (g GosseractEngine) Recognize(ctx context.Context, imagePath string) ([]Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	if g.TessdataDir != "" {
		if err := client.SetTessdataPrefix(g.TessdataDir); err != nil {
			return nil, fmt.Errorf("gosseract tessdata: %w", err)
		}
	}
	if g.Language != "" {
		if err := client.SetLanguage(g.Language); err != nil {
			return nil, fmt.Errorf("gosseract language: %w", err)
		}
	}
	if err := client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("gosseract set image: %w", err)
	}
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("gosseract: %w", err)
	}
	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, Word{
			Text:       b.Word,
			Left:       b.Box.Min.X,
			Top:        b.Box.Min.Y,
			Width:      b.Box.Dx(),
			Height:     b.Box.Dy(),
			Confidence: b.Confidence,
		})
	}
	return words, nil
}
