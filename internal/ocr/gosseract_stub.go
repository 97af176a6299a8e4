//go:build !ocr

package ocr

// GosseractEnabled reports whether the binary was built with the ocr tag.
const GosseractEnabled = false

func NewGosseractEngine(lang, tessdata string) (Engine, error) {
	return nil, ErrEngineNotEnabled
}
