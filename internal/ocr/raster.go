package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Raster is one rendered page image on disk. Release removes it.
type Raster struct {
	Path string
	Page int // 1-based

	release func() error
}

// Release frees the raster. It is safe to call more than once.
func (r *Raster) Release() error {
	if r == nil || r.release == nil {
		return nil
	}
	fn := r.release
	r.release = nil
	return fn()
}

// Rasterizer renders exactly one page of a PDF to an image.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath string, page, dpi int) (*Raster, error)
}

// PdftoppmRasterizer renders pages with poppler's pdftoppm into a per-page temp dir.
type PdftoppmRasterizer struct {
	Binary  string
	TempDir string // parent for per-page dirs; "" uses os.TempDir
	Runner  Runner
}

func (p PdftoppmRasterizer) Rasterize(ctx context.Context, pdfPath string, page, dpi int) (*Raster, error) {
	bin := p.Binary
	if bin == "" {
		bin = "pdftoppm"
	}
	dir, err := os.MkdirTemp(p.TempDir, "docextract-page-*")
	if err != nil {
		return nil, err
	}
	cleanup := func() error { return os.RemoveAll(dir) }

	prefix := filepath.Join(dir, "page")
	n := strconv.Itoa(page)
	// pdftoppm -png -r 150 -f k -l k -singlefile <in.pdf> <dir/page>
	_, errb, err := p.Runner.Run(ctx, bin, "-png", "-r", strconv.Itoa(dpi), "-f", n, "-l", n, "-singlefile", pdfPath, prefix)
	if err != nil {
		_ = cleanup()
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(truncate(string(errb), 512)))
	}
	img, err := findRenderedImage(prefix, page)
	if err != nil {
		_ = cleanup()
		return nil, err
	}
	return &Raster{Path: img, Page: page, release: cleanup}, nil
}

// findRenderedImage locates the file pdftoppm wrote; older builds ignore -singlefile
// and append a zero-padded page number.
func findRenderedImage(prefix string, page int) (string, error) {
	candidates := []string{
		prefix + ".png",
		fmt.Sprintf("%s-%d.png", prefix, page),
		fmt.Sprintf("%s-%02d.png", prefix, page),
		fmt.Sprintf("%s-%03d.png", prefix, page),
		fmt.Sprintf("%s-%04d.png", prefix, page),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	matches, err := filepath.Glob(prefix + "*.png")
	if err != nil {
		return "", err
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	return "", fmt.Errorf("rendered image not found for page %d", page)
}
