package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"
)

// ErrRendererUnavailable is returned when the rendering binary is not installed.
var ErrRendererUnavailable = errors.New("pdftoppm not found in PATH")

// Renderer rasterizes a single page (1-based) at the given resolution.
type Renderer interface {
	RenderPage(ctx context.Context, path string, page, dpi int) (image.Image, error)
}

// PdftoppmRenderer renders pages with poppler's pdftoppm.
type PdftoppmRenderer struct {
	Binary string
}

func NewPdftoppmRenderer() *PdftoppmRenderer {
	return &PdftoppmRenderer{Binary: "pdftoppm"}
}

func (r *PdftoppmRenderer) RenderPage(ctx context.Context, path string, page, dpi int) (image.Image, error) {
	bin, err := exec.LookPath(r.Binary)
	if err != nil {
		return nil, ErrRendererUnavailable
	}
	n := strconv.Itoa(page)
	cmd := exec.CommandContext(ctx, bin,
		"-r", strconv.Itoa(dpi),
		"-f", n, "-l", n,
		"-gray", "-png", "-singlefile",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftoppm page %d: %w: %s", page, err, bytes.TrimSpace(stderr.Bytes()))
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("decode page %d: %w", page, err)
	}
	return img, nil
}
