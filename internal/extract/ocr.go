package extract

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/dgallion1/docsum/internal/deskew"
	"github.com/dgallion1/docsum/internal/document"
)

// PageRecognizer turns a page image into text.
type PageRecognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// OCRStrategy renders each page, straightens it and runs OCR on it. Pages
// are processed one at a time and a failing page contributes no text.
type OCRStrategy struct {
	Renderer     document.Renderer
	Recognizer   PageRecognizer
	DPI          int
	MaxDimension int
	Log          *slog.Logger

	// PageCount defaults to document.PageCount.
	PageCount func(path string) (int, error)
}

func (*OCRStrategy) Name() string   { return "ocr" }
func (*OCRStrategy) Threshold() int { return 50 }

func (s *OCRStrategy) Attempt(ctx context.Context, doc document.Document) (string, error) {
	count := s.PageCount
	if count == nil {
		count = document.PageCount
	}
	n, err := count(doc.Path)
	if err != nil {
		return "", fmt.Errorf("count pages: %w", err)
	}

	log := s.Log.With("document", doc.Name)
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		pages = append(pages, s.page(ctx, log, doc, i))
	}
	return strings.Join(pages, "\n"), nil
}

// page returns the recognized text of one page, or "" on failure.
func (s *OCRStrategy) page(ctx context.Context, log *slog.Logger, doc document.Document, num int) string {
	rendered, err := s.Renderer.RenderPage(ctx, doc.Path, num, s.DPI)
	if err != nil {
		log.Warn("page render failed", "page", num, "error", err)
		return ""
	}

	limit := s.MaxDimension
	if limit <= 0 {
		limit = deskew.DefaultMaxDimension
	}
	gray := deskew.LimitSize(deskew.ToGray(rendered), limit)

	angle := deskew.EstimateSkew(gray)
	straight := deskew.Rectify(gray, -angle)
	log.Info("page skew corrected", "page", num, "angle", fmt.Sprintf("%.2f", angle))

	text, err := s.Recognizer.Recognize(ctx, straight)
	if err != nil {
		log.Warn("page ocr failed", "page", num, "error", err)
		return ""
	}
	return text
}
