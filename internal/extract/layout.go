package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/dgallion1/docsum/internal/document"
	"github.com/tsawler/tabula"
)

// LayoutStrategy extracts text in reading order, which copes with
// multi-column pages and tables the plain text layer scrambles. When tabula
// fails and FallbackPdftotext is set, poppler's pdftotext -layout is tried.
type LayoutStrategy struct {
	FallbackPdftotext bool
	Log               *slog.Logger
}

func (*LayoutStrategy) Name() string   { return "layout" }
func (*LayoutStrategy) Threshold() int { return 100 }

func (s *LayoutStrategy) Attempt(ctx context.Context, doc document.Document) (string, error) {
	text, warnings, err := tabula.Open(doc.Path).Text()
	if err == nil {
		if len(warnings) > 0 && s.Log != nil {
			s.Log.Debug("layout extraction warnings", "document", doc.Name, "count", len(warnings))
		}
		return text, nil
	}
	if !s.FallbackPdftotext {
		return "", fmt.Errorf("layout extraction: %w", err)
	}
	if s.Log != nil {
		s.Log.Info("layout extraction failed, trying pdftotext", "document", doc.Name, "error", err)
	}
	return extractPdftotext(ctx, doc.Path)
}

func extractPdftotext(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, "pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
