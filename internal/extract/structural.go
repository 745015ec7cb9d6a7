package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgallion1/docsum/internal/document"
	pdflib "github.com/ledongthuc/pdf"
)

// StructuralStrategy reads the embedded text layer page by page.
type StructuralStrategy struct{}

func (StructuralStrategy) Name() string   { return "structural" }
func (StructuralStrategy) Threshold() int { return 100 }

func (StructuralStrategy) Attempt(ctx context.Context, doc document.Document) (text string, err error) {
	f, reader, err := pdflib.Open(doc.Path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	// ledongthuc/pdf panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("read pdf text: %v", r)
		}
	}()

	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(pageText)
		if !strings.HasSuffix(pageText, "\n") {
			buf.WriteByte('\n')
		}
	}
	return buf.String(), nil
}
