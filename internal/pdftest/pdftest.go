// Package pdftest writes small PDF and page image fixtures for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// WriteTextPDF writes a PDF with one page per entry of pages, each holding
// the given text in Helvetica, and returns its path.
func WriteTextPDF(tb testing.TB, dir, name string, pages ...string) string {
	tb.Helper()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 11)
	for _, text := range pages {
		pdf.AddPage()
		if text != "" {
			pdf.MultiCell(0, 5, text, "", "L", false)
		}
	}
	return save(tb, pdf, dir, name)
}

// WriteImagePDF writes a single-page PDF whose only content is img scaled to
// the page width, i.e. a document without a text layer.
func WriteImagePDF(tb testing.TB, dir, name string, img image.Image) string {
	tb.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		tb.Fatalf("encode fixture image: %v", err)
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("scan", opts, &buf)
	pdf.ImageOptions("scan", 10, 10, 190, 0, false, opts, 0, "")
	return save(tb, pdf, dir, name)
}

// WriteGarbage writes a file with a .pdf name that is not a PDF.
func WriteGarbage(tb testing.TB, dir, name string) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("this is not a pdf"), 0o600); err != nil {
		tb.Fatalf("write garbage fixture: %v", err)
	}
	return path
}

// Sentence returns deterministic filler text of at least n characters.
func Sentence(n int) string {
	var b bytes.Buffer
	for i := 0; b.Len() < n; i++ {
		fmt.Fprintf(&b, "Line %d of the quarterly summary covers revenue and costs. ", i+1)
	}
	return b.String()
}

func save(tb testing.TB, pdf *gofpdf.Fpdf, dir, name string) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := pdf.OutputFileAndClose(path); err != nil {
		tb.Fatalf("write pdf fixture %s: %v", name, err)
	}
	return path
}

// TextImage draws lines in black on a white page with the 7x13 bitmap font
// and enlarges the result by scale, approximating a scanned page.
func TextImage(lines []string, scale int) *image.Gray {
	face := basicfont.Face7x13
	const margin, lineHeight = 20, 18
	width := 0
	for _, l := range lines {
		if w := font.MeasureString(face, l).Ceil(); w > width {
			width = w
		}
	}
	src := image.NewGray(image.Rect(0, 0, width+2*margin, len(lines)*lineHeight+2*margin))
	draw.Draw(src, src.Bounds(), image.White, image.Point{}, draw.Src)
	d := &font.Drawer{Dst: src, Src: image.NewUniform(color.Black), Face: face}
	for i, l := range lines {
		d.Dot = fixed.P(margin, margin+(i+1)*lineHeight-5)
		d.DrawString(l)
	}
	if scale <= 1 {
		return src
	}
	dst := image.NewGray(image.Rect(0, 0, src.Rect.Dx()*scale, src.Rect.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
