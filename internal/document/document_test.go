package document

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/dgallion1/docsum/internal/pdftest"
)

func TestFromPaths_IndexesAndNames(t *testing.T) {
	docs := FromPaths([]string{"/tmp/a/first.pdf", "/tmp/b/second.pdf"})
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Index != 1 || docs[1].Index != 2 {
		t.Errorf("expected 1-based indexes, got %d and %d", docs[0].Index, docs[1].Index)
	}
	if docs[1].Name != "second.pdf" {
		t.Errorf("expected base name, got %q", docs[1].Name)
	}
}

func TestPageCount(t *testing.T) {
	dir := t.TempDir()
	path := pdftest.WriteTextPDF(t, dir, "three.pdf", "one", "two", "three")

	n, err := PageCount(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 pages, got %d", n)
	}
}

func TestPageCount_NotAPDF(t *testing.T) {
	path := pdftest.WriteGarbage(t, t.TempDir(), "bad.pdf")
	if _, err := PageCount(path); err == nil {
		t.Error("expected error for non-pdf input")
	}
}

func TestPdftoppmRenderer_MissingBinary(t *testing.T) {
	r := &PdftoppmRenderer{Binary: "definitely-not-a-real-renderer"}
	_, err := r.RenderPage(context.Background(), "x.pdf", 1, 72)
	if !errors.Is(err, ErrRendererUnavailable) {
		t.Errorf("expected ErrRendererUnavailable, got %v", err)
	}
}

func TestPdftoppmRenderer_RendersPage(t *testing.T) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		t.Skip("pdftoppm not installed in PATH")
	}
	path := pdftest.WriteTextPDF(t, t.TempDir(), "page.pdf", "Rendered page")

	img, err := NewPdftoppmRenderer().RenderPage(context.Background(), path, 1, 72)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A4 at 72 dpi is 595x842 points.
	b := img.Bounds()
	if b.Dx() < 590 || b.Dx() > 600 || b.Dy() < 835 || b.Dy() > 845 {
		t.Errorf("unexpected render size %dx%d", b.Dx(), b.Dy())
	}
}
