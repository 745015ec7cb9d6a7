package merge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docsum/internal/document"
	"github.com/dgallion1/docsum/internal/pdftest"
	pdflib "github.com/ledongthuc/pdf"
)

func newTestMerger() *Merger {
	m := NewMerger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.now = func() time.Time { return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC) }
	return m
}

func pageTexts(t *testing.T, path string) []string {
	t.Helper()
	f, r, err := pdflib.Open(path)
	if err != nil {
		t.Fatalf("open merged pdf: %v", err)
	}
	defer f.Close()
	var out []string
	for i := 1; i <= r.NumPage(); i++ {
		text, err := r.Page(i).GetPlainText(nil)
		if err != nil {
			t.Fatalf("read page %d: %v", i, err)
		}
		out = append(out, text)
	}
	return out
}

func TestMerge_PreservesPageOrder(t *testing.T) {
	dir := t.TempDir()
	a := pdftest.WriteTextPDF(t, dir, "a.pdf", "alpha first page", "alpha second page")
	b := pdftest.WriteTextPDF(t, dir, "b.pdf", "bravo only page")

	res, err := newTestMerger().Merge(context.Background(), document.FromPaths([]string{a, b}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Created {
		t.Error("expected a new file to be created")
	}
	if filepath.Dir(res.Document.Path) != dir {
		t.Errorf("expected merged file in %s, got %s", dir, res.Document.Path)
	}
	if ok, _ := filepath.Match("merged_20250314_092653_*.pdf", filepath.Base(res.Document.Path)); !ok {
		t.Errorf("unexpected merged file name %s", filepath.Base(res.Document.Path))
	}
	if len(res.Included) != 2 || res.Included[0].Name != "a.pdf" || res.Included[1].Name != "b.pdf" {
		t.Errorf("unexpected included documents %+v", res.Included)
	}

	pages := pageTexts(t, res.Document.Path)
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	for i, want := range []string{"alpha first", "alpha second", "bravo only"} {
		if !strings.Contains(pages[i], want) {
			t.Errorf("page %d: expected %q, got %q", i+1, want, pages[i])
		}
	}
}

func TestMerge_SingleDocumentPassesThrough(t *testing.T) {
	dir := t.TempDir()
	a := pdftest.WriteTextPDF(t, dir, "a.pdf", "alone")
	docs := document.FromPaths([]string{a})

	res, err := newTestMerger().Merge(context.Background(), docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Created || res.Document != docs[0] || len(res.Included) != 1 {
		t.Errorf("expected input returned unchanged, got %+v", res)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected no new files, found %d entries", len(entries))
	}
}

func TestMerge_NoDocuments(t *testing.T) {
	_, err := newTestMerger().Merge(context.Background(), nil)
	if !errors.Is(err, ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestMerge_SkipsUnreadableInputs(t *testing.T) {
	dir := t.TempDir()
	a := pdftest.WriteTextPDF(t, dir, "a.pdf", "alpha page")
	bad := pdftest.WriteGarbage(t, dir, "bad.pdf")
	b := pdftest.WriteTextPDF(t, dir, "b.pdf", "bravo page")

	res, err := newTestMerger().Merge(context.Background(), document.FromPaths([]string{a, bad, b}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Included) != 2 || res.Included[0].Index != 1 || res.Included[1].Index != 3 {
		t.Errorf("expected inputs 1 and 3 included, got %+v", res.Included)
	}
	pages := pageTexts(t, res.Document.Path)
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if !strings.Contains(pages[1], "bravo") {
		t.Errorf("expected bravo on page 2, got %q", pages[1])
	}
}

func TestMerge_TooFewReadable(t *testing.T) {
	dir := t.TempDir()
	a := pdftest.WriteTextPDF(t, dir, "a.pdf", "alpha page")
	bad := pdftest.WriteGarbage(t, dir, "bad.pdf")

	_, err := newTestMerger().Merge(context.Background(), document.FromPaths([]string{a, bad}))
	if !errors.Is(err, ErrTooFewReadable) {
		t.Errorf("expected ErrTooFewReadable, got %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "merged_*.pdf"))
	if len(matches) != 0 {
		t.Errorf("expected no merged file, found %v", matches)
	}
}

func TestMerge_BatchesInSameSecondDoNotCollide(t *testing.T) {
	dir := t.TempDir()
	m := newTestMerger()
	one := document.FromPaths([]string{
		pdftest.WriteTextPDF(t, dir, "1_a.pdf", "batch one alpha"),
		pdftest.WriteTextPDF(t, dir, "1_b.pdf", "batch one bravo"),
	})
	two := document.FromPaths([]string{
		pdftest.WriteTextPDF(t, dir, "2_a.pdf", "batch two alpha"),
		pdftest.WriteTextPDF(t, dir, "2_b.pdf", "batch two bravo"),
	})

	first, err := m.Merge(context.Background(), one)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := m.Merge(context.Background(), two)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Document.Path == second.Document.Path {
		t.Fatalf("expected distinct merged files, both are %s", first.Document.Path)
	}
	if pages := pageTexts(t, first.Document.Path); !strings.Contains(pages[0], "batch one alpha") {
		t.Errorf("first merge overwritten: page 1 reads %q", pages[0])
	}
	if pages := pageTexts(t, second.Document.Path); !strings.Contains(pages[0], "batch two alpha") {
		t.Errorf("unexpected second merge page 1 %q", pages[0])
	}
}
