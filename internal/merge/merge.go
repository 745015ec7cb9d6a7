// Package merge concatenates several PDFs into one document.
package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/docsum/internal/document"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	ErrNoDocuments    = errors.New("no documents to merge")
	ErrTooFewReadable = errors.New("fewer than two readable documents")
)

// Merger writes merged PDFs next to the first input.
type Merger struct {
	log *slog.Logger
	now func() time.Time
}

func NewMerger(log *slog.Logger) *Merger {
	// Keep pdfcpu from creating a config directory under $HOME.
	api.DisableConfigDir()
	return &Merger{log: log, now: time.Now}
}

// Result describes a merge.
type Result struct {
	// Document is the merged file, or the only input when one was given.
	Document document.Document
	// Included lists the inputs whose pages Document holds, in order.
	Included []document.Document
	// Created is set when a new file was written; the caller removes it.
	Created bool
}

// Merge concatenates docs in order. A single document is returned as is.
// Otherwise the pages of every readable input are written to
// merged_<timestamp>_<random>.pdf in the first input's directory; unreadable
// inputs are skipped.
func (m *Merger) Merge(ctx context.Context, docs []document.Document) (Result, error) {
	switch len(docs) {
	case 0:
		return Result{}, ErrNoDocuments
	case 1:
		return Result{Document: docs[0], Included: docs[:1]}, nil
	}

	var (
		inputs   []string
		included []document.Document
	)
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		pages, err := pageCount(d.Path)
		if err != nil {
			m.log.Warn("skipping unreadable document in merge", "document", d.Name, "error", err)
			continue
		}
		m.log.Info("adding document to merge", "document", d.Name, "pages", pages)
		inputs = append(inputs, d.Path)
		included = append(included, d)
	}
	if len(inputs) < 2 {
		return Result{}, fmt.Errorf("merge %d documents: %w", len(docs), ErrTooFewReadable)
	}

	out, err := m.write(filepath.Dir(docs[0].Path), inputs)
	if err != nil {
		return Result{}, err
	}
	m.log.Info("documents merged", "inputs", len(inputs), "output", filepath.Base(out))
	return Result{Document: document.New(1, out), Included: included, Created: true}, nil
}

// write merges inputs into a new uniquely named file in dir. Batches share
// the upload directory, so the timestamp alone is not enough.
func (m *Merger) write(dir string, inputs []string) (string, error) {
	f, err := os.CreateTemp(dir, fmt.Sprintf("merged_%s_*.pdf", m.now().Format("20060102_150405")))
	if err != nil {
		return "", fmt.Errorf("create merged file: %w", err)
	}
	out := f.Name()
	err = api.Merge("", inputs, f, model.NewDefaultConfiguration(), false)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(out)
		return "", fmt.Errorf("merge pdfs: %w", err)
	}
	return out, nil
}

func pageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	ctx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("pdfcpu read: %w", err)
	}
	return ctx.PageCount, nil
}
