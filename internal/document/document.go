// Package document describes the PDF inputs handled by the pipeline and how
// their pages are rendered to raster images.
package document

import (
	"fmt"
	"path/filepath"

	pdflib "github.com/ledongthuc/pdf"
)

// Document is one input PDF on durable storage. It is never modified or
// deleted by the pipeline.
type Document struct {
	Index int    // 1-based position in the submitted batch
	Name  string // display name, usually the original upload name
	Path  string
}

// New builds a Document for path, using the file's base name as display name.
func New(index int, path string) Document {
	return Document{Index: index, Name: filepath.Base(path), Path: path}
}

// FromPaths builds Documents in input order.
func FromPaths(paths []string) []Document {
	docs := make([]Document, 0, len(paths))
	for i, p := range paths {
		docs = append(docs, New(i+1, p))
	}
	return docs
}

// PageCount opens the document and returns its number of pages.
func PageCount(path string) (int, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	return reader.NumPage(), nil
}
