// Package session stores the files of one upload batch and removes them
// when the batch is done.
package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/dgallion1/docsum/internal/document"
)

var (
	ErrTooLarge = errors.New("file exceeds upload limit")
	ErrNotPDF   = errors.New("file is not a PDF")
)

// Session owns the files saved for one batch. Saved files are named
// <session id>_<index>_<sanitized name> inside the upload directory, so
// uploads sharing a base name do not collide.
type Session struct {
	ID  string
	dir string
	log *slog.Logger

	mu    sync.Mutex
	seq   int
	docs  []document.Document
	paths []string
}

// New starts a session in dir, creating the directory if needed.
func New(dir string, log *slog.Logger) (*Session, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	id := NewID()
	return &Session{ID: id, dir: dir, log: log.With("session_id", id)}, nil
}

// Dir is the directory the session writes into.
func (s *Session) Dir() string { return s.dir }

// Save copies r into the session as a PDF named after name. limit caps the
// file size in bytes; 0 means unlimited. Documents are indexed in the order
// they are saved.
func (s *Session) Save(name string, r io.Reader, limit int64) (document.Document, error) {
	clean := SanitizeName(name)
	if !strings.EqualFold(filepath.Ext(clean), ".pdf") {
		return document.Document{}, fmt.Errorf("%s: %w", name, ErrNotPDF)
	}

	// Reserve a file number first; failed saves leave a gap.
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()
	path := filepath.Join(s.dir, fmt.Sprintf("%s_%d_%s", s.ID, seq, clean))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return document.Document{}, fmt.Errorf("create upload file: %w", err)
	}
	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && limit > 0 && n > limit {
		err = fmt.Errorf("%s: %w (%d bytes)", name, ErrTooLarge, limit)
	}
	if err != nil {
		os.Remove(path)
		return document.Document{}, fmt.Errorf("save upload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, path)
	doc := document.Document{Index: len(s.docs) + 1, Name: clean, Path: path}
	s.docs = append(s.docs, doc)
	s.log.Info("saved file", "file", filepath.Base(path), "bytes", n)
	return doc, nil
}

// Documents returns the saved documents in upload order.
func (s *Session) Documents() []document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]document.Document(nil), s.docs...)
}

// Cleanup removes every saved file and the given extra paths. Empty extra
// paths are ignored; failures are logged. Safe to call more than once.
func (s *Session) Cleanup(extra ...string) {
	s.mu.Lock()
	paths := append(s.paths, extra...)
	s.paths = nil
	s.mu.Unlock()

	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Error("cannot remove file", "file", filepath.Base(p), "error", err)
			continue
		}
		s.log.Info("cleaned up", "file", filepath.Base(p))
	}
}

// SanitizeName reduces an uploaded file name to a safe base name made of
// letters, digits, dots, dashes and underscores.
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte('_')
		}
	}
	clean := strings.TrimLeft(b.String(), "._")
	if clean == "" {
		return "document.pdf"
	}
	return clean
}
