// Package extract obtains the text of a PDF by trying progressively more
// expensive strategies until one yields enough characters.
package extract

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dgallion1/docsum/internal/document"
	"golang.org/x/text/unicode/norm"
)

// Strategy is one way of getting text out of a document.
type Strategy interface {
	Name() string
	// Threshold is the character count the result must exceed.
	Threshold() int
	Attempt(ctx context.Context, doc document.Document) (string, error)
}

// Result is the outcome of a cascade run. Strategy is empty when every
// strategy fell short.
type Result struct {
	Strategy string
	Text     string
	Chars    int
}

// OK reports whether any strategy succeeded.
func (r Result) OK() bool { return r.Strategy != "" }

// CountChars counts the code points of the trimmed, NFC-normalized text.
func CountChars(s string) int {
	return utf8.RuneCountInString(norm.NFC.String(strings.TrimSpace(s)))
}

// Cascade runs strategies in order and keeps the first sufficient result.
type Cascade struct {
	strategies []Strategy
	log        *slog.Logger
}

func NewCascade(log *slog.Logger, strategies ...Strategy) *Cascade {
	return &Cascade{strategies: strategies, log: log}
}

// Extract returns the first result whose character count exceeds its
// strategy's threshold. Strategy errors count as empty text. If every
// strategy falls short, the zero Result is returned.
func (c *Cascade) Extract(ctx context.Context, doc document.Document) Result {
	log := c.log.With("document", doc.Name)
	for _, s := range c.strategies {
		if ctx.Err() != nil {
			break
		}
		start := time.Now()
		text, err := s.Attempt(ctx, doc)
		if err != nil {
			log.Warn("extraction strategy failed", "strategy", s.Name(), "error", err)
			continue
		}
		text = strings.TrimSpace(text)
		n := CountChars(text)
		if n > s.Threshold() {
			log.Info("text extracted", "strategy", s.Name(), "chars", n,
				"duration_ms", time.Since(start).Milliseconds())
			return Result{Strategy: s.Name(), Text: text, Chars: n}
		}
		log.Debug("strategy below threshold", "strategy", s.Name(), "chars", n, "threshold", s.Threshold())
	}
	log.Warn("no meaningful text extracted")
	return Result{}
}
