// Package ocr recognizes text in rendered page images with Tesseract.
//
// Two engines are available: the tesseract command line tool (default build)
// and the gosseract bindings (build with -tags ocr).
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// PSMSingleBlock assumes a single uniform block of text.
const PSMSingleBlock = 6

// listTimeout bounds the one-time installed-language lookup.
const listTimeout = 15 * time.Second

// ErrEngineUnavailable is returned when the OCR engine cannot be run at all.
var ErrEngineUnavailable = errors.New("ocr engine unavailable")

// Engine runs Tesseract.
type Engine interface {
	// Languages lists the installed language packs.
	Languages(ctx context.Context) ([]string, error)
	// Recognize returns the text in a PNG-encoded image.
	Recognize(ctx context.Context, png []byte, langs []string, psm int) (string, error)
}

// Options configures a Recognizer.
type Options struct {
	Languages       []string      // desired language packs, in preference order
	DefaultLanguage string        // used when none of Languages is installed
	Timeout         time.Duration // per-call bound; 0 disables it
}

// Recognizer resolves the language set once and recognizes page images.
type Recognizer struct {
	engine Engine
	opts   Options
	log    *slog.Logger

	langsOnce sync.Once
	langs     []string
}

func NewRecognizer(engine Engine, opts Options, log *slog.Logger) *Recognizer {
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = "eng"
	}
	return &Recognizer{engine: engine, opts: opts, log: log}
}

// Languages returns the languages used for recognition: the desired
// languages that are installed, or the default language when none are.
// The engine is asked on first use only. The result is shared by
// every later caller, so it runs detached from ctx's cancellation under its
// own timeout.
func (r *Recognizer) Languages(ctx context.Context) []string {
	r.langsOnce.Do(func() {
		listCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), listTimeout)
		defer cancel()
		installed, err := r.engine.Languages(listCtx)
		if err != nil {
			r.log.Warn("ocr language listing failed", "error", err)
		}
		r.langs = selectLanguages(r.opts.Languages, installed, r.opts.DefaultLanguage)
		r.log.Info("ocr languages resolved", "languages", strings.Join(r.langs, "+"), "installed", len(installed))
	})
	return r.langs
}

// Recognize encodes img as PNG and returns the recognized text.
func (r *Recognizer) Recognize(ctx context.Context, img image.Image) (string, error) {
	langs := r.Languages(ctx)
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode page image: %w", err)
	}

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := r.engine.Recognize(ctx, buf.Bytes(), langs, PSMSingleBlock)
		done <- result{text, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("recognize: %w", res.err)
		}
		return strings.TrimSpace(res.text), nil
	case <-ctx.Done():
		return "", fmt.Errorf("recognize: %w", ctx.Err())
	}
}

func selectLanguages(desired, installed []string, fallback string) []string {
	have := make(map[string]bool, len(installed))
	for _, l := range installed {
		have[l] = true
	}
	var out []string
	for _, l := range desired {
		if have[l] {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		return []string{fallback}
	}
	return out
}
