package ocr

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeEngine struct {
	installed []string
	listErr   error
	listCalls atomic.Int32

	mu        sync.Mutex
	lastLangs []string
	lastPSM   int
	text      string
	err       error
	delay     time.Duration
}

func (f *fakeEngine) Languages(ctx context.Context) ([]string, error) {
	f.listCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.installed, f.listErr
}

func (f *fakeEngine) Recognize(ctx context.Context, png []byte, langs []string, psm int) (string, error) {
	f.mu.Lock()
	f.lastLangs = langs
	f.lastPSM = psm
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func page() image.Image {
	return image.NewGray(image.Rect(0, 0, 40, 20))
}

func TestRecognizer_ListsLanguagesOnce(t *testing.T) {
	eng := &fakeEngine{installed: []string{"eng", "osd", "rus"}, text: "  hello  "}
	r := NewRecognizer(eng, Options{Languages: []string{"rus", "eng"}}, quietLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Recognize(context.Background(), page()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := eng.listCalls.Load(); n != 1 {
		t.Errorf("expected a single language listing, got %d", n)
	}
	if !reflect.DeepEqual(eng.lastLangs, []string{"rus", "eng"}) {
		t.Errorf("expected rus+eng, got %v", eng.lastLangs)
	}
	if eng.lastPSM != PSMSingleBlock {
		t.Errorf("expected psm %d, got %d", PSMSingleBlock, eng.lastPSM)
	}
}

func TestRecognizer_TrimsText(t *testing.T) {
	eng := &fakeEngine{installed: []string{"eng"}, text: "\n  Invoice 42 \n\n"}
	r := NewRecognizer(eng, Options{Languages: []string{"eng"}}, quietLogger())
	got, err := r.Recognize(context.Background(), page())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Invoice 42" {
		t.Errorf("expected trimmed text, got %q", got)
	}
}

func TestRecognizer_LanguageFallback(t *testing.T) {
	tests := []struct {
		name      string
		installed []string
		listErr   error
		want      []string
	}{
		{"only secondary installed", []string{"eng", "osd"}, nil, []string{"eng"}},
		{"none installed", []string{"deu"}, nil, []string{"eng"}},
		{"listing fails", nil, errors.New("boom"), []string{"eng"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &fakeEngine{installed: tt.installed, listErr: tt.listErr}
			r := NewRecognizer(eng, Options{Languages: []string{"rus", "eng"}, DefaultLanguage: "eng"}, quietLogger())
			if got := r.Languages(context.Background()); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRecognizer_Timeout(t *testing.T) {
	eng := &fakeEngine{installed: []string{"eng"}, text: "late", delay: time.Second}
	r := NewRecognizer(eng, Options{Languages: []string{"eng"}, Timeout: 20 * time.Millisecond}, quietLogger())

	_, err := r.Recognize(context.Background(), page())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestRecognizer_EngineError(t *testing.T) {
	eng := &fakeEngine{installed: []string{"eng"}, err: errors.New("bad image")}
	r := NewRecognizer(eng, Options{Languages: []string{"eng"}}, quietLogger())
	if _, err := r.Recognize(context.Background(), page()); err == nil {
		t.Error("expected engine error to be returned")
	}
}

func TestRecognizer_LanguageListingIgnoresCallerCancellation(t *testing.T) {
	eng := &fakeEngine{installed: []string{"eng", "rus"}, text: "x"}
	r := NewRecognizer(eng, Options{Languages: []string{"rus", "eng"}}, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Recognize(ctx, page()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected the canceled request to fail, got %v", err)
	}

	if got := r.Languages(context.Background()); !reflect.DeepEqual(got, []string{"rus", "eng"}) {
		t.Errorf("expected rus+eng after a canceled first request, got %v", got)
	}
	if n := eng.listCalls.Load(); n != 1 {
		t.Errorf("expected a single language listing, got %d", n)
	}
}
