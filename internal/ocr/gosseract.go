//go:build ocr

package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// GosseractEngine calls libtesseract through cgo. A new client is created
// per call; gosseract clients are not safe for concurrent use.
type GosseractEngine struct {
	newClient func() *gosseract.Client
}

// NewDefaultEngine returns the engine compiled into this build.
func NewDefaultEngine() Engine {
	return &GosseractEngine{newClient: gosseract.NewClient}
}

func (e *GosseractEngine) Languages(ctx context.Context) ([]string, error) {
	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}
	return langs, nil
}

// Recognize blocks in libtesseract; ctx is only checked before starting.
func (e *GosseractEngine) Recognize(ctx context.Context, png []byte, langs []string, psm int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := e.newClient()
	defer c.Close()

	if len(langs) > 0 {
		if err := c.SetLanguage(langs...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(psm)); err != nil {
		return "", fmt.Errorf("set page segmentation: %w", err)
	}
	if err := c.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}
