//go:build tesseract

package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// TesseractLanguages are the Tesseract language packs used for covers.
var TesseractLanguages = []string{"heb", "eng"}

// TesseractRecognizer recognizes text with a local Tesseract install.
// gosseract clients are not safe for concurrent use, so calls are serialized.
type TesseractRecognizer struct {
	client *gosseract.Client
	mu     sync.Mutex
}

// NewTesseractRecognizer creates a Tesseract client for Hebrew and English.
func NewTesseractRecognizer() (*TesseractRecognizer, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(TesseractLanguages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set Tesseract languages: %w", err)
	}
	return &TesseractRecognizer{client: client}, nil
}

// Recognize runs Tesseract on image.
func (t *TesseractRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("%w: failed to set image: %v", ErrRecognitionFailed, err)
	}
	text, err := t.client.Text()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRecognitionFailed, err)
	}
	return strings.TrimSpace(text), nil
}

// Close releases Tesseract resources.
func (t *TesseractRecognizer) Close() error {
	if t != nil && t.client != nil {
		return t.client.Close()
	}
	return nil
}
