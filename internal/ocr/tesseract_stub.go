//go:build !tesseract

package ocr

import (
	"context"
	"fmt"
)

// TesseractRecognizer is unavailable without the tesseract build tag.
// Rebuild with -tags tesseract to enable it; Tesseract and the heb/eng
// language packs must be installed.
type TesseractRecognizer struct{}

// NewTesseractRecognizer always returns ErrNotEnabled.
func NewTesseractRecognizer() (*TesseractRecognizer, error) {
	return nil, fmt.Errorf("%w: rebuild with -tags tesseract", ErrNotEnabled)
}

func (t *TesseractRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	return "", ErrNotEnabled
}

func (t *TesseractRecognizer) Close() error {
	return nil
}
