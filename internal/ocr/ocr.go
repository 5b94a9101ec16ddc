// Package ocr implements the text extraction service that the scan pipeline
// calls: an HTTP endpoint accepting a base64 image and answering with the
// recognized text.
//
// Recognition is delegated to a Recognizer backend:
//   - vision: Google Cloud Vision TEXT_DETECTION. Credentials come from
//     GOOGLE_CREDENTIALS (inline JSON), GOOGLE_APPLICATION_CREDENTIALS (file
//     path) or application default credentials.
//   - llm: a multimodal AI endpoint asked to transcribe the cover.
//   - tesseract: local Tesseract via gosseract, compiled in with -tags tesseract.
package ocr

import (
	"context"
	"errors"
)

// Backend names accepted by the ocr-server command.
const (
	BackendVision    = "vision"
	BackendLLM       = "llm"
	BackendTesseract = "tesseract"
)

// LanguageHints are passed to backends that accept them. Covers are mostly
// Hebrew with occasional Latin-script text.
var LanguageHints = []string{"he", "en"}

var (
	// ErrNotEnabled is returned by backends that were not compiled in.
	ErrNotEnabled = errors.New("OCR backend not enabled in this build")

	// ErrMissingCredentials is returned when no Google Cloud credentials are available.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS")

	// ErrRecognitionFailed is returned when the backend could not process the image.
	ErrRecognitionFailed = errors.New("text recognition failed")
)

// Recognizer extracts text from an encoded image. An image without text
// yields "" and a nil error.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
	Close() error
}
