package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/coverscan/internal/providers"
)

// LLMRecognizer transcribes cover text with a multimodal AI endpoint.
// It is useful where neither Cloud Vision nor Tesseract is available.
type LLMRecognizer struct {
	provider providers.Provider
	model    string
}

// NewLLMRecognizer returns a recognizer that sends images to provider.
func NewLLMRecognizer(provider providers.Provider, model string) *LLMRecognizer {
	return &LLMRecognizer{provider: provider, model: model}
}

// Recognize asks the model for a verbatim transcription of image.
func (s *LLMRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	text, err := s.provider.Generate(ctx, providers.Request{
		Model:       s.model,
		Prompt:      buildOCRPrompt(),
		Temperature: 0.0, // Zero temperature for exact OCR
		Images:      []string{base64.StdEncoding.EncodeToString(image)},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRecognitionFailed, err)
	}

	text = strings.TrimSpace(text)
	if text == noTextMarker {
		return "", nil
	}

	slog.Info("Extracted OCR text", "provider", "llm", "model", s.model, "length", len(text))
	return text, nil
}

func (s *LLMRecognizer) Close() error {
	return nil
}

// noTextMarker is the reply the prompt asks for when the cover has no text.
const noTextMarker = "NO_TEXT"

func buildOCRPrompt() string {
	return `You are performing OCR (Optical Character Recognition) on a photograph of a book cover. The text is usually Hebrew and may include English.

Your task is to extract ALL visible text from the image exactly as it appears, preserving:
- Line breaks, one printed line per output line
- Reading order from top to bottom
- Hebrew letters exactly as printed, including final forms (ך ם ן ף ץ)
- Punctuation and numbers

INSTRUCTIONS:
1. Read the cover carefully from top to bottom
2. Transcribe every piece of visible text, including small publisher imprints
3. Do not correct, translate or transliterate anything
4. Do not add any interpretation, commentary, or explanations
5. If text is partially obscured or unclear, transcribe what you can see and use [?] for illegible portions
6. If the image contains no text at all, reply with exactly ` + noTextMarker + `

OUTPUT FORMAT:
Provide ONLY the extracted text. Do not include phrases like "Here is the text:" or "The image contains:".

Example output:
יהודה עמיחי
שירי אהבה
שוקן`
}
