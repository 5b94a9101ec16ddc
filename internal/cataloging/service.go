package cataloging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/coverscan/internal/models"
	"github.com/lehigh-university-libraries/coverscan/internal/providers"
	"github.com/lehigh-university-libraries/coverscan/internal/scanerr"
)

const (
	// Temperature is kept low: warmer runs tended to answer with the same
	// famous work regardless of the cover text.
	Temperature = 0.2
	TopP        = 0.8
)

// ReferenceSources are the sources the model is asked to consult, in order.
var ReferenceSources = []string{
	"The National Library of Israel catalog (NLI)",
	"Hebrew Wikipedia",
	"Google Books",
	"Open Library",
	"WorldCat",
	"Simania (Hebrew book community catalog)",
}

// Service identifies book metadata from OCR lines using an AI endpoint.
type Service struct {
	provider providers.Provider
	model    string
}

// NewService creates a cataloging service backed by provider.
func NewService(provider providers.Provider, model string) *Service {
	return &Service{provider: provider, model: model}
}

// Identify asks the AI endpoint to identify the book whose cover produced
// lines. The returned record is not validated; an empty record is possible.
func (s *Service) Identify(ctx context.Context, lines []string) (*models.BookRecord, error) {
	const op = "Identify"

	prompt := BuildPrompt(lines)
	reply, err := s.provider.Generate(ctx, providers.Request{
		Model:       s.model,
		Prompt:      prompt,
		Temperature: Temperature,
		TopP:        TopP,
	})
	if err != nil {
		if errors.Is(err, scanerr.ErrEmptyResponse) {
			return nil, scanerr.New(op, scanerr.ErrEmptyResponse, err.Error())
		}
		return nil, scanerr.New(op, scanerr.ErrService, err.Error())
	}

	record, err := ParseRecord(reply)
	if err != nil {
		return nil, err
	}

	slog.Info("Identified book metadata", "model", s.model, "title", record.Title, "authors", len(record.Authors))
	return record, nil
}

// BuildPrompt creates the bibliographic research prompt for the given OCR lines.
func BuildPrompt(lines []string) string {
	var sources strings.Builder
	for i, source := range ReferenceSources {
		fmt.Fprintf(&sources, "%d. %s\n", i+1, source)
	}

	var ocr strings.Builder
	for _, line := range lines {
		ocr.WriteString(line)
		ocr.WriteString("\n")
	}

	return fmt.Sprintf(`You are a specialized bibliographic researcher for Hebrew books. You are not a general conversational assistant.

MISSION:
Identify the exact book whose front cover produced the OCR text below and return its bibliographic metadata.

REFERENCE SOURCES (consult in this order):
%s
OCR TEXT FROM THE COVER (verbatim, top to bottom):
%s
INSTRUCTIONS:
1. The OCR text may contain character-recognition errors. Correct them using Hebrew linguistic context, for example confusions between ו/ן/ז, ה/ח/ת, ר/ד, ם/ס, ב/כ and י/ו, and broken or merged words.
2. Identify the book from the corrected text. Do not substitute a different, better-known book.
3. If a field is unknown, leave it as an empty string (or an empty array for authors). Never guess.
4. Write title, authors and publisher in the language printed on the cover.

OUTPUT FORMAT:
Respond with ONLY a JSON object in the following format:

{
  "title": "...",
  "authors": ["..."],
  "publisher": "...",
  "year": "...",
  "description": "one or two sentences about the book",
  "language": "ISO 639-1 code, e.g. he"
}`, sources.String(), ocr.String())
}

// ParseRecord decodes the model's reply into a BookRecord. Code fences
// around the JSON are ignored. No partial record is ever returned.
func ParseRecord(reply string) (*models.BookRecord, error) {
	const op = "ParseRecord"

	body := stripCodeFences(reply)
	if body == "" {
		return nil, scanerr.New(op, scanerr.ErrEmptyResponse, "reply contained no text")
	}
	if !strings.HasPrefix(body, "{") {
		return nil, scanerr.New(op, scanerr.ErrMalformedJSON, "reply is not a JSON object")
	}

	var raw struct {
		Title       flexString  `json:"title"`
		Authors     flexStrings `json:"authors"`
		Author      flexStrings `json:"author"`
		Publisher   flexString  `json:"publisher"`
		Year        flexString  `json:"year"`
		Description flexString  `json:"description"`
		Language    flexString  `json:"language"`
	}

	decoder := json.NewDecoder(strings.NewReader(body))
	if err := decoder.Decode(&raw); err != nil {
		return nil, scanerr.New(op, scanerr.ErrMalformedJSON, err.Error())
	}
	if decoder.More() {
		return nil, scanerr.New(op, scanerr.ErrMalformedJSON, "trailing data after JSON object")
	}

	authors := raw.Authors
	if len(authors) == 0 {
		authors = raw.Author
	}

	return &models.BookRecord{
		Title:       strings.TrimSpace(string(raw.Title)),
		Authors:     authors.clean(),
		Publisher:   strings.TrimSpace(string(raw.Publisher)),
		Year:        strings.TrimSpace(string(raw.Year)),
		Description: strings.TrimSpace(string(raw.Description)),
		Language:    strings.TrimSpace(string(raw.Language)),
	}, nil
}

// stripCodeFences removes markdown code block markers around the reply
func stripCodeFences(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```JSON")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}

// flexString accepts a JSON string, number or null.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(data))
	}
	if i, err := n.Int64(); err == nil {
		*f = flexString(strconv.FormatInt(i, 10))
		return nil
	}
	*f = flexString(n.String())
	return nil
}

// flexStrings accepts a JSON array of strings, a single string, or null.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var list []flexString
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		out := make([]string, 0, len(list))
		for _, s := range list {
			out = append(out, string(s))
		}
		*f = out
		return nil
	}
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	*f = []string{string(s)}
	return nil
}

func (f flexStrings) clean() []string {
	var out []string
	for _, s := range f {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
