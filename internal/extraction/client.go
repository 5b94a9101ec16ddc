// Package extraction calls the text extraction service and turns its raw
// text into ordered, cleaned OCR lines.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/coverscan/internal/scanerr"
	"golang.org/x/text/unicode/norm"
)

// Request is the body sent to the extraction service.
type Request struct {
	Image string `json:"image"`
}

// Response is the extraction service's reply.
type Response struct {
	Success bool   `json:"success"`
	Text    string `json:"text,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

// Client talks to the text extraction service.
type Client struct {
	Endpoint   string
	HTTPClient *http.Client
}

// NewClient creates a client for the extraction service at endpoint.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		Endpoint: endpoint,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ExtractLines submits a base64 image and returns its non-trivial text lines
// in top-to-bottom order. It does not retry.
func (c *Client) ExtractLines(ctx context.Context, imageBase64 string) ([]string, error) {
	const op = "ExtractLines"

	body, err := json.Marshal(Request{Image: imageBase64})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, scanerr.New(op, scanerr.ErrTransport, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, scanerr.New(op, scanerr.ErrTransport, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, scanerr.New(op, scanerr.ErrTransport, fmt.Sprintf("extraction service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
	}

	var result Response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, scanerr.New(op, scanerr.ErrTransport, "failed to decode extraction response: "+err.Error())
	}

	if !result.Success {
		message := result.Message
		if message == "" {
			message = result.Error
		}
		return nil, scanerr.New(op, scanerr.ErrService, message)
	}

	lines := SplitLines(result.Text)
	if len(lines) == 0 {
		return nil, scanerr.New(op, scanerr.ErrNoTextDetected, fmt.Sprintf("%d characters of raw text", len(result.Text)))
	}

	slog.Info("Extracted OCR lines", "lines", len(lines), "raw_length", len(result.Text))
	return lines, nil
}

// SplitLines splits raw OCR text on line breaks, trims and NFC-normalizes
// each line, and drops lines of one character or less.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = norm.NFC.String(strings.TrimSpace(line))
		if utf8.RuneCountInString(line) <= 1 {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
