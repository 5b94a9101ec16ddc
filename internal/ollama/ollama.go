package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/coverscan/internal/providers"
	"github.com/lehigh-university-libraries/coverscan/internal/scanerr"
)

// Ollama is a provider for Ollama
type Ollama struct {
	url    string
	client *http.Client
}

// New returns a new Ollama provider for the full /api/generate URL
func New(url string, timeout time.Duration) *Ollama {
	return &Ollama{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Generate sends the prompt to Ollama without streaming
func (o *Ollama) Generate(ctx context.Context, req providers.Request) (string, error) {
	const op = "ollama.Generate"

	options := map[string]interface{}{
		"temperature": req.Temperature,
	}
	if req.TopP > 0 {
		options["top_p"] = req.TopP
	}

	body := map[string]interface{}{
		"model":   req.Model,
		"prompt":  req.Prompt,
		"stream":  false,
		"options": options,
	}
	if len(req.Images) > 0 {
		body["images"] = req.Images
	}

	requestBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.url, bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", scanerr.New(op, scanerr.ErrTransport, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", scanerr.New(op, scanerr.ErrTransport, fmt.Sprintf("received non-200 status code: %d - %s", resp.StatusCode, string(body)))
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", scanerr.New(op, scanerr.ErrTransport, "failed to decode response body: "+err.Error())
	}

	if strings.TrimSpace(response.Response) == "" {
		return "", scanerr.New(op, scanerr.ErrEmptyResponse, "empty response from Ollama")
	}

	return response.Response, nil
}
