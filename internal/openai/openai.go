package openai

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

// DefaultURL is the chat completions endpoint.
const DefaultURL = "https://api.openai.com/v1/chat/completions"

// OpenAI is a provider for OpenAI
type OpenAI struct {
	apiKey string
	url    string
	client *http.Client
}

// New returns a new OpenAI provider
func New(apiKey, url string, timeout time.Duration) *OpenAI {
	if url == "" {
		url = DefaultURL
	}
	return &OpenAI{
		apiKey: apiKey,
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Generate sends the prompt as a single user message
func (o *OpenAI) Generate(ctx context.Context, req providers.Request) (string, error) {
	const op = "openai.Generate"

	if o.apiKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY not set")
	}

	var content interface{} = req.Prompt
	if len(req.Images) > 0 {
		parts := []map[string]interface{}{
			{
				"type": "text",
				"text": req.Prompt,
			},
		}
		for _, image := range req.Images {
			parts = append(parts, map[string]interface{}{
				"type": "image_url",
				"image_url": map[string]string{
					"url": "data:image/jpeg;base64," + image,
				},
			})
		}
		content = parts
	}

	body := map[string]interface{}{
		"model": req.Model,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": content,
			},
		},
		"temperature": req.Temperature,
	}
	if req.TopP > 0 {
		body["top_p"] = req.TopP
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
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", scanerr.New(op, scanerr.ErrTransport, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", scanerr.New(op, scanerr.ErrTransport, fmt.Sprintf("received non-200 status code: %d - %s", resp.StatusCode, string(data)))
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", scanerr.New(op, scanerr.ErrTransport, "failed to decode response body: "+err.Error())
	}

	if len(response.Choices) == 0 || strings.TrimSpace(response.Choices[0].Message.Content) == "" {
		return "", scanerr.New(op, scanerr.ErrEmptyResponse, "no choices returned from OpenAI")
	}

	return response.Choices[0].Message.Content, nil
}
