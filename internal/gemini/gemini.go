package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lehigh-university-libraries/coverscan/internal/providers"
	"github.com/lehigh-university-libraries/coverscan/internal/scanerr"
	"google.golang.org/api/option"
)

// Gemini is a provider for the Gemini generate-content endpoint
type Gemini struct {
	apiKey   string
	endpoint string
}

// New returns a new Gemini provider. An empty endpoint uses the SDK default.
func New(apiKey, endpoint string) *Gemini {
	return &Gemini{apiKey: apiKey, endpoint: endpoint}
}

// Generate sends the prompt to Gemini and returns the first candidate's text
func (g *Gemini) Generate(ctx context.Context, req providers.Request) (string, error) {
	const op = "gemini.Generate"

	if g.apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY not set")
	}

	opts := []option.ClientOption{option.WithAPIKey(g.apiKey)}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", scanerr.New(op, scanerr.ErrTransport, "failed to create gemini client: "+err.Error())
	}
	defer client.Close()

	model := client.GenerativeModel(req.Model)
	model.SetTemperature(float32(req.Temperature))
	if req.TopP > 0 {
		model.SetTopP(float32(req.TopP))
	}

	parts := []genai.Part{genai.Text(req.Prompt)}
	for _, image := range req.Images {
		data, err := base64.StdEncoding.DecodeString(image)
		if err != nil {
			return "", fmt.Errorf("failed to decode image: %w", err)
		}
		parts = append(parts, genai.ImageData("jpeg", data))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", scanerr.New(op, scanerr.ErrTransport, "failed to generate content: "+err.Error())
	}

	return candidateText(resp)
}

func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	const op = "gemini.Generate"

	if resp == nil || len(resp.Candidates) == 0 {
		return "", scanerr.New(op, scanerr.ErrEmptyResponse, "no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", scanerr.New(op, scanerr.ErrEmptyResponse, "empty content returned from Gemini")
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}

	if strings.TrimSpace(text.String()) == "" {
		return "", scanerr.New(op, scanerr.ErrEmptyResponse, "no text parts returned from Gemini")
	}

	return text.String(), nil
}
