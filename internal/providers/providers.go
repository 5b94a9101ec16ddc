package providers

import (
	"context"
)

// Request is a single prompt sent to an AI endpoint.
type Request struct {
	Model       string
	Prompt      string
	Temperature float64
	TopP        float64

	// Images are base64-encoded JPEGs sent alongside the prompt.
	Images []string
}

// Provider is an AI endpoint that turns a prompt into text.
//
// Implementations return an error wrapping scanerr.ErrEmptyResponse when the
// endpoint answered without any text, and scanerr.ErrTransport when the
// endpoint could not be reached or answered with a non-success status.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
}
