package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/lehigh-university-libraries/coverscan/internal/providers"
	"github.com/lehigh-university-libraries/coverscan/internal/scanerr"
)

func TestCandidateText(t *testing.T) {
	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		want    string
		wantErr error
	}{
		{
			name:    "nil response",
			resp:    nil,
			wantErr: scanerr.ErrEmptyResponse,
		},
		{
			name:    "no candidates",
			resp:    &genai.GenerateContentResponse{},
			wantErr: scanerr.ErrEmptyResponse,
		},
		{
			name: "no parts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{}},
			}},
			wantErr: scanerr.ErrEmptyResponse,
		},
		{
			name: "joins text parts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"title":`), genai.Text(`"X"}`)}}},
			}},
			want: `{"title":"X"}`,
		},
		{
			name: "whitespace only",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{genai.Text("  \n")}}},
			}},
			wantErr: scanerr.ErrEmptyResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := candidateText(tt.resp)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestGenerateRequiresKey(t *testing.T) {
	_, err := New("", "").Generate(context.Background(), providers.Request{Model: "gemini-2.0-flash", Prompt: "hi"})
	if err == nil {
		t.Fatal("Expected error without API key")
	}
}
