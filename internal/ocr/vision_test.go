package ocr

import (
	"errors"
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/genproto/googleapis/rpc/status"
)

func TestAnnotateRequest(t *testing.T) {
	req := annotateRequest([]byte("img"))
	if len(req.Requests) != 1 {
		t.Fatalf("Expected one request, got %d", len(req.Requests))
	}
	r := req.Requests[0]
	if string(r.Image.Content) != "img" {
		t.Errorf("Expected image content, got %q", r.Image.Content)
	}
	if len(r.Features) != 1 || r.Features[0].Type != visionpb.Feature_TEXT_DETECTION {
		t.Errorf("Expected TEXT_DETECTION, got %v", r.Features)
	}
	if len(r.ImageContext.LanguageHints) != 2 || r.ImageContext.LanguageHints[0] != "he" {
		t.Errorf("Expected he/en hints, got %v", r.ImageContext.LanguageHints)
	}
}

func TestAnnotationText(t *testing.T) {
	tests := []struct {
		name    string
		resp    *visionpb.AnnotateImageResponse
		want    string
		wantErr bool
	}{
		{"nil", nil, "", false},
		{"empty", &visionpb.AnnotateImageResponse{}, "", false},
		{
			name: "full text",
			resp: &visionpb.AnnotateImageResponse{
				FullTextAnnotation: &visionpb.TextAnnotation{Text: "שירי אהבה\n"},
				TextAnnotations:    []*visionpb.EntityAnnotation{{Description: "other"}},
			},
			want: "שירי אהבה\n",
		},
		{
			name: "text annotations only",
			resp: &visionpb.AnnotateImageResponse{
				TextAnnotations: []*visionpb.EntityAnnotation{{Description: "שירי אהבה"}, {Description: "שירי"}},
			},
			want: "שירי אהבה",
		},
		{
			name:    "api error",
			resp:    &visionpb.AnnotateImageResponse{Error: &status.Status{Code: 8, Message: "quota"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := annotationText(tt.resp)
			if tt.wantErr {
				if !errors.Is(err, ErrRecognitionFailed) {
					t.Errorf("Expected ErrRecognitionFailed, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("annotationText failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
