package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// VisionRecognizer recognizes text with Google Cloud Vision.
type VisionRecognizer struct {
	client *vision.ImageAnnotatorClient
}

// NewVisionRecognizer creates a Cloud Vision client with credentials from
// the environment. Extra options are appended after the credential option.
func NewVisionRecognizer(ctx context.Context, opts ...option.ClientOption) (*VisionRecognizer, error) {
	var (
		client *vision.ImageAnnotatorClient
		err    error
	)

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, append([]option.ClientOption{option.WithCredentialsJSON([]byte(credJSON))}, opts...)...)
		if err != nil {
			return nil, fmt.Errorf("failed to create Vision client with GOOGLE_CREDENTIALS: %w", err)
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, append([]option.ClientOption{option.WithCredentialsFile(credFile)}, opts...)...)
		if err != nil {
			return nil, fmt.Errorf("failed to create Vision client with GOOGLE_APPLICATION_CREDENTIALS: %w", err)
		}
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMissingCredentials, err)
		}
	}

	return &VisionRecognizer{client: client}, nil
}

// Recognize runs TEXT_DETECTION on image.
func (v *VisionRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	resp, err := v.client.BatchAnnotateImages(ctx, annotateRequest(image))
	if err != nil {
		return "", fmt.Errorf("%w: Vision API call failed: %v", ErrRecognitionFailed, err)
	}
	if len(resp.Responses) == 0 {
		return "", fmt.Errorf("%w: no response from Vision API", ErrRecognitionFailed)
	}

	text, err := annotationText(resp.Responses[0])
	if err != nil {
		return "", err
	}
	slog.Debug("Vision API detected text", "chars", len([]rune(text)))
	return text, nil
}

// Close closes the underlying Vision client.
func (v *VisionRecognizer) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}

func annotateRequest(image []byte) *visionpb.BatchAnnotateImagesRequest {
	return &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: image},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_TEXT_DETECTION},
				},
				ImageContext: &visionpb.ImageContext{
					LanguageHints: LanguageHints,
				},
			},
		},
	}
}

// annotationText prefers the full text annotation and falls back to the
// first text annotation, which holds the whole detected block.
func annotationText(resp *visionpb.AnnotateImageResponse) (string, error) {
	if resp == nil {
		return "", nil
	}
	if resp.Error != nil && resp.Error.Message != "" {
		return "", fmt.Errorf("%w: Vision API error: %s", ErrRecognitionFailed, resp.Error.Message)
	}
	if resp.FullTextAnnotation != nil && resp.FullTextAnnotation.Text != "" {
		return resp.FullTextAnnotation.Text, nil
	}
	if len(resp.TextAnnotations) > 0 {
		return resp.TextAnnotations[0].Description, nil
	}
	return "", nil
}
