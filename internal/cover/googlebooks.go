package cover

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/coverscan/internal/scanerr"
	books "google.golang.org/api/books/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleBooks looks up covers through the Google Books volumes API.
type GoogleBooks struct {
	service *books.Service
}

// GoogleBooksOptions builds client options for the volumes API. An empty
// endpoint uses the public API; an empty key queries anonymously. Requests
// are bounded by timeout with or without a key.
func GoogleBooksOptions(endpoint, apiKey string, timeout time.Duration) []option.ClientOption {
	var opts []option.ClientOption
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	client := newHTTPClient(timeout)
	if apiKey != "" {
		// option.WithAPIKey is ignored once a custom client is supplied.
		client.Transport = &apiKeyTransport{key: apiKey, base: http.DefaultTransport}
	}
	return append(opts, option.WithHTTPClient(client))
}

// apiKeyTransport adds the key query parameter to every request.
type apiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	q := req.URL.Query()
	q.Set("key", t.key)
	req.URL.RawQuery = q.Encode()
	return t.base.RoundTrip(req)
}

// NewGoogleBooks creates a Google Books source.
func NewGoogleBooks(ctx context.Context, opts ...option.ClientOption) (*GoogleBooks, error) {
	service, err := books.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Books client: %w", err)
	}
	return &GoogleBooks{service: service}, nil
}

func (g *GoogleBooks) Name() string {
	return "google_books"
}

// Thumbnail returns the first title match's thumbnail link.
func (g *GoogleBooks) Thumbnail(ctx context.Context, title string) (string, error) {
	const op = "GoogleBooks.Thumbnail"

	volumes, err := g.service.Volumes.List("intitle:" + title).
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
			return "", scanerr.New(op, scanerr.ErrRateLimited, "Google Books returned 429")
		}
		return "", scanerr.New(op, scanerr.ErrTransport, err.Error())
	}

	if volumes == nil || len(volumes.Items) == 0 {
		return "", nil
	}

	info := volumes.Items[0].VolumeInfo
	if info == nil || info.ImageLinks == nil {
		return "", nil
	}
	if info.ImageLinks.Thumbnail != "" {
		return info.ImageLinks.Thumbnail, nil
	}
	return info.ImageLinks.SmallThumbnail, nil
}
