package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MaxImageBytes bounds every downloaded image.
const MaxImageBytes = 10 * 1024 * 1024

// OpenLibraryCoversURL serves cover images by ISBN.
const OpenLibraryCoversURL = "https://covers.openlibrary.org"

// Fetcher downloads cover images over HTTP.
type Fetcher struct {
	HTTPClient *http.Client
	CoversURL  string
}

// NewFetcher creates a new image fetcher
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		CoversURL: OpenLibraryCoversURL,
	}
}

// Fetch downloads the image at imageURL.
func (f *Fetcher) Fetch(ctx context.Context, imageURL string) ([]byte, error) {
	u, err := url.Parse(imageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid image URL %q", imageURL)
	}

	data, err := f.download(ctx, u.String())
	if err != nil {
		return nil, err
	}

	slog.Info("Downloaded image", "url", imageURL, "bytes", len(data))
	return data, nil
}

// FetchCoverByISBN downloads a large cover from the Open Library Covers API.
func (f *Fetcher) FetchCoverByISBN(ctx context.Context, isbn string) ([]byte, error) {
	isbn = strings.ReplaceAll(strings.TrimSpace(isbn), "-", "")
	if isbn == "" {
		return nil, fmt.Errorf("isbn is required")
	}

	// Open Library Covers API: https://covers.openlibrary.org/b/isbn/{ISBN}-L.jpg
	coverURL := fmt.Sprintf("%s/b/isbn/%s-L.jpg", strings.TrimSuffix(f.CoversURL, "/"), url.PathEscape(isbn))

	data, err := f.download(ctx, coverURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cover: %w", err)
	}

	// If image is too small, it's probably a placeholder
	if len(data) < 1000 {
		return nil, fmt.Errorf("cover image too small (likely placeholder)")
	}

	slog.Info("Downloaded cover image", "isbn", isbn, "bytes", len(data))
	return data, nil
}

func (f *Fetcher) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "application/octet-stream") {
		return nil, fmt.Errorf("unexpected content type %q", contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("image too large (max %d bytes)", MaxImageBytes)
	}

	return data, nil
}
