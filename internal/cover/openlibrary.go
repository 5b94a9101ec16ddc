package cover

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/coverscan/internal/scanerr"
)

const (
	// OpenLibraryURL is the public Open Library base URL.
	OpenLibraryURL = "https://openlibrary.org"

	// OpenLibraryCoversURL serves cover images by cover id.
	OpenLibraryCoversURL = "https://covers.openlibrary.org"
)

// OpenLibrary looks up covers through the Open Library search API.
type OpenLibrary struct {
	BaseURL    string
	CoversURL  string
	HTTPClient *http.Client
}

// NewOpenLibrary creates an Open Library source against the public API.
func NewOpenLibrary(timeout time.Duration) *OpenLibrary {
	return &OpenLibrary{
		BaseURL:    OpenLibraryURL,
		CoversURL:  OpenLibraryCoversURL,
		HTTPClient: newHTTPClient(timeout),
	}
}

func (o *OpenLibrary) Name() string {
	return "open_library"
}

// Thumbnail returns a medium cover for the first title match.
func (o *OpenLibrary) Thumbnail(ctx context.Context, title string) (string, error) {
	const op = "OpenLibrary.Thumbnail"

	query := url.Values{}
	query.Set("title", title)
	query.Set("limit", "1")
	query.Set("fields", "key,title,cover_i")
	searchURL := strings.TrimSuffix(o.BaseURL, "/") + "/search.json?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create Open Library request: %w", err)
	}

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return "", scanerr.New(op, scanerr.ErrTransport, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", scanerr.New(op, scanerr.ErrRateLimited, "Open Library returned 429")
	}
	if resp.StatusCode != http.StatusOK {
		return "", scanerr.New(op, scanerr.ErrTransport, fmt.Sprintf("Open Library API returned status %d", resp.StatusCode))
	}

	var result struct {
		Docs []struct {
			CoverID int `json:"cover_i"`
		} `json:"docs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", scanerr.New(op, scanerr.ErrTransport, "failed to decode Open Library response: "+err.Error())
	}

	if len(result.Docs) == 0 || result.Docs[0].CoverID == 0 {
		return "", nil
	}

	return fmt.Sprintf("%s/b/id/%d-M.jpg", strings.TrimSuffix(o.CoversURL, "/"), result.Docs[0].CoverID), nil
}
