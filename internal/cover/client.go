// Package cover looks up a cover thumbnail for an identified title.
//
// Lookups never fail a scan: rate limiting is retried under a bounded
// policy, and every other problem results in "no cover".
package cover

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/coverscan/internal/retry"
	"github.com/lehigh-university-libraries/coverscan/internal/scanerr"
)

// Source finds a thumbnail URL for a title. It returns "" with a nil error
// when the source has no cover, and an error wrapping scanerr.ErrRateLimited
// when the source answered HTTP 429.
type Source interface {
	Name() string
	Thumbnail(ctx context.Context, title string) (string, error)
}

// DefaultPolicy retries rate-limited lookups three times with a 1s linear backoff.
func DefaultPolicy() retry.Policy {
	return RateLimitPolicy(3, time.Second)
}

// RateLimitPolicy retries only rate-limited lookups.
func RateLimitPolicy(maxAttempts int, backoff time.Duration) retry.Policy {
	return retry.Policy{
		MaxAttempts: maxAttempts,
		Backoff:     retry.Linear(backoff),
		Retryable: func(err error) bool {
			return errors.Is(err, scanerr.ErrRateLimited)
		},
	}
}

// Client queries its sources in order until one yields a cover.
type Client struct {
	sources []Source
	policy  retry.Policy
}

// NewClient creates a cover client over sources.
func NewClient(policy retry.Policy, sources ...Source) *Client {
	return &Client{sources: sources, policy: policy}
}

// Lookup returns a secure thumbnail URL for title, or "" when none is found.
func (c *Client) Lookup(ctx context.Context, title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}

	for _, source := range c.sources {
		thumbnail, err := retry.Do(ctx, c.policy, func(ctx context.Context) (string, error) {
			return source.Thumbnail(ctx, title)
		})
		if err != nil {
			if errors.Is(err, scanerr.ErrRateLimited) {
				slog.Warn("Cover lookup still rate limited, giving up", "source", source.Name(), "attempts", c.policy.MaxAttempts)
			} else {
				slog.Warn("Cover lookup failed", "source", source.Name(), "err", err)
			}
			continue
		}
		if thumbnail != "" {
			slog.Info("Found cover", "source", source.Name(), "title", title)
			return SecureURL(thumbnail)
		}
		slog.Debug("No cover from source", "source", source.Name(), "title", title)
	}

	return ""
}

// SecureURL upgrades an http:// URL to https://.
func SecureURL(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
