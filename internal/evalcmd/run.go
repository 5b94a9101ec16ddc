package evalcmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/coverscan/internal/eval/dataset"
	"github.com/lehigh-university-libraries/coverscan/internal/eval/metadata"
	"github.com/lehigh-university-libraries/coverscan/internal/eval/results"
	"github.com/lehigh-university-libraries/coverscan/internal/models"
	"golang.org/x/sync/errgroup"
)

// Scanner scans one cover image to completion.
type Scanner interface {
	Scan(ctx context.Context, image []byte) *models.ScanSession
}

// ImageSource downloads item images that are not on disk.
type ImageSource interface {
	Fetch(ctx context.Context, imageURL string) ([]byte, error)
	FetchCoverByISBN(ctx context.Context, isbn string) ([]byte, error)
}

// Runner scans dataset items and scores them against their labels.
type Runner struct {
	// NewScanner is called once per item; a scanner holds a single session so
	// concurrent items cannot share one.
	NewScanner  func() Scanner
	Images      ImageSource
	BaseDir     string
	Concurrency int
}

// Run scans every item and returns the results in dataset order.
func (r *Runner) Run(ctx context.Context, items []dataset.Item) ([]results.ItemResult, error) {
	concurrency := r.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	out := make([]results.ItemResult, len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			slog.Info("Processing item", "id", item.ID, "progress", fmt.Sprintf("%d/%d", i+1, len(items)))
			out[i] = r.scanItem(ctx, item)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

func (r *Runner) scanItem(ctx context.Context, item dataset.Item) (result results.ItemResult) {
	result.ID = item.ID
	result.ExpectedTitle = item.Title

	start := time.Now()
	defer func() {
		result.DurationMS = time.Since(start).Milliseconds()
	}()

	image, err := r.readImage(ctx, item)
	if err != nil {
		result.Stage = models.StageErrored
		result.Error = err.Error()
		slog.Warn("Skipping item", "id", item.ID, "err", err)
		return result
	}

	session := r.NewScanner().Scan(ctx, image)
	result.Stage = session.Stage
	result.Identified = session.Identified
	result.Error = session.Error
	result.Lines = session.Lines
	result.Record = session.Record

	if session.Stage == models.StageDone {
		actual := session.Record
		if !session.Identified {
			actual = nil
		}
		result.Comparison = metadata.CompareRecords(item.Expected(), actual)
	}

	return result
}

// readImage loads the item's cover from disk, a URL, or Open Library by ISBN.
func (r *Runner) readImage(ctx context.Context, item dataset.Item) ([]byte, error) {
	switch {
	case strings.TrimSpace(item.ImagePath) != "":
		path := item.ImagePath
		if !filepath.IsAbs(path) && r.BaseDir != "" {
			path = filepath.Join(r.BaseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
		return data, nil
	case strings.TrimSpace(item.ImageURL) != "" && r.Images != nil:
		return r.Images.Fetch(ctx, item.ImageURL)
	case strings.TrimSpace(item.ISBN) != "" && r.Images != nil:
		return r.Images.FetchCoverByISBN(ctx, item.ISBN)
	default:
		return nil, fmt.Errorf("no image available for item %s", item.ID)
	}
}
