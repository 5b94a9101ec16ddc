// Package pipeline assembles the scan stages from configuration.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/coverscan/internal/cataloging"
	"github.com/lehigh-university-libraries/coverscan/internal/config"
	"github.com/lehigh-university-libraries/coverscan/internal/cover"
	"github.com/lehigh-university-libraries/coverscan/internal/extraction"
	"github.com/lehigh-university-libraries/coverscan/internal/gemini"
	"github.com/lehigh-university-libraries/coverscan/internal/images"
	"github.com/lehigh-university-libraries/coverscan/internal/imaging"
	"github.com/lehigh-university-libraries/coverscan/internal/ollama"
	"github.com/lehigh-university-libraries/coverscan/internal/openai"
	"github.com/lehigh-university-libraries/coverscan/internal/probe"
	"github.com/lehigh-university-libraries/coverscan/internal/providers"
	"github.com/lehigh-university-libraries/coverscan/internal/scan"
	"github.com/lehigh-university-libraries/coverscan/internal/storage"
)

// Pipeline holds the configured collaborators shared by every scanner.
type Pipeline struct {
	Config   *config.Config
	Provider providers.Provider
	Prober   *probe.Probe
	Fetcher  *images.Fetcher
	Stages   scan.Stages
}

// NewProvider creates the AI endpoint client for cfg.InferenceProvider.
func NewProvider(cfg *config.Config) (providers.Provider, error) {
	switch cfg.InferenceProvider {
	case "gemini":
		return gemini.New(cfg.InferenceCredential, cfg.InferenceEndpoint), nil
	case "openai":
		return openai.New(cfg.InferenceCredential, cfg.InferenceEndpoint, cfg.HTTPTimeout), nil
	case "ollama":
		return ollama.New(cfg.InferenceEndpoint, cfg.HTTPTimeout), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.InferenceProvider)
	}
}

// NewCoverClient creates the cover lookup client: Google Books first, then
// Open Library when the fallback is enabled.
func NewCoverClient(ctx context.Context, cfg *config.Config) (*cover.Client, error) {
	books, err := cover.NewGoogleBooks(ctx, cover.GoogleBooksOptions(cfg.CoverEndpoint, cfg.CoverAPIKey, cfg.HTTPTimeout)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Books client: %w", err)
	}

	sources := []cover.Source{books}
	if cfg.CoverOpenLibraryFallback {
		sources = append(sources, cover.NewOpenLibrary(cfg.HTTPTimeout))
	}

	return cover.NewClient(cover.RateLimitPolicy(cfg.CoverMaxAttempts, cfg.CoverBackoff), sources...), nil
}

// New builds every stage from cfg.
func New(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	provider, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}

	covers, err := NewCoverClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		Config:   cfg,
		Provider: provider,
		Prober:   probe.New(provider, cfg.InferenceModel, cfg.HTTPTimeout),
		Fetcher:  images.NewFetcher(cfg.HTTPTimeout),
		Stages: scan.Stages{
			Encoder:    imaging.NewEncoder(cfg.JPEGQuality, cfg.ImageMaxDimension),
			Extractor:  extraction.NewClient(cfg.ExtractionEndpoint, cfg.HTTPTimeout),
			Identifier: cataloging.NewService(provider, cfg.InferenceModel),
			Covers:     covers,
		},
	}
	if !cfg.SkipProbe {
		p.Stages.Prober = p.Prober
	}

	slog.Info("Scan pipeline configured",
		"provider", cfg.InferenceProvider,
		"model", cfg.InferenceModel,
		"ocr_endpoint", cfg.ExtractionEndpoint,
		"openlibrary_fallback", cfg.CoverOpenLibraryFallback,
		"skip_probe", cfg.SkipProbe)

	return p, nil
}

// NewScanner creates a scanner over the pipeline's stages. Each scanner owns
// its own session, so concurrent callers need one each.
func (p *Pipeline) NewScanner(store *storage.SessionStore) *scan.Scanner {
	return scan.NewScanner(p.Stages, store, scan.Options{
		Timeout:   p.Config.ScanTimeout,
		SkipProbe: p.Config.SkipProbe,
	})
}
