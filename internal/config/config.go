package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the scan pipeline needs. It is built once at
// startup and handed to each client's constructor.
type Config struct {
	// Text extraction service
	ExtractionEndpoint string

	// AI endpoint
	InferenceProvider   string // gemini, openai, ollama
	InferenceEndpoint   string
	InferenceCredential string
	InferenceModel      string

	// Cover lookup
	CoverEndpoint            string
	CoverAPIKey              string
	CoverOpenLibraryFallback bool
	CoverMaxAttempts         int
	CoverBackoff             time.Duration

	// Image encoding
	ImageMaxDimension int
	JPEGQuality       int

	HTTPTimeout time.Duration
	ScanTimeout time.Duration
	SkipProbe   bool
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// FromEnv reads the configuration from the environment without validating
// it, for commands that need only part of it.
func FromEnv() *Config {
	provider := strings.ToLower(getEnv("CATALOGING_PROVIDER", "gemini"))

	return &Config{
		ExtractionEndpoint:       getEnv("OCR_ENDPOINT", ""),
		InferenceProvider:        provider,
		InferenceEndpoint:        getEnv("INFERENCE_ENDPOINT", defaultEndpoint(provider)),
		InferenceCredential:      credentialFor(provider),
		InferenceModel:           getEnv("INFERENCE_MODEL", DefaultModel(provider)),
		CoverEndpoint:            getEnv("COVER_ENDPOINT", ""),
		CoverAPIKey:              getEnv("GOOGLE_BOOKS_API_KEY", ""),
		CoverOpenLibraryFallback: getBool("COVER_OPENLIBRARY_FALLBACK", false),
		CoverMaxAttempts:         getInt("COVER_MAX_ATTEMPTS", 3),
		CoverBackoff:             getDuration("COVER_BACKOFF", time.Second),
		ImageMaxDimension:        getInt("IMAGE_MAX_DIMENSION", 0),
		JPEGQuality:              getInt("JPEG_QUALITY", 90),
		HTTPTimeout:              getDuration("HTTP_TIMEOUT", 30*time.Second),
		ScanTimeout:              getDuration("SCAN_TIMEOUT", 2*time.Minute),
		SkipProbe:                getBool("SKIP_PROBE", false),
	}
}

// Validate reports missing or inconsistent settings. A missing endpoint or
// credential is a startup error, never something to retry at runtime.
func (c *Config) Validate() error {
	if c.ExtractionEndpoint == "" {
		return fmt.Errorf("OCR_ENDPOINT is required")
	}

	switch c.InferenceProvider {
	case "gemini":
		if c.InferenceCredential == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	case "openai":
		if c.InferenceCredential == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	case "ollama":
		if c.InferenceEndpoint == "" {
			return fmt.Errorf("OLLAMA_URL is required for the ollama provider")
		}
	default:
		return fmt.Errorf("unsupported provider: %s", c.InferenceProvider)
	}

	if c.CoverMaxAttempts < 1 {
		return fmt.Errorf("COVER_MAX_ATTEMPTS must be at least 1")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("JPEG_QUALITY must be between 1 and 100")
	}
	if c.ImageMaxDimension < 0 {
		return fmt.Errorf("IMAGE_MAX_DIMENSION must not be negative")
	}

	return nil
}

// DefaultModel returns the model used when INFERENCE_MODEL is unset.
func DefaultModel(provider string) string {
	switch provider {
	case "gemini":
		return getEnv("GEMINI_MODEL", "gemini-2.0-flash")
	case "openai":
		return getEnv("OPENAI_MODEL", "gpt-4o")
	case "ollama":
		return getEnv("OLLAMA_MODEL", "mistral-small3.2:24b")
	default:
		return ""
	}
}

func defaultEndpoint(provider string) string {
	switch provider {
	case "openai":
		return "https://api.openai.com/v1/chat/completions"
	case "ollama":
		host := getEnv("OLLAMA_URL", getEnv("OLLAMA_HOST", "http://localhost:11434"))
		return strings.TrimSuffix(host, "/") + "/api/generate"
	default:
		// gemini uses the SDK's default endpoint
		return ""
	}
}

func credentialFor(provider string) string {
	switch provider {
	case "gemini":
		return getEnv("GEMINI_API_KEY", "")
	case "openai":
		return getEnv("OPENAI_API_KEY", "")
	default:
		return ""
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
