package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// MaxUploadBytes bounds uploaded images.
const MaxUploadBytes = 10 * 1024 * 1024

var errFileTooLarge = errors.New("File too large (max 10MB)")

func readImageFile(r io.Reader) ([]byte, error) {
	fileData, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("Failed to read file contents: %w", err)
	}

	if len(fileData) > MaxUploadBytes {
		return nil, errFileTooLarge
	}
	if len(fileData) == 0 {
		return nil, errors.New("File is empty")
	}

	return fileData, nil
}

func (h *Handler) downloadImageFromURL(ctx context.Context, imageURL string) ([]byte, error) {
	if h.fetcher == nil {
		return nil, errors.New("image URLs are not supported")
	}
	return h.fetcher.Fetch(ctx, imageURL)
}
