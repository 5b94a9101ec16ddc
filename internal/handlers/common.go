package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/coverscan/internal/models"
	"github.com/lehigh-university-libraries/coverscan/internal/scan"
)

// Scanner runs scans and exposes the current session.
type Scanner interface {
	Scan(ctx context.Context, image []byte) *models.ScanSession
	Start(image []byte) *models.ScanSession
	Current() (*models.ScanSession, bool)
}

// ImageFetcher downloads an image by URL.
type ImageFetcher interface {
	Fetch(ctx context.Context, imageURL string) ([]byte, error)
}

type Handler struct {
	scanner Scanner
	prober  scan.Prober
	fetcher ImageFetcher
}

// New creates the API handler. prober may be nil when probing is disabled.
func New(scanner Scanner, prober scan.Prober, fetcher ImageFetcher) *Handler {
	return &Handler{
		scanner: scanner,
		prober:  prober,
		fetcher: fetcher,
	}
}

// Routes registers the API on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/scan", h.HandleScan)
	mux.HandleFunc("/api/session", h.HandleSession)
	mux.HandleFunc("/api/session/", h.HandleSessionDetail)
	mux.HandleFunc("/api/probe", h.HandleProbe)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message, "status", code)
	http.Error(w, message, code)
}
