package handlers

import (
	"net/http"

	"github.com/lehigh-university-libraries/coverscan/internal/probe"
)

// HandleProbe reports whether the AI endpoint is reachable.
func (h *Handler) HandleProbe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.prober == nil {
		h.writeError(w, "Probe disabled", http.StatusNotFound)
		return
	}

	liveness := h.prober.Check(r.Context())
	h.writeJSON(w, map[string]any{
		"liveness": liveness,
		"online":   probe.Online(liveness),
	})
}
