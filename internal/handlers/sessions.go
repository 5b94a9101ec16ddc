package handlers

import (
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/coverscan/internal/models"
)

// HandleSession returns the current scan session.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, ok := h.scanner.Current()
	if !ok {
		h.writeError(w, "No scan session", http.StatusNotFound)
		return
	}
	h.writeJSON(w, session)
}

// HandleSessionDetail returns the current session if its ID matches the
// path. Superseded sessions are gone and answer 404.
func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := strings.TrimPrefix(r.URL.Path, "/api/session/")
	session, ok := h.getSessionOrError(w, sessionID)
	if !ok {
		return
	}
	h.writeJSON(w, session)
}

func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*models.ScanSession, bool) {
	session, exists := h.scanner.Current()
	if !exists || session.ID != sessionID {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}
