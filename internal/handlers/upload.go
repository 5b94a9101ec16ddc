package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/coverscan/internal/logging"
)

// HandleScan starts a scan from an uploaded file or an image URL. With
// ?wait=true the finished session is returned; otherwise the new session is
// returned immediately with 202 Accepted.
func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var (
		image  []byte
		source string
		ok     bool
	)
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		image, ok = h.imageFromURL(w, r)
		source = "url"
	} else {
		image, ok = h.imageFromUpload(w, r)
		source = "upload"
	}
	if !ok {
		return
	}

	logger := logging.FromContext(r.Context())
	if r.URL.Query().Get("wait") == "true" {
		session := h.scanner.Scan(r.Context(), image)
		logger.Info("Scan completed", "session_id", session.ID, "source", source, "stage", session.Stage)
		h.writeJSON(w, session)
		return
	}

	session := h.scanner.Start(image)
	logger.Info("Scan started", "session_id", session.ID, "source", source)
	h.writeJSONStatus(w, http.StatusAccepted, session)
}

func (h *Handler) imageFromURL(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	var request struct {
		ImageURL string `json:"image_url"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}

	if request.ImageURL == "" {
		h.writeError(w, "image_url is required", http.StatusBadRequest)
		return nil, false
	}

	image, err := h.downloadImageFromURL(r.Context(), request.ImageURL)
	if err != nil {
		h.writeError(w, "Failed to process image URL: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return image, true
}

func (h *Handler) imageFromUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	defer file.Close()

	image, err := readImageFile(file)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	logging.FromContext(r.Context()).Debug("Received upload", "filename", header.Filename, "bytes", len(image))
	return image, true
}
