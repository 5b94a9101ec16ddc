package ocr

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// MaxRequestBytes bounds the JSON request body.
const MaxRequestBytes = 20 * 1024 * 1024

// Request is the body accepted by the handler.
type Request struct {
	Image string `json:"image"`
}

// Response is the body returned by the handler.
type Response struct {
	Success bool   `json:"success"`
	Text    string `json:"text,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

// Handler serves the text extraction endpoint.
type Handler struct {
	recognizer Recognizer
}

// NewHandler returns a handler backed by recognizer.
func NewHandler(recognizer Recognizer) *Handler {
	return &Handler{recognizer: recognizer}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		writeJSON(w, http.StatusMethodNotAllowed, Response{Success: false, Error: "Method not allowed"})
		return
	}

	image, err := decodeRequest(w, r)
	if err != nil {
		slog.Error("Invalid OCR request", "err", err)
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Invalid request",
			Details: err.Error(),
		})
		return
	}

	text, err := h.recognizer.Recognize(r.Context(), image)
	if err != nil {
		slog.Error("Text recognition failed", "err", err, "bytes", len(image))
		writeJSON(w, http.StatusOK, Response{Success: false, Message: err.Error()})
		return
	}

	slog.Info("Recognized text", "bytes", len(image), "chars", len([]rune(text)))
	writeJSON(w, http.StatusOK, Response{Success: true, Text: text})
}

func decodeRequest(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBytes)).Decode(&req); err != nil {
		return nil, err
	}

	encoded := strings.TrimSpace(req.Image)
	// Browsers send canvas output as a data URL.
	if i := strings.Index(encoded, ";base64,"); i >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[i+len(";base64,"):]
	}
	if encoded == "" {
		return nil, errors.New("image is required")
	}

	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	return image, nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}
