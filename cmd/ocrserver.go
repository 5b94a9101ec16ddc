package cmd

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/coverscan/internal/config"
	"github.com/lehigh-university-libraries/coverscan/internal/logging"
	"github.com/lehigh-university-libraries/coverscan/internal/ocr"
	"github.com/lehigh-university-libraries/coverscan/internal/pipeline"
	"github.com/spf13/cobra"
)

func newOCRServerCmd() *cobra.Command {
	var port string
	var backend string

	cmd := &cobra.Command{
		Use:   "ocr-server",
		Short: "Start the text extraction service",
		Long: `Starts the text extraction endpoint used by OCR_ENDPOINT.

POST {"image": "<base64>"} to /ocr. The reply is {"success": true, "text": "..."}
or {"success": false, "message": "..."}.

Backends:
  vision     Google Cloud Vision (GOOGLE_CREDENTIALS or GOOGLE_APPLICATION_CREDENTIALS)
  llm        the configured AI endpoint (CATALOGING_PROVIDER)
  tesseract  local Tesseract, requires a build with -tags tesseract`,
		Example: `  coverscan ocr-server --backend vision --port 8081`,
		RunE: func(cmd *cobra.Command, args []string) error {
			recognizer, err := newRecognizer(cmd, backend)
			if err != nil {
				return err
			}
			defer func() {
				if err := recognizer.Close(); err != nil {
					slog.Error("Failed to close OCR backend", "err", err)
				}
			}()

			mux := http.NewServeMux()
			mux.Handle("/ocr", ocr.NewHandler(recognizer))
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			server := &http.Server{
				Addr:    ":" + port,
				Handler: logging.Middleware(mux),
			}

			slog.Info("OCR backend ready", "backend", backend)
			return listenAndServe(cmd.Context(), server, "OCR service")
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8081", "Port to listen on")
	cmd.Flags().StringVar(&backend, "backend", ocr.BackendVision, "Recognition backend (vision, llm, tesseract)")

	return cmd
}

func newRecognizer(cmd *cobra.Command, backend string) (ocr.Recognizer, error) {
	switch backend {
	case ocr.BackendVision:
		return ocr.NewVisionRecognizer(cmd.Context())
	case ocr.BackendLLM:
		cfg := config.FromEnv()
		provider, err := pipeline.NewProvider(cfg)
		if err != nil {
			return nil, err
		}
		return ocr.NewLLMRecognizer(provider, cfg.InferenceModel), nil
	case ocr.BackendTesseract:
		return ocr.NewTesseractRecognizer()
	default:
		return nil, fmt.Errorf("unknown OCR backend %q", backend)
	}
}
