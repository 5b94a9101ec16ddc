package cmd

import (
	"net/http"

	"github.com/lehigh-university-libraries/coverscan/internal/config"
	"github.com/lehigh-university-libraries/coverscan/internal/handlers"
	"github.com/lehigh-university-libraries/coverscan/internal/logging"
	"github.com/lehigh-university-libraries/coverscan/internal/pipeline"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the scan API server",
		Long: `Starts the scan API on the specified port.

POST a cover photo to /api/scan (multipart field "file", or JSON
{"image_url": "..."}) and poll /api/session for the current scan.`,
		Example: `  # Start server on default port 8888
  coverscan serve

  # Start server on custom port
  coverscan serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			p, err := pipeline.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			handler := handlers.New(p.NewScanner(nil), p.Prober, p.Fetcher)
			mux := http.NewServeMux()
			handler.Routes(mux)

			server := &http.Server{
				Addr:    ":" + port,
				Handler: logging.Middleware(mux),
			}

			return listenAndServe(cmd.Context(), server, "Coverscan API")
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")

	return cmd
}
