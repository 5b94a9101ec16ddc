package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/coverscan/internal/logging"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var logLevel string
	var logFormat string

	cmd := &cobra.Command{
		Use:   "coverscan",
		Short: "Identify Hebrew books from a photo of the cover",
		Long: `Coverscan identifies a book from a photo of its cover.

The photo is sent to a text extraction service, the recognized lines are
handed to an AI endpoint that infers the title, authors, publisher and year,
and a cover thumbnail is looked up by title.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			if !cmd.Flags().Changed("log-level") {
				if v := os.Getenv("LOG_LEVEL"); v != "" {
					logLevel = v
				}
			}
			return logging.Init(os.Stderr, logLevel, logFormat)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newOCRServerCmd())
	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newProbeCmd())
	cmd.AddCommand(newEvalCmd())

	return cmd
}
