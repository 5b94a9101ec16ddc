package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lehigh-university-libraries/coverscan/internal/config"
	"github.com/lehigh-university-libraries/coverscan/internal/models"
	"github.com/lehigh-university-libraries/coverscan/internal/pipeline"
	"github.com/spf13/cobra"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "Scan a single cover photo and print the session as JSON",
		Args:  cobra.ExactArgs(1),
		Example: `  coverscan scan ./cover.jpg
  coverscan scan --log-level debug ./cover.jpg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			p, err := pipeline.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			session := p.NewScanner(nil).Scan(cmd.Context(), image)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			if err := enc.Encode(session); err != nil {
				return fmt.Errorf("failed to encode session: %w", err)
			}

			if session.Stage == models.StageErrored {
				return fmt.Errorf("scan failed: %s", session.Error)
			}
			return nil
		},
	}

	return cmd
}
