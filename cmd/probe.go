package cmd

import (
	"fmt"

	"github.com/lehigh-university-libraries/coverscan/internal/config"
	"github.com/lehigh-university-libraries/coverscan/internal/pipeline"
	"github.com/lehigh-university-libraries/coverscan/internal/probe"
	"github.com/spf13/cobra"
)

func newProbeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check that the AI endpoint answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			provider, err := pipeline.NewProvider(cfg)
			if err != nil {
				return err
			}

			liveness := probe.New(provider, cfg.InferenceModel, cfg.HTTPTimeout).Check(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), liveness)

			if !probe.Online(liveness) {
				return fmt.Errorf("%s endpoint is unreachable", cfg.InferenceProvider)
			}
			return nil
		},
	}

	return cmd
}
