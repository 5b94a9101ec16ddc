package cmd

import (
	"github.com/lehigh-university-libraries/coverscan/internal/evalcmd"
	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Cover identification evaluation tools",
		Long: `Evaluation tools for measuring how accurately covers are identified.

Runs a labeled dataset of cover photos through the scan pipeline, scores the
identified metadata against the labels and reports the results.`,
	}

	cmd.AddCommand(evalcmd.NewRunCmd())
	cmd.AddCommand(evalcmd.NewReportCmd())
	cmd.AddCommand(evalcmd.NewInspectCmd())

	return cmd
}
