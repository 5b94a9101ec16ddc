package evalcmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/coverscan/internal/config"
	"github.com/lehigh-university-libraries/coverscan/internal/eval/dataset"
	"github.com/lehigh-university-libraries/coverscan/internal/eval/results"
	"github.com/lehigh-university-libraries/coverscan/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	var datasetPath string
	var output string
	var sampleSize int
	var concurrency int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan a labeled dataset and score the identified metadata",
		Long: `Scan every cover in a labeled dataset through the full pipeline and compare
the identified title, authors, publisher and year against the labels.

The dataset may be YAML (items: [...]), JSONL or Parquet. Each item needs an
image_path (relative to the dataset file), an image_url or an isbn.`,
		Example: `  # Evaluate the first 10 covers
  coverscan eval run --dataset ./covers.yaml --sample 10

  # Evaluate everything, four scans at a time
  coverscan eval run --dataset ./covers.parquet --concurrency 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(datasetPath); err != nil {
				return fmt.Errorf("dataset file not found: %s", datasetPath)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			items, err := dataset.NewLoader(datasetPath).LoadSample(sampleSize)
			if err != nil {
				return fmt.Errorf("failed to load dataset: %w", err)
			}

			p, err := pipeline.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			runner := &Runner{
				NewScanner:  func() Scanner { return p.NewScanner(nil) },
				Images:      p.Fetcher,
				BaseDir:     filepath.Dir(datasetPath),
				Concurrency: concurrency,
			}

			items = withImageSource(items)
			itemResults, err := runner.Run(cmd.Context(), items)
			if err != nil {
				return err
			}

			now := time.Now()
			report := &results.Report{
				Config: results.RunConfig{
					Provider:    cfg.InferenceProvider,
					Model:       cfg.InferenceModel,
					OCRURL:      cfg.ExtractionEndpoint,
					DatasetPath: datasetPath,
					SampleSize:  len(items),
					Concurrency: concurrency,
					Timestamp:   now.Format("2006-01-02_15-04-05"),
				},
				Summary: results.Summarize(itemResults),
				Results: itemResults,
			}

			if output == "" {
				output = results.Filename("evals", cfg.InferenceModel, now)
			}
			if err := results.Save(output, report); err != nil {
				return err
			}

			report.PrintSummary(cmd.OutOrStdout())
			absPath, _ := filepath.Abs(output)
			fmt.Fprintf(cmd.OutOrStdout(), "\nResults saved to: %s\n", absPath)
			fmt.Fprintf(cmd.OutOrStdout(), "Generate a detailed report with:\n  coverscan eval report --results %s\n", output)

			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to a YAML, JSONL or Parquet dataset (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Results file (default evals/<model>-<timestamp>.yaml)")
	cmd.Flags().IntVar(&sampleSize, "sample", 0, "Number of items to evaluate (0 for all)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "Number of scans to run at once")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	var resultsPath string
	var format string
	var details bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the summary and per-item details of an evaluation run",
		Example: `  coverscan eval report --results evals/gemini-2.0-flash-2026-01-02_03-04-05.yaml
  coverscan eval report --results run.yaml --format csv > run.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := results.Load(resultsPath)
			if err != nil {
				return err
			}
			return WriteReport(cmd.OutOrStdout(), report, format, details)
		},
	}

	cmd.Flags().StringVar(&resultsPath, "results", "", "Results YAML written by eval run (required)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, yaml, csv)")
	cmd.Flags().BoolVar(&details, "details", true, "Include per-item details in text output")
	_ = cmd.MarkFlagRequired("results")

	return cmd
}

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	var datasetPath string
	var limit int

	cmd := &cobra.Command{
		Use:     "inspect",
		Short:   "List dataset items and their labels",
		Example: `  coverscan eval inspect --dataset ./covers.yaml --limit 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := dataset.NewLoader(datasetPath).LoadSample(limit)
			if err != nil {
				return fmt.Errorf("failed to load dataset: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Loaded %d items from %s\n", len(items), datasetPath)
			fmt.Fprintln(w, strings.Repeat("=", 80))
			for i, item := range items {
				fmt.Fprintf(w, "ITEM %d/%d: %s\n", i+1, len(items), item.ID)
				fmt.Fprintf(w, "  Title:     %s\n", item.Title)
				if len(item.Authors) > 0 {
					fmt.Fprintf(w, "  Authors:   %s\n", strings.Join(item.Authors, "; "))
				}
				if item.Publisher != "" {
					fmt.Fprintf(w, "  Publisher: %s\n", item.Publisher)
				}
				if item.Year != "" {
					fmt.Fprintf(w, "  Year:      %s\n", item.Year)
				}
				fmt.Fprintf(w, "  Image:     %s\n", imageSource(item))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to a YAML, JSONL or Parquet dataset (required)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of items to list (0 for all)")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

func imageSource(item dataset.Item) string {
	switch {
	case item.ImagePath != "":
		return item.ImagePath
	case item.ImageURL != "":
		return item.ImageURL
	case item.ISBN != "":
		return "isbn:" + item.ISBN
	default:
		return "(none)"
	}
}

// withImageSource drops items that name no image and warns about each one.
func withImageSource(items []dataset.Item) []dataset.Item {
	kept := items[:0]
	for _, item := range items {
		if !item.HasImageSource() {
			fmt.Fprintf(os.Stderr, "Warning: item %s has no image_path, image_url or isbn\n", item.ID)
			continue
		}
		kept = append(kept, item)
	}
	return kept
}
