package results

import (
	"fmt"
	"io"
	"strings"

	"github.com/lehigh-university-libraries/coverscan/internal/eval/metadata"
)

// PrintSummary prints a human-readable summary of the run
func (r *Report) PrintSummary(w io.Writer) {
	s := r.Summary
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintln(w, "COVER SCAN EVALUATION SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "Timestamp:   %s\n", r.Config.Timestamp)
	fmt.Fprintf(w, "Provider:    %s\n", r.Config.Provider)
	fmt.Fprintf(w, "Model:       %s\n", r.Config.Model)
	fmt.Fprintf(w, "Dataset:     %s\n", r.Config.DatasetPath)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Total Items:      %d\n", s.TotalItems)
	fmt.Fprintf(w, "Completed:        %d\n", s.Completed)
	fmt.Fprintf(w, "Failed:           %d\n", s.Failed)
	fmt.Fprintf(w, "Identified:       %d (%.1f%%)\n", s.Identified, s.IdentifiedRate*100)
	fmt.Fprintf(w, "Cover Found:      %.1f%%\n", s.CoverRate*100)
	fmt.Fprintf(w, "Average Duration: %dms\n", s.AverageDuration)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Average Score:    %.2f%%\n", s.AverageScore*100)
	fmt.Fprintf(w, "Median Score:     %.2f%%\n", s.MedianScore*100)
	fmt.Fprintf(w, "Min Score:        %.2f%%\n", s.MinScore*100)
	fmt.Fprintf(w, "Max Score:        %.2f%%\n", s.MaxScore*100)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Field Accuracies:")
	for _, field := range metadata.Fields {
		if acc, ok := s.FieldAccuracies[field]; ok {
			fmt.Fprintf(w, "  %-10s %.2f%%\n", field+":", acc*100)
		}
	}
	fmt.Fprintln(w, strings.Repeat("=", 70))
}

// PrintDetails prints each item with its field comparisons.
func (r *Report) PrintDetails(w io.Writer) {
	for i, item := range r.Results {
		fmt.Fprintf(w, "\n[%d] %s  (%s, %dms)\n", i+1, item.ID, item.Stage, item.DurationMS)

		if item.Failed() {
			fmt.Fprintf(w, "  Error: %s\n", item.Error)
			continue
		}
		if item.Record != nil && item.Record.CoverURI != "" {
			fmt.Fprintf(w, "  Cover: %s\n", item.Record.CoverURI)
		}
		if item.Comparison == nil {
			continue
		}

		fmt.Fprintf(w, "  Overall Score: %.2f%%\n", item.Comparison.OverallScore*100)
		for _, name := range metadata.Fields {
			field, ok := item.Comparison.Fields[name]
			if !ok || !field.Scored() {
				continue
			}
			fmt.Fprintf(w, "  %-10s %.2f (%s)\n", name+":", field.Score, field.Match)
			if field.Match != metadata.MatchExact {
				fmt.Fprintf(w, "    Expected: %s\n", truncate(field.Expected, 80))
				fmt.Fprintf(w, "    Actual:   %s\n", truncate(field.Actual, 80))
			}
		}
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
