package evalcmd

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/lehigh-university-libraries/coverscan/internal/eval/metadata"
	"github.com/lehigh-university-libraries/coverscan/internal/eval/results"
	"gopkg.in/yaml.v3"
)

// WriteReport prints a results file in the requested format.
func WriteReport(w io.Writer, report *results.Report, format string, details bool) error {
	switch format {
	case "text":
		report.PrintSummary(w)
		if details {
			report.PrintDetails(w)
		}
		return nil
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return enc.Close()
	case "csv":
		return writeCSV(w, report)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeCSV(w io.Writer, report *results.Report) error {
	writer := csv.NewWriter(w)

	header := []string{"id", "stage", "identified", "overall_score"}
	for _, field := range metadata.Fields {
		header = append(header, field+"_score")
	}
	header = append(header, "cover_uri", "error")
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, item := range report.Results {
		row := []string{item.ID, string(item.Stage), fmt.Sprintf("%t", item.Identified)}

		if item.Comparison != nil {
			row = append(row, fmt.Sprintf("%.4f", item.Comparison.OverallScore))
		} else {
			row = append(row, "")
		}
		for _, field := range metadata.Fields {
			if item.Comparison != nil {
				if fc, ok := item.Comparison.Fields[field]; ok && fc.Scored() {
					row = append(row, fmt.Sprintf("%.4f", fc.Score))
					continue
				}
			}
			row = append(row, "")
		}

		coverURI := ""
		if item.Record != nil {
			coverURI = item.Record.CoverURI
		}
		row = append(row, coverURI, item.Error)

		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
