package results

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/lehigh-university-libraries/coverscan/internal/eval/metadata"
	"github.com/lehigh-university-libraries/coverscan/internal/models"
	"gopkg.in/yaml.v3"
)

// RunConfig records how an evaluation run was configured.
type RunConfig struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	OCRURL      string `yaml:"ocrurl,omitempty"`
	DatasetPath string `yaml:"datasetpath"`
	SampleSize  int    `yaml:"samplesize"`
	Concurrency int    `yaml:"concurrency"`
	Timestamp   string `yaml:"timestamp"`
}

// ItemResult is the outcome of scanning one dataset item.
type ItemResult struct {
	ID            string                     `yaml:"id"`
	ExpectedTitle string                     `yaml:"expectedtitle"`
	Stage         models.Stage               `yaml:"stage"`
	Identified    bool                       `yaml:"identified"`
	Error         string                     `yaml:"error,omitempty"`
	Lines         []string                   `yaml:"lines,omitempty"`
	Record        *models.BookRecord         `yaml:"record,omitempty"`
	Comparison    *metadata.RecordComparison `yaml:"comparison,omitempty"`
	DurationMS    int64                      `yaml:"durationms"`
}

// Failed reports whether the scan never produced a record.
func (r ItemResult) Failed() bool {
	return r.Error != "" || r.Stage == models.StageErrored
}

// Summary aggregates the scores of a run.
type Summary struct {
	TotalItems      int                `yaml:"totalitems"`
	Completed       int                `yaml:"completed"`
	Failed          int                `yaml:"failed"`
	Identified      int                `yaml:"identified"`
	IdentifiedRate  float64            `yaml:"identifiedrate"`
	CoverRate       float64            `yaml:"coverrate"`
	AverageScore    float64            `yaml:"averagescore"`
	MedianScore     float64            `yaml:"medianscore"`
	MinScore        float64            `yaml:"minscore"`
	MaxScore        float64            `yaml:"maxscore"`
	FieldAccuracies map[string]float64 `yaml:"fieldaccuracies"`
	AverageDuration int64              `yaml:"averagedurationms"`
}

// Report is the complete results document written by `eval run`.
type Report struct {
	Config  RunConfig    `yaml:"config"`
	Summary Summary      `yaml:"summary"`
	Results []ItemResult `yaml:"results"`
}

// Summarize calculates summary statistics over completed items. Failed items
// count toward the totals and score zero.
func Summarize(items []ItemResult) Summary {
	summary := Summary{
		TotalItems:      len(items),
		FieldAccuracies: make(map[string]float64),
	}

	var scores []float64
	var covers int
	var totalDuration int64
	fieldScores := make(map[string][]float64)

	for _, item := range items {
		totalDuration += item.DurationMS

		if item.Failed() {
			summary.Failed++
			scores = append(scores, 0)
			continue
		}

		summary.Completed++
		if item.Identified {
			summary.Identified++
		}
		if item.Record != nil && item.Record.CoverURI != "" {
			covers++
		}

		if item.Comparison == nil {
			continue
		}
		scores = append(scores, item.Comparison.OverallScore)
		for name, field := range item.Comparison.Fields {
			if field.Scored() {
				fieldScores[name] = append(fieldScores[name], field.Score)
			}
		}
	}

	if len(items) > 0 {
		summary.IdentifiedRate = float64(summary.Identified) / float64(len(items))
		summary.CoverRate = float64(covers) / float64(len(items))
		summary.AverageDuration = totalDuration / int64(len(items))
	}

	if len(scores) > 0 {
		summary.AverageScore = average(scores)

		sort.Float64s(scores)
		mid := len(scores) / 2
		if len(scores)%2 == 0 {
			summary.MedianScore = (scores[mid-1] + scores[mid]) / 2
		} else {
			summary.MedianScore = scores[mid]
		}

		summary.MinScore = scores[0]
		summary.MaxScore = scores[len(scores)-1]
	}

	for field, fs := range fieldScores {
		summary.FieldAccuracies[field] = average(fs)
	}

	return summary
}

func average(scores []float64) float64 {
	var total float64
	for _, s := range scores {
		total += s
	}
	return total / float64(len(scores))
}

// Filename returns the default results file name for a run.
func Filename(dir, model string, at time.Time) string {
	if model == "" {
		model = "default"
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", filepath.Base(model), at.Format("2006-01-02_15-04-05")))
}

// Save writes the report as YAML, creating parent directories as needed.
func Save(path string, report *Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}

	return nil
}

// Load reads a report written by Save.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}

	var report Report
	if err := yaml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse results file: %w", err)
	}

	return &report, nil
}
