package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// Loader reads labeled covers from a dataset file.
type Loader struct {
	datasetPath string
}

// NewLoader creates a new dataset loader
func NewLoader(datasetPath string) *Loader {
	return &Loader{
		datasetPath: datasetPath,
	}
}

// Load loads every item from the dataset file (YAML, JSONL or Parquet).
func (l *Loader) Load() ([]Item, error) {
	return l.LoadSample(0)
}

// LoadSample loads at most limit items. A limit of zero or less loads all of them.
func (l *Loader) LoadSample(limit int) ([]Item, error) {
	ext := strings.ToLower(filepath.Ext(l.datasetPath))

	var (
		items []Item
		err   error
	)
	switch ext {
	case ".yaml", ".yml":
		items, err = l.loadYAML()
	case ".jsonl", ".json":
		items, err = l.loadJSONL(limit)
	case ".parquet":
		items, err = l.loadParquet(limit)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .yaml, .jsonl, .parquet)", ext)
	}
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	for i := range items {
		if items[i].ID == "" {
			items[i].ID = fmt.Sprintf("item-%d", i+1)
		}
	}

	slog.Debug("Loaded dataset", "path", l.datasetPath, "items", len(items))
	return items, nil
}

// loadYAML reads a document of the form `items: [...]`.
func (l *Loader) loadYAML() ([]Item, error) {
	data, err := os.ReadFile(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}

	var doc yamlDataset
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML dataset: %w", err)
	}

	return doc.Items, nil
}

// loadJSONL loads one item per line
func (l *Loader) loadJSONL(limit int) ([]Item, error) {
	slog.Debug("Opening JSONL file", "path", l.datasetPath)

	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	var items []Item
	scanner := bufio.NewScanner(file)

	const maxCapacity = 1024 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		if limit > 0 && len(items) >= limit {
			break
		}
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var item Item
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		items = append(items, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}

	return items, nil
}

// loadParquet loads items from a Parquet file in batches
func (l *Loader) loadParquet(limit int) ([]Item, error) {
	slog.Debug("Opening Parquet file", "path", l.datasetPath)

	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened successfully", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[Item](pf)
	defer reader.Close()

	var items []Item
	rows := make([]Item, 128)
	for limit <= 0 || len(items) < limit {
		n, err := reader.Read(rows)
		for _, row := range rows[:n] {
			row.Authors = append([]string(nil), row.Authors...)
			items = append(items, row)
		}
		if err != nil {
			break
		}
	}

	return items, nil
}
