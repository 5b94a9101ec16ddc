package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
)

func TestNewLoader(t *testing.T) {
	path := "./covers.yaml"
	loader := NewLoader(path)

	if loader.datasetPath != path {
		t.Errorf("Expected path %s, got %s", path, loader.datasetPath)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "covers.yaml", `items:
  - id: amichai
    image_path: covers/amichai.jpg
    title: שירי אהבה
    authors: [יהודה עמיחי]
    publisher: שוקן
    year: "1986"
  - image_url: https://example.com/cover.jpg
    title: הכלב
`)

	items, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	if items[0].Title != "שירי אהבה" || len(items[0].Authors) != 1 || items[0].Authors[0] != "יהודה עמיחי" {
		t.Errorf("Unexpected first item %+v", items[0])
	}
	if items[0].Year != "1986" {
		t.Errorf("Expected year 1986, got %q", items[0].Year)
	}
	if items[1].ID != "item-2" {
		t.Errorf("Expected generated id item-2, got %q", items[1].ID)
	}
}

func TestLoadJSONLSample(t *testing.T) {
	path := writeFile(t, "covers.jsonl", `{"id":"1","image_path":"a.jpg","title":"Test Book","authors":["Test Author"]}

{"id":"2","image_path":"b.jpg","title":"Another Book"}
{"id":"3","isbn":"9789650700000","title":"Third Book"}
`)

	loader := NewLoader(path)

	items, err := loader.LoadSample(2)
	if err != nil {
		t.Fatalf("LoadSample failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	if items[0].ID != "1" || items[1].ID != "2" {
		t.Errorf("Unexpected ids %s, %s", items[0].ID, items[1].ID)
	}

	all, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 items, got %d", len(all))
	}
	if !all[2].HasImageSource() {
		t.Error("Expected isbn to count as an image source")
	}
}

func TestLoadJSONLMalformed(t *testing.T) {
	path := writeFile(t, "covers.jsonl", "{\"id\":\"1\",\"title\":\"ok\"}\nnot json\n")

	if _, err := NewLoader(path).Load(); err == nil {
		t.Error("Expected parse error, got nil")
	}
}

func TestLoadParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "covers.parquet")
	rows := []Item{
		{ID: "1", ImagePath: "a.jpg", Title: "שירי אהבה", Authors: []string{"יהודה עמיחי"}, Year: "1986"},
		{ID: "2", ImagePath: "b.jpg", Title: "הכלב"},
		{ID: "3", ISBN: "9789650700000", Title: "Third"},
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		t.Fatalf("Failed to write parquet: %v", err)
	}

	items, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}
	if items[0].Title != "שירי אהבה" || len(items[0].Authors) != 1 {
		t.Errorf("Unexpected first item %+v", items[0])
	}

	sample, err := NewLoader(path).LoadSample(1)
	if err != nil {
		t.Fatalf("LoadSample failed: %v", err)
	}
	if len(sample) != 1 {
		t.Errorf("Expected 1 item, got %d", len(sample))
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	loader := NewLoader("test.txt")

	if _, err := loader.Load(); err == nil {
		t.Error("Expected error for unsupported format, got nil")
	}
	if _, err := loader.LoadSample(10); err == nil {
		t.Error("Expected error for unsupported format in LoadSample, got nil")
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	for _, path := range []string{"/nonexistent/file.jsonl", "/nonexistent/file.yaml", "/nonexistent/file.parquet"} {
		if _, err := NewLoader(path).Load(); err == nil {
			t.Errorf("Expected error for %s, got nil", path)
		}
	}
}

func TestExpected(t *testing.T) {
	item := Item{ID: "1", Title: "שירי אהבה", Authors: []string{"יהודה עמיחי"}, Publisher: "שוקן", Year: "1986"}
	rec := item.Expected()
	if rec.Title != item.Title || rec.Publisher != "שוקן" || rec.Year != "1986" || len(rec.Authors) != 1 {
		t.Errorf("Unexpected record %+v", rec)
	}
	if (&Item{Title: "x"}).HasImageSource() {
		t.Error("Expected no image source")
	}
}
