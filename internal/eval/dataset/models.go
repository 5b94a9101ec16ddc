package dataset

import (
	"strings"

	"github.com/lehigh-university-libraries/coverscan/internal/models"
)

// Item is one labeled cover in an evaluation dataset.
// Exactly one image source is needed: a local path, a URL, or an ISBN whose
// cover is fetched from Open Library.
type Item struct {
	ID        string   `json:"id" yaml:"id" parquet:"id"`
	ImagePath string   `json:"image_path,omitempty" yaml:"image_path,omitempty" parquet:"image_path,optional"`
	ImageURL  string   `json:"image_url,omitempty" yaml:"image_url,omitempty" parquet:"image_url,optional"`
	ISBN      string   `json:"isbn,omitempty" yaml:"isbn,omitempty" parquet:"isbn,optional"`
	Title     string   `json:"title" yaml:"title" parquet:"title"`
	Authors   []string `json:"authors,omitempty" yaml:"authors,omitempty" parquet:"authors,list"`
	Publisher string   `json:"publisher,omitempty" yaml:"publisher,omitempty" parquet:"publisher,optional"`
	Year      string   `json:"year,omitempty" yaml:"year,omitempty" parquet:"year,optional"`
}

// Expected returns the reference record the scan result is compared against.
func (i *Item) Expected() *models.BookRecord {
	return &models.BookRecord{
		Title:     i.Title,
		Authors:   i.Authors,
		Publisher: i.Publisher,
		Year:      i.Year,
	}
}

// HasImageSource reports whether the item names somewhere to read its cover from.
func (i *Item) HasImageSource() bool {
	return strings.TrimSpace(i.ImagePath) != "" ||
		strings.TrimSpace(i.ImageURL) != "" ||
		strings.TrimSpace(i.ISBN) != ""
}

// yamlDataset is the document layout of a .yaml dataset file.
type yamlDataset struct {
	Items []Item `yaml:"items"`
}
