package models

import "time"

// BookRecord is the bibliographic metadata identified for one scan.
// Every field is optional; an empty field means "unknown".
type BookRecord struct {
	Title       string   `json:"title,omitempty" yaml:"title,omitempty"`
	Authors     []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Publisher   string   `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Year        string   `json:"year,omitempty" yaml:"year,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Language    string   `json:"language,omitempty" yaml:"language,omitempty"`
	CoverURI    string   `json:"cover_uri,omitempty" yaml:"cover_uri,omitempty"`
}

// NotIdentifiedTitle is the title of the placeholder record.
const NotIdentifiedTitle = "לא זוהה / Not identified"

// NotIdentifiedRecord returns the placeholder shown when the pipeline ran
// correctly but no title could be identified.
func NotIdentifiedRecord() *BookRecord {
	return &BookRecord{
		Title:       NotIdentifiedTitle,
		Description: "The book could not be identified from the cover text.",
	}
}

// Stage is a step of the scan state machine.
type Stage string

const (
	StageIdle           Stage = "idle"
	StageEncoding       Stage = "encoding"
	StageExtracting     Stage = "extracting"
	StageProbeLiveness  Stage = "probe_liveness"
	StageInferring      Stage = "inferring"
	StageLookingUpCover Stage = "looking_up_cover"
	StageDone           Stage = "done"
	StageErrored        Stage = "errored"
)

// Terminal reports whether no further transitions follow s.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageErrored
}

// ScanSession is the state of a single scan. It is created empty when an
// image is submitted and discarded when the next scan starts.
type ScanSession struct {
	ID         string      `json:"id"`
	Stage      Stage       `json:"stage"`
	Lines      []string    `json:"lines,omitempty"`
	Liveness   string      `json:"liveness,omitempty"`
	Record     *BookRecord `json:"record,omitempty"`
	Identified bool        `json:"identified"`
	Error      string      `json:"error,omitempty"`
	InProgress bool        `json:"in_progress"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at,omitempty"`

	// Err is the underlying failure, kept for callers that need to match on it.
	Err error `json:"-"`
}

// Clone returns a deep copy so readers never share slices with the writer.
func (s *ScanSession) Clone() *ScanSession {
	if s == nil {
		return nil
	}
	c := *s
	if s.Lines != nil {
		c.Lines = append([]string(nil), s.Lines...)
	}
	if s.Record != nil {
		r := *s.Record
		if s.Record.Authors != nil {
			r.Authors = append([]string(nil), s.Record.Authors...)
		}
		c.Record = &r
	}
	return &c
}
