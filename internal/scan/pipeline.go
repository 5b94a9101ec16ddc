// Package scan drives a single cover image through the scan pipeline:
// encode, extract text, probe the AI endpoint, infer metadata and look up a
// cover, in that order.
package scan

import (
	"context"
	"io"

	"github.com/lehigh-university-libraries/coverscan/internal/imaging"
	"github.com/lehigh-university-libraries/coverscan/internal/models"
)

// Encoder normalizes a source image into a payload every stage can read.
type Encoder interface {
	Encode(r io.Reader) (*imaging.Payload, error)
}

// Extractor turns an encoded image into ordered OCR lines.
type Extractor interface {
	ExtractLines(ctx context.Context, imageBase64 string) ([]string, error)
}

// Prober reports whether the AI endpoint is reachable. It never fails.
type Prober interface {
	Check(ctx context.Context) string
}

// Identifier infers a book record from OCR lines.
type Identifier interface {
	Identify(ctx context.Context, lines []string) (*models.BookRecord, error)
}

// CoverFinder returns a thumbnail URL for a title, or "" when there is none.
type CoverFinder interface {
	Lookup(ctx context.Context, title string) string
}

// Stages are the collaborators of a scan. Prober may be nil, in which case
// the probe stage is skipped.
type Stages struct {
	Encoder    Encoder
	Extractor  Extractor
	Prober     Prober
	Identifier Identifier
	Covers     CoverFinder
}

// stageOrder is the only path through the state machine.
var stageOrder = []models.Stage{
	models.StageIdle,
	models.StageEncoding,
	models.StageExtracting,
	models.StageProbeLiveness,
	models.StageInferring,
	models.StageLookingUpCover,
	models.StageDone,
}

func stageIndex(stage models.Stage) int {
	for i, s := range stageOrder {
		if s == stage {
			return i
		}
	}
	return -1
}

// validTransition reports whether a session may move from one stage to
// another. Stages only move forward, the probe stage may be skipped, and any
// non-terminal stage may error.
func validTransition(from, to models.Stage) bool {
	if from.Terminal() {
		return false
	}
	if to == models.StageErrored {
		return true
	}

	fromIdx, toIdx := stageIndex(from), stageIndex(to)
	if fromIdx < 0 || toIdx < 0 {
		return false
	}
	if toIdx == fromIdx+1 {
		return true
	}
	return from == models.StageExtracting && to == models.StageInferring
}
