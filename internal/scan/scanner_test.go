package scan

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/coverscan/internal/cataloging"
	"github.com/lehigh-university-libraries/coverscan/internal/imaging"
	"github.com/lehigh-university-libraries/coverscan/internal/models"
	"github.com/lehigh-university-libraries/coverscan/internal/providers"
	"github.com/lehigh-university-libraries/coverscan/internal/scanerr"
	"github.com/lehigh-university-libraries/coverscan/internal/storage"
)

type fakeExtractor struct {
	lines  []string
	err    error
	calls  int
	during func()
}

func (f *fakeExtractor) ExtractLines(ctx context.Context, imageBase64 string) ([]string, error) {
	f.calls++
	if imageBase64 == "" {
		return nil, errors.New("empty payload")
	}
	if f.during != nil {
		f.during()
	}
	return f.lines, f.err
}

type fakeProber struct {
	reply string
	calls int
}

func (f *fakeProber) Check(ctx context.Context) string {
	f.calls++
	return f.reply
}

type fakeIdentifier struct {
	record *models.BookRecord
	err    error
	calls  int
	lines  []string
}

func (f *fakeIdentifier) Identify(ctx context.Context, lines []string) (*models.BookRecord, error) {
	f.calls++
	f.lines = lines
	return f.record, f.err
}

type fakeCovers struct {
	uri    string
	calls  int
	titles []string
}

func (f *fakeCovers) Lookup(ctx context.Context, title string) string {
	f.calls++
	f.titles = append(f.titles, title)
	return f.uri
}

type stubProvider struct {
	reply  string
	prompt string
}

func (s *stubProvider) Generate(ctx context.Context, req providers.Request) (string, error) {
	s.prompt = req.Prompt
	return s.reply, nil
}

func testImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 20), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

type recorder struct {
	transitions []string
}

func (r *recorder) record(session *models.ScanSession, from, to models.Stage) {
	r.transitions = append(r.transitions, string(from)+">"+string(to))
}

func TestScanEndToEnd(t *testing.T) {
	extractor := &fakeExtractor{lines: []string{"יהודה עמיחי", "שירי אהבה"}}
	provider := &stubProvider{reply: "```json\n{\"title\":\"שירי אהבה\",\"authors\":[\"יהודה עמיחי\"],\"publisher\":\"שוקן\",\"year\":1986}\n```"}
	covers := &fakeCovers{uri: "https://books.google.com/thumb.jpg"}
	prober := &fakeProber{reply: "OK"}
	rec := &recorder{}

	scanner := NewScanner(Stages{
		Encoder:    imaging.NewEncoder(90, 0),
		Extractor:  extractor,
		Prober:     prober,
		Identifier: cataloging.NewService(provider, "test-model"),
		Covers:     covers,
	}, storage.New(), Options{OnTransition: rec.record})

	session := scanner.Scan(context.Background(), testImage(t))

	if session.Stage != models.StageDone {
		t.Fatalf("Expected done, got %s (%s)", session.Stage, session.Error)
	}
	if !session.Identified || session.InProgress {
		t.Errorf("Expected identified and finished session, got %+v", session)
	}
	if !strings.Contains(session.Record.Title, "שירי אהבה") {
		t.Errorf("Unexpected title %q", session.Record.Title)
	}
	if len(session.Record.Authors) != 1 || session.Record.Authors[0] != "יהודה עמיחי" {
		t.Errorf("Unexpected authors %v", session.Record.Authors)
	}
	if len(covers.titles) != 1 || covers.titles[0] != session.Record.Title {
		t.Errorf("Expected title %q as the cover query, got %v", session.Record.Title, covers.titles)
	}
	if session.Record.CoverURI != "https://books.google.com/thumb.jpg" {
		t.Errorf("Unexpected cover %q", session.Record.CoverURI)
	}
	if session.Liveness != "OK" {
		t.Errorf("Expected liveness to be recorded, got %q", session.Liveness)
	}
	if !strings.Contains(provider.prompt, "יהודה עמיחי\nשירי אהבה") {
		t.Error("Expected OCR lines in the inference prompt")
	}

	expected := []string{
		"idle>encoding",
		"encoding>extracting",
		"extracting>probe_liveness",
		"probe_liveness>inferring",
		"inferring>looking_up_cover",
		"looking_up_cover>done",
	}
	if strings.Join(rec.transitions, ",") != strings.Join(expected, ",") {
		t.Errorf("Expected transitions %v, got %v", expected, rec.transitions)
	}

	current, ok := scanner.Current()
	if !ok || current.ID != session.ID || current.Stage != models.StageDone {
		t.Errorf("Expected the finished session to be current, got %+v", current)
	}
}

func TestScanStopsAfterFailure(t *testing.T) {
	tests := []struct {
		name         string
		image        []byte
		extractor    *fakeExtractor
		identifier   *fakeIdentifier
		want         error
		wantExtract  int
		wantIdentify int
	}{
		{
			name:         "undecodable image",
			image:        []byte("not an image"),
			extractor:    &fakeExtractor{lines: []string{"ab"}},
			identifier:   &fakeIdentifier{record: &models.BookRecord{Title: "T"}},
			want:         scanerr.ErrDecode,
			wantExtract:  0,
			wantIdentify: 0,
		},
		{
			name:         "no text",
			extractor:    &fakeExtractor{err: scanerr.New("ExtractLines", scanerr.ErrNoTextDetected, "")},
			identifier:   &fakeIdentifier{record: &models.BookRecord{Title: "T"}},
			want:         scanerr.ErrNoTextDetected,
			wantExtract:  1,
			wantIdentify: 0,
		},
		{
			name:         "extraction transport",
			extractor:    &fakeExtractor{err: scanerr.New("ExtractLines", scanerr.ErrTransport, "connection refused")},
			identifier:   &fakeIdentifier{record: &models.BookRecord{Title: "T"}},
			want:         scanerr.ErrTransport,
			wantExtract:  1,
			wantIdentify: 0,
		},
		{
			name:         "malformed reply",
			extractor:    &fakeExtractor{lines: []string{"ab"}},
			identifier:   &fakeIdentifier{err: scanerr.New("ParseRecord", scanerr.ErrMalformedJSON, "")},
			want:         scanerr.ErrMalformedJSON,
			wantExtract:  1,
			wantIdentify: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			covers := &fakeCovers{uri: "https://x"}
			prober := &fakeProber{reply: "OK"}
			scanner := NewScanner(Stages{
				Encoder:    imaging.NewEncoder(90, 0),
				Extractor:  tt.extractor,
				Prober:     prober,
				Identifier: tt.identifier,
				Covers:     covers,
			}, nil, Options{})

			img := tt.image
			if img == nil {
				img = testImage(t)
			}
			session := scanner.Scan(context.Background(), img)

			if session.Stage != models.StageErrored {
				t.Fatalf("Expected errored, got %s", session.Stage)
			}
			if !errors.Is(session.Err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, session.Err)
			}
			if session.Error == "" || session.InProgress {
				t.Errorf("Expected a user message on a finished session, got %+v", session)
			}
			if session.Record != nil {
				t.Errorf("Expected no record, got %+v", session.Record)
			}
			if tt.extractor.calls != tt.wantExtract {
				t.Errorf("Expected %d extraction calls, got %d", tt.wantExtract, tt.extractor.calls)
			}
			if tt.identifier.calls != tt.wantIdentify {
				t.Errorf("Expected %d inference calls, got %d", tt.wantIdentify, tt.identifier.calls)
			}
			if covers.calls != 0 {
				t.Errorf("Expected no cover lookups, got %d", covers.calls)
			}
			if tt.wantExtract == 0 && prober.calls != 0 {
				t.Errorf("Expected no probe, got %d", prober.calls)
			}
		})
	}
}

func TestScanNotIdentified(t *testing.T) {
	for _, record := range []*models.BookRecord{nil, {}, {Title: "   ", Authors: []string{"A"}}} {
		covers := &fakeCovers{uri: "https://x"}
		scanner := NewScanner(Stages{
			Encoder:    imaging.NewEncoder(90, 0),
			Extractor:  &fakeExtractor{lines: []string{"ab"}},
			Identifier: &fakeIdentifier{record: record},
			Covers:     covers,
		}, nil, Options{})

		session := scanner.Scan(context.Background(), testImage(t))

		if session.Stage != models.StageDone {
			t.Fatalf("Expected done, got %s", session.Stage)
		}
		if session.Identified {
			t.Error("Expected identified to be false")
		}
		if session.Record == nil || session.Record.Title != models.NotIdentifiedTitle {
			t.Errorf("Expected placeholder record, got %+v", session.Record)
		}
		if session.Error != "" {
			t.Errorf("Expected no error, got %q", session.Error)
		}
		if covers.calls != 0 {
			t.Errorf("Expected no cover lookup for a blank title, got %d", covers.calls)
		}
	}
}

func TestScanSkipProbe(t *testing.T) {
	prober := &fakeProber{reply: "OK"}
	scanner := NewScanner(Stages{
		Encoder:    imaging.NewEncoder(90, 0),
		Extractor:  &fakeExtractor{lines: []string{"ab"}},
		Prober:     prober,
		Identifier: &fakeIdentifier{record: &models.BookRecord{Title: "T"}},
		Covers:     &fakeCovers{},
	}, nil, Options{SkipProbe: true})

	session := scanner.Scan(context.Background(), testImage(t))
	if session.Stage != models.StageDone {
		t.Fatalf("Expected done, got %s", session.Stage)
	}
	if prober.calls != 0 {
		t.Errorf("Expected probe to be skipped, got %d calls", prober.calls)
	}
	if session.Liveness != "" {
		t.Errorf("Expected no liveness, got %q", session.Liveness)
	}
}

func TestScanOfflineProbeExplainsFailure(t *testing.T) {
	scanner := NewScanner(Stages{
		Encoder:    imaging.NewEncoder(90, 0),
		Extractor:  &fakeExtractor{lines: []string{"ab"}},
		Prober:     &fakeProber{reply: "offline: connection refused"},
		Identifier: &fakeIdentifier{err: scanerr.New("Identify", scanerr.ErrService, "connection refused")},
		Covers:     &fakeCovers{},
	}, nil, Options{})

	session := scanner.Scan(context.Background(), testImage(t))
	if !strings.Contains(session.Error, "unreachable") {
		t.Errorf("Expected unreachable message, got %q", session.Error)
	}
}

func TestSupersededScanIsDropped(t *testing.T) {
	store := storage.New()
	identifier := &fakeIdentifier{record: &models.BookRecord{Title: "T"}}
	extractor := &fakeExtractor{lines: []string{"ab"}}
	scanner := NewScanner(Stages{
		Encoder:    imaging.NewEncoder(90, 0),
		Extractor:  extractor,
		Identifier: identifier,
		Covers:     &fakeCovers{},
	}, store, Options{})

	var newer *models.ScanSession
	extractor.during = func() {
		// A new scan is submitted while the first is waiting on OCR.
		newer, _ = scanner.begin()
		extractor.during = nil
	}

	stale := scanner.Scan(context.Background(), testImage(t))

	if identifier.calls != 0 {
		t.Errorf("Expected superseded scan to stop, got %d inference calls", identifier.calls)
	}
	current, ok := store.Current()
	if !ok || current.ID != newer.ID {
		t.Fatalf("Expected the newer session to be current, got %+v", current)
	}
	if current.ID == stale.ID || len(current.Lines) != 0 || current.Stage != models.StageIdle {
		t.Errorf("Expected stale updates to be dropped, got %+v", current)
	}
}

func TestValidTransition(t *testing.T) {
	tests := []struct {
		from, to models.Stage
		want     bool
	}{
		{models.StageIdle, models.StageEncoding, true},
		{models.StageExtracting, models.StageProbeLiveness, true},
		{models.StageExtracting, models.StageInferring, true},
		{models.StageLookingUpCover, models.StageDone, true},
		{models.StageInferring, models.StageErrored, true},
		{models.StageIdle, models.StageInferring, false},
		{models.StageInferring, models.StageExtracting, false},
		{models.StageDone, models.StageErrored, false},
		{models.StageErrored, models.StageEncoding, false},
	}

	for _, tt := range tests {
		if got := validTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("validTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
