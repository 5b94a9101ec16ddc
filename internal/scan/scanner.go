package scan

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/coverscan/internal/models"
	"github.com/lehigh-university-libraries/coverscan/internal/probe"
	"github.com/lehigh-university-libraries/coverscan/internal/scanerr"
	"github.com/lehigh-university-libraries/coverscan/internal/storage"
)

// TransitionFunc observes every stage change of a scan.
type TransitionFunc func(session *models.ScanSession, from, to models.Stage)

// Options tune a Scanner.
type Options struct {
	// Timeout bounds a whole scan. Zero means no deadline beyond the caller's.
	Timeout time.Duration

	// SkipProbe skips the liveness probe even when a Prober is configured.
	SkipProbe bool

	// OnTransition is called after each stage change. Defaults to LogTransition.
	OnTransition TransitionFunc
}

// Scanner owns the current scan session and runs scans against it.
type Scanner struct {
	stages       Stages
	store        *storage.SessionStore
	timeout      time.Duration
	skipProbe    bool
	onTransition TransitionFunc
}

// NewScanner creates a scanner. A nil store gets a fresh one.
func NewScanner(stages Stages, store *storage.SessionStore, opts Options) *Scanner {
	if store == nil {
		store = storage.New()
	}
	onTransition := opts.OnTransition
	if onTransition == nil {
		onTransition = LogTransition
	}
	return &Scanner{
		stages:       stages,
		store:        store,
		timeout:      opts.Timeout,
		skipProbe:    opts.SkipProbe || stages.Prober == nil,
		onTransition: onTransition,
	}
}

// LogTransition logs a stage change.
func LogTransition(session *models.ScanSession, from, to models.Stage) {
	slog.Debug("Scan stage changed", "session_id", session.ID, "from", from, "to", to)
}

// Current returns a copy of the current session.
func (s *Scanner) Current() (*models.ScanSession, bool) {
	return s.store.Current()
}

// Scan runs a scan of image to completion and returns the finished session.
// Failures are reported in the session, never returned.
func (s *Scanner) Scan(ctx context.Context, image []byte) *models.ScanSession {
	session, generation := s.begin()
	return s.run(ctx, generation, session, image)
}

// Start begins a scan of image in the background and returns the new session
// as it stands before the first stage. Starting another scan makes this one
// stale: its remaining updates are dropped and it stops at the next stage
// boundary. Calls already in flight are not cancelled.
func (s *Scanner) Start(image []byte) *models.ScanSession {
	session, generation := s.begin()
	snapshot := session.Clone()
	go s.run(context.Background(), generation, session, image)
	return snapshot
}

func (s *Scanner) begin() (*models.ScanSession, uint64) {
	session := &models.ScanSession{
		ID:         uuid.New().String(),
		Stage:      models.StageIdle,
		InProgress: true,
		StartedAt:  time.Now(),
	}
	return session, s.store.Begin(session)
}

// run drives session through the stages. session is owned by this call;
// every change is published to the store under generation.
func (s *Scanner) run(ctx context.Context, generation uint64, session *models.ScanSession, image []byte) *models.ScanSession {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	r := &pass{scanner: s, generation: generation, session: session}
	slog.Info("Scan started", "session_id", session.ID, "bytes", len(image))

	if !r.advance(models.StageEncoding) {
		return r.session
	}
	payload, err := s.stages.Encoder.Encode(bytes.NewReader(image))
	if err != nil {
		return r.fail(err)
	}

	if !r.advance(models.StageExtracting) {
		return r.session
	}
	lines, err := s.stages.Extractor.ExtractLines(ctx, payload.Base64())
	if err != nil {
		return r.fail(err)
	}
	r.update(func(sess *models.ScanSession) { sess.Lines = lines })

	if !s.skipProbe {
		if !r.advance(models.StageProbeLiveness) {
			return r.session
		}
		liveness := s.stages.Prober.Check(ctx)
		r.update(func(sess *models.ScanSession) { sess.Liveness = liveness })
	}

	if !r.advance(models.StageInferring) {
		return r.session
	}
	record, err := s.stages.Identifier.Identify(ctx, lines)
	if err != nil {
		return r.fail(err)
	}

	if !r.advance(models.StageLookingUpCover) {
		return r.session
	}
	if record != nil && strings.TrimSpace(record.Title) != "" {
		record.CoverURI = s.stages.Covers.Lookup(ctx, record.Title)
	}

	identified := record != nil && strings.TrimSpace(record.Title) != ""
	if !identified {
		slog.Info("Scan finished without a title", "session_id", session.ID, "err", scanerr.ErrNotIdentified)
		record = models.NotIdentifiedRecord()
	}
	r.update(func(sess *models.ScanSession) {
		sess.Record = record
		sess.Identified = identified
	})

	r.finish(models.StageDone)
	slog.Info("Scan finished",
		"session_id", session.ID,
		"identified", identified,
		"title", record.Title,
		"cover", record.CoverURI != "",
		"duration", time.Since(session.StartedAt))
	return r.session
}

// pass is the state of one pass through the pipeline.
type pass struct {
	scanner    *Scanner
	generation uint64
	session    *models.ScanSession
	stale      bool
}

// update applies fn to the local session and publishes it.
func (r *pass) update(fn func(*models.ScanSession)) {
	fn(r.session)
	if r.stale {
		return
	}
	snapshot := r.session.Clone()
	if !r.scanner.store.Update(r.generation, func(current *models.ScanSession) { *current = *snapshot }) {
		r.stale = true
		slog.Info("Dropping updates from superseded scan", "session_id", r.session.ID)
	}
}

// advance moves to the next stage. It returns false when the scan has been
// superseded and should not continue.
func (r *pass) advance(to models.Stage) bool {
	if r.stale || r.scanner.store.Generation() != r.generation {
		r.stale = true
		return false
	}

	from := r.session.Stage
	if !validTransition(from, to) {
		panic(fmt.Sprintf("invalid scan transition %s -> %s", from, to))
	}
	r.update(func(sess *models.ScanSession) { sess.Stage = to })
	r.scanner.onTransition(r.session, from, to)
	return !r.stale
}

func (r *pass) finish(to models.Stage) {
	from := r.session.Stage
	r.update(func(sess *models.ScanSession) {
		sess.Stage = to
		sess.InProgress = false
		sess.FinishedAt = time.Now()
	})
	r.scanner.onTransition(r.session, from, to)
}

// fail records err and ends the scan. Later stages are never attempted.
func (r *pass) fail(err error) *models.ScanSession {
	stage := r.session.Stage
	message := scanerr.UserMessage(err)
	if stage == models.StageInferring && r.session.Liveness != "" && !probe.Online(r.session.Liveness) {
		message = "The identification service is unreachable (" + r.session.Liveness + ")."
	}

	r.update(func(sess *models.ScanSession) {
		sess.Err = err
		sess.Error = message
	})
	r.finish(models.StageErrored)

	slog.Error("Scan failed", "session_id", r.session.ID, "stage", stage, "err", err)
	return r.session
}
