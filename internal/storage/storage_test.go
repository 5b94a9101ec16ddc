package storage

import (
	"sync"
	"testing"

	"github.com/lehigh-university-libraries/coverscan/internal/models"
)

func TestStaleUpdatesDropped(t *testing.T) {
	store := New()

	first := store.Begin(&models.ScanSession{ID: "a", Stage: models.StageIdle})
	second := store.Begin(&models.ScanSession{ID: "b", Stage: models.StageIdle})

	if store.Update(first, func(s *models.ScanSession) { s.Stage = models.StageDone }) {
		t.Error("Expected stale update to be dropped")
	}
	if !store.Update(second, func(s *models.ScanSession) { s.Stage = models.StageExtracting }) {
		t.Error("Expected current update to apply")
	}

	current, ok := store.Current()
	if !ok {
		t.Fatal("Expected a current session")
	}
	if current.ID != "b" || current.Stage != models.StageExtracting {
		t.Errorf("Unexpected session %+v", current)
	}
}

func TestCurrentReturnsCopy(t *testing.T) {
	store := New()
	gen := store.Begin(&models.ScanSession{ID: "a"})
	store.Update(gen, func(s *models.ScanSession) {
		s.Lines = []string{"one", "two"}
		s.Record = &models.BookRecord{Title: "T", Authors: []string{"A"}}
	})

	got, _ := store.Current()
	got.Lines[0] = "changed"
	got.Record.Authors[0] = "changed"

	again, _ := store.Current()
	if again.Lines[0] != "one" || again.Record.Authors[0] != "A" {
		t.Errorf("Expected stored session to be unaffected, got %+v", again)
	}
}

func TestGetAndReset(t *testing.T) {
	store := New()
	if _, ok := store.Current(); ok {
		t.Error("Expected no session in a new store")
	}

	gen := store.Begin(&models.ScanSession{ID: "a"})
	if _, ok := store.Get("a"); !ok {
		t.Error("Expected to find session a")
	}
	if _, ok := store.Get("b"); ok {
		t.Error("Expected not to find session b")
	}

	store.Reset()
	if _, ok := store.Current(); ok {
		t.Error("Expected no session after reset")
	}
	if store.Update(gen, func(*models.ScanSession) {}) {
		t.Error("Expected update after reset to be dropped")
	}
}

func TestConcurrentAccess(t *testing.T) {
	store := New()
	gen := store.Begin(&models.ScanSession{ID: "a"})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Update(gen, func(s *models.ScanSession) {
				s.Lines = append(s.Lines, "x")
			})
		}()
		go func() {
			defer wg.Done()
			store.Current()
		}()
	}
	wg.Wait()

	current, _ := store.Current()
	if len(current.Lines) != 10 {
		t.Errorf("Expected 10 lines, got %d", len(current.Lines))
	}
}
