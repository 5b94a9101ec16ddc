package storage

import (
	"sync"

	"github.com/lehigh-university-libraries/coverscan/internal/models"
)

// SessionStore holds the single current scan session. Each Begin replaces the
// session and bumps the generation; writers holding an older generation are
// ignored.
type SessionStore struct {
	current    *models.ScanSession
	generation uint64
	mu         sync.RWMutex
}

func New() *SessionStore {
	return &SessionStore{}
}

// Begin makes session the current one and returns its generation.
func (s *SessionStore) Begin(session *models.ScanSession) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.current = session.Clone()
	return s.generation
}

// Update applies fn to the current session if generation is still current.
// It reports whether fn ran.
func (s *SessionStore) Update(generation uint64, fn func(*models.ScanSession)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation || s.current == nil {
		return false
	}
	fn(s.current)
	return true
}

// Current returns a copy of the current session.
func (s *SessionStore) Current() (*models.ScanSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, false
	}
	return s.current.Clone(), true
}

// Get returns a copy of the current session if its ID matches sessionID.
func (s *SessionStore) Get(sessionID string) (*models.ScanSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil || s.current.ID != sessionID {
		return nil, false
	}
	return s.current.Clone(), true
}

// Generation returns the generation of the current session.
func (s *SessionStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Reset discards the current session. Pending writers become stale.
func (s *SessionStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.current = nil
}
