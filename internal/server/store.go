package server

import (
	"sync"
	"time"

	"github.com/KaramelBytes/edaloom/internal/dataset"
	"github.com/KaramelBytes/edaloom/internal/eda"
)

// State is one browser session's view: the loaded table and the cleaning
// actions applied to its working copy.
type State struct {
	Table    *dataset.Table
	Cleaning []eda.CleaningAction
	LastUsed time.Time
}

// SessionStore keeps State per session id. Tables are never mutated once
// stored, so snapshots can be used without holding the lock.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*State
	now      func() time.Time
}

// NewSessionStore returns an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*State), now: time.Now}
}

// Snapshot returns a copy of the session state, or false if nothing is loaded.
func (s *SessionStore) Snapshot(id string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[id]
	if !ok || st.Table == nil {
		return State{}, false
	}
	st.LastUsed = s.now()
	out := *st
	out.Cleaning = append([]eda.CleaningAction(nil), st.Cleaning...)
	return out, true
}

// Load replaces the session's table and clears its cleaning history.
func (s *SessionStore) Load(id string, t *dataset.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &State{Table: t, LastUsed: s.now()}
}

// Discard forgets whatever the session had loaded.
func (s *SessionStore) Discard(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// AddCleaning appends an action and returns the updated state.
func (s *SessionStore) AddCleaning(id string, a eda.CleaningAction) (State, bool) {
	s.mu.Lock()
	st, ok := s.sessions[id]
	if ok {
		st.Cleaning = append(st.Cleaning, a)
	}
	s.mu.Unlock()
	if !ok {
		return State{}, false
	}
	return s.Snapshot(id)
}

// ResetCleaning drops the cleaning history so the working copy equals the
// loaded table again.
func (s *SessionStore) ResetCleaning(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[id]
	if ok {
		st.Cleaning = nil
		st.LastUsed = s.now()
	}
	return ok
}

// Expire drops sessions not used within idle and returns how many went.
func (s *SessionStore) Expire(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-idle)
	n := 0
	for id, st := range s.sessions {
		if st.LastUsed.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Len reports how many sessions hold a table.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
