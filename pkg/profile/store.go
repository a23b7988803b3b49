package profile

import (
	"errors"
	"sync"

	"github.com/xrsl/cvago/pkg/doc"
)

var (
	ErrNoProfile = errors.New("no profile loaded")
	ErrNoDraft   = errors.New("no draft to save")
)

// Store holds the committed profile and the draft being edited. Values
// handed out are copies, and the draft is only ever replaced whole.
type Store struct {
	mu           sync.RWMutex
	committed    doc.Node
	hasCommitted bool
	draft        doc.Node
	hasDraft     bool
}

func NewStore() *Store {
	return &Store{}
}

// Committed returns the last saved or fetched profile.
func (s *Store) Committed() (doc.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasCommitted {
		return doc.Node{}, false
	}
	return s.committed.Clone(), true
}

// HasCommitted reports whether a committed profile exists.
func (s *Store) HasCommitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasCommitted
}

// HasDraft reports whether a draft exists.
func (s *Store) HasDraft() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasDraft
}

// SetCommitted replaces the committed profile.
func (s *Store) SetCommitted(d doc.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = d.Clone()
	s.hasCommitted = true
}

// Draft returns the draft under edit.
func (s *Store) Draft() (doc.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasDraft {
		return doc.Node{}, false
	}
	return s.draft.Clone(), true
}

// Replace sets the whole draft. Editors receive Draft's value and call
// Replace with their result.
func (s *Store) Replace(d doc.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = d.Clone()
	s.hasDraft = true
}

// Update applies fn to the current draft and stores its result.
func (s *Store) Update(fn func(doc.Node) doc.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasDraft {
		return ErrNoDraft
	}
	s.draft = fn(s.draft.Clone())
	return nil
}

// BeginEdit seeds the draft with a deep copy of the committed profile.
func (s *Store) BeginEdit() (doc.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasCommitted {
		return doc.Node{}, ErrNoProfile
	}
	s.draft = s.committed.Clone()
	s.hasDraft = true
	return s.draft.Clone(), nil
}

// Promote makes d the committed profile. The draft is cleared only if it
// still equals d; edits made since d was taken stay pending. It reports
// whether the draft was cleared.
func (s *Store) Promote(d doc.Node) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = d.Clone()
	s.hasCommitted = true
	if s.hasDraft && !s.draft.Equal(d) {
		return false
	}
	s.draft = doc.Node{}
	s.hasDraft = false
	return true
}

// DiscardDraft drops the draft.
func (s *Store) DiscardDraft() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = doc.Node{}
	s.hasDraft = false
}
