package draft

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/invoiceForge/composer-service/internal/models"
)

// ErrSessionNotFound is returned for unknown or expired session IDs
var ErrSessionNotFound = errors.New("draft session not found")

// Session is one in-flight invoice composition. All mutation goes through
// Update so concurrent handlers never race on the draft.
type Session struct {
	ID        string
	Draft     *models.InvoiceDraft
	Selection models.TemplateSelection

	// PendingVoice holds the last extraction result until the user
	// accepts or rejects it. Never applied automatically.
	PendingVoice *models.VoiceExtractionResult

	// VoiceError is a display-ready message set when the last voice
	// capture ended without a usable result. Cleared when a new capture
	// opens or a pending result is accepted or rejected.
	VoiceError string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store keeps draft sessions in memory, keyed by UUID
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create starts a new session with a fresh default draft
func (s *Store) Create() *Session {
	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		Draft:     models.NewInvoiceDraft(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess
}

// Get returns the session for id
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// View runs fn against the session under the store read lock. fn must not
// retain the session or anything reachable from it past its return.
func (s *Store) View(id string, fn func(*Session) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	return fn(sess)
}

// Snapshot returns a deep copy of the session, safe to read and serialize
// outside the store lock while concurrent edits continue.
func (s *Store) Snapshot(id string) (*Session, error) {
	var snap *Session
	err := s.View(id, func(sess *Session) error {
		snap = sess.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Clone deep-copies the mutable parts of the session. Callers must hold
// the store lock (Update or View).
func (sess *Session) Clone() *Session {
	c := *sess

	d := *sess.Draft
	d.Items = append([]models.LineItem(nil), sess.Draft.Items...)
	c.Draft = &d

	if sess.Selection.Template != nil {
		tpl := *sess.Selection.Template
		tpl.Features = append([]string(nil), tpl.Features...)
		c.Selection.Template = &tpl
	}
	if sess.Selection.Fonts != nil {
		fonts := *sess.Selection.Fonts
		c.Selection.Fonts = &fonts
	}
	if sess.PendingVoice != nil {
		pv := *sess.PendingVoice
		c.PendingVoice = &pv
	}
	return &c
}

// Update runs fn against the session under the store lock and bumps
// UpdatedAt. fn errors abort the update and are returned as-is.
func (s *Store) Update(id string, fn func(*Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if err := fn(sess); err != nil {
		return err
	}
	sess.UpdatedAt = time.Now()
	return nil
}

// Delete drops the session. Unknown IDs are not an error.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len reports how many sessions are live
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
