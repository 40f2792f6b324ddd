package speech

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager tracks live capture sessions by ID so HTTP handlers can relay
// events to the right one
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	timeout  time.Duration
	minLen   int
}

// NewManager creates a manager whose sessions use the given silence
// timeout and minimum transcript length
func NewManager(timeout time.Duration, minLen int) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		timeout:  timeout,
		minLen:   minLen,
	}
}

// Open creates and starts a session. The result callback also removes
// the session from the manager once capture ends.
func (m *Manager) Open(onResult func(Result)) (string, error) {
	id := uuid.NewString()

	var sess *Session
	sess = NewSession(m.timeout, m.minLen, func(res Result) {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		onResult(res)
	})
	if err := sess.Start(); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	return id, nil
}

// Get returns the live session for id, or nil
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// Len reports how many captures are live
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
