package speech

import (
	"errors"
	"log"
	"strings"
	"sync"
	"time"
)

// State is the lifecycle phase of a capture session
type State int

const (
	// Idle means the session exists but is not capturing
	Idle State = iota
	// Listening means transcript events are being accepted
	Listening
	// Stopping means a stop was requested and the final transcript is settling
	Stopping
	// Done means the session finished and produced its transcript
	Done
	// Failed means the session hit an unrecoverable capture error
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case Stopping:
		return "stopping"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// EventKind distinguishes interim from settled transcript fragments
type EventKind string

const (
	// KindPartial is an interim hypothesis that later events replace
	KindPartial EventKind = "partial"
	// KindFinal is a settled fragment appended to the transcript
	KindFinal EventKind = "final"
)

// TranscriptEvent is one recognizer update relayed from the capture client
type TranscriptEvent struct {
	Kind EventKind `json:"kind"`
	Text string    `json:"text"`
}

var (
	// ErrNotListening is returned for events or stops outside the Listening state
	ErrNotListening = errors.New("session is not listening")

	// ErrAlreadyListening is returned when starting an active session
	ErrAlreadyListening = errors.New("session is already listening")

	// ErrSessionDone is returned when restarting a finished session
	ErrSessionDone = errors.New("session already finished")
)

const (
	// DefaultSilenceTimeout stops capture after this much quiet
	DefaultSilenceTimeout = 3 * time.Second

	// DefaultMinTranscriptLen is the shortest transcript worth extracting
	DefaultMinTranscriptLen = 10
)

// Result is the outcome of a finished capture
type Result struct {
	Transcript string
	// Usable is true when the transcript is long enough to feed extraction
	Usable bool
	Err    error
}

// Session accumulates transcript events for one voice capture. Every
// final fragment resets the silence timer; when the timer fires the
// session stops itself and delivers the result through the callback.
type Session struct {
	mu sync.Mutex

	state    State
	finals   []string
	partial  string
	lastErr  error
	timeout  time.Duration
	minLen   int
	silence  *time.Timer
	onResult func(Result)
}

// NewSession creates an idle session. onResult fires exactly once, on
// stop, auto-stop or failure. Zero timeout and minLen pick the defaults.
func NewSession(timeout time.Duration, minLen int, onResult func(Result)) *Session {
	if timeout <= 0 {
		timeout = DefaultSilenceTimeout
	}
	if minLen <= 0 {
		minLen = DefaultMinTranscriptLen
	}
	return &Session{
		state:    Idle,
		timeout:  timeout,
		minLen:   minLen,
		onResult: onResult,
	}
}

// Start moves the session to Listening. The silence timer stays unarmed
// until the first final fragment arrives, so a slow speaker is not cut
// off before saying anything.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Listening, Stopping:
		return ErrAlreadyListening
	case Done, Failed:
		return ErrSessionDone
	}

	s.state = Listening
	return nil
}

// HandleEvent feeds one recognizer update. Partial events replace the
// interim text; final events append and reset the silence timer.
func (s *Session) HandleEvent(ev TranscriptEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Listening {
		return ErrNotListening
	}

	switch ev.Kind {
	case KindPartial:
		s.partial = ev.Text
	case KindFinal:
		text := strings.TrimSpace(ev.Text)
		if text != "" {
			s.finals = append(s.finals, text)
		}
		s.partial = ""
		if s.silence == nil {
			s.silence = time.AfterFunc(s.timeout, s.autoStop)
		} else {
			s.silence.Reset(s.timeout)
		}
	default:
		return errors.New("unknown transcript event kind: " + string(ev.Kind))
	}
	return nil
}

// Stop ends capture and delivers the result
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.state != Listening {
		s.mu.Unlock()
		return ErrNotListening
	}
	s.state = Stopping
	if s.silence != nil {
		s.silence.Stop()
	}
	res := s.finishLocked(nil)
	s.mu.Unlock()

	s.onResult(res)
	return nil
}

// Fail records a capture error and ends the session
func (s *Session) Fail(err error) {
	s.mu.Lock()
	if s.state != Listening && s.state != Stopping {
		s.mu.Unlock()
		return
	}
	if s.silence != nil {
		s.silence.Stop()
	}
	s.lastErr = err
	s.state = Failed
	res := s.finishLocked(err)
	s.mu.Unlock()

	s.onResult(res)
}

// autoStop fires when the silence timer expires
func (s *Session) autoStop() {
	s.mu.Lock()
	if s.state != Listening {
		s.mu.Unlock()
		return
	}
	log.Printf("[speech] silence timeout after %s, stopping capture", s.timeout)
	s.state = Stopping
	res := s.finishLocked(nil)
	s.mu.Unlock()

	s.onResult(res)
}

// finishLocked assembles the result and marks the session Done.
// Caller holds s.mu.
func (s *Session) finishLocked(err error) Result {
	transcript := strings.TrimSpace(strings.Join(s.finals, " "))
	if s.state != Failed {
		s.state = Done
	}
	return Result{
		Transcript: transcript,
		Usable:     err == nil && len(transcript) > s.minLen,
		Err:        err,
	}
}

// Err returns the capture error of a failed session, if any
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// State reports the current lifecycle phase
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns the settled text plus any interim fragment
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := append([]string{}, s.finals...)
	if s.partial != "" {
		parts = append(parts, s.partial)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
