// Package session holds the progress of one enrollment: its state, the
// enrolled template and the report published to observers.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/biometric"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/detector"
)

// State is the enrollment progress. Values run AwaitingPalm, one
// AwaitingFinger per finger in capture order, then Complete.
type State int

const (
	AwaitingPalm State = 0
	Complete     State = State(detector.NumFingers + 1)
)

// AwaitingFinger returns the state waiting for the i-th finger (0..4).
func AwaitingFinger(i int) State {
	if i < 0 || i >= detector.NumFingers {
		panic(fmt.Sprintf("session: finger step %d out of range", i))
	}
	return State(i + 1)
}

// Step returns the capture step index 0..5; Complete reports 6.
func (s State) Step() int {
	return int(s)
}

// Finger returns the finger this state waits for.
func (s State) Finger() (detector.Finger, bool) {
	if s <= AwaitingPalm || s >= Complete {
		return -1, false
	}
	return detector.FingerOrder[s-1], true
}

// Stage names the capture this state waits for: "Palm", a finger name or
// "Complete".
func (s State) Stage() string {
	if s == AwaitingPalm {
		return "Palm"
	}
	if f, ok := s.Finger(); ok {
		return f.String()
	}
	return "Complete"
}

func (s State) String() string {
	switch {
	case s == AwaitingPalm:
		return "AwaitingPalm"
	case s >= Complete:
		return "Complete"
	default:
		return fmt.Sprintf("AwaitingFinger(%d)", int(s)-1)
	}
}

// Session is one enrollment. Only the orchestrator mutates it; readers may
// call State, Template and Report from any goroutine.
type Session struct {
	mu       sync.RWMutex
	id       string
	deviceID string
	state    State
	template *biometric.Template
	report   Report
	now      func() time.Time
}

// New creates a session awaiting a palm capture.
func New(deviceID string) *Session {
	s := &Session{
		deviceID: deviceID,
		now:      time.Now,
	}
	s.restart()
	return s
}

// ID returns the session identifier. Reset assigns a new one.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// State returns the current progress.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Template returns the enrolled template, or nil before the palm capture.
func (s *Session) Template() *biometric.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.template
}

// Snapshot is a consistent view of a session taken under one lock.
type Snapshot struct {
	ID       string
	State    State
	Template *biometric.Template
}

// Snapshot returns the ID, state and template as of one instant. An attempt
// works from a snapshot and commits against its ID.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{ID: s.id, State: s.state, Template: s.template}
}

// Report returns a copy of the current report.
func (s *Session) Report() Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// Enroll stores the palm template and moves to the first finger. id must
// still be the current session ID.
func (s *Session) Enroll(id string, t *biometric.Template, q Quality) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != s.id {
		return fmt.Errorf("enroll palm for session %s: %w", id, ErrStale)
	}
	if s.state != AwaitingPalm {
		return fmt.Errorf("enroll palm in state %s: %w", s.state, ErrWrongState)
	}
	if t == nil {
		return fmt.Errorf("enroll palm: %w", biometric.ErrEmptyEmbedding)
	}

	s.template = t
	s.state = AwaitingFinger(0)
	s.report.HandSide = string(t.Side)
	s.touch(q)

	return nil
}

// Advance records a matched finger and moves past from, which must be the
// current finger state of session id.
func (s *Session) Advance(id string, from State, q Quality) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != s.id {
		return fmt.Errorf("advance session %s: %w", id, ErrStale)
	}
	if _, ok := s.state.Finger(); !ok || s.state != from {
		return fmt.Errorf("advance from %s in state %s: %w", from, s.state, ErrWrongState)
	}

	s.state++
	s.report.FingersMatched++
	s.touch(q)

	return nil
}

// Reset discards all progress and starts a new session ID.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restart()
}

func (s *Session) restart() {
	s.id = uuid.NewString()
	s.state = AwaitingPalm
	s.template = nil
	s.report = Report{
		SessionID: s.id,
		DeviceID:  s.deviceID,
		Light:     "Unknown",
	}
	s.touch(Quality{Light: "Unknown"})
}

func (s *Session) touch(q Quality) {
	s.report.Brightness = q.Brightness
	s.report.Light = q.Light
	s.report.BlurScore = q.BlurScore
	s.report.State = s.state.String()
	s.report.Stage = s.state.Stage()
	s.report.Step = s.state.Step()
	s.report.Complete = s.state == Complete
	s.report.Success = s.report.FingersMatched == detector.NumFingers
	s.report.UpdatedAt = s.now().UTC()
}
