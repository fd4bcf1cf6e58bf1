package session

import (
	"errors"
	"testing"
	"time"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/biometric"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/detector"
)

func TestState_Names(t *testing.T) {
	tests := []struct {
		state     State
		wantStr   string
		wantStage string
		wantStep  int
	}{
		{AwaitingPalm, "AwaitingPalm", "Palm", 0},
		{AwaitingFinger(0), "AwaitingFinger(0)", "Thumb", 1},
		{AwaitingFinger(2), "AwaitingFinger(2)", "Middle", 3},
		{AwaitingFinger(4), "AwaitingFinger(4)", "Little", 5},
		{Complete, "Complete", "Complete", 6},
	}

	for _, tt := range tests {
		t.Run(tt.wantStr, func(t *testing.T) {
			if got := tt.state.String(); got != tt.wantStr {
				t.Errorf("String() = %q, want %q", got, tt.wantStr)
			}
			if got := tt.state.Stage(); got != tt.wantStage {
				t.Errorf("Stage() = %q, want %q", got, tt.wantStage)
			}
			if got := tt.state.Step(); got != tt.wantStep {
				t.Errorf("Step() = %d, want %d", got, tt.wantStep)
			}
		})
	}
}

func TestAwaitingFinger_OutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("AwaitingFinger(5) should panic")
		}
	}()
	AwaitingFinger(5)
}

func enrolledTemplate(t *testing.T) *biometric.Template {
	t.Helper()
	palm := detector.PalmLandmarks()
	tmpl, err := biometric.Enroll(&palm)
	if err != nil {
		t.Fatalf("Enroll() error: %v", err)
	}
	return tmpl
}

func TestSession_FullProgress(t *testing.T) {
	s := New("device-1")
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	if s.State() != AwaitingPalm || s.Template() != nil {
		t.Fatal("new session should await the palm with no template")
	}

	q := Quality{Brightness: 120, Light: "Normal", BlurScore: 420}
	if err := s.Enroll(s.ID(), enrolledTemplate(t), q); err != nil {
		t.Fatalf("Enroll() error: %v", err)
	}

	for i := 0; i < detector.NumFingers; i++ {
		if s.State() != AwaitingFinger(i) {
			t.Fatalf("state = %s, want %s", s.State(), AwaitingFinger(i))
		}
		if err := s.Advance(s.ID(), AwaitingFinger(i), q); err != nil {
			t.Fatalf("Advance() error: %v", err)
		}
	}

	r := s.Report()
	if s.State() != Complete || !r.Complete || !r.Success {
		t.Errorf("expected a complete successful session, got %s %+v", s.State(), r)
	}
	if r.FingersMatched != 5 || r.HandSide != "Right" || r.DeviceID != "device-1" {
		t.Errorf("unexpected report %+v", r)
	}
	if r.Brightness != 120 || r.BlurScore != 420 || !r.UpdatedAt.Equal(fixed) {
		t.Errorf("report did not record capture quality: %+v", r)
	}
	if r.Summary() != "Scan Successful" {
		t.Errorf("Summary() = %q", r.Summary())
	}

	if err := s.Advance(s.ID(), Complete, q); !errors.Is(err, ErrWrongState) {
		t.Errorf("Advance() after Complete error = %v, want ErrWrongState", err)
	}
}

func TestSession_WrongStateTransitions(t *testing.T) {
	s := New("")

	if err := s.Advance(s.ID(), AwaitingFinger(0), Quality{}); !errors.Is(err, ErrWrongState) {
		t.Errorf("Advance() before palm error = %v, want ErrWrongState", err)
	}

	if err := s.Enroll(s.ID(), nil, Quality{}); err == nil {
		t.Error("Enroll(nil) should fail")
	}
	if s.State() != AwaitingPalm {
		t.Error("failed enroll must not change state")
	}

	tmpl := enrolledTemplate(t)
	s.Enroll(s.ID(), tmpl, Quality{})
	if err := s.Enroll(s.ID(), tmpl, Quality{}); !errors.Is(err, ErrWrongState) {
		t.Errorf("second Enroll() error = %v, want ErrWrongState", err)
	}

	if err := s.Advance(s.ID(), AwaitingFinger(1), Quality{}); !errors.Is(err, ErrWrongState) {
		t.Errorf("Advance() from a stale state error = %v, want ErrWrongState", err)
	}
	if s.State() != AwaitingFinger(0) {
		t.Errorf("state = %s, want AwaitingFinger(0)", s.State())
	}
}

func TestSession_Reset(t *testing.T) {
	s := New("device-1")
	firstID := s.ID()

	s.Enroll(s.ID(), enrolledTemplate(t), Quality{Light: "Normal"})
	s.Advance(s.ID(), AwaitingFinger(0), Quality{})
	s.Advance(s.ID(), AwaitingFinger(1), Quality{})

	s.Reset()

	if s.State() != AwaitingPalm {
		t.Errorf("state after Reset = %s, want AwaitingPalm", s.State())
	}
	if s.Template() != nil {
		t.Error("Reset should clear the template")
	}
	if s.ID() == firstID {
		t.Error("Reset should assign a new session ID")
	}

	r := s.Report()
	if r.FingersMatched != 0 || r.HandSide != "" || r.SessionID != s.ID() || r.DeviceID != "device-1" {
		t.Errorf("unexpected report after Reset: %+v", r)
	}
	if r.Summary() != "Scan Incomplete" {
		t.Errorf("Summary() = %q", r.Summary())
	}
}

func TestSession_StaleCommitRefused(t *testing.T) {
	s := New("device-1")
	snap := s.Snapshot()
	if snap.ID != s.ID() || snap.State != AwaitingPalm || snap.Template != nil {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	s.Reset()

	if err := s.Enroll(snap.ID, enrolledTemplate(t), Quality{}); !errors.Is(err, ErrStale) {
		t.Errorf("Enroll() with the old ID error = %v, want ErrStale", err)
	}
	if s.State() != AwaitingPalm || s.Template() != nil {
		t.Errorf("stale enroll changed the session: %s", s.State())
	}

	if err := s.Enroll(s.ID(), enrolledTemplate(t), Quality{}); err != nil {
		t.Fatalf("Enroll() error: %v", err)
	}
	before := s.ID()
	s.Reset()
	s.Enroll(s.ID(), enrolledTemplate(t), Quality{})

	if err := s.Advance(before, AwaitingFinger(0), Quality{}); !errors.Is(err, ErrStale) {
		t.Errorf("Advance() with the old ID error = %v, want ErrStale", err)
	}
	if r := s.Report(); r.FingersMatched != 0 || s.State() != AwaitingFinger(0) {
		t.Errorf("stale advance changed the session: %s %+v", s.State(), r)
	}
}
