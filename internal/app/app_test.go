package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"gocv.io/x/gocv"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/capture"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/detector"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/enroll"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/fixture"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/session"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/store"
)

type reports struct {
	mu   sync.Mutex
	list []session.Report
}

func (r *reports) Publish(report session.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, report)
}

func (r *reports) last() session.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list[len(r.list)-1]
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew_RequiresCollaborators(t *testing.T) {
	if _, err := New(Config{Detector: detector.NewMockDetector()}); err == nil {
		t.Error("expected error without a camera")
	}
	if _, err := New(Config{Camera: capture.NewMockCamera(nil, false)}); err == nil {
		t.Error("expected error without a detector")
	}
}

func TestApp_EvaluateRecordsHistory(t *testing.T) {
	st := newTestStore(t)
	det := detector.NewMockDetector()
	sink := &reports{}

	a, err := New(Config{
		Camera:   capture.NewMockCamera(nil, false),
		Detector: det,
		Store:    st,
		Sinks:    []enroll.ReportSink{sink, st.Sessions()},
		DeviceID: "kiosk-1",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	sharp := fixture.Checkerboard(10)
	defer sharp.Close()
	blurred := fixture.Flat(128)
	defer blurred.Close()

	ctx := context.Background()

	// Nothing measured yet: lighting is Unknown
	det.SetHands(detector.PalmLandmarks())
	if _, err := a.Evaluate(ctx, &sharp); !errors.Is(err, enroll.ErrQualityRejected) {
		t.Fatalf("Evaluate() before lighting error = %v, want ErrQualityRejected", err)
	}

	a.Lighting().Observe(&sharp)
	if got := a.Live().Lighting.Light; got != capture.LightNormal {
		t.Fatalf("Live().Lighting = %s, want Normal", got)
	}

	if _, err := a.Evaluate(ctx, &blurred); !errors.Is(err, enroll.ErrQualityRejected) {
		t.Fatalf("Evaluate(blurred) error = %v, want ErrQualityRejected", err)
	}

	out, err := a.Evaluate(ctx, &sharp)
	if err != nil || !out.Accepted {
		t.Fatalf("palm Evaluate() = %+v, %v", out, err)
	}
	sessionID := out.Report.SessionID

	for _, f := range detector.FingerOrder {
		det.SetHands(detector.FingerLandmarks(f))
		if out, err := a.Evaluate(ctx, &sharp); err != nil {
			t.Fatalf("%s Evaluate() = %+v, %v", f, out, err)
		}
	}

	if r := a.Report(); !r.Complete || r.FingersMatched != 5 || r.DeviceID != "kiosk-1" {
		t.Errorf("final report = %+v", r)
	}
	if got := sink.last(); got.Summary() != "Scan Successful" {
		t.Errorf("last published summary = %q", got.Summary())
	}

	captures, err := st.Captures().ListBySession(ctx, sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(captures) != 8 {
		t.Fatalf("recorded captures = %d, want 8", len(captures))
	}
	if captures[0].Reason != string(enroll.ReasonPoorLighting) || captures[1].Reason != string(enroll.ReasonBlurred) {
		t.Errorf("rejections recorded as %q, %q", captures[0].Reason, captures[1].Reason)
	}
	if n, _ := st.Captures().CountAccepted(ctx, sessionID); n != 6 {
		t.Errorf("accepted captures = %d, want 6", n)
	}

	stored, err := st.Sessions().Get(ctx, sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.Complete || stored.FingersMatched != 5 {
		t.Errorf("stored session = %+v", stored)
	}

	// A finished session refuses further attempts, and they are still history
	if _, err := a.Evaluate(ctx, &sharp); !errors.Is(err, enroll.ErrStageRejected) {
		t.Errorf("Evaluate() after completion error = %v", err)
	}

	report := a.Reset()
	if report.SessionID == sessionID || report.Step != 0 {
		t.Errorf("Reset() report = %+v", report)
	}
}

func TestApp_EvaluateSkipsCancelled(t *testing.T) {
	st := newTestStore(t)
	det := detector.NewMockDetector()
	det.SetHands(detector.PalmLandmarks())

	a, _ := New(Config{Camera: capture.NewMockCamera(nil, false), Detector: det, Store: st})

	sharp := fixture.Checkerboard(10)
	defer sharp.Close()
	a.Lighting().Observe(&sharp)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.Evaluate(ctx, &sharp); !errors.Is(err, context.Canceled) {
		t.Fatalf("Evaluate() error = %v, want context.Canceled", err)
	}

	captures, _ := st.Captures().ListBySession(context.Background(), a.Report().SessionID)
	if len(captures) != 0 {
		t.Errorf("cancelled attempt recorded: %+v", captures)
	}
}

// resettingDetector runs onDetect before answering, standing in for a reset
// that lands while detection is in progress.
type resettingDetector struct {
	hands    []detector.HandLandmarks
	onDetect func()
}

func (d *resettingDetector) Detect(*gocv.Mat) ([]detector.HandLandmarks, error) {
	d.onDetect()
	return d.hands, nil
}

func (d *resettingDetector) Close() error { return nil }

func TestApp_EvaluateSkipsAttemptOvertakenByReset(t *testing.T) {
	st := newTestStore(t)
	det := &resettingDetector{hands: []detector.HandLandmarks{detector.PalmLandmarks()}}

	a, _ := New(Config{Camera: capture.NewMockCamera(nil, false), Detector: det, Store: st})
	det.onDetect = func() { a.Reset() }
	first := a.Report().SessionID

	sharp := fixture.Checkerboard(10)
	defer sharp.Close()
	a.Lighting().Observe(&sharp)

	out, err := a.Evaluate(context.Background(), &sharp)
	if out.Reason != enroll.ReasonSessionReset || !errors.Is(err, enroll.ErrStageRejected) {
		t.Fatalf("Evaluate() = %+v, %v", out, err)
	}

	current := a.Report()
	if current.SessionID == first || current.Step != 0 {
		t.Errorf("report after reset = %+v", current)
	}
	for _, id := range []string{first, current.SessionID} {
		captures, _ := st.Captures().ListBySession(context.Background(), id)
		if len(captures) != 0 {
			t.Errorf("session %s recorded %+v", id, captures)
		}
	}
}

func TestApp_ReadFrameWithoutLane(t *testing.T) {
	frame := fixture.Flat(90)
	defer frame.Close()

	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.Open()

	a, _ := New(Config{Camera: cam, Detector: detector.NewMockDetector()})

	got, err := a.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	defer got.Close()

	if cam.Reads() != 1 {
		t.Errorf("camera reads = %d, want 1", cam.Reads())
	}
}
