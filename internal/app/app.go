// Package app wires the camera, the stream lane and the capture
// orchestrator into one running service.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/biometric"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/capture"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/detector"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/enroll"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/session"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/store"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/pkg/log"
)

// LaneFPS is the rate at which the stream lane samples the camera.
const LaneFPS = 10

var (
	// ErrNoFrame is returned by ReadFrame before the lane has seen a frame.
	ErrNoFrame = errors.New("no frame captured yet")

	errNoCamera   = errors.New("app: camera is required")
	errNoDetector = errors.New("app: detector is required")
)

// Config holds the collaborators and tunables of the application. Zero
// tunables get their defaults.
type Config struct {
	Camera   capture.Camera
	Detector detector.Detector
	Store    *store.Store
	Frames   enroll.FrameSink
	Sinks    []enroll.ReportSink

	DeviceID      string
	BlurThreshold float64
	Thresholds    biometric.Thresholds
	Lighting      capture.LightingConfig
	FPS           int

	// Clock overrides time.Now for capture file names.
	Clock func() time.Time
}

// App owns the capture session and the lane that keeps it fed.
type App struct {
	config    Config
	camera    capture.Camera
	detector  detector.Detector
	lighting  *capture.LightingMonitor
	stillness *capture.StillnessDetector
	orch      *enroll.Orchestrator

	mu         sync.RWMutex
	latest     *gocv.Mat
	steadiness capture.Steadiness
	stopCh     chan struct{}
	doneCh     chan struct{}
}

// New builds an App from config.
func New(config Config) (*App, error) {
	if config.Camera == nil {
		return nil, errNoCamera
	}
	if config.Detector == nil {
		return nil, errNoDetector
	}
	if config.FPS <= 0 {
		config.FPS = LaneFPS
	}

	a := &App{
		config:    config,
		camera:    config.Camera,
		detector:  config.Detector,
		lighting:  capture.NewLightingMonitor(config.Lighting),
		stillness: capture.NewStillnessDetector(0, 0),
	}

	opts := []enroll.Option{enroll.WithReportSinks(config.Sinks...)}
	if config.Frames != nil {
		opts = append(opts, enroll.WithFrameSink(config.Frames))
	}
	if config.Clock != nil {
		opts = append(opts, enroll.WithClock(config.Clock))
	}

	a.orch = enroll.New(
		session.New(config.DeviceID),
		config.Detector,
		a.lighting,
		capture.NewSharpnessScorer(config.BlurThreshold),
		biometric.NewMatcher(config.Thresholds),
		opts...,
	)

	return a, nil
}

// Orchestrator returns the capture state machine.
func (a *App) Orchestrator() *enroll.Orchestrator {
	return a.orch
}

// Lighting returns the lighting monitor fed by the lane.
func (a *App) Lighting() *capture.LightingMonitor {
	return a.lighting
}

// Report returns the current session report.
func (a *App) Report() session.Report {
	return a.orch.Report()
}

// Reset starts a new session and returns its report.
func (a *App) Reset() session.Report {
	a.orch.Reset()
	return a.orch.Report()
}

// Live returns what the lane last measured.
func (a *App) Live() capture.Live {
	a.mu.RLock()
	steadiness := a.steadiness
	a.mu.RUnlock()

	return capture.Live{
		Lighting:   a.lighting.Snapshot(),
		Steadiness: steadiness,
	}
}

// Capture takes the newest lane frame and attempts the current stage.
func (a *App) Capture(ctx context.Context) (enroll.Outcome, error) {
	frame, err := a.ReadFrame()
	if err != nil {
		return enroll.Outcome{}, err
	}
	defer frame.Close()

	return a.Evaluate(ctx, frame)
}

// Evaluate attempts the current stage with frame and records the attempt in
// the capture history. The caller keeps ownership of frame.
func (a *App) Evaluate(ctx context.Context, frame *gocv.Mat) (enroll.Outcome, error) {
	outcome, err := a.orch.Attempt(ctx, frame)
	a.record(outcome, err)
	return outcome, err
}

// record stores one attempt. Refusals that never ran the gates (busy,
// cancelled) and attempts overtaken by a reset are skipped.
func (a *App) record(out enroll.Outcome, err error) {
	if a.config.Store == nil || out.Report.SessionID == "" {
		return
	}
	if errors.Is(err, enroll.ErrBusy) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	r, ok := enroll.AsRejection(err)
	if err != nil && !ok {
		return
	}
	if ok && r.Reason == enroll.ReasonSessionReset {
		return
	}

	c := &store.Capture{
		SessionID:  out.Report.SessionID,
		Stage:      out.Stage,
		Accepted:   out.Accepted,
		Reason:     string(out.Reason),
		Message:    out.Message,
		Brightness: out.Brightness,
		BlurScore:  out.BlurScore,
		Confidence: out.Confidence,
		Filename:   out.Filename,
	}

	// The request context may already be gone; history is written regardless
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.config.Store.Captures().Create(ctx, c); err != nil {
		log.Error(log.Fields{"session": c.SessionID, "stage": c.Stage, "error": err.Error()}, "[app.record] failed to record capture")
	}
}

// ReadFrame returns a copy of the newest lane frame. Without a running lane
// it reads the camera directly. The caller closes the returned Mat.
func (a *App) ReadFrame() (*gocv.Mat, error) {
	a.mu.RLock()
	running := a.stopCh != nil
	if a.latest != nil {
		clone := a.latest.Clone()
		a.mu.RUnlock()
		return &clone, nil
	}
	a.mu.RUnlock()

	if running {
		return nil, ErrNoFrame
	}
	return a.camera.ReadFrame()
}

// Start opens the camera and starts the stream lane.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if !a.camera.IsOpen() {
		if err := a.camera.Open(); err != nil {
			return err
		}
	}
	a.camera.SetFPS(a.config.FPS)

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runLane(a.stopCh, a.doneCh)

	log.Info(log.Fields{"fps": a.config.FPS, "session": a.orch.Report().SessionID}, "[app.Start] stream lane started")
	return nil
}

// Stop halts the lane and closes the camera. The App can be started again.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	if err := a.camera.Close(); err != nil {
		log.Warn(log.Fields{"error": err.Error()}, "[app.Stop] error closing camera")
	}

	a.mu.Lock()
	if a.latest != nil {
		a.latest.Close()
		a.latest = nil
	}
	a.steadiness = capture.Steadiness{}
	a.mu.Unlock()

	a.stillness.Reset()
	a.lighting.Reset()
	log.Info(nil, "[app.Stop] stream lane stopped")
}

// Close stops the lane and releases the detector.
func (a *App) Close() error {
	a.Stop()
	a.stillness.Close()
	return a.detector.Close()
}
