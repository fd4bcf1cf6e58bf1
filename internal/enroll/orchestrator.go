// Package enroll runs the capture state machine: it gates every attempt on
// frame quality, checks hand geometry, matches fingers against the enrolled
// palm and advances the session.
package enroll

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/biometric"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/capture"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/detector"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/geometry"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/session"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/pkg/log"
)

// FrameSink stores an accepted frame under the given file name and returns
// where it was written.
type FrameSink interface {
	Save(ctx context.Context, frame *gocv.Mat, name string) (string, error)
}

// ReportSink receives the session report after every state change.
// Publish must not block for long; it runs on the capture path.
type ReportSink interface {
	Publish(report session.Report)
}

// LightingSource supplies the latest smoothed lighting reading.
type LightingSource interface {
	Snapshot() capture.Reading
}

// Outcome describes one capture attempt, accepted or not.
type Outcome struct {
	Stage      string         `json:"stage"`
	Accepted   bool           `json:"accepted"`
	State      string         `json:"state"`
	Message    string         `json:"message"`
	Reason     Reason         `json:"reason,omitempty"`
	Brightness int            `json:"brightness"`
	Light      capture.Light  `json:"light"`
	BlurScore  float64        `json:"blurScore"`
	HandSide   string         `json:"handSide,omitempty"`
	Confidence float64        `json:"confidence,omitempty"`
	Filename   string         `json:"filename,omitempty"`
	Report     session.Report `json:"report"`
}

// Orchestrator sequences the capture gates for one session. At most one
// attempt runs at a time; a concurrent attempt is refused with ErrBusy.
type Orchestrator struct {
	session     *session.Session
	detector    detector.Detector
	lighting    LightingSource
	sharpness   *capture.SharpnessScorer
	matcher     *biometric.Matcher
	orientation geometry.Orientation
	frames      FrameSink
	sinks       []ReportSink
	now         func() time.Time
	busy        atomic.Bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithFrameSink persists accepted frames.
func WithFrameSink(sink FrameSink) Option {
	return func(o *Orchestrator) { o.frames = sink }
}

// WithReportSinks adds report subscribers.
func WithReportSinks(sinks ...ReportSink) Option {
	return func(o *Orchestrator) { o.sinks = append(o.sinks, sinks...) }
}

// WithOrientation replaces the default camera calibration.
func WithOrientation(orientation geometry.Orientation) Option {
	return func(o *Orchestrator) { o.orientation = orientation }
}

// WithClock overrides the time source used for file names.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an Orchestrator for sess.
func New(sess *session.Session, det detector.Detector, lighting LightingSource, sharpness *capture.SharpnessScorer, matcher *biometric.Matcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		session:     sess,
		detector:    det,
		lighting:    lighting,
		sharpness:   sharpness,
		matcher:     matcher,
		orientation: geometry.Default,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current session state.
func (o *Orchestrator) State() session.State {
	return o.session.State()
}

// Report returns the current session report.
func (o *Orchestrator) Report() session.Report {
	return o.session.Report()
}

// Session returns the session driven by this orchestrator.
func (o *Orchestrator) Session() *session.Session {
	return o.session
}

// Reset discards all progress and publishes the fresh report. An attempt
// still running against the old session is refused when it tries to commit.
func (o *Orchestrator) Reset() {
	o.session.Reset()

	report := o.session.Report()
	log.Info(log.Fields{"session": report.SessionID}, "[enroll.Reset] session restarted")
	o.publish(report)
}

// Attempt evaluates frame against whatever the session currently awaits.
// A rejection is returned as a *Rejection together with an Outcome that
// carries the advisory message. The caller keeps ownership of frame.
func (o *Orchestrator) Attempt(ctx context.Context, frame *gocv.Mat) (Outcome, error) {
	if !o.busy.CompareAndSwap(false, true) {
		return o.refuse(o.session.State(), busyRejection())
	}
	defer o.busy.Store(false)

	snap := o.session.Snapshot()
	switch {
	case snap.State == session.AwaitingPalm:
		return o.palm(ctx, frame, snap)
	case snap.State == session.Complete:
		return o.refuse(snap.State, completeRejection())
	default:
		return o.finger(ctx, frame, snap)
	}
}

// CapturePalm evaluates frame as the palm capture. It is refused once a
// palm has been enrolled.
func (o *Orchestrator) CapturePalm(ctx context.Context, frame *gocv.Mat) (Outcome, error) {
	if !o.busy.CompareAndSwap(false, true) {
		return o.refuse(o.session.State(), busyRejection())
	}
	defer o.busy.Store(false)

	snap := o.session.Snapshot()
	switch {
	case snap.State == session.Complete:
		return o.refuse(snap.State, completeRejection())
	case snap.State != session.AwaitingPalm:
		return o.refuse(snap.State, reject(ErrStageRejected, ReasonAlreadyEnrolled,
			fmt.Sprintf("Palm already captured. Scan %s.", snap.State.Stage())))
	}

	return o.palm(ctx, frame, snap)
}

// CaptureFinger evaluates frame as the next finger capture. Before a palm
// is enrolled it is refused with ErrDataMissing.
func (o *Orchestrator) CaptureFinger(ctx context.Context, frame *gocv.Mat) (Outcome, error) {
	if !o.busy.CompareAndSwap(false, true) {
		return o.refuse(o.session.State(), busyRejection())
	}
	defer o.busy.Store(false)

	snap := o.session.Snapshot()
	switch {
	case snap.State == session.AwaitingPalm:
		return o.refuse(snap.State, reject(ErrDataMissing, ReasonNoTemplate, "Palm not captured."))
	case snap.State == session.Complete:
		return o.refuse(snap.State, completeRejection())
	}

	return o.finger(ctx, frame, snap)
}

func (o *Orchestrator) palm(ctx context.Context, frame *gocv.Mat, snap session.Snapshot) (Outcome, error) {
	state := session.AwaitingPalm
	out := Outcome{Stage: state.Stage(), State: state.String()}

	if err := o.checkQuality(ctx, frame, state, &out); err != nil {
		return o.fail(out, err)
	}

	hands, err := o.detect(ctx, frame, "No palm detected.")
	if err != nil {
		return o.fail(out, err)
	}

	hand := &hands[0]
	if o.orientation.IsPalmDorsal(hand) {
		return o.fail(out, reject(ErrOrientationRejected, ReasonDorsalPalm,
			"Palm dorsal side detected. Show the palm side."))
	}

	tmpl, err := biometric.Enroll(hand)
	if err != nil {
		return o.fail(out, &Rejection{Kind: ErrDetectionFailed, Reason: ReasonNoHand, Message: "No palm detected.", Err: err})
	}
	out.HandSide = string(tmpl.Side)

	if err := ctx.Err(); err != nil {
		return out, err
	}

	if err := o.session.Enroll(snap.ID, tmpl, quality(out)); err != nil {
		if errors.Is(err, session.ErrStale) {
			return o.fail(out, resetRejection(err))
		}
		return out, fmt.Errorf("commit palm: %w", err)
	}

	out.Message = "Palm Captured Successfully"
	return o.accept(ctx, frame, out, fileStage(state))
}

func (o *Orchestrator) finger(ctx context.Context, frame *gocv.Mat, snap session.Snapshot) (Outcome, error) {
	state := snap.State
	expected, _ := state.Finger()
	out := Outcome{Stage: state.Stage(), State: state.String()}

	tmpl := snap.Template
	if tmpl == nil {
		panic(fmt.Sprintf("enroll: %s reached without an enrolled palm", state))
	}

	if err := o.checkQuality(ctx, frame, state, &out); err != nil {
		return o.fail(out, err)
	}

	hands, err := o.detect(ctx, frame, "Finger not detected.")
	if err != nil {
		return o.fail(out, err)
	}

	if len(hands) > 1 {
		return o.fail(out, reject(ErrDetectionFailed, ReasonMultipleHands,
			"Multiple hands detected. Show one hand."))
	}

	hand := &hands[0]
	if o.orientation.IsFingerDorsal(hand) {
		return o.fail(out, reject(ErrOrientationRejected, ReasonDorsalFinger,
			"Finger dorsal side detected. Show the palm side of the finger."))
	}

	side := geometry.Handedness(hand)
	out.HandSide = string(side)
	if side != tmpl.Side {
		return o.fail(out, reject(ErrIdentityRejected, ReasonWrongHand, "Incorrect Hand Used."))
	}

	if err := ctx.Err(); err != nil {
		return out, err
	}

	shown, ok := geometry.IdentifyExtendedFinger(hand)
	if !ok || shown != expected {
		return o.fail(out, reject(ErrIdentityRejected, ReasonWrongFinger,
			fmt.Sprintf("Wrong finger. Show your %s finger.", expected)))
	}

	verdict := o.matcher.MatchFinger(
		string(tmpl.Side), string(side),
		expected.String(), shown.String(),
		tmpl.Finger(expected), biometric.FingerEmbedding(hand, shown),
	)
	out.Confidence = verdict.Confidence
	if !verdict.Matched {
		return o.fail(out, reject(ErrSimilarityRejected, ReasonBelowThreshold, "Finger does not match Palm."))
	}

	if err := ctx.Err(); err != nil {
		return out, err
	}

	if err := o.session.Advance(snap.ID, state, quality(out)); err != nil {
		if errors.Is(err, session.ErrStale) {
			return o.fail(out, resetRejection(err))
		}
		return out, fmt.Errorf("commit %s: %w", expected, err)
	}

	out.Message = "Finger matched successfully"
	if state+1 == session.Complete {
		out.Message = "All five fingers scanned successfully."
	}
	return o.accept(ctx, frame, out, fileStage(state))
}

// checkQuality runs the lighting and blur gates. Lighting is read from the
// stream monitor, never from the still frame.
func (o *Orchestrator) checkQuality(ctx context.Context, frame *gocv.Mat, state session.State, out *Outcome) error {
	reading := o.lighting.Snapshot()
	out.Brightness = reading.Brightness
	out.Light = reading.Light

	if !reading.Normal() {
		return reject(ErrQualityRejected, ReasonPoorLighting, lightingAdvice(reading.Light))
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	out.BlurScore = o.sharpness.Score(frame)
	if out.BlurScore < o.sharpness.Threshold() {
		msg := "Image blurred. Recapture."
		if state == session.AwaitingPalm {
			msg = "Palm image blurred."
		}
		return reject(ErrQualityRejected, ReasonBlurred, msg)
	}

	return ctx.Err()
}

func (o *Orchestrator) detect(ctx context.Context, frame *gocv.Mat, none string) ([]detector.HandLandmarks, error) {
	hands, err := o.detector.Detect(frame)
	if err != nil {
		return nil, &Rejection{
			Kind:    ErrDetectionFailed,
			Reason:  ReasonDetectorFailure,
			Message: "Hand detector unavailable. Try again.",
			Err:     err,
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(hands) == 0 {
		return nil, reject(ErrDetectionFailed, ReasonNoHand, none)
	}
	return hands, nil
}

// accept persists the frame and publishes the new report. The state change
// is already committed; persistence failures are logged only.
func (o *Orchestrator) accept(ctx context.Context, frame *gocv.Mat, out Outcome, stage string) (Outcome, error) {
	out.Accepted = true
	out.Report = o.session.Report()
	out.State = out.Report.State

	if o.frames != nil && frame != nil {
		name := FileName(out.HandSide, stage, o.now())
		path, err := o.frames.Save(ctx, frame, name)
		if err != nil {
			log.Error(log.Fields{"file": name, "error": err}, "[enroll.accept] failed to save frame")
		} else {
			out.Filename = path
		}
	}

	log.Info(log.Fields{
		"session":    out.Report.SessionID,
		"stage":      out.Stage,
		"state":      out.State,
		"side":       out.HandSide,
		"blur":       out.BlurScore,
		"confidence": out.Confidence,
	}, "[enroll.accept] capture accepted")

	o.publish(out.Report)
	return out, nil
}

// fail completes a rejected Outcome. Context errors pass through untouched.
func (o *Orchestrator) fail(out Outcome, err error) (Outcome, error) {
	out.Report = o.session.Report()

	if r, ok := AsRejection(err); ok {
		out.Message = r.Message
		out.Reason = r.Reason
		log.Debug(log.Fields{
			"session": out.Report.SessionID,
			"stage":   out.Stage,
			"reason":  r.Reason,
		}, "[enroll.fail] capture rejected")
	}

	return out, err
}

func (o *Orchestrator) refuse(state session.State, r *Rejection) (Outcome, error) {
	return o.fail(Outcome{Stage: state.Stage(), State: state.String()}, r)
}

func (o *Orchestrator) publish(report session.Report) {
	for _, sink := range o.sinks {
		sink.Publish(report)
	}
}

func quality(out Outcome) session.Quality {
	return session.Quality{
		Brightness: out.Brightness,
		Light:      string(out.Light),
		BlurScore:  out.BlurScore,
	}
}

func lightingAdvice(light capture.Light) string {
	switch light {
	case capture.LightLow:
		return "Low Light Detected. Adjust lighting."
	case capture.LightBright:
		return "Too Bright. Reduce exposure."
	default:
		return "Measuring light. Hold the camera steady."
	}
}

func busyRejection() *Rejection {
	return reject(ErrBusy, ReasonInFlight, "Capture in progress.")
}

// resetRejection refuses an attempt whose session was reset while it ran.
func resetRejection(err error) *Rejection {
	return &Rejection{Kind: ErrStageRejected, Reason: ReasonSessionReset, Message: "Session restarted. Capture again.", Err: err}
}

func completeRejection() *Rejection {
	return reject(ErrStageRejected, ReasonSessionComplete, "All fingers captured. Start a new scan.")
}
