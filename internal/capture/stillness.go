package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Stillness defaults
const (
	// GaussianBlurSize is the kernel size used to suppress sensor noise
	// before differencing.
	GaussianBlurSize = 21

	// DiffThreshold is the per-pixel intensity change counted as movement.
	DiffThreshold = 25

	// DefaultMotionPercent is the share of changed pixels, in percent,
	// above which the hand is considered moving.
	DefaultMotionPercent = 1.0

	// DefaultSteadyFrames is how many consecutive still frames make the
	// scene steady.
	DefaultSteadyFrames = 3
)

// Steadiness is the result of one stillness observation.
type Steadiness struct {
	Steady        bool    `json:"steady"`
	ChangePercent float64 `json:"changePercent"`
}

// StillnessDetector tells the user when the hand has stopped moving long
// enough for a sharp still. It differences consecutive blurred grey frames.
type StillnessDetector struct {
	threshold   float64
	required    int
	prevGray    gocv.Mat
	initialized bool
	stillFrames int
	mu          sync.Mutex
}

// NewStillnessDetector creates a detector. threshold is the percentage of
// changed pixels that counts as motion; required is the number of
// consecutive still frames needed. Values <= 0 use the defaults.
func NewStillnessDetector(threshold float64, required int) *StillnessDetector {
	if threshold <= 0 {
		threshold = DefaultMotionPercent
	}
	if required <= 0 {
		required = DefaultSteadyFrames
	}
	return &StillnessDetector{
		threshold: threshold,
		required:  required,
		prevGray:  gocv.NewMat(),
	}
}

// Observe compares frame with the previous one. The first frame only sets
// the baseline and is never steady.
func (s *StillnessDetector) Observe(frame *gocv.Mat) Steadiness {
	s.mu.Lock()
	defer s.mu.Unlock()

	if frame == nil || frame.Empty() {
		return Steadiness{}
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	if !s.initialized || blurred.Rows() != s.prevGray.Rows() || blurred.Cols() != s.prevGray.Cols() {
		blurred.CopyTo(&s.prevGray)
		s.initialized = true
		s.stillFrames = 0
		return Steadiness{}
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, s.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(thresh)) / float64(thresh.Rows()*thresh.Cols()) * 100.0

	blurred.CopyTo(&s.prevGray)

	if changed > s.threshold {
		s.stillFrames = 0
	} else {
		s.stillFrames++
	}

	return Steadiness{
		Steady:        s.stillFrames >= s.required,
		ChangePercent: changed,
	}
}

// Reset drops the baseline and the still-frame count.
func (s *StillnessDetector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.release()
}

// Close releases the baseline Mat.
func (s *StillnessDetector) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.release()
}

func (s *StillnessDetector) release() {
	if !s.prevGray.Empty() {
		s.prevGray.Close()
		s.prevGray = gocv.NewMat()
	}
	s.initialized = false
	s.stillFrames = 0
}

// Live is what the stream lane last saw: the smoothed lighting and whether
// the hand is holding still.
type Live struct {
	Lighting   Reading    `json:"lighting"`
	Steadiness Steadiness `json:"steadiness"`
}
