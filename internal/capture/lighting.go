package capture

import (
	"math"
	"sync/atomic"

	"gocv.io/x/gocv"
)

// Light is a brightness classification.
type Light string

const (
	LightUnknown Light = "Unknown"
	LightLow     Light = "Low"
	LightNormal  Light = "Normal"
	LightBright  Light = "Bright"
)

// Lighting defaults
const (
	DefaultLowLight    = 60
	DefaultBrightLight = 200
	DefaultLightWindow = 5
)

// LightingConfig holds the classification limits and smoothing window.
type LightingConfig struct {
	Low    int
	Bright int
	Window int
}

// DefaultLightingConfig returns the calibrated defaults.
func DefaultLightingConfig() LightingConfig {
	return LightingConfig{
		Low:    DefaultLowLight,
		Bright: DefaultBrightLight,
		Window: DefaultLightWindow,
	}
}

// Reading is a smoothed brightness value and its classification.
type Reading struct {
	Brightness int   `json:"brightness"`
	Light      Light `json:"light"`
}

// Normal reports whether captures may be attempted under this reading.
func (r Reading) Normal() bool {
	return r.Light == LightNormal
}

// LightingMonitor smooths frame brightness over a short window and
// classifies it. Observe, ObservePlane and Reset must only be called from
// the single lane feeding frames; Snapshot may be called from anywhere.
type LightingMonitor struct {
	cfg      LightingConfig
	window   []float64
	snapshot atomic.Pointer[Reading]
}

// NewLightingMonitor creates a monitor. Zero fields use the defaults.
func NewLightingMonitor(cfg LightingConfig) *LightingMonitor {
	def := DefaultLightingConfig()
	if cfg.Low <= 0 {
		cfg.Low = def.Low
	}
	if cfg.Bright <= 0 {
		cfg.Bright = def.Bright
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}

	m := &LightingMonitor{
		cfg:    cfg,
		window: make([]float64, 0, cfg.Window),
	}
	m.snapshot.Store(&Reading{Light: LightUnknown})
	return m
}

// Observe feeds one frame. Colour frames are converted to grey and the mean
// of the grey plane is used; single-channel frames are used as-is.
func (m *LightingMonitor) Observe(frame *gocv.Mat) Reading {
	if frame == nil || frame.Empty() {
		return m.Snapshot()
	}

	if frame.Channels() == 1 {
		return m.ObservePlane(frame.ToBytes())
	}

	gray := gocv.NewMat()
	defer gray.Close()

	code := gocv.ColorBGRToGray
	if frame.Channels() == 4 {
		code = gocv.ColorBGRAToGray
	}
	gocv.CvtColor(*frame, &gray, code)

	return m.ObservePlane(gray.ToBytes())
}

// ObservePlane feeds the raw samples of one luma plane.
func (m *LightingMonitor) ObservePlane(plane []byte) Reading {
	if len(plane) == 0 {
		return m.Snapshot()
	}

	var sum uint64
	for _, b := range plane {
		sum += uint64(b)
	}

	if len(m.window) == m.cfg.Window {
		copy(m.window, m.window[1:])
		m.window = m.window[:len(m.window)-1]
	}
	m.window = append(m.window, float64(sum)/float64(len(plane)))

	var total float64
	for _, v := range m.window {
		total += v
	}

	brightness := int(math.Round(total / float64(len(m.window))))
	reading := Reading{Brightness: brightness, Light: m.Classify(brightness)}
	m.snapshot.Store(&reading)

	return reading
}

// Classify maps a smoothed brightness to a Light.
func (m *LightingMonitor) Classify(brightness int) Light {
	switch {
	case brightness < m.cfg.Low:
		return LightLow
	case brightness > m.cfg.Bright:
		return LightBright
	default:
		return LightNormal
	}
}

// Snapshot returns the latest reading. Before any observation the light is
// Unknown.
func (m *LightingMonitor) Snapshot() Reading {
	return *m.snapshot.Load()
}

// Reset empties the window and returns the snapshot to Unknown.
func (m *LightingMonitor) Reset() {
	m.window = m.window[:0]
	m.snapshot.Store(&Reading{Light: LightUnknown})
}
