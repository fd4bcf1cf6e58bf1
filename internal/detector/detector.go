package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand landmark detection implementations.
type Detector interface {
	// Detect analyzes a frame and returns one HandLandmarks per detected hand.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect. It must be at least
	// 2 so that a second hand in frame can be rejected instead of ignored.
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:      2,
		MinConfidence: 0.5,
	}
}
