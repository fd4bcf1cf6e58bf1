// Package detector provides the hand landmark types and the detector
// abstraction the capture pipeline consumes.
package detector

import (
	"errors"
	"math"
)

// Hand landmark indices following the MediaPipe 21-point hand topology.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// ErrIncompleteLandmarks is returned when a detector reports a hand with
// fewer than NumLandmarks points.
var ErrIncompleteLandmarks = errors.New("hand has fewer than 21 landmarks")

// Point3D is a landmark position: x and y in normalized image space
// (y grows downward), z as depth relative to the wrist.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks is one detected hand. The fixed-size array guarantees that
// every set reaching geometry or feature code has all 21 points.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // raw detector label, "Left" or "Right"
	Score      float64               `json:"score"`
}

// Distance returns the 3D Euclidean distance between two points.
func Distance(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// FromPoints builds a HandLandmarks from a variable-length point slice.
func FromPoints(points []Point3D, handedness string, score float64) (HandLandmarks, error) {
	if len(points) < NumLandmarks {
		return HandLandmarks{}, ErrIncompleteLandmarks
	}

	hand := HandLandmarks{
		Handedness: handedness,
		Score:      score,
	}
	copy(hand.Points[:], points[:NumLandmarks])

	return hand, nil
}
