// Package geometry holds the pure orientation and handedness rules evaluated
// over a 21-point hand landmark set.
package geometry

import (
	"strings"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/detector"
)

// Side is the hand side from the user's point of view.
type Side string

const (
	Left    Side = "Left"
	Right   Side = "Right"
	Unknown Side = "Unknown"
)

// ParseSide resolves a side name case-insensitively.
func ParseSide(s string) Side {
	switch {
	case strings.EqualFold(s, string(Left)):
		return Left
	case strings.EqualFold(s, string(Right)):
		return Right
	default:
		return Unknown
	}
}

// Handedness returns the user's hand side. The rear camera mirrors the
// scene, so the detector's raw label is inverted.
func Handedness(hand *detector.HandLandmarks) Side {
	if hand == nil {
		return Unknown
	}

	switch ParseSide(hand.Handedness) {
	case Left:
		return Right
	case Right:
		return Left
	default:
		return Unknown
	}
}

// CountExtendedFingers counts straightened fingers for an upright hand.
// The thumb counts when its tip is left of its IP joint, the other fingers
// when their tip is above their PIP joint.
func CountExtendedFingers(hand *detector.HandLandmarks) int {
	if hand == nil {
		return 0
	}

	count := 0
	for _, f := range detector.FingerOrder {
		j := f.Joints()
		tip, joint := hand.Points[j.Tip], hand.Points[j.Joint]

		if f == detector.Thumb {
			if tip.X < joint.X {
				count++
			}
			continue
		}
		if tip.Y < joint.Y {
			count++
		}
	}

	return count
}

// IdentifyExtendedFinger returns the first finger, in capture order, whose
// tip is above its middle joint.
func IdentifyExtendedFinger(hand *detector.HandLandmarks) (detector.Finger, bool) {
	if hand == nil {
		return -1, false
	}

	for _, f := range detector.FingerOrder {
		if tipAboveJoint(hand, f) {
			return f, true
		}
	}

	return -1, false
}

func tipAboveJoint(hand *detector.HandLandmarks, f detector.Finger) bool {
	j := f.Joints()
	return hand.Points[j.Tip].Y < hand.Points[j.Joint].Y
}
