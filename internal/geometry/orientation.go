package geometry

import "github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/detector"

// Orientation decides whether the palm or a finger is shown back-side first.
// The rules depend on how the camera is mounted.
type Orientation interface {
	IsPalmDorsal(hand *detector.HandLandmarks) bool
	IsFingerDorsal(hand *detector.HandLandmarks) bool
}

// Calibration holds the camera-mount dependent constants.
type Calibration struct {
	// DepthMargin is how much deeper the index tip must be than its base,
	// in normalized depth units, before the finger counts as turned away.
	DepthMargin float64

	// PalmSign is the sign of (indexBase-wrist) x (littleBase-wrist) that
	// marks the palm side. A cross product of the opposite sign is dorsal.
	PalmSign float64
}

// RearCamera is the calibration for a rear-facing phone or desk camera.
var RearCamera = Calibration{
	DepthMargin: 0.01,
	PalmSign:    1,
}

// Default is the orientation used when none is configured.
var Default Orientation = RearCamera

// IsPalmDorsal reports whether the back of the hand faces the camera.
func (c Calibration) IsPalmDorsal(hand *detector.HandLandmarks) bool {
	if hand == nil {
		return false
	}

	wrist := hand.Points[detector.Wrist]
	index := hand.Points[detector.Index.Joints().Base]
	little := hand.Points[detector.Little.Joints().Base]

	ax, ay := index.X-wrist.X, index.Y-wrist.Y
	bx, by := little.X-wrist.X, little.Y-wrist.Y
	cross := ax*by - ay*bx

	return cross*c.PalmSign < 0
}

// IsFingerDorsal reports whether the index finger points away from the
// camera: its tip is deeper than its base by more than DepthMargin and lower
// in the image. Both conditions are required so depth noise alone does not
// trigger a rejection.
func (c Calibration) IsFingerDorsal(hand *detector.HandLandmarks) bool {
	if hand == nil {
		return false
	}

	j := detector.Index.Joints()
	tip, base := hand.Points[j.Tip], hand.Points[j.Base]

	return tip.Z-base.Z > c.DepthMargin && tip.Y > base.Y
}

// IsPalmDorsal applies the Default orientation.
func IsPalmDorsal(hand *detector.HandLandmarks) bool {
	return Default.IsPalmDorsal(hand)
}

// IsFingerDorsal applies the Default orientation.
func IsFingerDorsal(hand *detector.HandLandmarks) bool {
	return Default.IsFingerDorsal(hand)
}
