package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands ...HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.hands == nil {
		return nil, nil
	}

	hands := make([]HandLandmarks, len(m.hands))
	copy(hands, m.hands)
	return hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// PalmLandmarks returns an open right hand, palm towards a rear camera, all
// five fingers extended upward. The detector reports the mirrored label
// "Left" for it.
func PalmLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Left",
		Score:      0.96,
	}

	landmarks.Points[Wrist] = Point3D{X: 0.50, Y: 0.85, Z: 0.0}

	// Thumb spreads out to the left of the index finger
	landmarks.Points[ThumbCMC] = Point3D{X: 0.42, Y: 0.80, Z: -0.01}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.36, Y: 0.74, Z: -0.02}
	landmarks.Points[ThumbIP] = Point3D{X: 0.31, Y: 0.68, Z: -0.02}
	landmarks.Points[ThumbTip] = Point3D{X: 0.27, Y: 0.62, Z: -0.02}

	landmarks.Points[IndexMCP] = Point3D{X: 0.42, Y: 0.60, Z: 0.0}
	landmarks.Points[IndexPIP] = Point3D{X: 0.40, Y: 0.48, Z: 0.0}
	landmarks.Points[IndexDIP] = Point3D{X: 0.39, Y: 0.40, Z: 0.0}
	landmarks.Points[IndexTip] = Point3D{X: 0.38, Y: 0.33, Z: 0.0}

	landmarks.Points[MiddleMCP] = Point3D{X: 0.49, Y: 0.58, Z: 0.0}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.49, Y: 0.45, Z: 0.0}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.49, Y: 0.36, Z: 0.0}
	landmarks.Points[MiddleTip] = Point3D{X: 0.49, Y: 0.28, Z: 0.0}

	landmarks.Points[RingMCP] = Point3D{X: 0.56, Y: 0.60, Z: 0.0}
	landmarks.Points[RingPIP] = Point3D{X: 0.57, Y: 0.48, Z: 0.0}
	landmarks.Points[RingDIP] = Point3D{X: 0.58, Y: 0.40, Z: 0.0}
	landmarks.Points[RingTip] = Point3D{X: 0.59, Y: 0.34, Z: 0.0}

	landmarks.Points[PinkyMCP] = Point3D{X: 0.62, Y: 0.64, Z: 0.0}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.64, Y: 0.55, Z: 0.0}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.65, Y: 0.49, Z: 0.0}
	landmarks.Points[PinkyTip] = Point3D{X: 0.66, Y: 0.44, Z: 0.0}

	return landmarks
}

// DorsalPalmLandmarks returns PalmLandmarks mirrored horizontally, which is
// how the back of the same hand appears to the camera.
func DorsalPalmLandmarks() HandLandmarks {
	landmarks := PalmLandmarks()
	for i := range landmarks.Points {
		landmarks.Points[i].X = 1.0 - landmarks.Points[i].X
	}
	return landmarks
}

// FingerLandmarks returns PalmLandmarks with every finger except f curled
// toward the palm. The extended finger keeps its palm geometry exactly.
func FingerLandmarks(f Finger) HandLandmarks {
	landmarks := PalmLandmarks()

	for _, other := range FingerOrder {
		if other == f {
			continue
		}
		curl(&landmarks, other)
	}

	return landmarks
}

// DorsalFingerLandmarks returns FingerLandmarks(Index) with the index finger
// pointing down and away from the camera.
func DorsalFingerLandmarks() HandLandmarks {
	landmarks := FingerLandmarks(Index)
	base := landmarks.Points[IndexMCP]

	landmarks.Points[IndexPIP] = Point3D{X: base.X, Y: base.Y + 0.04, Z: base.Z + 0.02}
	landmarks.Points[IndexDIP] = Point3D{X: base.X, Y: base.Y + 0.07, Z: base.Z + 0.03}
	landmarks.Points[IndexTip] = Point3D{X: base.X, Y: base.Y + 0.09, Z: base.Z + 0.04}

	return landmarks
}

// curl folds a finger so its tip sits below its middle joint.
func curl(landmarks *HandLandmarks, f Finger) {
	j := f.Joints()
	joint := landmarks.Points[j.Joint]

	if f == Thumb {
		landmarks.Points[j.Tip] = Point3D{X: joint.X + 0.03, Y: joint.Y + 0.04, Z: joint.Z}
		return
	}

	landmarks.Points[j.Tip-1] = Point3D{X: joint.X, Y: joint.Y + 0.03, Z: joint.Z}
	landmarks.Points[j.Tip] = Point3D{X: joint.X, Y: joint.Y + 0.06, Z: joint.Z}
}
