package detector

import (
	"errors"
	"math"
	"testing"
)

const epsilon = 1e-9

func TestDistance(t *testing.T) {
	got := Distance(Point3D{X: 1, Y: 2, Z: 3}, Point3D{X: 4, Y: 6, Z: 3})
	if math.Abs(got-5.0) > epsilon {
		t.Errorf("Distance() = %f, want 5.0", got)
	}
}

func TestFromPoints(t *testing.T) {
	t.Run("copies exactly 21 points", func(t *testing.T) {
		points := make([]Point3D, NumLandmarks+2)
		for i := range points {
			points[i] = Point3D{X: float64(i)}
		}

		hand, err := FromPoints(points, "Right", 0.8)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hand.Points[PinkyTip].X != float64(PinkyTip) {
			t.Errorf("expected last point X %d, got %f", PinkyTip, hand.Points[PinkyTip].X)
		}
		if hand.Handedness != "Right" || hand.Score != 0.8 {
			t.Errorf("metadata not preserved: %+v", hand)
		}
	})

	t.Run("rejects short sets", func(t *testing.T) {
		_, err := FromPoints(make([]Point3D, 20), "Left", 0.9)
		if !errors.Is(err, ErrIncompleteLandmarks) {
			t.Errorf("expected ErrIncompleteLandmarks, got %v", err)
		}
	})
}

func TestParseResponse(t *testing.T) {
	t.Run("no hands", func(t *testing.T) {
		hands, err := parseResponse([]byte(`{"hands": []}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected 0 hands, got %d", len(hands))
		}
	})

	t.Run("incomplete hand fails the frame", func(t *testing.T) {
		_, err := parseResponse([]byte(`{"hands": [{"points": [{"x":0,"y":0,"z":0}], "handedness": "Left", "score": 0.9}]}`))
		if !errors.Is(err, ErrIncompleteLandmarks) {
			t.Errorf("expected ErrIncompleteLandmarks, got %v", err)
		}
	})

	t.Run("service error is surfaced", func(t *testing.T) {
		_, err := parseResponse([]byte(`{"hands": [], "error": "model not loaded"}`))
		if err == nil {
			t.Error("expected error from service error field")
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		if _, err := parseResponse([]byte(`not json`)); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestFingerTopology(t *testing.T) {
	wantBases := map[Finger]int{Thumb: 1, Index: 5, Middle: 9, Ring: 13, Little: 17}
	wantTips := map[Finger]int{Thumb: 4, Index: 8, Middle: 12, Ring: 16, Little: 20}

	for _, f := range FingerOrder {
		j := f.Joints()
		if j.Base != wantBases[f] {
			t.Errorf("%s base = %d, want %d", f, j.Base, wantBases[f])
		}
		if j.Tip != wantTips[f] {
			t.Errorf("%s tip = %d, want %d", f, j.Tip, wantTips[f])
		}
		if j.Last-j.First+1 != 4 {
			t.Errorf("%s spans %d landmarks, want 4", f, j.Last-j.First+1)
		}
	}
}

func TestParseFinger(t *testing.T) {
	tests := []struct {
		name   string
		want   Finger
		wantOK bool
	}{
		{"Thumb", Thumb, true},
		{"index", Index, true},
		{"MIDDLE", Middle, true},
		{"Ring", Ring, true},
		{"little", Little, true},
		{"pinky", -1, false},
		{"", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseFinger(tt.name)
			if ok != tt.wantOK || (ok && got != tt.want) {
				t.Errorf("ParseFinger(%q) = %v, %v; want %v, %v", tt.name, got, ok, tt.want, tt.wantOK)
			}
		})
	}

	if Finger(9).String() != "Unknown" {
		t.Errorf("invalid finger should stringify as Unknown")
	}
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands(PalmLandmarks(), FingerLandmarks(Index))

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(hands))
		}
		if mock.Calls() != 1 {
			t.Errorf("expected 1 call, got %d", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
	})
}

func TestPalmLandmarks(t *testing.T) {
	palm := PalmLandmarks()

	t.Run("all fingers extended upward", func(t *testing.T) {
		for _, f := range FingerOrder {
			j := f.Joints()
			if palm.Points[j.Tip].Y >= palm.Points[j.Joint].Y {
				t.Errorf("%s tip should be above its middle joint", f)
			}
		}
	})

	t.Run("index base left of little base", func(t *testing.T) {
		if palm.Points[IndexMCP].X >= palm.Points[PinkyMCP].X {
			t.Error("palm side facing a rear camera puts the index finger on the left")
		}
	})
}

func TestFingerLandmarks(t *testing.T) {
	palm := PalmLandmarks()

	for _, f := range FingerOrder {
		t.Run(f.String(), func(t *testing.T) {
			hand := FingerLandmarks(f)
			j := f.Joints()

			for i := j.First; i <= j.Last; i++ {
				if hand.Points[i] != palm.Points[i] {
					t.Errorf("landmark %d of the extended finger changed", i)
				}
			}

			for _, other := range FingerOrder {
				if other == f {
					continue
				}
				oj := other.Joints()
				if hand.Points[oj.Tip].Y <= hand.Points[oj.Joint].Y {
					t.Errorf("%s should be curled", other)
				}
			}
		})
	}
}
