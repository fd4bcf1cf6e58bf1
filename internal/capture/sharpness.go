package capture

import (
	"image"

	"gocv.io/x/gocv"
)

// Sharpness defaults
const (
	// ScoreSize is the side of the square every frame is resized to before
	// scoring, so the score does not depend on camera resolution.
	ScoreSize = 300

	// DefaultBlurThreshold is the Laplacian variance below which a frame
	// counts as blurred.
	DefaultBlurThreshold = 150.0
)

// SharpnessScorer rates frame focus by the variance of the Laplacian of its
// intensity. It holds no state and is safe for concurrent use.
type SharpnessScorer struct {
	size      int
	threshold float64
}

// NewSharpnessScorer creates a scorer. A threshold <= 0 uses the default.
func NewSharpnessScorer(threshold float64) *SharpnessScorer {
	if threshold <= 0 {
		threshold = DefaultBlurThreshold
	}
	return &SharpnessScorer{
		size:      ScoreSize,
		threshold: threshold,
	}
}

// Threshold returns the blur threshold in effect.
func (s *SharpnessScorer) Threshold() float64 {
	return s.threshold
}

// Score returns the focus score of an 8-bit frame; higher is sharper.
// Nil, empty and single-pixel frames score 0.
func (s *SharpnessScorer) Score(frame *gocv.Mat) float64 {
	if frame == nil || frame.Empty() || frame.Rows()*frame.Cols() <= 1 {
		return 0
	}

	resized := gocv.NewMat()
	defer resized.Close()

	gocv.Resize(*frame, &resized, image.Point{X: s.size, Y: s.size}, 0, 0, gocv.InterpolationLinear)
	if resized.Empty() {
		return 0
	}

	return laplacianVariance(resized.ToBytes(), resized.Rows(), resized.Cols(), resized.Channels())
}

// IsBlurred reports whether the frame scores below the threshold.
func (s *SharpnessScorer) IsBlurred(frame *gocv.Mat) bool {
	return s.Score(frame) < s.threshold
}

// laplacianVariance convolves the interior of an interleaved 8-bit image
// with the 4-neighbour Laplacian and returns the population variance of the
// response. Intensity is the channel average; the kernel runs on channel
// sums and the division happens once at the end, so a flat image is exactly 0.
func laplacianVariance(data []byte, rows, cols, channels int) float64 {
	if rows < 3 || cols < 3 || channels < 1 || len(data) < rows*cols*channels {
		return 0
	}

	stride := cols * channels
	intensity := func(y, x int) int {
		off := y*stride + x*channels
		sum := 0
		for c := 0; c < channels; c++ {
			sum += int(data[off+c])
		}
		return sum
	}

	n := (rows - 2) * (cols - 2)
	responses := make([]int, 0, n)

	var total int64
	for y := 1; y < rows-1; y++ {
		for x := 1; x < cols-1; x++ {
			r := intensity(y-1, x) + intensity(y+1, x) + intensity(y, x-1) + intensity(y, x+1) - 4*intensity(y, x)
			responses = append(responses, r)
			total += int64(r)
		}
	}

	mean := float64(total) / float64(n)

	var sq float64
	for _, r := range responses {
		d := float64(r) - mean
		sq += d * d
	}

	scale := float64(channels * channels)
	return sq / float64(n) / scale
}
