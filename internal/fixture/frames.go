// Package fixture builds synthetic camera frames for tests.
package fixture

import (
	"gocv.io/x/gocv"
)

// Size is the edge length of generated frames; it matches the sharpness
// scoring size so no resampling blurs the pattern.
const Size = 300

// Checkerboard returns a 3-channel frame of black and white cells. Its mean
// brightness is mid-range and its Laplacian variance is far above the blur
// threshold. The caller closes it.
func Checkerboard(cell int) gocv.Mat {
	if cell <= 0 {
		cell = 10
	}

	data := make([]byte, Size*Size*3)
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			if (y/cell+x/cell)%2 != 0 {
				continue
			}
			i := (y*Size + x) * 3
			data[i], data[i+1], data[i+2] = 255, 255, 255
		}
	}

	mat, err := gocv.NewMatFromBytes(Size, Size, gocv.MatTypeCV8UC3, data)
	if err != nil {
		panic(err)
	}
	return mat
}

// Flat returns a uniform 3-channel frame of the given grey level. It scores
// zero sharpness. The caller closes it.
func Flat(level uint8) gocv.Mat {
	mat := gocv.NewMatWithSize(Size, Size, gocv.MatTypeCV8UC3)
	mat.SetTo(gocv.NewScalar(float64(level), float64(level), float64(level), 0))
	return mat
}

// Sequence returns n copies of frame as independent Mats.
func Sequence(frame gocv.Mat, n int) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		clone := frame.Clone()
		frames[i] = &clone
	}
	return frames
}

// CloseAll closes every frame.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		if f != nil {
			f.Close()
		}
	}
}
