// Package capture reads camera frames and rates them for enrollment:
// focus, ambient light and steadiness.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Device settings. Enrollment stills need more detail than the preview, so
// the camera runs at 1280x720.
const (
	DefaultFPS    = 10
	DefaultWidth  = 1280
	DefaultHeight = 720
)

var (
	// ErrCameraNotOpen is returned when reading from a closed camera.
	ErrCameraNotOpen = errors.New("camera is not open")

	// ErrEmptyFrame is returned when the device delivers no pixels.
	ErrEmptyFrame = errors.New("captured frame is empty")

	// ErrUnsupportedFrame is returned for frames the quality gates cannot
	// rate: anything but 8-bit samples in 1, 3 or 4 channels.
	ErrUnsupportedFrame = errors.New("unsupported frame format")

	// ErrNoFrames is returned by MockCamera once playback is exhausted.
	ErrNoFrames = errors.New("no more frames")
)

// Camera is a frame source for the stream lane.
//
// ReadFrame returns a non-empty Mat of 8-bit samples with 1 (grey), 3 (BGR)
// or 4 (BGRA) channels, which is what SharpnessScorer and LightingMonitor
// expect. The caller owns the Mat. Frames in any other format are refused
// with ErrUnsupportedFrame.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// CheckFrame reports whether frame satisfies the Camera frame contract.
func CheckFrame(frame *gocv.Mat) error {
	if frame == nil || frame.Empty() {
		return ErrEmptyFrame
	}

	// The low three bits of an OpenCV type are its depth; 0 is 8-bit unsigned
	if depth := frame.Type() & 7; depth != gocv.MatTypeCV8U {
		return fmt.Errorf("%w: depth %d", ErrUnsupportedFrame, depth)
	}

	switch ch := frame.Channels(); ch {
	case 1, 3, 4:
		return nil
	default:
		return fmt.Errorf("%w: %d channels", ErrUnsupportedFrame, ch)
	}
}

// videoCamera reads a local device through OpenCV. capture is nil while
// closed.
type videoCamera struct {
	mu       sync.Mutex
	deviceID int
	fps      int
	capture  *gocv.VideoCapture
}

// NewCamera returns a closed Camera for the given device index.
func NewCamera(deviceID int) Camera {
	return &videoCamera{deviceID: deviceID, fps: DefaultFPS}
}

// Open opens the device at the configured size and rate. Opening an open
// camera does nothing.
func (c *videoCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.deviceID, err)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
	vc.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
	vc.Set(gocv.VideoCaptureFPS, float64(c.fps))
	c.capture = vc

	return nil
}

func (c *videoCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	return err
}

// ReadFrame grabs the next device frame and checks it against the frame
// contract.
func (c *videoCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	frame := gocv.NewMat()
	if !c.capture.Read(&frame) {
		frame.Close()
		return nil, fmt.Errorf("read camera %d: device returned no frame", c.deviceID)
	}

	if err := CheckFrame(&frame); err != nil {
		frame.Close()
		return nil, fmt.Errorf("read camera %d: %w", c.deviceID, err)
	}

	return &frame, nil
}

// SetFPS changes the capture rate. Values <= 0 are ignored.
func (c *videoCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps
	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (c *videoCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *videoCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capture != nil
}
