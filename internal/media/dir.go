// Package media persists accepted capture frames as JPEG files.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/pkg/log"
)

// ErrInvalidName is returned for names that would escape the capture directory.
var ErrInvalidName = errors.New("invalid capture file name")

// ErrEmptyFrame is returned when asked to store a frame without pixels.
var ErrEmptyFrame = errors.New("cannot save empty frame")

// DirSink writes frames into a single directory.
type DirSink struct {
	dir string
}

// NewDirSink creates the directory if needed and returns a sink writing into it.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create capture directory: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

// Dir returns the capture directory.
func (s *DirSink) Dir() string {
	return s.dir
}

// Save encodes frame as JPEG under name and returns the full path.
func (s *DirSink) Save(ctx context.Context, frame *gocv.Mat, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	if frame == nil || frame.Empty() {
		return "", ErrEmptyFrame
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	defer buf.Close()

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.GetBytes(), 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("rename %s: %w", name, err)
	}

	log.Debug(log.Fields{"path": path}, "[media.Save] frame saved")
	return path, nil
}

// Load decodes a stored capture. The caller owns the returned Mat.
func Load(path string) (*gocv.Mat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("decode %s: %w", path, ErrEmptyFrame)
	}

	return &mat, nil
}
