package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"
)

func TestDirSink_SaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "captures")

	sink, err := NewDirSink(dir)
	if err != nil {
		t.Fatalf("NewDirSink() error = %v", err)
	}

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()
	frame.SetTo(gocv.NewScalar(40, 90, 160, 0))

	path, err := sink.Save(context.Background(), &frame, "Right_Hand_20260102_030405.jpg")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if path != filepath.Join(dir, "Right_Hand_20260102_030405.jpg") {
		t.Errorf("path = %q", path)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer loaded.Close()

	if loaded.Rows() != 48 || loaded.Cols() != 64 {
		t.Errorf("loaded frame is %dx%d, want 64x48", loaded.Cols(), loaded.Rows())
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should be gone after Save")
	}
}

func TestDirSink_Rejects(t *testing.T) {
	sink, err := NewDirSink(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirSink() error = %v", err)
	}

	frame := gocv.NewMatWithSize(8, 8, gocv.MatTypeCV8UC3)
	defer frame.Close()

	for _, name := range []string{"", "../escape.jpg", "sub/dir.jpg", ".hidden.jpg"} {
		if _, err := sink.Save(context.Background(), &frame, name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Save(%q) error = %v, want ErrInvalidName", name, err)
		}
	}

	empty := gocv.NewMat()
	defer empty.Close()
	if _, err := sink.Save(context.Background(), &empty, "a.jpg"); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("empty frame error = %v, want ErrEmptyFrame", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sink.Save(ctx, &frame, "a.jpg"); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled Save error = %v, want context.Canceled", err)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.jpg")); err == nil {
		t.Error("expected error for a missing file")
	}
}
