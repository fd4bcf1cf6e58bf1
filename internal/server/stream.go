package server

import (
	"fmt"
	"net/http"
	"time"

	"gocv.io/x/gocv"
)

// FrameSource yields frames for the preview stream. The caller closes each
// returned Mat.
type FrameSource interface {
	ReadFrame() (*gocv.Mat, error)
}

// StreamInterval paces the MJPEG preview at roughly 15 FPS.
const StreamInterval = 66 * time.Millisecond

// StreamHandler serves MJPEG frames for the capture preview.
type StreamHandler struct {
	frames   FrameSource
	interval time.Duration
}

// NewStreamHandler creates a StreamHandler reading from frames.
func NewStreamHandler(frames FrameSource) *StreamHandler {
	return &StreamHandler{frames: frames, interval: StreamInterval}
}

// ServeHTTP streams MJPEG frames until the client disconnects.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		if err := h.writeFrame(w); err == nil {
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func (h *StreamHandler) writeFrame(w http.ResponseWriter) error {
	frame, err := h.frames.ReadFrame()
	if err != nil {
		return err
	}
	defer frame.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return err
	}
	defer buf.Close()

	fmt.Fprintf(w, "--frame\r\n")
	fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
	fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", buf.Len())
	w.Write(buf.GetBytes())
	fmt.Fprintf(w, "\r\n")
	return nil
}
