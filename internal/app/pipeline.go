package app

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/pkg/log"
)

// runLane samples the camera until stop is closed. Every frame feeds the
// lighting monitor and the stillness detector and becomes the newest frame
// for captures and the preview stream.
func (a *App) runLane(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			failures++
			// Log the first failure of a streak and then every few seconds
			if failures == 1 || failures%(a.config.FPS*5) == 0 {
				log.Warn(log.Fields{"error": err.Error(), "failures": failures}, "[app.runLane] error reading frame")
			}
			continue
		}
		failures = 0

		a.observe(frame)
	}
}

// observe feeds one lane frame to the monitors and keeps it as the newest
// frame. It takes ownership of frame.
func (a *App) observe(frame *gocv.Mat) {
	a.lighting.Observe(frame)
	steadiness := a.stillness.Observe(frame)

	a.mu.Lock()
	old := a.latest
	a.latest = frame
	a.steadiness = steadiness
	a.mu.Unlock()

	if old != nil {
		old.Close()
	}
}
