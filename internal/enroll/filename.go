package enroll

import (
	"fmt"
	"time"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/session"
)

// TimestampLayout is the time format embedded in capture file names.
const TimestampLayout = "20060102_150405"

// FileName returns the name an accepted capture is stored under:
// {handSide}_{stage}_{timestamp}.jpg.
func FileName(side, stage string, t time.Time) string {
	if side == "" {
		side = "Unknown"
	}
	return fmt.Sprintf("%s_%s_%s.jpg", side, stage, t.Format(TimestampLayout))
}

// fileStage is the stage part of a capture file name: "Hand" for the palm,
// "{Finger}_Finger" for a finger.
func fileStage(state session.State) string {
	if f, ok := state.Finger(); ok {
		return f.String() + "_Finger"
	}
	return "Hand"
}
