package session

import (
	"errors"
	"time"
)

// ErrWrongState is returned when a transition does not apply to the
// current state.
var ErrWrongState = errors.New("transition not allowed in current state")

// ErrStale is returned when a transition names a session ID that Reset has
// since replaced.
var ErrStale = errors.New("session was reset")

// Quality is the capture quality recorded with an accepted capture.
type Quality struct {
	Brightness int
	Light      string
	BlurScore  float64
}

// Report is the snapshot published on every state change.
type Report struct {
	SessionID      string    `json:"sessionId"`
	DeviceID       string    `json:"deviceId"`
	State          string    `json:"state"`
	Stage          string    `json:"stage"`
	Step           int       `json:"step"`
	Brightness     int       `json:"brightness"`
	Light          string    `json:"light"`
	BlurScore      float64   `json:"blurScore"`
	HandSide       string    `json:"handSide,omitempty"`
	FingersMatched int       `json:"fingersMatched"`
	Complete       bool      `json:"complete"`
	Success        bool      `json:"success"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Summary is the headline of the scan report.
func (r Report) Summary() string {
	if r.Success {
		return "Scan Successful"
	}
	return "Scan Incomplete"
}
