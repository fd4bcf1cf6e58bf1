// Package hook runs external executables when the capture session changes.
package hook

import (
	"encoding/json"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/session"
)

// Event names passed to hooks.
const (
	EventSessionReset    = "session.reset"
	EventPalmEnrolled    = "palm.enrolled"
	EventFingerMatched   = "finger.matched"
	EventSessionComplete = "session.complete"
)

// Manifest describes a hook and the events it subscribes to.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Events      []string        `json:"events"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Request is written to the hook's stdin as JSON.
type Request struct {
	Event   string          `json:"event"`
	Summary string          `json:"summary"`
	Report  session.Report  `json:"report"`
	Config  json.RawMessage `json:"config,omitempty"`
}

// Response is read from the hook's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Handles reports whether the hook subscribes to event. A manifest without
// events receives all of them.
func (h *Hook) Handles(event string) bool {
	if len(h.Manifest.Events) == 0 {
		return true
	}
	for _, e := range h.Manifest.Events {
		if e == event || e == "*" {
			return true
		}
	}
	return false
}

// EventFor maps a published report to the event it represents.
func EventFor(r session.Report) string {
	switch {
	case r.Complete:
		return EventSessionComplete
	case r.Step == 0:
		return EventSessionReset
	case r.Step == 1:
		return EventPalmEnrolled
	default:
		return EventFingerMatched
	}
}
