// Package main is a sample palmfinger hook that shows a desktop notification
// when a session changes. It speaks the hook protocol: one JSON request on
// stdin, one JSON response on stdout.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Report mirrors the fields of the session report this hook reads.
type Report struct {
	SessionID      string `json:"sessionId"`
	DeviceID       string `json:"deviceId"`
	Stage          string `json:"stage"`
	HandSide       string `json:"handSide"`
	FingersMatched int    `json:"fingersMatched"`
	Success        bool   `json:"success"`
}

// Request is the input from the hook executor.
type Request struct {
	Event   string `json:"event"`
	Summary string `json:"summary"`
	Report  Report `json:"report"`
}

// Response is the output to the hook executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	title, body := message(req)
	writeResponse(notify(title, body))
}

// message builds the notification text for an event.
func message(req Request) (string, string) {
	r := req.Report
	switch req.Event {
	case "palm.enrolled":
		return "Palm Captured Successfully", fmt.Sprintf("%s hand enrolled. Scan the thumb next.", r.HandSide)
	case "finger.matched":
		return "Finger matched successfully", fmt.Sprintf("%d of 5 fingers matched.", r.FingersMatched)
	case "session.complete":
		return req.Summary, fmt.Sprintf("All five fingers scanned successfully. Session %s.", r.SessionID)
	case "session.reset":
		return "Session reset", "Place your palm in front of the camera."
	default:
		return req.Summary, req.Event
	}
}

// notify shows a notification with the platform's notifier.
func notify(title, body string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", body, title)
		cmd = exec.Command("osascript", "-e", script)
	case "linux":
		cmd = exec.Command("notify-send", title, body)
	default:
		return fmt.Errorf("notifications not supported on %s", runtime.GOOS)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
