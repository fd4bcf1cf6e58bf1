package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// ErrTimeout is returned when a hook outlives the executor timeout.
var ErrTimeout = errors.New("hook execution timed out")

// Executor runs a hook executable with a per-call timeout.
type Executor struct {
	timeout time.Duration
}

// NewExecutor returns an Executor that kills hooks after timeout.
func NewExecutor(timeout time.Duration) *Executor {
	return &Executor{timeout: timeout}
}

// Timeout returns the per-hook timeout.
func (e *Executor) Timeout() time.Duration {
	return e.timeout
}

// Execute sends req to the hook on stdin and parses its stdout as a Response.
func (e *Executor) Execute(ctx context.Context, h *Hook, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	cmd := exec.CommandContext(ctx, h.Executable)
	cmd.Dir = h.Path
	// Children of a killed hook may hold the pipes open
	cmd.WaitDelay = time.Second
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%s: %w after %s", h.Manifest.Name, ErrTimeout, e.timeout)
	}
	if err != nil {
		if msg := stderr.String(); msg != "" {
			return nil, fmt.Errorf("%s failed: %w, stderr: %s", h.Manifest.Name, err, msg)
		}
		return nil, fmt.Errorf("%s failed: %w", h.Manifest.Name, err)
	}

	var resp Response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("parse %s response: %w, stdout: %s", h.Manifest.Name, err, stdout.String())
	}
	return &resp, nil
}
