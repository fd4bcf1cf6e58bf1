package hook

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/session"
)

func scriptHook(t *testing.T, name, script string) *Hook {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, name+".sh")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Hook{
		Manifest:   Manifest{Name: name, Executable: name + ".sh"},
		Path:       dir,
		Executable: path,
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	h := scriptHook(t, "echo", `#!/bin/sh
INPUT=$(cat)
echo "{\"success\":true,\"data\":$INPUT}"
`)

	req := &Request{
		Event:   EventSessionComplete,
		Summary: "Scan Successful",
		Report:  session.Report{SessionID: "s-1", HandSide: "Right", FingersMatched: 5, Complete: true, Success: true},
	}

	resp, err := NewExecutor(5 * time.Second).Execute(context.Background(), h, req)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success")
	}

	var got Request
	if err := json.Unmarshal(resp.Data, &got); err != nil {
		t.Fatalf("failed to unmarshal echoed request: %v", err)
	}
	if got.Event != EventSessionComplete || got.Report.SessionID != "s-1" || got.Report.FingersMatched != 5 {
		t.Errorf("hook received %+v", got)
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	h := scriptHook(t, "fails", `#!/bin/sh
cat > /dev/null
echo '{"success":false,"error":"something went wrong"}'
`)

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), h, &Request{Event: EventPalmEnrolled})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Success || resp.Error != "something went wrong" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestExecutor_Execute_Failures(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"invalid-json", "#!/bin/sh\necho 'not valid json'\n"},
		{"non-zero-exit", "#!/bin/sh\necho 'boom' >&2\nexit 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := scriptHook(t, tt.name, tt.script)
			if _, err := NewExecutor(5*time.Second).Execute(context.Background(), h, &Request{}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestExecutor_Timeout(t *testing.T) {
	h := scriptHook(t, "slow", "#!/bin/sh\nsleep 10\necho '{\"success\":true}'\n")

	start := time.Now()
	_, err := NewExecutor(100*time.Millisecond).Execute(context.Background(), h, &Request{})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Execute() error = %v, want ErrTimeout", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("hook was not killed at the timeout")
	}
}
