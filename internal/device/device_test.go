package device

import (
	"errors"
	"os"
	"testing"
)

func stubPlatform(t *testing.T, platform string, files map[string]string, outputs map[string]string) {
	t.Helper()

	oldRead, oldCommand, oldGOOS := readFile, command, goos
	t.Cleanup(func() {
		readFile, command, goos = oldRead, oldCommand, oldGOOS
	})

	goos = platform
	readFile = func(path string) ([]byte, error) {
		if data, ok := files[path]; ok {
			return []byte(data), nil
		}
		return nil, os.ErrNotExist
	}
	command = func(name string, args ...string) ([]byte, error) {
		key := name
		for _, a := range args {
			key += " " + a
		}
		if out, ok := outputs[key]; ok {
			return []byte(out), nil
		}
		return nil, errors.New("command failed")
	}
}

func TestID_Override(t *testing.T) {
	stubPlatform(t, "linux", map[string]string{"/etc/machine-id": "abc"}, nil)

	if got := ID("  kiosk-3 "); got != "kiosk-3" {
		t.Errorf("ID() = %q, want kiosk-3", got)
	}
}

func TestID_Linux(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{"product uuid", map[string]string{"/sys/class/dmi/id/product_uuid": "4C4C-1\n", "/etc/machine-id": "m"}, "4C4C-1"},
		{"machine id", map[string]string{"/etc/machine-id": "0f9e\n"}, "0f9e"},
		{"raspberry pi serial", map[string]string{"/proc/cpuinfo": "Hardware\t: BCM2835\nSerial\t\t: 00000000abcd\n"}, "00000000abcd"},
		{"nothing", nil, Unknown},
		{"blank files", map[string]string{"/etc/machine-id": "  \n"}, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubPlatform(t, "linux", tt.files, nil)
			if got := ID(""); got != tt.want {
				t.Errorf("ID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestID_Darwin(t *testing.T) {
	out := `+-o J314sAP  <class IOPlatformExpertDevice>
    "IOPlatformUUID" = "1A2B3C4D-0000"
`
	stubPlatform(t, "darwin", nil, map[string]string{"ioreg -rd1 -c IOPlatformExpertDevice": out})

	if got := ID(""); got != "1A2B3C4D-0000" {
		t.Errorf("ID() = %q", got)
	}
}

func TestID_Windows(t *testing.T) {
	stubPlatform(t, "windows", nil, map[string]string{"wmic cpu get ProcessorId": "ProcessorId\r\nBFEBFBFF000906EA\r\n"})

	if got := ID(""); got != "BFEBFBFF000906EA" {
		t.Errorf("ID() = %q, want the processor ID fallback", got)
	}
}

func TestHardware_Unsupported(t *testing.T) {
	stubPlatform(t, "plan9", nil, nil)

	if _, err := Hardware(); err == nil {
		t.Error("expected an error on an unsupported platform")
	}
	if got := ID(""); got != Unknown {
		t.Errorf("ID() = %q, want %q", got, Unknown)
	}
}
