// Package device resolves the opaque identifier reported with every session.
package device

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Unknown is reported when no identifier can be found.
const Unknown = "UNKNOWN"

// ErrNoIdentifier is returned when the platform offers no hardware ID.
var ErrNoIdentifier = errors.New("no hardware identifier found")

var (
	readFile = os.ReadFile
	command  = func(name string, args ...string) ([]byte, error) {
		return exec.Command(name, args...).Output()
	}
	goos = runtime.GOOS
)

// ID returns override when set, otherwise the hardware identifier of this
// machine, otherwise Unknown.
func ID(override string) string {
	if id := strings.TrimSpace(override); id != "" {
		return id
	}

	id, err := Hardware()
	if err != nil {
		return Unknown
	}
	return id
}

// Hardware looks up the platform hardware UUID.
func Hardware() (string, error) {
	switch goos {
	case "darwin":
		return macOSUUID()
	case "linux":
		return linuxUUID()
	case "windows":
		return windowsUUID()
	default:
		return "", errors.New("unsupported platform: " + goos)
	}
}

func macOSUUID() (string, error) {
	out, err := command("ioreg", "-rd1", "-c", "IOPlatformExpertDevice")
	if err != nil {
		return "", err
	}

	for _, line := range strings.Split(string(out), "\n") {
		if !strings.Contains(line, "IOPlatformUUID") {
			continue
		}
		parts := strings.Split(line, "\"")
		if len(parts) >= 4 && parts[3] != "" {
			return parts[3], nil
		}
	}
	return "", ErrNoIdentifier
}

func linuxUUID() (string, error) {
	// product_uuid needs root on most distributions; machine-id does not
	for _, path := range []string{"/sys/class/dmi/id/product_uuid", "/etc/machine-id", "/var/lib/dbus/machine-id"} {
		data, err := readFile(path)
		if err != nil {
			continue
		}
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	}

	cpuinfo, err := readFile("/proc/cpuinfo")
	if err == nil {
		for _, line := range strings.Split(string(cpuinfo), "\n") {
			if !strings.HasPrefix(line, "Serial") {
				continue
			}
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				if id := strings.TrimSpace(parts[1]); id != "" {
					return id, nil
				}
			}
		}
	}
	return "", ErrNoIdentifier
}

func windowsUUID() (string, error) {
	for _, query := range [][]string{{"csproduct", "get", "UUID"}, {"cpu", "get", "ProcessorId"}} {
		out, err := command("wmic", query...)
		if err != nil {
			continue
		}
		header := query[len(query)-1]
		for _, line := range bytes.Split(out, []byte("\n")) {
			s := strings.TrimSpace(string(line))
			if s != "" && !strings.EqualFold(s, header) {
				return s, nil
			}
		}
	}
	return "", ErrNoIdentifier
}
