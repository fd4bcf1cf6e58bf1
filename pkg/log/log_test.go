package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLogger_Level(t *testing.T) {
	t.Cleanup(func() { NewLogger(Options{}) })

	tests := []struct {
		level string
		want  logrus.Level
	}{
		{"", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"nonsense", logrus.DebugLevel},
	}

	for _, tt := range tests {
		l := NewLogger(Options{Level: tt.level, NoColors: true})
		if l.GetLevel() != tt.want {
			t.Errorf("level %q: got %v, want %v", tt.level, l.GetLevel(), tt.want)
		}
		if Logger() != l {
			t.Error("Logger() should return the configured logger")
		}
	}
}

func TestNewLogger_File(t *testing.T) {
	t.Cleanup(func() { NewLogger(Options{}) })

	file := filepath.Join(t.TempDir(), "palmfinger.log")
	NewLogger(Options{Level: "info", File: file, NoColors: true})

	Debug(Fields{"hidden": true}, "[log.Test] below level")
	Info(Fields{"stage": "Palm"}, "[log.Test] capture accepted")
	Warn(nil, "[log.Test] no fields")

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(data)

	if !strings.Contains(out, "capture accepted") || !strings.Contains(out, "Palm") {
		t.Errorf("log file missing info entry:\n%s", out)
	}
	if !strings.Contains(out, "no fields") {
		t.Errorf("log file missing warn entry:\n%s", out)
	}
	if strings.Contains(out, "below level") {
		t.Errorf("debug entry written at info level:\n%s", out)
	}
}
