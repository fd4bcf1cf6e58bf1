package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BlurThreshold != 150 || cfg.HandThreshold != 0.85 || cfg.FingerThreshold != 0.90 {
		t.Errorf("unexpected thresholds %+v", cfg)
	}
	if cfg.LowLight != 60 || cfg.BrightLight != 200 || cfg.LightWindow != 5 {
		t.Errorf("unexpected lighting limits %+v", cfg)
	}
	if filepath.Base(cfg.DatabasePath()) != "palmfinger.db" {
		t.Errorf("DatabasePath() = %q", cfg.DatabasePath())
	}
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")

	content := "PALMFINGER_CAMERA_ID=2\nPALMFINGER_DEVICE_ID=kiosk-1\nPALMFINGER_FINGER_THRESHOLD=0.95\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	// Real environment wins over the file
	t.Setenv("PALMFINGER_CAMERA_ID", "4")
	t.Setenv("PALMFINGER_DATA_DIR", dir)
	t.Setenv("PALMFINGER_HOOK_TIMEOUT", "3s")
	t.Setenv("PALMFINGER_TRAY", "true")

	// godotenv writes into the process environment; clean up what it sets
	t.Cleanup(func() {
		os.Unsetenv("PALMFINGER_DEVICE_ID")
		os.Unsetenv("PALMFINGER_FINGER_THRESHOLD")
	})

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.CameraID != 4 {
		t.Errorf("CameraID = %d, want 4", cfg.CameraID)
	}
	if cfg.DeviceID != "kiosk-1" || cfg.FingerThreshold != 0.95 {
		t.Errorf("values from the env file were not applied: %+v", cfg)
	}
	if cfg.CaptureDir != filepath.Join(dir, "captures") || cfg.HookDir != filepath.Join(dir, "hooks") {
		t.Errorf("directories should follow the data dir: %q %q", cfg.CaptureDir, cfg.HookDir)
	}
	if cfg.HookTimeout != 3*time.Second || !cfg.Tray {
		t.Errorf("unexpected hook timeout or tray: %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"not a number", "PALMFINGER_CAMERA_ID", "front"},
		{"threshold above one", "PALMFINGER_HAND_THRESHOLD", "1.5"},
		{"bright below low", "PALMFINGER_BRIGHT_LIGHT", "40"},
		{"bad level", "PALMFINGER_LOG_LEVEL", "loud"},
		{"bad address", "PALMFINGER_HTTP_ADDR", "nowhere"},
		{"bad duration", "PALMFINGER_HOOK_TIMEOUT", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(filepath.Join(t.TempDir(), "none.env")); err == nil {
				t.Errorf("expected an error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
