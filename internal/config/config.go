// Package config loads palmfinger settings from a .env file and PALMFINGER_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "PALMFINGER_"

// Config holds every tunable of the application.
type Config struct {
	Env      string `validate:"oneof=development production test"`
	LogLevel string `validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFile  string

	CameraID int    `validate:"gte=0"`
	HTTPAddr string `validate:"required,hostname_port"`

	DataDir     string        `validate:"required"`
	CaptureDir  string        `validate:"required"`
	HookDir     string
	HookTimeout time.Duration `validate:"gt=0"`

	// DeviceID overrides the hardware identifier in reports.
	DeviceID string

	BlurThreshold   float64 `validate:"gt=0"`
	HandThreshold   float64 `validate:"gt=0,lte=1"`
	FingerThreshold float64 `validate:"gt=0,lte=1"`

	LowLight    int `validate:"gte=0,lte=255"`
	BrightLight int `validate:"gte=0,lte=255,gtfield=LowLight"`
	LightWindow int `validate:"gte=1,lte=60"`

	// CaptureRate is the number of capture requests per second the HTTP
	// API accepts; CaptureBurst is the bucket size.
	CaptureRate  float64 `validate:"gt=0"`
	CaptureBurst int     `validate:"gte=1"`

	Tray bool
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".palmfinger")

	return &Config{
		Env:             "development",
		LogLevel:        "info",
		CameraID:        0,
		HTTPAddr:        "127.0.0.1:8765",
		DataDir:         dataDir,
		CaptureDir:      filepath.Join(dataDir, "captures"),
		HookDir:         filepath.Join(dataDir, "hooks"),
		HookTimeout:     10 * time.Second,
		BlurThreshold:   150.0,
		HandThreshold:   0.85,
		FingerThreshold: 0.90,
		LowLight:        60,
		BrightLight:     200,
		LightWindow:     5,
		CaptureRate:     2,
		CaptureBurst:    2,
		Tray:            false,
	}
}

// Load reads envFile (a missing file is fine), overlays the environment on
// the defaults and validates the result. An empty envFile means ".env".
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := Default()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DatabasePath is where the capture history lives.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "palmfinger.db")
}

func (c *Config) applyEnv() error {
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	float := func(name string, dst *float64) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	str("ENV", &c.Env)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FILE", &c.LogFile)
	integer("CAMERA_ID", &c.CameraID)
	str("HTTP_ADDR", &c.HTTPAddr)

	if v, ok := os.LookupEnv(EnvPrefix + "DATA_DIR"); ok {
		// Dependent directories follow the data dir unless set explicitly
		c.DataDir = v
		c.CaptureDir = filepath.Join(v, "captures")
		c.HookDir = filepath.Join(v, "hooks")
	}
	str("CAPTURE_DIR", &c.CaptureDir)
	str("HOOK_DIR", &c.HookDir)
	duration("HOOK_TIMEOUT", &c.HookTimeout)
	str("DEVICE_ID", &c.DeviceID)

	float("BLUR_THRESHOLD", &c.BlurThreshold)
	float("HAND_THRESHOLD", &c.HandThreshold)
	float("FINGER_THRESHOLD", &c.FingerThreshold)
	integer("LOW_LIGHT", &c.LowLight)
	integer("BRIGHT_LIGHT", &c.BrightLight)
	integer("LIGHT_WINDOW", &c.LightWindow)
	float("CAPTURE_RATE", &c.CaptureRate)
	integer("CAPTURE_BURST", &c.CaptureBurst)
	boolean("TRAY", &c.Tray)

	return errors.Join(errs...)
}
