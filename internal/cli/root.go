// Package cli implements the palmfinger command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/config"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/detector"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/pkg/log"
)

// Version is the application version.
const Version = "0.1.0"

// options is shared by every subcommand. Config is filled in by the root
// command before any subcommand runs.
type options struct {
	envFile  string
	logLevel string
	logFile  string
	dataDir  string
	deviceID string

	config *config.Config
}

// newDetector returns MediaPipe when its service script is installed and the
// mock detector otherwise. Tests replace it.
var newDetector = func() detector.Detector {
	mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig())
	if err != nil {
		log.Warn(log.Fields{"error": err.Error()}, "[cli.newDetector] MediaPipe not available, using mock detector")
		return detector.NewMockDetector()
	}
	log.Info(nil, "[cli.newDetector] using MediaPipe hand detection")
	return mp
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:           "palmfinger",
		Short:         "Palm and five-finger capture with quality gating",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.load(cmd)
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	flags := root.PersistentFlags()
	flags.StringVar(&o.envFile, "env-file", ".env", "Path to a .env file with PALMFINGER_* settings")
	flags.StringVar(&o.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.StringVar(&o.logFile, "log-file", "", "Also write logs to this file, rotated")
	flags.StringVar(&o.dataDir, "data-dir", "", "Directory for the database, captures and hooks")
	flags.StringVar(&o.deviceID, "device-id", "", "Device identifier reported with every session")

	root.AddCommand(
		newServeCommand(o),
		newInspectCommand(o),
		newEnrollCommand(o),
		newDeviceCommand(o),
	)
	return root
}

// load reads the configuration and lets explicit flags win over it.
func (o *options) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = o.logFile
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = o.dataDir
		cfg.CaptureDir = filepath.Join(o.dataDir, "captures")
		cfg.HookDir = filepath.Join(o.dataDir, "hooks")
	}
	if flags.Changed("device-id") {
		cfg.DeviceID = o.deviceID
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	log.NewLogger(log.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	o.config = cfg
	return nil
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
