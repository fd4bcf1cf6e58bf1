package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/app"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/biometric"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/capture"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/config"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/device"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/enroll"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/hook"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/media"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/server"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/store"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/tray"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/pkg/log"
)

func newServeCommand(o *options) *cobra.Command {
	var (
		addr     string
		cameraID int
		withTray bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the camera lane, the HTTP API and the report stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := o.config
			if cmd.Flags().Changed("addr") {
				cfg.HTTPAddr = addr
			}
			if cmd.Flags().Changed("camera") {
				cfg.CameraID = cameraID
			}
			if cmd.Flags().Changed("tray") {
				cfg.Tray = withTray
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default from config)")
	cmd.Flags().IntVar(&cameraID, "camera", 0, "Camera device index")
	cmd.Flags().BoolVar(&withTray, "tray", false, "Show the system tray menu")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	frames, err := media.NewDirSink(cfg.CaptureDir)
	if err != nil {
		return err
	}

	hooks := hook.NewManager(cfg.HookDir)
	if err := hooks.Discover(); err != nil {
		log.Warn(log.Fields{"dir": cfg.HookDir, "error": err.Error()}, "[cli.serve] hook discovery failed")
	}
	dispatcher := hook.NewDispatcher(hooks, hook.NewExecutor(cfg.HookTimeout))
	defer dispatcher.Close()

	hub := server.NewReportHub()
	sinks := []enroll.ReportSink{hub, st.Sessions(), dispatcher}

	var tr *tray.Tray
	if cfg.Tray {
		tr = tray.New()
		sinks = append(sinks, tr)
	}

	a, err := app.New(app.Config{
		Camera:        capture.NewCamera(cfg.CameraID),
		Detector:      newDetector(),
		Store:         st,
		Frames:        frames,
		Sinks:         sinks,
		DeviceID:      device.ID(cfg.DeviceID),
		BlurThreshold: cfg.BlurThreshold,
		Thresholds:    biometric.Thresholds{Hand: cfg.HandThreshold, Finger: cfg.FingerThreshold},
		Lighting:      capture.LightingConfig{Low: cfg.LowLight, Bright: cfg.BrightLight, Window: cfg.LightWindow},
	})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Start(); err != nil {
		return fmt.Errorf("start camera: %w", err)
	}

	// Record the fresh session so history and listeners start from it
	hub.Publish(a.Report())
	st.Sessions().Publish(a.Report())
	if tr != nil {
		tr.Publish(a.Report())
	}

	srv := server.New(server.Config{
		StaticDir:    findWebDir(cfg.DataDir),
		CaptureDir:   cfg.CaptureDir,
		Store:        st,
		Frames:       a,
		Controller:   a,
		Hub:          hub,
		CaptureRate:  cfg.CaptureRate,
		CaptureBurst: cfg.CaptureBurst,
	})

	if tr == nil {
		return srv.Run(ctx, cfg.HTTPAddr)
	}
	return runWithTray(ctx, tr, srv, a, cfg.HTTPAddr)
}

// runWithTray gives the main goroutine to the tray, which some platforms
// require, and serves HTTP in the background.
func runWithTray(ctx context.Context, tr *tray.Tray, srv *server.Server, a *app.App, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tr.OnCapture(func() {
		go func() {
			out, err := a.Capture(ctx)
			if err != nil {
				log.Info(log.Fields{"stage": out.Stage, "message": out.Message, "error": err.Error()}, "[cli.tray] capture rejected")
			}
		}()
	})
	tr.OnReset(func() { a.Reset() })
	tr.OnOpen(func() { openBrowser("http://" + addr) })
	tr.OnQuit(cancel)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx, addr)
		tr.Quit()
	}()

	go func() {
		<-ctx.Done()
		tr.Quit()
	}()

	tr.Run()
	cancel()
	return <-errCh
}

// findWebDir looks for the dashboard files next to the working directory and
// in the data directory.
func findWebDir(dataDir string) string {
	candidates := []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warn(log.Fields{"url": url, "error": err.Error()}, "[cli.openBrowser] could not open browser")
	}
}
