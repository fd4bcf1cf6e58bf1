package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/app"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/biometric"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/capture"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/config"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/device"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/enroll"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/media"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/session"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/store"
)

// ErrScanIncomplete is returned when an offline scan stops before all five
// fingers matched.
var ErrScanIncomplete = errors.New("scan incomplete")

// stageFlags names the image flag of each stage, palm first.
var stageFlags = [6]string{"palm", "thumb", "index", "middle", "ring", "little"}

type enrollOptions struct {
	images [6]string
	save   bool
	record bool
	asJSON bool
}

// enrollResult is printed when the run ends.
type enrollResult struct {
	Summary  string           `json:"summary"`
	Report   session.Report   `json:"report"`
	Outcomes []enroll.Outcome `json:"outcomes"`
}

func newEnrollCommand(o *options) *cobra.Command {
	eo := &enrollOptions{}

	cmd := &cobra.Command{
		Use:   "enroll",
		Short: "Run a full palm and finger scan from stored images",
		Long: "Runs the capture state machine over still images: the palm first, then\n" +
			"thumb to little finger. Each image also stands in for the live stream when\n" +
			"measuring light. The scan stops at the first rejected image.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnroll(cmd.Context(), o.config, eo, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	for i, name := range stageFlags {
		cmd.Flags().StringVar(&eo.images[i], name, "", fmt.Sprintf("Image of the %s", name))
	}
	cmd.MarkFlagRequired("palm")
	cmd.Flags().BoolVar(&eo.save, "save", false, "Store accepted images in the capture directory")
	cmd.Flags().BoolVar(&eo.record, "record", false, "Record the session in the history database")
	cmd.Flags().BoolVar(&eo.asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func runEnroll(ctx context.Context, cfg *config.Config, eo *enrollOptions, stdout, stderr io.Writer) error {
	// Each still is its own scene; nothing to smooth across
	lighting := capture.LightingConfig{Low: cfg.LowLight, Bright: cfg.BrightLight, Window: 1}

	appCfg := app.Config{
		Camera:        capture.NewMockCamera(nil, false),
		Detector:      newDetector(),
		DeviceID:      device.ID(cfg.DeviceID),
		BlurThreshold: cfg.BlurThreshold,
		Thresholds:    biometric.Thresholds{Hand: cfg.HandThreshold, Finger: cfg.FingerThreshold},
		Lighting:      lighting,
	}

	if eo.save {
		frames, err := media.NewDirSink(cfg.CaptureDir)
		if err != nil {
			return err
		}
		appCfg.Frames = frames
	}

	var st *store.Store
	if eo.record {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
		var err error
		st, err = store.New(cfg.DatabasePath())
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
		appCfg.Store = st
		appCfg.Sinks = append(appCfg.Sinks, st.Sessions())
	}

	a, err := app.New(appCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if st != nil {
		st.Sessions().Publish(a.Report())
	}

	bar := progressbar.NewOptions(len(stageFlags),
		progressbar.OptionSetDescription("Scanning"),
		progressbar.OptionSetWriter(stderr),
		progressbar.OptionShowCount(),
	)

	result := enrollResult{}
	runErr := scanImages(ctx, a, eo.images, bar, &result)
	bar.Exit()
	fmt.Fprintln(stderr)

	result.Report = a.Report()
	result.Summary = result.Report.Summary()
	if err := printEnroll(stdout, result, eo.asJSON); err != nil {
		return err
	}

	if runErr != nil {
		return runErr
	}
	if !result.Report.Success {
		return ErrScanIncomplete
	}
	return nil
}

// scanImages feeds the images in stage order until one is rejected or a
// stage has no image.
func scanImages(ctx context.Context, a *app.App, images [6]string, bar *progressbar.ProgressBar, result *enrollResult) error {
	for i, path := range images {
		if path == "" {
			return fmt.Errorf("%w: no --%s image", ErrScanIncomplete, stageFlags[i])
		}

		frame, err := media.Load(path)
		if err != nil {
			return err
		}

		a.Lighting().Observe(frame)
		out, err := a.Evaluate(ctx, frame)
		frame.Close()

		result.Outcomes = append(result.Outcomes, out)
		if err != nil {
			if r, ok := enroll.AsRejection(err); ok {
				return fmt.Errorf("%s rejected (%s): %s", out.Stage, r.Reason, out.Message)
			}
			return err
		}
		bar.Add(1)
	}
	return nil
}

func printEnroll(w io.Writer, result enrollResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	for _, out := range result.Outcomes {
		status := "ok"
		if !out.Accepted {
			status = "rejected"
		}
		fmt.Fprintf(w, "%-8s %-9s %s\n", out.Stage, status, out.Message)
	}

	r := result.Report
	fmt.Fprintf(w, "\n%s\n", result.Summary)
	fmt.Fprintf(w, "Session:   %s\n", r.SessionID)
	fmt.Fprintf(w, "Device:    %s\n", r.DeviceID)
	fmt.Fprintf(w, "Hand:      %s\n", dash(r.HandSide))
	fmt.Fprintf(w, "Fingers:   %d/5\n", r.FingersMatched)
	fmt.Fprintf(w, "Lighting:  %s (%d)\n", r.Light, r.Brightness)
	fmt.Fprintf(w, "Blur:      %.1f\n", r.BlurScore)
	return nil
}
