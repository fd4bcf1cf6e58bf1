package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/capture"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/config"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/detector"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/geometry"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/media"
)

// inspection is the quality report of one image.
type inspection struct {
	Path       string        `json:"path"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	BlurScore  float64       `json:"blurScore"`
	Blurred    bool          `json:"blurred"`
	Brightness int           `json:"brightness"`
	Light      capture.Light `json:"light"`
	Hands      int           `json:"hands"`
	HandSide   string        `json:"handSide,omitempty"`
	Extended   int           `json:"extendedFingers"`
	Finger     string        `json:"finger,omitempty"`
	PalmDorsal bool          `json:"palmDorsal"`
	Error      string        `json:"error,omitempty"`
}

func newInspectCommand(o *options) *cobra.Command {
	var (
		detect  bool
		asJSON  bool
		workers int
	)

	cmd := &cobra.Command{
		Use:   "inspect <image>...",
		Short: "Score stored images for sharpness, lighting and hand geometry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var det detector.Detector
			if detect {
				det = newDetector()
				defer det.Close()
			}

			results, err := inspectImages(cmd.Context(), o.config, det, args, workers)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			printInspections(cmd.OutOrStdout(), results)
			return nil
		},
	}

	cmd.Flags().BoolVar(&detect, "detect", true, "Run hand detection on each image")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	cmd.Flags().IntVarP(&workers, "workers", "w", runtime.NumCPU(), "Images scored in parallel")
	return cmd
}

// inspectImages scores every path in parallel. Unreadable images are
// reported in their row; only cancellation fails the whole run.
func inspectImages(ctx context.Context, cfg *config.Config, det detector.Detector, paths []string, workers int) ([]inspection, error) {
	if workers < 1 {
		workers = 1
	}

	scorer := capture.NewSharpnessScorer(cfg.BlurThreshold)
	lighting := capture.LightingConfig{Low: cfg.LowLight, Bright: cfg.BrightLight, Window: 1}

	results := make([]inspection, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = inspectImage(path, scorer, lighting, det)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func inspectImage(path string, scorer *capture.SharpnessScorer, lighting capture.LightingConfig, det detector.Detector) inspection {
	res := inspection{Path: path}

	frame, err := media.Load(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer frame.Close()

	res.Width, res.Height = frame.Cols(), frame.Rows()
	res.BlurScore = scorer.Score(frame)
	res.Blurred = res.BlurScore < scorer.Threshold()

	reading := capture.NewLightingMonitor(lighting).Observe(frame)
	res.Brightness, res.Light = reading.Brightness, reading.Light

	if det == nil {
		return res
	}

	hands, err := det.Detect(frame)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Hands = len(hands)
	if len(hands) == 0 {
		return res
	}

	hand := &hands[0]
	res.HandSide = string(geometry.Handedness(hand))
	res.Extended = geometry.CountExtendedFingers(hand)
	res.PalmDorsal = geometry.Default.IsPalmDorsal(hand)
	if f, ok := geometry.IdentifyExtendedFinger(hand); ok {
		res.Finger = f.String()
	}
	return res
}

func printInspections(w io.Writer, results []inspection) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "IMAGE\tSIZE\tBLUR\tLIGHT\tHANDS\tSIDE\tFINGER\tNOTE")

	for _, r := range results {
		if r.Error != "" && r.Width == 0 {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\t-\t%s\n", r.Path, r.Error)
			continue
		}

		note := r.Error
		switch {
		case note != "":
		case r.Blurred:
			note = "blurred"
		case r.Light != capture.LightNormal:
			note = "poor lighting"
		case r.PalmDorsal:
			note = "dorsal side"
		}

		fmt.Fprintf(tw, "%s\t%dx%d\t%.1f\t%s (%d)\t%d\t%s\t%s\t%s\n",
			r.Path, r.Width, r.Height, r.BlurScore, r.Light, r.Brightness,
			r.Hands, dash(r.HandSide), dash(r.Finger), dash(note))
	}
	tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
