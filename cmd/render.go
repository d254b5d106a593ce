package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/hkbatradar/Spectrogram/configs"
	"github.com/hkbatradar/Spectrogram/internal/app"
	"github.com/hkbatradar/Spectrogram/pkg/audio/analyzers"
)

var (
	renderOutDir  string
	renderDemo    bool
	renderTimeout time.Duration
)

// renderCmd represents the render command
var renderCmd = &cobra.Command{
	Use:   "render [flags] [files...]",
	Short: "Render WAV recordings to spectrogram PNGs",
	Long: `Render each WAV recording to a PNG spectrogram named after the file.

Files smaller than 200 KB or longer than 20 seconds are skipped. Recordings
are resampled when --sample-rate is set to a fixed rate.

Examples:
  # Render two recordings with the default settings
  batscope render night1.wav night2.wav

  # Use a Blackman window with 80% overlap
  batscope render --window blackman --overlap 80 night1.wav

  # Render the demo recording
  batscope render --demo

  # Quick screening preset, JSON report
  batscope render --quick -o json recordings/*.wav`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !renderDemo {
			return fmt.Errorf("requires at least one WAV file or --demo")
		}
		return nil
	},
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	sc := configs.GetDefaultSpectrogramConfig()

	renderCmd.Flags().StringVar(&renderOutDir, "out-dir", "",
		"directory for the PNG files (default from render.output_dir)")
	renderCmd.Flags().BoolVar(&renderDemo, "demo", false,
		"load the demo recording; files given as arguments replace it")
	renderCmd.Flags().DurationVar(&renderTimeout, "timeout", 5*time.Minute,
		"overall timeout for the render run")

	renderCmd.Flags().Int("fft-size", sc.FFTSize,
		fmt.Sprintf("FFT size %v", analyzers.AllowedFFTSizes))
	renderCmd.Flags().String("overlap", sc.Overlap,
		"overlap percent 1..99, or auto")
	renderCmd.Flags().String("window", sc.Window,
		"window function (hann, hamming, rectangular, blackman, gauss, triangular)")
	renderCmd.Flags().String("sample-rate", sc.SampleRate,
		"render sample rate in Hz, or auto to keep the file rate")
	renderCmd.Flags().Int("display-width", sc.DisplayWidth,
		"spectrogram width in pixels used by auto overlap")
	renderCmd.Flags().Bool("quick", sc.QuickScreening,
		"quick screening preset (FFT 512, 256 kHz, auto overlap)")
	renderCmd.Flags().Float64("brightness", sc.Brightness,
		"palette brightness offset")
	renderCmd.Flags().Float64("gain", sc.Gain,
		"palette gain, the exponent applied to intensity (> 0)")
	renderCmd.Flags().Float64("contrast", sc.Contrast,
		"palette contrast around mid gray (>= 0)")
	renderCmd.Flags().Int("workers", 0,
		"render goroutines (0 uses every CPU)")
	renderCmd.Flags().String("metrics-addr", "",
		"serve Prometheus metrics on this address while rendering")

	bindConfigFlag(renderCmd, "spectrogram.fft_size", "fft-size")
	bindConfigFlag(renderCmd, "spectrogram.overlap", "overlap")
	bindConfigFlag(renderCmd, "spectrogram.window", "window")
	bindConfigFlag(renderCmd, "spectrogram.sample_rate", "sample-rate")
	bindConfigFlag(renderCmd, "spectrogram.display_width", "display-width")
	bindConfigFlag(renderCmd, "spectrogram.quick_screening", "quick")
	bindConfigFlag(renderCmd, "spectrogram.brightness", "brightness")
	bindConfigFlag(renderCmd, "spectrogram.gain", "gain")
	bindConfigFlag(renderCmd, "spectrogram.contrast", "contrast")
	bindConfigFlag(renderCmd, "render.workers", "workers")
	bindConfigFlag(renderCmd, "metrics.addr", "metrics-addr")
}

func runRender(cmd *cobra.Command, args []string) error {
	actx := appContext()
	actx.Timeout = renderTimeout
	a, err := app.New(actx)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	metricsCtx, stopMetrics := context.WithCancel(ctx)
	metricsDone := make(chan error, 1)
	go func() { metricsDone <- a.ServeMetrics(metricsCtx) }()
	defer func() {
		stopMetrics()
		if err := <-metricsDone; err != nil {
			printWarning("%v", err)
		}
	}()

	human := humanOutput(a)
	if human {
		subject := fmt.Sprintf("%d file(s)", len(args))
		if len(args) == 0 {
			subject = "demo recording"
		}
		printHeader("Spectrogram Render", subject)
	}

	summary, err := a.RenderFiles(ctx, app.RenderOptions{
		Paths:     args,
		OutputDir: renderOutDir,
		Demo:      renderDemo,
	})
	if err != nil {
		return err
	}

	if !human {
		return emit(a, summary)
	}

	printSectionHeader("Rendered")
	for _, r := range summary.Rendered {
		printSuccess("%s -> %s (%dx%d, %.2fs, %dms)", r.File, r.Output, r.Width, r.Height, r.Seconds, r.RenderMS)
		printKeyValue("Settings", r.Summary)
	}
	if len(summary.Skipped) > 0 {
		fmt.Println()
		printSectionHeader("Skipped")
		for _, s := range summary.Skipped {
			printWarning("%s (%s)", s.Name, s.Reason)
		}
	}
	if summary.HighOverlap {
		fmt.Println()
		printInfo("High overlap values render slowly on long recordings")
	}
	return nil
}
