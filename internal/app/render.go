package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/RyanBlaney/latency-benchmark-common/logging"

	"github.com/hkbatradar/Spectrogram/internal/render"
	"github.com/hkbatradar/Spectrogram/internal/session"
	"github.com/hkbatradar/Spectrogram/pkg/audio/analyzers"
	"github.com/hkbatradar/Spectrogram/pkg/audio/wavfile"
)

// RenderReport describes one rendered recording
type RenderReport struct {
	File       string  `json:"file" yaml:"file"`
	Output     string  `json:"output" yaml:"output"`
	Seconds    float64 `json:"seconds" yaml:"seconds"`
	SampleRate int     `json:"sample_rate" yaml:"sample_rate"`
	FFTSize    int     `json:"fft_size" yaml:"fft_size"`
	Overlap    int     `json:"overlap_percent" yaml:"overlap_percent"`
	Window     string  `json:"window" yaml:"window"`
	Width      int     `json:"width" yaml:"width"`
	Height     int     `json:"height" yaml:"height"`
	Summary    string  `json:"summary" yaml:"summary"`
	RenderMS   int64   `json:"render_ms" yaml:"render_ms"`
	Metadata   any     `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// RenderSummary is the outcome of a render run
type RenderSummary struct {
	Rendered []RenderReport    `json:"rendered" yaml:"rendered"`
	Skipped  []session.Skipped `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	// HighOverlap is set when the manual overlap is slow to render
	HighOverlap bool `json:"high_overlap_notice,omitempty" yaml:"high_overlap_notice,omitempty"`
}

// RenderOptions selects what RenderFiles renders
type RenderOptions struct {
	Paths     []string
	OutputDir string
	// Demo preloads the demo recording; user paths abort the fetch
	Demo bool
}

// RenderFiles loads the recordings into the session and renders each one
// to a PNG spectrogram through the render worker. The run is bounded by the
// context Timeout when one is set.
func (a *App) RenderFiles(ctx context.Context, opts RenderOptions) (*RenderSummary, error) {
	if a.ctx.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.ctx.Timeout)
		defer cancel()
	}
	if opts.OutputDir == "" {
		opts.OutputDir = a.config.Render.OutputDir
	}

	summary := &RenderSummary{}
	if err := a.fillSession(ctx, opts, summary); err != nil {
		return nil, err
	}

	surface := render.DirSurface{Dir: opts.OutputDir}
	worker := a.NewWorker(surface)
	defer worker.Close()

	summary.HighOverlap = a.settings.Overlap.NeedsHighOverlapNotice()

	for i, f := range a.session.Files() {
		a.session.SetCurrentIndex(i)

		report, err := a.renderFile(ctx, worker, f)
		if err != nil {
			return summary, err
		}
		report.Output = surface.PathFor(f.Name)
		if md := a.session.Metadata(i); md.Date != "" || md.Latitude != "" {
			report.Metadata = md
		}
		summary.Rendered = append(summary.Rendered, report)
	}

	return summary, nil
}

func (a *App) fillSession(ctx context.Context, opts RenderOptions, summary *RenderSummary) error {
	if opts.Demo && len(opts.Paths) == 0 {
		if _, err := a.loader.PreloadDemo(ctx); err != nil {
			return fmt.Errorf("failed to load demo recording: %w", err)
		}
		return nil
	}

	if opts.Demo {
		// the user load below aborts this fetch unless it already finished
		results, err := a.loader.StartDemo(ctx)
		if err != nil {
			return fmt.Errorf("failed to start demo preload: %w", err)
		}
		defer func() {
			if r := <-results; r.Err != nil && !errors.Is(r.Err, session.ErrDemoAborted) {
				a.logger.Warn("Demo preload failed", logging.Fields{"error": r.Err.Error()})
			}
		}()
	}

	res, err := a.loader.LoadPaths(ctx, opts.Paths)
	if err != nil {
		return fmt.Errorf("failed to load recordings: %w", err)
	}
	summary.Skipped = res.Skipped
	for _, s := range res.Skipped {
		a.logger.Warn("Recording skipped", logging.Fields{
			"file":   s.Name,
			"reason": string(s.Reason),
		})
	}
	return nil
}

func (a *App) renderFile(ctx context.Context, worker *render.Worker, f session.File) (RenderReport, error) {
	var (
		rec *wavfile.Recording
		err error
	)
	if f.Data != nil {
		rec, err = wavfile.DecodeBytes(f.Data)
	} else {
		rec, err = wavfile.Load(f.Path)
	}
	if err != nil {
		return RenderReport{}, fmt.Errorf("failed to decode %s: %w", f.Name, err)
	}

	rate := a.settings.EffectiveSampleRate(rec.SampleRate)
	samples, err := analyzers.Resample(rec.Samples, rec.SampleRate, rate)
	if err != nil {
		return RenderReport{}, fmt.Errorf("failed to resample %s: %w", f.Name, err)
	}

	width := a.config.Spectrogram.DisplayWidth
	params := analyzers.RenderParams{
		SampleRate:     rate,
		FFTSize:        a.settings.FFTSize,
		OverlapPercent: a.settings.Overlap.Resolve(len(samples), width, a.settings.FFTSize),
		Window:         a.settings.Window,
		ColorMap:       a.colorMap,
	}
	autoPercent, ok := analyzers.AutoOverlapPercent(len(samples), width, a.settings.FFTSize)

	c, err := worker.Render(ctx, render.Request{
		Samples: samples,
		Params:  params,
		Tag:     f.Name,
	})
	if err != nil {
		return RenderReport{}, fmt.Errorf("failed to render %s: %w", f.Name, err)
	}

	return RenderReport{
		File:       f.Name,
		Seconds:    rec.Seconds(),
		SampleRate: rate,
		FFTSize:    params.FFTSize,
		Overlap:    params.OverlapPercent,
		Window:     string(params.Window),
		Width:      c.Image.Width,
		Height:     c.Image.Height,
		Summary:    a.settings.Summary(rate, autoPercent, ok),
		RenderMS:   c.Duration.Milliseconds(),
	}, nil
}
