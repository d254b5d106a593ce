package analyzers

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"runtime"
	"slices"
	"sync"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"golang.org/x/sync/errgroup"
)

const (
	// DynamicRangeDecades is the span of log10 magnitude mapped onto 0..255
	DynamicRangeDecades = 5.0

	// magnitudeFloor keeps log10 finite for silent bins
	magnitudeFloor = 1e-12
)

// AllowedFFTSizes lists the transform sizes the renderer accepts. Restricting
// the sizes keeps every frame a power of two.
var AllowedFFTSizes = []int{512, 1024, 2048}

// RenderParams describes one spectrogram render
type RenderParams struct {
	SampleRate     int        `json:"sample_rate"`
	FFTSize        int        `json:"fft_size"`
	OverlapPercent int        `json:"overlap_percent"`
	Window         WindowType `json:"window"`

	// ColorMap maps intensity 0..255 to a colour, see BuildColorMap. Nil
	// renders the raw intensity as grayscale.
	ColorMap []color.RGBA `json:"-"`
}

// SpectrogramImage is a rendered time/frequency image. Column x covers time
// x*HopSize/SampleRate; image row 0 holds the highest frequency bin and row
// Height-1 holds bin 0.
type SpectrogramImage struct {
	Image      *image.RGBA `json:"-"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	SampleRate int         `json:"sample_rate"`
	FFTSize    int         `json:"fft_size"`
	HopSize    int         `json:"hop_size"`
	Window     WindowType  `json:"window"`
}

// ColumnTime returns the start time in seconds of column x
func (s *SpectrogramImage) ColumnTime(x int) float64 {
	return float64(x*s.HopSize) / float64(s.SampleRate)
}

// BinFrequency returns the frequency in Hz of FFT bin y, which is drawn on
// image row Height-1-y
func (s *SpectrogramImage) BinFrequency(y int) float64 {
	return float64(y) * float64(s.SampleRate) / float64(s.FFTSize)
}

// RowBin returns the FFT bin drawn on image row
func (s *SpectrogramImage) RowBin(row int) int {
	return s.Height - 1 - row
}

// Intensity returns the gray level stored at column x, image row. Without a
// colour map this is the render intensity.
func (s *SpectrogramImage) Intensity(x, row int) uint8 {
	return s.Image.RGBAAt(x, row).R
}

// SpectrogramRenderer turns sample buffers into spectrogram images
type SpectrogramRenderer struct {
	windowGenerator *WindowGenerator
	workers         int
	logger          logging.Logger

	plansMu sync.Mutex
	plans   map[int]*FFTPlan
}

// NewSpectrogramRenderer creates a new renderer. workers <= 0 uses one
// goroutine per CPU.
func NewSpectrogramRenderer(workers int) *SpectrogramRenderer {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &SpectrogramRenderer{
		windowGenerator: NewWindowGenerator(),
		workers:         workers,
		plans:           make(map[int]*FFTPlan),
		logger: logging.WithFields(logging.Fields{
			"component": "spectrogram_renderer",
		}),
	}
}

// ValidateParams checks render parameters against the renderer's contract
func ValidateParams(n int, params RenderParams) error {
	if n == 0 {
		return NewAnalysisError(ErrCodeInvalidBufferLength, "empty sample buffer", nil)
	}
	if !slices.Contains(AllowedFFTSizes, params.FFTSize) {
		return NewAnalysisError(ErrCodeInvalidFFTSize,
			fmt.Sprintf("fft size %d not in %v", params.FFTSize, AllowedFFTSizes), nil)
	}
	if n < params.FFTSize {
		return NewAnalysisError(ErrCodeInvalidBufferLength,
			fmt.Sprintf("buffer of %d samples is shorter than fft size %d", n, params.FFTSize), nil)
	}
	if params.SampleRate <= 0 {
		return NewAnalysisError(ErrCodeInvalidSampleRate,
			fmt.Sprintf("sample rate must be positive, got %d", params.SampleRate), nil)
	}
	if params.OverlapPercent < 0 || params.OverlapPercent > 100 {
		return NewAnalysisError(ErrCodeInvalidOverlap,
			fmt.Sprintf("overlap must be within 0..100, got %d", params.OverlapPercent), nil)
	}
	if params.ColorMap != nil && len(params.ColorMap) != 256 {
		return NewAnalysisError(ErrCodeInvalidColorMap,
			fmt.Sprintf("color map needs 256 entries, got %d", len(params.ColorMap)), nil)
	}
	return nil
}

// Render computes the windowed STFT of samples and maps each bin magnitude
// to a 0..255 log intensity. It stops early with ctx.Err() when ctx is
// cancelled.
func (sr *SpectrogramRenderer) Render(ctx context.Context, samples []float32, params RenderParams) (*SpectrogramImage, error) {
	if params.Window == "" {
		params.Window = WindowHann
	}
	if err := ValidateParams(len(samples), params); err != nil {
		return nil, err
	}

	logger := sr.logger.WithFields(logging.Fields{
		"function":    "Render",
		"samples":     len(samples),
		"fft_size":    params.FFTSize,
		"overlap":     params.OverlapPercent,
		"window":      string(params.Window),
		"sample_rate": params.SampleRate,
	})

	win, err := sr.windowGenerator.Generate(params.Window, params.FFTSize)
	if err != nil {
		return nil, err
	}
	plan, err := sr.plan(params.FFTSize)
	if err != nil {
		return nil, err
	}

	hop := HopSize(params.FFTSize, params.OverlapPercent)
	width := ColumnCount(len(samples), params.FFTSize, hop)
	height := params.FFTSize / 2

	logger.Debug("Rendering spectrogram", logging.Fields{
		"hop":    hop,
		"width":  width,
		"height": height,
	})

	img := image.NewRGBA(image.Rect(0, 0, width, height))

	err = runColumns(ctx, sr.workers, width, func() columnFunc {
		re := make([]float64, params.FFTSize)
		im := make([]float64, params.FFTSize)
		return func(x int) error {
			start := x * hop
			if start+params.FFTSize > len(samples) {
				return nil
			}
			for j := range params.FFTSize {
				re[j] = float64(samples[start+j]) * win[j]
				im[j] = 0
			}
			if err := plan.Transform(re, im); err != nil {
				return fmt.Errorf("failed to transform frame %d: %w", x, err)
			}
			writeColumn(img, x, re, im, params.ColorMap)
			return nil
		}
	})
	if err != nil && ctx.Err() == nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		logger.Debug("Render cancelled")
		return nil, err
	}

	logger.Debug("Spectrogram render completed")

	return &SpectrogramImage{
		Image:      img,
		Width:      width,
		Height:     height,
		SampleRate: params.SampleRate,
		FFTSize:    params.FFTSize,
		HopSize:    hop,
		Window:     params.Window,
	}, nil
}

// columnFunc renders one image column
type columnFunc func(x int) error

// runColumns calls a columnFunc for every column in [0, width) on up to
// workers goroutines. newWorker is called once per goroutine so each one
// owns its buffers. The first error stops the feed and the other workers;
// a done ctx stops them with ctx.Err().
func runColumns(ctx context.Context, workers, width int, newWorker func() columnFunc) error {
	g, gctx := errgroup.WithContext(ctx)
	columns := make(chan int, workers*2)

	g.Go(func() error {
		defer close(columns)
		for x := range width {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case columns <- x:
			}
		}
		return nil
	})

	for range max(1, min(workers, width)) {
		work := newWorker()
		g.Go(func() error {
			for x := range columns {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := work(x); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return g.Wait()
}

// plan returns a cached FFT plan for size
func (sr *SpectrogramRenderer) plan(size int) (*FFTPlan, error) {
	sr.plansMu.Lock()
	defer sr.plansMu.Unlock()

	if p, ok := sr.plans[size]; ok {
		return p, nil
	}
	p, err := NewFFTPlan(size)
	if err != nil {
		return nil, err
	}
	sr.plans[size] = p
	return p, nil
}

// MagnitudeToIntensity maps a bin magnitude to a display intensity
func MagnitudeToIntensity(magnitude float64) uint8 {
	v := math.Log10(magnitude+magnitudeFloor) / DynamicRangeDecades
	v = math.Max(0, math.Min(1, v))
	return uint8(math.Floor(v * 255))
}

// writeColumn stores bins [0, len/2) of one transformed frame into column x,
// flipping so that bin 0 lands on the bottom row
func writeColumn(img *image.RGBA, x int, re, im []float64, colorMap []color.RGBA) {
	height := len(re) / 2
	for y := range height {
		mag := math.Sqrt(re[y]*re[y] + im[y]*im[y])
		v := MagnitudeToIntensity(mag)

		c := color.RGBA{R: v, G: v, B: v, A: 255}
		if colorMap != nil {
			c = colorMap[v]
			c.A = 255
		}
		img.SetRGBA(x, height-1-y, c)
	}
}
