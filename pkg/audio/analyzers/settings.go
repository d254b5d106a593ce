package analyzers

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SampleRateAuto keeps the recording's own sample rate
const SampleRateAuto = 0

// SampleRateOptions lists the selectable sample rates in display order.
// SampleRateAuto comes first.
var SampleRateOptions = []int{SampleRateAuto, 96000, 192000, 256000, 384000, 500000}

// Quick screening preset values
const (
	QuickPresetFFTSize    = 512
	QuickPresetSampleRate = 256000
)

// Defaults used by a fresh viewer
const (
	DefaultFFTSize = 1024
	DefaultWindow  = WindowHann
)

// ParseSampleRate converts "auto" or a rate in Hz into one of SampleRateOptions
func ParseSampleRate(value string) (int, error) {
	v := strings.TrimSpace(strings.ToLower(value))
	if v == "" || v == "auto" {
		return SampleRateAuto, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n == SampleRateAuto || !slices.Contains(SampleRateOptions, n) {
		return SampleRateAuto, NewAnalysisError(ErrCodeInvalidSampleRate,
			fmt.Sprintf("sample rate %q is not one of auto, 96000, 192000, 256000, 384000, 500000", value), err)
	}
	return n, nil
}

// SpectrogramSettings is the user-selected rendering configuration
type SpectrogramSettings struct {
	SampleRate int            `json:"sample_rate" yaml:"sample_rate"`
	FFTSize    int            `json:"fft_size" yaml:"fft_size"`
	Overlap    OverlapSetting `json:"overlap" yaml:"overlap"`
	Window     WindowType     `json:"window" yaml:"window"`

	quickPreset   bool
	prevRate      int
	prevFFTSize   int
	overlapNotice bool
}

// NewSpectrogramSettings creates settings with the viewer defaults
func NewSpectrogramSettings() *SpectrogramSettings {
	return &SpectrogramSettings{
		SampleRate: SampleRateAuto,
		FFTSize:    DefaultFFTSize,
		Overlap:    AutoOverlap(),
		Window:     DefaultWindow,
	}
}

// EffectiveSampleRate returns the rate to render at, falling back to the
// recording's rate when the selection is auto
func (s *SpectrogramSettings) EffectiveSampleRate(fileRate int) int {
	if s.SampleRate == SampleRateAuto {
		return fileRate
	}
	return s.SampleRate
}

// SetFFTSize selects a new transform size. It is rejected while the quick
// preset holds the size locked.
func (s *SpectrogramSettings) SetFFTSize(size int) error {
	if s.quickPreset {
		return fmt.Errorf("fft size is locked by the quick screening preset")
	}
	if !slices.Contains(AllowedFFTSizes, size) {
		return NewAnalysisError(ErrCodeInvalidFFTSize,
			fmt.Sprintf("fft size %d not in %v", size, AllowedFFTSizes), nil)
	}
	s.FFTSize = size
	return nil
}

// SetSampleRate selects a new sample rate option
func (s *SpectrogramSettings) SetSampleRate(rate int) error {
	if s.quickPreset {
		return fmt.Errorf("sample rate is locked by the quick screening preset")
	}
	if !slices.Contains(SampleRateOptions, rate) {
		return NewAnalysisError(ErrCodeInvalidSampleRate,
			fmt.Sprintf("sample rate %d is not selectable", rate), nil)
	}
	s.SampleRate = rate
	return nil
}

// SetOverlap applies an overlap setting. notice is true the first time a
// manual value at or above HighOverlapThreshold is applied.
func (s *SpectrogramSettings) SetOverlap(o OverlapSetting) (notice bool) {
	s.Overlap = o
	if o.NeedsHighOverlapNotice() && !s.overlapNotice {
		s.overlapNotice = true
		return true
	}
	return false
}

// QuickPresetActive reports whether the quick screening preset is on
func (s *SpectrogramSettings) QuickPresetActive() bool {
	return s.quickPreset
}

// ToggleQuickPreset enters or leaves the quick screening preset. Entering
// locks FFT size and sample rate to the preset values; leaving restores the
// previous selection. Either way overlap returns to auto.
func (s *SpectrogramSettings) ToggleQuickPreset() {
	if !s.quickPreset {
		s.prevRate = s.SampleRate
		s.prevFFTSize = s.FFTSize
		s.FFTSize = QuickPresetFFTSize
		s.SampleRate = QuickPresetSampleRate
		s.quickPreset = true
	} else {
		s.FFTSize = s.prevFFTSize
		s.SampleRate = s.prevRate
		s.quickPreset = false
	}
	s.Overlap = AutoOverlap()
}

// Summary renders the one-line description shown under the spectrogram.
// autoPercent is the derived overlap when Overlap is auto; ok is false when
// it could not be derived.
func (s *SpectrogramSettings) Summary(sampleRate int, autoPercent int, ok bool) string {
	var overlap string
	switch {
	case s.Overlap.Auto && ok:
		overlap = fmt.Sprintf("Auto (%d%%)", autoPercent)
	case s.Overlap.Auto:
		overlap = "Auto"
	default:
		overlap = fmt.Sprintf("%d%%", s.Overlap.Percent)
	}

	return fmt.Sprintf("Sampling rate: %skHz, FFT size: %d, Overlap size: %s, %s window",
		strconv.FormatFloat(float64(sampleRate)/1000, 'f', -1, 64),
		s.FFTSize,
		overlap,
		WindowLabel(s.Window),
	)
}

// WindowLabel returns the display label of a window kind ("Hann")
func WindowLabel(w WindowType) string {
	return cases.Title(language.English).String(string(w))
}
