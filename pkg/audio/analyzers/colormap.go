package analyzers

import (
	"fmt"
	"image/color"
	"math"
)

// Tone defaults of a fresh viewer
const (
	DefaultBrightness = -0.06
	DefaultGain       = 2.1
	DefaultContrast   = 1.25
)

// ToneSettings shapes the grayscale palette the spectrogram is drawn with.
// Loud bins are dark on a light background.
type ToneSettings struct {
	Brightness float64 `json:"brightness" yaml:"brightness"`
	Gain       float64 `json:"gain" yaml:"gain"`
	Contrast   float64 `json:"contrast" yaml:"contrast"`
}

// DefaultTone returns the viewer's default tone settings
func DefaultTone() ToneSettings {
	return ToneSettings{
		Brightness: DefaultBrightness,
		Gain:       DefaultGain,
		Contrast:   DefaultContrast,
	}
}

// Validate checks that the settings produce a usable palette
func (t ToneSettings) Validate() error {
	for name, v := range map[string]float64{"brightness": t.Brightness, "gain": t.Gain, "contrast": t.Contrast} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewAnalysisError(ErrCodeInvalidColorMap, fmt.Sprintf("%s must be finite, got %v", name, v), nil)
		}
	}
	if t.Gain <= 0 {
		return NewAnalysisError(ErrCodeInvalidColorMap, fmt.Sprintf("gain must be positive, got %v", t.Gain), nil)
	}
	if t.Contrast < 0 {
		return NewAnalysisError(ErrCodeInvalidColorMap, fmt.Sprintf("contrast must not be negative, got %v", t.Contrast), nil)
	}
	return nil
}

// BuildColorMap returns the 256-entry palette indexed by render intensity.
// Entry i is the gray level
//
//	v = ((1 - (i/255)^gain + brightness) - 0.5) * contrast + 0.5
//
// clamped to 0..1.
func BuildColorMap(t ToneSettings) ([]color.RGBA, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	cm := make([]color.RGBA, 256)
	for i := range cm {
		v := ToneLevel(t, uint8(i))
		cm[i] = color.RGBA{R: v, G: v, B: v, A: 255}
	}
	return cm, nil
}

// ToneLevel returns the gray level BuildColorMap assigns to intensity i
func ToneLevel(t ToneSettings, i uint8) uint8 {
	v := 1 - math.Pow(float64(i)/255, t.Gain) + t.Brightness
	v = (v-0.5)*t.Contrast + 0.5
	v = math.Max(0, math.Min(1, v))
	return uint8(math.Round(v * 255))
}
