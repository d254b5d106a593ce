package autoid

import "fmt"

// DefaultSpectrogramHeight is the pixel height of the spectrogram surface
const DefaultSpectrogramHeight = 800

// Viewport maps between surface pixels and time/frequency. X is measured
// from the left edge of the visible area, Y from the top of the spectrogram.
type Viewport struct {
	// Duration of the loaded recording in seconds
	Duration float64 `json:"duration" yaml:"duration"`
	// ContentWidth is the full scrollable width of the spectrogram in pixels
	ContentWidth float64 `json:"content_width" yaml:"content_width"`
	ScrollLeft   float64 `json:"scroll_left" yaml:"scroll_left"`
	Height       float64 `json:"height" yaml:"height"`
	// FreqMin and FreqMax bound the displayed range in kHz
	FreqMin float64 `json:"freq_min" yaml:"freq_min"`
	FreqMax float64 `json:"freq_max" yaml:"freq_max"`
}

// Valid reports whether the viewport can map coordinates in both directions
func (v Viewport) Valid() bool {
	return v.Duration > 0 && v.ContentWidth > 0 && v.Height > 0 && v.FreqMax > v.FreqMin
}

// ToTimeFreq converts a surface position into seconds and kHz
func (v Viewport) ToTimeFreq(x, y float64) (time, freq float64) {
	time = (x + v.ScrollLeft) / v.ContentWidth * v.Duration
	freq = (1-y/v.Height)*(v.FreqMax-v.FreqMin) + v.FreqMin
	return time, freq
}

// Locate is ToTimeFreq for pointer input. It fails when the viewport cannot
// map pixels or the position does not give a finite time and frequency.
func (v Viewport) Locate(x, y float64) (time, freq float64, err error) {
	if !v.Valid() {
		return 0, 0, fmt.Errorf("%w: %+v", ErrInvalidViewport, v)
	}
	time, freq = v.ToTimeFreq(x, y)
	if !isFinite(time) || !isFinite(freq) {
		return 0, 0, fmt.Errorf("%w: x=%v y=%v", ErrInvalidCoordinate, x, y)
	}
	return time, freq, nil
}

// ToXY converts seconds and kHz into a surface position
func (v Viewport) ToXY(time, freq float64) (x, y float64) {
	x = time/v.Duration*v.ContentWidth - v.ScrollLeft
	y = (1 - (freq-v.FreqMin)/(v.FreqMax-v.FreqMin)) * v.Height
	return x, y
}
