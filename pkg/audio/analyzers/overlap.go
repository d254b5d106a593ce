package analyzers

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// HighOverlapThreshold is the overlap percentage from which rendering time
// grows enough that users get a one-time notice before it is applied.
const HighOverlapThreshold = 80

// HopSize returns the hop between successive frames for an overlap
// percentage: max(1, floor(fftSize * (1 - overlap/100))).
func HopSize(fftSize, overlapPercent int) int {
	hop := int(math.Floor(float64(fftSize) * (1 - float64(overlapPercent)/100)))
	return max(1, hop)
}

// ColumnCount returns the spectrogram width for a signal of n samples:
// max(1, ceil((n - fftSize) / hop)).
func ColumnCount(n, fftSize, hop int) int {
	if hop <= 0 {
		hop = 1
	}
	cols := int(math.Ceil(float64(n-fftSize) / float64(hop)))
	return max(1, cols)
}

// AutoOverlapPercent derives an overlap percentage from the number of
// samples that fall on one display column. ok is false when any input is
// missing.
func AutoOverlapPercent(bufferLength, displayWidth, fftSize int) (percent int, ok bool) {
	if bufferLength <= 0 || displayWidth <= 0 || fftSize <= 0 {
		return 0, false
	}

	samplesPerColumn := float64(bufferLength) / float64(displayWidth)
	noverlap := math.Max(0, math.Round(float64(fftSize)-samplesPerColumn))

	return int(math.Round(noverlap / float64(fftSize) * 100)), true
}

// OverlapSetting is either "auto" or a fixed percentage in 1..99
type OverlapSetting struct {
	Auto    bool `json:"auto" yaml:"auto"`
	Percent int  `json:"percent,omitempty" yaml:"percent,omitempty"`
}

// AutoOverlap returns the automatic overlap setting
func AutoOverlap() OverlapSetting {
	return OverlapSetting{Auto: true}
}

// ParseOverlap parses "" or "auto" as automatic, otherwise an integer in 1..99
func ParseOverlap(value string) (OverlapSetting, error) {
	v := strings.TrimSpace(strings.ToLower(value))
	if v == "" || v == "auto" {
		return AutoOverlap(), nil
	}

	n, err := strconv.Atoi(strings.TrimSuffix(v, "%"))
	if err != nil || n < 1 || n > 99 {
		return AutoOverlap(), NewAnalysisError(ErrCodeInvalidOverlap,
			fmt.Sprintf("overlap must be between 1 and 99, got %q", value), err)
	}

	return OverlapSetting{Percent: n}, nil
}

// Resolve returns the percentage to render with. An automatic setting that
// cannot be derived falls back to zero overlap; a derived value may reach 100,
// which renders with a hop of one sample.
func (o OverlapSetting) Resolve(bufferLength, displayWidth, fftSize int) int {
	if !o.Auto {
		return o.Percent
	}
	percent, ok := AutoOverlapPercent(bufferLength, displayWidth, fftSize)
	if !ok {
		return 0
	}
	return percent
}

// NeedsHighOverlapNotice reports whether the setting crosses the slow
// rendering threshold
func (o OverlapSetting) NeedsHighOverlapNotice() bool {
	return !o.Auto && o.Percent >= HighOverlapThreshold
}

func (o OverlapSetting) String() string {
	if o.Auto {
		return "auto"
	}
	return strconv.Itoa(o.Percent)
}
