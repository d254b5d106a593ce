package autoid

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MarkerKey identifies one of the eight markers of a tab
type MarkerKey int

const (
	KeyStart MarkerKey = iota
	KeyEnd
	KeyHigh
	KeyLow
	KeyKnee
	KeyHeel
	KeyCFStart
	KeyCFEnd

	markerCount = 8
)

// MarkerKeys returns every marker key in panel order
func MarkerKeys() []MarkerKey {
	return []MarkerKey{KeyStart, KeyEnd, KeyHigh, KeyLow, KeyKnee, KeyHeel, KeyCFStart, KeyCFEnd}
}

var markerNames = [markerCount]string{"start", "end", "high", "low", "knee", "heel", "cfStart", "cfEnd"}

var markerLabels = [markerCount]string{
	"Start freq.", "End freq.", "High freq.", "Low freq.",
	"Knee freq.", "Heel freq.", "CF start", "CF end",
}

// markerColors are the overlay colours of each marker glyph
var markerColors = [markerCount]string{
	"#e74c3c", "#004cff", "#3498db", "#9b59b6",
	"#f39c12", "#16a085", "#e67e22", "#1abc9c",
}

// Valid reports whether k is one of the eight marker keys
func (k MarkerKey) Valid() bool {
	return k >= KeyStart && k <= KeyCFEnd
}

func (k MarkerKey) String() string {
	if !k.Valid() {
		return fmt.Sprintf("MarkerKey(%d)", int(k))
	}
	return markerNames[k]
}

// Label returns the human readable marker name ("High freq.")
func (k MarkerKey) Label() string {
	if !k.Valid() {
		return k.String()
	}
	return markerLabels[k]
}

// Color returns the overlay colour of the marker
func (k MarkerKey) Color() string {
	if !k.Valid() {
		return ""
	}
	return markerColors[k]
}

// ParseMarkerKey converts a key name such as "cfStart" into a MarkerKey.
// Matching ignores case.
func ParseMarkerKey(name string) (MarkerKey, error) {
	n := strings.TrimSpace(name)
	for i, s := range markerNames {
		if strings.EqualFold(s, n) {
			return MarkerKey(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMarker, name)
}

// MarshalText implements encoding.TextMarshaler
func (k MarkerKey) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMarker, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *MarkerKey) UnmarshalText(text []byte) error {
	key, err := ParseMarkerKey(string(text))
	if err != nil {
		return err
	}
	*k = key
	return nil
}

// Marker is a point on the call contour in kHz and seconds
type Marker struct {
	Frequency float64 `json:"frequency" yaml:"frequency"`
	Time      float64 `json:"time" yaml:"time"`
	Placed    bool    `json:"placed" yaml:"placed"`
}

// DisplayValue is the frequency as shown in the panel input, one decimal,
// or "" when the marker is not placed
func (m Marker) DisplayValue() string {
	if !m.Placed {
		return ""
	}
	return strconv.FormatFloat(m.Frequency, 'f', 1, 64)
}

// InputValue parses DisplayValue back, so measurements taken from the panel
// see the rounded value. Unplaced markers give NaN.
func (m Marker) InputValue() float64 {
	v, err := strconv.ParseFloat(m.DisplayValue(), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Title is the tooltip of a placed marker ("High freq. (80.0 kHz)")
func (k MarkerKey) Title(m Marker) string {
	return fmt.Sprintf("%s (%.1f kHz)", k.Label(), m.Frequency)
}
