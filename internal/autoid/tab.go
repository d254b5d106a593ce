package autoid

import "math"

// TabCount is the number of pulses that can be annotated at once
const TabCount = 8

// MaxHarmonic is the highest selectable harmonic index
const MaxHarmonic = 3

// Tab is the annotation state of one pulse
type Tab struct {
	callType CallType
	harmonic int
	markers  [markerCount]Marker
	curves   map[SegmentKey]*Curve
	result   string

	// showValidation turns on missing-field flags once a classification
	// has been attempted
	showValidation bool
}

func newTab() *Tab {
	t := &Tab{}
	t.reset()
	return t
}

func (t *Tab) reset() {
	t.callType = DefaultCallType
	t.harmonic = 0
	t.markers = [markerCount]Marker{}
	t.curves = make(map[SegmentKey]*Curve)
	t.result = ""
	t.showValidation = false
}

// CallType returns the selected call type
func (t *Tab) CallType() CallType {
	return t.callType
}

// Harmonic returns the selected harmonic index (0-3)
func (t *Tab) Harmonic() int {
	return t.harmonic
}

// Marker returns the marker stored under key
func (t *Tab) Marker(key MarkerKey) Marker {
	if !key.Valid() {
		return Marker{}
	}
	return t.markers[key]
}

// Markers returns a copy of every marker indexed by key
func (t *Tab) Markers() map[MarkerKey]Marker {
	out := make(map[MarkerKey]Marker, markerCount)
	for _, k := range MarkerKeys() {
		out[k] = t.markers[k]
	}
	return out
}

// Result returns the last classification label, or "" when there is none
func (t *Tab) Result() string {
	return t.result
}

// HasMarkers reports whether any marker is placed
func (t *Tab) HasMarkers() bool {
	for _, m := range t.markers {
		if m.Placed {
			return true
		}
	}
	return false
}

// StartTime returns the crop start boundary set by the start marker
func (t *Tab) StartTime() (float64, bool) {
	m := t.markers[KeyStart]
	return m.Time, m.Placed
}

// EndTime returns the crop end boundary set by the end marker
func (t *Tab) EndTime() (float64, bool) {
	m := t.markers[KeyEnd]
	return m.Time, m.Placed
}

// Curve returns the stored control points of a segment
func (t *Tab) Curve(seg SegmentKey) (Curve, bool) {
	c, ok := t.curves[seg]
	if !ok {
		return Curve{}, false
	}
	return *c, true
}

// CurveCount returns the number of stored curve segments
func (t *Tab) CurveCount() int {
	return len(t.curves)
}

func (t *Tab) place(key MarkerKey, freq, time float64) {
	t.markers[key] = Marker{Frequency: freq, Time: time, Placed: true}
}

func (t *Tab) clear(key MarkerKey) {
	t.markers[key] = Marker{}
}

// resetCurvesFor drops every segment that starts or ends at key
func (t *Tab) resetCurvesFor(key MarkerKey) {
	for seg := range t.curves {
		if seg.From == key || seg.To == key {
			delete(t.curves, seg)
		}
	}
}

// placedFrequencies returns the frequencies of placed markers in key order
func (t *Tab) placedFrequencies() []float64 {
	var out []float64
	for _, m := range t.markers {
		if m.Placed && !math.IsNaN(m.Frequency) {
			out = append(out, m.Frequency)
		}
	}
	return out
}

// placedTimes returns the times of placed markers in key order
func (t *Tab) placedTimes() []float64 {
	var out []float64
	for _, m := range t.markers {
		if m.Placed && !math.IsNaN(m.Time) {
			out = append(out, m.Time)
		}
	}
	return out
}
