package autoid

import (
	"gonum.org/v1/gonum/floats"
)

// Warning is a cross-marker consistency problem
type Warning int

const (
	WarnQCFDuration Warning = iota
	WarnQCFSlope
	WarnHighFreq
	WarnLowFreq
	WarnHighKneeTime
	WarnLowKneeTime
	WarnHighHeelTime
	WarnLowHeelTime
	WarnStartFreq
	WarnEndFreq
)

// QCF slope bounds in kHz/ms and the minimum QCF duration in ms
const (
	MinQCFSlope    = 0.1
	MaxQCFSlope    = 1.0
	MinQCFDuration = 1.0
)

var warningMessages = map[Warning]string{
	WarnQCFDuration:  "Duration of QCF should be >= 1ms",
	WarnQCFSlope:     "Slope of QCF should be <1 and >=0.1kHz/ms",
	WarnHighFreq:     "High frequency should be the highest one",
	WarnLowFreq:      "Low frequency should be the lowest one",
	WarnHighKneeTime: "Knee frequency should come after High frequency",
	WarnLowKneeTime:  "Knee frequency should come before Low frequency",
	WarnHighHeelTime: "Heel frequency should come after High frequency",
	WarnLowHeelTime:  "Heel frequency should come before Low frequency",
	WarnStartFreq:    "Start frequency should be the first one",
	WarnEndFreq:      "End frequency should be the last one",
}

// Message returns the text shown for the warning
func (w Warning) Message() string {
	return warningMessages[w]
}

func (w Warning) String() string {
	return w.Message()
}

// WarningReport lists the active warnings of a tab and the marker inputs
// they flag
type WarningReport struct {
	Warnings []Warning
	Flagged  map[MarkerKey]bool
}

// Active reports whether any warning is raised. Either classification
// action is disabled while this is true.
func (r WarningReport) Active() bool {
	return len(r.Warnings) > 0
}

// Has reports whether w is raised
func (r WarningReport) Has(w Warning) bool {
	for _, got := range r.Warnings {
		if got == w {
			return true
		}
	}
	return false
}

// Messages returns the text of every raised warning in evaluation order
func (r WarningReport) Messages() []string {
	out := make([]string, len(r.Warnings))
	for i, w := range r.Warnings {
		out[i] = w.Message()
	}
	return out
}

// evaluateWarnings runs every consistency check against the placed markers
func evaluateWarnings(t *Tab) WarningReport {
	raised := make(map[Warning]bool)
	m := t.markers

	if t.callType == CallTypeQCF {
		d := deriveMeasurements(t)
		if d.HasDuration() && d.Duration < MinQCFDuration {
			raised[WarnQCFDuration] = true
		}
		if d.HasBandwidth() && d.HasDuration() && d.Duration > 0 {
			slope := d.Bandwidth / d.Duration
			if !(slope < MaxQCFSlope && slope >= MinQCFSlope) {
				raised[WarnQCFSlope] = true
			}
		}
	}

	if freqs := t.placedFrequencies(); len(freqs) > 1 {
		if m[KeyHigh].Placed && m[KeyHigh].Frequency != floats.Max(freqs) {
			raised[WarnHighFreq] = true
		}
		if m[KeyLow].Placed && m[KeyLow].Frequency != floats.Min(freqs) {
			raised[WarnLowFreq] = true
		}
	}

	if times := t.placedTimes(); len(times) > 0 {
		if m[KeyStart].Placed && m[KeyStart].Time > floats.Min(times) {
			raised[WarnStartFreq] = true
		}
		if m[KeyEnd].Placed && m[KeyEnd].Time < floats.Max(times) {
			raised[WarnEndFreq] = true
		}
	}

	checkBetween := func(key MarkerKey, afterHigh, beforeLow Warning) {
		if !m[key].Placed {
			return
		}
		if m[KeyHigh].Placed && m[key].Time <= m[KeyHigh].Time {
			raised[afterHigh] = true
		}
		if m[KeyLow].Placed && m[key].Time >= m[KeyLow].Time {
			raised[beforeLow] = true
		}
	}
	checkBetween(KeyKnee, WarnHighKneeTime, WarnLowKneeTime)
	checkBetween(KeyHeel, WarnHighHeelTime, WarnLowHeelTime)

	report := WarningReport{Flagged: make(map[MarkerKey]bool)}
	for w := WarnQCFDuration; w <= WarnEndFreq; w++ {
		if raised[w] {
			report.Warnings = append(report.Warnings, w)
		}
	}

	report.Flagged[KeyHigh] = raised[WarnHighFreq]
	report.Flagged[KeyLow] = raised[WarnLowFreq]
	report.Flagged[KeyKnee] = raised[WarnHighKneeTime] || raised[WarnLowKneeTime]
	report.Flagged[KeyHeel] = raised[WarnHighHeelTime] || raised[WarnLowHeelTime]
	report.Flagged[KeyStart] = raised[WarnStartFreq] || raised[WarnQCFDuration]
	report.Flagged[KeyEnd] = raised[WarnEndFreq] || raised[WarnQCFDuration]

	return report
}
