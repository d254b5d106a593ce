package autoid

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/hkbatradar/Spectrogram/internal/species"
)

// Derived holds the measurements shown under the marker inputs. A value is
// NaN when fewer than two markers contribute to it.
type Derived struct {
	// Bandwidth is the span of placed marker frequencies in kHz
	Bandwidth float64 `json:"bandwidth"`
	// Duration is the span of placed marker times in ms
	Duration float64 `json:"duration"`
}

// HasBandwidth reports whether Bandwidth was measured
func (d Derived) HasBandwidth() bool { return !math.IsNaN(d.Bandwidth) }

// HasDuration reports whether Duration was measured
func (d Derived) HasDuration() bool { return !math.IsNaN(d.Duration) }

func deriveMeasurements(t *Tab) Derived {
	d := Derived{Bandwidth: math.NaN(), Duration: math.NaN()}

	if freqs := t.placedFrequencies(); len(freqs) >= 2 {
		d.Bandwidth = floats.Max(freqs) - floats.Min(freqs)
	}
	if times := t.placedTimes(); len(times) >= 2 {
		d.Duration = (floats.Max(times) - floats.Min(times)) * 1000
	}
	return d
}

// buildObservation assembles the classifier input for a tab. Frequencies
// are the one-decimal values displayed in the panel; times are raw.
func buildObservation(t *Tab) species.Observation {
	in := func(k MarkerKey) float64 { return t.markers[k].InputValue() }

	high, low := in(KeyHigh), in(KeyLow)
	knee, heel := in(KeyKnee), in(KeyHeel)
	start, end := in(KeyStart), in(KeyEnd)
	cfStart, cfEnd := in(KeyCFStart), in(KeyCFEnd)

	obs := species.NewObservation(t.callType.String(), t.harmonic).
		Set(species.FieldHighestFreq, high).
		Set(species.FieldLowestFreq, low).
		Set(species.FieldKneeFreq, knee).
		Set(species.FieldHeelFreq, heel).
		Set(species.FieldStartFreq, start).
		Set(species.FieldEndFreq, end).
		Set(species.FieldCFStart, cfStart).
		Set(species.FieldCFEnd, cfEnd)

	obs = obs.Set(species.FieldDuration, deriveMeasurements(t).Duration)

	// NaN operands propagate, which leaves the field unmeasured
	if t.callType.HasCF() {
		obs = obs.Set(species.FieldBandwidth, cfStart-end)
	} else {
		obs = obs.Set(species.FieldBandwidth, high-low)
	}

	kneeM, lowM := t.markers[KeyKnee], t.markers[KeyLow]
	if kneeM.Placed && lowM.Placed {
		obs = obs.Set(species.FieldKneeLowTime, (kneeM.Time-lowM.Time)*1000)
	}

	return obs.
		Set(species.FieldKneeLowBandwidth, knee-low).
		Set(species.FieldHeelLowBandwidth, heel-low).
		Set(species.FieldKneeHeelBandwidth, knee-heel)
}
