package autoid

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkbatradar/Spectrogram/internal/species"
)

func TestCallTypeVisibility(t *testing.T) {
	tests := []struct {
		callType CallType
		hidden   []MarkerKey
		required []MarkerKey
	}{
		{CallTypeCFFM, []MarkerKey{KeyHigh, KeyLow, KeyKnee, KeyHeel}, []MarkerKey{KeyCFStart, KeyCFEnd}},
		{CallTypeFMCFFM, []MarkerKey{KeyHigh, KeyLow, KeyKnee, KeyHeel}, []MarkerKey{KeyCFStart, KeyCFEnd}},
		{CallTypeFM, []MarkerKey{KeyCFStart, KeyCFEnd}, []MarkerKey{KeyHigh, KeyLow}},
		{CallTypeFMQCF, []MarkerKey{KeyCFStart, KeyCFEnd}, []MarkerKey{KeyHigh, KeyLow, KeyKnee}},
		{CallTypeFMQCFFM, []MarkerKey{KeyCFStart, KeyCFEnd}, []MarkerKey{KeyHigh, KeyKnee, KeyHeel, KeyLow}},
		{CallTypeQCF, []MarkerKey{KeyKnee, KeyHeel, KeyCFStart, KeyCFEnd}, []MarkerKey{KeyHigh, KeyLow}},
	}

	for _, tt := range tests {
		t.Run(tt.callType.String(), func(t *testing.T) {
			var hidden []MarkerKey
			for _, key := range MarkerKeys() {
				if !tt.callType.Shows(key) {
					hidden = append(hidden, key)
				}
			}
			assert.Equal(t, tt.hidden, hidden)
			assert.Equal(t, tt.required, tt.callType.RequiredFields())
			for _, key := range tt.required {
				assert.True(t, tt.callType.Shows(key), "required %s must be visible", key)
			}
		})
	}
}

func TestCallTypeNames(t *testing.T) {
	assert.Equal(t, CallTypeFMQCF, CallTypes()[3])
	assert.Equal(t, CallTypeFMQCF, DefaultCallType)

	for _, ct := range CallTypes() {
		parsed, err := ParseCallType(ct.String())
		require.NoError(t, err)
		assert.Equal(t, ct, parsed)
	}

	ct, err := ParseCallType(" fm-qcf-fm ")
	require.NoError(t, err)
	assert.Equal(t, CallTypeFMQCFFM, ct)

	_, err = ParseCallType("CF")
	assert.Error(t, err)
	assert.True(t, CallTypeFMCFFM.HasCF())
	assert.False(t, CallTypeFMQCF.HasCF())
}

func TestMarkerKeyText(t *testing.T) {
	payload, err := json.Marshal(map[string]MarkerKey{"key": KeyCFStart})
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"cfStart"}`, string(payload))

	var decoded struct {
		Key MarkerKey `json:"key"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"key":"CFEND"}`), &decoded))
	assert.Equal(t, KeyCFEnd, decoded.Key)

	_, err = ParseMarkerKey("tail")
	assert.ErrorIs(t, err, ErrUnknownMarker)
	assert.Equal(t, "Heel freq.", KeyHeel.Label())
	assert.Equal(t, "MarkerKey(9)", MarkerKey(9).String())
}

func TestMarkerInputValue(t *testing.T) {
	m := Marker{Frequency: 45.26, Time: 0.01, Placed: true}
	assert.Equal(t, "45.3", m.DisplayValue())
	assert.Equal(t, 45.3, m.InputValue())
	assert.True(t, math.IsNaN(Marker{}.InputValue()))
	assert.Equal(t, "Low freq. (45.3 kHz)", KeyLow.Title(m))
}

func TestViewportRoundTrip(t *testing.T) {
	vp := testViewport
	vp.ScrollLeft = 120
	vp.FreqMin = 10

	tests := []struct{ time, freq float64 }{
		{0, 10},
		{0.05, 64},
		{0.1, 128},
		{0.0173, 47.3},
	}
	for _, tt := range tests {
		x, y := vp.ToXY(tt.time, tt.freq)
		time, freq := vp.ToTimeFreq(x, y)
		assert.InDelta(t, tt.time, time, 1e-12)
		assert.InDelta(t, tt.freq, freq, 1e-9)
	}

	x, y := vp.ToXY(0.05, 128)
	assert.InDelta(t, 380.0, x, 1e-9)
	assert.InDelta(t, 0.0, y, 1e-9)

	assert.True(t, vp.Valid())
	assert.False(t, Viewport{}.Valid())
}

func TestDerivedMeasurements(t *testing.T) {
	tab := tabWith(CallTypeFMQCF, map[MarkerKey][2]float64{
		KeyHigh: {90, 0.010},
	})
	d := deriveMeasurements(tab)
	assert.False(t, d.HasBandwidth())
	assert.False(t, d.HasDuration())

	tab.place(KeyLow, 45, 0.016)
	tab.place(KeyEnd, 44, 0.017)
	d = deriveMeasurements(tab)
	assert.InDelta(t, 46.0, d.Bandwidth, 1e-12)
	assert.InDelta(t, 7.0, d.Duration, 1e-9)
}

func TestBuildObservation(t *testing.T) {
	tab := tabWith(CallTypeFMQCF, map[MarkerKey][2]float64{
		KeyHigh: {70.04, 0.010},
		KeyKnee: {50.26, 0.0125},
		KeyLow:  {47.01, 0.014},
	})
	tab.harmonic = 1
	obs := buildObservation(tab)

	assert.Equal(t, "FM-QCF", obs.CallType)
	assert.Equal(t, 1, obs.Harmonic)
	assert.Equal(t, 70.0, obs.Value(species.FieldHighestFreq))
	assert.Equal(t, 50.3, obs.Value(species.FieldKneeFreq))
	assert.InDelta(t, 23.0, obs.Value(species.FieldBandwidth), 1e-9)
	assert.InDelta(t, 3.3, obs.Value(species.FieldKneeLowBandwidth), 1e-9)
	assert.InDelta(t, -1.5, obs.Value(species.FieldKneeLowTime), 1e-9)
	assert.InDelta(t, 4.0, obs.Value(species.FieldDuration), 1e-9)
	assert.True(t, math.IsNaN(obs.Value(species.FieldHeelFreq)))
	assert.True(t, math.IsNaN(obs.Value(species.FieldKneeHeelBandwidth)))

	assert.Equal(t, "Pipistrellus abramus", species.NewClassifier(nil).Classify(obs))
}

func TestBuildObservationCFBandwidth(t *testing.T) {
	tab := tabWith(CallTypeFMCFFM, map[MarkerKey][2]float64{
		KeyCFStart: {105, 0.010},
		KeyCFEnd:   {105, 0.050},
		KeyEnd:     {90, 0.055},
	})
	obs := buildObservation(tab)
	assert.InDelta(t, 15.0, obs.Value(species.FieldBandwidth), 1e-9)
	assert.InDelta(t, 45.0, obs.Value(species.FieldDuration), 1e-9)
	assert.Equal(t, "Rhinolophus pusillus", species.NewClassifier(nil).Classify(obs))
}
