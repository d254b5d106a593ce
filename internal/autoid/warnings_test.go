package autoid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func nan() float64 { return math.NaN() }

func TestEvaluateWarnings(t *testing.T) {
	tests := []struct {
		name     string
		callType CallType
		markers  map[MarkerKey][2]float64
		expected []Warning
		flagged  []MarkerKey
	}{
		{
			name:     "consistent FM-QCF",
			callType: CallTypeFMQCF,
			markers: map[MarkerKey][2]float64{
				KeyStart: {85, 0.009},
				KeyHigh:  {90, 0.010},
				KeyKnee:  {50, 0.013},
				KeyLow:   {45, 0.015},
				KeyEnd:   {46, 0.016},
			},
		},
		{
			name:     "high below low",
			callType: CallTypeFM,
			markers: map[MarkerKey][2]float64{
				KeyHigh: {40, 0.010},
				KeyLow:  {50, 0.015},
			},
			expected: []Warning{WarnHighFreq, WarnLowFreq},
			flagged:  []MarkerKey{KeyHigh, KeyLow},
		},
		{
			name:     "single marker has no extremity checks",
			callType: CallTypeFM,
			markers: map[MarkerKey][2]float64{
				KeyHigh: {40, 0.010},
			},
		},
		{
			name:     "knee level with high",
			callType: CallTypeFMQCF,
			markers: map[MarkerKey][2]float64{
				KeyHigh: {90, 0.010},
				KeyLow:  {45, 0.012},
				KeyKnee: {50, 0.010},
			},
			expected: []Warning{WarnHighKneeTime},
			flagged:  []MarkerKey{KeyKnee},
		},
		{
			name:     "heel after low",
			callType: CallTypeFMQCFFM,
			markers: map[MarkerKey][2]float64{
				KeyHigh: {90, 0.010},
				KeyLow:  {45, 0.012},
				KeyHeel: {50, 0.014},
			},
			expected: []Warning{WarnLowHeelTime},
			flagged:  []MarkerKey{KeyHeel},
		},
		{
			name:     "start and end out of place",
			callType: CallTypeFM,
			markers: map[MarkerKey][2]float64{
				KeyHigh:  {90, 0.010},
				KeyStart: {60, 0.011},
				KeyEnd:   {50, 0.012},
				KeyLow:   {40, 0.013},
			},
			expected: []Warning{WarnStartFreq, WarnEndFreq},
			flagged:  []MarkerKey{KeyStart, KeyEnd},
		},
		{
			name:     "QCF too short",
			callType: CallTypeQCF,
			markers: map[MarkerKey][2]float64{
				KeyHigh: {45.2, 0.0100},
				KeyLow:  {45, 0.0105},
			},
			expected: []Warning{WarnQCFDuration},
			flagged:  []MarkerKey{KeyStart, KeyEnd},
		},
		{
			name:     "QCF too steep",
			callType: CallTypeQCF,
			markers: map[MarkerKey][2]float64{
				KeyHigh: {50, 0.010},
				KeyLow:  {45, 0.012},
			},
			expected: []Warning{WarnQCFSlope},
		},
		{
			name:     "QCF too flat",
			callType: CallTypeQCF,
			markers: map[MarkerKey][2]float64{
				KeyHigh: {45.1, 0.010},
				KeyLow:  {45, 0.020},
			},
			expected: []Warning{WarnQCFSlope},
		},
		{
			name:     "slope ignored outside QCF",
			callType: CallTypeFMQCF,
			markers: map[MarkerKey][2]float64{
				KeyHigh: {50, 0.010},
				KeyLow:  {45, 0.012},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab := tabWith(tt.callType, tt.markers)
			report := evaluateWarnings(tab)

			assert.Equal(t, tt.expected, report.Warnings)
			assert.Equal(t, len(tt.expected) > 0, report.Active())
			for _, key := range MarkerKeys() {
				want := false
				for _, f := range tt.flagged {
					if f == key {
						want = true
					}
				}
				assert.Equal(t, want, report.Flagged[key], key.String())
			}
		})
	}
}

func TestWarningMessages(t *testing.T) {
	report := WarningReport{Warnings: []Warning{WarnHighFreq, WarnQCFSlope}}
	assert.Equal(t, []string{
		"High frequency should be the highest one",
		"Slope of QCF should be <1 and >=0.1kHz/ms",
	}, report.Messages())
	assert.True(t, report.Has(WarnQCFSlope))
	assert.False(t, report.Has(WarnEndFreq))
	assert.Equal(t, "Knee frequency should come before Low frequency", WarnLowKneeTime.String())
}

func TestValidateMandatory(t *testing.T) {
	tab := tabWith(CallTypeFMQCFFM, map[MarkerKey][2]float64{
		KeyHigh: {90, 0.010},
		KeyLow:  {40, 0.020},
	})

	v := validateMandatory(tab)
	assert.Equal(t, []MarkerKey{KeyHigh, KeyKnee, KeyHeel, KeyLow}, v.Required)
	assert.Equal(t, []MarkerKey{KeyKnee, KeyHeel}, v.Missing)
	assert.False(t, v.Complete())
	assert.Empty(t, v.Invalid)

	tab.showValidation = true
	v = validateMandatory(tab)
	assert.Equal(t, map[MarkerKey]bool{KeyKnee: true, KeyHeel: true}, v.Invalid)

	tab.place(KeyKnee, 60, 0.012)
	tab.place(KeyHeel, 50, 0.015)
	assert.True(t, validateMandatory(tab).Complete())
}
