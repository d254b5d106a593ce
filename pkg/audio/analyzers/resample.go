package analyzers

import (
	"fmt"
	"math"
)

// Resample converts samples recorded at from Hz to the rate to Hz by linear
// interpolation. The input is returned as is when the rates match.
func Resample(samples []float32, from, to int) ([]float32, error) {
	if from <= 0 || to <= 0 {
		return nil, NewAnalysisError(ErrCodeInvalidSampleRate,
			fmt.Sprintf("cannot resample from %d Hz to %d Hz", from, to), nil)
	}
	if from == to || len(samples) == 0 {
		return samples, nil
	}

	n := int(math.Round(float64(len(samples)) * float64(to) / float64(from)))
	out := make([]float32, max(1, n))
	step := float64(from) / float64(to)
	last := len(samples) - 1

	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= last {
			out[i] = samples[last]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = samples[j] + (samples[j+1]-samples[j])*frac
	}
	return out, nil
}
