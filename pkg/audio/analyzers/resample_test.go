package analyzers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResample(t *testing.T) {
	in := []float32{0, 1, 2, 3}

	same, err := Resample(in, 1000, 1000)
	require.NoError(t, err)
	assert.Equal(t, in, same)

	up, err := Resample(in, 1000, 2000)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0, 0.5, 1, 1.5, 2, 2.5, 3, 3}, up, 1e-6)

	down, err := Resample(in, 2000, 1000)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0, 2}, down, 1e-6)

	_, err = Resample(in, 0, 1000)
	assert.ErrorIs(t, err, ErrInvalidSampleRate)
}
