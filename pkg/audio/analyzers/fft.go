package analyzers

import (
	"fmt"
	"math"
	"math/bits"
)

// FFTPlan holds the twiddle tables for a fixed power-of-two transform size.
// A plan is read-only after creation and may be shared between goroutines.
type FFTPlan struct {
	size int
	cos  []float64
	sin  []float64
}

// IsPowerOfTwo reports whether n is a positive power of two
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// NewFFTPlan creates a new plan for transforms of the given size
func NewFFTPlan(size int) (*FFTPlan, error) {
	if !IsPowerOfTwo(size) {
		return nil, NewAnalysisError(ErrCodeInvalidBufferLength,
			fmt.Sprintf("fft length %d is not a power of two", size), nil)
	}

	half := size / 2
	plan := &FFTPlan{
		size: size,
		cos:  make([]float64, half),
		sin:  make([]float64, half),
	}
	for k := range half {
		angle := -2 * math.Pi * float64(k) / float64(size)
		plan.cos[k] = math.Cos(angle)
		plan.sin[k] = math.Sin(angle)
	}

	return plan, nil
}

// Size returns the transform length of the plan
func (p *FFTPlan) Size() int {
	return p.size
}

// Transform performs an in-place forward DFT of (re, im) using bit-reversal
// permutation followed by iterative radix-2 butterflies. No normalization is
// applied.
func (p *FFTPlan) Transform(re, im []float64) error {
	n := p.size
	if len(re) != n || len(im) != n {
		return NewAnalysisError(ErrCodeInvalidBufferLength,
			fmt.Sprintf("buffers of length %d/%d do not match plan size %d", len(re), len(im), n), nil)
	}
	if n < 2 {
		return nil
	}

	// Bit-reversal permutation
	shift := uint(bits.UintSize - bits.TrailingZeros(uint(n)))
	for i := range n {
		j := int(bits.Reverse(uint(i)) >> shift)
		if i < j {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
	}

	// Butterfly stages
	for span := 2; span <= n; span <<= 1 {
		half := span >> 1
		stride := n / span
		for j := range half {
			c := p.cos[j*stride]
			s := p.sin[j*stride]
			for i := j; i < n; i += span {
				k := i + half
				t1 := c*re[k] - s*im[k]
				t2 := s*re[k] + c*im[k]
				re[k] = re[i] - t1
				im[k] = im[i] - t2
				re[i] += t1
				im[i] += t2
			}
		}
	}

	return nil
}

// FFT runs a one-off in-place forward transform. Both buffers must have the
// same power-of-two length.
func FFT(re, im []float64) error {
	if len(re) == 0 {
		return NewAnalysisError(ErrCodeInvalidBufferLength, "empty fft buffer", nil)
	}
	if len(re) != len(im) {
		return NewAnalysisError(ErrCodeInvalidBufferLength,
			fmt.Sprintf("real and imaginary lengths differ (%d != %d)", len(re), len(im)), nil)
	}

	plan, err := NewFFTPlan(len(re))
	if err != nil {
		return err
	}
	return plan.Transform(re, im)
}
