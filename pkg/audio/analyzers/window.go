package analyzers

import (
	"fmt"
	"strings"
	"sync"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowType represents different window functions
type WindowType string

const (
	WindowBlackman    WindowType = "blackman"
	WindowGauss       WindowType = "gauss"
	WindowHamming     WindowType = "hamming"
	WindowHann        WindowType = "hann"
	WindowRectangular WindowType = "rectangular"
	WindowTriangular  WindowType = "triangular"
)

// GaussSigma is the standard deviation used for the gauss window, relative
// to half the window length.
const GaussSigma = 0.4

// SupportedWindows returns the selectable window kinds in display order
func SupportedWindows() []WindowType {
	return []WindowType{
		WindowBlackman,
		WindowGauss,
		WindowHamming,
		WindowHann,
		WindowRectangular,
		WindowTriangular,
	}
}

// ParseWindowType converts a user supplied name into a WindowType
func ParseWindowType(name string) (WindowType, error) {
	wt := WindowType(strings.ToLower(strings.TrimSpace(name)))
	for _, supported := range SupportedWindows() {
		if wt == supported {
			return wt, nil
		}
	}
	return "", NewAnalysisError(ErrCodeUnsupportedWindow,
		fmt.Sprintf("unsupported window type %q", name), nil)
}

type windowKey struct {
	kind WindowType
	size int
}

// WindowGenerator synthesizes and caches window coefficients
type WindowGenerator struct {
	mu    sync.Mutex
	cache map[windowKey][]float64
}

// NewWindowGenerator creates a new window generator
func NewWindowGenerator() *WindowGenerator {
	return &WindowGenerator{
		cache: make(map[windowKey][]float64),
	}
}

// Generate returns the coefficients of the requested window. The returned
// slice is shared and must not be modified.
func (wg *WindowGenerator) Generate(kind WindowType, size int) ([]float64, error) {
	if size <= 0 {
		return nil, NewAnalysisError(ErrCodeInvalidBufferLength,
			fmt.Sprintf("window size must be positive, got %d", size), nil)
	}

	key := windowKey{kind: kind, size: size}

	wg.mu.Lock()
	defer wg.mu.Unlock()

	if coeffs, ok := wg.cache[key]; ok {
		return coeffs, nil
	}

	coeffs, err := synthesizeWindow(kind, size)
	if err != nil {
		return nil, err
	}
	wg.cache[key] = coeffs

	return coeffs, nil
}

// synthesizeWindow fills a slice of ones and shapes it with the gonum window
// of the requested kind.
func synthesizeWindow(kind WindowType, size int) ([]float64, error) {
	coeffs := make([]float64, size)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	if size == 1 {
		return coeffs, nil
	}

	switch kind {
	case WindowBlackman:
		window.Blackman(coeffs)
	case WindowGauss:
		window.Gaussian{Sigma: GaussSigma}.Transform(coeffs)
	case WindowHamming:
		window.Hamming(coeffs)
	case WindowHann:
		window.Hann(coeffs)
	case WindowRectangular:
		window.Rectangular(coeffs)
	case WindowTriangular:
		window.Triangular(coeffs)
	default:
		return nil, NewAnalysisError(ErrCodeUnsupportedWindow,
			fmt.Sprintf("unsupported window type %q", kind), nil)
	}

	return coeffs, nil
}
