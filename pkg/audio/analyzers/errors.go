package analyzers

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// AnalysisError represents spectral analysis and rendering errors
type AnalysisError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AnalysisError carrying the same code, so
// callers can match with errors.Is against the exported sentinels.
func (e *AnalysisError) Is(target error) bool {
	t, ok := target.(*AnalysisError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Common error codes
const (
	ErrCodeInvalidBufferLength = "INVALID_BUFFER_LENGTH"
	ErrCodeInvalidFFTSize      = "INVALID_FFT_SIZE"
	ErrCodeInvalidOverlap      = "INVALID_OVERLAP"
	ErrCodeInvalidSampleRate   = "INVALID_SAMPLE_RATE"
	ErrCodeUnsupportedWindow   = "UNSUPPORTED_WINDOW"
	ErrCodeInvalidColorMap     = "INVALID_COLOR_MAP"
)

// Sentinels for errors.Is matching
var (
	ErrInvalidBufferLength = &AnalysisError{Code: ErrCodeInvalidBufferLength, Message: "invalid buffer length"}
	ErrInvalidFFTSize      = &AnalysisError{Code: ErrCodeInvalidFFTSize, Message: "invalid fft size"}
	ErrInvalidOverlap      = &AnalysisError{Code: ErrCodeInvalidOverlap, Message: "invalid overlap"}
	ErrInvalidSampleRate   = &AnalysisError{Code: ErrCodeInvalidSampleRate, Message: "invalid sample rate"}
	ErrUnsupportedWindow   = &AnalysisError{Code: ErrCodeUnsupportedWindow, Message: "unsupported window"}
	ErrInvalidColorMap     = &AnalysisError{Code: ErrCodeInvalidColorMap, Message: "invalid color map"}
)

// NewAnalysisError creates a new analysis error
func NewAnalysisError(code, message string, cause error) *AnalysisError {
	return &AnalysisError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
