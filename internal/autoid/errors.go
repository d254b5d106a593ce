package autoid

import "errors"

var (
	ErrUnknownMarker     = errors.New("unknown marker key")
	ErrFieldDisabled     = errors.New("marker field is hidden for the current call type")
	ErrInvalidCoordinate = errors.New("marker coordinate is not a finite number")
	ErrWarningsActive    = errors.New("classification blocked by active warnings")
	ErrMissingRequired   = errors.New("classification blocked by missing required markers")
	ErrTabOutOfRange     = errors.New("tab index out of range")
	ErrInvalidHarmonic   = errors.New("harmonic must be between 0 and 3")
	ErrInvalidCallType   = errors.New("unknown call type")
	ErrNoDrag            = errors.New("no drag in progress")
	ErrMarkersDisabled   = errors.New("markers are not interactive while a field is being placed")
	ErrUnknownSegment    = errors.New("no curve segment with that key")
	ErrInvalidViewport   = errors.New("viewport cannot map pixels")
)
