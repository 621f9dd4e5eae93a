package camera

import "errors"

// Domain errors for the camera package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, camera.ErrInvalidState) {
//	    // reject as a validation failure (400), store untouched
//	}
var (
	// ErrInvalidState is returned when a state value is not exactly
	// "on" or "off". Values are never coerced.
	ErrInvalidState = errors.New("camera: invalid state")
)
