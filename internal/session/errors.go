package session

import "errors"

// Sentinel errors for session operations.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, session.ErrTokenInvalid) {
//	    // treat as unauthenticated
//	}
var (
	// ErrNoSecret is returned when constructing a Service without a signing
	// secret. This is a configuration error and should be fatal at startup.
	ErrNoSecret = errors.New("session: signing secret not configured")

	// ErrTokenInvalid is returned for any token that fails verification:
	// absent, malformed, tampered, or undecodable. Callers must not surface
	// which part failed.
	ErrTokenInvalid = errors.New("session: invalid token")

	// ErrUnauthenticated is returned by the gate when neither a valid
	// session cookie nor a valid device key is presented.
	ErrUnauthenticated = errors.New("session: unauthenticated")
)
