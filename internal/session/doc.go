// Package session implements cookie-based session authentication for camcore.
//
// A session token is a stateless, tamper-evident credential issued on
// successful login:
//
//	base64url(JSON payload) + "." + base64url(HMAC-SHA256 signature)
//
// The payload carries the username and issue time only. There is no expiry
// field in the payload; the cookie Max-Age is the sole lifetime bound, so a
// captured raw token string verifies indefinitely. This asymmetry is
// deliberate and documented (see DESIGN.md) rather than silently patched.
//
// The package also provides the request gate: state endpoints accept either
// a valid session cookie (browser dashboard) or the pre-shared device key
// header (embedded poller), and nothing else.
package session
