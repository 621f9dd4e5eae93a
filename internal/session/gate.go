package session

import "net/http"

// DeviceKeyHeader is the header the embedded poller presents instead of a
// session cookie.
const DeviceKeyHeader = "X-Device-Key"

// Via identifies which credential satisfied the gate.
type Via string

const (
	// ViaSession means a valid session cookie was presented.
	ViaSession Via = "session"

	// ViaDeviceKey means the pre-shared device key header was presented.
	ViaDeviceKey Via = "device-key"
)

// Identity is the result of a successful gate check.
type Identity struct {
	// Via is the credential path that succeeded.
	Via Via

	// User is the session username. Empty for device-key callers.
	User string
}

// Gate authenticates requests to state-mutating endpoints.
//
// It accepts either a valid session cookie or the pre-shared device key,
// in that order, and rejects everything else. There is no lockout or
// rate limiting; repeated failures are all handled identically.
type Gate struct {
	sessions  *Service
	deviceKey string
}

// NewGate creates a request gate.
//
// deviceKey may be empty, in which case the device-key path never matches
// and only session cookies are accepted.
func NewGate(sessions *Service, deviceKey string) *Gate {
	return &Gate{
		sessions:  sessions,
		deviceKey: deviceKey,
	}
}

// Authenticate checks the request against both credential paths.
//
// Order matters: a valid session cookie wins even if the request also
// carries a (wrong or right) device key. The device key is compared with
// exact string equality and both sides must be non-empty.
//
// Returns ErrUnauthenticated when neither path succeeds; the error never
// reveals which check failed.
func (g *Gate) Authenticate(r *http.Request) (*Identity, error) {
	if payload, err := g.sessions.Verify(TokenFromRequest(r)); err == nil {
		return &Identity{Via: ViaSession, User: payload.User}, nil
	}

	key := r.Header.Get(DeviceKeyHeader)
	if key != "" && g.deviceKey != "" && key == g.deviceKey {
		return &Identity{Via: ViaDeviceKey}, nil
	}

	return nil, ErrUnauthenticated
}
