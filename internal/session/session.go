package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// tokenParts is the number of dot-separated segments in a session token.
const tokenParts = 2

// Payload is the signed content of a session token.
//
// It deliberately carries no expiry: session lifetime is bounded by the
// cookie Max-Age at the transport layer only.
type Payload struct {
	// User is the username the token was issued to.
	User string `json:"user"`

	// IssuedAtMs is the issue time in Unix milliseconds.
	IssuedAtMs int64 `json:"iat"`
}

// Service issues and verifies session tokens using a server-held secret.
//
// Thread Safety:
//   - Create and Verify are safe for concurrent use; the Service is
//     immutable after construction.
type Service struct {
	secret []byte
}

// New creates a session Service.
//
// Returns ErrNoSecret if the secret is empty. Callers should treat that as
// a fatal configuration error, not a per-request failure.
func New(secret string) (*Service, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Service{secret: []byte(secret)}, nil
}

// Create issues a signed token for the given user.
//
// The token format is base64url(JSON payload) + "." + base64url(signature),
// where the signature is HMAC-SHA256 over the encoded payload segment.
func (s *Service) Create(user string) (string, error) {
	payload := Payload{
		User:       user,
		IssuedAtMs: time.Now().UnixMilli(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshalling session payload: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(body)
	return encoded + "." + s.sign(encoded), nil
}

// Verify checks a token and returns its payload.
//
// It returns ErrTokenInvalid (never panics) if the token is empty, does not
// have exactly two segments, the signature does not match a freshly computed
// HMAC over the payload segment, or the payload does not decode. No expiry
// check happens here; a token verifies indefinitely.
func (s *Service) Verify(token string) (*Payload, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}

	parts := strings.Split(token, ".")
	if len(parts) != tokenParts {
		return nil, fmt.Errorf("%w: malformed", ErrTokenInvalid)
	}

	body, sig := parts[0], parts[1]

	// Exact match over the full encoded signature. hmac.Equal gives the
	// same accept/reject behaviour as == without the timing side channel.
	expected := s.sign(body)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return nil, fmt.Errorf("%w: signature mismatch", ErrTokenInvalid)
	}

	decoded, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable payload", ErrTokenInvalid)
	}

	var payload Payload
	if err := json.Unmarshal(decoded, &payload); err != nil {
		return nil, fmt.Errorf("%w: undecodable payload", ErrTokenInvalid)
	}

	return &payload, nil
}

// sign computes the base64url-encoded HMAC-SHA256 signature of a message.
func (s *Service) sign(message string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(message))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
