package session

import "net/http"

// CookieName is the session cookie name.
const CookieName = "camcore_session"

// NewCookie builds the session cookie carrying a freshly issued token.
//
// Attributes: Path=/, HttpOnly, SameSite=Lax, Max-Age as given, and Secure
// unless secure is false (local/dev over plain HTTP).
func NewCookie(token string, maxAgeSeconds int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAgeSeconds,
		Secure:   secure,
	}
}

// ClearCookie builds a cookie that expires the session immediately
// (Max-Age=0 on the wire).
func ClearCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "deleted",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Secure:   secure,
	}
}

// TokenFromRequest extracts the raw session token from the request cookie.
// Returns "" if the cookie is absent.
func TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
