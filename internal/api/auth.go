package api

import (
	"encoding/json"
	"net/http"

	"github.com/sgruber/camcore/internal/session"
)

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// okResponse is the success body for auth endpoints.
type okResponse struct {
	OK bool `json:"ok"`
}

// handleLogin checks the configured credential pair and issues a session cookie.
//
// A malformed JSON body is treated as empty credentials, which then fail the
// comparison like any other wrong pair. The 401 message never says which
// field was wrong.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	//nolint:errcheck // malformed body deliberately degrades to empty credentials
	json.NewDecoder(r.Body).Decode(&req)

	if req.Username != s.authCfg.Username || req.Password != s.authCfg.Password {
		writeUnauthorized(w, "invalid credentials")
		return
	}

	token, err := s.sessions.Create(req.Username)
	if err != nil {
		s.logger.Error("failed to create session", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	http.SetCookie(w, session.NewCookie(token, s.authCfg.CookieMaxAge(), !s.authCfg.DevMode))
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// handleLogout clears the session cookie.
//
// The token itself stays cryptographically valid (it carries no expiry);
// logout only discards the browser's copy.
func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, session.ClearCookie(!s.authCfg.DevMode))
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
