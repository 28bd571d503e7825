package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/chang-ngeno/probable-memory-nextjs/internal/service"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/session"
)

// AuthHandler manages the login flow and session resolution.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLogin  → authenticate (or clear the session), set the cookie
//   - HandleMe     → report who the current cookie belongs to
//   - HandlePolicy → publish the inactivity parameters for clients
//
// The handler owns every HTTP concern — decoding bodies, Set-Cookie,
// status codes. The AuthService owns the rules and never sees a request.
type AuthHandler struct {
	auth   *service.AuthService
	policy session.Config
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected;
// the handler has no knowledge of how they're constructed.
func NewAuthHandler(auth *service.AuthService, policy session.Config, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		policy: policy,
		logger: logger,
	}
}

// loginResponse is the POST /auth/login body: {"ok":true,"id":"..."} on
// success, {"ok":false} otherwise.
type loginResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id,omitempty"`
}

// HandleLogin processes a login request.
//
// HTTP: POST /auth/login
// BODY: {email,password,remember?} | {id} | {role} | {}
//
// An unreadable body is treated as {} — which, like an explicitly empty
// body, clears the session cookie and answers {ok:false}. That makes this
// endpoint double as the sign-out endpoint (clients post {} to sign out).
//
// A failed credential login is a 401 via writeError; the clearing cookie
// is still set so a stale session dies with the failed attempt.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Tolerate malformed bodies: fall through with the zero request.
		req = service.LoginRequest{}
	}

	result, err := h.auth.Login(r.Context(), req)

	// The cookie is set on every outcome — session on success, clearing
	// cookie on failure — and MUST go out before the body is written.
	if result.Cookie != nil {
		http.SetCookie(w, result.Cookie)
	}

	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{OK: result.OK, ID: result.UserID})
}

// HandleMe reports the identity behind the request's session cookie.
//
// HTTP: GET /auth/me
//
// This endpoint NEVER errors. Signed in → the user's public fields.
// Anything else — no cookie, garbage cookie, deleted user — →
// {"id":null,"role":"guest"} with status 200. Clients poll it on page load
// to decide what to render, and an error would only make them guess.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity := h.auth.ResolveCurrentUser(r.Context(), r.Header.Get("Cookie"))
	writeJSON(w, http.StatusOK, identity)
}

// policyResponse publishes the inactivity parameters in seconds, the unit
// the browser-side timers work in.
type policyResponse struct {
	InactivityTimeoutSeconds int `json:"inactivityTimeoutSeconds"`
	WarningLeadSeconds       int `json:"warningLeadSeconds"`
}

// HandlePolicy returns the session inactivity policy.
//
// HTTP: GET /auth/policy
//
// Clients configure their inactivity monitor from this instead of
// hardcoding the server's timeout.
func (h *AuthHandler) HandlePolicy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, policyResponse{
		InactivityTimeoutSeconds: int(h.policy.InactivityTimeout.Seconds()),
		WarningLeadSeconds:       int(h.policy.WarningLeadTime.Seconds()),
	})
}
