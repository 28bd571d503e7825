// Package auth — session cookie encoding and decoding.
//
// SESSION MODEL:
// There is no server-side session table in this system. The session IS the
// cookie: a successful login sets `session_user_id=<url-encoded id>`, and
// every later request is authenticated by looking that id up in the user
// store. Logging out means telling the browser to delete the cookie.
//
// This is a deliberate demo-grade simplification — the cookie value is not
// signed or encrypted, so anyone who can set cookies can impersonate any
// user id they know. A real system would use an opaque server-side session
// id or a signed token.
package auth

import (
	"net/http"
	"net/url"
	"time"
)

// SessionCookieName is the one cookie this system reads and writes.
const SessionCookieName = "session_user_id"

// rememberMaxAge is the cookie lifetime when the user ticks "remember me":
// 30 days, in seconds (what Max-Age counts in).
const rememberMaxAge = int(30 * 24 * time.Hour / time.Second) // 2592000

// CookieCodec translates between a user id and the Set-Cookie / Cookie
// headers that carry it.
//
// WHY A STRUCT WITH NO FIELDS?
// The codec is stateless today, but hanging the methods off a value keeps
// the call sites uniform with the other injected services (PasswordService,
// stores) and leaves room for config — e.g. a Secure flag for HTTPS
// deployments — without touching any caller.
type CookieCodec struct{}

// NewCookieCodec creates a CookieCodec.
func NewCookieCodec() *CookieCodec {
	return &CookieCodec{}
}

// Issue builds the session cookie for a signed-in user.
//
// ATTRIBUTES, AND WHY:
//   - Path=/        → sent on every request to this origin
//   - HttpOnly      → JavaScript cannot read it (XSS can't steal the session)
//   - SameSite=Lax  → sent on top-level navigations but not cross-site POSTs
//   - Max-Age       → only when remember is set; otherwise the cookie lives
//     for the browser session and vanishes when the window closes
//
// The id is url-encoded so ids containing reserved characters (';', '=',
// spaces) survive the cookie header syntax intact. Decode reverses this, so
// the round-trip Decode(Issue(id)) == id holds for any id.
func (c *CookieCodec) Issue(userID string, remember bool) *http.Cookie {
	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    url.QueryEscape(userID),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		cookie.MaxAge = rememberMaxAge
	}
	return cookie
}

// Clear builds the cookie that deletes the session.
//
// MaxAge < 0 makes net/http emit `Max-Age=0` on the wire, which tells the
// browser to drop the cookie immediately. Name and Path must match the
// issued cookie exactly or the browser treats it as a different cookie and
// deletes nothing.
func (c *CookieCodec) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Decode extracts the user id from a raw Cookie request header
// (semicolon-separated `name=value` pairs).
//
// TOTALITY:
// Decode never fails loudly. A missing header, a header without our cookie,
// a malformed pair, a value that isn't valid url-encoding — all of them
// return ("", false) and the caller proceeds as a guest. Authentication
// resolution must be total (see AuthService.ResolveCurrentUser).
func (c *CookieCodec) Decode(cookieHeader string) (userID string, ok bool) {
	if cookieHeader == "" {
		return "", false
	}

	// http.ParseCookie (Go 1.23+) handles the header splitting and the odd
	// corners of cookie syntax (quoted values, stray spaces) for us.
	cookies, err := http.ParseCookie(cookieHeader)
	if err != nil {
		return "", false
	}

	for _, cookie := range cookies {
		if cookie.Name != SessionCookieName {
			continue
		}
		id, err := url.QueryUnescape(cookie.Value)
		if err != nil || id == "" {
			return "", false
		}
		return id, true
	}

	return "", false
}

// DecodeRequest is a convenience wrapper for callers holding an
// *http.Request rather than a raw header string.
func (c *CookieCodec) DecodeRequest(r *http.Request) (string, bool) {
	return c.Decode(r.Header.Get("Cookie"))
}
