// Package service — authentication business logic.
//
// AuthService is the business logic layer for sessions. It sits between
// the HTTP handlers and the store/crypto utilities:
//
//	AuthHandler (HTTP) → AuthService (rules) → UserStore (lookup)
//	                   ↘ PasswordService (bcrypt)
//	                   ↘ CookieCodec (session cookie wire format)
//
// THE SESSION IS THE COOKIE:
// Login never writes to the store — its only side effect is the Set-Cookie
// header it hands back to the handler. Logout likewise just hands back the
// clearing cookie. "Who am I" is a cookie decode plus a store read.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/chang-ngeno/probable-memory-nextjs/internal/apperror"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/auth"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/model"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/repository"
)

// AuthService orchestrates login, logout, and current-user resolution.
//
// trustedLogin gates the id/role login path — the one that resolves a user
// with NO password check. It exists for demo walkthroughs ("sign in as the
// admin") and must never be enabled on anything public-facing, which is why
// it is an explicit capability flag rather than always-on.
type AuthService struct {
	store        repository.UserStore
	passwords    *auth.PasswordService
	cookies      *auth.CookieCodec
	trustedLogin bool
	logger       *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	store repository.UserStore,
	passwords *auth.PasswordService,
	cookies *auth.CookieCodec,
	trustedLogin bool,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:        store,
		passwords:    passwords,
		cookies:      cookies,
		trustedLogin: trustedLogin,
		logger:       logger,
	}
}

// LoginRequest is the decoded POST /auth/login body. Exactly one of three
// shapes is meaningful:
//
//	{email, password, remember?} → credential login
//	{id} or {role}               → trusted login (no password check)
//	{}                           → sign out (clears the cookie)
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
	ID       string `json:"id"`
	Role     string `json:"role"`
}

// LoginResult bundles the response body fields with the cookie the handler
// must set. Cookie is never nil: success carries the session cookie,
// failure carries the clearing cookie.
type LoginResult struct {
	OK     bool
	UserID string
	Cookie *http.Cookie
}

// Login processes a login request.
//
// CREDENTIAL PATH (email + password both present):
// Look the user up by email, falling back to case-insensitive email-or-name
// matching (the form says "Email or Username"). Verify the password. Either
// failure returns apperror.ErrUnauthorized — the handler maps it to 401 —
// with a message that distinguishes lookup from verification. The result
// still carries the clearing cookie so a stale session dies with the
// failed attempt.
//
// TRUSTED PATH (id or role present, no password):
// Resolve an existing user directly. No credential is checked, so this
// path only runs when the trustedLogin capability is on. An unresolvable
// id/role is NOT an error — the endpoint answers 200 {ok:false} and
// clears the cookie.
//
// EMPTY BODY: behaves as logout — {ok:false} plus the clearing cookie.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	denied := LoginResult{OK: false, Cookie: s.cookies.Clear()}

	if req.Email != "" && req.Password != "" {
		user, err := s.lookupByEmailOrIdentifier(ctx, req.Email)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return denied, apperror.Unauthorized("user not found")
			}
			return denied, err
		}

		if !s.passwords.Verify(user.PasswordHash, req.Password) {
			s.logger.Info("login rejected",
				slog.String("userID", user.ID),
				slog.String("reason", "invalid credentials"),
			)
			return denied, apperror.Unauthorized("invalid credentials")
		}

		s.logger.Info("user signed in",
			slog.String("userID", user.ID),
			slog.Bool("remember", req.Remember),
		)
		return LoginResult{
			OK:     true,
			UserID: user.ID,
			Cookie: s.cookies.Issue(user.ID, req.Remember),
		}, nil
	}

	if req.ID != "" || req.Role != "" {
		if !s.trustedLogin {
			s.logger.Warn("trusted login attempted while disabled")
			return denied, nil
		}

		var user *model.User
		var err error
		if req.ID != "" {
			user, err = s.store.GetByID(ctx, req.ID)
		} else {
			user, err = s.store.FindByRole(ctx, req.Role)
		}
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return denied, nil
			}
			return denied, err
		}

		s.logger.Info("trusted sign-in", slog.String("userID", user.ID))
		return LoginResult{
			OK:     true,
			UserID: user.ID,
			Cookie: s.cookies.Issue(user.ID, req.Remember),
		}, nil
	}

	// Empty body: acts as sign-out.
	return denied, nil
}

// Logout returns the cookie that clears the session.
//
// Idempotent by construction: there is no server-side state to tear down,
// so "logging out" with no session present just re-sends the clearing
// cookie. Callers can invoke it any number of times.
func (s *AuthService) Logout() *http.Cookie {
	return s.cookies.Clear()
}

// ResolveCurrentUser answers "who is making this request?" from a raw
// Cookie header.
//
// TOTALITY — THE ONE HARD RULE HERE:
// This function never fails. Missing cookie → guest. Malformed cookie →
// guest. Cookie naming a user that has since been deleted → guest. A store
// error → guest (logged, since that one is a real fault). The HTTP layer
// can therefore always answer GET /auth/me with 200.
func (s *AuthService) ResolveCurrentUser(ctx context.Context, cookieHeader string) model.Identity {
	id, ok := s.cookies.Decode(cookieHeader)
	if !ok {
		return model.Guest()
	}

	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("resolving session user",
				slog.String("userID", id),
				slog.String("error", err.Error()),
			)
		}
		return model.Guest()
	}

	return model.IdentityOf(user)
}

// lookupByEmailOrIdentifier is the credential path's two-step lookup:
// exact email first, then the case-insensitive email-or-name fallback.
func (s *AuthService) lookupByEmailOrIdentifier(ctx context.Context, emailOrName string) (*model.User, error) {
	emailOrName = strings.TrimSpace(emailOrName)

	user, err := s.store.GetByEmail(ctx, emailOrName)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	return s.store.FindByIdentifier(ctx, emailOrName)
}
