package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/chang-ngeno/probable-memory-nextjs/internal/apperror"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/service"
)

// UserHandler manages CRUD operations for user records plus the
// self-service profile update.
//
// Each handler struct "owns" one area of functionality: all user-record
// HTTP concerns live here, all session concerns in AuthHandler.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleList returns all users.
//
// HTTP: GET /users
//
// Password hashes are never in the output — User.PasswordHash is tagged
// `json:"-"`, so the encoder cannot emit it.
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// createUserRequest is the POST /users body.
type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// HandleCreate saves a new user.
//
// HTTP: POST /users
// BODY: {"name":"...","email":"...","role"?,"password"?}
//
// A malformed body decodes to the zero request, which the service rejects
// as missing name/email — a 400, same as an explicitly empty body.
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid create-user JSON", slog.String("error", err.Error()))
		req = createUserRequest{}
	}

	user, err := h.users.Create(r.Context(), req.Name, req.Email, req.Role, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// HandleGet returns a single user.
//
// HTTP: GET /users/{id}
//
// URL PARAMETERS:
// r.PathValue("id") extracts the {id} segment — chi populates the
// request's path values when the route matches.
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleUpdate applies a partial update to a user.
//
// HTTP: PUT /users/{id}
// BODY: any subset of {"name","email","role","password"}
//
// Absent fields are left untouched (service.UpdateParams uses pointer
// fields to tell "absent" from "empty"). 404 if neither the id nor the
// identifier fallback resolves a user.
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var params service.UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		params = service.UpdateParams{}
	}

	user, err := h.users.Update(r.Context(), r.PathValue("id"), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleDelete removes a user.
//
// HTTP: DELETE /users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent) // 204 — successful deletion, no body
}

// profileRequest is the PATCH /users/profile body: the target id plus the
// same optional fields as an update (role excluded by the service).
type profileRequest struct {
	ID string `json:"id"`
	service.UpdateParams
}

// HandleProfile is the self-service profile update.
//
// HTTP: PATCH /users/profile
// BODY: {"id":"...", "name"?, "email"?, "password"?}
//
// 400 when id is missing, 404 when it resolves nothing. Role changes are
// ignored on this endpoint — the profile form has no role field.
func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = profileRequest{}
	}

	if req.ID == "" {
		writeError(w, apperror.ValidationFailed("id", "id is required"))
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), req.ID, req.UpdateParams)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
