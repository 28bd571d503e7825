// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the user store
//
// Handlers only know about HTTP. Services only know about business rules.
// Neither knows which store backend is behind the repository.UserStore
// interface — that decision is made once, in server setup.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chang-ngeno/probable-memory-nextjs/internal/apperror"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/auth"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/model"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/repository"
)

// UserService handles business logic for user records.
type UserService struct {
	store     repository.UserStore
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewUserService creates a UserService.
//
// CONSTRUCTOR PATTERN IN GO:
// Go doesn't have constructors like Java/Python. Instead, we use "New"
// functions taking all dependencies as parameters — the caller decides
// WHICH store implementation to use (memory, sqlite, postgres, or a fake
// in tests).
func NewUserService(store repository.UserStore, passwords *auth.PasswordService, logger *slog.Logger) *UserService {
	return &UserService{
		store:     store,
		passwords: passwords,
		logger:    logger,
	}
}

// UpdateParams carries the optional fields of a partial update.
//
// WHY POINTERS?
// JSON partial updates must distinguish "field absent" (leave it alone)
// from "field present but empty". A *string does exactly that: nil means
// absent. The handler decodes the body straight into this struct.
type UpdateParams struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	Password *string `json:"password"`
}

// Create validates and saves a new user.
//
// Name and email are required (ValidationError → 400). Role and password
// are optional — an account without a password can only be signed in via
// the trusted login path. A duplicate email surfaces as ErrConflict from
// the store; this is the only point where email uniqueness is checked.
func (s *UserService) Create(ctx context.Context, name, email, role, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return nil, apperror.ValidationFailed("name", "name and email are required")
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "name and email are required")
	}

	user := &model.User{
		Name:  name,
		Email: email,
		Role:  role,
	}

	if password != "" {
		hash, err := s.passwords.Hash(password)
		if err != nil {
			return nil, apperror.ValidationFailed("password", err.Error())
		}
		user.PasswordHash = hash
	}

	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user created",
		slog.String("id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Get resolves a user by id, falling back to identifier matching
// (case-insensitive email or name) when the id misses. The edit form
// lets admins type either, so both GET and DELETE accept both.
func (s *UserService) Get(ctx context.Context, idOrIdentifier string) (*model.User, error) {
	idOrIdentifier = strings.TrimSpace(idOrIdentifier)
	if idOrIdentifier == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}

	user, err := s.store.GetByID(ctx, idOrIdentifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	return s.store.FindByIdentifier(ctx, idOrIdentifier)
}

// List returns all users. Password hashes never leave the model layer in
// JSON (User.PasswordHash is tagged `json:"-"`), so the handler can encode
// this slice directly.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// Update applies a partial update to an existing user.
//
// STRATEGY: fetch then update. We load the record (404 if the id — or
// fallback identifier — resolves nothing), overlay only the fields present
// in params, and save the whole record back.
//
// FAIL-CLOSED PASSWORD UPDATE:
// If hashing the new password fails, the password change is silently
// skipped and the REST of the update still goes through — the stored hash
// is never overwritten with garbage.
//
// NOTE: email uniqueness is NOT re-checked here.
func (s *UserService) Update(ctx context.Context, idOrIdentifier string, params UpdateParams) (*model.User, error) {
	user, err := s.Get(ctx, idOrIdentifier)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		user.Name = strings.TrimSpace(*params.Name)
	}
	if params.Email != nil {
		user.Email = strings.TrimSpace(*params.Email)
	}
	if params.Role != nil {
		user.Role = *params.Role
	}
	if params.Password != nil && *params.Password != "" {
		hash, err := s.passwords.Hash(*params.Password)
		if err != nil {
			// Fail closed: keep the existing hash, apply the rest.
			s.logger.Warn("password update skipped",
				slog.String("id", user.ID),
				slog.String("error", err.Error()),
			)
		} else {
			user.PasswordHash = hash
		}
	}

	if err := s.store.Update(ctx, user); err != nil {
		s.logger.Error("failed to update user",
			slog.String("id", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating user: %w", err)
	}

	s.logger.Info("user updated", slog.String("id", user.ID))

	return user, nil
}

// UpdateProfile is the self-service variant of Update: a signed-in user
// edits their own name, email, or password. Role changes are not part of
// the profile form, so any role field in the request is ignored.
func (s *UserService) UpdateProfile(ctx context.Context, id string, params UpdateParams) (*model.User, error) {
	params.Role = nil
	return s.Update(ctx, id, params)
}

// Delete removes a user by id (with identifier fallback).
func (s *UserService) Delete(ctx context.Context, idOrIdentifier string) error {
	user, err := s.Get(ctx, idOrIdentifier)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, user.ID); err != nil {
		return err
	}

	s.logger.Info("user deleted", slog.String("id", user.ID))
	return nil
}
