// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Role values a user account can carry.
//
// WHY PLAIN STRING CONSTANTS (not a custom type)?
// The role travels through JSON bodies, cookies, and SQL columns as a plain
// string anyway. A custom `type Role string` would force conversions at every
// boundary for little gain in a two-value enum. We keep the constants so the
// literals live in exactly one place.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	RoleGuest = "guest" // never stored — only appears in Identity for anonymous requests
)

// User represents a registered user account.
//
// The `json:"..."` tags tell Go's encoding/json package how to serialize this
// struct. Two of them deserve attention:
//
//   - PasswordHash is tagged `json:"-"` — the dash means "never serialize".
//     API responses must not leak password hashes, and making that a property
//     of the type (rather than remembering to strip it in every handler) means
//     it CANNOT happen by accident.
//
//   - UpdatedAt is tagged `omitzero` — a user that has never been edited has
//     no updatedAt field in JSON, matching the "optional" semantics of the
//     record. (omitzero, added in Go 1.24, works for time.Time where the older
//     omitempty does not — a zero time.Time is not "empty" to encoding/json.)
//
// INVARIANT: ID is immutable once created. Email uniqueness is enforced at
// creation only — updates do not re-check it.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"` // unique at creation, compared case-insensitively on lookup
	PasswordHash string    `json:"-"`     // bcrypt hash; empty means "no password set"
	Role         string    `json:"role,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt,omitzero"` // zero until the first update
}

// HasPassword reports whether a password has ever been set for this account.
// Accounts created through the admin form may have none — those can only sign
// in through the trusted (id/role) login path.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Identity is the answer to "who is making this request?".
//
// It is either a signed-in user's public fields, or the guest identity
// `{"id":null,"role":"guest"}`. ID is a *string precisely so that the guest
// case serializes as JSON null rather than "" — clients branch on `data.id`.
type Identity struct {
	ID    *string `json:"id"`
	Name  string  `json:"name,omitempty"`
	Email string  `json:"email,omitempty"`
	Role  string  `json:"role,omitempty"`
}

// Guest returns the zero-value identity used whenever no valid session can be
// resolved. Resolution is total: a missing cookie, a malformed cookie, and a
// cookie naming a deleted user all land here — never an error.
func Guest() Identity {
	return Identity{ID: nil, Role: RoleGuest}
}

// IdentityOf builds the signed-in identity for a user record.
func IdentityOf(u *User) Identity {
	id := u.ID
	return Identity{
		ID:    &id,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// IsGuest reports whether this identity represents an anonymous request.
func (i Identity) IsGuest() bool {
	return i.ID == nil
}
