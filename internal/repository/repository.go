// Package repository defines the storage contract the rest of the
// application depends on.
//
// CAPABILITY CONTRACT:
// Services receive a UserStore (interface), never a concrete store. Three
// injectable backends exist (memory, sqlite, postgres) and callers cannot
// tell them apart. Swapping the backend is one line in server setup.
package repository

import (
	"context"

	"github.com/chang-ngeno/probable-memory-nextjs/internal/model"
)

// UserStore is the capability contract for user persistence.
//
// SEMANTICS EVERY IMPLEMENTATION MUST HONOR:
//   - Create assigns ID and CreatedAt, and rejects a duplicate email with
//     apperror.ErrConflict. Email comparison is case-insensitive.
//   - GetByEmail and FindByIdentifier compare case-insensitively;
//     FindByIdentifier matches email first, then name.
//   - FindByRole returns some user with that role (which one is
//     unspecified — the trusted login path only needs "a user of role X").
//   - Update is a full-record save keyed by ID; it sets UpdatedAt and does
//     NOT re-check email uniqueness.
//   - Lookups and Delete return apperror.ErrNotFound for missing rows.
//   - Reads are consistent (no torn reads); no multi-step transactional
//     guarantees are required — every operation here is a point mutation.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (*model.User, error)
	FindByRole(ctx context.Context, role string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}
