package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/chang-ngeno/probable-memory-nextjs/internal/apperror"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/model"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/repository"
)

// compile-time check that *Store implements repository.UserStore
var _ repository.UserStore = (*Store)(nil)

// userColumns is the SELECT list every lookup shares, in Scan order.
const userColumns = `id, name, email, password, role, created_at, updated_at`

// Create inserts a new user.
//
// ID GENERATION WITH xid:
// xid ids are 20 chars, URL-safe, and sortable by creation time
// (e.g. "cv37rs3pp9olc6atsptg"). URL-safety matters here more than usual:
// the id ends up inside a cookie value and in /users/{id} paths.
//
// The UNIQUE index on lower(email) turns a duplicate email into a
// constraint violation, which we translate to apperror.ErrConflict.
func (s *Store) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Time{}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
	)
	if err != nil {
		// modernc.org/sqlite reports constraint failures in the error text;
		// there is no exported sentinel to errors.Is against.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") ||
			strings.Contains(err.Error(), "constraint failed") {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their id.
// Returns apperror.ErrNotFound if no user exists with that id.
func (s *Store) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email, case-insensitively.
func (s *Store) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower(?)`, email)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return user, nil
}

// FindByIdentifier matches email or name case-insensitively, email first.
//
// ORDER BY the email match puts an email hit ahead of a name hit when the
// identifier happens to match both — the same precedence the fallback loop
// in the memory store implements by hand.
func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE lower(email) = lower(?) OR lower(name) = lower(?)
		 ORDER BY lower(email) = lower(?) DESC
		 LIMIT 1`,
		identifier, identifier, identifier)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", identifier)
		}
		return nil, fmt.Errorf("sqlite: finding user by identifier: %w", err)
	}
	return user, nil
}

// FindByRole returns some user with the given role.
func (s *Store) FindByRole(ctx context.Context, role string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = ? LIMIT 1`, role)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", role)
		}
		return nil, fmt.Errorf("sqlite: finding user by role: %w", err)
	}
	return user, nil
}

// List returns all users, oldest first.
func (s *Store) List(ctx context.Context) ([]model.User, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	// rows MUST be closed, or the connection never returns to the pool.
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user rows: %w", err)
	}

	return users, nil
}

// Update saves a full user record keyed by ID and stamps UpdatedAt.
//
// RowsAffected distinguishes "row updated" from "no such row" — UPDATE on a
// missing id is not a SQL error, just zero rows.
func (s *Store) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	res, err := s.conn.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, password = ?, role = ?, updated_at = ?
		 WHERE id = ?`,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update of user %s: %w", user.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// Delete removes a user by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking delete of user %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", id)
	}

	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows, so one scan
// helper serves single-row lookups and List alike.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser reads a user row in userColumns order.
// updated_at is nullable — NULL scans to a zero time.Time via sql.NullTime.
func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	var updatedAt sql.NullTime

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if updatedAt.Valid {
		u.UpdatedAt = updatedAt.Time
	}
	return &u, nil
}
