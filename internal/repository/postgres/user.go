package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/xid"

	"github.com/chang-ngeno/probable-memory-nextjs/internal/apperror"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/model"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/repository"
)

// compile-time check that *Store implements repository.UserStore
var _ repository.UserStore = (*Store)(nil)

const userColumns = `id, name, email, password, role, created_at, updated_at`

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

// Create inserts a new user with a generated xid id.
// A duplicate email trips the unique index on lower(email) and is
// translated to apperror.ErrConflict.
func (s *Store) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Time{}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password, role, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("postgres: creating user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their id.
func (s *Store) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email, case-insensitively.
func (s *Store) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("postgres: getting user by email: %w", err)
	}
	return user, nil
}

// FindByIdentifier matches email or name case-insensitively, email first.
func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE lower(email) = lower($1) OR lower(name) = lower($1)
		 ORDER BY lower(email) = lower($1) DESC
		 LIMIT 1`,
		identifier)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", identifier)
		}
		return nil, fmt.Errorf("postgres: finding user by identifier: %w", err)
	}
	return user, nil
}

// FindByRole returns some user with the given role.
func (s *Store) FindByRole(ctx context.Context, role string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = $1 LIMIT 1`, role)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", role)
		}
		return nil, fmt.Errorf("postgres: finding user by role: %w", err)
	}
	return user, nil
}

// List returns all users, oldest first.
func (s *Store) List(ctx context.Context) ([]model.User, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning user row: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating user rows: %w", err)
	}

	return users, nil
}

// Update saves a full user record keyed by ID and stamps UpdatedAt.
func (s *Store) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	res, err := s.conn.ExecContext(ctx,
		`UPDATE users SET name = $1, email = $2, password = $3, role = $4, updated_at = $5
		 WHERE id = $6`,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating user %s: %w", user.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: checking update of user %s: %w", user.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// Delete removes a user by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting user %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: checking delete of user %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", id)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

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
