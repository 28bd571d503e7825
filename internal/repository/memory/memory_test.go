package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/chang-ngeno/probable-memory-nextjs/internal/apperror"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/model"
)

// createTestUser creates a user and fails the test on error.
func createTestUser(t *testing.T, s *Store, name, email, role string) *model.User {
	t.Helper()
	user := &model.User{Name: name, Email: email, Role: role}
	if err := s.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user %s: %v", email, err)
	}
	return user
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreate(t *testing.T) {
	s := New()

	user := &model.User{Name: "Alice", Email: "alice@example.com", Role: model.RoleAdmin}
	if err := s.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if user.ID == "" {
		t.Error("Create() did not assign an ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Create() did not set CreatedAt")
	}
	// A fresh record has never been updated
	if !user.UpdatedAt.IsZero() {
		t.Error("Create() set UpdatedAt on a fresh record")
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	s := New()
	createTestUser(t, s, "First", "dup@example.com", model.RoleUser)

	err := s.Create(context.Background(), &model.User{Name: "Second", Email: "dup@example.com"})
	if err == nil {
		t.Fatal("Create() should reject a duplicate email")
	}
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() error = %v, want ErrConflict", err)
	}
}

func TestCreate_DuplicateEmailCaseInsensitive(t *testing.T) {
	s := New()
	createTestUser(t, s, "First", "Dup@Example.com", model.RoleUser)

	err := s.Create(context.Background(), &model.User{Name: "Second", Email: "dup@example.COM"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() error = %v, want ErrConflict for case-variant email", err)
	}
}

// =========================================================================
// LOOKUP TESTS
// =========================================================================

func TestGetByID(t *testing.T) {
	s := New()
	created := createTestUser(t, s, "Alice", "alice@example.com", model.RoleUser)

	found, err := s.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Email != "alice@example.com" {
		t.Errorf("Email = %q, want %q", found.Email, "alice@example.com")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	s := New()

	_, err := s.GetByID(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestGetByEmail_CaseInsensitive(t *testing.T) {
	s := New()
	createTestUser(t, s, "Alice", "Alice@Example.com", model.RoleUser)

	found, err := s.GetByEmail(context.Background(), "alice@example.COM")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	// Stored casing is preserved, only the comparison folds case
	if found.Email != "Alice@Example.com" {
		t.Errorf("Email = %q, want original casing preserved", found.Email)
	}
}

func TestFindByIdentifier(t *testing.T) {
	s := New()
	createTestUser(t, s, "Alice Smith", "alice@example.com", model.RoleUser)

	t.Run("matches email", func(t *testing.T) {
		found, err := s.FindByIdentifier(context.Background(), "ALICE@example.com")
		if err != nil {
			t.Fatalf("FindByIdentifier() error = %v", err)
		}
		if found.Name != "Alice Smith" {
			t.Errorf("Name = %q", found.Name)
		}
	})

	t.Run("matches name", func(t *testing.T) {
		found, err := s.FindByIdentifier(context.Background(), "alice smith")
		if err != nil {
			t.Fatalf("FindByIdentifier() error = %v", err)
		}
		if found.Email != "alice@example.com" {
			t.Errorf("Email = %q", found.Email)
		}
	})

	t.Run("no match", func(t *testing.T) {
		_, err := s.FindByIdentifier(context.Background(), "nobody")
		if !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestFindByIdentifier_EmailWinsOverName(t *testing.T) {
	s := New()
	// One user's NAME equals another user's EMAIL
	byEmail := createTestUser(t, s, "Someone", "shared@example.com", model.RoleUser)
	createTestUser(t, s, "shared@example.com", "other@example.com", model.RoleUser)

	found, err := s.FindByIdentifier(context.Background(), "shared@example.com")
	if err != nil {
		t.Fatalf("FindByIdentifier() error = %v", err)
	}
	if found.ID != byEmail.ID {
		t.Errorf("resolved ID = %q, want the email match %q", found.ID, byEmail.ID)
	}
}

func TestFindByRole(t *testing.T) {
	s := New()
	admin := createTestUser(t, s, "Root", "root@example.com", model.RoleAdmin)
	createTestUser(t, s, "Plain", "plain@example.com", model.RoleUser)

	found, err := s.FindByRole(context.Background(), model.RoleAdmin)
	if err != nil {
		t.Fatalf("FindByRole() error = %v", err)
	}
	if found.ID != admin.ID {
		t.Errorf("ID = %q, want %q", found.ID, admin.ID)
	}

	if _, err := s.FindByRole(context.Background(), "superadmin"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("FindByRole(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestList(t *testing.T) {
	s := New()
	createTestUser(t, s, "A", "a@example.com", model.RoleUser)
	createTestUser(t, s, "B", "b@example.com", model.RoleUser)

	users, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 2 {
		t.Errorf("len(users) = %d, want 2", len(users))
	}
}

// =========================================================================
// UPDATE / DELETE TESTS
// =========================================================================

func TestUpdate(t *testing.T) {
	s := New()
	created := createTestUser(t, s, "Alice", "alice@example.com", model.RoleUser)
	originalCreatedAt := created.CreatedAt

	created.Name = "Alicia"
	if err := s.Update(context.Background(), created); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, err := s.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() after update: %v", err)
	}
	if found.Name != "Alicia" {
		t.Errorf("Name = %q, want %q", found.Name, "Alicia")
	}
	if !found.CreatedAt.Equal(originalCreatedAt) {
		t.Errorf("Update() changed CreatedAt: %v → %v", originalCreatedAt, found.CreatedAt)
	}
	if found.UpdatedAt.IsZero() {
		t.Error("Update() did not stamp UpdatedAt")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	s := New()

	err := s.Update(context.Background(), &model.User{ID: "ghost", Name: "Ghost"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	s := New()
	created := createTestUser(t, s, "Alice", "alice@example.com", model.RoleUser)

	if err := s.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := s.GetByID(context.Background(), created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}

	// Deleting again → not found
	if err := s.Delete(context.Background(), created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// ISOLATION TESTS
// =========================================================================

func TestReturnedRecordsAreCopies(t *testing.T) {
	s := New()
	created := createTestUser(t, s, "Alice", "alice@example.com", model.RoleUser)

	found, _ := s.GetByID(context.Background(), created.ID)
	found.Name = "Mutated"

	// Mutating the returned struct must not touch the stored record
	again, _ := s.GetByID(context.Background(), created.ID)
	if again.Name != "Alice" {
		t.Errorf("stored Name = %q — caller mutated store-internal state", again.Name)
	}
}
