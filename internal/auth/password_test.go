package auth

import (
	"strings"
	"testing"
)

// All tests use cost 4 (bcrypt minimum) — cost 12 would add ~250ms per hash.

func TestHashAndVerify(t *testing.T) {
	ps := NewPasswordServiceForTest(4)

	hash, err := ps.Hash("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if hash == "correct-horse-battery-staple" {
		t.Fatal("Hash() returned the plaintext — password not hashed")
	}
	if !strings.HasPrefix(hash, "$2a$") {
		t.Errorf("hash = %q, want bcrypt format ($2a$...)", hash)
	}

	if !ps.Verify(hash, "correct-horse-battery-staple") {
		t.Error("Verify() = false for correct password")
	}
	if ps.Verify(hash, "wrong-password") {
		t.Error("Verify() = true for wrong password")
	}
}

func TestHashProducesDifferentSalts(t *testing.T) {
	ps := NewPasswordServiceForTest(4)

	hash1, err := ps.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() first: %v", err)
	}
	hash2, err := ps.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() second: %v", err)
	}

	// Random salt → same input, different output
	if hash1 == hash2 {
		t.Error("two hashes of the same password are identical — salt is not random")
	}
}

func TestHashRejectsOverlongPassword(t *testing.T) {
	ps := NewPasswordServiceForTest(4)

	_, err := ps.Hash(strings.Repeat("a", 73))
	if err == nil {
		t.Fatal("Hash() should reject passwords longer than 72 bytes")
	}

	// Exactly 72 bytes is fine
	if _, err := ps.Hash(strings.Repeat("a", 72)); err != nil {
		t.Errorf("Hash() rejected a 72-byte password: %v", err)
	}
}

// =========================================================================
// SILENT DENY TESTS
// Verify never errors, never panics — every failure mode is just "false".
// =========================================================================

func TestVerify_EmptyInputs(t *testing.T) {
	ps := NewPasswordServiceForTest(4)
	hash, _ := ps.Hash("secret")

	tests := []struct {
		name       string
		storedHash string
		candidate  string
	}{
		{"empty hash (account with no password)", "", "secret"},
		{"empty candidate", hash, ""},
		{"both empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if ps.Verify(tt.storedHash, tt.candidate) {
				t.Errorf("Verify(%q, %q) = true, want false", tt.storedHash, tt.candidate)
			}
		})
	}
}

func TestVerify_CorruptHash(t *testing.T) {
	ps := NewPasswordServiceForTest(4)

	// Not a bcrypt hash at all — must deny, not panic
	if ps.Verify("not-a-bcrypt-hash", "anything") {
		t.Error("Verify() = true for a corrupt stored hash")
	}
}
