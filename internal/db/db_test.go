package db

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Init(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestInitCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "startera.db")
	database, err := Init(path)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	if database.GetDBPath() != path {
		t.Errorf("Expected path %s, got %s", path, database.GetDBPath())
	}
}

func TestUserLifecycle(t *testing.T) {
	database := setupTestDB(t)

	code := "123456"
	expires := time.Now().UTC().Add(15 * time.Minute)
	user := NewUser("ada@example.com", "hash")
	user.VerificationCode = &code
	user.CodeExpiresAt = &expires

	if err := database.CreateUser(user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	stored, err := database.GetUserByEmail("ada@example.com")
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if stored.ID != user.ID {
		t.Errorf("Expected ID %s, got %s", user.ID, stored.ID)
	}
	if stored.IsVerified {
		t.Errorf("Expected new user to be unverified")
	}
	if stored.VerificationCode == nil || *stored.VerificationCode != code {
		t.Fatalf("Expected verification code %s, got %v", code, stored.VerificationCode)
	}
	if stored.CodeExpiresAt == nil {
		t.Fatal("Expected code expiry to be stored")
	}

	if err := database.MarkUserVerified("ada@example.com"); err != nil {
		t.Fatalf("Failed to mark verified: %v", err)
	}

	stored, err = database.GetUserByEmail("ada@example.com")
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if !stored.IsVerified {
		t.Errorf("Expected user to be verified")
	}
	if stored.VerificationCode != nil {
		t.Errorf("Expected code to be cleared after verification")
	}
	if stored.VerifiedAt == nil {
		t.Errorf("Expected verified_at to be set")
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	database := setupTestDB(t)

	if err := database.CreateUser(NewUser("dup@example.com", "hash")); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	err := database.CreateUser(NewUser("dup@example.com", "other"))
	if err == nil {
		t.Fatal("Expected duplicate e-mail to fail")
	}
	if !IsUniqueConstraintError(err) {
		t.Errorf("Expected unique constraint error, got %v", err)
	}
}

func TestGetUserByEmailNotFound(t *testing.T) {
	database := setupTestDB(t)

	_, err := database.GetUserByEmail("ghost@example.com")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected sql.ErrNoRows, got %v", err)
	}

	if err := database.MarkUserVerified("ghost@example.com"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected sql.ErrNoRows when verifying unknown user, got %v", err)
	}
}

func TestClearExpiredVerificationCodes(t *testing.T) {
	database := setupTestDB(t)
	now := time.Now().UTC()

	expired := NewUser("old@example.com", "hash")
	if err := database.CreateUser(expired); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	if err := database.SetVerificationCode("old@example.com", "111111", now.Add(-time.Minute)); err != nil {
		t.Fatalf("Failed to set code: %v", err)
	}

	fresh := NewUser("new@example.com", "hash")
	if err := database.CreateUser(fresh); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	if err := database.SetVerificationCode("new@example.com", "222222", now.Add(time.Hour)); err != nil {
		t.Fatalf("Failed to set code: %v", err)
	}

	cleared, err := database.ClearExpiredVerificationCodes(now)
	if err != nil {
		t.Fatalf("Failed to clear codes: %v", err)
	}
	if cleared != 1 {
		t.Errorf("Expected 1 cleared code, got %d", cleared)
	}

	stored, _ := database.GetUserByEmail("new@example.com")
	if stored.VerificationCode == nil {
		t.Errorf("Expected fresh code to survive")
	}
}

func TestDeleteUnverifiedUsersBefore(t *testing.T) {
	database := setupTestDB(t)

	stale := NewUser("stale@example.com", "hash")
	stale.CreatedAt = time.Now().UTC().Add(-100 * time.Hour)
	if err := database.CreateUser(stale); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	verified := NewUser("kept@example.com", "hash")
	verified.CreatedAt = time.Now().UTC().Add(-100 * time.Hour)
	verified.IsVerified = true
	if err := database.CreateUser(verified); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	recent := NewUser("recent@example.com", "hash")
	if err := database.CreateUser(recent); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	deleted, err := database.DeleteUnverifiedUsersBefore(time.Now().UTC().Add(-72 * time.Hour))
	if err != nil {
		t.Fatalf("Failed to delete users: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted user, got %d", deleted)
	}

	count, err := database.CountUsers()
	if err != nil {
		t.Fatalf("Failed to count users: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 remaining users, got %d", count)
	}
}

func TestChatHistory(t *testing.T) {
	database := setupTestDB(t)

	messages := []struct {
		owner, role, text string
	}{
		{"ada@example.com", "user", "Merhaba"},
		{"", "user", "anonim"},
		{"bob@example.com", "user", "Hi"},
		{"ada@example.com", "bot", "Selam!"},
	}
	for _, m := range messages {
		if _, err := database.AddChatMessage(m.owner, m.role, m.text); err != nil {
			t.Fatalf("Failed to add message: %v", err)
		}
	}

	history, err := database.GetChatHistory("ada@example.com")
	if err != nil {
		t.Fatalf("Failed to get history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(history))
	}
	if history[0].Role != "user" || history[1].Role != "bot" {
		t.Errorf("Expected user then bot, got %s then %s", history[0].Role, history[1].Role)
	}
	if history[1].Message != "Selam!" || history[1].UserEmail != "ada@example.com" {
		t.Errorf("Expected reply Selam! owned by ada, got %+v", history[1])
	}

	other, err := database.GetChatHistory("bob@example.com")
	if err != nil {
		t.Fatalf("Failed to get history: %v", err)
	}
	if len(other) != 1 || other[0].Message != "Hi" {
		t.Errorf("Expected only bob's message, got %+v", other)
	}

	empty, err := database.GetChatHistory("")
	if err != nil {
		t.Fatalf("Failed to get history: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected anonymous turns to be unlisted, got %d", len(empty))
	}
}
