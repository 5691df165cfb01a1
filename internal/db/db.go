package db

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the database connection
type DB struct {
	*sql.DB
	dbPath string
}

// Init initializes the database connection and runs migrations
func Init(dbPath string) (*DB, error) {
	// Ensure data directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_time_format=sqlite")
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer
	sqlDB.SetMaxOpenConns(1)

	db := &DB{sqlDB, dbPath}

	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return db, nil
}

// GetDBPath returns the database file path
func (db *DB) GetDBPath() string {
	return db.dbPath
}

// migrate runs database migrations
func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			verification_code TEXT,
			code_expires_at DATETIME,
			is_verified INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			verified_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS chat_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			role TEXT NOT NULL,
			message TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			payload TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			attempts INTEGER NOT NULL DEFAULT 0,
			error_message TEXT,
			worker_id TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			completed_at DATETIME
		)`,
		`ALTER TABLE chat_history ADD COLUMN user_email TEXT`,
		`CREATE INDEX IF NOT EXISTS idx_users_unverified ON users(is_verified, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_history_user ON chat_history(user_email, id)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status, created_at)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			if !isDuplicateColumnError(err) {
				return err
			}
		}
	}

	return nil
}

// isDuplicateColumnError checks if error is about duplicate column
func isDuplicateColumnError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "duplicate column name") ||
		strings.Contains(errStr, "already exists")
}

// IsUniqueConstraintError checks if error comes from a UNIQUE constraint
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// CreateUser inserts a new user
func (db *DB) CreateUser(user *User) error {
	_, err := db.Exec(
		"INSERT INTO users (id, email, password_hash, verification_code, code_expires_at, is_verified, created_at, verified_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		user.ID, user.Email, user.PasswordHash, nullString(user.VerificationCode), nullTime(user.CodeExpiresAt), user.IsVerified, user.CreatedAt.UTC(), nullTime(user.VerifiedAt),
	)
	return err
}

// GetUserByEmail retrieves a user by normalized e-mail. Returns sql.ErrNoRows when absent.
func (db *DB) GetUserByEmail(email string) (*User, error) {
	user := &User{}
	var code sql.NullString
	var expiresAt, verifiedAt sql.NullTime

	err := db.QueryRow(
		"SELECT id, email, password_hash, verification_code, code_expires_at, is_verified, created_at, verified_at FROM users WHERE email = ?",
		email,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &code, &expiresAt, &user.IsVerified, &user.CreatedAt, &verifiedAt)
	if err != nil {
		return nil, err
	}

	if code.Valid {
		user.VerificationCode = &code.String
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		user.CodeExpiresAt = &t
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		user.VerifiedAt = &t
	}
	return user, nil
}

// SetVerificationCode stores a fresh code for a user
func (db *DB) SetVerificationCode(email, code string, expiresAt time.Time) error {
	result, err := db.Exec(
		"UPDATE users SET verification_code = ?, code_expires_at = ? WHERE email = ?",
		code, expiresAt.UTC(), email,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// MarkUserVerified flags the user verified and clears the pending code
func (db *DB) MarkUserVerified(email string) error {
	result, err := db.Exec(
		"UPDATE users SET is_verified = 1, verification_code = NULL, code_expires_at = NULL, verified_at = ? WHERE email = ?",
		time.Now().UTC(), email,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// ClearExpiredVerificationCodes drops codes whose expiry is before now
func (db *DB) ClearExpiredVerificationCodes(now time.Time) (int64, error) {
	result, err := db.Exec(
		"UPDATE users SET verification_code = NULL, code_expires_at = NULL WHERE code_expires_at IS NOT NULL AND code_expires_at < ?",
		now.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteUnverifiedUsersBefore removes accounts never verified and created before cutoff
func (db *DB) DeleteUnverifiedUsersBefore(cutoff time.Time) (int64, error) {
	result, err := db.Exec(
		"DELETE FROM users WHERE is_verified = 0 AND created_at < ?",
		cutoff.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// CountUsers returns the number of registered users
func (db *DB) CountUsers() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// AddChatMessage appends a chat turn; userEmail is empty for anonymous chats
func (db *DB) AddChatMessage(userEmail, role, message string) (*ChatMessage, error) {
	msg := &ChatMessage{UserEmail: userEmail, Role: role, Message: message, CreatedAt: time.Now().UTC()}
	result, err := db.Exec(
		"INSERT INTO chat_history (user_email, role, message, created_at) VALUES (?, ?, ?, ?)",
		nullString(optional(userEmail)), msg.Role, msg.Message, msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if msg.ID, err = result.LastInsertId(); err != nil {
		return nil, err
	}
	return msg, nil
}

// GetChatHistory returns the chat turns of one user oldest first
func (db *DB) GetChatHistory(userEmail string) ([]*ChatMessage, error) {
	rows, err := db.Query(
		"SELECT id, user_email, role, message, created_at FROM chat_history WHERE user_email = ? ORDER BY id ASC",
		userEmail,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*ChatMessage
	for rows.Next() {
		msg := &ChatMessage{}
		var owner sql.NullString
		if err := rows.Scan(&msg.ID, &owner, &msg.Role, &msg.Message, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.UserEmail = owner.String
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
