package service

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/startera/internal/config"
	"github.com/startera/internal/db"
	"github.com/startera/internal/domain"
	"github.com/startera/internal/token"
)

// recordingMailer captures sent codes
type recordingMailer struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{codes: make(map[string]string)}
}

func (m *recordingMailer) SendVerificationCode(ctx context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[email] = code
	return m.err
}

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Init(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:           "test-secret",
		TokenTTL:            time.Hour,
		VerificationCodeTTL: 15 * time.Minute,
	}
}

func setupTestAuthService(t *testing.T, cfg config.AuthConfig) (*authService, *db.DB, *recordingMailer) {
	t.Helper()
	database := setupTestDB(t)
	mailer := newRecordingMailer()
	svc := NewAuthService(database, token.NewIssuer(cfg.JWTSecret, cfg.TokenTTL), mailer, cfg, slog.Default())
	return svc.(*authService), database, mailer
}

func TestAuthService_RegisterVerifyLogin(t *testing.T) {
	svc, database, mailer := setupTestAuthService(t, testAuthConfig())
	ctx := context.Background()

	result, err := svc.Register(ctx, domain.RegisterRequest{Email: "  Ada@Example.com ", Password: "secret1"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Email != "ada@example.com" {
		t.Errorf("Expected normalized email, got %s", result.Email)
	}
	if len(result.Code) != 6 {
		t.Errorf("Expected 6 digit code, got %q", result.Code)
	}
	if mailer.codes["ada@example.com"] != result.Code {
		t.Errorf("Expected mailed code %s, got %s", result.Code, mailer.codes["ada@example.com"])
	}

	user, err := database.GetUserByEmail("ada@example.com")
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if user.PasswordHash == "secret1" {
		t.Error("Expected password to be hashed")
	}

	if _, err := svc.Login(ctx, domain.LoginRequest{Email: "ada@example.com", Password: "secret1"}); !errors.Is(err, domain.ErrEmailNotVerified) {
		t.Fatalf("Expected ErrEmailNotVerified before verification, got %v", err)
	}

	authResult, err := svc.Verify(ctx, domain.VerifyRequest{Email: "ADA@example.com", Code: " " + result.Code + " "})
	if err != nil {
		t.Fatalf("Expected verification to succeed, got %v", err)
	}
	if authResult.Token == "" || authResult.Email != "ada@example.com" {
		t.Errorf("Unexpected auth result: %+v", authResult)
	}

	loginResult, err := svc.Login(ctx, domain.LoginRequest{Email: "ada@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Expected login to succeed, got %v", err)
	}

	authed, err := svc.Authenticate(ctx, loginResult.Token)
	if err != nil {
		t.Fatalf("Expected token to authenticate, got %v", err)
	}
	if authed.Email != "ada@example.com" || !authed.IsVerified {
		t.Errorf("Unexpected authenticated user: %+v", authed)
	}
}

func TestAuthService_RegisterRejects(t *testing.T) {
	svc, _, _ := setupTestAuthService(t, testAuthConfig())
	ctx := context.Background()

	if _, err := svc.Register(ctx, domain.RegisterRequest{Email: "ada@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		check    func(error) bool
	}{
		{"duplicate", "ADA@example.com", "secret1", func(err error) bool { return errors.Is(err, domain.ErrUserAlreadyExists) }},
		{"short password", "bob@example.com", "12345", domain.IsValidationError},
		{"bad email", "bob.example.com", "secret1", domain.IsValidationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, domain.RegisterRequest{Email: tt.email, Password: tt.password})
			if !tt.check(err) {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestAuthService_RegisterMailFailureStillCreatesAccount(t *testing.T) {
	svc, database, mailer := setupTestAuthService(t, testAuthConfig())
	mailer.err = errors.New("relay down")

	if _, err := svc.Register(context.Background(), domain.RegisterRequest{Email: "ada@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Expected register to succeed despite mail failure, got %v", err)
	}
	if _, err := database.GetUserByEmail("ada@example.com"); err != nil {
		t.Errorf("Expected user to exist, got %v", err)
	}
}

func TestAuthService_AutoVerify(t *testing.T) {
	cfg := testAuthConfig()
	cfg.AutoVerify = true
	svc, _, mailer := setupTestAuthService(t, cfg)
	ctx := context.Background()

	result, err := svc.Register(ctx, domain.RegisterRequest{Email: "ada@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !result.Verified || result.Code != "" {
		t.Errorf("Expected verified result without code, got %+v", result)
	}
	if len(mailer.codes) != 0 {
		t.Error("Expected no verification mail")
	}
	if _, err := svc.Login(ctx, domain.LoginRequest{Email: "ada@example.com", Password: "secret1"}); err != nil {
		t.Errorf("Expected immediate login, got %v", err)
	}
}

func TestAuthService_LoginFailures(t *testing.T) {
	cfg := testAuthConfig()
	cfg.AutoVerify = true
	svc, _, _ := setupTestAuthService(t, cfg)
	ctx := context.Background()
	if _, err := svc.Register(ctx, domain.RegisterRequest{Email: "ada@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown user", "nobody@example.com", "secret1"},
		{"wrong password", "ada@example.com", "wrong-pass"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, domain.LoginRequest{Email: tt.email, Password: tt.password})
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Errorf("Expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestAuthService_VerifyFailures(t *testing.T) {
	svc, _, _ := setupTestAuthService(t, testAuthConfig())
	ctx := context.Background()

	result, err := svc.Register(ctx, domain.RegisterRequest{Email: "ada@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Failed to register: %v", err)
	}

	if _, err := svc.Verify(ctx, domain.VerifyRequest{Email: "nobody@example.com", Code: "123456"}); !domain.IsNotFoundError(err) {
		t.Errorf("Expected not found error, got %v", err)
	}

	wrong := "000000"
	if result.Code == wrong {
		wrong = "111111"
	}
	if _, err := svc.Verify(ctx, domain.VerifyRequest{Email: "ada@example.com", Code: wrong}); !errors.Is(err, domain.ErrInvalidVerificationCode) {
		t.Errorf("Expected ErrInvalidVerificationCode, got %v", err)
	}

	svc.now = func() time.Time { return time.Now().UTC().Add(time.Hour) }
	if _, err := svc.Verify(ctx, domain.VerifyRequest{Email: "ada@example.com", Code: result.Code}); !errors.Is(err, domain.ErrInvalidVerificationCode) {
		t.Errorf("Expected expired code to be rejected, got %v", err)
	}
}

func TestAuthService_ExpiredCodeIsReissued(t *testing.T) {
	svc, database, mailer := setupTestAuthService(t, testAuthConfig())
	ctx := context.Background()

	if _, err := svc.Register(ctx, domain.RegisterRequest{Email: "ada@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}

	later := time.Now().UTC().Add(time.Hour)
	svc.now = func() time.Time { return later }

	if _, err := svc.Login(ctx, domain.LoginRequest{Email: "ada@example.com", Password: "secret1"}); !errors.Is(err, domain.ErrEmailNotVerified) {
		t.Fatalf("Expected ErrEmailNotVerified, got %v", err)
	}
	user, err := database.GetUserByEmail("ada@example.com")
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if user.CodeExpiresAt == nil || !user.CodeExpiresAt.After(later) {
		t.Fatalf("Expected a fresh expiry after login, got %v", user.CodeExpiresAt)
	}
	mailed := mailer.codes["ada@example.com"]
	if user.VerificationCode == nil || *user.VerificationCode != mailed {
		t.Fatalf("Expected the reissued code to be mailed, stored %v mailed %s", user.VerificationCode, mailed)
	}

	if _, err := svc.Verify(ctx, domain.VerifyRequest{Email: "ada@example.com", Code: mailed}); err != nil {
		t.Fatalf("Expected reissued code to verify, got %v", err)
	}
	if _, err := svc.Login(ctx, domain.LoginRequest{Email: "ada@example.com", Password: "secret1"}); err != nil {
		t.Errorf("Expected login after verify, got %v", err)
	}
}

func TestAuthService_ReRegisterAfterExpiry(t *testing.T) {
	svc, _, mailer := setupTestAuthService(t, testAuthConfig())
	ctx := context.Background()

	if _, err := svc.Register(ctx, domain.RegisterRequest{Email: "ada@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}
	svc.now = func() time.Time { return time.Now().UTC().Add(time.Hour) }

	if _, err := svc.Register(ctx, domain.RegisterRequest{Email: "ada@example.com", Password: "other-pass"}); !errors.Is(err, domain.ErrUserAlreadyExists) {
		t.Errorf("Expected ErrUserAlreadyExists with a different password, got %v", err)
	}

	result, err := svc.Register(ctx, domain.RegisterRequest{Email: "ada@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Expected re-register to reissue the code, got %v", err)
	}
	if result.Code == "" || mailer.codes["ada@example.com"] != result.Code {
		t.Errorf("Expected reissued code %q to be mailed, got %q", result.Code, mailer.codes["ada@example.com"])
	}
	if _, err := svc.Verify(ctx, domain.VerifyRequest{Email: "ada@example.com", Code: result.Code}); err != nil {
		t.Errorf("Expected reissued code to verify, got %v", err)
	}
}

func TestAuthService_AuthenticateRejects(t *testing.T) {
	svc, _, _ := setupTestAuthService(t, testAuthConfig())
	ctx := context.Background()

	if _, err := svc.Authenticate(ctx, "not-a-token"); !domain.HasCode(err, domain.ErrUnauthorized.Code) {
		t.Errorf("Expected unauthorized, got %v", err)
	}

	orphan, err := token.NewIssuer("test-secret", time.Hour).Issue("ghost@example.com")
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	if _, err := svc.Authenticate(ctx, orphan); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("Expected unauthorized for unknown subject, got %v", err)
	}
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("Expected 6 characters, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("Expected digits only, got %q", code)
			}
		}
	}
}
