package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/startera/internal/config"
	"github.com/startera/internal/constants"
	"github.com/startera/internal/db"
	"github.com/startera/internal/domain"
	"github.com/startera/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

// authService implements the AuthService interface
type authService struct {
	database *db.DB
	tokens   domain.TokenIssuer
	mailer   domain.Mailer
	cfg      config.AuthConfig
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	database *db.DB,
	tokens domain.TokenIssuer,
	mailer domain.Mailer,
	cfg config.AuthConfig,
	logger *slog.Logger,
) domain.AuthService {
	return &authService{
		database: database,
		tokens:   tokens,
		mailer:   mailer,
		cfg:      cfg,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an account and sends a verification code
func (s *authService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.RegisterResult, error) {
	email := domain.NormalizeEmail(req.Email)
	if err := validation.ValidateCredentials(email, req.Password); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "registering user", "email", email)

	if existing, err := s.database.GetUserByEmail(email); err == nil {
		return s.registerExisting(ctx, existing, req.Password)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, domain.WrapDatabaseOperation("get user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := db.NewUser(email, string(hash))
	result := &domain.RegisterResult{Email: email}

	if s.cfg.AutoVerify {
		verifiedAt := s.now()
		user.IsVerified = true
		user.VerifiedAt = &verifiedAt
		result.Verified = true
	} else {
		code, err := generateCode()
		if err != nil {
			return nil, err
		}
		expiresAt := s.now().Add(s.cfg.VerificationCodeTTL)
		user.VerificationCode = &code
		user.CodeExpiresAt = &expiresAt
		result.Code = code
		result.ExpiresAt = expiresAt
	}

	if err := s.database.CreateUser(user); err != nil {
		if db.IsUniqueConstraintError(err) {
			return nil, domain.ErrUserAlreadyExists
		}
		s.logger.ErrorContext(ctx, "failed to create user", "email", email, "error", err)
		return nil, domain.WrapDatabaseOperation("create user", err)
	}

	if !result.Verified {
		// delivery failure leaves the code valid; the user can still verify with it
		if err := s.mailer.SendVerificationCode(ctx, email, result.Code); err != nil {
			s.logger.WarnContext(ctx, "verification mail not delivered", "email", email, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "user registered", "email", email, "userID", user.ID, "verified", result.Verified)
	return result, nil
}

// Login checks credentials and issues a token for verified accounts
func (s *authService) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResult, error) {
	email := domain.NormalizeEmail(req.Email)

	user, err := s.database.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.WrapDatabaseOperation("get user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.InfoContext(ctx, "login rejected", "email", email, "reason", "password mismatch")
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsVerified {
		if !s.codeUsable(user) {
			if _, _, err := s.reissueCode(ctx, email); err != nil {
				s.logger.ErrorContext(ctx, "failed to reissue verification code", "email", email, "error", err)
			}
		}
		return nil, domain.ErrEmailNotVerified
	}

	return s.issue(ctx, email)
}

// Verify confirms the one-time code and issues a token
func (s *authService) Verify(ctx context.Context, req domain.VerifyRequest) (*domain.AuthResult, error) {
	email := domain.NormalizeEmail(req.Email)
	code := strings.TrimSpace(req.Code)

	user, err := s.database.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapUserNotFound(email, err)
		}
		return nil, domain.WrapDatabaseOperation("get user", err)
	}

	if user.VerificationCode == nil {
		return nil, domain.ErrInvalidVerificationCode
	}
	if user.CodeExpiresAt != nil && s.now().After(*user.CodeExpiresAt) {
		s.logger.InfoContext(ctx, "verification code expired", "email", email)
		return nil, domain.ErrInvalidVerificationCode
	}
	if subtle.ConstantTimeCompare([]byte(*user.VerificationCode), []byte(code)) != 1 {
		return nil, domain.ErrInvalidVerificationCode
	}

	if err := s.database.MarkUserVerified(email); err != nil {
		return nil, domain.WrapDatabaseOperation("mark user verified", err)
	}
	s.logger.InfoContext(ctx, "user verified", "email", email)

	return s.issue(ctx, email)
}

// Authenticate resolves a bearer token to its account
func (s *authService) Authenticate(ctx context.Context, token string) (*db.User, error) {
	email, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	user, err := s.database.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUnauthorized
		}
		return nil, domain.WrapDatabaseOperation("get user", err)
	}
	return user, nil
}

// registerExisting lets the owner of an unverified account whose code is gone get a fresh one
func (s *authService) registerExisting(ctx context.Context, user *db.User, password string) (*domain.RegisterResult, error) {
	if user.IsVerified || s.codeUsable(user) {
		return nil, domain.ErrUserAlreadyExists
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrUserAlreadyExists
	}

	code, expiresAt, err := s.reissueCode(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	return &domain.RegisterResult{Email: user.Email, Code: code, ExpiresAt: expiresAt}, nil
}

// codeUsable reports whether the stored code can still confirm the account
func (s *authService) codeUsable(user *db.User) bool {
	if user.VerificationCode == nil {
		return false
	}
	return user.CodeExpiresAt == nil || !s.now().After(*user.CodeExpiresAt)
}

// reissueCode stores a fresh code and mails it; mail failure is only logged
func (s *authService) reissueCode(ctx context.Context, email string) (string, time.Time, error) {
	code, err := generateCode()
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := s.now().Add(s.cfg.VerificationCodeTTL)
	if err := s.database.SetVerificationCode(email, code, expiresAt); err != nil {
		return "", time.Time{}, domain.WrapDatabaseOperation("set verification code", err)
	}
	if err := s.mailer.SendVerificationCode(ctx, email, code); err != nil {
		s.logger.WarnContext(ctx, "verification mail not delivered", "email", email, "error", err)
	}
	s.logger.InfoContext(ctx, "verification code reissued", "email", email)
	return code, expiresAt, nil
}

func (s *authService) issue(ctx context.Context, email string) (*domain.AuthResult, error) {
	signed, err := s.tokens.Issue(email)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to issue token", "email", email, "error", err)
		return nil, err
	}
	return &domain.AuthResult{Token: signed, Email: email}, nil
}

// generateCode returns a uniformly random zero-padded numeric code
func generateCode() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < constants.VerificationCodeLength; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%0*d", constants.VerificationCodeLength, n.Int64()), nil
}
