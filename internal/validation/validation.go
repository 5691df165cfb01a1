package validation

import (
	"errors"
	"regexp"
	"strings"

	"github.com/startera/internal/constants"
	"github.com/startera/internal/domain"
)

var (
	// verificationCodeRegex allows exactly six ASCII digits
	verificationCodeRegex = regexp.MustCompile(`^[0-9]{6}$`)
)

// ValidateEmail applies the sign-in form rule: non-empty and contains '@'
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.WrapValidationError("email", errors.New("e-mail cannot be empty"))
	}
	if len(email) > constants.MaxEmailLength {
		return domain.WrapValidationError("email", errors.New("e-mail is too long"))
	}
	if !strings.Contains(email, "@") {
		return domain.WrapValidationError("email", errors.New("e-mail must contain '@'"))
	}
	return nil
}

// ValidatePassword requires the minimum password length
func ValidatePassword(password string) error {
	if len(password) < constants.MinPasswordLength {
		return domain.WrapValidationError("password", errors.New("password must be at least 6 characters"))
	}
	return nil
}

// ValidateCredentials validates an e-mail/password pair, e-mail first
func ValidateCredentials(email, password string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	return ValidatePassword(password)
}

// ValidateVerificationCode requires a fixed-length numeric code
func ValidateVerificationCode(code string) error {
	if !verificationCodeRegex.MatchString(strings.TrimSpace(code)) {
		return domain.WrapValidationError("code", errors.New("code must be 6 digits"))
	}
	return nil
}

// ValidateChatMessage rejects blank messages
func ValidateChatMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return domain.WrapValidationError("message", errors.New("message cannot be empty"))
	}
	return nil
}

// ValidatePlanRequest requires every venture field to be filled in
func ValidatePlanRequest(req domain.PlanRequest) error {
	fields := []struct {
		name, value string
	}{
		{"idea", req.Idea},
		{"capital", req.Capital},
		{"skills", req.Skills},
		{"strategy", req.Strategy},
		{"management", req.Management},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return domain.WrapValidationError(f.name, errors.New(f.name+" cannot be empty"))
		}
	}
	return nil
}
