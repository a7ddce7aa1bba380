package accounts

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

// MinPasswordLength is the shortest password the policy accepts.
const MinPasswordLength = 8

// PasswordManager implements password hashing, verification and policy checks
type PasswordManager struct {
	cost int
}

// NewPasswordManager creates a new password manager
func NewPasswordManager() *PasswordManager {
	return &PasswordManager{
		cost: bcrypt.DefaultCost,
	}
}

// HashPassword hashes a password using bcrypt
func (pm *PasswordManager) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), pm.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// VerifyPassword verifies a password against its hash
func (pm *PasswordManager) VerifyPassword(hashedPassword, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return false, nil
		}
		return false, fmt.Errorf("failed to verify password: %w", err)
	}
	return true, nil
}

// ValidatePolicy checks a candidate password against the portal policy:
// at least 8 characters with one uppercase letter, one digit and one
// special character.
func (pm *PasswordManager) ValidatePolicy(password string) error {
	var problems []string

	if len(password) < MinPasswordLength {
		problems = append(problems, fmt.Sprintf("must be at least %d characters long", MinPasswordLength))
	}

	var hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if !hasUpper {
		problems = append(problems, "must contain an uppercase letter")
	}
	if !hasDigit {
		problems = append(problems, "must contain a digit")
	}
	if !hasSpecial {
		problems = append(problems, "must contain a special character")
	}

	if len(problems) > 0 {
		return types.NewValidationError(
			types.ErrCodeWeakPassword,
			"password does not meet the security policy",
			map[string]interface{}{"requirements": strings.Join(problems, "; ")},
		)
	}
	return nil
}

// GenerateRandomPassword generates a random password of specified length
// that always satisfies the policy.
func (pm *PasswordManager) GenerateRandomPassword(length int) (string, error) {
	if length < MinPasswordLength {
		return "", fmt.Errorf("password length must be at least %d characters", MinPasswordLength)
	}

	const (
		upper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
		digits  = "0123456789"
		special = "!@#$%^&*"
		charset = "abcdefghijklmnopqrstuvwxyz" + upper + digits + special
	)

	pick := func(set string) (byte, error) {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
		if err != nil {
			return 0, fmt.Errorf("failed to generate random character: %w", err)
		}
		return set[num.Int64()], nil
	}

	password := make([]byte, length)
	for i := range password {
		c, err := pick(charset)
		if err != nil {
			return "", err
		}
		password[i] = c
	}

	// Force one character from each required class into fixed slots so the
	// result always passes ValidatePolicy.
	for i, set := range []string{upper, digits, special} {
		c, err := pick(set)
		if err != nil {
			return "", err
		}
		password[i] = c
	}

	return string(password), nil
}
