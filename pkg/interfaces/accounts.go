package interfaces

import (
	"context"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

// UserRepository defines user persistence operations
type UserRepository interface {
	Create(ctx context.Context, user *types.User) error
	GetByID(ctx context.Context, id string) (*types.User, error)
	GetByEmail(ctx context.Context, email string) (*types.User, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	List(ctx context.Context, criteria *types.UserSearchCriteria) ([]*types.User, error)
	Deactivate(ctx context.Context, id string) error
}

// PasswordManager defines password hashing and policy enforcement
type PasswordManager interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hashedPassword, password string) (bool, error)
	ValidatePolicy(password string) error
	GenerateRandomPassword(length int) (string, error)
}

// MFAProvider defines multi-factor authentication operations
type MFAProvider interface {
	GenerateSecret() (string, error)
	OTPAuthURL(account, secret string) string
	VerifyCode(secret, code string) bool
	BackupCodes(n int) ([]string, error)
}

// Mailer sends transactional mail for account flows
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// TokenSigner issues and validates single-purpose account tokens
// (email verification, password reset).
type TokenSigner interface {
	Sign(purpose, userID string) string
	Verify(purpose, token string) (string, error)
}
