package types

import "time"

// UserRole represents the different user roles in the portal
type UserRole string

const (
	RolePatient UserRole = "patient"
	RoleNurse   UserRole = "nurse"
	RoleDoctor  UserRole = "doctor"
	RoleAdmin   UserRole = "admin"
)

// ValidRoles lists every role the portal accepts at registration time.
var ValidRoles = []UserRole{RolePatient, RoleNurse, RoleDoctor, RoleAdmin}

// IsValid reports whether the role is one of the portal roles.
func (r UserRole) IsValid() bool {
	switch r {
	case RolePatient, RoleNurse, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// User represents a portal account
type User struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	Role         UserRole   `json:"role" db:"role"`
	PhoneNumber  string     `json:"phone_number,omitempty" db:"phone_number"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	PasswordHash string     `json:"-" db:"password_hash"`

	// IsActive stays false until the verification email is confirmed.
	IsActive   bool `json:"is_active" db:"is_active"`
	IsVerified bool `json:"is_verified" db:"is_verified"`

	MFAEnabled bool   `json:"mfa_enabled" db:"mfa_enabled"`
	MFASecret  string `json:"-" db:"mfa_secret"`

	FailedLogins int  `json:"-" db:"failed_logins"`
	IsLocked     bool `json:"is_locked" db:"is_locked"`

	DateJoined time.Time  `json:"date_joined" db:"date_joined"`
	LastLogin  *time.Time `json:"last_login,omitempty" db:"last_login"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// UserClaims represents JWT token claims
type UserClaims struct {
	UserID    string   `json:"user_id"`
	Email     string   `json:"email"`
	Role      UserRole `json:"role"`
	FullName  string   `json:"full_name,omitempty"`
	MFAPassed bool     `json:"mfa_passed,omitempty"`
}

// RegistrationRequest represents user registration data
type RegistrationRequest struct {
	Email       string   `json:"email" binding:"required,email"`
	Password    string   `json:"password" binding:"required"`
	FirstName   string   `json:"first_name" binding:"required"`
	LastName    string   `json:"last_name" binding:"required"`
	Role        UserRole `json:"role" binding:"required"`
	PhoneNumber string   `json:"phone_number,omitempty"`
	DateOfBirth string   `json:"date_of_birth,omitempty"` // YYYY-MM-DD
}

// Credentials represents login credentials
type Credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	MFAToken string `json:"mfa_token,omitempty"`
}

// AuthToken represents an issued token pair
type AuthToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// PasswordChangeRequest represents an authenticated password change
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// PasswordResetConfirm carries an emailed reset token and the new password
type PasswordResetConfirm struct {
	Token           string `json:"token" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// MFASetup is returned when MFA is enabled for an account
type MFASetup struct {
	Secret      string   `json:"secret"`
	OTPAuthURL  string   `json:"otpauth_url"`
	BackupCodes []string `json:"backup_codes"`
}

// UserSearchCriteria represents admin user listing filters
type UserSearchCriteria struct {
	Email    string   `json:"email,omitempty"`
	Role     UserRole `json:"role,omitempty"`
	IsActive *bool    `json:"is_active,omitempty"`
	Limit    int      `json:"limit,omitempty"`
	Offset   int      `json:"offset,omitempty"`
}
