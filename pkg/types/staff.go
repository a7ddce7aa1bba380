package types

import "time"

// StaffProfile represents the employment profile of a nurse or doctor
type StaffProfile struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`

	Specialty     string `json:"specialty" db:"specialty"`
	LicenseNumber string `json:"license_number" db:"license_number"`
	Department    string `json:"department" db:"department"`

	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CreateStaffRequest is the payload for registering a staff profile
type CreateStaffRequest struct {
	UserID        string `json:"user_id" binding:"required"`
	Specialty     string `json:"specialty" binding:"required"`
	LicenseNumber string `json:"license_number" binding:"required"`
	Department    string `json:"department" binding:"required"`
}

// CreateStaffAccountRequest is the payload for provisioning a staff member:
// a user account with a generated password plus the employment profile.
type CreateStaffAccountRequest struct {
	Email         string   `json:"email" binding:"required,email"`
	FirstName     string   `json:"first_name" binding:"required"`
	LastName      string   `json:"last_name" binding:"required"`
	Role          UserRole `json:"role" binding:"required"`
	PhoneNumber   string   `json:"phone_number,omitempty"`
	Specialty     string   `json:"specialty" binding:"required"`
	LicenseNumber string   `json:"license_number" binding:"required"`
	Department    string   `json:"department" binding:"required"`
}

// StaffUpdates represents mutable staff profile fields
type StaffUpdates struct {
	Specialty  string `json:"specialty,omitempty"`
	Department string `json:"department,omitempty"`
	IsActive   *bool  `json:"is_active,omitempty"`
}
