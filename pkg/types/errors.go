package types

import "fmt"

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeAuthentication ErrorType = "authentication"
	ErrorTypeAuthorization  ErrorType = "authorization"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeConflict       ErrorType = "conflict"
	ErrorTypeRateLimit      ErrorType = "rate_limit"
	ErrorTypeInternal       ErrorType = "internal"
)

// PortalError represents a structured error in the portal
type PortalError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *PortalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *PortalError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(code, message string, details map[string]interface{}) *PortalError {
	return &PortalError{Type: ErrorTypeValidation, Code: code, Message: message, Details: details}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(code, message string) *PortalError {
	return &PortalError{Type: ErrorTypeAuthentication, Code: code, Message: message}
}

// NewAuthorizationError creates a new authorization error
func NewAuthorizationError(code, message string) *PortalError {
	return &PortalError{Type: ErrorTypeAuthorization, Code: code, Message: message}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(code, message string) *PortalError {
	return &PortalError{Type: ErrorTypeNotFound, Code: code, Message: message}
}

// NewConflictError creates a new conflict error
func NewConflictError(code, message string) *PortalError {
	return &PortalError{Type: ErrorTypeConflict, Code: code, Message: message}
}

// NewRateLimitError creates a new rate limit error
func NewRateLimitError(code, message string) *PortalError {
	return &PortalError{Type: ErrorTypeRateLimit, Code: code, Message: message}
}

// NewInternalError creates a new internal error
func NewInternalError(code, message string, cause error) *PortalError {
	return &PortalError{Type: ErrorTypeInternal, Code: code, Message: message, Cause: cause}
}

// Common error codes
const (
	ErrCodeInvalidInput         = "INVALID_INPUT"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeAccountLocked        = "ACCOUNT_LOCKED"
	ErrCodeAccountNotVerified   = "ACCOUNT_NOT_VERIFIED"
	ErrCodeAccountInactive      = "ACCOUNT_INACTIVE"
	ErrCodeInvalidMFA           = "INVALID_MFA"
	ErrCodeInvalidToken         = "INVALID_TOKEN"
	ErrCodeTokenExpired         = "TOKEN_EXPIRED"
	ErrCodeEmailExists          = "EMAIL_EXISTS"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodePatientNotFound      = "PATIENT_NOT_FOUND"
	ErrCodeRecordNotFound       = "RECORD_NOT_FOUND"
	ErrCodeCertificateNotFound  = "CERTIFICATE_NOT_FOUND"
	ErrCodeStaffNotFound        = "STAFF_NOT_FOUND"
	ErrCodeLicenseExists        = "LICENSE_EXISTS"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeRateLimitExceeded    = "RATE_LIMIT_EXCEEDED"
	ErrCodeWeakPassword         = "WEAK_PASSWORD"
	ErrCodePasswordMismatch     = "PASSWORD_MISMATCH"
	ErrCodeRecordChainViolation = "RECORD_CHAIN_VIOLATION"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)
