package types

import "time"

// AuditAction identifies the kind of security-relevant event being recorded
type AuditAction string

const (
	AuditLogin           AuditAction = "login"
	AuditLogout          AuditAction = "logout"
	AuditFailedLogin     AuditAction = "failed_login"
	AuditPasswordChange  AuditAction = "password_change"
	AuditPasswordReset   AuditAction = "password_reset"
	AuditProfileUpdate   AuditAction = "profile_update"
	AuditRecordAccess    AuditAction = "record_access"
	AuditRecordCreated   AuditAction = "record_created"
	AuditRecordUpdated   AuditAction = "record_updated"
	AuditRecordDeleted   AuditAction = "record_deleted"
	AuditMFAEnabled      AuditAction = "mfa_enabled"
	AuditMFADisabled     AuditAction = "mfa_disabled"
	AuditRecordShared    AuditAction = "record_shared"
	AuditCertIssued      AuditAction = "certificate_issued"
	AuditCertRevoked     AuditAction = "certificate_revoked"
	AuditUserCreated     AuditAction = "user_created"
	AuditUserDeactivated AuditAction = "user_deactivated"
	AuditAccessDenied    AuditAction = "access_denied"
)

// AuditEntry represents a row in the audit log. UserID is empty for events
// that cannot be attributed, e.g. a failed login for an unknown email.
type AuditEntry struct {
	ID        string                 `json:"id" db:"id"`
	UserID    string                 `json:"user_id,omitempty" db:"user_id"`
	Action    AuditAction            `json:"action" db:"action"`
	IPAddress string                 `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent string                 `json:"user_agent,omitempty" db:"user_agent"`
	Success   bool                   `json:"success" db:"success"`
	Details   map[string]interface{} `json:"details,omitempty" db:"details"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
}

// AuditFilter represents filters for audit log queries
type AuditFilter struct {
	UserID    string      `json:"user_id,omitempty"`
	Action    AuditAction `json:"action,omitempty"`
	Success   *bool       `json:"success,omitempty"`
	StartTime time.Time   `json:"start_time,omitempty"`
	EndTime   time.Time   `json:"end_time,omitempty"`
	Limit     int         `json:"limit,omitempty"`
	Offset    int         `json:"offset,omitempty"`
}
