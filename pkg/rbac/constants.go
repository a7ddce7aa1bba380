package rbac

// Resource identifiers used across the permission matrix
const (
	ResourceUserAccount    = "user_account"
	ResourcePatientProfile = "patient_profile"
	ResourceMedicalRecord  = "medical_record"
	ResourceCertificate    = "certificate"
	ResourceStaffProfile   = "staff_profile"
	ResourceAuditLog       = "audit_log"
)

// Actions that can be performed on resources
const (
	ActionRead   = "read"
	ActionList   = "list"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionShare  = "share"
	ActionIssue  = "issue"
	ActionRevoke = "revoke"
)

// DefaultDecisionTTL bounds how long an allow decision may be cached.
const DefaultDecisionTTL = 5 // minutes
