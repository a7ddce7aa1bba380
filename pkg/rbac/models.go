package rbac

import "time"

// AccessRequest represents a request for resource access
type AccessRequest struct {
	UserID     string            `json:"user_id"`
	Role       string            `json:"role"`
	Resource   string            `json:"resource"`
	ResourceID string            `json:"resource_id,omitempty"`
	OwnerID    string            `json:"owner_id,omitempty"`
	Action     string            `json:"action"`
	Context    map[string]string `json:"context,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// AccessDecision represents the result of an access control decision
type AccessDecision struct {
	Allowed bool          `json:"allowed"`
	Reason  string        `json:"reason"`
	Scope   Scope         `json:"scope,omitempty"`
	TTL     time.Duration `json:"ttl"`
}

// Scope limits how far a permission reaches
type Scope string

const (
	// ScopeOwn restricts the action to resources the user owns.
	ScopeOwn Scope = "own"
	// ScopeShared extends ScopeOwn with resources explicitly shared with the user.
	ScopeShared Scope = "shared"
	// ScopeAny places no ownership restriction on the action.
	ScopeAny Scope = "any"
)

// Permission grants a set of actions on a resource within a scope
type Permission struct {
	Resource string   `json:"resource"`
	Actions  []string `json:"actions"`
	Scope    Scope    `json:"scope"`
}

// RolePermissions defines the permission set of a single role
type RolePermissions struct {
	Role        string                 `json:"role"`
	Permissions map[string]*Permission `json:"permissions"`
}

// Matrix is the complete role/resource/action permission matrix
type Matrix struct {
	Roles       map[string]*RolePermissions `json:"roles"`
	LastUpdated time.Time                   `json:"last_updated"`
}
