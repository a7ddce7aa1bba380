package rbac

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/rbac"
)

const (
	allowCacheTTL = time.Duration(rbac.DefaultDecisionTTL) * time.Minute
	denyCacheTTL  = time.Minute
)

// Engine evaluates access requests against the permission matrix.
// Decisions are cached per (role, resource, action, relation) with a TTL.
type Engine struct {
	logger *logger.Logger
	matrix *rbac.Matrix

	cacheMutex    sync.RWMutex
	decisionCache map[string]*cachedDecision
}

type cachedDecision struct {
	decision  *rbac.AccessDecision
	expiresAt time.Time
}

// NewEngine creates an engine over the given matrix
func NewEngine(matrix *rbac.Matrix, log *logger.Logger) *Engine {
	return &Engine{
		logger:        log,
		matrix:        matrix,
		decisionCache: make(map[string]*cachedDecision),
	}
}

// Evaluate decides whether the request is allowed. A nil error with a
// denying decision is the normal "no" answer; errors are reserved for
// malformed requests.
func (e *Engine) Evaluate(ctx context.Context, req *rbac.AccessRequest) (*rbac.AccessDecision, error) {
	rolePerms, ok := e.matrix.Roles[req.Role]
	if !ok {
		return nil, fmt.Errorf("%w: %s", rbac.ErrUnknownRole, req.Role)
	}

	cacheKey := e.decisionCacheKey(req)
	decision := e.getCachedDecision(cacheKey)
	if decision == nil {
		decision = e.evaluate(rolePerms, req)
		e.cacheDecision(cacheKey, decision)
	}

	// Denials are logged on every evaluation, cached or not, so repeated
	// attempts within the deny TTL still leave a security trail.
	if !decision.Allowed {
		e.logger.Security("access_denied", req.UserID, map[string]interface{}{
			"role":     req.Role,
			"resource": req.Resource,
			"action":   req.Action,
			"reason":   decision.Reason,
		})
	}

	return decision, nil
}

func (e *Engine) evaluate(rolePerms *rbac.RolePermissions, req *rbac.AccessRequest) *rbac.AccessDecision {
	for _, perm := range rolePerms.Permissions {
		if perm.Resource != req.Resource {
			continue
		}
		if !containsAction(perm.Actions, req.Action) {
			continue
		}
		if allowed, reason := e.scopeAllows(perm.Scope, req); !allowed {
			return &rbac.AccessDecision{
				Allowed: false,
				Reason:  reason,
				Scope:   perm.Scope,
				TTL:     denyCacheTTL,
			}
		}
		return &rbac.AccessDecision{
			Allowed: true,
			Reason:  fmt.Sprintf("%s may %s %s within scope %s", rolePerms.Role, req.Action, req.Resource, perm.Scope),
			Scope:   perm.Scope,
			TTL:     allowCacheTTL,
		}
	}

	return &rbac.AccessDecision{
		Allowed: false,
		Reason:  "no permission grants this action",
		TTL:     denyCacheTTL,
	}
}

// scopeAllows enforces ownership scopes. ScopeShared is ownership plus an
// explicit share, which callers signal through Context["shared"].
func (e *Engine) scopeAllows(scope rbac.Scope, req *rbac.AccessRequest) (bool, string) {
	switch scope {
	case rbac.ScopeAny:
		return true, ""
	case rbac.ScopeOwn:
		if req.OwnerID != "" && req.OwnerID == req.UserID {
			return true, ""
		}
		return false, "action is limited to the user's own resources"
	case rbac.ScopeShared:
		if req.OwnerID != "" && req.OwnerID == req.UserID {
			return true, ""
		}
		if req.Context["shared"] == "true" {
			return true, ""
		}
		return false, "resource is neither owned by nor shared with the user"
	default:
		return false, fmt.Sprintf("unknown scope %q", scope)
	}
}

// Matrix returns the active permission matrix
func (e *Engine) Matrix() *rbac.Matrix {
	return e.matrix
}

// InvalidateCache drops all cached decisions, e.g. after a matrix change
func (e *Engine) InvalidateCache() {
	e.cacheMutex.Lock()
	defer e.cacheMutex.Unlock()
	e.decisionCache = make(map[string]*cachedDecision)
}

func (e *Engine) decisionCacheKey(req *rbac.AccessRequest) string {
	relation := "other"
	if req.OwnerID != "" && req.OwnerID == req.UserID {
		relation = "owner"
	} else if req.Context["shared"] == "true" {
		relation = "shared"
	}
	return fmt.Sprintf("%s|%s|%s|%s", req.Role, req.Resource, req.Action, relation)
}

func (e *Engine) getCachedDecision(key string) *rbac.AccessDecision {
	e.cacheMutex.RLock()
	cached, ok := e.decisionCache[key]
	e.cacheMutex.RUnlock()

	if !ok {
		return nil
	}
	if time.Now().After(cached.expiresAt) {
		e.cacheMutex.Lock()
		delete(e.decisionCache, key)
		e.cacheMutex.Unlock()
		return nil
	}
	return cached.decision
}

func (e *Engine) cacheDecision(key string, decision *rbac.AccessDecision) {
	e.cacheMutex.Lock()
	defer e.cacheMutex.Unlock()
	e.decisionCache[key] = &cachedDecision{
		decision:  decision,
		expiresAt: time.Now().Add(decision.TTL),
	}
}

func containsAction(actions []string, action string) bool {
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}
