package staff

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/interfaces"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/monitoring"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/rbac"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

const generatedPasswordLength = 16

// Actor identifies the authenticated caller of a service operation
type Actor struct {
	UserID string
	Role   string
}

// AccessEvaluator decides whether an actor may perform an action
type AccessEvaluator interface {
	Evaluate(ctx context.Context, req *rbac.AccessRequest) (*rbac.AccessDecision, error)
}

// Service implements staff account provisioning and profile management
type Service struct {
	logger    *logger.Logger
	staffRepo interfaces.StaffRepository
	userRepo  interfaces.UserRepository
	passwords interfaces.PasswordManager
	mailer    interfaces.Mailer
	access    AccessEvaluator
	audit     interfaces.AuditLogger
	metrics   *monitoring.MetricsCollector
}

// NewService creates a new staff service
func NewService(
	log *logger.Logger,
	staffRepo interfaces.StaffRepository,
	userRepo interfaces.UserRepository,
	passwords interfaces.PasswordManager,
	mailer interfaces.Mailer,
	access AccessEvaluator,
	audit interfaces.AuditLogger,
	metrics *monitoring.MetricsCollector,
) *Service {
	return &Service{
		logger:    log,
		staffRepo: staffRepo,
		userRepo:  userRepo,
		passwords: passwords,
		mailer:    mailer,
		access:    access,
		audit:     audit,
		metrics:   metrics,
	}
}

// CreateStaffAccount provisions a nurse or doctor: a verified user account
// with a generated password, plus the employment profile. The credentials
// are mailed to the new staff member.
func (s *Service) CreateStaffAccount(ctx context.Context, actor Actor, req *types.CreateStaffAccountRequest) (*types.StaffProfile, error) {
	if _, err := s.authorize(ctx, actor, rbac.ResourceUserAccount, rbac.ActionCreate, ""); err != nil {
		return nil, err
	}

	if req.Role != types.RoleNurse && req.Role != types.RoleDoctor {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput,
			"Staff accounts must have the nurse or doctor role", nil)
	}

	password, err := s.passwords.GenerateRandomPassword(generatedPasswordLength)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "Failed to generate password", err)
	}
	hash, err := s.passwords.HashPassword(password)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "Failed to hash password", err)
	}

	now := time.Now()
	user := &types.User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: hash,
		// Staff accounts are provisioned by an administrator; no email
		// verification round-trip.
		IsActive:   true,
		IsVerified: true,
		DateJoined: now,
		UpdatedAt:  now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	profile := &types.StaffProfile{
		ID:            uuid.New().String(),
		UserID:        user.ID,
		Specialty:     req.Specialty,
		LicenseNumber: req.LicenseNumber,
		Department:    req.Department,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.staffRepo.Create(ctx, profile); err != nil {
		// Don't leave a usable account behind without its profile.
		if dErr := s.userRepo.Deactivate(ctx, user.ID); dErr != nil {
			s.logger.WithError(dErr).Error("Failed to deactivate orphaned staff account")
		}
		return nil, err
	}

	body := fmt.Sprintf(
		"Hello %s,\n\nYour staff account has been created.\n\nEmail: %s\nTemporary password: %s\n\nPlease sign in and change this password immediately.\n",
		user.FirstName, user.Email, password)
	if err := s.mailer.Send(ctx, user.Email, "Your staff account", body); err != nil {
		s.logger.WithError(err).Error("Failed to send staff credentials mail")
	}

	s.auditEvent(ctx, &types.AuditEntry{
		UserID:  actor.UserID,
		Action:  types.AuditUserCreated,
		Success: true,
		Details: map[string]interface{}{
			"created_user": user.ID,
			"role":         string(user.Role),
			"department":   profile.Department,
		},
	})

	return profile, nil
}

// GetMyProfile returns the caller's own staff profile
func (s *Service) GetMyProfile(ctx context.Context, actor Actor) (*types.StaffProfile, error) {
	return s.staffRepo.GetByUserID(ctx, actor.UserID)
}

// GetProfile returns a staff profile by ID
func (s *Service) GetProfile(ctx context.Context, actor Actor, id string) (*types.StaffProfile, error) {
	profile, err := s.staffRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.authorize(ctx, actor, rbac.ResourceStaffProfile, rbac.ActionRead, profile.UserID); err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdateProfile updates a staff profile. Activation changes are reserved
// for administrators.
func (s *Service) UpdateProfile(ctx context.Context, actor Actor, id string, req *types.StaffUpdates) (*types.StaffProfile, error) {
	profile, err := s.staffRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	decision, err := s.authorize(ctx, actor, rbac.ResourceStaffProfile, rbac.ActionUpdate, profile.UserID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Specialty != "" {
		updates["specialty"] = req.Specialty
	}
	if req.Department != "" {
		updates["department"] = req.Department
	}
	if req.IsActive != nil {
		if decision.Scope != rbac.ScopeAny {
			return nil, types.NewAuthorizationError(types.ErrCodeForbidden, "Access denied")
		}
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "No fields to update", nil)
	}

	if err := s.staffRepo.Update(ctx, id, updates); err != nil {
		return nil, err
	}

	s.auditEvent(ctx, &types.AuditEntry{
		UserID:  actor.UserID,
		Action:  types.AuditProfileUpdate,
		Success: true,
		Details: map[string]interface{}{"staff_id": id},
	})

	return s.staffRepo.GetByID(ctx, id)
}

// ListStaff returns staff profiles, optionally filtered by department
func (s *Service) ListStaff(ctx context.Context, actor Actor, department string, limit, offset int) ([]*types.StaffProfile, error) {
	if _, err := s.authorize(ctx, actor, rbac.ResourceStaffProfile, rbac.ActionList, ""); err != nil {
		return nil, err
	}
	return s.staffRepo.List(ctx, department, limit, offset)
}

func (s *Service) authorize(ctx context.Context, actor Actor, resource, action, ownerID string) (*rbac.AccessDecision, error) {
	decision, err := s.access.Evaluate(ctx, &rbac.AccessRequest{
		UserID:    actor.UserID,
		Role:      actor.Role,
		Resource:  resource,
		Action:    action,
		OwnerID:   ownerID,
		Timestamp: time.Now(),
	})
	if err != nil {
		return nil, types.NewAuthorizationError(types.ErrCodeForbidden, "Access denied")
	}
	if !decision.Allowed {
		s.auditEvent(ctx, &types.AuditEntry{
			UserID:  actor.UserID,
			Action:  types.AuditAccessDenied,
			Success: false,
			Details: map[string]interface{}{
				"resource": resource,
				"action":   action,
				"reason":   decision.Reason,
			},
		})
		return nil, types.NewAuthorizationError(types.ErrCodeForbidden, "Access denied")
	}
	return decision, nil
}

func (s *Service) auditEvent(ctx context.Context, entry *types.AuditEntry) {
	entry.ID = uuid.New().String()
	entry.Timestamp = time.Now()
	s.audit.Append(ctx, entry)
	s.metrics.RecordAuditEvent(string(entry.Action), entry.Success)
}
