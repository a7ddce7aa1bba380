package staff

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davidmanaloto/LifeXCapstoneProject/internal/rbac"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/monitoring"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

type MockStaffRepository struct {
	mock.Mock
}

func (m *MockStaffRepository) Create(ctx context.Context, profile *types.StaffProfile) error {
	return m.Called(ctx, profile).Error(0)
}

func (m *MockStaffRepository) GetByID(ctx context.Context, id string) (*types.StaffProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.StaffProfile), args.Error(1)
}

func (m *MockStaffRepository) GetByUserID(ctx context.Context, userID string) (*types.StaffProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.StaffProfile), args.Error(1)
}

func (m *MockStaffRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	return m.Called(ctx, id, updates).Error(0)
}

func (m *MockStaffRepository) List(ctx context.Context, department string, limit, offset int) ([]*types.StaffProfile, error) {
	args := m.Called(ctx, department, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.StaffProfile), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *types.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*types.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*types.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	return m.Called(ctx, id, updates).Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, criteria *types.UserSearchCriteria) ([]*types.User, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.User), args.Error(1)
}

func (m *MockUserRepository) Deactivate(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockPasswordManager struct {
	mock.Mock
}

func (m *MockPasswordManager) HashPassword(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordManager) VerifyPassword(hashedPassword, password string) (bool, error) {
	args := m.Called(hashedPassword, password)
	return args.Bool(0), args.Error(1)
}

func (m *MockPasswordManager) ValidatePolicy(password string) error {
	return m.Called(password).Error(0)
}

func (m *MockPasswordManager) GenerateRandomPassword(length int) (string, error) {
	args := m.Called(length)
	return args.String(0), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

type MockAuditLogger struct {
	mock.Mock
}

func (m *MockAuditLogger) Append(ctx context.Context, entry *types.AuditEntry) {
	m.Called(ctx, entry)
}

func (m *MockAuditLogger) Query(ctx context.Context, filter *types.AuditFilter) ([]*types.AuditEntry, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.AuditEntry), args.Error(1)
}

func (m *MockAuditLogger) Purge(ctx context.Context, retentionDays int) (int64, error) {
	args := m.Called(ctx, retentionDays)
	return args.Get(0).(int64), args.Error(1)
}

var (
	testMetricsOnce sync.Once
	testMetrics     *monitoring.MetricsCollector
)

func testCollector() *monitoring.MetricsCollector {
	testMetricsOnce.Do(func() {
		testMetrics = monitoring.NewMetricsCollector("staff-test")
	})
	return testMetrics
}

type serviceMocks struct {
	staff     *MockStaffRepository
	users     *MockUserRepository
	passwords *MockPasswordManager
	mailer    *MockMailer
	audit     *MockAuditLogger
}

func setupTestService(t *testing.T) (*Service, *serviceMocks) {
	t.Helper()

	m := &serviceMocks{
		staff:     new(MockStaffRepository),
		users:     new(MockUserRepository),
		passwords: new(MockPasswordManager),
		mailer:    new(MockMailer),
		audit:     new(MockAuditLogger),
	}
	m.audit.On("Append", mock.Anything, mock.Anything).Maybe()

	log := logger.New("error")
	engine := rbac.NewEngine(rbac.DefaultMatrix(), log)

	svc := NewService(log, m.staff, m.users, m.passwords, m.mailer, engine, m.audit, testCollector())
	return svc, m
}

var (
	admin  = Actor{UserID: "admin-1", Role: "admin"}
	doctor = Actor{UserID: "doctor-user", Role: "doctor"}
	nurse  = Actor{UserID: "nurse-user", Role: "nurse"}
)

func validRequest() *types.CreateStaffAccountRequest {
	return &types.CreateStaffAccountRequest{
		Email:         "Jordan.Reyes@Hospital.example",
		FirstName:     "Jordan",
		LastName:      "Reyes",
		Role:          types.RoleDoctor,
		Specialty:     "Cardiology",
		LicenseNumber: "PRC-123456",
		Department:    "Internal Medicine",
	}
}

func TestService_CreateStaffAccount(t *testing.T) {
	t.Run("provisions a verified account and mails credentials", func(t *testing.T) {
		svc, m := setupTestService(t)

		m.passwords.On("GenerateRandomPassword", generatedPasswordLength).Return("Temp0rary!Pass#1", nil)
		m.passwords.On("HashPassword", "Temp0rary!Pass#1").Return("hashed", nil)
		m.users.On("Create", mock.Anything, mock.MatchedBy(func(u *types.User) bool {
			return u.Email == "jordan.reyes@hospital.example" &&
				u.Role == types.RoleDoctor &&
				u.IsActive && u.IsVerified &&
				u.PasswordHash == "hashed"
		})).Return(nil)
		m.staff.On("Create", mock.Anything, mock.MatchedBy(func(p *types.StaffProfile) bool {
			return p.LicenseNumber == "PRC-123456" && p.IsActive
		})).Return(nil)
		m.mailer.On("Send", mock.Anything, "jordan.reyes@hospital.example", mock.Anything,
			mock.MatchedBy(func(body string) bool {
				return strings.Contains(body, "Temp0rary!Pass#1")
			})).Return(nil)

		profile, err := svc.CreateStaffAccount(context.Background(), admin, validRequest())
		require.NoError(t, err)
		assert.Equal(t, "Internal Medicine", profile.Department)
		m.users.AssertExpectations(t)
		m.staff.AssertExpectations(t)
		m.mailer.AssertExpectations(t)
	})

	t.Run("only admins may provision", func(t *testing.T) {
		svc, m := setupTestService(t)

		_, err := svc.CreateStaffAccount(context.Background(), doctor, validRequest())
		assertForbidden(t, err)
		m.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects non-clinical roles", func(t *testing.T) {
		svc, _ := setupTestService(t)

		req := validRequest()
		req.Role = types.RoleAdmin
		_, err := svc.CreateStaffAccount(context.Background(), admin, req)

		require.Error(t, err)
		assert.Equal(t, types.ErrCodeInvalidInput, asPortalError(t, err).Code)
	})

	t.Run("deactivates the account when the profile conflicts", func(t *testing.T) {
		svc, m := setupTestService(t)

		m.passwords.On("GenerateRandomPassword", mock.Anything).Return("Temp0rary!Pass#1", nil)
		m.passwords.On("HashPassword", mock.Anything).Return("hashed", nil)
		m.users.On("Create", mock.Anything, mock.Anything).Return(nil)
		m.staff.On("Create", mock.Anything, mock.Anything).
			Return(types.NewConflictError(types.ErrCodeLicenseExists, "duplicate license"))
		m.users.On("Deactivate", mock.Anything, mock.Anything).Return(nil)

		_, err := svc.CreateStaffAccount(context.Background(), admin, validRequest())
		require.Error(t, err)
		assert.Equal(t, types.ErrCodeLicenseExists, asPortalError(t, err).Code)
		m.users.AssertCalled(t, "Deactivate", mock.Anything, mock.Anything)
	})
}

func TestService_UpdateProfile(t *testing.T) {
	profile := &types.StaffProfile{
		ID:         "staff-1",
		UserID:     "doctor-user",
		Specialty:  "Cardiology",
		Department: "Internal Medicine",
		IsActive:   true,
	}

	t.Run("staff update their own specialty", func(t *testing.T) {
		svc, m := setupTestService(t)

		m.staff.On("GetByID", mock.Anything, "staff-1").Return(profile, nil)
		m.staff.On("Update", mock.Anything, "staff-1", map[string]interface{}{
			"specialty": "Interventional Cardiology",
		}).Return(nil)

		_, err := svc.UpdateProfile(context.Background(), doctor, "staff-1", &types.StaffUpdates{
			Specialty: "Interventional Cardiology",
		})
		require.NoError(t, err)
		m.staff.AssertExpectations(t)
	})

	t.Run("staff cannot deactivate themselves", func(t *testing.T) {
		svc, m := setupTestService(t)

		inactive := false
		m.staff.On("GetByID", mock.Anything, "staff-1").Return(profile, nil)

		_, err := svc.UpdateProfile(context.Background(), doctor, "staff-1", &types.StaffUpdates{
			IsActive: &inactive,
		})
		assertForbidden(t, err)
		m.staff.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("admins may deactivate", func(t *testing.T) {
		svc, m := setupTestService(t)

		inactive := false
		m.staff.On("GetByID", mock.Anything, "staff-1").Return(profile, nil)
		m.staff.On("Update", mock.Anything, "staff-1", map[string]interface{}{
			"is_active": false,
		}).Return(nil)

		_, err := svc.UpdateProfile(context.Background(), admin, "staff-1", &types.StaffUpdates{
			IsActive: &inactive,
		})
		require.NoError(t, err)
	})

	t.Run("staff cannot edit another profile", func(t *testing.T) {
		svc, m := setupTestService(t)

		m.staff.On("GetByID", mock.Anything, "staff-1").Return(profile, nil)

		_, err := svc.UpdateProfile(context.Background(), nurse, "staff-1", &types.StaffUpdates{
			Specialty: "Oncology",
		})
		assertForbidden(t, err)
	})
}

func TestService_ListStaff(t *testing.T) {
	t.Run("admins list by department", func(t *testing.T) {
		svc, m := setupTestService(t)

		m.staff.On("List", mock.Anything, "Internal Medicine", 20, 0).
			Return([]*types.StaffProfile{{ID: "staff-1"}}, nil)

		profiles, err := svc.ListStaff(context.Background(), admin, "Internal Medicine", 20, 0)
		require.NoError(t, err)
		assert.Len(t, profiles, 1)
	})

	t.Run("clinical staff may not list", func(t *testing.T) {
		svc, _ := setupTestService(t)

		_, err := svc.ListStaff(context.Background(), nurse, "", 20, 0)
		assertForbidden(t, err)
	})
}

func assertForbidden(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeForbidden, asPortalError(t, err).Code)
}

func asPortalError(t *testing.T, err error) *types.PortalError {
	t.Helper()
	var portalErr *types.PortalError
	require.True(t, errors.As(err, &portalErr))
	return portalErr
}
