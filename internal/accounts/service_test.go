package accounts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/config"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/monitoring"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

// Mock implementations for testing

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *types.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
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
	args := m.Called(ctx, id, updates)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, criteria *types.UserSearchCriteria) ([]*types.User, error) {
	args := m.Called(ctx, criteria)
	return args.Get(0).([]*types.User), args.Error(1)
}

func (m *MockUserRepository) Deactivate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
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
	args := m.Called(password)
	return args.Error(0)
}

func (m *MockPasswordManager) GenerateRandomPassword(length int) (string, error) {
	args := m.Called(length)
	return args.String(0), args.Error(1)
}

type MockMFAProvider struct {
	mock.Mock
}

func (m *MockMFAProvider) GenerateSecret() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockMFAProvider) OTPAuthURL(account, secret string) string {
	args := m.Called(account, secret)
	return args.String(0)
}

func (m *MockMFAProvider) VerifyCode(secret, code string) bool {
	args := m.Called(secret, code)
	return args.Bool(0)
}

func (m *MockMFAProvider) BackupCodes(n int) ([]string, error) {
	args := m.Called(n)
	return args.Get(0).([]string), args.Error(1)
}

type MockTokenSigner struct {
	mock.Mock
}

func (m *MockTokenSigner) Sign(purpose, userID string) string {
	args := m.Called(purpose, userID)
	return args.String(0)
}

func (m *MockTokenSigner) Verify(purpose, token string) (string, error) {
	args := m.Called(purpose, token)
	return args.String(0), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

type MockAuditLogger struct {
	mock.Mock
}

func (m *MockAuditLogger) Append(ctx context.Context, entry *types.AuditEntry) {
	m.Called(ctx, entry)
}

func (m *MockAuditLogger) Query(ctx context.Context, filter *types.AuditFilter) ([]*types.AuditEntry, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*types.AuditEntry), args.Error(1)
}

func (m *MockAuditLogger) Purge(ctx context.Context, retentionDays int) (int64, error) {
	args := m.Called(ctx, retentionDays)
	return args.Get(0).(int64), args.Error(1)
}

// Prometheus collectors register globally, so tests share one instance.
var (
	testMetricsOnce sync.Once
	testMetrics     *monitoring.MetricsCollector
)

func testCollector() *monitoring.MetricsCollector {
	testMetricsOnce.Do(func() {
		testMetrics = monitoring.NewMetricsCollector("accounts-test")
	})
	return testMetrics
}

type serviceMocks struct {
	userRepo        *MockUserRepository
	passwordManager *MockPasswordManager
	mfaProvider     *MockMFAProvider
	tokenSigner     *MockTokenSigner
	mailer          *MockMailer
	audit           *MockAuditLogger
}

func setupTestService() (*Service, *serviceMocks) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			BaseURL: "http://localhost:8080",
		},
		JWT: config.JWTConfig{
			SecretKey:       "test-secret-key",
			AccessTokenTTL:  3600,
			RefreshTokenTTL: 86400,
			Issuer:          "test-issuer",
		},
	}

	mocks := &serviceMocks{
		userRepo:        &MockUserRepository{},
		passwordManager: &MockPasswordManager{},
		mfaProvider:     &MockMFAProvider{},
		tokenSigner:     &MockTokenSigner{},
		mailer:          &MockMailer{},
		audit:           &MockAuditLogger{},
	}

	service := NewService(
		cfg,
		logger.New("debug"),
		mocks.userRepo,
		mocks.passwordManager,
		mocks.mfaProvider,
		mocks.tokenSigner,
		mocks.mailer,
		mocks.audit,
		testCollector(),
	)

	return service, mocks
}

func verifiedUser() *types.User {
	return &types.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		FirstName:    "Alice",
		LastName:     "Reyes",
		Role:         types.RolePatient,
		PasswordHash: "hashed",
		IsActive:     true,
		IsVerified:   true,
		DateJoined:   time.Now(),
		UpdatedAt:    time.Now(),
	}
}

func TestService_Register(t *testing.T) {
	t.Run("successful registration sends verification mail", func(t *testing.T) {
		service, mocks := setupTestService()

		req := &types.RegistrationRequest{
			Email:     "Alice@Example.com",
			Password:  "Str0ng!pass",
			FirstName: "Alice",
			LastName:  "Reyes",
			Role:      types.RolePatient,
		}

		mocks.passwordManager.On("ValidatePolicy", "Str0ng!pass").Return(nil)
		mocks.passwordManager.On("HashPassword", "Str0ng!pass").Return("hashed", nil)
		mocks.userRepo.On("Create", mock.Anything, mock.AnythingOfType("*types.User")).Return(nil)
		mocks.tokenSigner.On("Sign", TokenPurposeVerifyEmail, mock.AnythingOfType("string")).Return("verify-token")
		mocks.mailer.On("Send", mock.Anything, "alice@example.com", mock.Anything, mock.Anything).Return(nil)
		mocks.audit.On("Append", mock.Anything, mock.AnythingOfType("*types.AuditEntry")).Return()

		user, err := service.Register(context.Background(), req, ClientInfo{IPAddress: "10.0.0.1"})

		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.False(t, user.IsActive)
		assert.False(t, user.IsVerified)
		mocks.mailer.AssertExpectations(t)
	})

	t.Run("weak password rejected", func(t *testing.T) {
		service, mocks := setupTestService()

		policyErr := types.NewValidationError(types.ErrCodeWeakPassword, "too weak", nil)
		mocks.passwordManager.On("ValidatePolicy", "weak").Return(policyErr)

		_, err := service.Register(context.Background(), &types.RegistrationRequest{
			Email:     "bob@example.com",
			Password:  "weak",
			FirstName: "Bob",
			LastName:  "Cruz",
			Role:      types.RolePatient,
		}, ClientInfo{})

		assert.ErrorIs(t, err, policyErr)
		mocks.userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("invalid role rejected", func(t *testing.T) {
		service, _ := setupTestService()

		_, err := service.Register(context.Background(), &types.RegistrationRequest{
			Email:     "bob@example.com",
			Password:  "Str0ng!pass",
			FirstName: "Bob",
			LastName:  "Cruz",
			Role:      "superuser",
		}, ClientInfo{})

		var portalErr *types.PortalError
		require.True(t, errors.As(err, &portalErr))
		assert.Equal(t, types.ErrorTypeValidation, portalErr.Type)
	})
}

func TestService_Login(t *testing.T) {
	t.Run("successful login resets failure counter", func(t *testing.T) {
		service, mocks := setupTestService()
		user := verifiedUser()
		user.FailedLogins = 2

		mocks.userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)
		mocks.passwordManager.On("VerifyPassword", "hashed", "Str0ng!pass").Return(true, nil)
		mocks.userRepo.On("Update", mock.Anything, "user-1", mock.MatchedBy(func(u map[string]interface{}) bool {
			return u["failed_logins"] == 0
		})).Return(nil)
		mocks.audit.On("Append", mock.Anything, mock.AnythingOfType("*types.AuditEntry")).Return()

		token, loggedIn, err := service.Login(context.Background(), &types.Credentials{
			Email:    "alice@example.com",
			Password: "Str0ng!pass",
		}, ClientInfo{IPAddress: "10.0.0.1"})

		require.NoError(t, err)
		assert.NotEmpty(t, token.AccessToken)
		assert.NotEmpty(t, token.RefreshToken)
		assert.Equal(t, "Bearer", token.TokenType)
		assert.Equal(t, "user-1", loggedIn.ID)
	})

	t.Run("unknown email yields generic error", func(t *testing.T) {
		service, mocks := setupTestService()

		notFound := types.NewNotFoundError(types.ErrCodeUserNotFound, "User not found")
		mocks.userRepo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, notFound)
		mocks.audit.On("Append", mock.Anything, mock.AnythingOfType("*types.AuditEntry")).Return()

		_, _, err := service.Login(context.Background(), &types.Credentials{
			Email:    "ghost@example.com",
			Password: "whatever",
		}, ClientInfo{})

		var portalErr *types.PortalError
		require.True(t, errors.As(err, &portalErr))
		assert.Equal(t, types.ErrCodeInvalidCredentials, portalErr.Code)
	})

	t.Run("third failed attempt locks the account", func(t *testing.T) {
		service, mocks := setupTestService()
		user := verifiedUser()
		user.FailedLogins = MaxFailedLogins - 1

		mocks.userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)
		mocks.passwordManager.On("VerifyPassword", "hashed", "wrong").Return(false, nil)
		mocks.userRepo.On("Update", mock.Anything, "user-1", mock.MatchedBy(func(u map[string]interface{}) bool {
			return u["failed_logins"] == MaxFailedLogins && u["is_locked"] == true
		})).Return(nil)
		mocks.audit.On("Append", mock.Anything, mock.AnythingOfType("*types.AuditEntry")).Return()

		_, _, err := service.Login(context.Background(), &types.Credentials{
			Email:    "alice@example.com",
			Password: "wrong",
		}, ClientInfo{})

		var portalErr *types.PortalError
		require.True(t, errors.As(err, &portalErr))
		assert.Equal(t, types.ErrCodeAccountLocked, portalErr.Code)
		mocks.userRepo.AssertExpectations(t)
	})

	t.Run("earlier failed attempt only increments the counter", func(t *testing.T) {
		service, mocks := setupTestService()
		user := verifiedUser()

		mocks.userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)
		mocks.passwordManager.On("VerifyPassword", "hashed", "wrong").Return(false, nil)
		mocks.userRepo.On("Update", mock.Anything, "user-1", mock.MatchedBy(func(u map[string]interface{}) bool {
			_, locked := u["is_locked"]
			return u["failed_logins"] == 1 && !locked
		})).Return(nil)
		mocks.audit.On("Append", mock.Anything, mock.AnythingOfType("*types.AuditEntry")).Return()

		_, _, err := service.Login(context.Background(), &types.Credentials{
			Email:    "alice@example.com",
			Password: "wrong",
		}, ClientInfo{})

		var portalErr *types.PortalError
		require.True(t, errors.As(err, &portalErr))
		assert.Equal(t, types.ErrCodeInvalidCredentials, portalErr.Code)
	})

	t.Run("locked account rejected before password check", func(t *testing.T) {
		service, mocks := setupTestService()
		user := verifiedUser()
		user.IsLocked = true

		mocks.userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)
		mocks.audit.On("Append", mock.Anything, mock.AnythingOfType("*types.AuditEntry")).Return()

		_, _, err := service.Login(context.Background(), &types.Credentials{
			Email:    "alice@example.com",
			Password: "Str0ng!pass",
		}, ClientInfo{})

		var portalErr *types.PortalError
		require.True(t, errors.As(err, &portalErr))
		assert.Equal(t, types.ErrCodeAccountLocked, portalErr.Code)
		mocks.passwordManager.AssertNotCalled(t, "VerifyPassword", mock.Anything, mock.Anything)
	})

	t.Run("unverified account rejected", func(t *testing.T) {
		service, mocks := setupTestService()
		user := verifiedUser()
		user.IsVerified = false
		user.IsActive = false

		mocks.userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)

		_, _, err := service.Login(context.Background(), &types.Credentials{
			Email:    "alice@example.com",
			Password: "Str0ng!pass",
		}, ClientInfo{})

		var portalErr *types.PortalError
		require.True(t, errors.As(err, &portalErr))
		assert.Equal(t, types.ErrCodeAccountNotVerified, portalErr.Code)
	})

	t.Run("MFA-enabled account requires a valid code", func(t *testing.T) {
		service, mocks := setupTestService()
		user := verifiedUser()
		user.MFAEnabled = true
		user.MFASecret = "secret"

		mocks.userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)
		mocks.passwordManager.On("VerifyPassword", "hashed", "Str0ng!pass").Return(true, nil)
		mocks.mfaProvider.On("VerifyCode", "secret", "111111").Return(false)
		mocks.audit.On("Append", mock.Anything, mock.AnythingOfType("*types.AuditEntry")).Return()

		_, _, err := service.Login(context.Background(), &types.Credentials{
			Email:    "alice@example.com",
			Password: "Str0ng!pass",
			MFAToken: "111111",
		}, ClientInfo{})

		var portalErr *types.PortalError
		require.True(t, errors.As(err, &portalErr))
		assert.Equal(t, types.ErrCodeInvalidMFA, portalErr.Code)
	})
}

func TestService_RefreshToken(t *testing.T) {
	t.Run("refresh token round trip", func(t *testing.T) {
		service, mocks := setupTestService()
		user := verifiedUser()

		refreshToken, err := service.generateRefreshToken(user)
		require.NoError(t, err)

		mocks.userRepo.On("GetByID", mock.Anything, "user-1").Return(user, nil)

		token, err := service.RefreshToken(context.Background(), refreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, token.AccessToken)
		assert.Empty(t, token.RefreshToken)
	})

	t.Run("access token rejected as refresh token", func(t *testing.T) {
		service, _ := setupTestService()
		user := verifiedUser()

		accessToken, err := service.generateAccessToken(user)
		require.NoError(t, err)

		_, err = service.RefreshToken(context.Background(), accessToken)
		var portalErr *types.PortalError
		require.True(t, errors.As(err, &portalErr))
		assert.Equal(t, types.ErrCodeInvalidToken, portalErr.Code)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		service, _ := setupTestService()

		_, err := service.RefreshToken(context.Background(), "not-a-jwt")
		assert.Error(t, err)
	})
}

func TestService_ChangePassword(t *testing.T) {
	t.Run("wrong current password", func(t *testing.T) {
		service, mocks := setupTestService()
		user := verifiedUser()

		mocks.userRepo.On("GetByID", mock.Anything, "user-1").Return(user, nil)
		mocks.passwordManager.On("VerifyPassword", "hashed", "wrong").Return(false, nil)
		mocks.audit.On("Append", mock.Anything, mock.AnythingOfType("*types.AuditEntry")).Return()

		err := service.ChangePassword(context.Background(), "user-1", &types.PasswordChangeRequest{
			CurrentPassword: "wrong",
			NewPassword:     "N3w!passw",
			ConfirmPassword: "N3w!passw",
		}, ClientInfo{})

		var portalErr *types.PortalError
		require.True(t, errors.As(err, &portalErr))
		assert.Equal(t, types.ErrCodeInvalidCredentials, portalErr.Code)
	})

	t.Run("confirmation mismatch", func(t *testing.T) {
		service, _ := setupTestService()

		err := service.ChangePassword(context.Background(), "user-1", &types.PasswordChangeRequest{
			CurrentPassword: "old",
			NewPassword:     "N3w!passw",
			ConfirmPassword: "different",
		}, ClientInfo{})

		var portalErr *types.PortalError
		require.True(t, errors.As(err, &portalErr))
		assert.Equal(t, types.ErrCodePasswordMismatch, portalErr.Code)
	})
}

func TestService_ConfirmPasswordReset(t *testing.T) {
	t.Run("reset clears lockout", func(t *testing.T) {
		service, mocks := setupTestService()

		mocks.tokenSigner.On("Verify", TokenPurposeResetPassword, "reset-token").Return("user-1", nil)
		mocks.passwordManager.On("ValidatePolicy", "N3w!passw").Return(nil)
		mocks.passwordManager.On("HashPassword", "N3w!passw").Return("new-hash", nil)
		mocks.userRepo.On("Update", mock.Anything, "user-1", mock.MatchedBy(func(u map[string]interface{}) bool {
			return u["password_hash"] == "new-hash" && u["is_locked"] == false && u["failed_logins"] == 0
		})).Return(nil)
		mocks.audit.On("Append", mock.Anything, mock.AnythingOfType("*types.AuditEntry")).Return()

		err := service.ConfirmPasswordReset(context.Background(), &types.PasswordResetConfirm{
			Token:           "reset-token",
			NewPassword:     "N3w!passw",
			ConfirmPassword: "N3w!passw",
		}, ClientInfo{})

		require.NoError(t, err)
		mocks.userRepo.AssertExpectations(t)
	})

	t.Run("invalid token rejected", func(t *testing.T) {
		service, mocks := setupTestService()

		tokenErr := types.NewAuthenticationError(types.ErrCodeInvalidToken, "token signature mismatch")
		mocks.tokenSigner.On("Verify", TokenPurposeResetPassword, "bad").Return("", tokenErr)

		err := service.ConfirmPasswordReset(context.Background(), &types.PasswordResetConfirm{
			Token:           "bad",
			NewPassword:     "N3w!passw",
			ConfirmPassword: "N3w!passw",
		}, ClientInfo{})

		assert.ErrorIs(t, err, tokenErr)
	})
}

func TestService_MFALifecycle(t *testing.T) {
	t.Run("enable then confirm", func(t *testing.T) {
		service, mocks := setupTestService()
		user := verifiedUser()

		mocks.userRepo.On("GetByID", mock.Anything, "user-1").Return(user, nil)
		mocks.mfaProvider.On("GenerateSecret").Return("new-secret", nil)
		mocks.mfaProvider.On("BackupCodes", 10).Return([]string{"11111111", "22222222"}, nil)
		mocks.mfaProvider.On("OTPAuthURL", "alice@example.com", "new-secret").Return("otpauth://totp/x")
		mocks.userRepo.On("Update", mock.Anything, "user-1", map[string]interface{}{
			"mfa_secret": "new-secret",
		}).Return(nil)

		setup, err := service.EnableMFA(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, "new-secret", setup.Secret)
		assert.Len(t, setup.BackupCodes, 2)

		user.MFASecret = "new-secret"
		mocks.mfaProvider.On("VerifyCode", "new-secret", "287082").Return(true)
		mocks.userRepo.On("Update", mock.Anything, "user-1", map[string]interface{}{
			"mfa_enabled": true,
		}).Return(nil)
		mocks.audit.On("Append", mock.Anything, mock.AnythingOfType("*types.AuditEntry")).Return()

		err = service.ConfirmMFA(context.Background(), "user-1", "287082", ClientInfo{})
		require.NoError(t, err)
	})

	t.Run("confirm without setup", func(t *testing.T) {
		service, mocks := setupTestService()
		user := verifiedUser()

		mocks.userRepo.On("GetByID", mock.Anything, "user-1").Return(user, nil)

		err := service.ConfirmMFA(context.Background(), "user-1", "287082", ClientInfo{})
		var portalErr *types.PortalError
		require.True(t, errors.As(err, &portalErr))
		assert.Equal(t, types.ErrorTypeValidation, portalErr.Type)
	})
}

func TestSafeRedirectTarget(t *testing.T) {
	service, _ := setupTestService()

	tests := []struct {
		name string
		next string
		want string
	}{
		{"relative path", "/dashboard", "/dashboard"},
		{"own host", "http://localhost:8080/records", "http://localhost:8080/records"},
		{"foreign host", "https://evil.example/phish", ""},
		{"network-path reference", "//evil.example", ""},
		{"javascript scheme", "javascript:alert(1)", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.SafeRedirectTarget(tt.next))
		})
	}
}
