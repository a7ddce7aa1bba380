package accounts

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/config"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/httputil"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/interfaces"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/monitoring"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

// MaxFailedLogins is the number of consecutive failed attempts after which
// an account is locked until an administrator unlocks it or the password
// is reset.
const MaxFailedLogins = 3

// ClientInfo carries request attribution for audit entries
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// Service implements account management and authentication
type Service struct {
	config          *config.Config
	logger          *logger.Logger
	userRepo        interfaces.UserRepository
	passwordManager interfaces.PasswordManager
	mfaProvider     interfaces.MFAProvider
	tokenSigner     interfaces.TokenSigner
	mailer          interfaces.Mailer
	audit           interfaces.AuditLogger
	metrics         *monitoring.MetricsCollector
}

// NewService creates a new accounts service instance
func NewService(
	cfg *config.Config,
	log *logger.Logger,
	userRepo interfaces.UserRepository,
	passwordManager interfaces.PasswordManager,
	mfaProvider interfaces.MFAProvider,
	tokenSigner interfaces.TokenSigner,
	mailer interfaces.Mailer,
	audit interfaces.AuditLogger,
	metrics *monitoring.MetricsCollector,
) *Service {
	return &Service{
		config:          cfg,
		logger:          log,
		userRepo:        userRepo,
		passwordManager: passwordManager,
		mfaProvider:     mfaProvider,
		tokenSigner:     tokenSigner,
		mailer:          mailer,
		audit:           audit,
		metrics:         metrics,
	}
}

// Register creates a new account. The account stays inactive until the
// emailed verification link is confirmed.
func (s *Service) Register(ctx context.Context, req *types.RegistrationRequest, client ClientInfo) (*types.User, error) {
	s.logger.WithFields(map[string]interface{}{
		"email": req.Email,
		"role":  req.Role,
	}).Info("Registering new user")

	if !req.Role.IsValid() {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "invalid role", nil)
	}

	if err := s.passwordManager.ValidatePolicy(req.Password); err != nil {
		return nil, err
	}

	var dateOfBirth *time.Time
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return nil, types.NewValidationError(types.ErrCodeInvalidInput,
				"date_of_birth must be in YYYY-MM-DD format", nil)
		}
		dateOfBirth = &dob
	}

	passwordHash, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &types.User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(req.Email),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		PhoneNumber:  req.PhoneNumber,
		DateOfBirth:  dateOfBirth,
		PasswordHash: passwordHash,
		IsActive:     false,
		IsVerified:   false,
		DateJoined:   now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.sendVerificationMail(ctx, user)

	s.auditEvent(ctx, user.ID, types.AuditUserCreated, true, client, map[string]interface{}{
		"role": string(user.Role),
	})

	s.logger.WithUserID(user.ID).Info("User registered successfully")
	return user, nil
}

// VerifyEmail confirms an emailed verification token and activates the
// account.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.tokenSigner.Verify(TokenPurposeVerifyEmail, token)
	if err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return nil // already verified, nothing to do
	}

	err = s.userRepo.Update(ctx, userID, map[string]interface{}{
		"is_verified": true,
		"is_active":   true,
	})
	if err != nil {
		return err
	}

	s.logger.WithUserID(userID).Info("Email verified, account activated")
	return nil
}

// SafeRedirectTarget validates a client-supplied post-verification
// redirect. Relative paths and URLs on the portal's own host pass
// through; anything else returns the empty string and the client
// falls back to its default landing page.
func (s *Service) SafeRedirectTarget(next string) string {
	var hosts []string
	if base, err := url.Parse(s.config.Server.BaseURL); err == nil && base.Hostname() != "" {
		hosts = append(hosts, base.Hostname())
	}
	if httputil.IsSafeRedirectURL(next, hosts) {
		return next
	}
	return ""
}

// ResendVerification re-sends the verification mail for an unverified
// account. It never discloses whether the email exists.
func (s *Service) ResendVerification(ctx context.Context, email string) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil || user.IsVerified {
		return
	}
	s.sendVerificationMail(ctx, user)
}

// Login authenticates a user and returns JWT tokens. Three consecutive
// failed attempts lock the account.
func (s *Service) Login(ctx context.Context, credentials *types.Credentials, client ClientInfo) (*types.AuthToken, *types.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, credentials.Email)
	if err != nil {
		// Record the attempt without disclosing whether the account exists.
		s.auditEvent(ctx, "", types.AuditFailedLogin, false, client, map[string]interface{}{
			"email":  strings.ToLower(credentials.Email),
			"reason": "unknown_email",
		})
		s.metrics.RecordAuthAttempt("password", "failure")
		return nil, nil, types.NewAuthenticationError(types.ErrCodeInvalidCredentials, "Invalid email or password")
	}

	if user.IsLocked {
		s.auditEvent(ctx, user.ID, types.AuditFailedLogin, false, client, map[string]interface{}{
			"reason": "account_locked",
		})
		s.metrics.RecordAuthAttempt("password", "locked")
		return nil, nil, types.NewAuthenticationError(types.ErrCodeAccountLocked,
			"Account is locked after too many failed attempts. Reset your password or contact an administrator.")
	}

	if !user.IsVerified {
		return nil, nil, types.NewAuthenticationError(types.ErrCodeAccountNotVerified,
			"Email address has not been verified")
	}
	if !user.IsActive {
		return nil, nil, types.NewAuthenticationError(types.ErrCodeAccountInactive, "Account is inactive")
	}

	ok, err := s.passwordManager.VerifyPassword(user.PasswordHash, credentials.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, nil, s.handleFailedLogin(ctx, user, client)
	}

	if user.MFAEnabled {
		if credentials.MFAToken == "" || !s.mfaProvider.VerifyCode(user.MFASecret, credentials.MFAToken) {
			s.auditEvent(ctx, user.ID, types.AuditFailedLogin, false, client, map[string]interface{}{
				"reason": "invalid_mfa",
			})
			s.metrics.RecordAuthAttempt("mfa", "failure")
			return nil, nil, types.NewAuthenticationError(types.ErrCodeInvalidMFA, "Invalid MFA code")
		}
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.generateRefreshToken(user)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	now := time.Now()
	if err := s.userRepo.Update(ctx, user.ID, map[string]interface{}{
		"failed_logins": 0,
		"last_login":    now,
	}); err != nil {
		s.logger.WithUserID(user.ID).WithError(err).Warn("Failed to update last login")
	}

	s.auditEvent(ctx, user.ID, types.AuditLogin, true, client, nil)
	s.metrics.RecordAuthAttempt("password", "success")

	authToken := &types.AuthToken{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.config.JWT.AccessTokenTTL),
		IssuedAt:     now,
	}

	s.logger.WithUserID(user.ID).Info("User authenticated successfully")
	return authToken, user, nil
}

// handleFailedLogin increments the failure counter and locks the account
// when the limit is reached.
func (s *Service) handleFailedLogin(ctx context.Context, user *types.User, client ClientInfo) error {
	failed := user.FailedLogins + 1
	updates := map[string]interface{}{
		"failed_logins": failed,
	}

	locked := failed >= MaxFailedLogins
	if locked {
		updates["is_locked"] = true
	}

	if err := s.userRepo.Update(ctx, user.ID, updates); err != nil {
		s.logger.WithUserID(user.ID).WithError(err).Error("Failed to record failed login")
	}

	details := map[string]interface{}{
		"reason":        "invalid_password",
		"failed_logins": failed,
	}
	if locked {
		details["account_locked"] = true
		s.metrics.RecordAccountLockout()
		s.logger.Security("account_locked", user.ID, map[string]interface{}{
			"failed_logins": failed,
		})
	}

	s.auditEvent(ctx, user.ID, types.AuditFailedLogin, false, client, details)
	s.metrics.RecordAuthAttempt("password", "failure")

	if locked {
		return types.NewAuthenticationError(types.ErrCodeAccountLocked,
			"Account is locked after too many failed attempts. Reset your password or contact an administrator.")
	}
	return types.NewAuthenticationError(types.ErrCodeInvalidCredentials, "Invalid email or password")
}

// RefreshToken exchanges a valid refresh token for a new access token
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*types.AuthToken, error) {
	token, err := jwt.Parse(refreshToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWT.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, types.NewAuthenticationError(types.ErrCodeInvalidToken, "Invalid refresh token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["type"] != "refresh" {
		return nil, types.NewAuthenticationError(types.ErrCodeInvalidToken, "Invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, types.NewAuthenticationError(types.ErrCodeInvalidToken, "Invalid user ID in token")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, types.NewAuthenticationError(types.ErrCodeInvalidToken, "Invalid refresh token")
	}
	if !user.IsActive || user.IsLocked {
		return nil, types.NewAuthenticationError(types.ErrCodeAccountInactive, "Account is inactive")
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &types.AuthToken{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.config.JWT.AccessTokenTTL),
		IssuedAt:    time.Now(),
	}, nil
}

// Logout records the logout event. Tokens are short-lived; no blacklist
// is kept.
func (s *Service) Logout(ctx context.Context, userID string, client ClientInfo) {
	s.auditEvent(ctx, userID, types.AuditLogout, true, client, nil)
}

// ChangePassword changes the password of an authenticated user
func (s *Service) ChangePassword(ctx context.Context, userID string, req *types.PasswordChangeRequest, client ClientInfo) error {
	if req.NewPassword != req.ConfirmPassword {
		return types.NewValidationError(types.ErrCodePasswordMismatch, "passwords do not match", nil)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.passwordManager.VerifyPassword(user.PasswordHash, req.CurrentPassword)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.auditEvent(ctx, userID, types.AuditPasswordChange, false, client, map[string]interface{}{
			"reason": "wrong_current_password",
		})
		return types.NewAuthenticationError(types.ErrCodeInvalidCredentials, "Current password is incorrect")
	}

	if err := s.passwordManager.ValidatePolicy(req.NewPassword); err != nil {
		return err
	}

	hash, err := s.passwordManager.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.Update(ctx, userID, map[string]interface{}{
		"password_hash": hash,
	}); err != nil {
		return err
	}

	s.auditEvent(ctx, userID, types.AuditPasswordChange, true, client, nil)
	return nil
}

// RequestPasswordReset sends a reset link if the account exists. The
// response is identical either way so the endpoint cannot be used to
// enumerate accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"email": strings.ToLower(email),
		}).Info("Password reset requested for unknown email")
		return
	}

	token := s.tokenSigner.Sign(TokenPurposeResetPassword, user.ID)
	link := fmt.Sprintf("%s/reset-password?token=%s", s.config.Server.BaseURL, token)
	body := fmt.Sprintf(
		"Hello %s,\n\nA password reset was requested for your account.\n"+
			"Use the link below within one hour to choose a new password:\n\n%s\n\n"+
			"If you did not request this, you can ignore this message.",
		user.FirstName, link)

	if err := s.mailer.Send(ctx, user.Email, "Password reset", body); err != nil {
		s.logger.WithUserID(user.ID).WithError(err).Error("Failed to send password reset mail")
	}
}

// ConfirmPasswordReset sets a new password from an emailed reset token.
// A successful reset also clears any lockout.
func (s *Service) ConfirmPasswordReset(ctx context.Context, req *types.PasswordResetConfirm, client ClientInfo) error {
	if req.NewPassword != req.ConfirmPassword {
		return types.NewValidationError(types.ErrCodePasswordMismatch, "passwords do not match", nil)
	}

	userID, err := s.tokenSigner.Verify(TokenPurposeResetPassword, req.Token)
	if err != nil {
		return err
	}

	if err := s.passwordManager.ValidatePolicy(req.NewPassword); err != nil {
		return err
	}

	hash, err := s.passwordManager.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.Update(ctx, userID, map[string]interface{}{
		"password_hash": hash,
		"failed_logins": 0,
		"is_locked":     false,
	}); err != nil {
		return err
	}

	s.auditEvent(ctx, userID, types.AuditPasswordReset, true, client, nil)
	return nil
}

// EnableMFA generates a TOTP secret for the user. MFA is not enforced
// until ConfirmMFA succeeds with a code from the authenticator app.
func (s *Service) EnableMFA(ctx context.Context, userID string) (*types.MFASetup, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.MFAEnabled {
		return nil, types.NewConflictError(types.ErrCodeInvalidInput, "MFA is already enabled")
	}

	secret, err := s.mfaProvider.GenerateSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate MFA secret: %w", err)
	}

	backupCodes, err := s.mfaProvider.BackupCodes(10)
	if err != nil {
		return nil, fmt.Errorf("failed to generate backup codes: %w", err)
	}

	if err := s.userRepo.Update(ctx, userID, map[string]interface{}{
		"mfa_secret": secret,
	}); err != nil {
		return nil, err
	}

	return &types.MFASetup{
		Secret:      secret,
		OTPAuthURL:  s.mfaProvider.OTPAuthURL(user.Email, secret),
		BackupCodes: backupCodes,
	}, nil
}

// ConfirmMFA verifies a setup code and turns MFA enforcement on
func (s *Service) ConfirmMFA(ctx context.Context, userID, code string, client ClientInfo) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.MFASecret == "" {
		return types.NewValidationError(types.ErrCodeInvalidInput, "MFA setup has not been started", nil)
	}

	if !s.mfaProvider.VerifyCode(user.MFASecret, code) {
		return types.NewAuthenticationError(types.ErrCodeInvalidMFA, "Invalid MFA code")
	}

	if err := s.userRepo.Update(ctx, userID, map[string]interface{}{
		"mfa_enabled": true,
	}); err != nil {
		return err
	}

	s.auditEvent(ctx, userID, types.AuditMFAEnabled, true, client, nil)
	return nil
}

// DisableMFA turns MFA off after re-verifying the account password
func (s *Service) DisableMFA(ctx context.Context, userID, password string, client ClientInfo) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.passwordManager.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return types.NewAuthenticationError(types.ErrCodeInvalidCredentials, "Password is incorrect")
	}

	if err := s.userRepo.Update(ctx, userID, map[string]interface{}{
		"mfa_enabled": false,
		"mfa_secret":  "",
	}); err != nil {
		return err
	}

	s.auditEvent(ctx, userID, types.AuditMFADisabled, true, client, nil)
	return nil
}

// GetUser retrieves a user by ID
func (s *Service) GetUser(ctx context.Context, userID string) (*types.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateProfile updates the mutable profile fields of a user
func (s *Service) UpdateProfile(ctx context.Context, userID string, updates map[string]interface{}, client ClientInfo) error {
	allowed := map[string]bool{
		"first_name":    true,
		"last_name":     true,
		"phone_number":  true,
		"date_of_birth": true,
	}
	filtered := make(map[string]interface{}, len(updates))
	for field, value := range updates {
		if !allowed[field] {
			return types.NewValidationError(types.ErrCodeInvalidInput,
				fmt.Sprintf("field %q cannot be updated", field), nil)
		}
		filtered[field] = value
	}
	if len(filtered) == 0 {
		return types.NewValidationError(types.ErrCodeInvalidInput, "no updatable fields provided", nil)
	}

	if err := s.userRepo.Update(ctx, userID, filtered); err != nil {
		return err
	}

	s.auditEvent(ctx, userID, types.AuditProfileUpdate, true, client, nil)
	return nil
}

// ListUsers retrieves users matching the criteria (admin only, enforced
// at the handler layer).
func (s *Service) ListUsers(ctx context.Context, criteria *types.UserSearchCriteria) ([]*types.User, error) {
	return s.userRepo.List(ctx, criteria)
}

// DeactivateUser disables an account
func (s *Service) DeactivateUser(ctx context.Context, actorID, userID string, client ClientInfo) error {
	if err := s.userRepo.Deactivate(ctx, userID); err != nil {
		return err
	}

	s.auditEvent(ctx, userID, types.AuditUserDeactivated, true, client, map[string]interface{}{
		"deactivated_by": actorID,
	})
	return nil
}

// UnlockAccount clears a lockout so the user can sign in again
func (s *Service) UnlockAccount(ctx context.Context, actorID, userID string, client ClientInfo) error {
	if err := s.userRepo.Update(ctx, userID, map[string]interface{}{
		"failed_logins": 0,
		"is_locked":     false,
	}); err != nil {
		return err
	}

	s.logger.Security("account_unlocked", userID, map[string]interface{}{
		"unlocked_by": actorID,
	})
	return nil
}

// Helper methods

func (s *Service) sendVerificationMail(ctx context.Context, user *types.User) {
	token := s.tokenSigner.Sign(TokenPurposeVerifyEmail, user.ID)
	link := fmt.Sprintf("%s/verify-email?token=%s", s.config.Server.BaseURL, token)
	body := fmt.Sprintf(
		"Hello %s,\n\nWelcome to the hospital patient portal.\n"+
			"Confirm your email address by opening the link below:\n\n%s\n",
		user.FirstName, link)

	if err := s.mailer.Send(ctx, user.Email, "Verify your email address", body); err != nil {
		s.logger.WithUserID(user.ID).WithError(err).Error("Failed to send verification mail")
	}
}

func (s *Service) auditEvent(ctx context.Context, userID string, action types.AuditAction, success bool, client ClientInfo, details map[string]interface{}) {
	s.audit.Append(ctx, &types.AuditEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		Success:   success,
		Details:   details,
		Timestamp: time.Now(),
	})
	s.metrics.RecordAuditEvent(string(action), success)
}

func (s *Service) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":    user.ID,
		"email":      user.Email,
		"role":       string(user.Role),
		"full_name":  user.FullName(),
		"mfa_passed": user.MFAEnabled,
		"iss":        s.config.JWT.Issuer,
		"exp":        now.Add(time.Duration(s.config.JWT.AccessTokenTTL) * time.Second).Unix(),
		"iat":        now.Unix(),
		"nbf":        now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWT.SecretKey))
}

func (s *Service) generateRefreshToken(user *types.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"type":    "refresh",
		"iss":     s.config.JWT.Issuer,
		"exp":     now.Add(time.Duration(s.config.JWT.RefreshTokenTTL) * time.Second).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWT.SecretKey))
}
