package accounts

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/httputil"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

// Handlers contains HTTP handlers for account operations
type Handlers struct {
	service *Service
	logger  *logger.Logger
}

// NewHandlers creates new account HTTP handlers
func NewHandlers(service *Service, log *logger.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  log,
	}
}

// RegisterRoutes registers account routes. loginLimiter throttles the
// credential endpoints per client IP; authRequired and adminOnly are the
// shared middleware from the server package.
func (h *Handlers) RegisterRoutes(v1 *gin.RouterGroup, authRequired, adminOnly, loginLimiter gin.HandlerFunc) {
	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.GET("/verify-email", h.VerifyEmail)
		auth.POST("/resend-verification", h.ResendVerification)
		auth.POST("/login", loginLimiter, h.Login)
		auth.POST("/refresh", h.RefreshToken)
		auth.POST("/logout", authRequired, h.Logout)

		auth.POST("/password/forgot", loginLimiter, h.ForgotPassword)
		auth.POST("/password/reset", h.ResetPassword)
		auth.POST("/password/change", authRequired, h.ChangePassword)
	}

	mfa := v1.Group("/mfa")
	mfa.Use(authRequired)
	{
		mfa.POST("/enable", h.EnableMFA)
		mfa.POST("/confirm", h.ConfirmMFA)
		mfa.POST("/disable", h.DisableMFA)
	}

	users := v1.Group("/users")
	users.Use(authRequired)
	{
		users.GET("/me", h.GetCurrentUser)
		users.PUT("/me", h.UpdateCurrentUser)
		users.GET("", adminOnly, h.ListUsers)
		users.GET("/:id", adminOnly, h.GetUser)
		users.DELETE("/:id", adminOnly, h.DeactivateUser)
		users.POST("/:id/unlock", adminOnly, h.UnlockUser)
	}
}

// Register handles self-service account creation. Only patient accounts
// can be created here; staff accounts go through the staff endpoints.
func (h *Handlers) Register(c *gin.Context) {
	var req types.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   types.ErrCodeInvalidInput,
			"message": "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	if req.Role != types.RolePatient {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   types.ErrCodeForbidden,
			"message": "Only patient accounts can self-register",
		})
		return
	}

	user, err := h.service.Register(c.Request.Context(), &req, clientInfo(c))
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created. Check your email to verify your address.",
		"user":    publicUser(user),
	})
}

// VerifyEmail confirms the emailed verification token
func (h *Handlers) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   types.ErrCodeInvalidInput,
			"message": "token query parameter is required",
		})
		return
	}

	if err := h.service.VerifyEmail(c.Request.Context(), token); err != nil {
		httputil.Error(c, h.logger, err)
		return
	}

	resp := gin.H{
		"message": "Email verified. You can now sign in.",
	}
	if next := c.Query("next"); next != "" {
		if target := h.service.SafeRedirectTarget(next); target != "" {
			resp["redirect_to"] = target
		}
	}
	c.JSON(http.StatusOK, resp)
}

// ResendVerification re-sends the verification email
func (h *Handlers) ResendVerification(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   types.ErrCodeInvalidInput,
			"message": "Invalid request format",
		})
		return
	}

	h.service.ResendVerification(c.Request.Context(), req.Email)

	c.JSON(http.StatusOK, gin.H{
		"message": "If the account exists, a verification email has been sent.",
	})
}

// Login handles user authentication
func (h *Handlers) Login(c *gin.Context) {
	var credentials types.Credentials
	if err := c.ShouldBindJSON(&credentials); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   types.ErrCodeInvalidInput,
			"message": "Invalid request format",
		})
		return
	}

	token, user, err := h.service.Login(c.Request.Context(), &credentials, clientInfo(c))
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Authentication successful",
		"token":   token,
		"user":    publicUser(user),
	})
}

// RefreshToken handles token refresh
func (h *Handlers) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   types.ErrCodeInvalidInput,
			"message": "Invalid request format",
		})
		return
	}

	token, err := h.service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Token refreshed successfully",
		"token":   token,
	})
}

// Logout records the logout event
func (h *Handlers) Logout(c *gin.Context) {
	h.service.Logout(c.Request.Context(), c.GetString("user_id"), clientInfo(c))
	c.JSON(http.StatusOK, gin.H{
		"message": "Logout successful",
	})
}

// ForgotPassword starts the password reset flow
func (h *Handlers) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   types.ErrCodeInvalidInput,
			"message": "Invalid request format",
		})
		return
	}

	h.service.RequestPasswordReset(c.Request.Context(), req.Email)

	c.JSON(http.StatusOK, gin.H{
		"message": "If the account exists, a reset link has been sent.",
	})
}

// ResetPassword completes the password reset flow
func (h *Handlers) ResetPassword(c *gin.Context) {
	var req types.PasswordResetConfirm
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   types.ErrCodeInvalidInput,
			"message": "Invalid request format",
		})
		return
	}

	if err := h.service.ConfirmPasswordReset(c.Request.Context(), &req, clientInfo(c)); err != nil {
		httputil.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password reset successfully",
	})
}

// ChangePassword changes the password of the authenticated user
func (h *Handlers) ChangePassword(c *gin.Context) {
	var req types.PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   types.ErrCodeInvalidInput,
			"message": "Invalid request format",
		})
		return
	}

	err := h.service.ChangePassword(c.Request.Context(), c.GetString("user_id"), &req, clientInfo(c))
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password changed successfully",
	})
}

// EnableMFA starts MFA enrollment for the authenticated user
func (h *Handlers) EnableMFA(c *gin.Context) {
	setup, err := h.service.EnableMFA(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Scan the QR code and confirm with a code to finish setup",
		"mfa":     setup,
	})
}

// ConfirmMFA finishes MFA enrollment
func (h *Handlers) ConfirmMFA(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   types.ErrCodeInvalidInput,
			"message": "Invalid request format",
		})
		return
	}

	err := h.service.ConfirmMFA(c.Request.Context(), c.GetString("user_id"), req.Code, clientInfo(c))
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "MFA enabled successfully",
	})
}

// DisableMFA turns MFA off for the authenticated user
func (h *Handlers) DisableMFA(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   types.ErrCodeInvalidInput,
			"message": "Invalid request format",
		})
		return
	}

	err := h.service.DisableMFA(c.Request.Context(), c.GetString("user_id"), req.Password, clientInfo(c))
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "MFA disabled successfully",
	})
}

// GetCurrentUser returns the authenticated user's account
func (h *Handlers) GetCurrentUser(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

// UpdateCurrentUser updates the authenticated user's profile
func (h *Handlers) UpdateCurrentUser(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   types.ErrCodeInvalidInput,
			"message": "Invalid request format",
		})
		return
	}

	err := h.service.UpdateProfile(c.Request.Context(), c.GetString("user_id"), updates, clientInfo(c))
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
	})
}

// GetUser retrieves any account by ID (admin only)
func (h *Handlers) GetUser(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

// ListUsers lists accounts with filtering and pagination (admin only)
func (h *Handlers) ListUsers(c *gin.Context) {
	criteria := &types.UserSearchCriteria{
		Email: c.Query("email"),
		Role:  types.UserRole(c.Query("role")),
		Limit: 50,
	}

	if active := c.Query("active"); active != "" {
		if isActive, err := strconv.ParseBool(active); err == nil {
			criteria.IsActive = &isActive
		}
	}
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			criteria.Limit = parsed
		}
	}
	if o := c.Query("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			criteria.Offset = parsed
		}
	}

	users, err := h.service.ListUsers(c.Request.Context(), criteria)
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

// DeactivateUser deactivates an account (admin only)
func (h *Handlers) DeactivateUser(c *gin.Context) {
	err := h.service.DeactivateUser(c.Request.Context(), c.GetString("user_id"), c.Param("id"), clientInfo(c))
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deactivated successfully",
	})
}

// UnlockUser clears an account lockout (admin only)
func (h *Handlers) UnlockUser(c *gin.Context) {
	err := h.service.UnlockAccount(c.Request.Context(), c.GetString("user_id"), c.Param("id"), clientInfo(c))
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Account unlocked successfully",
	})
}

// Helper methods

func clientInfo(c *gin.Context) ClientInfo {
	return ClientInfo{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// publicUser strips fields that should not appear in registration and
// login responses.
func publicUser(user *types.User) map[string]interface{} {
	return map[string]interface{}{
		"id":          user.ID,
		"email":       user.Email,
		"first_name":  user.FirstName,
		"last_name":   user.LastName,
		"role":        user.Role,
		"is_active":   user.IsActive,
		"is_verified": user.IsVerified,
		"mfa_enabled": user.MFAEnabled,
		"date_joined": user.DateJoined,
	}
}
