package staff

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/httputil"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

// Handlers exposes staff account provisioning and profiles
type Handlers struct {
	service *Service
	logger  *logger.Logger
}

// NewHandlers creates new staff HTTP handlers
func NewHandlers(service *Service, log *logger.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  log,
	}
}

// RegisterRoutes registers the staff routes
func (h *Handlers) RegisterRoutes(v1 *gin.RouterGroup, authRequired gin.HandlerFunc) {
	staff := v1.Group("/staff")
	staff.Use(authRequired)
	{
		staff.GET("", h.ListStaff)
		staff.POST("", h.CreateStaffAccount)
		staff.GET("/me", h.GetMyProfile)
		staff.GET("/:id", h.GetProfile)
		staff.PUT("/:id", h.UpdateProfile)
	}
}

// CreateStaffAccount provisions a staff user account and profile
func (h *Handlers) CreateStaffAccount(c *gin.Context) {
	var req types.CreateStaffAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": types.ErrCodeInvalidInput, "message": err.Error()})
		return
	}

	profile, err := h.service.CreateStaffAccount(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

// GetMyProfile returns the caller's own staff profile
func (h *Handlers) GetMyProfile(c *gin.Context) {
	profile, err := h.service.GetMyProfile(c.Request.Context(), actorFrom(c))
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetProfile returns a staff profile by ID
func (h *Handlers) GetProfile(c *gin.Context) {
	profile, err := h.service.GetProfile(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile updates a staff profile
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var req types.StaffUpdates
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": types.ErrCodeInvalidInput, "message": err.Error()})
		return
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), actorFrom(c), c.Param("id"), &req)
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ListStaff returns staff profiles for administrators
func (h *Handlers) ListStaff(c *gin.Context) {
	limit := 50
	offset := 0
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if o := c.Query("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	profiles, err := h.service.ListStaff(c.Request.Context(), actorFrom(c), c.Query("department"), limit, offset)
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff": profiles, "count": len(profiles)})
}

func actorFrom(c *gin.Context) Actor {
	return Actor{
		UserID: c.GetString("user_id"),
		Role:   c.GetString("user_role"),
	}
}
