package audit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/httputil"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/interfaces"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

// Handlers exposes the audit trail to administrators
type Handlers struct {
	auditLogger interfaces.AuditLogger
	logger      *logger.Logger
}

// NewHandlers creates new audit HTTP handlers
func NewHandlers(auditLogger interfaces.AuditLogger, log *logger.Logger) *Handlers {
	return &Handlers{
		auditLogger: auditLogger,
		logger:      log,
	}
}

// RegisterRoutes registers the audit routes. Both middleware arguments are
// required; the whole group is admin-only.
func (h *Handlers) RegisterRoutes(v1 *gin.RouterGroup, authRequired, adminOnly gin.HandlerFunc) {
	logs := v1.Group("/audit-logs")
	logs.Use(authRequired, adminOnly)
	{
		logs.GET("", h.ListEntries)
	}
}

// ListEntries returns audit entries matching the query filters
func (h *Handlers) ListEntries(c *gin.Context) {
	filter := &types.AuditFilter{
		UserID: c.Query("user_id"),
		Action: types.AuditAction(c.Query("action")),
		Limit:  100,
	}

	if success := c.Query("success"); success != "" {
		if parsed, err := strconv.ParseBool(success); err == nil {
			filter.Success = &parsed
		}
	}
	if start := c.Query("start"); start != "" {
		parsed, err := time.Parse(time.RFC3339, start)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   types.ErrCodeInvalidInput,
				"message": "start must be an RFC 3339 timestamp",
			})
			return
		}
		filter.StartTime = parsed
	}
	if end := c.Query("end"); end != "" {
		parsed, err := time.Parse(time.RFC3339, end)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   types.ErrCodeInvalidInput,
				"message": "end must be an RFC 3339 timestamp",
			})
			return
		}
		filter.EndTime = parsed
	}
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			filter.Limit = parsed
		}
	}
	if o := c.Query("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			filter.Offset = parsed
		}
	}

	entries, err := h.auditLogger.Query(c.Request.Context(), filter)
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}
