package patients

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/httputil"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

// Handlers exposes patient profiles, medical records and certificates
type Handlers struct {
	service *Service
	logger  *logger.Logger
}

// NewHandlers creates new patients HTTP handlers
func NewHandlers(service *Service, log *logger.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  log,
	}
}

// RegisterRoutes registers the patient, record and certificate routes.
// Authorization beyond authentication happens in the service layer.
func (h *Handlers) RegisterRoutes(v1 *gin.RouterGroup, authRequired gin.HandlerFunc) {
	patients := v1.Group("/patients")
	patients.Use(authRequired)
	{
		patients.GET("", h.ListProfiles)
		patients.GET("/me", h.GetMyProfile)
		patients.PUT("/me", h.UpdateMyProfile)
		patients.GET("/:id", h.GetProfile)
		patients.PUT("/:id", h.UpdateProfile)

		patients.GET("/:id/records", h.ListRecords)
		patients.POST("/:id/records", h.CreateRecord)
		patients.GET("/:id/records/verify", h.VerifyChain)

		patients.GET("/:id/certificates", h.ListCertificates)
		patients.POST("/:id/certificates", h.IssueCertificate)
	}

	records := v1.Group("/records")
	records.Use(authRequired)
	{
		records.GET("/:id", h.GetRecord)
		records.PUT("/:id", h.UpdateRecord)
		records.DELETE("/:id", h.DeleteRecord)
		records.POST("/:id/share", h.ShareRecord)
		records.DELETE("/:id/share/:userID", h.UnshareRecord)
		records.GET("/:id/access-logs", h.ListAccessLogs)
	}

	certificates := v1.Group("/certificates")
	certificates.Use(authRequired)
	{
		certificates.GET("/:id", h.GetCertificate)
		certificates.POST("/:id/revoke", h.RevokeCertificate)
	}
}

// GetMyProfile returns the caller's own patient profile
func (h *Handlers) GetMyProfile(c *gin.Context) {
	patient, err := h.service.GetMyProfile(c.Request.Context(), actorFrom(c))
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, patient)
}

// UpdateMyProfile updates the caller's own patient profile
func (h *Handlers) UpdateMyProfile(c *gin.Context) {
	var req types.UpdatePatientProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": types.ErrCodeInvalidInput, "message": err.Error()})
		return
	}

	actor := actorFrom(c)
	patient, err := h.service.GetMyProfile(c.Request.Context(), actor)
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}

	updated, err := h.service.UpdateProfile(c.Request.Context(), actor, patient.ID, &req)
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// GetProfile returns a patient profile by ID
func (h *Handlers) GetProfile(c *gin.Context) {
	patient, err := h.service.GetProfile(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, patient)
}

// UpdateProfile updates a patient profile by ID
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var req types.UpdatePatientProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": types.ErrCodeInvalidInput, "message": err.Error()})
		return
	}

	patient, err := h.service.UpdateProfile(c.Request.Context(), actorFrom(c), c.Param("id"), &req)
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, patient)
}

// ListProfiles returns patient profiles for clinical staff
func (h *Handlers) ListProfiles(c *gin.Context) {
	limit, offset := pagination(c)
	patients, err := h.service.ListProfiles(c.Request.Context(), actorFrom(c), limit, offset)
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patients": patients, "count": len(patients)})
}

// CreateRecord appends a medical record to a patient's history
func (h *Handlers) CreateRecord(c *gin.Context) {
	var req types.CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": types.ErrCodeInvalidInput, "message": err.Error()})
		return
	}

	record, err := h.service.CreateRecord(c.Request.Context(), actorFrom(c), c.Param("id"), &req, clientInfo(c))
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// ListRecords returns a patient's medical records
func (h *Handlers) ListRecords(c *gin.Context) {
	records, err := h.service.ListRecords(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}

// VerifyChain checks the integrity of a patient's record chain
func (h *Handlers) VerifyChain(c *gin.Context) {
	result, err := h.service.VerifyPatientChain(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetRecord returns a single medical record
func (h *Handlers) GetRecord(c *gin.Context) {
	record, err := h.service.GetRecord(c.Request.Context(), actorFrom(c), c.Param("id"), clientInfo(c))
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// UpdateRecord amends the most recent record of a patient's chain
func (h *Handlers) UpdateRecord(c *gin.Context) {
	var req types.UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": types.ErrCodeInvalidInput, "message": err.Error()})
		return
	}

	record, err := h.service.UpdateRecord(c.Request.Context(), actorFrom(c), c.Param("id"), &req, clientInfo(c))
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// DeleteRecord soft-deletes a medical record
func (h *Handlers) DeleteRecord(c *gin.Context) {
	if err := h.service.DeleteRecord(c.Request.Context(), actorFrom(c), c.Param("id"), clientInfo(c)); err != nil {
		httputil.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Record deleted"})
}

type shareRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// ShareRecord grants another user read access to a record
func (h *Handlers) ShareRecord(c *gin.Context) {
	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": types.ErrCodeInvalidInput, "message": err.Error()})
		return
	}

	if err := h.service.ShareRecord(c.Request.Context(), actorFrom(c), c.Param("id"), req.UserID, clientInfo(c)); err != nil {
		httputil.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Record shared"})
}

// UnshareRecord revokes a record share
func (h *Handlers) UnshareRecord(c *gin.Context) {
	err := h.service.UnshareRecord(c.Request.Context(), actorFrom(c), c.Param("id"), c.Param("userID"))
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Share revoked"})
}

// ListAccessLogs returns the access trail of a record
func (h *Handlers) ListAccessLogs(c *gin.Context) {
	limit, offset := pagination(c)
	logs, err := h.service.ListAccessLogs(c.Request.Context(), actorFrom(c), c.Param("id"), limit, offset)
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_logs": logs, "count": len(logs)})
}

// IssueCertificate creates a certificate for a patient
func (h *Handlers) IssueCertificate(c *gin.Context) {
	var req types.IssueCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": types.ErrCodeInvalidInput, "message": err.Error()})
		return
	}

	cert, err := h.service.IssueCertificate(c.Request.Context(), actorFrom(c), c.Param("id"), &req, clientInfo(c))
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, cert)
}

// ListCertificates returns a patient's certificates
func (h *Handlers) ListCertificates(c *gin.Context) {
	certs, err := h.service.ListCertificates(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"certificates": certs, "count": len(certs)})
}

// GetCertificate returns a single certificate
func (h *Handlers) GetCertificate(c *gin.Context) {
	cert, err := h.service.GetCertificate(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		httputil.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cert)
}

// RevokeCertificate transitions a certificate to revoked
func (h *Handlers) RevokeCertificate(c *gin.Context) {
	if err := h.service.RevokeCertificate(c.Request.Context(), actorFrom(c), c.Param("id"), clientInfo(c)); err != nil {
		httputil.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Certificate revoked"})
}

func actorFrom(c *gin.Context) Actor {
	return Actor{
		UserID: c.GetString("user_id"),
		Role:   c.GetString("user_role"),
	}
}

func clientInfo(c *gin.Context) ClientInfo {
	return ClientInfo{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

func pagination(c *gin.Context) (limit, offset int) {
	limit = 50
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
	return limit, offset
}
