package patients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/interfaces"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/monitoring"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/rbac"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

// Actor identifies the authenticated caller of a service operation
type Actor struct {
	UserID string
	Role   string
}

// ClientInfo carries request metadata for access logging
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// AccessEvaluator decides whether an actor may perform an action
type AccessEvaluator interface {
	Evaluate(ctx context.Context, req *rbac.AccessRequest) (*rbac.AccessDecision, error)
}

// ChainVerification is the result of walking a patient's record chain
type ChainVerification struct {
	PatientID string `json:"patient_id"`
	Records   int    `json:"records"`
	Valid     bool   `json:"valid"`
	Detail    string `json:"detail,omitempty"`
}

// Service implements patient profiles, medical records and certificates
type Service struct {
	logger      *logger.Logger
	patientRepo interfaces.PatientRepository
	recordRepo  interfaces.RecordRepository
	certRepo    interfaces.CertificateRepository
	userRepo    interfaces.UserRepository
	access      AccessEvaluator
	audit       interfaces.AuditLogger
	metrics     *monitoring.MetricsCollector
}

// NewService creates a new patients service
func NewService(
	log *logger.Logger,
	patientRepo interfaces.PatientRepository,
	recordRepo interfaces.RecordRepository,
	certRepo interfaces.CertificateRepository,
	userRepo interfaces.UserRepository,
	access AccessEvaluator,
	audit interfaces.AuditLogger,
	metrics *monitoring.MetricsCollector,
) *Service {
	return &Service{
		logger:      log,
		patientRepo: patientRepo,
		recordRepo:  recordRepo,
		certRepo:    certRepo,
		userRepo:    userRepo,
		access:      access,
		audit:       audit,
		metrics:     metrics,
	}
}

// GetMyProfile returns the caller's own patient profile, creating an empty
// one on first access. Registration only creates the account; the profile
// materializes here.
func (s *Service) GetMyProfile(ctx context.Context, actor Actor) (*types.Patient, error) {
	patient, err := s.patientRepo.GetByUserID(ctx, actor.UserID)
	if err == nil {
		return patient, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	now := time.Now()
	patient = &types.Patient{
		ID:        uuid.New().String(),
		UserID:    actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.patientRepo.Create(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

// GetProfile returns a patient profile by ID
func (s *Service) GetProfile(ctx context.Context, actor Actor, patientID string) (*types.Patient, error) {
	patient, err := s.patientRepo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	if _, err := s.authorize(ctx, actor, rbac.ResourcePatientProfile, rbac.ActionRead, patient.UserID, nil); err != nil {
		return nil, err
	}
	return patient, nil
}

// UpdateProfile updates the mutable fields of a patient profile
func (s *Service) UpdateProfile(ctx context.Context, actor Actor, patientID string, req *types.UpdatePatientProfileRequest) (*types.Patient, error) {
	patient, err := s.patientRepo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	if _, err := s.authorize(ctx, actor, rbac.ResourcePatientProfile, rbac.ActionUpdate, patient.UserID, nil); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.BloodType != nil {
		if !req.BloodType.IsValid() {
			return nil, types.NewValidationError(types.ErrCodeInvalidInput, "Invalid blood type", nil)
		}
		updates["blood_type"] = string(*req.BloodType)
	}
	if req.Allergies != nil {
		updates["allergies"] = *req.Allergies
	}
	if req.ChronicConditions != nil {
		updates["chronic_conditions"] = *req.ChronicConditions
	}
	if req.EmergencyContactName != nil {
		updates["emergency_contact_name"] = *req.EmergencyContactName
	}
	if req.EmergencyContactPhone != nil {
		updates["emergency_contact_phone"] = *req.EmergencyContactPhone
	}
	if req.EmergencyContactRelation != nil {
		updates["emergency_contact_relation"] = *req.EmergencyContactRelation
	}
	if req.InsuranceProvider != nil {
		updates["insurance_provider"] = *req.InsuranceProvider
	}
	if req.InsuranceNumber != nil {
		updates["insurance_number"] = *req.InsuranceNumber
	}
	if len(updates) == 0 {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "No fields to update", nil)
	}

	if err := s.patientRepo.Update(ctx, patientID, updates); err != nil {
		return nil, err
	}

	s.auditEvent(ctx, &types.AuditEntry{
		UserID:  actor.UserID,
		Action:  types.AuditProfileUpdate,
		Success: true,
		Details: map[string]interface{}{"patient_id": patientID},
	})

	return s.patientRepo.GetByID(ctx, patientID)
}

// ListProfiles returns patient profiles for clinical staff
func (s *Service) ListProfiles(ctx context.Context, actor Actor, limit, offset int) ([]*types.Patient, error) {
	if _, err := s.authorize(ctx, actor, rbac.ResourcePatientProfile, rbac.ActionList, "", nil); err != nil {
		return nil, err
	}
	return s.patientRepo.List(ctx, limit, offset)
}

// nurseRecordTypes lists the record types nurses may author: routine
// observations and administered vaccinations. Diagnoses, prescriptions,
// imaging, and procedures stay with doctors.
var nurseRecordTypes = map[types.RecordType]bool{
	types.RecordConsultation: true,
	types.RecordLabResult:    true,
	types.RecordVaccination:  true,
}

// CreateRecord appends a new medical record to the patient's chain
func (s *Service) CreateRecord(ctx context.Context, actor Actor, patientID string, req *types.CreateRecordRequest, client ClientInfo) (*types.MedicalRecord, error) {
	if _, err := s.authorize(ctx, actor, rbac.ResourceMedicalRecord, rbac.ActionCreate, "", nil); err != nil {
		return nil, err
	}

	if !req.RecordType.IsValid() {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput,
			fmt.Sprintf("Unknown record type %q", req.RecordType), nil)
	}

	if actor.Role == string(types.RoleNurse) && !nurseRecordTypes[req.RecordType] {
		s.auditEvent(ctx, &types.AuditEntry{
			UserID:    actor.UserID,
			Action:    types.AuditAccessDenied,
			IPAddress: client.IPAddress,
			UserAgent: client.UserAgent,
			Success:   false,
			Details: map[string]interface{}{
				"resource":    rbac.ResourceMedicalRecord,
				"record_type": req.RecordType,
			},
		})
		return nil, types.NewAuthorizationError(types.ErrCodeForbidden,
			"Nurses can only record consultations, lab results, and vaccinations")
	}

	patient, err := s.patientRepo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	visitDate := time.Now().UTC()
	if req.VisitDate != "" {
		visitDate, err = time.Parse("2006-01-02", req.VisitDate)
		if err != nil {
			return nil, types.NewValidationError(types.ErrCodeInvalidInput, "visit_date must be YYYY-MM-DD", nil)
		}
	}

	previousHash := types.GenesisHash
	latest, err := s.recordRepo.LatestForPatient(ctx, patient.ID)
	if err != nil {
		if !isNotFound(err) {
			return nil, err
		}
	} else {
		previousHash = latest.RecordHash
	}

	now := time.Now()
	record := &types.MedicalRecord{
		ID:           uuid.New().String(),
		PatientID:    patient.ID,
		CreatedBy:    actor.UserID,
		RecordType:   req.RecordType,
		Title:        req.Title,
		Diagnosis:    req.Diagnosis,
		Treatment:    req.Treatment,
		Prescription: req.Prescription,
		Notes:        req.Notes,
		VisitDate:    visitDate,
		PreviousHash: previousHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	record.RecordHash, err = ComputeRecordHash(record)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "Failed to hash record", err)
	}

	if err := s.recordRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.logRecordAccess(ctx, actor, record, types.AccessEdit, client)
	s.auditEvent(ctx, &types.AuditEntry{
		UserID:    actor.UserID,
		Action:    types.AuditRecordCreated,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		Success:   true,
		Details: map[string]interface{}{
			"record_id":   record.ID,
			"patient_id":  patient.ID,
			"record_type": string(record.RecordType),
		},
	})

	return record, nil
}

// ListRecords returns a patient's active records in chain order
func (s *Service) ListRecords(ctx context.Context, actor Actor, patientID string) ([]*types.MedicalRecord, error) {
	patient, err := s.patientRepo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	decision, err := s.authorize(ctx, actor, rbac.ResourceMedicalRecord, rbac.ActionList, patient.UserID, nil)
	if err != nil {
		return nil, err
	}

	// Staff see soft-deleted records, patients do not.
	includeInactive := decision.Scope == rbac.ScopeAny
	return s.recordRepo.ListByPatient(ctx, patient.ID, includeInactive)
}

// GetRecord returns a single record and logs the access
func (s *Service) GetRecord(ctx context.Context, actor Actor, recordID string, client ClientInfo) (*types.MedicalRecord, error) {
	record, owner, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	decision, err := s.authorize(ctx, actor, rbac.ResourceMedicalRecord, rbac.ActionRead, owner, s.sharedContext(ctx, recordID, actor, owner))
	if err != nil {
		s.metrics.RecordRecordAccess(actor.Role, string(types.AccessView), "denied")
		return nil, err
	}

	if !record.IsActive && decision.Scope != rbac.ScopeAny {
		return nil, types.NewNotFoundError(types.ErrCodeRecordNotFound, "Medical record not found")
	}

	s.logRecordAccess(ctx, actor, record, types.AccessView, client)
	s.metrics.RecordRecordAccess(actor.Role, string(types.AccessView), "allowed")
	return record, nil
}

// UpdateRecord amends the most recent record of a patient's chain. Older
// records are immutable; editing one would invalidate every hash after it.
func (s *Service) UpdateRecord(ctx context.Context, actor Actor, recordID string, req *types.UpdateRecordRequest, client ClientInfo) (*types.MedicalRecord, error) {
	record, owner, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	if _, err := s.authorize(ctx, actor, rbac.ResourceMedicalRecord, rbac.ActionUpdate, owner, nil); err != nil {
		return nil, err
	}

	latest, err := s.recordRepo.LatestForPatient(ctx, record.PatientID)
	if err != nil {
		return nil, err
	}
	if latest.ID != record.ID {
		return nil, types.NewConflictError(types.ErrCodeRecordChainViolation,
			"Only the most recent record can be amended; append a new record instead")
	}

	if req.Title != nil {
		record.Title = *req.Title
	}
	if req.Diagnosis != nil {
		record.Diagnosis = *req.Diagnosis
	}
	if req.Treatment != nil {
		record.Treatment = *req.Treatment
	}
	if req.Prescription != nil {
		record.Prescription = *req.Prescription
	}
	if req.Notes != nil {
		record.Notes = *req.Notes
	}

	record.RecordHash, err = ComputeRecordHash(record)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "Failed to hash record", err)
	}

	if err := s.recordRepo.Update(ctx, record); err != nil {
		return nil, err
	}

	s.logRecordAccess(ctx, actor, record, types.AccessEdit, client)
	s.auditEvent(ctx, &types.AuditEntry{
		UserID:    actor.UserID,
		Action:    types.AuditRecordUpdated,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		Success:   true,
		Details:   map[string]interface{}{"record_id": record.ID},
	})

	return record, nil
}

// DeleteRecord soft-deletes a record. Only the author may delete, and the
// row stays in place so the chain keeps its link.
func (s *Service) DeleteRecord(ctx context.Context, actor Actor, recordID string, client ClientInfo) error {
	record, _, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return err
	}

	// Deletion ownership is authorship, not patienthood.
	if _, err := s.authorize(ctx, actor, rbac.ResourceMedicalRecord, rbac.ActionDelete, record.CreatedBy, nil); err != nil {
		return err
	}

	if err := s.recordRepo.SoftDelete(ctx, recordID); err != nil {
		return err
	}

	s.auditEvent(ctx, &types.AuditEntry{
		UserID:    actor.UserID,
		Action:    types.AuditRecordDeleted,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		Success:   true,
		Details:   map[string]interface{}{"record_id": recordID},
	})
	return nil
}

// ShareRecord grants another user read access to a record
func (s *Service) ShareRecord(ctx context.Context, actor Actor, recordID, targetUserID string, client ClientInfo) error {
	record, owner, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return err
	}

	if _, err := s.authorize(ctx, actor, rbac.ResourceMedicalRecord, rbac.ActionShare, owner, nil); err != nil {
		return err
	}

	target, err := s.userRepo.GetByID(ctx, targetUserID)
	if err != nil {
		return err
	}
	if !target.IsActive {
		return types.NewValidationError(types.ErrCodeInvalidInput, "Cannot share with an inactive account", nil)
	}

	err = s.recordRepo.Share(ctx, &types.RecordShare{
		RecordID: record.ID,
		UserID:   target.ID,
		SharedBy: actor.UserID,
		SharedAt: time.Now(),
	})
	if err != nil {
		return err
	}

	s.logRecordAccess(ctx, actor, record, types.AccessShare, client)
	s.auditEvent(ctx, &types.AuditEntry{
		UserID:    actor.UserID,
		Action:    types.AuditRecordShared,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		Success:   true,
		Details: map[string]interface{}{
			"record_id":   record.ID,
			"shared_with": target.ID,
		},
	})
	return nil
}

// UnshareRecord revokes a previously granted share
func (s *Service) UnshareRecord(ctx context.Context, actor Actor, recordID, targetUserID string) error {
	_, owner, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return err
	}

	if _, err := s.authorize(ctx, actor, rbac.ResourceMedicalRecord, rbac.ActionShare, owner, nil); err != nil {
		return err
	}
	return s.recordRepo.Unshare(ctx, recordID, targetUserID)
}

// VerifyPatientChain recomputes every hash in the patient's chain
func (s *Service) VerifyPatientChain(ctx context.Context, actor Actor, patientID string) (*ChainVerification, error) {
	patient, err := s.patientRepo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	if _, err := s.authorize(ctx, actor, rbac.ResourceMedicalRecord, rbac.ActionList, patient.UserID, nil); err != nil {
		return nil, err
	}

	// The walk must cover every link, soft-deleted entries included.
	records, err := s.recordRepo.ListByPatient(ctx, patient.ID, true)
	if err != nil {
		return nil, err
	}

	result := &ChainVerification{
		PatientID: patient.ID,
		Records:   len(records),
		Valid:     true,
	}
	if err := VerifyChain(records); err != nil {
		result.Valid = false
		result.Detail = err.Error()
		s.logger.Security("record_chain_violation", actor.UserID, map[string]interface{}{
			"patient_id": patient.ID,
			"detail":     err.Error(),
		})
	}
	return result, nil
}

// ListAccessLogs returns the access trail of a record. Visibility follows
// read access to the record itself.
func (s *Service) ListAccessLogs(ctx context.Context, actor Actor, recordID string, limit, offset int) ([]*types.RecordAccessLog, error) {
	_, owner, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	if _, err := s.authorize(ctx, actor, rbac.ResourceMedicalRecord, rbac.ActionRead, owner, s.sharedContext(ctx, recordID, actor, owner)); err != nil {
		return nil, err
	}
	return s.recordRepo.ListAccessLogs(ctx, recordID, limit, offset)
}

// IssueCertificate creates a certificate for a patient
func (s *Service) IssueCertificate(ctx context.Context, actor Actor, patientID string, req *types.IssueCertificateRequest, client ClientInfo) (*types.MedicalCertificate, error) {
	if _, err := s.authorize(ctx, actor, rbac.ResourceCertificate, rbac.ActionIssue, "", nil); err != nil {
		return nil, err
	}

	if !req.CertificateType.IsValid() {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput,
			fmt.Sprintf("Unknown certificate type %q", req.CertificateType), nil)
	}

	patient, err := s.patientRepo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	validFrom, err := time.Parse("2006-01-02", req.ValidFrom)
	if err != nil {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "valid_from must be YYYY-MM-DD", nil)
	}
	validUntil, err := time.Parse("2006-01-02", req.ValidUntil)
	if err != nil {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "valid_until must be YYYY-MM-DD", nil)
	}
	if !validUntil.After(validFrom) {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "valid_until must be after valid_from", nil)
	}

	cert := &types.MedicalCertificate{
		ID:              uuid.New().String(),
		PatientID:       patient.ID,
		IssuedBy:        actor.UserID,
		CertificateType: req.CertificateType,
		Purpose:         req.Purpose,
		Diagnosis:       req.Diagnosis,
		Recommendations: req.Recommendations,
		ValidFrom:       validFrom,
		ValidUntil:      validUntil,
		Status:          types.CertStatusIssued,
		IssuedAt:        time.Now(),
	}

	cert.CertificateHash, err = ComputeCertificateHash(cert)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "Failed to hash certificate", err)
	}

	if err := s.certRepo.Create(ctx, cert); err != nil {
		return nil, err
	}

	s.auditEvent(ctx, &types.AuditEntry{
		UserID:    actor.UserID,
		Action:    types.AuditCertIssued,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		Success:   true,
		Details: map[string]interface{}{
			"certificate_id":   cert.ID,
			"patient_id":       patient.ID,
			"certificate_type": string(cert.CertificateType),
		},
	})

	return cert, nil
}

// ListCertificates returns a patient's certificates
func (s *Service) ListCertificates(ctx context.Context, actor Actor, patientID string) ([]*types.MedicalCertificate, error) {
	patient, err := s.patientRepo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	if _, err := s.authorize(ctx, actor, rbac.ResourceCertificate, rbac.ActionList, patient.UserID, nil); err != nil {
		return nil, err
	}
	return s.certRepo.ListByPatient(ctx, patient.ID)
}

// GetCertificate returns a single certificate
func (s *Service) GetCertificate(ctx context.Context, actor Actor, certificateID string) (*types.MedicalCertificate, error) {
	cert, err := s.certRepo.GetByID(ctx, certificateID)
	if err != nil {
		return nil, err
	}

	patient, err := s.patientRepo.GetByID(ctx, cert.PatientID)
	if err != nil {
		return nil, err
	}

	if _, err := s.authorize(ctx, actor, rbac.ResourceCertificate, rbac.ActionRead, patient.UserID, nil); err != nil {
		return nil, err
	}
	return cert, nil
}

// RevokeCertificate transitions an issued certificate to revoked
func (s *Service) RevokeCertificate(ctx context.Context, actor Actor, certificateID string, client ClientInfo) error {
	cert, err := s.certRepo.GetByID(ctx, certificateID)
	if err != nil {
		return err
	}

	if _, err := s.authorize(ctx, actor, rbac.ResourceCertificate, rbac.ActionRevoke, "", nil); err != nil {
		return err
	}

	if cert.Status == types.CertStatusRevoked {
		return types.NewConflictError(types.ErrCodeInvalidInput, "Certificate is already revoked")
	}

	if err := s.certRepo.UpdateStatus(ctx, certificateID, types.CertStatusRevoked); err != nil {
		return err
	}

	s.auditEvent(ctx, &types.AuditEntry{
		UserID:    actor.UserID,
		Action:    types.AuditCertRevoked,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		Success:   true,
		Details:   map[string]interface{}{"certificate_id": certificateID},
	})
	return nil
}

// loadRecord fetches a record and resolves the owning patient's user ID
func (s *Service) loadRecord(ctx context.Context, recordID string) (*types.MedicalRecord, string, error) {
	record, err := s.recordRepo.GetByID(ctx, recordID)
	if err != nil {
		return nil, "", err
	}

	patient, err := s.patientRepo.GetByID(ctx, record.PatientID)
	if err != nil {
		return nil, "", err
	}
	return record, patient.UserID, nil
}

// sharedContext marks the access request as shared when the record has been
// shared with the actor. The share lookup is skipped for owners.
func (s *Service) sharedContext(ctx context.Context, recordID string, actor Actor, owner string) map[string]string {
	if actor.UserID == owner {
		return nil
	}
	shared, err := s.recordRepo.IsSharedWith(ctx, recordID, actor.UserID)
	if err != nil {
		s.logger.WithError(err).Warn("Share lookup failed")
		return nil
	}
	if !shared {
		return nil
	}
	return map[string]string{"shared": "true"}
}

func (s *Service) authorize(ctx context.Context, actor Actor, resource, action, ownerID string, reqCtx map[string]string) (*rbac.AccessDecision, error) {
	decision, err := s.access.Evaluate(ctx, &rbac.AccessRequest{
		UserID:    actor.UserID,
		Role:      actor.Role,
		Resource:  resource,
		Action:    action,
		OwnerID:   ownerID,
		Context:   reqCtx,
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

func (s *Service) logRecordAccess(ctx context.Context, actor Actor, record *types.MedicalRecord, accessType types.AccessType, client ClientInfo) {
	s.logger.RecordAccess(ctx, actor.UserID, record.PatientID, record.ID, string(accessType), true)

	err := s.recordRepo.LogAccess(ctx, &types.RecordAccessLog{
		ID:         uuid.New().String(),
		RecordID:   record.ID,
		AccessedBy: actor.UserID,
		AccessType: accessType,
		IPAddress:  client.IPAddress,
		UserAgent:  client.UserAgent,
		AccessedAt: time.Now(),
	})
	if err != nil {
		// The access itself already succeeded; losing the log row must not
		// fail the request.
		s.logger.WithError(err).Error("Failed to write record access log")
	}
}

func isNotFound(err error) bool {
	var portalErr *types.PortalError
	return errors.As(err, &portalErr) && portalErr.Type == types.ErrorTypeNotFound
}

func (s *Service) auditEvent(ctx context.Context, entry *types.AuditEntry) {
	entry.ID = uuid.New().String()
	entry.Timestamp = time.Now()
	s.audit.Append(ctx, entry)
	s.metrics.RecordAuditEvent(string(entry.Action), entry.Success)
}
