package types

import "time"

// BloodType is the ABO/Rh blood group of a patient
type BloodType string

const (
	BloodAPositive  BloodType = "A+"
	BloodANegative  BloodType = "A-"
	BloodBPositive  BloodType = "B+"
	BloodBNegative  BloodType = "B-"
	BloodABPositive BloodType = "AB+"
	BloodABNegative BloodType = "AB-"
	BloodOPositive  BloodType = "O+"
	BloodONegative  BloodType = "O-"
)

// IsValid reports whether the blood type is a known group. Empty is allowed,
// patients may register before a workup.
func (b BloodType) IsValid() bool {
	switch b {
	case "", BloodAPositive, BloodANegative, BloodBPositive, BloodBNegative,
		BloodABPositive, BloodABNegative, BloodOPositive, BloodONegative:
		return true
	}
	return false
}

// Patient represents the extended patient profile attached to a user account
type Patient struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`

	BloodType         BloodType `json:"blood_type,omitempty" db:"blood_type"`
	Allergies         string    `json:"allergies,omitempty" db:"allergies"`
	ChronicConditions string    `json:"chronic_conditions,omitempty" db:"chronic_conditions"`

	EmergencyContactName     string `json:"emergency_contact_name" db:"emergency_contact_name"`
	EmergencyContactPhone    string `json:"emergency_contact_phone" db:"emergency_contact_phone"`
	EmergencyContactRelation string `json:"emergency_contact_relation" db:"emergency_contact_relation"`

	InsuranceProvider string `json:"insurance_provider,omitempty" db:"insurance_provider"`
	InsuranceNumber   string `json:"insurance_number,omitempty" db:"insurance_number"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RecordType categorizes medical records
type RecordType string

const (
	RecordConsultation RecordType = "consultation"
	RecordDiagnosis    RecordType = "diagnosis"
	RecordPrescription RecordType = "prescription"
	RecordLabResult    RecordType = "lab_result"
	RecordImaging      RecordType = "imaging"
	RecordProcedure    RecordType = "procedure"
	RecordVaccination  RecordType = "vaccination"
)

// IsValid reports whether the record type is recognized.
func (t RecordType) IsValid() bool {
	switch t {
	case RecordConsultation, RecordDiagnosis, RecordPrescription,
		RecordLabResult, RecordImaging, RecordProcedure, RecordVaccination:
		return true
	}
	return false
}

// GenesisHash is the previous_hash of the first record in a patient's chain.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// MedicalRecord represents a single entry in a patient's medical history.
// Records of one patient form a hash chain: each record's hash covers its
// content plus the hash of the record created before it.
type MedicalRecord struct {
	ID        string `json:"id" db:"id"`
	PatientID string `json:"patient_id" db:"patient_id"`
	CreatedBy string `json:"created_by" db:"created_by"`

	RecordType   RecordType `json:"record_type" db:"record_type"`
	Title        string     `json:"title" db:"title"`
	Diagnosis    string     `json:"diagnosis" db:"diagnosis"`
	Treatment    string     `json:"treatment" db:"treatment"`
	Prescription string     `json:"prescription,omitempty" db:"prescription"`
	Notes        string     `json:"notes,omitempty" db:"notes"`

	VisitDate time.Time `json:"visit_date" db:"visit_date"`

	RecordHash   string `json:"record_hash" db:"record_hash"`
	PreviousHash string `json:"previous_hash" db:"previous_hash"`

	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RecordShare grants a non-owner user read access to a record
type RecordShare struct {
	RecordID string    `json:"record_id" db:"record_id"`
	UserID   string    `json:"user_id" db:"user_id"`
	SharedBy string    `json:"shared_by" db:"shared_by"`
	SharedAt time.Time `json:"shared_at" db:"shared_at"`
}

// AccessType categorizes medical record access events
type AccessType string

const (
	AccessView     AccessType = "view"
	AccessDownload AccessType = "download"
	AccessShare    AccessType = "share"
	AccessEdit     AccessType = "edit"
)

// RecordAccessLog records every access to a medical record for compliance
type RecordAccessLog struct {
	ID         string     `json:"id" db:"id"`
	RecordID   string     `json:"record_id" db:"record_id"`
	AccessedBy string     `json:"accessed_by" db:"accessed_by"`
	AccessType AccessType `json:"access_type" db:"access_type"`
	IPAddress  string     `json:"ip_address" db:"ip_address"`
	UserAgent  string     `json:"user_agent" db:"user_agent"`
	AccessedAt time.Time  `json:"accessed_at" db:"accessed_at"`
}

// CertificateType categorizes medical certificates
type CertificateType string

const (
	CertSickLeave        CertificateType = "sick_leave"
	CertFitToWork        CertificateType = "fit_to_work"
	CertMedicalClearance CertificateType = "medical_clearance"
	CertVaccination      CertificateType = "vaccination"
	CertDisability       CertificateType = "disability"
)

// IsValid reports whether the certificate type is recognized.
func (t CertificateType) IsValid() bool {
	switch t {
	case CertSickLeave, CertFitToWork, CertMedicalClearance,
		CertVaccination, CertDisability:
		return true
	}
	return false
}

// CertificateStatus is the lifecycle state of a certificate
type CertificateStatus string

const (
	CertStatusPending CertificateStatus = "pending"
	CertStatusIssued  CertificateStatus = "issued"
	CertStatusRevoked CertificateStatus = "revoked"
)

// MedicalCertificate represents a certificate issued to a patient
type MedicalCertificate struct {
	ID        string `json:"id" db:"id"`
	PatientID string `json:"patient_id" db:"patient_id"`
	IssuedBy  string `json:"issued_by" db:"issued_by"`

	CertificateType CertificateType `json:"certificate_type" db:"certificate_type"`
	Purpose         string          `json:"purpose" db:"purpose"`
	Diagnosis       string          `json:"diagnosis" db:"diagnosis"`
	Recommendations string          `json:"recommendations" db:"recommendations"`

	ValidFrom  time.Time `json:"valid_from" db:"valid_from"`
	ValidUntil time.Time `json:"valid_until" db:"valid_until"`

	CertificateHash string            `json:"certificate_hash" db:"certificate_hash"`
	Status          CertificateStatus `json:"status" db:"status"`
	IssuedAt        time.Time         `json:"issued_at" db:"issued_at"`
}

// CreateRecordRequest is the payload for creating a medical record
type CreateRecordRequest struct {
	RecordType   RecordType `json:"record_type" binding:"required"`
	Title        string     `json:"title" binding:"required"`
	Diagnosis    string     `json:"diagnosis" binding:"required"`
	Treatment    string     `json:"treatment" binding:"required"`
	Prescription string     `json:"prescription,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	VisitDate    string     `json:"visit_date,omitempty"` // YYYY-MM-DD, defaults to today
}

// UpdateRecordRequest is the payload for amending a medical record. Nil
// fields are left unchanged.
type UpdateRecordRequest struct {
	Title        *string `json:"title,omitempty"`
	Diagnosis    *string `json:"diagnosis,omitempty"`
	Treatment    *string `json:"treatment,omitempty"`
	Prescription *string `json:"prescription,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

// UpdatePatientProfileRequest is the payload for updating a patient
// profile. Nil fields are left unchanged.
type UpdatePatientProfileRequest struct {
	BloodType                *BloodType `json:"blood_type,omitempty"`
	Allergies                *string    `json:"allergies,omitempty"`
	ChronicConditions        *string    `json:"chronic_conditions,omitempty"`
	EmergencyContactName     *string    `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone    *string    `json:"emergency_contact_phone,omitempty"`
	EmergencyContactRelation *string    `json:"emergency_contact_relation,omitempty"`
	InsuranceProvider        *string    `json:"insurance_provider,omitempty"`
	InsuranceNumber          *string    `json:"insurance_number,omitempty"`
}

// IssueCertificateRequest is the payload for issuing a certificate
type IssueCertificateRequest struct {
	CertificateType CertificateType `json:"certificate_type" binding:"required"`
	Purpose         string          `json:"purpose" binding:"required"`
	Diagnosis       string          `json:"diagnosis" binding:"required"`
	Recommendations string          `json:"recommendations,omitempty"`
	ValidFrom       string          `json:"valid_from" binding:"required"`  // YYYY-MM-DD
	ValidUntil      string          `json:"valid_until" binding:"required"` // YYYY-MM-DD
}
