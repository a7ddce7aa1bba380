package interfaces

import (
	"context"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

// PatientRepository defines patient profile persistence operations
type PatientRepository interface {
	Create(ctx context.Context, patient *types.Patient) error
	GetByID(ctx context.Context, id string) (*types.Patient, error)
	GetByUserID(ctx context.Context, userID string) (*types.Patient, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	List(ctx context.Context, limit, offset int) ([]*types.Patient, error)
}

// RecordRepository defines medical record persistence operations
type RecordRepository interface {
	Create(ctx context.Context, record *types.MedicalRecord) error
	GetByID(ctx context.Context, id string) (*types.MedicalRecord, error)
	LatestForPatient(ctx context.Context, patientID string) (*types.MedicalRecord, error)
	ListByPatient(ctx context.Context, patientID string, includeInactive bool) ([]*types.MedicalRecord, error)
	Update(ctx context.Context, record *types.MedicalRecord) error
	SoftDelete(ctx context.Context, id string) error
	Share(ctx context.Context, share *types.RecordShare) error
	Unshare(ctx context.Context, recordID, userID string) error
	IsSharedWith(ctx context.Context, recordID, userID string) (bool, error)
	LogAccess(ctx context.Context, entry *types.RecordAccessLog) error
	ListAccessLogs(ctx context.Context, recordID string, limit, offset int) ([]*types.RecordAccessLog, error)
}

// CertificateRepository defines medical certificate persistence operations
type CertificateRepository interface {
	Create(ctx context.Context, cert *types.MedicalCertificate) error
	GetByID(ctx context.Context, id string) (*types.MedicalCertificate, error)
	ListByPatient(ctx context.Context, patientID string) ([]*types.MedicalCertificate, error)
	UpdateStatus(ctx context.Context, id string, status types.CertificateStatus) error
}
