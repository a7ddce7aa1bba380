package patients

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/database"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

const patientColumns = `id, user_id, blood_type, allergies, chronic_conditions,
		emergency_contact_name, emergency_contact_phone, emergency_contact_relation,
		insurance_provider, insurance_number, created_at, updated_at`

// PatientRepository implements patient profile persistence
type PatientRepository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewPatientRepository creates a new patient repository
func NewPatientRepository(db *database.DB, log *logger.Logger) *PatientRepository {
	return &PatientRepository{
		db:     db,
		logger: log,
	}
}

// Create creates a new patient profile
func (r *PatientRepository) Create(ctx context.Context, patient *types.Patient) error {
	query := `
		INSERT INTO patients (` + patientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecBound(ctx, query,
		patient.ID,
		patient.UserID,
		patient.BloodType,
		patient.Allergies,
		patient.ChronicConditions,
		patient.EmergencyContactName,
		patient.EmergencyContactPhone,
		patient.EmergencyContactRelation,
		patient.InsuranceProvider,
		patient.InsuranceNumber,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient profile: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"patient_id": patient.ID,
	}).Info("Patient profile created")
	return nil
}

// GetByID retrieves a patient profile by ID
func (r *PatientRepository) GetByID(ctx context.Context, id string) (*types.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	return scanPatient(r.db.QueryRowBound(ctx, query, id))
}

// GetByUserID retrieves a patient profile by the owning user's ID
func (r *PatientRepository) GetByUserID(ctx context.Context, userID string) (*types.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE user_id = $1`
	return scanPatient(r.db.QueryRowBound(ctx, query, userID))
}

// Update updates patient profile fields from a whitelist
func (r *PatientRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return fmt.Errorf("no updates provided")
	}

	setParts := make([]string, 0, len(updates)+1)
	args := make([]interface{}, 0, len(updates)+2)
	argIndex := 1

	for field, value := range updates {
		switch field {
		case "blood_type", "allergies", "chronic_conditions",
			"emergency_contact_name", "emergency_contact_phone", "emergency_contact_relation",
			"insurance_provider", "insurance_number":
			setParts = append(setParts, fmt.Sprintf("%s = $%d", field, argIndex))
			args = append(args, value)
		default:
			return fmt.Errorf("invalid field for update: %s", field)
		}
		argIndex++
	}

	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", argIndex))
	args = append(args, time.Now())
	argIndex++
	args = append(args, id)

	query := fmt.Sprintf("UPDATE patients SET %s WHERE id = $%d",
		strings.Join(setParts, ", "), argIndex)

	result, err := r.db.ExecBound(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update patient profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return types.NewNotFoundError(types.ErrCodePatientNotFound, "Patient not found")
	}
	return nil
}

// List retrieves patient profiles with pagination
func (r *PatientRepository) List(ctx context.Context, limit, offset int) ([]*types.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients ORDER BY created_at DESC`

	args := make([]interface{}, 0, 2)
	argIndex := 1
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
		argIndex++
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, offset)
	}

	rows, err := r.db.QueryBound(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	var patients []*types.Patient
	for rows.Next() {
		var p types.Patient
		err := rows.Scan(
			&p.ID, &p.UserID, &p.BloodType, &p.Allergies, &p.ChronicConditions,
			&p.EmergencyContactName, &p.EmergencyContactPhone, &p.EmergencyContactRelation,
			&p.InsuranceProvider, &p.InsuranceNumber, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patient row: %w", err)
		}
		patients = append(patients, &p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patient rows: %w", err)
	}
	return patients, nil
}

func scanPatient(row *sql.Row) (*types.Patient, error) {
	var p types.Patient
	err := row.Scan(
		&p.ID, &p.UserID, &p.BloodType, &p.Allergies, &p.ChronicConditions,
		&p.EmergencyContactName, &p.EmergencyContactPhone, &p.EmergencyContactRelation,
		&p.InsuranceProvider, &p.InsuranceNumber, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError(types.ErrCodePatientNotFound, "Patient not found")
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &p, nil
}

const recordColumns = `id, patient_id, created_by, record_type, title, diagnosis,
		treatment, prescription, notes, visit_date, record_hash, previous_hash,
		is_active, created_at, updated_at`

// RecordRepository implements medical record persistence, including the
// share list and the per-record access log.
type RecordRepository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRecordRepository creates a new medical record repository
func NewRecordRepository(db *database.DB, log *logger.Logger) *RecordRepository {
	return &RecordRepository{
		db:     db,
		logger: log,
	}
}

// Create inserts a new medical record
func (r *RecordRepository) Create(ctx context.Context, record *types.MedicalRecord) error {
	query := `
		INSERT INTO medical_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.ExecBound(ctx, query,
		record.ID,
		record.PatientID,
		record.CreatedBy,
		record.RecordType,
		record.Title,
		record.Diagnosis,
		record.Treatment,
		record.Prescription,
		record.Notes,
		record.VisitDate,
		record.RecordHash,
		record.PreviousHash,
		record.IsActive,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create medical record: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"record_id":  record.ID,
		"patient_id": record.PatientID,
	}).Info("Medical record created")
	return nil
}

// GetByID retrieves a medical record by ID, including soft-deleted records
func (r *RecordRepository) GetByID(ctx context.Context, id string) (*types.MedicalRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM medical_records WHERE id = $1`
	return scanRecord(r.db.QueryRowBound(ctx, query, id))
}

// LatestForPatient returns the chain tip, the most recently created record
// of the patient, soft-deleted ones included.
func (r *RecordRepository) LatestForPatient(ctx context.Context, patientID string) (*types.MedicalRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM medical_records
		WHERE patient_id = $1 ORDER BY created_at DESC LIMIT 1`
	return scanRecord(r.db.QueryRowBound(ctx, query, patientID))
}

// ListByPatient retrieves a patient's records oldest first, in chain order
func (r *RecordRepository) ListByPatient(ctx context.Context, patientID string, includeInactive bool) ([]*types.MedicalRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM medical_records WHERE patient_id = $1`
	if !includeInactive {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.QueryBound(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}
	defer rows.Close()

	var records []*types.MedicalRecord
	for rows.Next() {
		record, err := scanRecordRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating record rows: %w", err)
	}
	return records, nil
}

// Update rewrites the mutable content of a record together with its
// recomputed hash.
func (r *RecordRepository) Update(ctx context.Context, record *types.MedicalRecord) error {
	query := `
		UPDATE medical_records
		SET title = $1, diagnosis = $2, treatment = $3, prescription = $4,
			notes = $5, record_hash = $6, updated_at = $7
		WHERE id = $8`

	result, err := r.db.ExecBound(ctx, query,
		record.Title,
		record.Diagnosis,
		record.Treatment,
		record.Prescription,
		record.Notes,
		record.RecordHash,
		time.Now(),
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update medical record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return types.NewNotFoundError(types.ErrCodeRecordNotFound, "Medical record not found")
	}
	return nil
}

// SoftDelete marks a record inactive. The row stays in place so the hash
// chain keeps its link.
func (r *RecordRepository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE medical_records SET is_active = FALSE, updated_at = $1 WHERE id = $2`

	result, err := r.db.ExecBound(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to soft delete medical record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return types.NewNotFoundError(types.ErrCodeRecordNotFound, "Medical record not found")
	}
	return nil
}

// Share grants a user read access to a record
func (r *RecordRepository) Share(ctx context.Context, share *types.RecordShare) error {
	query := `
		INSERT INTO record_shares (record_id, user_id, shared_by, shared_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecBound(ctx, query, share.RecordID, share.UserID, share.SharedBy, share.SharedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") ||
			strings.Contains(err.Error(), "duplicate key") {
			return nil // already shared, idempotent
		}
		return fmt.Errorf("failed to share record: %w", err)
	}
	return nil
}

// Unshare revokes a user's access to a record
func (r *RecordRepository) Unshare(ctx context.Context, recordID, userID string) error {
	query := `DELETE FROM record_shares WHERE record_id = $1 AND user_id = $2`

	_, err := r.db.ExecBound(ctx, query, recordID, userID)
	if err != nil {
		return fmt.Errorf("failed to unshare record: %w", err)
	}
	return nil
}

// IsSharedWith reports whether a record is shared with the user
func (r *RecordRepository) IsSharedWith(ctx context.Context, recordID, userID string) (bool, error) {
	query := `SELECT COUNT(1) FROM record_shares WHERE record_id = $1 AND user_id = $2`

	var count int
	err := r.db.QueryRowBound(ctx, query, recordID, userID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check record share: %w", err)
	}
	return count > 0, nil
}

// LogAccess appends a row to the record access log
func (r *RecordRepository) LogAccess(ctx context.Context, entry *types.RecordAccessLog) error {
	query := `
		INSERT INTO record_access_logs (id, record_id, accessed_by, access_type, ip_address, user_agent, accessed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecBound(ctx, query,
		entry.ID,
		entry.RecordID,
		entry.AccessedBy,
		entry.AccessType,
		entry.IPAddress,
		entry.UserAgent,
		entry.AccessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to log record access: %w", err)
	}
	return nil
}

// ListAccessLogs retrieves access log rows for a record, newest first
func (r *RecordRepository) ListAccessLogs(ctx context.Context, recordID string, limit, offset int) ([]*types.RecordAccessLog, error) {
	query := `
		SELECT id, record_id, accessed_by, access_type, ip_address, user_agent, accessed_at
		FROM record_access_logs
		WHERE record_id = $1
		ORDER BY accessed_at DESC`

	args := []interface{}{recordID}
	argIndex := 2
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
		argIndex++
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, offset)
	}

	rows, err := r.db.QueryBound(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list access logs: %w", err)
	}
	defer rows.Close()

	var logs []*types.RecordAccessLog
	for rows.Next() {
		var l types.RecordAccessLog
		err := rows.Scan(&l.ID, &l.RecordID, &l.AccessedBy, &l.AccessType,
			&l.IPAddress, &l.UserAgent, &l.AccessedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan access log row: %w", err)
		}
		logs = append(logs, &l)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating access log rows: %w", err)
	}
	return logs, nil
}

func scanRecord(row *sql.Row) (*types.MedicalRecord, error) {
	var m types.MedicalRecord
	err := row.Scan(
		&m.ID, &m.PatientID, &m.CreatedBy, &m.RecordType, &m.Title, &m.Diagnosis,
		&m.Treatment, &m.Prescription, &m.Notes, &m.VisitDate, &m.RecordHash,
		&m.PreviousHash, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError(types.ErrCodeRecordNotFound, "Medical record not found")
		}
		return nil, fmt.Errorf("failed to get medical record: %w", err)
	}
	return &m, nil
}

func scanRecordRow(rows *sql.Rows) (*types.MedicalRecord, error) {
	var m types.MedicalRecord
	err := rows.Scan(
		&m.ID, &m.PatientID, &m.CreatedBy, &m.RecordType, &m.Title, &m.Diagnosis,
		&m.Treatment, &m.Prescription, &m.Notes, &m.VisitDate, &m.RecordHash,
		&m.PreviousHash, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan record row: %w", err)
	}
	return &m, nil
}

const certificateColumns = `id, patient_id, issued_by, certificate_type, purpose,
		diagnosis, recommendations, valid_from, valid_until, certificate_hash,
		status, issued_at`

// CertificateRepository implements medical certificate persistence
type CertificateRepository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewCertificateRepository creates a new certificate repository
func NewCertificateRepository(db *database.DB, log *logger.Logger) *CertificateRepository {
	return &CertificateRepository{
		db:     db,
		logger: log,
	}
}

// Create inserts a new certificate
func (r *CertificateRepository) Create(ctx context.Context, cert *types.MedicalCertificate) error {
	query := `
		INSERT INTO medical_certificates (` + certificateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecBound(ctx, query,
		cert.ID,
		cert.PatientID,
		cert.IssuedBy,
		cert.CertificateType,
		cert.Purpose,
		cert.Diagnosis,
		cert.Recommendations,
		cert.ValidFrom,
		cert.ValidUntil,
		cert.CertificateHash,
		cert.Status,
		cert.IssuedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"certificate_id": cert.ID,
		"patient_id":     cert.PatientID,
	}).Info("Medical certificate created")
	return nil
}

// GetByID retrieves a certificate by ID
func (r *CertificateRepository) GetByID(ctx context.Context, id string) (*types.MedicalCertificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM medical_certificates WHERE id = $1`

	var c types.MedicalCertificate
	err := r.db.QueryRowBound(ctx, query, id).Scan(
		&c.ID, &c.PatientID, &c.IssuedBy, &c.CertificateType, &c.Purpose,
		&c.Diagnosis, &c.Recommendations, &c.ValidFrom, &c.ValidUntil,
		&c.CertificateHash, &c.Status, &c.IssuedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError(types.ErrCodeCertificateNotFound, "Certificate not found")
		}
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}
	return &c, nil
}

// ListByPatient retrieves a patient's certificates, newest first
func (r *CertificateRepository) ListByPatient(ctx context.Context, patientID string) ([]*types.MedicalCertificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM medical_certificates
		WHERE patient_id = $1 ORDER BY issued_at DESC`

	rows, err := r.db.QueryBound(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	defer rows.Close()

	var certs []*types.MedicalCertificate
	for rows.Next() {
		var c types.MedicalCertificate
		err := rows.Scan(
			&c.ID, &c.PatientID, &c.IssuedBy, &c.CertificateType, &c.Purpose,
			&c.Diagnosis, &c.Recommendations, &c.ValidFrom, &c.ValidUntil,
			&c.CertificateHash, &c.Status, &c.IssuedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan certificate row: %w", err)
		}
		certs = append(certs, &c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating certificate rows: %w", err)
	}
	return certs, nil
}

// UpdateStatus transitions a certificate's lifecycle state
func (r *CertificateRepository) UpdateStatus(ctx context.Context, id string, status types.CertificateStatus) error {
	query := `UPDATE medical_certificates SET status = $1 WHERE id = $2`

	result, err := r.db.ExecBound(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update certificate status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return types.NewNotFoundError(types.ErrCodeCertificateNotFound, "Certificate not found")
	}
	return nil
}
