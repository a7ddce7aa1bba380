package database

import (
	"context"
	"fmt"
)

// CreateSchema creates the portal schema. The DDL sticks to types both
// SQLite and PostgreSQL accept; IDs are UUID strings generated in Go.
func (db *DB) CreateSchema(ctx context.Context) error {
	db.logger.Info("Creating database schema...")

	tables := []string{
		createUsersTable,
		createPatientsTable,
		createMedicalRecordsTable,
		createRecordSharesTable,
		createRecordAccessLogsTable,
		createMedicalCertificatesTable,
		createStaffProfilesTable,
		createAuditLogsTable,
	}

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		createUsersIndexes,
		createPatientsIndexes,
		createMedicalRecordsIndexes,
		createRecordAccessLogsIndexes,
		createMedicalCertificatesIndexes,
		createStaffProfilesIndexes,
		createAuditLogsIndexes,
	}

	for _, index := range indexes {
		if _, err := db.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	db.logger.Info("Database schema created successfully")
	return nil
}

// SQL DDL statements for table creation
const (
	createUsersTable = `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			role TEXT NOT NULL,
			phone_number TEXT NOT NULL DEFAULT '',
			date_of_birth TIMESTAMP,
			password_hash TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			mfa_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			mfa_secret TEXT NOT NULL DEFAULT '',
			failed_logins INTEGER NOT NULL DEFAULT 0,
			is_locked BOOLEAN NOT NULL DEFAULT FALSE,
			date_joined TIMESTAMP NOT NULL,
			last_login TIMESTAMP,
			updated_at TIMESTAMP NOT NULL
		);`

	createPatientsTable = `
		CREATE TABLE IF NOT EXISTS patients (
			id TEXT PRIMARY KEY,
			user_id TEXT UNIQUE NOT NULL REFERENCES users(id),
			blood_type TEXT NOT NULL DEFAULT '',
			allergies TEXT NOT NULL DEFAULT '',
			chronic_conditions TEXT NOT NULL DEFAULT '',
			emergency_contact_name TEXT NOT NULL,
			emergency_contact_phone TEXT NOT NULL,
			emergency_contact_relation TEXT NOT NULL,
			insurance_provider TEXT NOT NULL DEFAULT '',
			insurance_number TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`

	createMedicalRecordsTable = `
		CREATE TABLE IF NOT EXISTS medical_records (
			id TEXT PRIMARY KEY,
			patient_id TEXT NOT NULL REFERENCES patients(id),
			created_by TEXT NOT NULL REFERENCES users(id),
			record_type TEXT NOT NULL,
			title TEXT NOT NULL,
			diagnosis TEXT NOT NULL,
			treatment TEXT NOT NULL,
			prescription TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			visit_date TIMESTAMP NOT NULL,
			record_hash TEXT UNIQUE NOT NULL,
			previous_hash TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`

	createRecordSharesTable = `
		CREATE TABLE IF NOT EXISTS record_shares (
			record_id TEXT NOT NULL REFERENCES medical_records(id),
			user_id TEXT NOT NULL REFERENCES users(id),
			shared_by TEXT NOT NULL REFERENCES users(id),
			shared_at TIMESTAMP NOT NULL,
			PRIMARY KEY (record_id, user_id)
		);`

	createRecordAccessLogsTable = `
		CREATE TABLE IF NOT EXISTS record_access_logs (
			id TEXT PRIMARY KEY,
			record_id TEXT NOT NULL REFERENCES medical_records(id),
			accessed_by TEXT NOT NULL REFERENCES users(id),
			access_type TEXT NOT NULL,
			ip_address TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',
			accessed_at TIMESTAMP NOT NULL
		);`

	createMedicalCertificatesTable = `
		CREATE TABLE IF NOT EXISTS medical_certificates (
			id TEXT PRIMARY KEY,
			patient_id TEXT NOT NULL REFERENCES patients(id),
			issued_by TEXT NOT NULL REFERENCES users(id),
			certificate_type TEXT NOT NULL,
			purpose TEXT NOT NULL,
			diagnosis TEXT NOT NULL,
			recommendations TEXT NOT NULL DEFAULT '',
			valid_from TIMESTAMP NOT NULL,
			valid_until TIMESTAMP NOT NULL,
			certificate_hash TEXT UNIQUE NOT NULL,
			status TEXT NOT NULL DEFAULT 'issued',
			issued_at TIMESTAMP NOT NULL
		);`

	createStaffProfilesTable = `
		CREATE TABLE IF NOT EXISTS staff_profiles (
			id TEXT PRIMARY KEY,
			user_id TEXT UNIQUE NOT NULL REFERENCES users(id),
			specialty TEXT NOT NULL,
			license_number TEXT UNIQUE NOT NULL,
			department TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`

	createAuditLogsTable = `
		CREATE TABLE IF NOT EXISTS audit_logs (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL DEFAULT '',
			action TEXT NOT NULL,
			ip_address TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',
			success BOOLEAN NOT NULL,
			details TEXT NOT NULL DEFAULT '{}',
			timestamp TIMESTAMP NOT NULL
		);`
)

// SQL DDL statements for index creation
const (
	createUsersIndexes = `
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
		CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);`

	createPatientsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_patients_user_id ON patients(user_id);`

	createMedicalRecordsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_medical_records_patient_id ON medical_records(patient_id);
		CREATE INDEX IF NOT EXISTS idx_medical_records_visit_date ON medical_records(visit_date);
		CREATE INDEX IF NOT EXISTS idx_medical_records_record_hash ON medical_records(record_hash);`

	createRecordAccessLogsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_record_access_logs_record_id ON record_access_logs(record_id);
		CREATE INDEX IF NOT EXISTS idx_record_access_logs_accessed_at ON record_access_logs(accessed_at);`

	createMedicalCertificatesIndexes = `
		CREATE INDEX IF NOT EXISTS idx_medical_certificates_patient_id ON medical_certificates(patient_id);
		CREATE INDEX IF NOT EXISTS idx_medical_certificates_status ON medical_certificates(status);`

	createStaffProfilesIndexes = `
		CREATE INDEX IF NOT EXISTS idx_staff_profiles_user_id ON staff_profiles(user_id);
		CREATE INDEX IF NOT EXISTS idx_staff_profiles_department ON staff_profiles(department);`

	createAuditLogsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_audit_logs_user_id ON audit_logs(user_id);
		CREATE INDEX IF NOT EXISTS idx_audit_logs_action ON audit_logs(action);
		CREATE INDEX IF NOT EXISTS idx_audit_logs_timestamp ON audit_logs(timestamp);`
)
