package staff

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/database"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

const staffColumns = `id, user_id, specialty, license_number, department,
		is_active, created_at, updated_at`

// Repository implements staff profile persistence
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new staff repository
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

// Create creates a new staff profile. License numbers are unique across
// the portal.
func (r *Repository) Create(ctx context.Context, profile *types.StaffProfile) error {
	query := `
		INSERT INTO staff_profiles (` + staffColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecBound(ctx, query,
		profile.ID,
		profile.UserID,
		profile.Specialty,
		profile.LicenseNumber,
		profile.Department,
		profile.IsActive,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.NewConflictError(types.ErrCodeLicenseExists,
				"A staff profile with this license number already exists")
		}
		return fmt.Errorf("failed to create staff profile: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"staff_id":   profile.ID,
		"department": profile.Department,
	}).Info("Staff profile created")
	return nil
}

// GetByID retrieves a staff profile by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*types.StaffProfile, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_profiles WHERE id = $1`
	return scanStaff(r.db.QueryRowBound(ctx, query, id))
}

// GetByUserID retrieves a staff profile by the owning user's ID
func (r *Repository) GetByUserID(ctx context.Context, userID string) (*types.StaffProfile, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_profiles WHERE user_id = $1`
	return scanStaff(r.db.QueryRowBound(ctx, query, userID))
}

// Update updates staff profile fields from a whitelist
func (r *Repository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return fmt.Errorf("no updates provided")
	}

	setParts := make([]string, 0, len(updates)+1)
	args := make([]interface{}, 0, len(updates)+2)
	argIndex := 1

	for field, value := range updates {
		switch field {
		case "specialty", "department", "is_active":
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

	query := fmt.Sprintf("UPDATE staff_profiles SET %s WHERE id = $%d",
		strings.Join(setParts, ", "), argIndex)

	result, err := r.db.ExecBound(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update staff profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return types.NewNotFoundError(types.ErrCodeStaffNotFound, "Staff profile not found")
	}
	return nil
}

// List retrieves staff profiles, optionally filtered by department
func (r *Repository) List(ctx context.Context, department string, limit, offset int) ([]*types.StaffProfile, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_profiles`

	args := make([]interface{}, 0, 3)
	argIndex := 1
	if department != "" {
		query += fmt.Sprintf(" WHERE department = $%d", argIndex)
		args = append(args, department)
		argIndex++
	}
	query += " ORDER BY created_at DESC"
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
		return nil, fmt.Errorf("failed to list staff profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*types.StaffProfile
	for rows.Next() {
		var p types.StaffProfile
		err := rows.Scan(&p.ID, &p.UserID, &p.Specialty, &p.LicenseNumber,
			&p.Department, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staff row: %w", err)
		}
		profiles = append(profiles, &p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating staff rows: %w", err)
	}
	return profiles, nil
}

func scanStaff(row *sql.Row) (*types.StaffProfile, error) {
	var p types.StaffProfile
	err := row.Scan(&p.ID, &p.UserID, &p.Specialty, &p.LicenseNumber,
		&p.Department, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError(types.ErrCodeStaffNotFound, "Staff profile not found")
		}
		return nil, fmt.Errorf("failed to get staff profile: %w", err)
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
