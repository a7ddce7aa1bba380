package accounts

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/database"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

const userColumns = `id, email, first_name, last_name, role, phone_number,
		date_of_birth, password_hash, is_active, is_verified,
		mfa_enabled, mfa_secret, failed_logins, is_locked,
		date_joined, last_login, updated_at`

// UserRepository implements user data persistence
type UserRepository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB, log *logger.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: log,
	}
}

// Create creates a new user in the database
func (r *UserRepository) Create(ctx context.Context, user *types.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := r.db.ExecBound(ctx, query,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Role,
		user.PhoneNumber,
		user.DateOfBirth,
		user.PasswordHash,
		user.IsActive,
		user.IsVerified,
		user.MFAEnabled,
		user.MFASecret,
		user.FailedLogins,
		user.IsLocked,
		user.DateJoined,
		user.LastLogin,
		user.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return types.NewConflictError(types.ErrCodeEmailExists, "An account with this email already exists")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User created successfully")
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowBound(ctx, query, id))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRowBound(ctx, query, strings.ToLower(email)))
}

// Update updates user fields from a whitelist of mutable columns
func (r *UserRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return fmt.Errorf("no updates provided")
	}

	setParts := make([]string, 0, len(updates)+1)
	args := make([]interface{}, 0, len(updates)+2)
	argIndex := 1

	for field, value := range updates {
		switch field {
		case "first_name", "last_name", "phone_number", "date_of_birth",
			"password_hash", "is_active", "is_verified",
			"mfa_enabled", "mfa_secret", "failed_logins", "is_locked",
			"last_login":
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

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d",
		strings.Join(setParts, ", "), argIndex)

	result, err := r.db.ExecBound(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return types.NewNotFoundError(types.ErrCodeUserNotFound, "User not found")
	}

	return nil
}

// Deactivate disables an account without deleting its history
func (r *UserRepository) Deactivate(ctx context.Context, id string) error {
	return r.Update(ctx, id, map[string]interface{}{
		"is_active": false,
	})
}

// List retrieves users matching the search criteria, newest first
func (r *UserRepository) List(ctx context.Context, criteria *types.UserSearchCriteria) ([]*types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`

	whereParts := make([]string, 0)
	args := make([]interface{}, 0)
	argIndex := 1

	if criteria.Email != "" {
		whereParts = append(whereParts, fmt.Sprintf("email LIKE $%d", argIndex))
		args = append(args, "%"+strings.ToLower(criteria.Email)+"%")
		argIndex++
	}
	if criteria.Role != "" {
		whereParts = append(whereParts, fmt.Sprintf("role = $%d", argIndex))
		args = append(args, criteria.Role)
		argIndex++
	}
	if criteria.IsActive != nil {
		whereParts = append(whereParts, fmt.Sprintf("is_active = $%d", argIndex))
		args = append(args, *criteria.IsActive)
		argIndex++
	}

	if len(whereParts) > 0 {
		query += " WHERE " + strings.Join(whereParts, " AND ")
	}
	query += " ORDER BY date_joined DESC"

	if criteria.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, criteria.Limit)
		argIndex++
	}
	if criteria.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, criteria.Offset)
	}

	rows, err := r.db.QueryBound(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*types.User
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

func (r *UserRepository) scanUser(row *sql.Row) (*types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.PhoneNumber,
		&user.DateOfBirth,
		&user.PasswordHash,
		&user.IsActive,
		&user.IsVerified,
		&user.MFAEnabled,
		&user.MFASecret,
		&user.FailedLogins,
		&user.IsLocked,
		&user.DateJoined,
		&user.LastLogin,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError(types.ErrCodeUserNotFound, "User not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func scanUserRow(rows *sql.Rows) (*types.User, error) {
	var user types.User
	err := rows.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.PhoneNumber,
		&user.DateOfBirth,
		&user.PasswordHash,
		&user.IsActive,
		&user.IsVerified,
		&user.MFAEnabled,
		&user.MFASecret,
		&user.FailedLogins,
		&user.IsLocked,
		&user.DateJoined,
		&user.LastLogin,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	return &user, nil
}

// isUniqueViolation detects duplicate-key failures from either driver
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
