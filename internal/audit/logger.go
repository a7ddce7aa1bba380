package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/database"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

// Logger persists audit entries to the audit_logs table. Appending is
// best-effort from the caller's perspective: a storage failure is logged
// and counted but never propagated into the request path.
type Logger struct {
	db     *database.DB
	logger *logger.Logger
}

// NewLogger creates a new database-backed audit logger
func NewLogger(db *database.DB, log *logger.Logger) *Logger {
	return &Logger{
		db:     db,
		logger: log,
	}
}

// Append writes an audit entry. Failures are logged, not returned.
func (a *Logger) Append(ctx context.Context, entry *types.AuditEntry) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	details := "{}"
	if entry.Details != nil {
		if raw, err := json.Marshal(entry.Details); err == nil {
			details = string(raw)
		} else {
			a.logger.WithError(err).Warn("Failed to marshal audit details")
		}
	}

	query := `
		INSERT INTO audit_logs (id, user_id, action, ip_address, user_agent, success, details, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := a.db.ExecBound(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Action,
		entry.IPAddress,
		entry.UserAgent,
		entry.Success,
		details,
		entry.Timestamp,
	)
	if err != nil {
		// The structured log is the fallback trail when the table is
		// unreachable.
		a.logger.WithError(err).WithFields(map[string]interface{}{
			"audit_id": entry.ID,
			"action":   entry.Action,
			"user_id":  entry.UserID,
		}).Error("Failed to persist audit entry")
		return
	}

	a.logger.Audit(entry.UserID, string(entry.Action), entry.Success, entry.Details)
}

// Query retrieves audit entries matching the filter, newest first
func (a *Logger) Query(ctx context.Context, filter *types.AuditFilter) ([]*types.AuditEntry, error) {
	query := `
		SELECT id, user_id, action, ip_address, user_agent, success, details, timestamp
		FROM audit_logs`

	whereParts := make([]string, 0)
	args := make([]interface{}, 0)
	argIndex := 1

	if filter.UserID != "" {
		whereParts = append(whereParts, fmt.Sprintf("user_id = $%d", argIndex))
		args = append(args, filter.UserID)
		argIndex++
	}
	if filter.Action != "" {
		whereParts = append(whereParts, fmt.Sprintf("action = $%d", argIndex))
		args = append(args, filter.Action)
		argIndex++
	}
	if filter.Success != nil {
		whereParts = append(whereParts, fmt.Sprintf("success = $%d", argIndex))
		args = append(args, *filter.Success)
		argIndex++
	}
	if !filter.StartTime.IsZero() {
		whereParts = append(whereParts, fmt.Sprintf("timestamp >= $%d", argIndex))
		args = append(args, filter.StartTime)
		argIndex++
	}
	if !filter.EndTime.IsZero() {
		whereParts = append(whereParts, fmt.Sprintf("timestamp <= $%d", argIndex))
		args = append(args, filter.EndTime)
		argIndex++
	}

	if len(whereParts) > 0 {
		query += " WHERE " + strings.Join(whereParts, " AND ")
	}
	query += " ORDER BY timestamp DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(" LIMIT $%d", argIndex)
	args = append(args, limit)
	argIndex++

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filter.Offset)
	}

	rows, err := a.db.QueryBound(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var entries []*types.AuditEntry
	for rows.Next() {
		var entry types.AuditEntry
		var details string

		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Action,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.Success,
			&details,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}

		if details != "" && details != "{}" {
			if err := json.Unmarshal([]byte(details), &entry.Details); err != nil {
				a.logger.WithError(err).WithFields(map[string]interface{}{
					"audit_id": entry.ID,
				}).Warn("Failed to unmarshal audit details")
			}
		}

		entries = append(entries, &entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit rows: %w", err)
	}

	return entries, nil
}

// Purge removes entries older than the retention window and returns how
// many rows were deleted.
func (a *Logger) Purge(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, fmt.Errorf("retention days must be positive")
	}

	query := `DELETE FROM audit_logs WHERE timestamp < $1`
	cutoff := timeNow().AddDate(0, 0, -retentionDays)

	result, err := a.db.ExecBound(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit logs: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if deleted > 0 {
		a.logger.WithFields(map[string]interface{}{
			"deleted":        deleted,
			"retention_days": retentionDays,
		}).Info("Purged expired audit entries")
	}

	return deleted, nil
}
