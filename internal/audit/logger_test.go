package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/database"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

func setupAuditLogger(t *testing.T) (*Logger, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db := database.NewWithDB(sqlDB, "postgres", logger.New("error"))
	return NewLogger(db, logger.New("error")), mock
}

func TestLogger_Append(t *testing.T) {
	t.Run("persists the entry", func(t *testing.T) {
		al, mock := setupAuditLogger(t)

		mock.ExpectExec("INSERT INTO audit_logs").
			WithArgs(
				sqlmock.AnyArg(), "user-1", types.AuditLogin, "10.0.0.1", "test-agent",
				true, `{"method":"password"}`, sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(1, 1))

		al.Append(context.Background(), &types.AuditEntry{
			UserID:    "user-1",
			Action:    types.AuditLogin,
			IPAddress: "10.0.0.1",
			UserAgent: "test-agent",
			Success:   true,
			Details:   map[string]interface{}{"method": "password"},
			Timestamp: time.Now(),
		})

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("storage failure does not panic or propagate", func(t *testing.T) {
		al, mock := setupAuditLogger(t)

		mock.ExpectExec("INSERT INTO audit_logs").
			WillReturnError(errors.New("connection refused"))

		assert.NotPanics(t, func() {
			al.Append(context.Background(), &types.AuditEntry{
				UserID:    "user-1",
				Action:    types.AuditFailedLogin,
				Success:   false,
				Timestamp: time.Now(),
			})
		})
	})

	t.Run("assigns an ID when missing", func(t *testing.T) {
		al, mock := setupAuditLogger(t)

		mock.ExpectExec("INSERT INTO audit_logs").
			WillReturnResult(sqlmock.NewResult(1, 1))

		entry := &types.AuditEntry{
			Action:    types.AuditLogout,
			Success:   true,
			Timestamp: time.Now(),
		}
		al.Append(context.Background(), entry)

		assert.NotEmpty(t, entry.ID)
	})
}

func TestLogger_Query(t *testing.T) {
	al, mock := setupAuditLogger(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "action", "ip_address", "user_agent", "success", "details", "timestamp",
	}).
		AddRow("a1", "user-1", "login", "10.0.0.1", "agent", true, `{"method":"password"}`, now).
		AddRow("a2", "user-1", "logout", "10.0.0.1", "agent", true, "{}", now)

	mock.ExpectQuery("SELECT (.+) FROM audit_logs WHERE user_id").
		WithArgs("user-1", 50).
		WillReturnRows(rows)

	entries, err := al.Query(context.Background(), &types.AuditFilter{
		UserID: "user-1",
		Limit:  50,
	})

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, types.AuditAction("login"), entries[0].Action)
	assert.Equal(t, "password", entries[0].Details["method"])
	assert.Nil(t, entries[1].Details)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogger_Purge(t *testing.T) {
	t.Run("deletes rows past the retention window", func(t *testing.T) {
		al, mock := setupAuditLogger(t)

		fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		timeNow = func() time.Time { return fixed }
		t.Cleanup(func() { timeNow = time.Now })

		mock.ExpectExec("DELETE FROM audit_logs WHERE timestamp").
			WithArgs(fixed.AddDate(0, 0, -90)).
			WillReturnResult(sqlmock.NewResult(0, 42))

		deleted, err := al.Purge(context.Background(), 90)
		require.NoError(t, err)
		assert.Equal(t, int64(42), deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects non-positive retention", func(t *testing.T) {
		al, _ := setupAuditLogger(t)

		_, err := al.Purge(context.Background(), 0)
		assert.Error(t, err)
	})
}
