package audit

import (
	"context"
	"errors"
	"testing"

	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/config"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

type stubAuditLogger struct {
	deleted  int64
	purgeErr error
	days     int
}

func (s *stubAuditLogger) Append(ctx context.Context, entry *types.AuditEntry) {}

func (s *stubAuditLogger) Query(ctx context.Context, filter *types.AuditFilter) ([]*types.AuditEntry, error) {
	return nil, nil
}

func (s *stubAuditLogger) Purge(ctx context.Context, retentionDays int) (int64, error) {
	s.days = retentionDays
	return s.deleted, s.purgeErr
}

func TestRetentionJob_Run(t *testing.T) {
	cfg := &config.AuditConfig{RetentionDays: 90, PurgeSchedule: "0 3 * * *"}

	t.Run("purges with the configured retention", func(t *testing.T) {
		log := logger.New("debug")
		hook := logrustest.NewLocal(log.Logger)
		stub := &stubAuditLogger{deleted: 12}

		job := NewRetentionJob(stub, cfg, log)
		job.run()

		assert.Equal(t, 90, stub.days)

		logged := false
		for _, entry := range hook.AllEntries() {
			if entry.Data["database"] == true && entry.Data["table"] == "audit_logs" {
				logged = true
				assert.Equal(t, true, entry.Data["success"])
			}
		}
		assert.True(t, logged, "the purge should emit a database operation log")
	})

	t.Run("a failed purge is logged as such", func(t *testing.T) {
		log := logger.New("debug")
		hook := logrustest.NewLocal(log.Logger)
		stub := &stubAuditLogger{purgeErr: errors.New("table locked")}

		job := NewRetentionJob(stub, cfg, log)
		job.run()

		failureLogged := false
		for _, entry := range hook.AllEntries() {
			if entry.Data["database"] == true && entry.Data["success"] == false {
				failureLogged = true
			}
		}
		assert.True(t, failureLogged)
	})
}
