package audit

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/config"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/interfaces"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
)

// timeNow is swapped out by tests
var timeNow = time.Now

// RetentionJob purges expired audit entries on a cron schedule
type RetentionJob struct {
	auditLogger interfaces.AuditLogger
	config      *config.AuditConfig
	logger      *logger.Logger
	cron        *cron.Cron
}

// NewRetentionJob creates a retention job from the audit configuration
func NewRetentionJob(auditLogger interfaces.AuditLogger, cfg *config.AuditConfig, log *logger.Logger) *RetentionJob {
	return &RetentionJob{
		auditLogger: auditLogger,
		config:      cfg,
		logger:      log,
		cron:        cron.New(),
	}
}

// Start schedules the purge and begins running it
func (j *RetentionJob) Start() error {
	_, err := j.cron.AddFunc(j.config.PurgeSchedule, j.run)
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.WithFields(map[string]interface{}{
		"schedule":       j.config.PurgeSchedule,
		"retention_days": j.config.RetentionDays,
	}).Info("Audit retention job scheduled")
	return nil
}

// Stop halts the scheduler and waits for a running purge to finish
func (j *RetentionJob) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	j.logger.Info("Audit retention job stopped")
}

func (j *RetentionJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := timeNow()
	deleted, err := j.auditLogger.Purge(ctx, j.config.RetentionDays)
	j.logger.DatabaseOperation("delete", "audit_logs", time.Since(start).Milliseconds(), err == nil)
	if err != nil {
		j.logger.WithError(err).Error("Audit purge failed")
		return
	}

	j.logger.WithFields(map[string]interface{}{
		"deleted": deleted,
	}).Info("Audit purge completed")
}
