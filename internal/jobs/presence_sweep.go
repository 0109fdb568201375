// File: internal/jobs/presence_sweep.go
package jobs

import (
	"context"
	"fmt"
	"time"

	"wlm_backend/internal/config"
	"wlm_backend/internal/user"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PresenceSweepJob periodically marks users offline whose last presence
// ping is older than the configured window. It never touches crush rows:
// match state only converges at declaration time.
type PresenceSweepJob struct {
	userService   user.Service
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
}

// NewPresenceSweepJob creates a new PresenceSweepJob.
func NewPresenceSweepJob(
	userService user.Service,
	logger *zap.Logger,
	cfg *config.Config,
) *PresenceSweepJob {
	scheduler := cron.New(cron.WithLogger(NewCronLogger(logger.Named("cron"))))

	return &PresenceSweepJob{
		userService:   userService,
		logger:        logger.Named("PresenceSweepJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *PresenceSweepJob) SetupAndStart() error {
	jobSpec := j.cfg.PresenceSweepSchedule
	if jobSpec == "" {
		j.logger.Warn("Presence sweep schedule not defined (PRESENCE_SWEEP_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule presence sweep job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Presence sweep job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

// runJob is the actual work performed by the cron job.
func (j *PresenceSweepJob) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	window := time.Duration(j.cfg.PresenceOfflineAfterMinutes) * time.Minute
	swept, err := j.userService.SweepOffline(ctx, window)
	if err != nil {
		j.logger.Error("Presence sweep run failed", zap.Error(err))
		return
	}
	if swept > 0 {
		j.logger.Info("Presence sweep run completed", zap.Int64("users_marked_offline", swept))
	}
}

// Stop gracefully stops the cron scheduler.
func (j *PresenceSweepJob) Stop() {
	if j.cronScheduler != nil {
		j.logger.Info("Stopping presence sweep scheduler...")
		stopCtx := j.cronScheduler.Stop()
		select {
		case <-stopCtx.Done():
			j.logger.Info("Presence sweep scheduler stopped gracefully.")
		case <-time.After(10 * time.Second):
			j.logger.Warn("Presence sweep scheduler stop timed out.")
		}
	}
}

// --- Cron Logger Adapter ---

// cronLogger adapts zap.Logger to the cron.Logger interface.
type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger creates a new cronLogger.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

// Info logs routine messages from cron.
func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.zl.Info(msg, cl.parseKeysAndValues(keysAndValues...)...)
}

// Error logs error messages from cron.
func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	fields = append(fields, zap.Error(err))
	cl.zl.Error(msg, fields...)
}

func (cl *cronLogger) parseKeysAndValues(keysAndValues ...interface{}) []zap.Field {
	var fields []zap.Field
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), "MISSING_VALUE"))
		}
	}
	return fields
}
