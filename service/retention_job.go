package service

import (
	"context"
	"time"
	"workforce-api/logger"

	"github.com/robfig/cron/v3"
)

const retentionRunTimeout = 5 * time.Minute

// RetentionJob periodically purges old request logs.
type RetentionJob struct {
	cron          *cron.Cron
	detector      *AbuseDetector
	schedule      string
	retentionDays int
}

// NewRetentionJob uses a seconds-precision cron expression, e.g. "0 0 3 * * *".
func NewRetentionJob(detector *AbuseDetector, schedule string, retentionDays int) *RetentionJob {
	return &RetentionJob{
		cron:          cron.New(cron.WithSeconds()),
		detector:      detector,
		schedule:      schedule,
		retentionDays: retentionDays,
	}
}

func (j *RetentionJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.Run); err != nil {
		return err
	}
	j.cron.Start()
	logger.Log.WithField("schedule", j.schedule).Info("Request log retention job scheduled")
	return nil
}

// Stop waits for a running cleanup to finish.
func (j *RetentionJob) Stop() {
	<-j.cron.Stop().Done()
	logger.Log.Info("Request log retention job stopped")
}

// Run performs one cleanup pass.
func (j *RetentionJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), retentionRunTimeout)
	defer cancel()

	if _, err := j.detector.CleanupOldLogs(ctx, j.retentionDays); err != nil {
		logger.Log.WithError(err).Error("Scheduled request log cleanup failed")
	}
}
