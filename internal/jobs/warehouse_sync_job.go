package jobs

import (
	"context"
	"time"

	"github.com/triumph-atlantic/matrix-api/internal/service"
	"go.uber.org/zap"
)

// WarehouseSyncJobName is the name of the warehouse project import job
const WarehouseSyncJobName = "warehouse_sync"

// ProjectImporter pulls completed work from the warehouse
type ProjectImporter interface {
	Sync(ctx context.Context, full bool) (*service.ImportResult, error)
}

// WarehouseSyncJob imports warehouse projects changed since the last run
type WarehouseSyncJob struct {
	importer ProjectImporter
	logger   *zap.Logger
	timeout  time.Duration
}

// NewWarehouseSyncJob creates a new warehouse import job.
// The timeout bounds a single run.
func NewWarehouseSyncJob(importer ProjectImporter, logger *zap.Logger, timeout time.Duration) *WarehouseSyncJob {
	return &WarehouseSyncJob{
		importer: importer,
		logger:   logger,
		timeout:  timeout,
	}
}

// Run executes an incremental import. Called by the scheduler.
func (j *WarehouseSyncJob) Run() {
	j.run(false)
}

// RunStartupSync runs a full import, so a fresh process does not depend on a
// watermark it never recorded.
func (j *WarehouseSyncJob) RunStartupSync() {
	j.run(true)
}

func (j *WarehouseSyncJob) run(full bool) {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	result, err := j.importer.Sync(ctx, full)
	if err != nil {
		j.logger.Error("warehouse project import failed",
			zap.Bool("full", full),
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("warehouse project import completed",
		zap.Bool("full", full),
		zap.Int("fetched", result.Fetched),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.Duration("duration", result.Duration))
}

// RegisterWarehouseSyncJob registers the warehouse import with the scheduler.
// With runStartupSync a full import runs immediately in a background goroutine
// so it doesn't block API startup.
func RegisterWarehouseSyncJob(scheduler *Scheduler, importer ProjectImporter, logger *zap.Logger, cronExpr string, timeout time.Duration, runStartupSync bool) error {
	job := NewWarehouseSyncJob(importer, logger, timeout)

	if runStartupSync {
		go job.RunStartupSync()
	}

	return scheduler.AddJob(WarehouseSyncJobName, cronExpr, job.Run)
}
