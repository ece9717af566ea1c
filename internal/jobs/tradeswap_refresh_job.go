package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TradeSwapRefreshJobName is the name of the analytics cache warm-up job
const TradeSwapRefreshJobName = "tradeswap_refresh"

// CandidateWarmer precomputes trade-swap candidates per organization
type CandidateWarmer interface {
	Warm(ctx context.Context, orgs []string) error
}

// TradeSwapRefreshJob keeps the per-organization candidate cache populated so
// the first request after a data change does not pay for the analysis.
type TradeSwapRefreshJob struct {
	warmer  CandidateWarmer
	orgs    []string
	logger  *zap.Logger
	timeout time.Duration
}

func NewTradeSwapRefreshJob(warmer CandidateWarmer, orgs []string, logger *zap.Logger, timeout time.Duration) *TradeSwapRefreshJob {
	return &TradeSwapRefreshJob{
		warmer:  warmer,
		orgs:    orgs,
		logger:  logger,
		timeout: timeout,
	}
}

// Run warms the cache for every configured organization
func (j *TradeSwapRefreshJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	if err := j.warmer.Warm(ctx, j.orgs); err != nil {
		j.logger.Error("trade-swap cache refresh failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}
	j.logger.Debug("trade-swap cache refreshed",
		zap.Int("organizations", len(j.orgs)),
		zap.Duration("duration", time.Since(start)))
}

// RegisterTradeSwapRefreshJob registers the cache warm-up with the scheduler
func RegisterTradeSwapRefreshJob(scheduler *Scheduler, warmer CandidateWarmer, orgs []string, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	job := NewTradeSwapRefreshJob(warmer, orgs, logger, timeout)
	return scheduler.AddJob(TradeSwapRefreshJobName, cronExpr, job.Run)
}
