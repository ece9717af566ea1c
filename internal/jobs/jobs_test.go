package jobs_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/triumph-atlantic/matrix-api/internal/jobs"
	"github.com/triumph-atlantic/matrix-api/internal/service"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeImporter struct {
	mu    sync.Mutex
	calls []bool
	err   error
	done  chan struct{}
}

func (f *fakeImporter) Sync(ctx context.Context, full bool) (*service.ImportResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, full)
	f.mu.Unlock()
	if f.done != nil {
		defer close(f.done)
	}
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("missing deadline")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &service.ImportResult{Fetched: 3, Imported: 2, Skipped: 1}, nil
}

type fakeWarmer struct {
	orgs []string
	err  error
}

func (f *fakeWarmer) Warm(_ context.Context, orgs []string) error {
	f.orgs = orgs
	return f.err
}

// =============================================================================
// Scheduler
// =============================================================================

func TestScheduler_AddAndRemove(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	require.NoError(t, s.AddJob("b", "0 */15 * * * *", func() {}))
	require.NoError(t, s.AddJob("a", "@every 1h", func() {}))
	assert.Equal(t, []string{"a", "b"}, s.GetJobNames())

	assert.Error(t, s.AddJob("a", "@every 1h", func() {}), "duplicate name")
	assert.Error(t, s.AddJob("c", "not a cron", func() {}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Error(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.GetJobNames())
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())
	ran := make(chan struct{}, 1)
	require.NoError(t, s.AddJob("tick", "@every 1s", func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	}))

	s.Start()
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}

// =============================================================================
// Warehouse import
// =============================================================================

func TestWarehouseSyncJob_Run(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	importer := &fakeImporter{}

	job := jobs.NewWarehouseSyncJob(importer, zap.New(core), time.Minute)
	job.Run()
	job.RunStartupSync()

	assert.Equal(t, []bool{false, true}, importer.calls)
	entries := logs.FilterMessage("warehouse project import completed").All()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].ContextMap()["imported"])
}

func TestWarehouseSyncJob_LogsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	importer := &fakeImporter{err: errors.New("warehouse unavailable")}

	jobs.NewWarehouseSyncJob(importer, zap.New(core), time.Minute).Run()

	assert.Equal(t, 1, logs.FilterMessage("warehouse project import failed").Len())
	assert.Zero(t, logs.FilterMessage("warehouse project import completed").Len())
}

func TestRegisterWarehouseSyncJob_StartupSync(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())
	importer := &fakeImporter{done: make(chan struct{})}

	require.NoError(t, jobs.RegisterWarehouseSyncJob(s, importer, zap.NewNop(), "0 0 2 * * *", time.Minute, true))
	assert.Equal(t, []string{jobs.WarehouseSyncJobName}, s.GetJobNames())

	select {
	case <-importer.done:
	case <-time.After(3 * time.Second):
		t.Fatal("startup sync did not run")
	}
	importer.mu.Lock()
	defer importer.mu.Unlock()
	assert.Equal(t, []bool{true}, importer.calls)
}

// =============================================================================
// Trade-swap refresh
// =============================================================================

func TestTradeSwapRefreshJob(t *testing.T) {
	orgs := []string{"Triumph Atlantic", "Guercio Energy Group"}

	t.Run("warms every organization", func(t *testing.T) {
		warmer := &fakeWarmer{}
		jobs.NewTradeSwapRefreshJob(warmer, orgs, zap.NewNop(), time.Minute).Run()
		assert.Equal(t, orgs, warmer.orgs)
	})

	t.Run("logs failure", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		warmer := &fakeWarmer{err: errors.New("redis down")}
		jobs.NewTradeSwapRefreshJob(warmer, orgs, zap.New(core), time.Minute).Run()
		assert.Equal(t, 1, logs.FilterMessage("trade-swap cache refresh failed").Len())
	})

	t.Run("registers", func(t *testing.T) {
		s := jobs.NewScheduler(zap.NewNop())
		require.NoError(t, jobs.RegisterTradeSwapRefreshJob(s, &fakeWarmer{}, orgs, zap.NewNop(), "0 */15 * * * *", time.Minute))
		assert.Equal(t, []string{jobs.TradeSwapRefreshJobName}, s.GetJobNames())
	})
}
