package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/triumph-atlantic/matrix-api/internal/cache"
	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"github.com/triumph-atlantic/matrix-api/internal/service"
	"github.com/triumph-atlantic/matrix-api/internal/testutil"
	"github.com/triumph-atlantic/matrix-api/internal/tradeswap"
	"go.uber.org/zap"
)

func TestTradeSwapService_Candidates(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	for _, org := range []string{testutil.Oversight, testutil.Guercio, testutil.Myers} {
		t.Run(org, func(t *testing.T) {
			candidates, err := s.tradeSwap.GetTradeSwapCandidates(ctx, org)
			require.NoError(t, err)
			require.Len(t, candidates, 1)

			c := candidates[0]
			assert.Equal(t, testutil.Guercio, c.ContractorA)
			assert.Equal(t, testutil.Myers, c.ContractorB)
			assert.Equal(t, 150, c.PotentialValue, "Large tier, one intro each way")
			require.Len(t, c.Pairs, 1)
			assert.Equal(t, "Acme", c.Pairs[0].Company)
			assert.Equal(t, domain.TradeElectrical, c.Pairs[0].ASpecialty)
			require.Len(t, c.Pairs[0].IntrosAtoB, 1)
			assert.Equal(t, "L1", c.Pairs[0].IntrosAtoB[0].Location)
			assert.Equal(t, domain.TradeMechanical, c.Pairs[0].IntrosAtoB[0].Specialty)
		})
	}

	candidates, err := s.tradeSwap.GetTradeSwapCandidates(ctx, "Unknown Org")
	require.NoError(t, err)
	assert.NotNil(t, candidates)
	assert.Empty(t, candidates)
}

func TestTradeSwapService_CachesUntilInvalidated(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	first, err := s.tradeSwap.GetTradeSwapCandidates(ctx, testutil.Oversight)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Written behind the service's back: the cached result is still served
	require.NoError(t, s.db.Create(&domain.Project{
		CompanyName: "Acme", LocationName: "L1", Trade: "staffing", PerformedBy: "Newco Staffing",
	}).Error)

	cached, err := s.tradeSwap.GetTradeSwapCandidates(ctx, testutil.Oversight)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	s.tradeSwap.Invalidate(ctx)

	fresh, err := s.tradeSwap.GetTradeSwapCandidates(ctx, testutil.Oversight)
	require.NoError(t, err)
	assert.Len(t, fresh, 2, "Newco pairs with Myers but not with Guercio, who already shares L1")
}

func TestTradeSwapService_ZeroTTLDisablesCache(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	svc := service.NewTradeSwapService(s.visibility, tradeswap.NewAnalyzer(tradeswap.DefaultOptions()), cache.NewMemoryStore(), 0, zap.NewNop())

	_, err := svc.GetTradeSwapCandidates(ctx, testutil.Oversight)
	require.NoError(t, err)
	require.NoError(t, s.db.Create(&domain.Project{
		CompanyName: "Acme", LocationName: "L1", Trade: "staffing", PerformedBy: "Newco Staffing",
	}).Error)

	candidates, err := svc.GetTradeSwapCandidates(ctx, testutil.Oversight)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
	assert.NoError(t, svc.Warm(ctx, []string{testutil.Oversight}))
}

func TestTradeSwapService_Warm(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	require.NoError(t, s.tradeSwap.Warm(ctx, []string{testutil.Oversight, testutil.Guercio}))

	require.NoError(t, s.db.Create(&domain.Project{
		CompanyName: "Acme", LocationName: "L1", Trade: "staffing", PerformedBy: "Newco Staffing",
	}).Error)

	candidates, err := s.tradeSwap.GetTradeSwapCandidates(ctx, testutil.Guercio)
	require.NoError(t, err)
	assert.Len(t, candidates, 1, "served from the warmed cache")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, s.tradeSwap.Warm(cancelled, []string{testutil.Oversight}), context.Canceled)
}

func TestTradeSwapService_CompanyWorkSummary(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	summary, err := s.tradeSwap.GetCompanyWorkSummary(ctx, testutil.Oversight, "acme")
	require.NoError(t, err)
	require.Len(t, summary, 2)

	// Equal counts, most recent first
	assert.Equal(t, testutil.Myers, summary[0].Contractor)
	assert.True(t, decimal.NewFromInt(1_200_000).Equal(summary[0].TotalValue))
	require.NotNil(t, summary[0].LastDate)
	assert.True(t, testutil.Date("2024-02-10").Equal(*summary[0].LastDate))
	assert.Equal(t, testutil.Guercio, summary[1].Contractor)

	_, err = s.tradeSwap.GetCompanyWorkSummary(ctx, testutil.Guercio, "Globex")
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = s.tradeSwap.GetCompanyWorkSummary(ctx, testutil.Oversight, "Nope")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestTradeSwapService_InvalidateWithoutCache(t *testing.T) {
	s := newServices(t)
	svc := service.NewTradeSwapService(s.visibility, tradeswap.NewAnalyzer(tradeswap.DefaultOptions()), nil, time.Minute, zap.NewNop())

	svc.Invalidate(context.Background())
	candidates, err := svc.GetTradeSwapCandidates(context.Background(), testutil.Oversight)
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}
