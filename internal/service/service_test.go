package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/triumph-atlantic/matrix-api/internal/access"
	"github.com/triumph-atlantic/matrix-api/internal/auth"
	"github.com/triumph-atlantic/matrix-api/internal/cache"
	"github.com/triumph-atlantic/matrix-api/internal/repository"
	"github.com/triumph-atlantic/matrix-api/internal/service"
	"github.com/triumph-atlantic/matrix-api/internal/testutil"
	"github.com/triumph-atlantic/matrix-api/internal/tradeswap"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// services wires every service over one seeded database
type services struct {
	db         *gorm.DB
	store      *repository.Store
	visibility *service.VisibilityService
	tradeSwap  *service.TradeSwapService
	records    *service.RecordService
	changeLog  *service.ChangeLogService
}

func newServices(t *testing.T) *services {
	t.Helper()
	db := testutil.NewTestDB(t)
	testutil.Seed(t, db)

	logger := zap.NewNop()
	store := repository.NewStore(db)
	visibility := service.NewVisibilityService(store, store.ChangeLog, access.NewPolicy(testutil.Oversight), logger)
	tradeSwap := service.NewTradeSwapService(visibility, tradeswap.NewAnalyzer(tradeswap.DefaultOptions()), cache.NewMemoryStore(), time.Minute, logger)

	return &services{
		db:         db,
		store:      store,
		visibility: visibility,
		tradeSwap:  tradeSwap,
		records:    service.NewRecordService(store, visibility, tradeSwap, logger),
		changeLog:  service.NewChangeLogService(store.ChangeLog, logger),
	}
}

func userContext(org string) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:       "user-1",
		DisplayName:  "Test User",
		Email:        "test@example.com",
		Organization: org,
		AuthType:     "jwt",
	})
}
