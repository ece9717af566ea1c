package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/triumph-atlantic/matrix-api/internal/cache"
	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"github.com/triumph-atlantic/matrix-api/internal/tradeswap"
	"go.uber.org/zap"
)

// tradeSwapCounter versions every cached trade-swap result. Bumping it makes
// all previously cached results unreachable.
const tradeSwapCounter = "tradeswap"

// TradeSwapService serves trade-swap candidates and work summaries for the
// records visible to an organization
type TradeSwapService struct {
	visibility *VisibilityService
	analyzer   *tradeswap.Analyzer
	cache      cache.Store
	ttl        time.Duration
	logger     *zap.Logger
}

// NewTradeSwapService creates a new trade-swap service. A zero ttl disables caching.
func NewTradeSwapService(visibility *VisibilityService, analyzer *tradeswap.Analyzer, store cache.Store, ttl time.Duration, logger *zap.Logger) *TradeSwapService {
	return &TradeSwapService{
		visibility: visibility,
		analyzer:   analyzer,
		cache:      store,
		ttl:        ttl,
		logger:     logger,
	}
}

func (s *TradeSwapService) cacheEnabled() bool {
	return s.cache != nil && s.ttl > 0
}

// GetTradeSwapCandidates returns ranked introduction candidates computed over
// the companies, locations and projects visible to org
func (s *TradeSwapService) GetTradeSwapCandidates(ctx context.Context, org string) ([]domain.TradeSwapCandidate, error) {
	var key string
	if s.cacheEnabled() {
		version, err := s.cache.Version(ctx, tradeSwapCounter)
		if err != nil {
			s.logger.Warn("Trade-swap cache unavailable", zap.Error(err))
		} else {
			key = fmt.Sprintf("tradeswap:v%d:%s", version, org)
			var cached []domain.TradeSwapCandidate
			switch err := s.cache.Get(ctx, key, &cached); {
			case err == nil:
				return cached, nil
			case !errors.Is(err, cache.ErrMiss):
				s.logger.Warn("Failed to read cached trade-swap candidates", zap.String("key", key), zap.Error(err))
			}
		}
	}

	candidates, err := s.compute(ctx, org)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if err := s.cache.Set(ctx, key, candidates, s.ttl); err != nil {
			s.logger.Warn("Failed to cache trade-swap candidates", zap.String("key", key), zap.Error(err))
		}
	}
	return candidates, nil
}

func (s *TradeSwapService) compute(ctx context.Context, org string) ([]domain.TradeSwapCandidate, error) {
	input, err := s.visibility.VisibleInput(ctx, org)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	candidates := s.analyzer.Analyze(input)
	s.logger.Debug("Computed trade-swap candidates",
		zap.String("org", org),
		zap.Int("companies", len(input.Companies)),
		zap.Int("projects", len(input.Projects)),
		zap.Int("candidates", len(candidates)),
		zap.Duration("took", time.Since(start)),
	)
	return candidates, nil
}

// GetCompanyWorkSummary returns the per-contractor rollup for one visible
// company. A company org cannot see is reported as ErrNotFound.
func (s *TradeSwapService) GetCompanyWorkSummary(ctx context.Context, org, companyRef string) ([]domain.ContractorWorkSummary, error) {
	company, err := s.visibility.VisibleCompany(ctx, org, companyRef)
	if err != nil {
		return nil, err
	}
	input, err := s.visibility.VisibleInput(ctx, org)
	if err != nil {
		return nil, err
	}
	return s.analyzer.CompanySummary(company.Slug, input), nil
}

// Invalidate drops every cached trade-swap result
func (s *TradeSwapService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Bump(ctx, tradeSwapCounter); err != nil {
		s.logger.Warn("Failed to invalidate trade-swap cache", zap.Error(err))
	}
}

// Warm recomputes and caches candidates for each organization.
// Returns the first error after attempting every organization.
func (s *TradeSwapService) Warm(ctx context.Context, orgs []string) error {
	if !s.cacheEnabled() {
		return nil
	}
	var firstErr error
	for _, org := range orgs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.GetTradeSwapCandidates(ctx, org); err != nil {
			s.logger.Error("Failed to warm trade-swap cache", zap.String("org", org), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
