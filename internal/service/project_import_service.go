package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"go.uber.org/zap"
)

// ProjectSource reads projects from an external system of record
type ProjectSource interface {
	ListProjects(ctx context.Context, since *time.Time) ([]domain.Project, error)
}

// ProjectUpserter stores imported projects keyed by their external reference
type ProjectUpserter interface {
	UpsertByExternalRef(ctx context.Context, projects []domain.Project) error
}

// ImportResult summarizes one import run
type ImportResult struct {
	Fetched    int           `json:"fetched"`
	Imported   int           `json:"imported"`
	Skipped    int           `json:"skipped"`
	Duplicates int           `json:"duplicates"`
	Since      *time.Time    `json:"since,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// ProjectImportService pulls completed jobs from the warehouse into the
// project collection. After the first successful run only rows modified
// since the previous run are read.
type ProjectImportService struct {
	source      ProjectSource
	projects    ProjectUpserter
	invalidator Invalidator
	logger      *zap.Logger

	mu       sync.Mutex
	lastSync *time.Time
	now      func() time.Time
}

// NewProjectImportService creates a new project import service
func NewProjectImportService(source ProjectSource, projects ProjectUpserter, invalidator Invalidator, logger *zap.Logger) *ProjectImportService {
	return &ProjectImportService{
		source:      source,
		projects:    projects,
		invalidator: invalidator,
		logger:      logger,
		now:         time.Now,
	}
}

// Sync imports new and changed projects. With full set, the whole export is read.
// Runs are serialized.
func (s *ProjectImportService) Sync(ctx context.Context, full bool) (*ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	result := &ImportResult{}
	if !full {
		result.Since = s.lastSync
	}

	fetched, err := s.source.ListProjects(ctx, result.Since)
	if err != nil {
		return nil, fmt.Errorf("failed to read warehouse projects: %w", err)
	}
	result.Fetched = len(fetched)

	valid := make([]domain.Project, 0, len(fetched))
	// One row per reference: an upsert may not touch the same row twice.
	// The last version wins and keeps the position of the first.
	byRef := make(map[string]int, len(fetched))
	for _, p := range fetched {
		if p.ExternalRef == nil || *p.ExternalRef == "" || p.CompanyName == "" {
			result.Skipped++
			continue
		}
		if i, ok := byRef[*p.ExternalRef]; ok {
			valid[i] = p
			result.Duplicates++
			continue
		}
		byRef[*p.ExternalRef] = len(valid)
		valid = append(valid, p)
	}

	if err := s.projects.UpsertByExternalRef(ctx, valid); err != nil {
		return nil, fmt.Errorf("failed to store imported projects: %w", err)
	}
	result.Imported = len(valid)
	if result.Imported > 0 && s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}

	s.lastSync = &start
	result.Duration = s.now().Sub(start)

	s.logger.Info("Warehouse projects imported",
		zap.Int("fetched", result.Fetched),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.Int("duplicates", result.Duplicates),
		zap.Bool("full", full),
	)
	return result, nil
}
