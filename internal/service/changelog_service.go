package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/triumph-atlantic/matrix-api/internal/auth"
	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"go.uber.org/zap"
)

// ChangeLogStore persists change log entries
type ChangeLogStore interface {
	Create(ctx context.Context, entry *domain.ChangeLogEntry) error
	List(ctx context.Context, limit int) ([]domain.ChangeLogEntry, error)
}

// ChangeLogService records modifications made through the API
type ChangeLogService struct {
	store  ChangeLogStore
	logger *zap.Logger
}

// NewChangeLogService creates a new change log service
func NewChangeLogService(store ChangeLogStore, logger *zap.Logger) *ChangeLogService {
	return &ChangeLogService{
		store:  store,
		logger: logger,
	}
}

// LogEntry is the input for a change log record
type LogEntry struct {
	Action     domain.ChangeAction
	EntityType string
	EntityID   string
	Summary    string
	Details    interface{}
}

// Record writes an entry owned by the caller's own organization. An oversight
// caller viewing as another organization still owns the entries it writes.
func (s *ChangeLogService) Record(ctx context.Context, entry LogEntry) error {
	user, ok := auth.FromContext(ctx)
	if !ok || user.Organization == "" {
		return ErrUnauthorized
	}

	record := &domain.ChangeLogEntry{
		Org:        user.Organization,
		ActorID:    user.UserID,
		ActorName:  user.DisplayName,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Summary:    truncate(entry.Summary, 500),
	}
	if entry.Details != nil {
		if details, err := json.Marshal(entry.Details); err == nil {
			record.Details = string(details)
		} else {
			s.logger.Warn("Failed to serialize change log details", zap.Error(err))
		}
	}

	if err := s.store.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to record change: %w", err)
	}

	s.logger.Debug("Change recorded",
		zap.String("org", record.Org),
		zap.String("action", string(record.Action)),
		zap.String("entity_type", record.EntityType),
		zap.String("entity_id", record.EntityID),
	)
	return nil
}

// List returns every entry, newest first
func (s *ChangeLogService) List(ctx context.Context, limit int) ([]domain.ChangeLogEntry, error) {
	return s.store.List(ctx, limit)
}

func truncate(s string, max int) string {
	if r := []rune(s); len(r) > max {
		return string(r[:max])
	}
	return s
}
