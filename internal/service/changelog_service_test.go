package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/triumph-atlantic/matrix-api/internal/auth"
	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"github.com/triumph-atlantic/matrix-api/internal/service"
	"github.com/triumph-atlantic/matrix-api/internal/testutil"
)

func TestChangeLogService_Record(t *testing.T) {
	s := newServices(t)

	err := s.changeLog.Record(userContext(testutil.Myers), service.LogEntry{
		Action:     domain.ChangeActionUpdate,
		EntityType: "contact",
		EntityID:   "lee@globex.com",
		Summary:    "Touched contact",
		Details:    map[string]string{"channel": "phone"},
	})
	require.NoError(t, err)

	entries, err := s.changeLog.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, testutil.Myers, e.Org)
	assert.Equal(t, "user-1", e.ActorID)
	assert.Equal(t, "Test User", e.ActorName)
	assert.Equal(t, domain.ChangeActionUpdate, e.Action)
	assert.JSONEq(t, `{"channel":"phone"}`, e.Details)
}

func TestChangeLogService_OwnedByCallerNotViewedOrg(t *testing.T) {
	s := newServices(t)

	ctx := auth.WithOrgFilter(userContext(testutil.Oversight), &auth.OrgFilter{Organization: testutil.Guercio, ViewingAs: true})
	require.NoError(t, s.changeLog.Record(ctx, service.LogEntry{Action: domain.ChangeActionCreate, EntityType: "company"}))

	entries, err := s.changeLog.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testutil.Oversight, entries[0].Org)
}

func TestChangeLogService_RequiresUser(t *testing.T) {
	s := newServices(t)

	err := s.changeLog.Record(context.Background(), service.LogEntry{Action: domain.ChangeActionCreate, EntityType: "company"})
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestChangeLogService_TruncatesSummary(t *testing.T) {
	s := newServices(t)

	require.NoError(t, s.changeLog.Record(userContext(testutil.Guercio), service.LogEntry{
		Action: domain.ChangeActionCreate, EntityType: "gift", Summary: strings.Repeat("é", 600),
	}))

	entries, err := s.changeLog.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 500, len([]rune(entries[0].Summary)))
}
