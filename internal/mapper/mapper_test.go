package mapper_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"github.com/triumph-atlantic/matrix-api/internal/mapper"
)

func TestToContactDTOs(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	recent := now.AddDate(0, 0, -10)
	stale := now.AddDate(0, 0, -45)

	contacts := []domain.Contact{
		{Email: "recent@acme.com", CadenceDays: 30, LastContacted: &recent},
		{Email: "stale@acme.com", CadenceDays: 30, LastContacted: &stale},
		{Email: "never@acme.com", CadenceDays: 14},
		{Email: "nocadence@acme.com"},
	}

	all := mapper.ToContactDTOs(contacts, now, false)
	require.Len(t, all, 4)
	assert.False(t, all[0].Overdue)
	assert.True(t, all[1].Overdue)
	assert.True(t, all[2].Overdue, "never contacted with a cadence is overdue")
	assert.False(t, all[3].Overdue)

	overdue := mapper.ToContactDTOs(contacts, now, true)
	require.Len(t, overdue, 2)
	assert.Equal(t, "stale@acme.com", overdue[0].Email)
	assert.Equal(t, "never@acme.com", overdue[1].Email)

	assert.NotNil(t, mapper.ToContactDTOs(nil, now, true))
}

func TestToOrganizations(t *testing.T) {
	orgs := mapper.ToOrganizations([]string{"Triumph Atlantic", "Guercio Energy Group"}, "Triumph Atlantic")
	assert.Equal(t, []domain.Organization{
		{Name: "Triumph Atlantic", Oversight: true},
		{Name: "Guercio Energy Group"},
	}, orgs)
}
