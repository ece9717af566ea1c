package seed_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"github.com/triumph-atlantic/matrix-api/internal/repository"
	"github.com/triumph-atlantic/matrix-api/internal/seed"
	"github.com/triumph-atlantic/matrix-api/internal/storage"
	"github.com/triumph-atlantic/matrix-api/internal/testutil"
	"go.uber.org/zap"
)

const document = `{
  "companies": [
    {"id": "acme", "name": "Acme", "tier": "Large", "status": "Active", "hq_state": "NJ",
     "contractors": {"Electrical": "Guercio Energy Group", "Interior GC": "Build Co", "marketing": " "}},
    {"name": "Globex Corp", "tier": "Mid"}
  ],
  "locations": [
    {"company_id": "acme", "name": "L1", "city": "Newark", "state": "NJ", "zip": 7102},
    {"company_id": "acme", "name": "L2", "city": "Trenton", "state": "NJ", "zip": "08608"}
  ],
  "contacts": [
    {"email": "Pat@Acme.com", "company_id": "acme", "location": "l2", "name": "Pat", "phone": 5551234,
     "preferred_contact": "email", "cadence_days": 30, "last_contacted": "2024-03-01"},
    {"email": "sam@acme.com", "company_id": "acme", "location": "Nowhere", "last_contacted": "last spring"}
  ],
  "projects": [
    {"company": "Acme", "location": "L1", "trade": "Electrical", "performed_by": "Guercio Energy Group", "performed_on": "2024-01-10", "valuation": "$125,000"},
    {"company": "Acme", "location": "L2", "job": "Chiller swap", "vendor": "Myers Industrial Services", "end_date": "2024-02-10T15:04:05Z", "valuation": 40000},
    {"company": "Acme", "location": "L2", "subcontractor": "Build Co", "start_date": "02/10/2024"}
  ],
  "opportunities": [
    {"company": "Globex Corp", "trade": "mechanical", "stage": "lead", "estimated_value": "250k", "expected_close": "2024-09-30"}
  ],
  "gifts": [
    {"contact_email": "pat@acme.com", "description": "Tickets", "value": 200, "sent_by": "Guercio Energy Group", "sent_on": "2024-04-01"}
  ],
  "referrals": [
    {"contact_email": "pat@acme.com", "referred_to": "Myers Industrial Services", "status": "open"}
  ]
}`

// =============================================================================
// Decoding
// =============================================================================

func TestDecode(t *testing.T) {
	snap, err := seed.Decode(strings.NewReader(document))
	require.NoError(t, err)

	assert.Equal(t, seed.Counts{Companies: 2, Locations: 2, Contacts: 2, Projects: 3, Opportunities: 1, Gifts: 1, Referrals: 1}, seed.CountsOf(snap))

	t.Run("companies", func(t *testing.T) {
		acme := snap.Companies[0]
		assert.Equal(t, "acme", acme.Slug)
		assert.Equal(t, domain.CompanyTierLarge, acme.Tier)
		assert.Equal(t, domain.ContractorAssignments{
			domain.TradeElectrical: "Guercio Energy Group",
			domain.TradeInteriorGC: "Build Co",
		}, acme.Contractors, "keys normalized, empty slots dropped")

		assert.Equal(t, "globex-corp", snap.Companies[1].Slug, "slug derived from the name")
	})

	t.Run("locations and contacts", func(t *testing.T) {
		assert.Equal(t, "7102", snap.Locations[0].Zip)
		assert.Equal(t, "08608", snap.Locations[1].Zip)

		pat := snap.Contacts[0]
		assert.Equal(t, "pat@acme.com", pat.Email)
		assert.Equal(t, "5551234", pat.Phone)
		require.NotNil(t, pat.LocationID, "location matched case-insensitively by name")
		assert.Equal(t, snap.Locations[1].ID, *pat.LocationID)
		assert.Equal(t, testutil.Date("2024-03-01"), pat.LastContacted)

		sam := snap.Contacts[1]
		assert.Nil(t, sam.LocationID)
		assert.Nil(t, sam.LastContacted, "unparseable dates are absent")
	})

	t.Run("projects", func(t *testing.T) {
		assert.Equal(t, "Guercio Energy Group", snap.Projects[0].PerformedBy)
		assert.Equal(t, "electrical", snap.Projects[0].Trade)
		assert.Equal(t, "Myers Industrial Services", snap.Projects[1].PerformedBy)
		assert.Equal(t, "40000", snap.Projects[1].Valuation)
		require.NotNil(t, snap.Projects[1].EndDate)
		assert.Equal(t, 15, snap.Projects[1].EndDate.Hour())
		assert.Equal(t, "Build Co", snap.Projects[2].PerformedBy)
		assert.Nil(t, snap.Projects[2].StartDate)
	})

	t.Run("activities", func(t *testing.T) {
		assert.Equal(t, "200", snap.Gifts[0].Value)
		assert.Equal(t, "250k", snap.Opportunities[0].EstimatedValue)
		assert.Equal(t, "open", snap.Referrals[0].Status)
	})
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed json", `{"companies": [`},
		{"duplicate company", `{"companies": [{"id": "acme", "name": "Acme"}, {"name": "ACME"}]}`},
		{"nameless company", `{"companies": [{"tier": "Large"}]}`},
		{"object valuation", `{"projects": [{"company": "Acme", "valuation": {"amount": 1}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := seed.Decode(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestEncode_WritesSnakeCase(t *testing.T) {
	snap, err := seed.Decode(strings.NewReader(document))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, seed.Encode(&buf, snap))
	out := buf.String()

	assert.Contains(t, out, `"hq_state": "NJ"`)
	assert.Contains(t, out, `"company_id": "acme"`)
	assert.Contains(t, out, `"performed_on": "2024-01-10"`)
	assert.Contains(t, out, `"end_date": "2024-02-10T15:04:05Z"`)
	assert.Contains(t, out, `"location": "L2"`)

	again, err := seed.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, seed.CountsOf(snap), seed.CountsOf(again))
	assert.Equal(t, snap.Companies[0].Contractors, again.Companies[0].Contractors)
}

// =============================================================================
// Seeder
// =============================================================================

func TestSeeder_ImportAndExport(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	objects, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = objects.Put(ctx, "seed/matrix.json", "application/json", strings.NewReader(document))
	require.NoError(t, err)

	seeder := seed.NewSeeder(repository.NewStore(db), objects, zap.NewNop())

	imported, err := seeder.Import(ctx, "seed/matrix.json")
	require.NoError(t, err)
	assert.Equal(t, 3, imported.Projects)

	exported, err := seeder.Export(ctx, "backup/matrix.json")
	require.NoError(t, err)
	assert.Equal(t, imported, exported)

	rc, err := objects.Get(ctx, "backup/matrix.json")
	require.NoError(t, err)
	defer rc.Close()
	snap, err := seed.Decode(rc)
	require.NoError(t, err)

	var pat *domain.Contact
	for i := range snap.Contacts {
		if snap.Contacts[i].Email == "pat@acme.com" {
			pat = &snap.Contacts[i]
		}
	}
	require.NotNil(t, pat)
	require.NotNil(t, pat.LocationID, "location reference survives the database round trip")
}

func TestSeeder_MissingObject(t *testing.T) {
	objects, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	seeder := seed.NewSeeder(repository.NewStore(testutil.NewTestDB(t)), objects, zap.NewNop())

	_, err = seeder.Import(context.Background(), "missing.json")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
