package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/triumph-atlantic/matrix-api/internal/access"
	"github.com/triumph-atlantic/matrix-api/internal/domain"
)

const (
	oversight = "Triumph Atlantic"
	guercio   = "Guercio Energy Group"
	myers     = "Myers Industrial Services"
)

func testCompanies() []domain.Company {
	return []domain.Company{
		{Slug: "acme", Name: "Acme", Tier: domain.CompanyTierLarge,
			Contractors: domain.ContractorAssignments{domain.TradeElectrical: guercio}},
		{Slug: "globex", Name: "Globex", Tier: domain.CompanyTierMid,
			Contractors: domain.ContractorAssignments{domain.TradeMechanical: myers}},
	}
}

// =============================================================================
// Organization checks
// =============================================================================

func TestPolicy_IsOversight(t *testing.T) {
	p := access.NewPolicy(oversight)

	assert.True(t, p.IsOversight("Triumph Atlantic"))
	assert.False(t, p.IsOversight("triumph atlantic"), "oversight match is case-sensitive")
	assert.False(t, p.IsOversight(guercio))
	assert.False(t, p.IsOversight(""))

	assert.True(t, p.CanModify(oversight))
	assert.False(t, p.CanModify(guercio))
}

func TestPolicy_EmptyOversightNeverMatches(t *testing.T) {
	p := access.NewPolicy("")
	assert.False(t, p.IsOversight(""))
}

func TestPolicy_CompanyVisibleTo(t *testing.T) {
	p := access.NewPolicy(oversight)
	companies := testCompanies()

	assert.True(t, p.CompanyVisibleTo(&companies[0], guercio))
	assert.True(t, p.CompanyVisibleTo(&companies[0], "GUERCIO ENERGY GROUP"), "contractor match is case-insensitive")
	assert.False(t, p.CompanyVisibleTo(&companies[0], myers))
	assert.False(t, p.CompanyVisibleTo(nil, guercio))
	assert.True(t, p.CompanyVisibleTo(nil, oversight))
}

func TestPolicy_EmptySlotsNeverMatch(t *testing.T) {
	p := access.NewPolicy(oversight)
	company := domain.Company{Slug: "empty", Contractors: domain.ContractorAssignments{
		domain.TradeElectrical: "",
		domain.TradeStaffing:   "   ",
	}}

	assert.False(t, p.CompanyVisibleTo(&company, ""))
	assert.False(t, p.CompanyVisibleTo(&company, "   "))
}

// =============================================================================
// Company filtering
// =============================================================================

func TestPolicy_FilterCompanies_OversightSeesAll(t *testing.T) {
	p := access.NewPolicy(oversight)
	companies := []domain.Company{
		{Slug: "a", Contractors: domain.ContractorAssignments{domain.TradeElectrical: "Guercio"}},
		{Slug: "b", Contractors: domain.ContractorAssignments{}},
	}

	got := p.FilterCompanies(companies, oversight)
	assert.Equal(t, companies, got)
}

func TestPolicy_FilterCompanies_ContractorSeesAssigned(t *testing.T) {
	p := access.NewPolicy(oversight)
	companies := []domain.Company{
		{Slug: "a", Contractors: domain.ContractorAssignments{domain.TradeElectrical: guercio}},
		{Slug: "b", Contractors: domain.ContractorAssignments{domain.TradeMechanical: myers}},
	}

	got := p.FilterCompanies(companies, guercio)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Slug)
}

func TestPolicy_FilterCompanies_UnknownOrgSeesNothing(t *testing.T) {
	p := access.NewPolicy(oversight)
	got := p.FilterCompanies(testCompanies(), "Nobody LLC")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

// =============================================================================
// Dependent filtering
// =============================================================================

func TestFilterDependents(t *testing.T) {
	p := access.NewPolicy(oversight)
	companies := testCompanies()
	lookup := access.NewLookup(companies, nil, nil)

	projects := []domain.Project{
		{CompanyName: "Acme", JobDescription: "Panel work"},
		{CompanyName: "Globex", JobDescription: "HVAC"},
		{CompanyName: "Initech", JobDescription: "Ghost company"},
	}
	resolve := func(pr domain.Project) *domain.Company { return lookup.Company(pr.CompanyName) }

	t.Run("oversight gets the input unchanged", func(t *testing.T) {
		got := access.FilterDependents(p, projects, oversight, resolve)
		assert.Equal(t, projects, got)
	})

	t.Run("contractor sees only dependents of visible companies", func(t *testing.T) {
		got := access.FilterDependents(p, projects, guercio, resolve)
		require.Len(t, got, 1)
		assert.Equal(t, "Acme", got[0].CompanyName)
	})

	t.Run("unresolved company is excluded for every contractor", func(t *testing.T) {
		for _, org := range []string{guercio, myers, "Nobody"} {
			got := access.FilterDependents(p, projects, org, resolve)
			for _, pr := range got {
				assert.NotEqual(t, "Initech", pr.CompanyName)
			}
		}
	})
}

func TestFilterDependents_Monotonicity(t *testing.T) {
	p := access.NewPolicy(oversight)
	companies := testCompanies()
	locations := []domain.Location{
		{CompanySlug: "acme", Name: "L1"},
		{CompanySlug: "acme", Name: "L2"},
		{CompanySlug: "globex", Name: "G1"},
	}
	lookup := access.NewLookup(companies, nil, locations)

	got := access.FilterDependents(p, locations, guercio, func(l domain.Location) *domain.Company {
		return lookup.Company(l.CompanySlug)
	})
	assert.Len(t, got, 2, "every location of an assigned company is visible")

	got = access.FilterDependents(p, locations, myers, func(l domain.Location) *domain.Company {
		return lookup.Company(l.CompanySlug)
	})
	require.Len(t, got, 1)
	assert.Equal(t, "G1", got[0].Name)
}

func TestFilterTransitive(t *testing.T) {
	p := access.NewPolicy(oversight)
	companies := testCompanies()
	contacts := []domain.Contact{
		{Email: "pat@acme.com", CompanySlug: "acme"},
		{Email: "lee@globex.com", CompanySlug: "globex"},
		{Email: "orphan@nowhere.com", CompanySlug: "missing"},
	}
	lookup := access.NewLookup(companies, contacts, nil)

	gifts := []domain.Gift{
		{ContactEmail: "PAT@acme.com", Description: "tickets"},
		{ContactEmail: "lee@globex.com", Description: "wine"},
		{ContactEmail: "ghost@acme.com", Description: "unknown contact"},
		{ContactEmail: "orphan@nowhere.com", Description: "unknown company"},
	}
	resolveContact := func(g domain.Gift) *domain.Contact { return lookup.Contact(g.ContactEmail) }

	got := access.FilterTransitive(p, gifts, guercio, resolveContact, lookup.ContactCompany)
	require.Len(t, got, 1)
	assert.Equal(t, "tickets", got[0].Description)

	all := access.FilterTransitive(p, gifts, oversight, resolveContact, lookup.ContactCompany)
	assert.Equal(t, gifts, all)
}

// =============================================================================
// Change log
// =============================================================================

func TestPolicy_FilterChangeLog(t *testing.T) {
	p := access.NewPolicy(oversight)
	entries := []domain.ChangeLogEntry{
		{Org: guercio, Summary: "one"},
		{Org: "guercio energy group", Summary: "two"},
		{Org: myers, Summary: "three"},
	}

	assert.Equal(t, entries, p.FilterChangeLog(entries, oversight))

	got := p.FilterChangeLog(entries, guercio)
	require.Len(t, got, 1, "log ownership is exact-case")
	assert.Equal(t, "one", got[0].Summary)
}

// =============================================================================
// Project-derived visibility
// =============================================================================

func TestDeriveWorkedBy_GrantsVisibilityFromProjects(t *testing.T) {
	p := access.NewPolicy(oversight)
	companies := testCompanies()
	lookup := access.NewLookup(companies, nil, nil)

	projects := []domain.Project{
		{CompanyName: "Globex", PerformedBy: guercio, JobDescription: "Switchgear upgrade"},
		{CompanyName: "Globex", PerformedBy: guercio, Trade: "electrical"},
		{CompanyName: "Globex", JobDescription: "Lighting"},
		{CompanyName: "Nowhere Inc", PerformedBy: guercio, Trade: "electrical"},
	}

	unresolved := access.DeriveWorkedBy(lookup, projects)
	assert.Equal(t, 1, unresolved)
	assert.Equal(t, []string{guercio}, companies[1].WorkedBy[domain.TradeElectrical])

	assert.True(t, p.CompanyVisibleTo(&companies[1], guercio))
	assert.True(t, p.CompanyVisibleTo(&companies[1], myers), "static mechanical slot still applies")
}

func TestDeriveWorkedBy_StaticContractorKeepsVisibility(t *testing.T) {
	p := access.NewPolicy(oversight)
	companies := []domain.Company{{
		Slug: "acme", Name: "Acme",
		Contractors: domain.ContractorAssignments{domain.TradeElectrical: guercio},
	}}
	lookup := access.NewLookup(companies, nil, nil)

	// Another organization logs work in the statically assigned trade
	access.DeriveWorkedBy(lookup, []domain.Project{
		{CompanyName: "Acme", Trade: "electrical", PerformedBy: "Other Electric"},
	})

	assert.True(t, p.CompanyVisibleTo(&companies[0], guercio))
	assert.True(t, p.CompanyVisibleTo(&companies[0], "Other Electric"))
	assert.False(t, p.CompanyVisibleTo(&companies[0], myers))
}

// =============================================================================
// Lookup
// =============================================================================

func TestLookup(t *testing.T) {
	companies := []domain.Company{{Slug: "acme-corp", Name: "Acme Corp."}}
	locations := []domain.Location{{CompanySlug: "acme-corp", Name: "North Plant", City: "Newark"}}
	lookup := access.NewLookup(companies, nil, locations)

	assert.NotNil(t, lookup.Company("acme-corp"))
	assert.NotNil(t, lookup.Company("ACME CORP"))
	assert.Nil(t, lookup.Company(""))
	assert.Nil(t, lookup.Company("Acme"))

	loc := lookup.Location("Acme Corp.", "north plant")
	require.NotNil(t, loc)
	assert.Equal(t, "Newark", loc.City)
	assert.Nil(t, lookup.Location("Unknown", "North Plant"))
	assert.Nil(t, lookup.ContactCompany(nil))
}
