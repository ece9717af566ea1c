package tradeswap

import (
	"strings"
	"time"

	"github.com/triumph-atlantic/matrix-api/internal/access"
	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"github.com/triumph-atlantic/matrix-api/internal/specialty"
)

// WorkMap is the ordered company -> location -> trade -> contractor mapping
// built from project records. Iteration order is the order in which each key
// was first seen.
type WorkMap struct {
	Companies []*CompanyWork
	index     map[string]*CompanyWork
}

// CompanyWork holds the locations worked at one client company
type CompanyWork struct {
	Company   *domain.Company
	Locations []*LocationWork
	index     map[string]*LocationWork
}

// LocationWork holds the contractor recorded per trade at one location
type LocationWork struct {
	Name   string
	City   string
	State  string
	Trades []domain.TradeKey
	work   map[domain.TradeKey]*assignment
}

type assignment struct {
	contractor  string
	performedOn *time.Time
}

// Contractor returns the contractor recorded for a trade at this location
func (l *LocationWork) Contractor(trade domain.TradeKey) (string, bool) {
	a, ok := l.work[trade]
	if !ok {
		return "", false
	}
	return a.contractor, true
}

// Company returns the work recorded for a company slug, or nil
func (m *WorkMap) Company(slug string) *CompanyWork {
	return m.index[domain.Slugify(slug)]
}

// Location returns the work recorded at a named location, or nil
func (c *CompanyWork) Location(name string) *LocationWork {
	return c.index[domain.Slugify(name)]
}

// BuildWorkMap scans the projects in order and records who performed each
// trade at each location. Projects without a resolvable company, a location,
// a trade or a contractor are skipped.
func (a *Analyzer) BuildWorkMap(input Input) *WorkMap {
	lookup := access.NewLookup(input.Companies, nil, input.Locations)
	return a.buildWorkMap(lookup, input.Projects)
}

func (a *Analyzer) buildWorkMap(lookup *access.Lookup, projects []domain.Project) *WorkMap {
	m := &WorkMap{index: make(map[string]*CompanyWork)}

	for i := range projects {
		p := &projects[i]
		company := lookup.Company(p.CompanyName)
		if company == nil {
			continue
		}
		locationName := strings.TrimSpace(p.LocationName)
		if locationName == "" {
			continue
		}
		trade, ok := specialty.ForProject(p)
		if !ok {
			continue
		}
		contractor, ok := resolveContractor(p, company, trade)
		if !ok {
			continue
		}

		cw := m.companyWork(company)
		lw := cw.locationWork(lookup, company, locationName)

		existing, seen := lw.work[trade]
		if !seen {
			lw.Trades = append(lw.Trades, trade)
			lw.work[trade] = &assignment{contractor: contractor, performedOn: p.PerformedOn}
			continue
		}
		if a.opts.PreferLatest && isLater(p.PerformedOn, existing.performedOn) {
			existing.contractor = contractor
			existing.performedOn = p.PerformedOn
		}
	}
	return m
}

func (m *WorkMap) companyWork(company *domain.Company) *CompanyWork {
	key := domain.Slugify(company.Slug)
	if cw, ok := m.index[key]; ok {
		return cw
	}
	cw := &CompanyWork{Company: company, index: make(map[string]*LocationWork)}
	m.index[key] = cw
	m.Companies = append(m.Companies, cw)
	return cw
}

func (c *CompanyWork) locationWork(lookup *access.Lookup, company *domain.Company, name string) *LocationWork {
	key := domain.Slugify(name)
	if lw, ok := c.index[key]; ok {
		return lw
	}
	lw := &LocationWork{Name: name, work: make(map[domain.TradeKey]*assignment)}
	if loc := lookup.Location(company.Slug, name); loc != nil {
		lw.City = loc.City
		lw.State = loc.State
	}
	c.index[key] = lw
	c.Locations = append(c.Locations, lw)
	return lw
}

// resolveContractor prefers the contractor named on the project and falls back
// to the company's static assignment for the trade
func resolveContractor(p *domain.Project, company *domain.Company, trade domain.TradeKey) (string, bool) {
	if c, ok := p.Contractor(); ok {
		return c, true
	}
	if c := strings.TrimSpace(company.Contractors[trade]); c != "" {
		return c, true
	}
	return "", false
}

func isLater(candidate, current *time.Time) bool {
	if candidate == nil {
		return false
	}
	return current == nil || candidate.After(*current)
}
