package tradeswap

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/triumph-atlantic/matrix-api/internal/access"
	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"github.com/triumph-atlantic/matrix-api/internal/specialty"
)

// CompanySummary groups the projects at a company by contractor. Sorted by
// project count descending, then most recent work first. Projects with no
// contractor are left out; projects with no resolvable trade still count.
func (a *Analyzer) CompanySummary(companyRef string, input Input) []domain.ContractorWorkSummary {
	lookup := access.NewLookup(input.Companies, nil, input.Locations)
	company := lookup.Company(companyRef)
	if company == nil {
		return []domain.ContractorWorkSummary{}
	}

	var summaries []*domain.ContractorWorkSummary
	byContractor := make(map[string]*domain.ContractorWorkSummary)

	for i := range input.Projects {
		p := &input.Projects[i]
		if lookup.Company(p.CompanyName) != company {
			continue
		}

		trade, hasTrade := specialty.ForProject(p)
		contractor, ok := p.Contractor()
		if !ok && hasTrade {
			contractor, ok = resolveContractor(p, company, trade)
		}
		if !ok {
			continue
		}

		key := strings.ToLower(contractor)
		s, exists := byContractor[key]
		if !exists {
			s = &domain.ContractorWorkSummary{
				Contractor: contractor,
				Trades:     []domain.TradeKey{},
				TotalValue: decimal.Zero,
			}
			byContractor[key] = s
			summaries = append(summaries, s)
		}

		s.Count++
		s.TotalValue = s.TotalValue.Add(ParseValuation(p.Valuation))
		if hasTrade && !containsTrade(s.Trades, trade) {
			s.Trades = append(s.Trades, trade)
		}
		if d := p.WorkDate(); isLater(d, s.LastDate) {
			s.LastDate = d
		}
	}

	out := make([]domain.ContractorWorkSummary, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return isLater(out[i].LastDate, out[j].LastDate)
	})
	return out
}

func containsTrade(trades []domain.TradeKey, t domain.TradeKey) bool {
	for _, existing := range trades {
		if existing == t {
			return true
		}
	}
	return false
}
