package access

import (
	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"github.com/triumph-atlantic/matrix-api/internal/specialty"
)

// DeriveWorkedBy records, on each company reachable through the lookup, the
// contractors named on its projects per trade. Projects without a resolvable
// company, trade or contractor contribute nothing. Returns the number of
// projects whose company could not be resolved.
func DeriveWorkedBy(l *Lookup, projects []domain.Project) int {
	unresolved := 0
	for i := range projects {
		p := &projects[i]
		company := l.Company(p.CompanyName)
		if company == nil {
			unresolved++
			continue
		}
		contractor, ok := p.Contractor()
		if !ok {
			continue
		}
		trade, ok := specialty.ForProject(p)
		if !ok {
			continue
		}
		if company.WorkedBy == nil {
			company.WorkedBy = make(map[domain.TradeKey][]string)
		}
		if !containsOrg(company.WorkedBy[trade], contractor) {
			company.WorkedBy[trade] = append(company.WorkedBy[trade], contractor)
		}
	}
	return unresolved
}

func containsOrg(list []string, name string) bool {
	for _, s := range list {
		if domain.SameOrganization(s, name) {
			return true
		}
	}
	return false
}
