// Package specialty infers the trade a piece of work belongs to.
package specialty

import (
	"regexp"
	"strings"

	"github.com/triumph-atlantic/matrix-api/internal/domain"
)

type rule struct {
	trade   domain.TradeKey
	pattern *regexp.Regexp
}

// Order matters: the first matching group wins.
var rules = []rule{
	{domain.TradeElectrical, regexp.MustCompile(`(?i)\b(electrical|electric|panels?|lighting|switchgear|transformers?|breakers?|feeders?|conduit|power|wiring|generators?)\b`)},
	{domain.TradeMechanical, regexp.MustCompile(`(?i)\b(mechanical|hvac|chillers?|boilers?|ductwork|plumbing|piping|pumps?|rtus?|air handlers?|cooling|heating|ventilation|refrigeration)\b`)},
	{domain.TradeInteriorGC, regexp.MustCompile(`(?i)\b(interior|interiors|renovations?|build-?outs?|fit-?outs?|tenant improvements?|drywall|flooring|ceilings?|millwork|remodel\w*|general contract\w*)\b`)},
	{domain.TradeMarketing, regexp.MustCompile(`(?i)\b(marketing|campaigns?|brand\w*|advertising|ads|social media|seo|signage|promotions?|collateral)\b`)},
	{domain.TradeStaffing, regexp.MustCompile(`(?i)\b(staffing|staff|labor|labour|temps?|temporary|recruit\w*|placements?|workforce|personnel|hiring|manpower)\b`)},
}

// Resolve returns the trade for a project. An explicit trade is used verbatim
// (trimmed, lower-cased); otherwise the description is matched against the
// keyword groups. ok is false when nothing matches.
func Resolve(trade, description string) (domain.TradeKey, bool) {
	if t := strings.ToLower(strings.TrimSpace(trade)); t != "" {
		return domain.TradeKey(t), true
	}
	return Infer(description)
}

// Infer matches free text against the keyword groups only
func Infer(text string) (domain.TradeKey, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	for _, r := range rules {
		if r.pattern.MatchString(text) {
			return r.trade, true
		}
	}
	return "", false
}

// ForProject resolves the trade of a project record
func ForProject(p *domain.Project) (domain.TradeKey, bool) {
	return Resolve(p.Trade, p.JobDescription)
}
