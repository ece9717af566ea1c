// Package tradeswap finds contractors who could introduce each other at shared
// client companies.
//
// Work records are folded into a work map of company, location and trade to
// the contractor who did the work. For every pair of trades at a company, each
// contractor of one trade is paired with each contractor of the other, and the
// locations where one is trusted but the other is absent become introduction
// suggestions. Pairs are scored by company tier and ranked.
package tradeswap

import (
	"sort"
	"strings"

	"github.com/triumph-atlantic/matrix-api/internal/access"
	"github.com/triumph-atlantic/matrix-api/internal/domain"
)

// Options tune how ambiguous inputs are resolved
type Options struct {
	// CanonicalPairs merges (A,B) and (B,A) into one bucket keyed by the
	// case-insensitive lexicographic order of the two contractors.
	CanonicalPairs bool
	// PreferLatest keeps the most recently performed project per
	// (company, location, trade) instead of the first one seen.
	PreferLatest bool
}

// DefaultOptions returns the options used by the API
func DefaultOptions() Options {
	return Options{CanonicalPairs: true}
}

// Input is an already filtered snapshot
type Input struct {
	Companies []domain.Company
	Locations []domain.Location
	Projects  []domain.Project
}

// Analyzer computes trade-swap candidates. It holds no state between calls.
type Analyzer struct {
	opts Options
}

// NewAnalyzer creates an analyzer
func NewAnalyzer(opts Options) *Analyzer {
	return &Analyzer{opts: opts}
}

// Options returns the analyzer options
func (a *Analyzer) Options() Options {
	return a.opts
}

type contractorWork struct {
	name      string
	locations []*LocationWork
}

type tradeWork struct {
	trade       domain.TradeKey
	contractors []*contractorWork
}

// Analyze returns introduction candidates ranked by potential value.
// Ties keep discovery order.
func (a *Analyzer) Analyze(input Input) []domain.TradeSwapCandidate {
	lookup := access.NewLookup(input.Companies, nil, input.Locations)
	workMap := a.buildWorkMap(lookup, input.Projects)

	buckets := make(map[string]*domain.TradeSwapCandidate)
	var order []string

	for _, cw := range workMap.Companies {
		trades := collapse(cw)
		weight := cw.Company.Tier.Weight()

		for i := 0; i < len(trades); i++ {
			for j := i + 1; j < len(trades); j++ {
				sA, sB := trades[i], trades[j]
				for _, ca := range sA.contractors {
					for _, cb := range sB.contractors {
						if domain.SameOrganization(ca.name, cb.name) {
							continue
						}
						pair := buildPair(cw, sA.trade, sB.trade, ca, cb)
						if len(pair.IntrosAtoB) == 0 && len(pair.IntrosBtoA) == 0 {
							continue
						}

						nameA, nameB := ca.name, cb.name
						if a.opts.CanonicalPairs && strings.ToLower(nameA) > strings.ToLower(nameB) {
							nameA, nameB = nameB, nameA
							pair = swapPair(pair)
						}
						key := a.pairKey(nameA, nameB)

						candidate, ok := buckets[key]
						if !ok {
							candidate = &domain.TradeSwapCandidate{ContractorA: nameA, ContractorB: nameB}
							buckets[key] = candidate
							order = append(order, key)
						}
						candidate.Pairs = append(candidate.Pairs, pair)
						candidate.PotentialValue += weight * (len(pair.IntrosAtoB) + len(pair.IntrosBtoA))
					}
				}
			}
		}
	}

	result := make([]domain.TradeSwapCandidate, 0, len(order))
	for _, key := range order {
		result = append(result, *buckets[key])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].PotentialValue > result[j].PotentialValue
	})
	return result
}

func (a *Analyzer) pairKey(nameA, nameB string) string {
	if a.opts.CanonicalPairs {
		return strings.ToLower(strings.TrimSpace(nameA)) + "||" + strings.ToLower(strings.TrimSpace(nameB))
	}
	return nameA + "||" + nameB
}

// collapse turns the location-level map of a company into
// trade -> contractor -> locations, preserving first-seen order
func collapse(cw *CompanyWork) []*tradeWork {
	var trades []*tradeWork
	byTrade := make(map[domain.TradeKey]*tradeWork)

	for _, lw := range cw.Locations {
		for _, trade := range lw.Trades {
			contractor, _ := lw.Contractor(trade)

			tw, ok := byTrade[trade]
			if !ok {
				tw = &tradeWork{trade: trade}
				byTrade[trade] = tw
				trades = append(trades, tw)
			}

			var work *contractorWork
			for _, c := range tw.contractors {
				if domain.SameOrganization(c.name, contractor) {
					work = c
					break
				}
			}
			if work == nil {
				work = &contractorWork{name: contractor}
				tw.contractors = append(tw.contractors, work)
			}
			work.locations = append(work.locations, lw)
		}
	}
	return trades
}

func buildPair(cw *CompanyWork, sA, sB domain.TradeKey, ca, cb *contractorWork) domain.TradeSwapPair {
	companyName := cw.Company.Name
	if companyName == "" {
		companyName = cw.Company.Slug
	}

	pair := domain.TradeSwapPair{
		Company:    companyName,
		Tier:       cw.Company.Tier,
		ASpecialty: sA,
		BSpecialty: sB,
		AWorked:    worked(ca.locations),
		BWorked:    worked(cb.locations),
		IntrosAtoB: []domain.Introduction{},
		IntrosBtoA: []domain.Introduction{},
	}

	// Where A is trusted for sA and B is not already doing sB, introduce B
	for _, lw := range ca.locations {
		if !recorded(lw, sB, cb.name) {
			pair.IntrosAtoB = append(pair.IntrosAtoB, introduction(companyName, lw, sB))
		}
	}
	for _, lw := range cb.locations {
		if !recorded(lw, sA, ca.name) {
			pair.IntrosBtoA = append(pair.IntrosBtoA, introduction(companyName, lw, sA))
		}
	}
	return pair
}

func swapPair(p domain.TradeSwapPair) domain.TradeSwapPair {
	p.ASpecialty, p.BSpecialty = p.BSpecialty, p.ASpecialty
	p.AWorked, p.BWorked = p.BWorked, p.AWorked
	p.IntrosAtoB, p.IntrosBtoA = p.IntrosBtoA, p.IntrosAtoB
	return p
}

func recorded(lw *LocationWork, trade domain.TradeKey, contractor string) bool {
	existing, ok := lw.Contractor(trade)
	return ok && domain.SameOrganization(existing, contractor)
}

func worked(locations []*LocationWork) []domain.WorkedLocation {
	out := make([]domain.WorkedLocation, 0, len(locations))
	for _, lw := range locations {
		out = append(out, domain.WorkedLocation{Location: lw.Name, City: lw.City, State: lw.State})
	}
	return out
}

func introduction(company string, lw *LocationWork, trade domain.TradeKey) domain.Introduction {
	return domain.Introduction{
		Company:   company,
		Location:  lw.Name,
		City:      lw.City,
		State:     lw.State,
		Specialty: trade,
	}
}
