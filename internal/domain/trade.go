package domain

import "strings"

// TradeKey identifies a work category
type TradeKey string

const (
	TradeElectrical TradeKey = "electrical"
	TradeMechanical TradeKey = "mechanical"
	TradeInteriorGC TradeKey = "interior_gc"
	TradeMarketing  TradeKey = "marketing"
	TradeStaffing   TradeKey = "staffing"
)

// AllTrades lists the standard trades in display order
var AllTrades = []TradeKey{
	TradeElectrical,
	TradeMechanical,
	TradeInteriorGC,
	TradeMarketing,
	TradeStaffing,
}

// IsValidTrade checks if the trade is one of the standard trades
func IsValidTrade(s string) bool {
	for _, t := range AllTrades {
		if string(t) == s {
			return true
		}
	}
	return false
}

// SameOrganization compares organization names the way contractor matching does
func SameOrganization(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
