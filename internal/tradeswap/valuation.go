package tradeswap

import (
	"strings"

	"github.com/shopspring/decimal"
)

var suffixMultipliers = map[byte]decimal.Decimal{
	'k': decimal.NewFromInt(1_000),
	'm': decimal.NewFromInt(1_000_000),
	'b': decimal.NewFromInt(1_000_000_000),
}

// ParseValuation parses free-form money strings such as "$125,000", "$1.2M",
// "250k" or "1.5B". Anything malformed is zero.
func ParseValuation(raw string) decimal.Decimal {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "usd")
	s = strings.TrimSuffix(s, "usd")
	s = strings.NewReplacer("$", "", ",", "", " ", "", "_", "").Replace(s)
	if s == "" {
		return decimal.Zero
	}

	multiplier := decimal.NewFromInt(1)
	if m, ok := suffixMultipliers[s[len(s)-1]]; ok {
		multiplier = m
		s = s[:len(s)-1]
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d.Mul(multiplier)
}
