package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts an extracted token from comma-decimal notation into
// an exact decimal value ("1234,56" becomes 1234.56). Tokens come out of
// the extractor with digits and at most one comma, so swapping the comma
// for a dot is all the normalization needed.
func ParseAmount(token string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.ReplaceAll(token, ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", token, err)
	}
	return value, nil
}

// FilterAmounts parses every token and keeps the values inside [min, max].
// A token that does not parse is treated like an out-of-range value and
// dropped. Returns the kept values in input order and the number of
// dropped tokens.
func FilterAmounts(tokens []string, min, max decimal.Decimal) ([]decimal.Decimal, int) {
	kept := make([]decimal.Decimal, 0, len(tokens))
	dropped := 0

	for _, token := range tokens {
		value, err := ParseAmount(token)
		if err != nil || value.LessThan(min) || value.GreaterThan(max) {
			dropped++
			continue
		}
		kept = append(kept, value)
	}

	return kept, dropped
}

// Summarize computes the run statistics from the extracted tokens and the
// values that survived filtering
func Summarize(tokens []string, values []decimal.Decimal) Stats {
	stats := Stats{
		TokenCount: len(tokens),
		ValueCount: len(values),
	}
	if len(values) == 0 {
		return stats
	}

	min, max, total := values[0], values[0], decimal.Zero
	for _, v := range values {
		if v.LessThan(min) {
			min = v
		}
		if v.GreaterThan(max) {
			max = v
		}
		total = total.Add(v)
	}

	stats.Min = min
	stats.Max = max
	stats.Total = total
	stats.Mean = total.Div(decimal.NewFromInt(int64(len(values)))).Round(2)

	return stats
}
