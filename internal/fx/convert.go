// internal/fx/convert.go
package fx

import (
	"go.uber.org/zap"
)

// Convert turns an amount in the given source currency into the global
// display currency. A missing rate zeroes the single figure with a
// logged warning instead of silently applying a rate of 1, which would
// misstate multi-currency totals. The signed amount is multiplied as
// is, so conversion never flips sign.
func (t *Table) Convert(amount float64, from string) float64 {
	if from == "" {
		// Trips with no recorded currency default to the global display
		// currency.
		from = t.global
	}

	rate, ok := t.Rate(from)
	if !ok {
		t.logger.Warn("no conversion rate configured, zeroing figure",
			zap.String("from", from),
			zap.String("to", t.global),
			zap.Float64("amount", amount))
		return 0
	}

	return amount * rate
}
