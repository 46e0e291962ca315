// internal/fx/table.go
package fx

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Table holds conversion rates keyed by ordered currency pair, targeting
// a single global display currency. It is immutable after construction
// and safe for concurrent use.
type Table struct {
	global string
	rates  map[string]map[string]float64
	logger *zap.Logger
}

// ratesFile is the on-disk shape: {"rates": {"USD": {"HKD": 7.8}}}.
type ratesFile struct {
	Rates map[string]map[string]float64 `json:"rates"`
}

// NewTable builds a table from an in-memory rate map. Non-positive
// rates are dropped: a negative rate would flip the sign of every
// converted figure.
func NewTable(global string, rates map[string]map[string]float64, logger *zap.Logger) *Table {
	if logger == nil {
		logger = zap.NewNop()
	}
	global = strings.ToUpper(global)

	clean := make(map[string]map[string]float64, len(rates))
	for from, pairs := range rates {
		for to, rate := range pairs {
			if rate <= 0 {
				logger.Warn("dropping invalid conversion rate",
					zap.String("from", from),
					zap.String("to", to),
					zap.Float64("rate", rate))
				continue
			}
			f, t := strings.ToUpper(from), strings.ToUpper(to)
			if clean[f] == nil {
				clean[f] = make(map[string]float64)
			}
			clean[f][t] = rate
		}
	}

	return &Table{global: global, rates: clean, logger: logger}
}

// Load reads a rate table from a JSON file.
func Load(path, global string, logger *zap.Logger) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rates file %s: %w", path, err)
	}

	var f ratesFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rates file %s: %w", path, err)
	}

	return NewTable(global, f.Rates, logger), nil
}

// Global returns the display currency every conversion targets.
func (t *Table) Global() string {
	return t.global
}

// Rate returns the configured rate from the given currency into the
// global currency. The identity pair always resolves to 1.
func (t *Table) Rate(from string) (float64, bool) {
	from = strings.ToUpper(from)
	if from == t.global {
		return 1, true
	}
	rate, ok := t.rates[from][t.global]
	return rate, ok
}

// HasRate reports whether a figure in the given currency can be
// converted. Empty means the trip carried no currency tag and defaults
// to the global currency.
func (t *Table) HasRate(from string) bool {
	if from == "" {
		return true
	}
	_, ok := t.Rate(from)
	return ok
}
