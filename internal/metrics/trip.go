// internal/metrics/trip.go
package metrics

import (
	"sort"
	"time"

	"junketops-service/internal/domain/customer"
	"junketops-service/internal/domain/record"
	"junketops-service/internal/domain/report"
	"junketops-service/internal/domain/trip"
	"junketops-service/internal/rollup"
)

// TripSummary builds the per-trip financial view in the global display
// currency. tripCustomers should come from the trip-scoped resolver
// chain: their reported totals are per-trip figures in the trip's
// native currency, so the precedence merge runs before conversion.
func (c *Calculator) TripSummary(t trip.Trip, tripCustomers []customer.Customer, rollings []record.Rolling, cash []record.BuyInOut, now time.Time) report.TripSummary {
	fin := c.tripFinancials(t, rollings, cash, customerIndex(tripCustomers))

	s := report.TripSummary{
		TripID:            t.ID,
		Name:              t.Name,
		Status:            t.Status,
		Currency:          c.fx.Global(),
		TotalRolling:      c.fx.Convert(fin.TotalRolling, t.Currency),
		TotalWinLoss:      c.fx.Convert(fin.TotalWinLoss, t.Currency),
		TotalExpenses:     c.fx.Convert(fin.TotalExpenses, t.Currency),
		CompanyShare:      c.fx.Convert(fin.CompanyShare, t.Currency),
		AgentShare:        c.fx.Convert(fin.AgentShare, t.Currency),
		RollingCommission: c.fx.Convert(fin.RollingCommission, t.Currency),
		Warnings:          c.rateWarnings([]trip.Trip{t}),
		GeneratedAt:       now,
	}

	tripRollings, tripCash := rollup.TripRecords(t.ID, rollings, cash)
	grouped := rollup.GroupByCustomer(tripRollings, tripCash)

	rows := make([]report.CustomerRow, 0, len(tripCustomers))
	seen := make(map[string]bool, len(tripCustomers))
	for _, cust := range tripCustomers {
		seen[cust.ID] = true
		totals := rollup.Merge(grouped[cust.ID], cust.Reported)
		rows = append(rows, report.CustomerRow{
			ID:           cust.ID,
			Name:         cust.Name,
			AgentID:      cust.AgentID,
			Active:       cust.Active,
			TotalRolling: c.fx.Convert(totals.TotalRolling, t.Currency),
			TotalWinLoss: c.fx.Convert(totals.TotalWinLoss, t.Currency),
			TotalBuyIn:   c.fx.Convert(totals.TotalBuyIn, t.Currency),
			TotalBuyOut:  c.fx.Convert(totals.TotalBuyOut, t.Currency),
		})
	}

	// Records referencing customers absent from the trip roster still
	// surface, under the placeholder naming, so data-quality gaps stay
	// diagnosable.
	var strays []string
	for id := range grouped {
		if !seen[id] {
			strays = append(strays, id)
		}
	}
	sort.Strings(strays)
	for _, id := range strays {
		totals := grouped[id]
		rows = append(rows, report.CustomerRow{
			ID:           id,
			Name:         "Customer " + id,
			TotalRolling: c.fx.Convert(totals.TotalRolling, t.Currency),
			TotalWinLoss: c.fx.Convert(totals.TotalWinLoss, t.Currency),
			TotalBuyIn:   c.fx.Convert(totals.TotalBuyIn, t.Currency),
			TotalBuyOut:  c.fx.Convert(totals.TotalBuyOut, t.Currency),
		})
	}

	s.Customers = rows
	return s
}
