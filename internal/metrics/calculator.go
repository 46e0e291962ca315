// internal/metrics/calculator.go
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"junketops-service/internal/domain/agent"
	"junketops-service/internal/domain/customer"
	"junketops-service/internal/domain/record"
	"junketops-service/internal/domain/report"
	"junketops-service/internal/domain/trip"
	"junketops-service/internal/fx"
	"junketops-service/internal/rollup"
)

// RecencyWindow bounds the recent-activity counts: a record is recent
// when strictly less than this much time has elapsed since it was
// recorded.
const RecencyWindow = 24 * time.Hour

// Input is the immutable snapshot one dashboard computation runs over.
// Warnings carry the aggregate source-failure messages collected while
// the snapshot was resolved.
type Input struct {
	Customers []customer.Customer `json:"customers"`
	Agents    []agent.Agent       `json:"agents"`
	Trips     []trip.Trip         `json:"trips"`
	Rollings  []record.Rolling    `json:"rollings"`
	Cash      []record.BuyInOut   `json:"cash"`
	Warnings  []string            `json:"warnings,omitempty"`
}

// Scope restricts a computation to one agent's book. The zero value is
// the unrestricted admin view.
type Scope struct {
	AgentID string
}

func (s Scope) restricted() bool {
	return s.AgentID != ""
}

// Calculator derives the dashboard KPIs from resolved snapshots. It is
// stateless: every call recomputes fully from its input.
type Calculator struct {
	fx     *fx.Table
	logger *zap.Logger
}

func NewCalculator(table *fx.Table, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{fx: table, logger: logger}
}

// Currency reports the global display currency every figure converts
// into.
func (c *Calculator) Currency() string {
	return c.fx.Global()
}

// Dashboard produces the complete reporting structure for one scope.
// Scope filtering happens before any aggregation so that totals, ratios
// and rankings stay internally consistent for the filtered view. The
// result is always complete, possibly zero-filled, never an error.
func (c *Calculator) Dashboard(in Input, scope Scope, q report.RankQuery, now time.Time) report.Dashboard {
	in = applyScope(in, scope)
	q = q.WithDefaults()

	totals, commission := c.globalTotals(in)

	warnings := append([]string{}, in.Warnings...)
	warnings = append(warnings, c.rateWarnings(in.Trips)...)

	return report.Dashboard{
		Currency:    c.fx.Global(),
		Totals:      totals,
		Ratios:      ratios(totals, commission),
		Counts:      counts(in),
		Activity:    activity(in, now),
		Customers:   Rank(c.customerRows(in), q),
		Warnings:    warnings,
		GeneratedAt: now,
	}
}

// Rows returns the customer rows in input order, unranked. Callers that
// re-rank with different parameters start from this order so that sort
// ties always fall back to the original collection order.
func (c *Calculator) Rows(in Input, scope Scope) []report.CustomerRow {
	return c.customerRows(applyScope(in, scope))
}

// Rank orders customer rows by the selected key and direction. The sort
// is stable, ties keep their original relative order, and the full list
// is always returned: truncation for display belongs to the caller.
func Rank(rows []report.CustomerRow, q report.RankQuery) []report.CustomerRow {
	q = q.WithDefaults()

	out := make([]report.CustomerRow, len(rows))
	copy(out, rows)

	key := func(r report.CustomerRow) float64 {
		if q.SortBy == report.SortByWinLoss {
			return r.TotalWinLoss
		}
		return r.TotalRolling
	}

	sort.SliceStable(out, func(i, j int) bool {
		if q.SortOrder == report.OrderAsc {
			return key(out[i]) < key(out[j])
		}
		return key(out[i]) > key(out[j])
	})
	return out
}

// applyScope narrows every collection to one agent's book: the agent's
// customers, the trips those customers participate in, and the records
// attributed to them.
func applyScope(in Input, scope Scope) Input {
	if !scope.restricted() {
		return in
	}

	keep := make(map[string]bool)
	var customers []customer.Customer
	for _, cust := range in.Customers {
		if cust.AgentID == scope.AgentID {
			customers = append(customers, cust)
			keep[cust.ID] = true
		}
	}

	var agents []agent.Agent
	for _, a := range in.Agents {
		if a.ID == scope.AgentID {
			agents = append(agents, a)
		}
	}

	var trips []trip.Trip
	for _, t := range in.Trips {
		for _, id := range t.CustomerIDs {
			if keep[id] {
				trips = append(trips, t)
				break
			}
		}
	}

	var rollings []record.Rolling
	for _, r := range in.Rollings {
		if keep[r.CustomerID] {
			rollings = append(rollings, r)
		}
	}

	var cash []record.BuyInOut
	for _, b := range in.Cash {
		if keep[b.CustomerID] {
			cash = append(cash, b)
		}
	}

	return Input{
		Customers: customers,
		Agents:    agents,
		Trips:     trips,
		Rollings:  rollings,
		Cash:      cash,
		Warnings:  in.Warnings,
	}
}

// globalTotals sums the converted per-trip sharing figures. The second
// return is the converted commission total feeding the commission
// ratio.
func (c *Calculator) globalTotals(in Input) (report.GlobalTotals, float64) {
	customers := customerIndex(in.Customers)

	var totals report.GlobalTotals
	var commission float64
	for _, t := range in.Trips {
		fin := c.tripFinancials(t, in.Rollings, in.Cash, customers)
		totals.TotalRolling += c.fx.Convert(fin.TotalRolling, t.Currency)
		totals.GrossProfit += c.fx.Convert(fin.TotalWinLoss, t.Currency)
		totals.TotalExpenses += c.fx.Convert(fin.TotalExpenses, t.Currency)
		totals.NetProfit += c.fx.Convert(fin.CompanyShare, t.Currency)
		commission += c.fx.Convert(fin.RollingCommission, t.Currency)
	}
	return totals, commission
}

// tripFinancials reads the upstream sharing record when the trip has
// one; only when it is absent is a sharing equivalent derived from raw
// records, trip expenses and customer commission terms. Figures stay in
// the trip's native currency.
func (c *Calculator) tripFinancials(t trip.Trip, rollings []record.Rolling, cash []record.BuyInOut, customers map[string]customer.Customer) trip.Sharing {
	if t.Sharing != nil {
		return *t.Sharing
	}

	sums := rollup.ForTrip(t.ID, rollings, cash)

	var expenses float64
	for _, e := range t.Expenses {
		expenses += e.Amount
	}

	var commission float64
	for _, r := range rollings {
		if r.TripID != t.ID {
			continue
		}
		if cust, ok := customers[r.CustomerID]; ok && cust.RollingCommission > 0 {
			commission += r.Amount * cust.RollingCommission / 100
		}
	}

	return trip.Sharing{
		TotalRolling:      sums.TotalRolling,
		TotalWinLoss:      sums.TotalWinLoss,
		TotalExpenses:     expenses,
		CompanyShare:      -sums.TotalWinLoss - expenses - commission,
		RollingCommission: commission,
	}
}

// customerRows joins the customer collection against the record
// collections. Record amounts are converted into the global currency
// before summing, so a customer whose history spans trips in different
// currencies still sums consistently; backend-reported entity totals
// are already global and override per field.
func (c *Calculator) customerRows(in Input) []report.CustomerRow {
	currencyOf := tripCurrencyIndex(in.Trips)

	local := make(map[string]rollup.Totals)
	for _, r := range in.Rollings {
		cur := currencyOf[r.TripID]
		t := local[r.CustomerID]
		t.TotalRolling += c.fx.Convert(r.Amount, cur)
		t.TotalWinLoss += c.fx.Convert(r.WinLoss, cur)
		local[r.CustomerID] = t
	}
	for _, b := range in.Cash {
		cur := currencyOf[b.TripID]
		t := local[b.CustomerID]
		switch {
		case b.IsBuyIn():
			t.TotalBuyIn += c.fx.Convert(b.Amount, cur)
		case b.IsBuyOut():
			t.TotalBuyOut += c.fx.Convert(b.Amount, cur)
		}
		local[b.CustomerID] = t
	}

	rows := make([]report.CustomerRow, 0, len(in.Customers))
	for _, cust := range in.Customers {
		totals := rollup.Merge(local[cust.ID], cust.Reported)
		rows = append(rows, report.CustomerRow{
			ID:           cust.ID,
			Name:         cust.Name,
			AgentID:      cust.AgentID,
			Active:       cust.Active,
			TotalRolling: totals.TotalRolling,
			TotalWinLoss: totals.TotalWinLoss,
			TotalBuyIn:   totals.TotalBuyIn,
			TotalBuyOut:  totals.TotalBuyOut,
		})
	}
	return rows
}

func ratios(t report.GlobalTotals, commission float64) report.Ratios {
	return report.Ratios{
		ProfitMargin:    safeDiv(t.NetProfit, t.TotalRolling),
		ExpenseRatio:    safeDiv(t.TotalExpenses, t.TotalRolling),
		CommissionRatio: safeDiv(commission, t.TotalRolling),
	}
}

func counts(in Input) report.Counts {
	c := report.Counts{TripsByStatus: make(map[string]int)}

	c.TotalCustomers = len(in.Customers)
	for _, cust := range in.Customers {
		if cust.Active {
			c.ActiveCustomers++
		}
	}

	c.TotalAgents = len(in.Agents)
	for _, a := range in.Agents {
		if a.Active {
			c.ActiveAgents++
		}
	}

	c.TotalTrips = len(in.Trips)
	for _, t := range in.Trips {
		c.TripsByStatus[t.Status]++
		if t.IsRunning() {
			c.ActiveTrips++
		}
	}
	return c
}

func activity(in Input, now time.Time) report.Activity {
	a := report.Activity{Window: "24h"}
	for _, r := range in.Rollings {
		if isRecent(r.At, now) {
			a.RollingRecords++
		}
	}
	for _, b := range in.Cash {
		if isRecent(b.At, now) {
			a.CashRecords++
		}
	}
	return a
}

// isRecent applies the strict window: elapsed time must be non-negative
// and strictly less than RecencyWindow. Calendar-day boundaries play no
// part, and future or unparsed timestamps never count.
func isRecent(at, now time.Time) bool {
	if at.IsZero() {
		return false
	}
	elapsed := now.Sub(at)
	return elapsed >= 0 && elapsed < RecencyWindow
}

// rateWarnings emits one aggregate warning per currency that cannot be
// converted, rather than one per affected figure.
func (c *Calculator) rateWarnings(trips []trip.Trip) []string {
	checked := make(map[string]bool)
	var out []string
	for _, t := range trips {
		cur := strings.ToUpper(t.Currency)
		if cur == "" || checked[cur] {
			continue
		}
		checked[cur] = true
		if !c.fx.HasRate(cur) {
			out = append(out, fmt.Sprintf("no conversion rate for %s to %s, affected figures zeroed", cur, c.fx.Global()))
		}
	}
	return out
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func customerIndex(customers []customer.Customer) map[string]customer.Customer {
	out := make(map[string]customer.Customer, len(customers))
	for _, c := range customers {
		out[c.ID] = c
	}
	return out
}

func tripCurrencyIndex(trips []trip.Trip) map[string]string {
	out := make(map[string]string, len(trips))
	for _, t := range trips {
		out[t.ID] = t.Currency
	}
	return out
}
