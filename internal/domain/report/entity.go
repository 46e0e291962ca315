// internal/domain/report/entity.go
package report

import "time"

// Dashboard is the complete reporting structure for one cycle. Every
// monetary figure is already expressed in the global display currency;
// raw per-trip currency never leaks past the conversion layer. The
// calculator always produces a complete, possibly zero-filled value,
// never an error.
type Dashboard struct {
	Currency    string        `json:"currency"`
	Totals      GlobalTotals  `json:"totals"`
	Ratios      Ratios        `json:"ratios"`
	Counts      Counts        `json:"counts"`
	Activity    Activity      `json:"activity"`
	Customers   []CustomerRow `json:"customers"`
	Warnings    []string      `json:"warnings,omitempty"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// GlobalTotals are the top-level KPIs summed across all trips in scope.
type GlobalTotals struct {
	TotalRolling  float64 `json:"total_rolling"`
	GrossProfit   float64 `json:"gross_profit"`
	TotalExpenses float64 `json:"total_expenses"`
	NetProfit     float64 `json:"net_profit"`
}

// Ratios are derived from GlobalTotals with zero-safe division: each is
// 0 whenever total rolling is 0.
type Ratios struct {
	ProfitMargin    float64 `json:"profit_margin"`
	ExpenseRatio    float64 `json:"expense_ratio"`
	CommissionRatio float64 `json:"commission_ratio"`
}

// Counts bucket the entities in scope by status.
type Counts struct {
	ActiveCustomers int            `json:"active_customers"`
	TotalCustomers  int            `json:"total_customers"`
	ActiveAgents    int            `json:"active_agents"`
	TotalAgents     int            `json:"total_agents"`
	ActiveTrips     int            `json:"active_trips"`
	TotalTrips      int            `json:"total_trips"`
	TripsByStatus   map[string]int `json:"trips_by_status"`
}

// Activity counts records whose timestamp falls inside the recency
// window, strict less-than on elapsed time.
type Activity struct {
	Window         string `json:"window"`
	RollingRecords int    `json:"rolling_records"`
	CashRecords    int    `json:"cash_records"`
}

// CustomerRow is one customer with canonical identity and rolled-up,
// converted totals.
type CustomerRow struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	AgentID      string  `json:"agent_id,omitempty"`
	Active       bool    `json:"active"`
	TotalRolling float64 `json:"total_rolling"`
	TotalWinLoss float64 `json:"total_win_loss"`
	TotalBuyIn   float64 `json:"total_buy_in"`
	TotalBuyOut  float64 `json:"total_buy_out"`
}

// NetCash is the customer's net cash position for the cycle.
func (c CustomerRow) NetCash() float64 {
	return c.TotalBuyIn - c.TotalBuyOut
}

// TripSummary is the per-trip financial view, converted into the global
// display currency.
type TripSummary struct {
	TripID            string        `json:"trip_id"`
	Name              string        `json:"name"`
	Status            string        `json:"status"`
	Currency          string        `json:"currency"`
	TotalRolling      float64       `json:"total_rolling"`
	TotalWinLoss      float64       `json:"total_win_loss"`
	TotalExpenses     float64       `json:"total_expenses"`
	CompanyShare      float64       `json:"company_share"`
	AgentShare        float64       `json:"agent_share"`
	RollingCommission float64       `json:"rolling_commission"`
	Customers         []CustomerRow `json:"customers,omitempty"`
	Warnings          []string      `json:"warnings,omitempty"`
	GeneratedAt       time.Time     `json:"generated_at"`
}
