package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"junketops-service/internal/domain/agent"
	"junketops-service/internal/domain/customer"
	"junketops-service/internal/domain/record"
	"junketops-service/internal/domain/report"
	"junketops-service/internal/domain/trip"
	"junketops-service/internal/fx"
)

var testNow = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

func newTestCalculator(rates map[string]map[string]float64) *Calculator {
	return NewCalculator(fx.NewTable("HKD", rates, zap.NewNop()), zap.NewNop())
}

func hkdUsdCalculator() *Calculator {
	return newTestCalculator(map[string]map[string]float64{
		"USD": {"HKD": 7.8},
	})
}

func sharing(s trip.Sharing) *trip.Sharing { return &s }

func TestDashboardGlobalTotals(t *testing.T) {
	calc := hkdUsdCalculator()

	t.Run("sums converted sharing figures across trips", func(t *testing.T) {
		in := Input{
			Trips: []trip.Trip{
				{
					ID:       "trip-usd",
					Currency: "USD",
					Sharing: sharing(trip.Sharing{
						TotalRolling:      10000,
						TotalWinLoss:      -2000,
						TotalExpenses:     100,
						CompanyShare:      1500,
						RollingCommission: 120,
					}),
				},
				{
					ID:       "trip-hkd",
					Currency: "HKD",
					Sharing: sharing(trip.Sharing{
						TotalRolling:      5000,
						TotalWinLoss:      800,
						TotalExpenses:     200,
						CompanyShare:      -900,
						RollingCommission: 50,
					}),
				},
			},
		}

		got := calc.Dashboard(in, Scope{}, report.RankQuery{}, testNow)

		assert.InDelta(t, 10000*7.8+5000, got.Totals.TotalRolling, 1e-9)
		assert.InDelta(t, -2000*7.8+800, got.Totals.GrossProfit, 1e-9)
		assert.InDelta(t, 100*7.8+200, got.Totals.TotalExpenses, 1e-9)
		assert.InDelta(t, 1500*7.8-900, got.Totals.NetProfit, 1e-9)
		assert.Equal(t, "HKD", got.Currency)
	})

	t.Run("usd sharing converts at the configured rate", func(t *testing.T) {
		in := Input{
			Trips: []trip.Trip{{
				ID:       "trip-1",
				Currency: "USD",
				Sharing:  sharing(trip.Sharing{TotalRolling: 10000}),
			}},
		}

		got := calc.Dashboard(in, Scope{}, report.RankQuery{}, testNow)

		assert.InDelta(t, 78000, got.Totals.TotalRolling, 1e-9)
	})

	t.Run("missing rate zeroes the contribution and warns once", func(t *testing.T) {
		in := Input{
			Trips: []trip.Trip{
				{ID: "t1", Currency: "JPY", Sharing: sharing(trip.Sharing{TotalRolling: 100})},
				{ID: "t2", Currency: "JPY", Sharing: sharing(trip.Sharing{TotalRolling: 200})},
				{ID: "t3", Currency: "HKD", Sharing: sharing(trip.Sharing{TotalRolling: 50})},
			},
		}

		got := calc.Dashboard(in, Scope{}, report.RankQuery{}, testNow)

		assert.InDelta(t, 50, got.Totals.TotalRolling, 1e-9)
		assert.Equal(t, []string{"no conversion rate for JPY to HKD, affected figures zeroed"}, got.Warnings)
	})

	t.Run("empty input yields a complete zero-filled dashboard", func(t *testing.T) {
		got := calc.Dashboard(Input{}, Scope{}, report.RankQuery{}, testNow)

		assert.Equal(t, report.GlobalTotals{}, got.Totals)
		assert.Equal(t, report.Ratios{}, got.Ratios)
		assert.Empty(t, got.Customers)
		assert.Equal(t, testNow, got.GeneratedAt)
	})
}

func TestDashboardDerivedSharing(t *testing.T) {
	calc := hkdUsdCalculator()

	in := Input{
		Customers: []customer.Customer{
			{ID: "cust-1", Name: "Alice", RollingCommission: 1.0},
		},
		Trips: []trip.Trip{{
			ID:       "trip-1",
			Currency: "HKD",
			Expenses: []trip.Expense{{Name: "charter", Amount: 300}},
		}},
		Rollings: []record.Rolling{
			{CustomerID: "cust-1", TripID: "trip-1", Amount: 10000, WinLoss: -500},
		},
	}

	got := calc.Dashboard(in, Scope{}, report.RankQuery{}, testNow)

	// Derived: rolling 10000, win/loss -500, expenses 300,
	// commission 1% of 10000 = 100, company share 500-300-100 = 100.
	assert.InDelta(t, 10000, got.Totals.TotalRolling, 1e-9)
	assert.InDelta(t, -500, got.Totals.GrossProfit, 1e-9)
	assert.InDelta(t, 300, got.Totals.TotalExpenses, 1e-9)
	assert.InDelta(t, 100, got.Totals.NetProfit, 1e-9)
	assert.InDelta(t, 100.0/10000.0, got.Ratios.CommissionRatio, 1e-9)
}

func TestRatios(t *testing.T) {
	t.Run("derived from totals", func(t *testing.T) {
		got := ratios(report.GlobalTotals{
			TotalRolling:  20000,
			TotalExpenses: 500,
			NetProfit:     1000,
		}, 250)

		assert.InDelta(t, 0.05, got.ProfitMargin, 1e-9)
		assert.InDelta(t, 0.025, got.ExpenseRatio, 1e-9)
		assert.InDelta(t, 0.0125, got.CommissionRatio, 1e-9)
	})

	t.Run("zero rolling never divides by zero", func(t *testing.T) {
		got := ratios(report.GlobalTotals{NetProfit: 1000, TotalExpenses: 200}, 50)

		assert.Equal(t, report.Ratios{}, got)
	})
}

func TestDashboardCounts(t *testing.T) {
	calc := hkdUsdCalculator()

	in := Input{
		Customers: []customer.Customer{
			{ID: "c1", Active: true},
			{ID: "c2", Active: false},
			{ID: "c3", Active: true},
		},
		Agents: []agent.Agent{
			{ID: "a1", Active: true},
			{ID: "a2", Active: false},
		},
		Trips: []trip.Trip{
			{ID: "t1", Status: trip.StatusActive},
			{ID: "t2", Status: trip.StatusInProgress},
			{ID: "t3", Status: trip.StatusCompleted},
			{ID: "t4", Status: trip.StatusCancelled},
			{ID: "t5", Status: trip.StatusActive},
		},
	}

	got := calc.Dashboard(in, Scope{}, report.RankQuery{}, testNow).Counts

	assert.Equal(t, 3, got.TotalCustomers)
	assert.Equal(t, 2, got.ActiveCustomers)
	assert.Equal(t, 2, got.TotalAgents)
	assert.Equal(t, 1, got.ActiveAgents)
	assert.Equal(t, 5, got.TotalTrips)
	assert.Equal(t, 3, got.ActiveTrips, "active trips count both active and in-progress")
	assert.Equal(t, map[string]int{
		trip.StatusActive:     2,
		trip.StatusInProgress: 1,
		trip.StatusCompleted:  1,
		trip.StatusCancelled:  1,
	}, got.TripsByStatus)
}

func TestDashboardActivityWindow(t *testing.T) {
	calc := hkdUsdCalculator()

	in := Input{
		Rollings: []record.Rolling{
			{CustomerID: "c1", At: testNow.Add(-23*time.Hour - 59*time.Minute)},
			{CustomerID: "c1", At: testNow.Add(-24 * time.Hour)},
			{CustomerID: "c1", At: testNow.Add(-25 * time.Hour)},
			{CustomerID: "c1", At: testNow},
			{CustomerID: "c1", At: testNow.Add(time.Minute)},
			{CustomerID: "c1"},
		},
		Cash: []record.BuyInOut{
			{CustomerID: "c1", Type: record.TypeBuyIn, At: testNow.Add(-time.Hour)},
			{CustomerID: "c1", Type: record.TypeBuyOut, At: testNow.Add(-30 * time.Hour)},
		},
	}

	got := calc.Dashboard(in, Scope{}, report.RankQuery{}, testNow).Activity

	// Exactly 24h ago is outside the strict window; future and
	// unparsed timestamps never count.
	assert.Equal(t, 2, got.RollingRecords)
	assert.Equal(t, 1, got.CashRecords)
	assert.Equal(t, "24h", got.Window)
}

func TestRank(t *testing.T) {
	rows := []report.CustomerRow{
		{ID: "1", TotalRolling: 500, TotalWinLoss: 100},
		{ID: "2", TotalRolling: 1500, TotalWinLoss: -200},
		{ID: "3", TotalRolling: 500, TotalWinLoss: 50},
	}

	t.Run("rolling descending", func(t *testing.T) {
		got := Rank(rows, report.RankQuery{SortBy: report.SortByRolling, SortOrder: report.OrderDesc})

		assert.Equal(t, []string{"2", "1", "3"}, rowIDs(got), "ties keep original relative order")
	})

	t.Run("rolling ascending", func(t *testing.T) {
		got := Rank(rows, report.RankQuery{SortBy: report.SortByRolling, SortOrder: report.OrderAsc})

		assert.Equal(t, []string{"1", "3", "2"}, rowIDs(got))
	})

	t.Run("winloss descending", func(t *testing.T) {
		got := Rank(rows, report.RankQuery{SortBy: report.SortByWinLoss, SortOrder: report.OrderDesc})

		assert.Equal(t, []string{"1", "3", "2"}, rowIDs(got))
	})

	t.Run("defaults to rolling descending", func(t *testing.T) {
		got := Rank(rows, report.RankQuery{})

		assert.Equal(t, []string{"2", "1", "3"}, rowIDs(got))
	})

	t.Run("never truncates and never mutates its input", func(t *testing.T) {
		got := Rank(rows, report.RankQuery{SortOrder: report.OrderAsc})

		assert.Len(t, got, len(rows))
		assert.Equal(t, "1", rows[0].ID)
	})

	t.Run("two rows by rolling descending", func(t *testing.T) {
		got := Rank([]report.CustomerRow{
			{ID: "1", TotalRolling: 500},
			{ID: "2", TotalRolling: 1500},
		}, report.RankQuery{SortBy: report.SortByRolling, SortOrder: report.OrderDesc})

		assert.Equal(t, []string{"2", "1"}, rowIDs(got))
	})
}

func TestDashboardCustomerRows(t *testing.T) {
	calc := hkdUsdCalculator()

	t.Run("record amounts convert through the trip currency before summing", func(t *testing.T) {
		in := Input{
			Customers: []customer.Customer{{ID: "cust-1", Name: "Alice", Active: true}},
			Trips: []trip.Trip{
				{ID: "trip-usd", Currency: "USD"},
				{ID: "trip-hkd", Currency: "HKD"},
			},
			Rollings: []record.Rolling{
				{CustomerID: "cust-1", TripID: "trip-usd", Amount: 1000, WinLoss: 100},
				{CustomerID: "cust-1", TripID: "trip-hkd", Amount: 500, WinLoss: -50},
			},
			Cash: []record.BuyInOut{
				{CustomerID: "cust-1", TripID: "trip-usd", Type: record.TypeBuyIn, Amount: 200},
				{CustomerID: "cust-1", TripID: "trip-hkd", Type: record.TypeBuyOut, Amount: 70},
			},
		}

		got := calc.Dashboard(in, Scope{}, report.RankQuery{}, testNow)

		if assert.Len(t, got.Customers, 1) {
			row := got.Customers[0]
			assert.InDelta(t, 1000*7.8+500, row.TotalRolling, 1e-9)
			assert.InDelta(t, 100*7.8-50, row.TotalWinLoss, 1e-9)
			assert.InDelta(t, 200*7.8, row.TotalBuyIn, 1e-9)
			assert.InDelta(t, 70, row.TotalBuyOut, 1e-9)
		}
	})

	t.Run("reported entity totals override local sums per field", func(t *testing.T) {
		reported := 99999.0
		in := Input{
			Customers: []customer.Customer{{
				ID:       "cust-1",
				Name:     "Alice",
				Reported: customer.ReportedTotals{Rolling: &reported},
			}},
			Trips: []trip.Trip{{ID: "trip-1", Currency: "HKD"}},
			Rollings: []record.Rolling{
				{CustomerID: "cust-1", TripID: "trip-1", Amount: 1000, WinLoss: 150},
			},
		}

		got := calc.Dashboard(in, Scope{}, report.RankQuery{}, testNow)

		row := got.Customers[0]
		assert.Equal(t, 99999.0, row.TotalRolling)
		assert.Equal(t, 150.0, row.TotalWinLoss, "absent reported fields keep the local sum")
	})

	t.Run("customers without records keep zero totals", func(t *testing.T) {
		in := Input{
			Customers: []customer.Customer{{ID: "cust-1", Name: "Alice"}},
		}

		got := calc.Dashboard(in, Scope{}, report.RankQuery{}, testNow)

		if assert.Len(t, got.Customers, 1) {
			assert.Equal(t, 0.0, got.Customers[0].TotalRolling)
		}
	})
}

func TestDashboardScope(t *testing.T) {
	calc := hkdUsdCalculator()

	in := Input{
		Customers: []customer.Customer{
			{ID: "c1", AgentID: "agent-1", Active: true},
			{ID: "c2", AgentID: "agent-2", Active: true},
		},
		Agents: []agent.Agent{
			{ID: "agent-1", Active: true},
			{ID: "agent-2", Active: true},
		},
		Trips: []trip.Trip{
			{
				ID: "t1", Currency: "HKD", Status: trip.StatusActive,
				CustomerIDs: []string{"c1"},
				Sharing:     sharing(trip.Sharing{TotalRolling: 1000, CompanyShare: 100}),
			},
			{
				ID: "t2", Currency: "HKD", Status: trip.StatusActive,
				CustomerIDs: []string{"c2"},
				Sharing:     sharing(trip.Sharing{TotalRolling: 9000, CompanyShare: 900}),
			},
		},
		Rollings: []record.Rolling{
			{CustomerID: "c1", TripID: "t1", Amount: 1000, At: testNow.Add(-time.Hour)},
			{CustomerID: "c2", TripID: "t2", Amount: 9000, At: testNow.Add(-time.Hour)},
		},
	}

	got := calc.Dashboard(in, Scope{AgentID: "agent-1"}, report.RankQuery{}, testNow)

	// Filtering happens before aggregation, so every figure reflects
	// only the scoped agent's book.
	assert.InDelta(t, 1000, got.Totals.TotalRolling, 1e-9)
	assert.InDelta(t, 100, got.Totals.NetProfit, 1e-9)
	assert.InDelta(t, 0.1, got.Ratios.ProfitMargin, 1e-9)
	assert.Equal(t, 1, got.Counts.TotalCustomers)
	assert.Equal(t, 1, got.Counts.TotalAgents)
	assert.Equal(t, 1, got.Counts.TotalTrips)
	assert.Equal(t, 1, got.Activity.RollingRecords)
	if assert.Len(t, got.Customers, 1) {
		assert.Equal(t, "c1", got.Customers[0].ID)
	}
}

func TestRowsKeepInputOrder(t *testing.T) {
	calc := hkdUsdCalculator()

	in := Input{
		Customers: []customer.Customer{
			{ID: "z"}, {ID: "a"}, {ID: "m"},
		},
	}

	got := calc.Rows(in, Scope{})

	assert.Equal(t, []string{"z", "a", "m"}, rowIDs(got))
}

func rowIDs(rows []report.CustomerRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}
