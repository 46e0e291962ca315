// internal/rollup/rollup.go
package rollup

import (
	"math"

	"junketops-service/internal/domain/customer"
	"junketops-service/internal/domain/record"
)

// Totals is the additive financial rollup of one customer or one trip.
// All four fields carry the currency of the records they were summed
// from; conversion happens downstream.
type Totals struct {
	TotalRolling float64 `json:"total_rolling"`
	TotalWinLoss float64 `json:"total_win_loss"`
	TotalBuyIn   float64 `json:"total_buy_in"`
	TotalBuyOut  float64 `json:"total_buy_out"`
}

// Add accumulates one rolling record into the totals.
func (t *Totals) Add(r record.Rolling) {
	t.TotalRolling += sanitize(r.Amount)
	t.TotalWinLoss += sanitize(r.WinLoss)
}

// AddCash accumulates one buy-in/out record into the totals. Records of
// unknown transaction type count toward neither bucket.
func (t *Totals) AddCash(c record.BuyInOut) {
	switch {
	case c.IsBuyIn():
		t.TotalBuyIn += sanitize(c.Amount)
	case c.IsBuyOut():
		t.TotalBuyOut += sanitize(c.Amount)
	}
}

// NetCash is buy-in minus buy-out.
func (t Totals) NetCash() float64 {
	return t.TotalBuyIn - t.TotalBuyOut
}

// ForCustomer sums the records matching one customer id. A record
// matches when its normalized customer reference equals the id. Empty
// collections yield all-zero totals, never an error.
func ForCustomer(customerID string, rollings []record.Rolling, cash []record.BuyInOut) Totals {
	var t Totals
	for _, r := range rollings {
		if r.CustomerID == customerID {
			t.Add(r)
		}
	}
	for _, c := range cash {
		if c.CustomerID == customerID {
			t.AddCash(c)
		}
	}
	return t
}

// ForTrip sums the records matching one trip id.
func ForTrip(tripID string, rollings []record.Rolling, cash []record.BuyInOut) Totals {
	var t Totals
	for _, r := range rollings {
		if r.TripID == tripID {
			t.Add(r)
		}
	}
	for _, c := range cash {
		if c.TripID == tripID {
			t.AddCash(c)
		}
	}
	return t
}

// GroupByCustomer sums every record collection in one pass, keyed by
// normalized customer reference. Customers appearing only in the cash
// records still get an entry.
func GroupByCustomer(rollings []record.Rolling, cash []record.BuyInOut) map[string]Totals {
	out := make(map[string]Totals)
	for _, r := range rollings {
		t := out[r.CustomerID]
		t.Add(r)
		out[r.CustomerID] = t
	}
	for _, c := range cash {
		t := out[c.CustomerID]
		t.AddCash(c)
		out[c.CustomerID] = t
	}
	return out
}

// TripRecords returns the subset of both collections belonging to one
// trip, preserving input order.
func TripRecords(tripID string, rollings []record.Rolling, cash []record.BuyInOut) ([]record.Rolling, []record.BuyInOut) {
	var rs []record.Rolling
	for _, r := range rollings {
		if r.TripID == tripID {
			rs = append(rs, r)
		}
	}
	var cs []record.BuyInOut
	for _, c := range cash {
		if c.TripID == tripID {
			cs = append(cs, c)
		}
	}
	return rs, cs
}

// Merge applies the precedence rule between backend-maintained totals
// and a local rollup: a reported field is authoritative and used
// verbatim, a local sum only fills fields the backend never sent. This
// keeps a single source of truth per field and never double-counts.
func Merge(local Totals, reported customer.ReportedTotals) Totals {
	t := local
	if reported.Rolling != nil {
		t.TotalRolling = sanitize(*reported.Rolling)
	}
	if reported.WinLoss != nil {
		t.TotalWinLoss = sanitize(*reported.WinLoss)
	}
	if reported.BuyIn != nil {
		t.TotalBuyIn = sanitize(*reported.BuyIn)
	}
	if reported.BuyOut != nil {
		t.TotalBuyOut = sanitize(*reported.BuyOut)
	}
	return t
}

// sanitize keeps NaN and infinities out of downstream arithmetic.
func sanitize(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
