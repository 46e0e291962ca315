// internal/domain/trip/entity.go
package trip

import (
	"strings"
	"time"

	"junketops-service/internal/normalize"
)

// Trip statuses as normalized from upstream. The "Active Trips" view
// counts both active and in-progress trips, so callers should use
// IsRunning rather than comparing against StatusActive alone.
const (
	StatusActive     = "active"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Trip is the canonical snapshot of one upstream trip record.
type Trip struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Date     time.Time `json:"date"`
	Status   string    `json:"status"`
	Currency string    `json:"currency"`

	// Participating customers, by canonical id.
	CustomerIDs []string  `json:"customer_ids,omitempty"`
	Expenses    []Expense `json:"expenses,omitempty"`

	// Sharing is produced upstream in the trip's native currency. Nil
	// when the trip carries no sharing sub-record.
	Sharing *Sharing `json:"sharing,omitempty"`
}

// Expense is a single trip-level expense line.
type Expense struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Sharing is the upstream-computed financial summary of a trip, split
// between the company and participating agents. All figures are in the
// trip's native currency.
type Sharing struct {
	TotalRolling      float64 `json:"total_rolling"`
	TotalWinLoss      float64 `json:"total_win_loss"`
	TotalExpenses     float64 `json:"total_expenses"`
	CompanyShare      float64 `json:"company_share"`
	AgentShare        float64 `json:"agent_share"`
	RollingCommission float64 `json:"rolling_commission"`
}

// IsRunning reports whether the trip counts toward the active-trips
// view.
func (t Trip) IsRunning() bool {
	return t.Status == StatusActive || t.Status == StatusInProgress
}

var (
	nameCandidates     = []string{"name", "trip_name", "tripName", "title"}
	dateCandidates     = []string{"date", "start_date", "startDate", "trip_date", "tripDate"}
	currencyCandidates = []string{"currency", "currency_code", "currencyCode"}
)

// FromRaw canonicalizes one upstream record into a Trip.
func FromRaw(r normalize.Raw) Trip {
	id := normalize.ID(r)

	name := normalize.FirstString(r, nameCandidates...)
	if name == "" {
		name = "Trip " + id
	}

	currency := normalize.FirstString(r, currencyCandidates...)
	sharing := sharingFromRaw(r)
	if currency == "" {
		// Some endpoints tag the currency on the sharing sub-record
		// instead of the trip itself.
		if child, ok := normalize.Child(r, "sharing"); ok {
			currency = normalize.FirstString(child, currencyCandidates...)
		}
	}

	return Trip{
		ID:          id,
		Name:        name,
		Date:        normalize.FirstTime(r, dateCandidates...),
		Status:      NormalizeStatus(normalize.FirstString(r, "status")),
		Currency:    strings.ToUpper(currency),
		CustomerIDs: customerIDs(r),
		Expenses:    expenses(r),
		Sharing:     sharing,
	}
}

// FromRawList maps a whole upstream collection.
func FromRawList(rs []normalize.Raw) []Trip {
	out := make([]Trip, 0, len(rs))
	for _, r := range rs {
		out = append(out, FromRaw(r))
	}
	return out
}

// NormalizeStatus folds the upstream status spellings onto the
// canonical constants. Unknown statuses pass through lowercased so they
// still bucket consistently.
func NormalizeStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, " ", "-")
	switch s {
	case "inprogress":
		return StatusInProgress
	case "canceled":
		return StatusCancelled
	}
	return s
}

func customerIDs(r normalize.Raw) []string {
	var out []string
	if members := normalize.List(r, "customers"); len(members) > 0 {
		for _, m := range members {
			if id := normalize.ID(m); id != normalize.UnknownID {
				out = append(out, id)
			}
		}
		return out
	}
	for _, key := range []string{"customer_ids", "customerIds"} {
		if arr, ok := r[key].([]any); ok {
			for _, el := range arr {
				if s := normalize.Str(el); s != "" {
					out = append(out, s)
				}
			}
			return out
		}
	}
	return out
}

func expenses(r normalize.Raw) []Expense {
	items := normalize.List(r, "expenses")
	if len(items) == 0 {
		return nil
	}
	out := make([]Expense, 0, len(items))
	for _, item := range items {
		amount, _ := normalize.FirstNumber(item, "amount", "value")
		out = append(out, Expense{
			Name:   normalize.FirstString(item, "name", "description", "title"),
			Amount: amount,
		})
	}
	return out
}

func sharingFromRaw(r normalize.Raw) *Sharing {
	child, ok := normalize.Child(r, "sharing")
	if !ok {
		return nil
	}
	num := func(keys ...string) float64 {
		v, _ := normalize.FirstNumber(child, keys...)
		return v
	}
	return &Sharing{
		TotalRolling:      num("total_rolling", "totalRolling"),
		TotalWinLoss:      num("total_win_loss", "totalWinLoss", "total_winloss"),
		TotalExpenses:     num("total_expenses", "totalExpenses"),
		CompanyShare:      num("company_share", "companyShare"),
		AgentShare:        num("agent_share", "agentShare", "total_agent_share", "totalAgentShare"),
		RollingCommission: num("rolling_commission", "rollingCommission", "total_commission", "totalCommission"),
	}
}
