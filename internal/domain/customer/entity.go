// internal/domain/customer/entity.go
package customer

import (
	"strings"

	"junketops-service/internal/normalize"
)

// Customer is the canonical snapshot of one upstream customer record,
// read-only for the duration of a reporting cycle.
type Customer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	AgentID string `json:"agent_id,omitempty"`

	// Status and flags
	Active  bool `json:"active"`
	IsAgent bool `json:"is_agent"`

	// Credit terms
	RollingCommission float64 `json:"rolling_commission"`
	CreditLimit       float64 `json:"credit_limit"`
	AvailableCredit   float64 `json:"available_credit"`

	// Backend-maintained running totals, authoritative per field when
	// present. Nil fields are filled by a local rollup instead. The
	// tags exist for snapshot caching; API responses use report DTOs.
	Reported ReportedTotals `json:"reported"`
}

// ReportedTotals carries the upstream "total" fields of a customer
// record. A nil entry means the field was absent upstream.
type ReportedTotals struct {
	Rolling *float64 `json:"rolling,omitempty"`
	WinLoss *float64 `json:"win_loss,omitempty"`
	BuyIn   *float64 `json:"buy_in,omitempty"`
	BuyOut  *float64 `json:"buy_out,omitempty"`
}

var (
	agentRefCandidates        = []string{"agent_id", "agentId", "agent_ref", "agentRef"}
	activeCandidates          = []string{"is_active", "isActive", "active"}
	isAgentCandidates         = []string{"is_agent", "isAgent"}
	commissionCandidates      = []string{"rolling_commission", "rollingCommission", "commission_rate", "commissionRate"}
	creditLimitCandidates     = []string{"credit_limit", "creditLimit"}
	availableCreditCandidates = []string{"available_credit", "availableCredit", "credit_available"}

	totalRollingCandidates = []string{"total_rolling", "totalRolling"}
	totalWinLossCandidates = []string{"total_win_loss", "totalWinLoss", "total_winloss"}
	totalBuyInCandidates   = []string{"total_buy_in", "totalBuyIn", "total_buyin"}
	totalBuyOutCandidates  = []string{"total_buy_out", "totalBuyOut", "total_buyout"}
)

// FromRaw canonicalizes one upstream record of unknown shape into a
// Customer. Identity resolution runs first so every later join against
// the id or name sees the canonical values.
func FromRaw(r normalize.Raw) Customer {
	r = normalize.Canonicalize(r)

	return Customer{
		ID:      normalize.Str(r["id"]),
		Name:    normalize.Str(r["name"]),
		AgentID: agentRef(r),

		Active:  activeFlag(r),
		IsAgent: flag(r, isAgentCandidates),

		RollingCommission: number(r, commissionCandidates),
		CreditLimit:       number(r, creditLimitCandidates),
		AvailableCredit:   number(r, availableCreditCandidates),

		Reported: ReportedTotals{
			Rolling: numberPtr(r, totalRollingCandidates),
			WinLoss: numberPtr(r, totalWinLossCandidates),
			BuyIn:   numberPtr(r, totalBuyInCandidates),
			BuyOut:  numberPtr(r, totalBuyOutCandidates),
		},
	}
}

// FromRawList maps a whole upstream collection.
func FromRawList(rs []normalize.Raw) []Customer {
	out := make([]Customer, 0, len(rs))
	for _, r := range rs {
		out = append(out, FromRaw(r))
	}
	return out
}

func agentRef(r normalize.Raw) string {
	if v := normalize.FirstString(r, agentRefCandidates...); v != "" {
		return v
	}
	if child, ok := normalize.Child(r, "agent"); ok {
		if id := normalize.ID(child); id != normalize.UnknownID {
			return id
		}
		return ""
	}
	if v, ok := r["agent"]; ok {
		return normalize.Str(v)
	}
	return ""
}

// activeFlag prefers an explicit boolean, then a status string. Records
// carrying neither count as active, since upstream lists only flag the
// exceptions.
func activeFlag(r normalize.Raw) bool {
	for _, k := range activeCandidates {
		if v, ok := r[k]; ok && v != nil {
			return normalize.Bool(v)
		}
	}
	if s := normalize.FirstString(r, "status"); s != "" {
		return strings.EqualFold(s, "active")
	}
	return true
}

func flag(r normalize.Raw, keys []string) bool {
	for _, k := range keys {
		if v, ok := r[k]; ok {
			return normalize.Bool(v)
		}
	}
	return false
}

func number(r normalize.Raw, keys []string) float64 {
	v, _ := normalize.FirstNumber(r, keys...)
	return v
}

func numberPtr(r normalize.Raw, keys []string) *float64 {
	if v, ok := normalize.FirstNumber(r, keys...); ok {
		return &v
	}
	return nil
}
