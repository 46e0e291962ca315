package customer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"junketops-service/internal/normalize"
)

func TestFromRaw(t *testing.T) {
	tests := []struct {
		name string
		in   normalize.Raw
		want Customer
	}{
		{
			name: "fully populated snake case record",
			in: normalize.Raw{
				"id":                 "cust-1",
				"name":               "Alice",
				"agent_id":           "agent-9",
				"status":             "active",
				"is_agent":           false,
				"rolling_commission": 1.2,
				"credit_limit":       500000.0,
				"available_credit":   "125000",
			},
			want: Customer{
				ID:                "cust-1",
				Name:              "Alice",
				AgentID:           "agent-9",
				Active:            true,
				RollingCommission: 1.2,
				CreditLimit:       500000,
				AvailableCredit:   125000,
			},
		},
		{
			name: "camel case aliases and embedded agent",
			in: normalize.Raw{
				"customerId":        "cust-2",
				"displayName":       "Bob",
				"agent":             map[string]any{"id": "agent-3"},
				"isActive":          false,
				"isAgent":           true,
				"rollingCommission": "0.8",
			},
			want: Customer{
				ID:                "cust-2",
				Name:              "Bob",
				AgentID:           "agent-3",
				Active:            false,
				IsAgent:           true,
				RollingCommission: 0.8,
			},
		},
		{
			name: "identity resolved from nested customer object",
			in: normalize.Raw{
				"customer": map[string]any{"first_name": "Jane", "id": "42"},
			},
			want: Customer{
				ID:     "42",
				Name:   "Jane",
				Active: true,
			},
		},
		{
			name: "missing identity yields placeholder",
			in:   normalize.Raw{"status": "inactive"},
			want: Customer{
				ID:   normalize.UnknownID,
				Name: "Customer " + normalize.UnknownID,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromRaw(tt.in)
			got.Reported = ReportedTotals{}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromRawReportedTotals(t *testing.T) {
	t.Run("present totals are captured per field", func(t *testing.T) {
		got := FromRaw(normalize.Raw{
			"id":            "cust-1",
			"total_rolling": 10000.0,
			"totalWinLoss":  "-250",
		})

		if assert.NotNil(t, got.Reported.Rolling) {
			assert.Equal(t, 10000.0, *got.Reported.Rolling)
		}
		if assert.NotNil(t, got.Reported.WinLoss) {
			assert.Equal(t, -250.0, *got.Reported.WinLoss)
		}
		assert.Nil(t, got.Reported.BuyIn)
		assert.Nil(t, got.Reported.BuyOut)
	})

	t.Run("null totals count as absent", func(t *testing.T) {
		got := FromRaw(normalize.Raw{
			"id":            "cust-1",
			"total_rolling": nil,
		})

		assert.Nil(t, got.Reported.Rolling)
	})

	t.Run("unparseable present total coerces to zero", func(t *testing.T) {
		got := FromRaw(normalize.Raw{
			"id":           "cust-1",
			"total_buy_in": "not a number",
		})

		if assert.NotNil(t, got.Reported.BuyIn) {
			assert.Equal(t, 0.0, *got.Reported.BuyIn)
		}
	})
}

func TestFromRawList(t *testing.T) {
	got := FromRawList([]normalize.Raw{
		{"id": "a"},
		{"customer_id": "b"},
	})

	assert.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
}
