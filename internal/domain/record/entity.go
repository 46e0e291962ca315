// internal/domain/record/entity.go
package record

import (
	"strings"
	"time"

	"junketops-service/internal/normalize"
)

// Buy-in/out transaction types after normalization.
const (
	TypeBuyIn  = "buy-in"
	TypeBuyOut = "buy-out"
)

// Rolling is a single gaming-session entry: wagering volume and the
// resulting win/loss for one customer on one trip. WinLoss is positive
// when the customer is ahead.
type Rolling struct {
	CustomerID string    `json:"customer_id"`
	TripID     string    `json:"trip_id"`
	Amount     float64   `json:"amount"`
	WinLoss    float64   `json:"win_loss"`
	GameType   string    `json:"game_type,omitempty"`
	At         time.Time `json:"at"`
}

// BuyInOut is a single cash transaction: currency exchanged for chips
// (buy-in) or back (buy-out).
type BuyInOut struct {
	CustomerID string    `json:"customer_id"`
	TripID     string    `json:"trip_id"`
	Type       string    `json:"type"`
	Amount     float64   `json:"amount"`
	At         time.Time `json:"at"`
}

func (b BuyInOut) IsBuyIn() bool  { return b.Type == TypeBuyIn }
func (b BuyInOut) IsBuyOut() bool { return b.Type == TypeBuyOut }

var (
	rollingAmountCandidates = []string{"amount", "rolling", "rolling_amount", "rollingAmount", "turnover"}
	winLossCandidates       = []string{"win_loss", "winLoss", "winloss", "win_loss_amount", "winLossAmount"}
	gameTypeCandidates      = []string{"game_type", "gameType", "game"}
	timeCandidates          = []string{"recorded_at", "recordedAt", "created_at", "createdAt", "timestamp", "time", "date"}

	cashAmountCandidates = []string{"amount", "value", "cash_amount", "cashAmount"}
	cashTypeCandidates   = []string{"type", "transaction_type", "transactionType", "kind"}
)

// RollingFromRaw canonicalizes one upstream rolling record.
func RollingFromRaw(r normalize.Raw) Rolling {
	amount, _ := normalize.FirstNumber(r, rollingAmountCandidates...)
	winLoss, _ := normalize.FirstNumber(r, winLossCandidates...)

	return Rolling{
		CustomerID: normalize.CustomerRef(r),
		TripID:     normalize.TripRef(r),
		Amount:     amount,
		WinLoss:    winLoss,
		GameType:   normalize.FirstString(r, gameTypeCandidates...),
		At:         normalize.FirstTime(r, timeCandidates...),
	}
}

// RollingFromRawList maps a whole upstream collection.
func RollingFromRawList(rs []normalize.Raw) []Rolling {
	out := make([]Rolling, 0, len(rs))
	for _, r := range rs {
		out = append(out, RollingFromRaw(r))
	}
	return out
}

// BuyInOutFromRaw canonicalizes one upstream cash transaction record.
func BuyInOutFromRaw(r normalize.Raw) BuyInOut {
	amount, _ := normalize.FirstNumber(r, cashAmountCandidates...)

	return BuyInOut{
		CustomerID: normalize.CustomerRef(r),
		TripID:     normalize.TripRef(r),
		Type:       NormalizeType(normalize.FirstString(r, cashTypeCandidates...)),
		Amount:     amount,
		At:         normalize.FirstTime(r, timeCandidates...),
	}
}

// BuyInOutFromRawList maps a whole upstream collection.
func BuyInOutFromRawList(rs []normalize.Raw) []BuyInOut {
	out := make([]BuyInOut, 0, len(rs))
	for _, r := range rs {
		out = append(out, BuyInOutFromRaw(r))
	}
	return out
}

// NormalizeType folds the upstream transaction-type spellings onto the
// canonical constants. Unknown types pass through lowercased and then
// count toward neither bucket.
func NormalizeType(s string) string {
	canon := strings.ToLower(strings.TrimSpace(s))
	canon = strings.NewReplacer("_", "", "-", "", " ", "").Replace(canon)
	switch canon {
	case "buyin", "in", "deposit":
		return TypeBuyIn
	case "buyout", "out", "cashout", "withdrawal":
		return TypeBuyOut
	}
	return strings.ToLower(strings.TrimSpace(s))
}
