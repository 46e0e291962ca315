// internal/domain/report/dto.go
package report

// Sort keys and directions accepted by the ranking endpoint.
const (
	SortByRolling = "rolling"
	SortByWinLoss = "winloss"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// RankQuery selects the ranking order for the customer list.
type RankQuery struct {
	SortBy    string `form:"sort_by" binding:"omitempty,oneof=rolling winloss"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

// WithDefaults fills the dashboard's conventional ordering: biggest
// rolling volume first.
func (q RankQuery) WithDefaults() RankQuery {
	if q.SortBy == "" {
		q.SortBy = SortByRolling
	}
	if q.SortOrder == "" {
		q.SortOrder = OrderDesc
	}
	return q
}

// RankedCustomers is the response payload of the customer ranking
// endpoint. The full ranked list is always returned; truncation for
// display is left to the presentation layer.
type RankedCustomers struct {
	SortBy    string        `json:"sort_by"`
	SortOrder string        `json:"sort_order"`
	Currency  string        `json:"currency"`
	Customers []CustomerRow `json:"customers"`
}
