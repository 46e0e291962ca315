package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestID(t *testing.T) {
	tests := []struct {
		name string
		in   Raw
		want string
	}{
		{
			name: "plain id",
			in:   Raw{"id": "cust-1"},
			want: "cust-1",
		},
		{
			name: "snake case alias",
			in:   Raw{"customer_id": "cust-2"},
			want: "cust-2",
		},
		{
			name: "camel case alias",
			in:   Raw{"customerId": "cust-3"},
			want: "cust-3",
		},
		{
			name: "exported field aliases",
			in:   Raw{"ID": "cust-4"},
			want: "cust-4",
		},
		{
			name: "first candidate wins over later aliases",
			in:   Raw{"id": "primary", "customer_id": "secondary"},
			want: "primary",
		},
		{
			name: "numeric id is formatted without exponent",
			in:   Raw{"id": float64(42)},
			want: "42",
		},
		{
			name: "empty id falls through to alias",
			in:   Raw{"id": "  ", "customerId": "cust-5"},
			want: "cust-5",
		},
		{
			name: "nested customer object",
			in:   Raw{"customer": map[string]any{"id": "42"}},
			want: "42",
		},
		{
			name: "nothing usable",
			in:   Raw{"foo": "bar"},
			want: UnknownID,
		},
		{
			name: "empty record",
			in:   Raw{},
			want: UnknownID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ID(tt.in))
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		name string
		in   Raw
		want string
	}{
		{
			name: "plain name",
			in:   Raw{"name": "Alice"},
			want: "Alice",
		},
		{
			name: "full name alias",
			in:   Raw{"full_name": "Bob Tan"},
			want: "Bob Tan",
		},
		{
			name: "first name wins over last name",
			in:   Raw{"first_name": "Jane", "last_name": "Doe"},
			want: "Jane",
		},
		{
			name: "display name alias",
			in:   Raw{"displayName": "VIP 7"},
			want: "VIP 7",
		},
		{
			name: "whitespace only falls through",
			in:   Raw{"name": "   ", "customer_name": "Carol"},
			want: "Carol",
		},
		{
			name: "nested customer object",
			in:   Raw{"customer": map[string]any{"first_name": "Jane"}},
			want: "Jane",
		},
		{
			name: "synthesized from id",
			in:   Raw{"id": "42"},
			want: "Customer 42",
		},
		{
			name: "synthesized placeholder stays distinguishable",
			in:   Raw{},
			want: "Customer " + UnknownID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(tt.in))
		})
	}
}

func TestCanonicalize(t *testing.T) {
	t.Run("resolves id and name from a nested customer object", func(t *testing.T) {
		in := Raw{"customer": map[string]any{"first_name": "Jane", "id": "42"}}

		got := Canonicalize(in)

		assert.Equal(t, "42", got["id"])
		assert.Equal(t, "Jane", got["name"])
	})

	t.Run("preserves unrelated fields", func(t *testing.T) {
		in := Raw{"customer_id": "7", "total_rolling": 1500.0}

		got := Canonicalize(in)

		assert.Equal(t, "7", got["id"])
		assert.Equal(t, 1500.0, got["total_rolling"])
	})

	t.Run("does not mutate the input", func(t *testing.T) {
		in := Raw{"customer_id": "7"}

		_ = Canonicalize(in)

		_, ok := in["id"]
		assert.False(t, ok)
	})

	t.Run("is idempotent", func(t *testing.T) {
		in := Raw{"customerId": "9", "first_name": "Ken", "status": "active"}

		once := Canonicalize(in)
		twice := Canonicalize(once)

		assert.Equal(t, once, twice)
	})

	t.Run("nil record yields placeholder identity", func(t *testing.T) {
		got := Canonicalize(nil)

		assert.Equal(t, UnknownID, got["id"])
		assert.Equal(t, "Customer "+UnknownID, got["name"])
	})
}

func TestCustomerRef(t *testing.T) {
	tests := []struct {
		name string
		in   Raw
		want string
	}{
		{
			name: "snake case reference",
			in:   Raw{"customer_id": "cust-1"},
			want: "cust-1",
		},
		{
			name: "camel case reference",
			in:   Raw{"customerId": "cust-2"},
			want: "cust-2",
		},
		{
			name: "embedded plain id",
			in:   Raw{"customer": "cust-3"},
			want: "cust-3",
		},
		{
			name: "embedded customer object",
			in:   Raw{"customer": map[string]any{"customerId": "cust-4"}},
			want: "cust-4",
		},
		{
			name: "numeric reference",
			in:   Raw{"customer_id": float64(11)},
			want: "11",
		},
		{
			name: "unresolvable reference collapses to placeholder",
			in:   Raw{"amount": 100.0},
			want: UnknownID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CustomerRef(tt.in))
		})
	}
}

func TestTripRef(t *testing.T) {
	tests := []struct {
		name string
		in   Raw
		want string
	}{
		{
			name: "snake case reference",
			in:   Raw{"trip_id": "trip-1"},
			want: "trip-1",
		},
		{
			name: "camel case reference",
			in:   Raw{"tripId": "trip-2"},
			want: "trip-2",
		},
		{
			name: "embedded trip object",
			in:   Raw{"trip": map[string]any{"id": "trip-3"}},
			want: "trip-3",
		},
		{
			name: "embedded plain id",
			in:   Raw{"trip": "trip-4"},
			want: "trip-4",
		},
		{
			name: "missing reference",
			in:   Raw{},
			want: UnknownID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TripRef(tt.in))
		})
	}
}
