package normalize

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{name: "float", in: 12.5, want: 12.5},
		{name: "int", in: 7, want: 7},
		{name: "numeric string", in: "1500", want: 1500},
		{name: "numeric string with spaces", in: "  78.25 ", want: 78.25},
		{name: "negative string", in: "-50", want: -50},
		{name: "json number", in: json.Number("3.5"), want: 3.5},
		{name: "nil", in: nil, want: 0},
		{name: "non numeric string", in: "abc", want: 0},
		{name: "nan string", in: "NaN", want: 0},
		{name: "nan float", in: math.NaN(), want: 0},
		{name: "positive infinity", in: math.Inf(1), want: 0},
		{name: "bool", in: true, want: 0},
		{name: "object", in: map[string]any{"amount": 5}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Number(tt.in))
		})
	}
}

func TestStr(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "string", in: " hello ", want: "hello"},
		{name: "whole float", in: float64(42), want: "42"},
		{name: "fractional float", in: 1.25, want: "1.25"},
		{name: "int", in: 9, want: "9"},
		{name: "json number", in: json.Number("42"), want: "42"},
		{name: "nil", in: nil, want: ""},
		{name: "nan", in: math.NaN(), want: ""},
		{name: "bool", in: true, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Str(tt.in))
		})
	}
}

func TestBool(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want bool
	}{
		{name: "true", in: true, want: true},
		{name: "false", in: false, want: false},
		{name: "string true", in: "true", want: true},
		{name: "string one", in: "1", want: true},
		{name: "string no", in: "no", want: false},
		{name: "non zero number", in: 2.0, want: true},
		{name: "zero number", in: 0.0, want: false},
		{name: "nil", in: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Bool(tt.in))
		})
	}
}

func TestTime(t *testing.T) {
	rfc := time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want time.Time
	}{
		{name: "rfc3339", in: "2026-08-20T10:30:00Z", want: rfc},
		{name: "date only", in: "2026-08-20", want: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)},
		{name: "unix seconds", in: float64(rfc.Unix()), want: rfc},
		{name: "unix milliseconds", in: float64(rfc.UnixMilli()), want: rfc},
		{name: "garbage", in: "not a time", want: time.Time{}},
		{name: "nil", in: nil, want: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Time(tt.in)
			if tt.want.IsZero() {
				assert.True(t, got.IsZero())
				return
			}
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}
}

func TestFirstNumber(t *testing.T) {
	t.Run("present value reports presence", func(t *testing.T) {
		got, ok := FirstNumber(Raw{"total_rolling": 1500.0}, "total_rolling", "totalRolling")

		assert.True(t, ok)
		assert.Equal(t, 1500.0, got)
	})

	t.Run("explicit zero is still present", func(t *testing.T) {
		got, ok := FirstNumber(Raw{"total_rolling": 0.0}, "total_rolling")

		assert.True(t, ok)
		assert.Equal(t, 0.0, got)
	})

	t.Run("null value counts as absent", func(t *testing.T) {
		_, ok := FirstNumber(Raw{"total_rolling": nil}, "total_rolling")

		assert.False(t, ok)
	})

	t.Run("unparseable present value coerces to zero", func(t *testing.T) {
		got, ok := FirstNumber(Raw{"total_rolling": "garbage"}, "total_rolling")

		assert.True(t, ok)
		assert.Equal(t, 0.0, got)
	})

	t.Run("missing keys report absence", func(t *testing.T) {
		_, ok := FirstNumber(Raw{}, "total_rolling", "totalRolling")

		assert.False(t, ok)
	})
}

func TestList(t *testing.T) {
	t.Run("extracts object elements", func(t *testing.T) {
		r := Raw{"expenses": []any{
			map[string]any{"amount": 100.0},
			"not an object",
			map[string]any{"amount": 50.0},
		}}

		got := List(r, "expenses")

		assert.Len(t, got, 2)
		assert.Equal(t, 100.0, got[0]["amount"])
	})

	t.Run("missing key yields nil", func(t *testing.T) {
		assert.Nil(t, List(Raw{}, "expenses"))
	})
}
