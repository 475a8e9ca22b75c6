package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyReturns(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   []float64
	}{
		{name: "too short", closes: []float64{100}, want: nil},
		{name: "two points", closes: []float64{100, 110}, want: []float64{0.1}},
		{name: "three points", closes: []float64{100, 110, 99}, want: []float64{0.1, -0.1}},
		{name: "zero previous close", closes: []float64{0, 50}, want: []float64{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DailyReturns(tt.closes)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-9)
			}
		})
	}
}

func TestTotalReturnPct(t *testing.T) {
	t.Run("insufficient data", func(t *testing.T) {
		assert.Nil(t, TotalReturnPct([]float64{100}))
	})
	t.Run("zero first close", func(t *testing.T) {
		assert.Nil(t, TotalReturnPct([]float64{0, 100}))
	})
	t.Run("positive return", func(t *testing.T) {
		got := TotalReturnPct([]float64{100, 150})
		require.NotNil(t, got)
		assert.InDelta(t, 50.0, *got, 1e-9)
	})
	t.Run("negative return", func(t *testing.T) {
		got := TotalReturnPct([]float64{200, 100})
		require.NotNil(t, got)
		assert.InDelta(t, -50.0, *got, 1e-9)
	})
}
