package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPearsonCorrelationMatrix(t *testing.T) {
	t.Run("perfectly correlated series", func(t *testing.T) {
		dates := []string{"2026-01-01", "2026-01-02", "2026-01-03", "2026-01-04"}
		a := DateCloses{Dates: dates, Closes: []float64{100, 110, 99, 120}}
		b := DateCloses{Dates: dates, Closes: []float64{50, 55, 49.5, 60}}
		matrix, k, err := PearsonCorrelationMatrix([]string{"A", "B"}, map[string]DateCloses{"A": a, "B": b})
		require.NoError(t, err)
		assert.Equal(t, 3, k)
		assert.InDelta(t, 1.0, matrix[0][0], 1e-9)
		assert.InDelta(t, 1.0, matrix[1][1], 1e-9)
		assert.InDelta(t, 1.0, matrix[0][1], 1e-6)
		assert.InDelta(t, 1.0, matrix[1][0], 1e-6)
	})

	t.Run("too few common dates", func(t *testing.T) {
		a := DateCloses{Dates: []string{"2026-01-01", "2026-01-02"}, Closes: []float64{100, 110}}
		b := DateCloses{Dates: []string{"2026-02-01", "2026-02-02"}, Closes: []float64{50, 55}}
		_, _, err := PearsonCorrelationMatrix([]string{"A", "B"}, map[string]DateCloses{"A": a, "B": b})
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("zero-variance series", func(t *testing.T) {
		dates := []string{"2026-01-01", "2026-01-02", "2026-01-03"}
		a := DateCloses{Dates: dates, Closes: []float64{100, 100, 100}}
		b := DateCloses{Dates: dates, Closes: []float64{50, 55, 49.5}}
		_, _, err := PearsonCorrelationMatrix([]string{"A", "B"}, map[string]DateCloses{"A": a, "B": b})
		assert.ErrorIs(t, err, ErrInsufficientData)
	})
}
