package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParametricNormalVaRPct(t *testing.T) {
	t.Run("invalid confidence level", func(t *testing.T) {
		assert.Nil(t, ParametricNormalVaRPct(20, 0, 1))
		assert.Nil(t, ParametricNormalVaRPct(20, 1, 1))
	})
	t.Run("invalid horizon", func(t *testing.T) {
		assert.Nil(t, ParametricNormalVaRPct(20, 0.95, 0))
	})
	t.Run("scales with horizon", func(t *testing.T) {
		v1 := ParametricNormalVaRPct(20, 0.95, 1)
		v4 := ParametricNormalVaRPct(20, 0.95, 4)
		require.NotNil(t, v1)
		require.NotNil(t, v4)
		assert.InDelta(t, *v1*2, *v4, 1e-6)
	})
	t.Run("higher confidence implies higher VaR", func(t *testing.T) {
		v95 := ParametricNormalVaRPct(20, 0.95, 1)
		v99 := ParametricNormalVaRPct(20, 0.99, 1)
		require.NotNil(t, v95)
		require.NotNil(t, v99)
		assert.Greater(t, *v99, *v95)
	})
	t.Run("zero volatility implies zero VaR", func(t *testing.T) {
		got := ParametricNormalVaRPct(0, 0.95, 1)
		require.NotNil(t, got)
		assert.InDelta(t, 0.0, *got, 1e-9)
	})
}
