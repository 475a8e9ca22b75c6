package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankPeers(t *testing.T) {
	t.Run("lower-is-cheaper ranks ascending", func(t *testing.T) {
		values := []PeerMetricValue{{Ticker: "A", Value: 15}, {Ticker: "B", Value: 5}, {Ticker: "C", Value: 10}}
		ranks := RankPeers("pe_ratio", values)
		b, ok := RankOf(ranks, "B")
		require.True(t, ok)
		assert.Equal(t, 1, b.Rank)
		require.NotNil(t, b.Percentile)
		assert.InDelta(t, 1.0, *b.Percentile, 1e-9)

		a, ok := RankOf(ranks, "A")
		require.True(t, ok)
		assert.Equal(t, 3, a.Rank)
		require.NotNil(t, a.Percentile)
		assert.InDelta(t, 0.0, *a.Percentile, 1e-9)
	})

	t.Run("higher-is-better ranks descending", func(t *testing.T) {
		values := []PeerMetricValue{{Ticker: "A", Value: 15}, {Ticker: "B", Value: 5}, {Ticker: "C", Value: 10}}
		ranks := RankPeers("roe_pct", values)
		a, ok := RankOf(ranks, "A")
		require.True(t, ok)
		assert.Equal(t, 1, a.Rank)
		require.NotNil(t, a.Percentile)
		assert.InDelta(t, 1.0, *a.Percentile, 1e-9)
	})

	t.Run("single value has nil percentile", func(t *testing.T) {
		ranks := RankPeers("pe_ratio", []PeerMetricValue{{Ticker: "A", Value: 10}})
		require.Len(t, ranks, 1)
		assert.Nil(t, ranks[0].Percentile)
	})
}

func TestRankOf(t *testing.T) {
	ranks := RankPeers("pe_ratio", []PeerMetricValue{{Ticker: "A", Value: 10}})
	_, ok := RankOf(ranks, "NOTFOUND")
	assert.False(t, ok)
}
