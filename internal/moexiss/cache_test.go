package moexiss

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIssCacheGetPut(t *testing.T) {
	c := newIssCache(time.Hour, 10)

	_, ok := c.get("missing")
	assert.False(t, ok)

	c.put("k1", "v1")
	v, ok := c.get("k1")
	assert.True(t, ok)
	assert.Equal(t, "v1", v)
	assert.Equal(t, 1, c.size())
}

func TestIssCacheExpiry(t *testing.T) {
	c := newIssCache(time.Millisecond, 10)
	c.put("k1", "v1")
	time.Sleep(5 * time.Millisecond)

	_, ok := c.get("k1")
	assert.False(t, ok)
}

func TestIssCachePurgeExpired(t *testing.T) {
	c := newIssCache(time.Millisecond, 10)
	c.put("k1", "v1")
	c.put("k2", "v2")
	time.Sleep(5 * time.Millisecond)

	removed := c.purgeExpired()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, c.size())
}

func TestIssCacheLRUEviction(t *testing.T) {
	c := newIssCache(time.Hour, 2)
	c.put("k1", "v1")
	c.put("k2", "v2")
	// touch k1 so it becomes most-recently-used
	c.get("k1")
	c.put("k3", "v3")

	_, ok := c.get("k2")
	assert.False(t, ok, "k2 should have been evicted as least recently used")
	_, ok = c.get("k1")
	assert.True(t, ok)
	_, ok = c.get("k3")
	assert.True(t, ok)
}

func TestIssCachePutRefreshesExistingEntry(t *testing.T) {
	c := newIssCache(time.Hour, 10)
	c.put("k1", "v1")
	c.put("k1", "v2")

	v, ok := c.get("k1")
	assert.True(t, ok)
	assert.Equal(t, "v2", v)
	assert.Equal(t, 1, c.size())
}
