package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache(t *testing.T) {
	t.Parallel()
	lruCache := NewLRUCache[string, string](5)
	lruCache.Add("hello", "world")
	assert.True(t, lruCache.Contains("hello"), "cache should contain hello")

	v, ok := lruCache.Get("hello")
	require.True(t, ok, "Get must find hello")
	assert.Equal(t, "world", v)

	assert.True(t, lruCache.Remove("hello"))
	assert.False(t, lruCache.Remove("hello"), "removing twice should report nothing removed")
	_, ok = lruCache.Get("hello")
	assert.False(t, ok)
}

func TestZeroCapacity(t *testing.T) {
	t.Parallel()
	lruCache := NewLRUCache[int, int](0)
	lruCache.Add(1, 1)
	lruCache.Add(2, 2)
	assert.Equal(t, uint64(1), lruCache.Len())
	assert.True(t, lruCache.Contains(2))
}

func TestClear(t *testing.T) {
	t.Parallel()
	lruCache := NewLRUCache[int, int](5)
	for x := range 5 {
		lruCache.Add(x, x)
	}
	assert.Equal(t, uint64(5), lruCache.Len())
	lruCache.Clear()
	assert.Zero(t, lruCache.Len())
	assert.Empty(t, lruCache.Keys())
}

func TestAddEvictsOldest(t *testing.T) {
	t.Parallel()
	lruCache := NewLRUCache[int, int](3)
	var evicted []int
	lruCache.OnEvict(func(k, _ int) { evicted = append(evicted, k) })
	for x := range 3 {
		lruCache.Add(x, x)
	}
	_, ok := lruCache.Get(0)
	require.True(t, ok)
	lruCache.Add(3, 3)

	assert.False(t, lruCache.Contains(1), "least recently used key should be evicted")
	assert.Equal(t, []int{1}, evicted)
	assert.Equal(t, []int{3, 0, 2}, lruCache.Keys())

	lruCache.Add(2, 20)
	v, ok := lruCache.Peek(2)
	require.True(t, ok)
	assert.Equal(t, 20, v, "Add should update an existing key")
	assert.Equal(t, []int{2, 3, 0}, lruCache.Keys())
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()
	lruCache := NewLRUCache[int, int](10)
	var wg sync.WaitGroup
	for x := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lruCache.Add(x, x)
			lruCache.Get(x)
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(10), lruCache.Len())
}
