/*
	LRU Cache package

	Based off information obtained from:

	https://en.wikipedia.org/wiki/Cache_replacement_policies#Least_recently_used_(LRU)
*/

package cache

import (
	"container/list"
	"sync"
)

// LRU is a concurrency safe least recently used cache
type LRU[K comparable, V any] struct {
	Cap   uint64
	mu    sync.Mutex
	l     *list.List
	items map[K]*list.Element
	// onEvict is called with the evicted entry while the cache is locked
	onEvict func(K, V)
}

type item[K comparable, V any] struct {
	key   K
	value V
}

// NewLRUCache returns a new LRU cache with input capacity. A capacity of zero
// is treated as one
func NewLRUCache[K comparable, V any](capacity uint64) *LRU[K, V] {
	if capacity == 0 {
		capacity = 1
	}
	return &LRU[K, V]{
		Cap:   capacity,
		l:     list.New(),
		items: make(map[K]*list.Element),
	}
}

// OnEvict sets a callback for entries pushed out of the cache
func (l *LRU[K, V]) OnEvict(fn func(K, V)) {
	l.mu.Lock()
	l.onEvict = fn
	l.mu.Unlock()
}

// Add adds a value to the cache
func (l *LRU[K, V]) Add(key K, value V) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if f, o := l.items[key]; o {
		l.l.MoveToFront(f)
		f.Value.(*item[K, V]).value = value
		return
	}
	l.items[key] = l.l.PushFront(&item[K, V]{key, value})
	if uint64(l.l.Len()) > l.Cap {
		l.removeOldestEntry()
	}
}

// Get returns keys value from cache if found
func (l *LRU[K, V]) Get(key K) (value V, found bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i, f := l.items[key]; f {
		l.l.MoveToFront(i)
		return i.Value.(*item[K, V]).value, true
	}
	return value, false
}

// Peek returns keys value without updating its recent use
func (l *LRU[K, V]) Peek(key K) (value V, found bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i, f := l.items[key]; f {
		return i.Value.(*item[K, V]).value, true
	}
	return value, false
}

// Contains check if key is in cache this does not update LRU
func (l *LRU[K, V]) Contains(key K) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, f := l.items[key]
	return f
}

// Remove removes key from the cache, if the key was removed.
func (l *LRU[K, V]) Remove(key K) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i, f := l.items[key]; f {
		l.removeElement(i)
		return true
	}
	return false
}

// Keys returns every key from most to least recently used
func (l *LRU[K, V]) Keys() []K {
	l.mu.Lock()
	defer l.mu.Unlock()
	keys := make([]K, 0, l.l.Len())
	for e := l.l.Front(); e != nil; e = e.Next() {
		keys = append(keys, e.Value.(*item[K, V]).key)
	}
	return keys
}

// Clear is used to completely clear the cache.
func (l *LRU[K, V]) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.items)
	l.l.Init()
}

// Len returns length of l
func (l *LRU[K, V]) Len() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return uint64(l.l.Len()) //nolint:gosec // list length is never negative
}

// removeOldestEntry removes the oldest item from the cache.
func (l *LRU[K, V]) removeOldestEntry() {
	if i := l.l.Back(); i != nil {
		v := i.Value.(*item[K, V])
		l.removeElement(i)
		if l.onEvict != nil {
			l.onEvict(v.key, v.value)
		}
	}
}

// removeElement element from the cache
func (l *LRU[K, V]) removeElement(e *list.Element) {
	l.l.Remove(e)
	delete(l.items, e.Value.(*item[K, V]).key)
}
