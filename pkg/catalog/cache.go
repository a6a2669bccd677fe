package catalog

import (
	"sync"

	"github.com/charmbracelet/log"
)

// QueryCache memoizes filter results (catalog positions) per normalized
// query. The catalog never changes after load, so entries never go stale;
// the cache only bounds memory by evicting the least recently used query.
type QueryCache struct {
	entries     map[string][]int
	accessTime  map[string]int64
	accessCount int64
	hits        int64
	maxEntries  int
	mu          sync.Mutex
}

// NewQueryCache creates a cache holding at most maxEntries queries.
// A non-positive size yields a cache that stores nothing.
func NewQueryCache(maxEntries int) *QueryCache {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &QueryCache{
		entries:    make(map[string][]int, maxEntries),
		accessTime: make(map[string]int64, maxEntries),
		maxEntries: maxEntries,
	}
}

// Get returns the cached positions for query.
func (qc *QueryCache) Get(query string) ([]int, bool) {
	qc.mu.Lock()
	defer qc.mu.Unlock()

	positions, ok := qc.entries[query]
	if !ok {
		return nil, false
	}
	qc.hits++
	qc.accessTime[query] = qc.nextAccessTime()
	return positions, true
}

// Put stores positions for query, evicting the oldest entry when full.
func (qc *QueryCache) Put(query string, positions []int) {
	qc.mu.Lock()
	defer qc.mu.Unlock()

	if qc.maxEntries == 0 {
		return
	}
	if _, exists := qc.entries[query]; !exists && len(qc.entries) >= qc.maxEntries {
		qc.evictLRU()
	}
	qc.entries[query] = positions
	qc.accessTime[query] = qc.nextAccessTime()
}

// Stats returns cache counters.
func (qc *QueryCache) Stats() map[string]int {
	qc.mu.Lock()
	defer qc.mu.Unlock()

	return map[string]int{
		"queryCacheEntries": len(qc.entries),
		"maxQueryEntries":   qc.maxEntries,
		"queryCacheHits":    int(qc.hits),
	}
}

func (qc *QueryCache) nextAccessTime() int64 {
	qc.accessCount++
	return qc.accessCount
}

func (qc *QueryCache) evictLRU() {
	var oldestQuery string
	var oldestTime int64 = 9223372036854775807

	for query, accessTime := range qc.accessTime {
		if accessTime < oldestTime {
			oldestTime = accessTime
			oldestQuery = query
		}
	}

	if oldestTime != 9223372036854775807 {
		delete(qc.entries, oldestQuery)
		delete(qc.accessTime, oldestQuery)
		log.Debugf("Evicted query '%s' from cache", oldestQuery)
	}
}
