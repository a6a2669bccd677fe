package catalog

import "testing"

func TestQueryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	qc := NewQueryCache(2)
	qc.Put("a", []int{0})
	qc.Put("b", []int{1})

	// touch "a" so "b" becomes the oldest
	if _, ok := qc.Get("a"); !ok {
		t.Fatal("expected hit for a")
	}
	qc.Put("c", []int{2})

	if _, ok := qc.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	for _, q := range []string{"a", "c"} {
		if _, ok := qc.Get(q); !ok {
			t.Errorf("expected %s to stay cached", q)
		}
	}
	if n := qc.Stats()["queryCacheEntries"]; n != 2 {
		t.Errorf("expected 2 entries, got %d", n)
	}
}

func TestQueryCacheDisabled(t *testing.T) {
	qc := NewQueryCache(0)
	qc.Put("a", []int{0})
	if _, ok := qc.Get("a"); ok {
		t.Error("zero-size cache must not store entries")
	}
}
