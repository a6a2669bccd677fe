package catalog

import (
	"context"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const defaultCacheSize = 256

// Catalog is the loaded, sorted list of countries plus a prefix index over
// their lower-cased names.
type Catalog struct {
	countries []Country
	index     *patricia.Trie
	byName    map[string]int
	cache     *QueryCache
}

type options struct {
	locale      language.Tag
	translation string
	cacheSize   int
}

// Option configures New and Load.
type Option func(*options)

// WithLocale sets the collation locale used to sort by common name.
func WithLocale(tag language.Tag) Option {
	return func(o *options) { o.locale = tag }
}

// WithTranslation selects the translations key used for LocalizedName.
func WithTranslation(key string) Option {
	return func(o *options) { o.translation = key }
}

// WithCacheSize bounds the per-query result cache. Zero disables it.
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

func buildOptions(opts []Option) options {
	o := options{
		locale:      language.Spanish,
		translation: "spa",
		cacheSize:   defaultCacheSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Load fetches countries from src, normalizes them and builds the catalog.
// Every failure is returned as a *LoadError; no partial state is kept, so a
// retry is simply another call to Load.
func Load(ctx context.Context, src Source, opts ...Option) (*Catalog, error) {
	o := buildOptions(opts)

	raw, err := src.Fetch(ctx)
	if err != nil {
		return nil, newLoadError(err)
	}
	countries := Normalize(raw, o.translation)
	if len(countries) == 0 {
		return nil, newLoadError(ErrEmptyCatalog)
	}

	c := build(countries, o)
	log.Debugf("%d countries loaded", len(c.countries))
	return c, nil
}

// New builds a catalog from already normalized records.
func New(countries []Country, opts ...Option) *Catalog {
	return build(countries, buildOptions(opts))
}

func build(countries []Country, o options) *Catalog {
	sorted := make([]Country, len(countries))
	copy(sorted, countries)

	col := collate.New(o.locale)
	sort.SliceStable(sorted, func(i, j int) bool {
		return col.CompareString(sorted[i].CommonName, sorted[j].CommonName) < 0
	})

	c := &Catalog{
		countries: sorted,
		index:     patricia.NewTrie(),
		byName:    make(map[string]int, len(sorted)),
		cache:     NewQueryCache(o.cacheSize),
	}
	for i, country := range sorted {
		if _, dup := c.byName[country.CommonName]; !dup {
			c.byName[country.CommonName] = i
		}
		for _, name := range country.searchNames() {
			key := patricia.Prefix(name)
			if item := c.index.Get(key); item != nil {
				c.index.Set(key, append(item.([]int), i))
				continue
			}
			c.index.Insert(key, []int{i})
		}
	}
	return c
}

// Filter returns the countries whose common, localized or official name
// starts with the query, in catalog order. An empty query means no search
// was performed and yields an empty result.
func (c *Catalog) Filter(query string) []Country {
	q := NormalizeQuery(query)
	if q == "" || c == nil || len(c.countries) == 0 {
		return nil
	}

	if positions, ok := c.cache.Get(q); ok {
		return c.pick(positions)
	}

	seen := make(map[int]struct{})
	positions := []int{}
	err := c.index.VisitSubtree(patricia.Prefix(q), func(_ patricia.Prefix, item patricia.Item) error {
		for _, i := range item.([]int) {
			if _, dup := seen[i]; dup {
				continue
			}
			seen[i] = struct{}{}
			positions = append(positions, i)
		}
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting name index: %v", err)
		return nil
	}
	sort.Ints(positions)

	c.cache.Put(q, positions)
	return c.pick(positions)
}

func (c *Catalog) pick(positions []int) []Country {
	out := make([]Country, len(positions))
	for i, p := range positions {
		out[i] = c.countries[p]
	}
	return out
}

// Lookup finds a country by its exact common name.
func (c *Catalog) Lookup(commonName string) (Country, bool) {
	if c == nil {
		return Country{}, false
	}
	i, ok := c.byName[commonName]
	if !ok {
		return Country{}, false
	}
	return c.countries[i], true
}

// Len returns the number of countries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.countries)
}

// Records returns a copy of all countries in catalog order.
func (c *Catalog) Records() []Country {
	if c == nil {
		return nil
	}
	out := make([]Country, len(c.countries))
	copy(out, c.countries)
	return out
}

// Stats returns counters about the catalog and its query cache.
func (c *Catalog) Stats() map[string]int {
	stats := map[string]int{"countries": c.Len()}
	if c != nil && c.cache != nil {
		for k, v := range c.cache.Stats() {
			stats[k] = v
		}
	}
	return stats
}
