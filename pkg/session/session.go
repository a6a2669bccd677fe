// Package session owns the state of one interactive lookup: the loaded
// catalog, the pending debounce timer, the current view and the generation
// counter that guards late weather responses.
//
// A Session is not safe for concurrent use. All methods are meant to run on
// a single goroutine (the TUI update loop, the CLI loop, the IPC loop); the
// debouncer hands its value back through Options.OnQuery and never touches
// session state itself.
package session

import (
	"context"
	"strings"
	"time"

	"github.com/bastiangx/countryserve/pkg/catalog"
	"github.com/bastiangx/countryserve/pkg/render"
	"github.com/bastiangx/countryserve/pkg/search"
	"github.com/bastiangx/countryserve/pkg/weather"
	"github.com/charmbracelet/log"
)

// Loader loads (or reloads) the country catalog.
type Loader func(ctx context.Context) (*catalog.Catalog, error)

// WeatherRequest describes a weather lookup to run for the view of the given
// generation.
type WeatherRequest struct {
	Generation uint64
	Capital    string
}

// Options configures a Session.
type Options struct {
	// Formatter formats populations. Defaults to es-ES.
	Formatter *render.Formatter
	// WeatherEnabled controls whether single views request weather.
	WeatherEnabled bool
	// QuietPeriod is the debounce delay. Defaults to search.DefaultQuietPeriod.
	QuietPeriod time.Duration
	// OnQuery receives the debounced raw input. It runs on the timer
	// goroutine and must hand the value to the session's owner.
	OnQuery func(raw string)
	// Clock replaces the wall clock of the debouncer.
	Clock search.Clock
}

// Session is the root state object of a lookup.
type Session struct {
	catalog        *catalog.Catalog
	loadErr        error
	loading        bool
	formatter      *render.Formatter
	weatherEnabled bool
	debouncer      *search.Debouncer
	view           render.View
	generation     uint64
	query          string
}

// New creates a session with no catalog. Call BeginLoad and then SetCatalog
// or SetLoadError as the load progresses.
func New(opts Options) *Session {
	f := opts.Formatter
	if f == nil {
		f = render.DefaultFormatter()
	}
	onQuery := opts.OnQuery
	if onQuery == nil {
		onQuery = func(string) {}
	}
	var debounceOpts []search.DebounceOption
	if opts.Clock != nil {
		debounceOpts = append(debounceOpts, search.WithClock(opts.Clock))
	}
	return &Session{
		formatter:      f,
		weatherEnabled: opts.WeatherEnabled,
		debouncer:      search.NewDebouncer(opts.QuietPeriod, onQuery, debounceOpts...),
		view:           render.Idle(),
	}
}

// BeginLoad marks a catalog load (or retry) as in progress.
func (s *Session) BeginLoad() render.View {
	s.loading = true
	s.loadErr = nil
	return s.show(render.Loading(false))
}

// SetCatalog installs a successfully loaded catalog.
func (s *Session) SetCatalog(c *catalog.Catalog) render.View {
	s.catalog = c
	s.loading = false
	s.loadErr = nil
	log.Debugf("Session catalog ready: %d countries", c.Len())
	return s.show(render.Idle())
}

// SetLoadError records a failed load. The catalog stays empty.
func (s *Session) SetLoadError(err error) render.View {
	s.loading = false
	s.loadErr = err
	log.Warnf("Could not load countries: %v", err)
	return s.show(render.LoadFailed(err))
}

// Loaded reports whether a catalog is available.
func (s *Session) Loaded() bool {
	return s.catalog != nil && s.catalog.Len() > 0
}

// Loading reports whether a load is in progress.
func (s *Session) Loading() bool { return s.loading }

// LoadErr returns the last load failure, if any.
func (s *Session) LoadErr() error { return s.loadErr }

// Catalog returns the loaded catalog or nil.
func (s *Session) Catalog() *catalog.Catalog { return s.catalog }

// View returns the current view.
func (s *Session) View() render.View { return s.view }

// Generation returns the generation of the current view.
func (s *Session) Generation() uint64 { return s.generation }

// Query returns the last evaluated normalized query.
func (s *Session) Query() string { return s.query }

// Debouncer exposes the input debouncer.
func (s *Session) Debouncer() *search.Debouncer { return s.debouncer }

// Input feeds a raw input event to the debouncer.
func (s *Session) Input(raw string) {
	s.debouncer.Input(raw)
}

// Evaluate runs a query: filter, classify and build the tier view. For the
// single tier it returns the weather lookup to perform, if any.
func (s *Session) Evaluate(raw string) (render.View, *WeatherRequest) {
	q := catalog.NormalizeQuery(raw)
	s.query = q
	if q == "" {
		return s.show(render.Idle()), nil
	}
	if !s.Loaded() {
		return s.show(render.Loading(true)), nil
	}

	results := s.catalog.Filter(q)
	switch search.Classify(results) {
	case search.TierEmpty:
		return s.show(render.Empty()), nil
	case search.TierMany:
		return s.show(render.TooMany(len(results))), nil
	case search.TierList:
		return s.show(render.List(results)), nil
	default:
		return s.single(results[0])
	}
}

// Select shows one country directly, as if its exact common name had been
// typed, skipping the debounce delay.
func (s *Session) Select(commonName string) (render.View, *WeatherRequest) {
	s.debouncer.Cancel()
	if c, ok := s.catalog.Lookup(commonName); ok {
		s.query = catalog.NormalizeQuery(commonName)
		return s.single(c)
	}
	return s.Evaluate(commonName)
}

// Clear resets the query and the display.
func (s *Session) Clear() render.View {
	s.debouncer.Cancel()
	s.query = ""
	return s.show(render.Idle())
}

// ApplyWeather patches the weather panel of the current view if it still
// belongs to generation. Late responses for an older view are dropped and
// ApplyWeather reports false.
func (s *Session) ApplyWeather(generation uint64, report weather.Report, err error) bool {
	if generation != s.generation {
		log.Debugf("Dropping weather response for generation %d (current %d)", generation, s.generation)
		return false
	}
	single, ok := s.view.(*render.SingleView)
	if !ok || single.Weather.State != render.WeatherLoading {
		return false
	}
	if err != nil {
		log.Debugf("Weather lookup failed: %v", err)
	}
	single.PatchWeather(report, err)
	return true
}

// Close stops the pending debounce timer.
func (s *Session) Close() {
	s.debouncer.Cancel()
}

func (s *Session) single(c catalog.Country) (render.View, *WeatherRequest) {
	view := render.Single(c, s.formatter, s.weatherEnabled)
	s.show(view)
	if view.Weather.State != render.WeatherLoading {
		return view, nil
	}
	return view, &WeatherRequest{Generation: s.generation, Capital: strings.TrimSpace(c.Capital)}
}

// show makes v the current view. Every view change starts a new generation.
func (s *Session) show(v render.View) render.View {
	s.generation++
	s.view = v
	return v
}
