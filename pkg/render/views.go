// Package render turns search outcomes into view models and draws them.
//
// Views are plain data: building one never blocks and never performs I/O.
// The only view that changes after it is built is SingleView, whose weather
// panel is patched in place when the weather lookup resolves; every other
// field of a SingleView stays untouched.
package render

import (
	"errors"
	"math"
	"strings"

	"github.com/bastiangx/countryserve/pkg/catalog"
	"github.com/bastiangx/countryserve/pkg/weather"
)

// Placeholders for missing values.
const (
	NoCapital    = "none"
	NotAvailable = "N/A"
)

// Kind identifies a view.
type Kind int

const (
	KindIdle Kind = iota
	KindLoading
	KindLoadFailed
	KindEmpty
	KindTooMany
	KindList
	KindSingle
)

func (k Kind) String() string {
	switch k {
	case KindIdle:
		return "idle"
	case KindLoading:
		return "loading"
	case KindLoadFailed:
		return "load_failed"
	case KindEmpty:
		return "empty"
	case KindTooMany:
		return "many"
	case KindList:
		return "list"
	case KindSingle:
		return "single"
	default:
		return "unknown"
	}
}

// View is anything the renderer can draw.
type View interface {
	Kind() Kind
}

// IdleView is shown when there is no query.
type IdleView struct{}

// LoadingView is shown while the catalog loads. Searching is set when the
// user searched before the catalog was available.
type LoadingView struct {
	Searching bool
}

// LoadFailedView is shown when the catalog could not be loaded.
type LoadFailedView struct {
	Reason string
}

// EmptyView is shown when a query matched nothing.
type EmptyView struct{}

// TooManyView asks the user to narrow the query.
type TooManyView struct {
	Count int
}

// ListEntry is one selectable entry of a ListView.
type ListEntry struct {
	Name    string
	FlagURL string
}

// ListView lists a handful of matches.
type ListView struct {
	Entries []ListEntry
}

// SingleView shows every detail of one country plus its weather panel.
type SingleView struct {
	Name       string
	FlagURL    string
	Capital    string
	Population string
	Region     string
	Subregion  string
	Languages  string
	Currencies string
	Weather    WeatherPanel
}

func (IdleView) Kind() Kind       { return KindIdle }
func (LoadingView) Kind() Kind    { return KindLoading }
func (LoadFailedView) Kind() Kind { return KindLoadFailed }
func (EmptyView) Kind() Kind      { return KindEmpty }
func (TooManyView) Kind() Kind    { return KindTooMany }
func (ListView) Kind() Kind       { return KindList }
func (*SingleView) Kind() Kind    { return KindSingle }

// WeatherState is the state of the weather panel.
type WeatherState int

const (
	WeatherLoading WeatherState = iota
	WeatherReady
	WeatherLookupFailed
	WeatherConnectionFailed
	WeatherNoCapital
	WeatherDisabled
)

func (s WeatherState) String() string {
	switch s {
	case WeatherLoading:
		return "loading"
	case WeatherReady:
		return "ready"
	case WeatherLookupFailed:
		return "lookup_failed"
	case WeatherConnectionFailed:
		return "connection_failed"
	case WeatherNoCapital:
		return "no_capital"
	case WeatherDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// WeatherPanel is the weather sub-region of a SingleView.
type WeatherPanel struct {
	State       WeatherState
	Capital     string
	Temperature int
	FeelsLike   int
	Description string
	Humidity    int
	IconURL     string
}

// Idle builds the no-query view.
func Idle() View { return IdleView{} }

// Loading builds the catalog-loading view.
func Loading(searching bool) View { return LoadingView{Searching: searching} }

// LoadFailed builds the catalog-failure view.
func LoadFailed(err error) View {
	reason := "unknown error"
	var loadErr *catalog.LoadError
	switch {
	case errors.As(err, &loadErr) && loadErr.Err != nil:
		reason = loadErr.Err.Error()
	case err != nil:
		reason = err.Error()
	}
	return LoadFailedView{Reason: reason}
}

// Empty builds the no-match view.
func Empty() View { return EmptyView{} }

// TooMany builds the narrow-your-query view.
func TooMany(count int) View { return TooManyView{Count: count} }

// List builds one entry per country, in the given order.
func List(countries []catalog.Country) View {
	entries := make([]ListEntry, len(countries))
	for i, c := range countries {
		entries[i] = ListEntry{Name: c.CommonName, FlagURL: c.FlagURL}
	}
	return ListView{Entries: entries}
}

// Single builds the detail view of one country. The weather panel starts
// loading when a lookup will follow, and settles immediately otherwise.
func Single(c catalog.Country, f *Formatter, weatherEnabled bool) *SingleView {
	if f == nil {
		f = DefaultFormatter()
	}
	v := &SingleView{
		Name:       c.CommonName,
		FlagURL:    c.FlagURL,
		Capital:    orDefault(c.Capital, NoCapital),
		Population: f.Population(c.Population),
		Region:     orDefault(c.Region, NotAvailable),
		Subregion:  orDefault(c.Subregion, NotAvailable),
		Languages:  JoinLanguages(c.Languages),
		Currencies: JoinCurrencies(c.Currencies),
		Weather:    WeatherPanel{Capital: c.Capital},
	}
	switch {
	case !c.HasCapital():
		v.Weather.State = WeatherNoCapital
	case !weatherEnabled:
		v.Weather.State = WeatherDisabled
	default:
		v.Weather.State = WeatherLoading
	}
	return v
}

// PatchWeather applies a lookup outcome to the weather panel only.
func (v *SingleView) PatchWeather(report weather.Report, err error) {
	panel := WeatherPanel{Capital: v.Weather.Capital}

	var connErr *weather.ConnectionError
	switch {
	case err == nil:
		panel.State = WeatherReady
		panel.Temperature = int(math.Round(report.Temperature))
		panel.FeelsLike = int(math.Round(report.FeelsLike))
		panel.Description = report.Description
		panel.Humidity = report.Humidity
		panel.IconURL = report.IconURL()
	case errors.Is(err, weather.ErrDisabled):
		panel.State = WeatherDisabled
	case errors.As(err, &connErr):
		panel.State = WeatherConnectionFailed
	default:
		panel.State = WeatherLookupFailed
	}
	v.Weather = panel
}

// JoinLanguages joins language names in source order.
func JoinLanguages(languages []string) string {
	if len(languages) == 0 {
		return NotAvailable
	}
	return strings.Join(languages, ", ")
}

// JoinCurrencies renders currencies as "Name (Symbol)" in source order.
func JoinCurrencies(currencies []catalog.Currency) string {
	if len(currencies) == 0 {
		return NotAvailable
	}
	parts := make([]string, len(currencies))
	for i, c := range currencies {
		parts[i] = c.Name + " (" + c.Symbol + ")"
	}
	return strings.Join(parts, ", ")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
