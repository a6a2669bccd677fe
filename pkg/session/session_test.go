package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bastiangx/countryserve/pkg/catalog"
	"github.com/bastiangx/countryserve/pkg/render"
	"github.com/bastiangx/countryserve/pkg/search"
	"github.com/bastiangx/countryserve/pkg/weather"
	"go.uber.org/goleak"
	"golang.org/x/text/language"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// manualClock runs every scheduled func when Tick passes its deadline.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	at   time.Time
	f    func()
	done bool
}

func (t *manualTimer) Stop() bool {
	active := !t.done
	t.done = true
	return active
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) search.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) Tick(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.done && !t.at.After(c.now) {
			t.done = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

func fixture() *catalog.Catalog {
	countries := []catalog.Country{
		{CommonName: "Spain", OfficialName: "Kingdom of Spain", LocalizedName: "España", Capital: "Madrid", Population: 47351567, Region: "Europe"},
		{CommonName: "Sweden", OfficialName: "Kingdom of Sweden", LocalizedName: "Suecia", Capital: "Stockholm", Region: "Europe"},
		{CommonName: "South Africa", OfficialName: "Republic of South Africa", LocalizedName: "Sudáfrica", Capital: "Pretoria", Region: "Africa"},
		{CommonName: "Antarctica", OfficialName: "Antarctica", LocalizedName: "Antártida", Region: "Antarctic"},
	}
	for i := 0; i < 12; i++ {
		countries = append(countries, catalog.Country{
			CommonName:   fmt.Sprintf("Mock Island %02d", i),
			OfficialName: fmt.Sprintf("Mock Island %02d", i),
			Capital:      fmt.Sprintf("Port %02d", i),
		})
	}
	return catalog.New(countries, catalog.WithLocale(language.English))
}

func loadedSession(t *testing.T, weatherEnabled bool) *Session {
	t.Helper()
	s := New(Options{WeatherEnabled: weatherEnabled})
	t.Cleanup(s.Close)
	s.BeginLoad()
	s.SetCatalog(fixture())
	return s
}

func TestEvaluateTiers(t *testing.T) {
	s := loadedSession(t, true)

	testCases := []struct {
		query       string
		kind        render.Kind
		description string
	}{
		{"", render.KindIdle, "Empty query"},
		{"   ", render.KindIdle, "Whitespace query"},
		{"zzz", render.KindEmpty, "No match"},
		{"mock", render.KindTooMany, "More than ten matches"},
		{"s", render.KindList, "Several matches"},
		{"SPAIN", render.KindSingle, "Exact match ignores case"},
		{"  esp ", render.KindSingle, "Localized prefix with spaces"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			v, _ := s.Evaluate(tc.query)
			if v.Kind() != tc.kind {
				t.Errorf("query %q: expected %v, got %v", tc.query, tc.kind, v.Kind())
			}
			if s.View() != v {
				t.Errorf("query %q: view not recorded on the session", tc.query)
			}
		})
	}
}

func TestSingleRequestsWeatherOnce(t *testing.T) {
	s := loadedSession(t, true)

	v, req := s.Evaluate("spain")
	if req == nil {
		t.Fatal("expected a weather request for a single match")
	}
	if req.Capital != "Madrid" {
		t.Errorf("expected capital Madrid, got %q", req.Capital)
	}
	if req.Generation != s.Generation() {
		t.Errorf("expected request generation %d, got %d", s.Generation(), req.Generation)
	}
	single := v.(*render.SingleView)
	if single.Weather.State != render.WeatherLoading {
		t.Errorf("expected loading weather panel, got %v", single.Weather.State)
	}

	for _, q := range []string{"s", "zzz", "mock", ""} {
		if _, req := s.Evaluate(q); req != nil {
			t.Errorf("query %q: unexpected weather request %+v", q, req)
		}
	}
}

func TestSingleWithoutCapitalSkipsWeather(t *testing.T) {
	s := loadedSession(t, true)

	v, req := s.Evaluate("antarctica")
	if req != nil {
		t.Errorf("expected no weather request, got %+v", req)
	}
	if v.(*render.SingleView).Weather.State != render.WeatherNoCapital {
		t.Errorf("expected no-capital panel, got %v", v.(*render.SingleView).Weather.State)
	}
}

func TestWeatherDisabledSkipsRequest(t *testing.T) {
	s := loadedSession(t, false)

	v, req := s.Evaluate("spain")
	if req != nil {
		t.Errorf("expected no weather request, got %+v", req)
	}
	if v.(*render.SingleView).Weather.State != render.WeatherDisabled {
		t.Errorf("expected disabled panel, got %v", v.(*render.SingleView).Weather.State)
	}
}

func TestStaleWeatherIsDropped(t *testing.T) {
	s := loadedSession(t, true)

	_, first := s.Evaluate("spain")
	v, second := s.Evaluate("sweden")
	if first == nil || second == nil {
		t.Fatal("expected both lookups to request weather")
	}

	madrid := weather.Report{Location: "Madrid", Temperature: 30}
	if s.ApplyWeather(first.Generation, madrid, nil) {
		t.Error("weather for Spain was applied to Sweden")
	}
	sweden := v.(*render.SingleView)
	if sweden.Weather.State != render.WeatherLoading {
		t.Errorf("stale response changed the panel to %v", sweden.Weather.State)
	}

	stockholm := weather.Report{Location: "Stockholm", Temperature: 4.6}
	if !s.ApplyWeather(second.Generation, stockholm, nil) {
		t.Fatal("expected current response to be applied")
	}
	if sweden.Weather.State != render.WeatherReady || sweden.Weather.Temperature != 5 {
		t.Errorf("expected ready panel at 5°C, got %+v", sweden.Weather)
	}

	// a second response for the same view is ignored
	if s.ApplyWeather(second.Generation, stockholm, errors.New("late")) {
		t.Error("expected settled panel to ignore a second response")
	}
}

func TestStaleWeatherFailureIsDropped(t *testing.T) {
	s := loadedSession(t, true)

	_, first := s.Evaluate("spain")
	v, second := s.Evaluate("sweden")
	if first == nil || second == nil {
		t.Fatal("expected both lookups to request weather")
	}

	failure := &weather.ConnectionError{Location: "Madrid", Err: errors.New("connection refused")}
	if s.ApplyWeather(first.Generation, weather.Report{}, failure) {
		t.Error("failed lookup for Spain was applied to Sweden")
	}
	if state := v.(*render.SingleView).Weather.State; state != render.WeatherLoading {
		t.Errorf("stale failure changed the panel to %v", state)
	}
}

func TestWeatherAfterClearIsDropped(t *testing.T) {
	s := loadedSession(t, true)

	_, req := s.Evaluate("spain")
	s.Clear()
	if s.ApplyWeather(req.Generation, weather.Report{}, nil) {
		t.Error("expected weather to be dropped after clearing")
	}
	if s.View().Kind() != render.KindIdle {
		t.Errorf("expected idle view, got %v", s.View().Kind())
	}
}

func TestWeatherErrorsPatchPanel(t *testing.T) {
	s := loadedSession(t, true)

	v, req := s.Evaluate("spain")
	err := &weather.ConnectionError{Location: "Madrid", Err: errors.New("dial tcp: timeout")}
	if !s.ApplyWeather(req.Generation, weather.Report{}, err) {
		t.Fatal("expected response to be applied")
	}
	if v.(*render.SingleView).Weather.State != render.WeatherConnectionFailed {
		t.Errorf("expected connection failure, got %v", v.(*render.SingleView).Weather.State)
	}
}

func TestSearchBeforeLoad(t *testing.T) {
	s := New(Options{WeatherEnabled: true})
	defer s.Close()

	if v := s.BeginLoad(); v.Kind() != render.KindLoading {
		t.Errorf("expected loading view, got %v", v.Kind())
	}
	v, req := s.Evaluate("spain")
	if req != nil {
		t.Errorf("unexpected weather request %+v", req)
	}
	loading, ok := v.(render.LoadingView)
	if !ok || !loading.Searching {
		t.Errorf("expected still-loading view, got %#v", v)
	}
}

func TestLoadFailureAndRetry(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	s.BeginLoad()
	loadErr := &catalog.LoadError{Reason: catalog.ReasonNetwork, Err: errors.New("HTTP 503")}
	v := s.SetLoadError(loadErr)
	if v.Kind() != render.KindLoadFailed {
		t.Fatalf("expected load failure view, got %v", v.Kind())
	}
	if s.Loaded() || !errors.Is(s.LoadErr(), loadErr) {
		t.Errorf("expected failed state, loaded=%v err=%v", s.Loaded(), s.LoadErr())
	}

	s.BeginLoad()
	if s.LoadErr() != nil || !s.Loading() {
		t.Errorf("retry should clear the previous error")
	}
	s.SetCatalog(fixture())
	if v, _ := s.Evaluate("spain"); v.Kind() != render.KindSingle {
		t.Errorf("expected single view after retry, got %v", v.Kind())
	}
}

func TestSelectBypassesDebounce(t *testing.T) {
	clock := &manualClock{now: time.Unix(0, 0)}
	var fired []string
	s := New(Options{WeatherEnabled: true, Clock: clock, OnQuery: func(raw string) { fired = append(fired, raw) }})
	defer s.Close()
	s.SetCatalog(fixture())

	s.Input("s")
	v, req := s.Select("South Africa")
	if v.Kind() != render.KindSingle || req == nil || req.Capital != "Pretoria" {
		t.Fatalf("expected South Africa with a weather request, got %v %+v", v.Kind(), req)
	}

	clock.Tick(time.Second)
	if len(fired) != 0 {
		t.Errorf("pending query should have been cancelled, fired %v", fired)
	}
}

func TestDebouncedInput(t *testing.T) {
	clock := &manualClock{now: time.Unix(0, 0)}
	var fired []string
	s := New(Options{Clock: clock, OnQuery: func(raw string) { fired = append(fired, raw) }})
	defer s.Close()
	s.SetCatalog(fixture())

	s.Input("s")
	clock.Tick(50 * time.Millisecond)
	s.Input("sp")
	clock.Tick(50 * time.Millisecond)
	s.Input("spa")

	clock.Tick(249 * time.Millisecond)
	if len(fired) != 0 {
		t.Fatalf("fired before the quiet period elapsed: %v", fired)
	}
	clock.Tick(time.Millisecond)
	if len(fired) != 1 || fired[0] != "spa" {
		t.Fatalf("expected one evaluation of %q, got %v", "spa", fired)
	}

	if v, _ := s.Evaluate(fired[0]); v.Kind() != render.KindSingle {
		t.Errorf("expected single view for %q, got %v", fired[0], v.Kind())
	}
}
