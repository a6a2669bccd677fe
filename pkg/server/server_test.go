package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bastiangx/countryserve/pkg/catalog"
	"github.com/bastiangx/countryserve/pkg/session"
	"github.com/bastiangx/countryserve/pkg/weather"
	"github.com/google/go-cmp/cmp"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/text/language"
)

type stubWeather struct {
	calls []string
	err   error
}

func (w *stubWeather) Current(_ context.Context, location string) (weather.Report, error) {
	w.calls = append(w.calls, location)
	if w.err != nil {
		return weather.Report{}, w.err
	}
	return weather.Report{Location: location, Temperature: 21.4, FeelsLike: 20.6, Description: "clear sky", Icon: "01d", Humidity: 40}, nil
}

func testCatalog() *catalog.Catalog {
	countries := []catalog.Country{
		{CommonName: "Spain", LocalizedName: "España", FlagURL: "https://flagcdn.com/es.svg", Capital: "Madrid", Population: 47351567, Region: "Europe", Languages: []string{"Spanish"}},
		{CommonName: "Sweden", LocalizedName: "Suecia", FlagURL: "https://flagcdn.com/se.svg", Capital: "Stockholm"},
		{CommonName: "Antarctica", LocalizedName: "Antártida"},
	}
	for i := 0; i < 11; i++ {
		countries = append(countries, catalog.Country{CommonName: fmt.Sprintf("Mock %02d", i), Capital: "X"})
	}
	return catalog.New(countries, catalog.WithLocale(language.English))
}

func encodeRequests(t *testing.T, reqs ...any) *bytes.Buffer {
	t.Helper()
	var in bytes.Buffer
	enc := msgpack.NewEncoder(&in)
	for _, r := range reqs {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("failed to encode request: %v", err)
		}
	}
	return &in
}

func runServer(t *testing.T, load session.Loader, client weather.Client, reqs ...any) *msgpack.Decoder {
	t.Helper()
	sess := session.New(session.Options{WeatherEnabled: true})
	t.Cleanup(sess.Close)

	in := encodeRequests(t, reqs...)
	var out bytes.Buffer
	srv := NewServer(sess, load, client, WithStreams(in, &out))
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("server returned error: %v", err)
	}
	return msgpack.NewDecoder(&out)
}

func loaded(context.Context) (*catalog.Catalog, error) {
	return testCatalog(), nil
}

func TestSearchTiers(t *testing.T) {
	client := &stubWeather{}
	dec := runServer(t, loaded, client,
		SearchRequest{ID: "1", Query: "zzz"},
		SearchRequest{ID: "2", Query: "mock"},
		SearchRequest{ID: "3", Query: "s"},
		SearchRequest{ID: "4", Query: "españa"},
	)

	testCases := []struct {
		tier  string
		count int
	}{
		{"empty", 0},
		{"many", 11},
		{"list", 2},
		{"single", 1},
	}
	for i, tc := range testCases {
		var resp SearchResponse
		if err := dec.Decode(&resp); err != nil {
			t.Fatalf("response %d: decode failed: %v", i+1, err)
		}
		if resp.ID != fmt.Sprint(i+1) || resp.Tier != tc.tier || resp.Count != tc.count {
			t.Errorf("response %d: expected %s/%d, got %+v", i+1, tc.tier, tc.count, resp)
		}
	}

	if diff := cmp.Diff([]string{"Madrid"}, client.calls); diff != "" {
		t.Errorf("unexpected weather lookups (-want +got):\n%s", diff)
	}
}

func TestSingleCarriesCountryAndWeather(t *testing.T) {
	dec := runServer(t, loaded, &stubWeather{}, SearchRequest{ID: "s", Query: "Spain"})

	var resp SearchResponse
	if err := dec.Decode(&resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if resp.Country == nil || resp.Weather == nil {
		t.Fatalf("expected country and weather, got %+v", resp)
	}
	if resp.Country.Capital != "Madrid" || resp.Country.Languages != "Spanish" {
		t.Errorf("unexpected country detail %+v", resp.Country)
	}
	want := WeatherInfo{
		Status:      "ready",
		Capital:     "Madrid",
		Temperature: 21,
		FeelsLike:   21,
		Description: "clear sky",
		Humidity:    40,
		Icon:        "https://openweathermap.org/img/wn/01d@2x.png",
	}
	if diff := cmp.Diff(want, *resp.Weather); diff != "" {
		t.Errorf("unexpected weather (-want +got):\n%s", diff)
	}
}

func TestWeatherFailureAndNoCapital(t *testing.T) {
	client := &stubWeather{err: &weather.ConnectionError{Location: "Madrid", Err: errors.New("refused")}}
	dec := runServer(t, loaded, client,
		SearchRequest{ID: "a", Query: "spain"},
		SearchRequest{ID: "b", Query: "antarctica"},
	)

	var first, second SearchResponse
	if err := dec.Decode(&first); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if err := dec.Decode(&second); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if first.Weather.Status != "connection_failed" {
		t.Errorf("expected connection_failed, got %s", first.Weather.Status)
	}
	if second.Weather.Status != "no_capital" {
		t.Errorf("expected no_capital, got %s", second.Weather.Status)
	}
	if len(client.calls) != 1 {
		t.Errorf("expected one lookup, got %v", client.calls)
	}
}

func TestCountryAction(t *testing.T) {
	dec := runServer(t, loaded, &stubWeather{},
		SearchRequest{ID: "c1", Action: ActionCountry, Name: "Sweden"},
		SearchRequest{ID: "c2", Action: ActionCountry, Name: "Atlantis"},
	)

	var found SearchResponse
	if err := dec.Decode(&found); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if found.Tier != "single" || found.Country.Name != "Sweden" {
		t.Errorf("expected Sweden, got %+v", found)
	}

	var missing ErrorResponse
	if err := dec.Decode(&missing); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if missing.ID != "c2" || missing.Code != 404 {
		t.Errorf("expected 404 for c2, got %+v", missing)
	}
}

func TestBadRequests(t *testing.T) {
	dec := runServer(t, loaded, &stubWeather{},
		SearchRequest{ID: "1"},
		SearchRequest{ID: "2", Query: "sp\x1b[A"},
		SearchRequest{ID: "3", Action: "delete"},
		"not a request",
		SearchRequest{ID: "5", Action: ActionHealth},
	)

	for _, id := range []string{"1", "2", "3", ""} {
		var resp ErrorResponse
		if err := dec.Decode(&resp); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if resp.ID != id || resp.Code != 400 {
			t.Errorf("expected 400 for %q, got %+v", id, resp)
		}
	}

	var health HealthResponse
	if err := dec.Decode(&health); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if health.Status != "ok" || health.Countries != 14 {
		t.Errorf("expected healthy server with 14 countries, got %+v", health)
	}
}

func TestUnavailableUntilReload(t *testing.T) {
	attempts := 0
	load := func(context.Context) (*catalog.Catalog, error) {
		attempts++
		if attempts == 1 {
			return nil, &catalog.LoadError{Reason: catalog.ReasonNetwork, Err: errors.New("HTTP 503")}
		}
		return testCatalog(), nil
	}

	dec := runServer(t, load, &stubWeather{},
		SearchRequest{ID: "1", Query: "spain"},
		SearchRequest{ID: "2", Action: ActionHealth},
		SearchRequest{ID: "3", Action: ActionReload},
		SearchRequest{ID: "4", Query: "sweden"},
	)

	var unavailable ErrorResponse
	if err := dec.Decode(&unavailable); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if unavailable.Code != 503 {
		t.Errorf("expected 503 before load, got %+v", unavailable)
	}

	var health HealthResponse
	if err := dec.Decode(&health); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if health.Status != "error" || health.Error == "" {
		t.Errorf("expected error health, got %+v", health)
	}

	var reloaded HealthResponse
	if err := dec.Decode(&reloaded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if reloaded.Status != "ok" {
		t.Errorf("expected ok after reload, got %+v", reloaded)
	}

	var resp SearchResponse
	if err := dec.Decode(&resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if resp.Tier != "single" {
		t.Errorf("expected single after reload, got %+v", resp)
	}
}
