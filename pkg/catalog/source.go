package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Default restcountries endpoints. The field-limited one is tried first.
const (
	DefaultFields      = "name,flags,capital,population,region,subregion,languages,currencies,translations"
	DefaultPrimaryURL  = "https://restcountries.com/v3.1/all?fields=" + DefaultFields
	DefaultFallbackURL = "https://restcountries.com/v3.1/all"
)

// Source fetches the raw country list.
type Source interface {
	Fetch(ctx context.Context) ([]RawCountry, error)
}

// RestCountries fetches the catalog over HTTP. When the primary endpoint
// fails the fallback endpoint is tried once; both count as one logical load.
type RestCountries struct {
	PrimaryURL  string
	FallbackURL string
	Client      *http.Client
}

// NewRestCountries creates an HTTP source. Empty URLs use the defaults.
func NewRestCountries(primaryURL, fallbackURL string, timeout time.Duration) *RestCountries {
	if primaryURL == "" {
		primaryURL = DefaultPrimaryURL
	}
	if fallbackURL == "" {
		fallbackURL = DefaultFallbackURL
	}
	return &RestCountries{
		PrimaryURL:  primaryURL,
		FallbackURL: fallbackURL,
		Client:      &http.Client{Timeout: timeout},
	}
}

// Fetch implements Source.
func (r *RestCountries) Fetch(ctx context.Context) ([]RawCountry, error) {
	countries, err := r.fetch(ctx, r.PrimaryURL)
	if err == nil {
		return countries, nil
	}
	if r.FallbackURL == "" || r.FallbackURL == r.PrimaryURL || ctx.Err() != nil {
		return nil, err
	}
	log.Warnf("Primary catalog endpoint failed (%v), using fallback...", err)
	return r.fetch(ctx, r.FallbackURL)
}

func (r *RestCountries) fetch(ctx context.Context, url string) ([]RawCountry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	return decodeCountries(resp.Body)
}

// FileSource reads a restcountries-shaped JSON array from disk.
type FileSource struct {
	Path string
}

// Fetch implements Source.
func (f FileSource) Fetch(ctx context.Context) ([]RawCountry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return decodeCountries(file)
}

// StaticSource serves an in-memory list. Mostly useful for tests and demos.
type StaticSource []RawCountry

// Fetch implements Source.
func (s StaticSource) Fetch(context.Context) ([]RawCountry, error) {
	return s, nil
}

func decodeCountries(r io.Reader) ([]RawCountry, error) {
	var countries []RawCountry
	if err := json.NewDecoder(r).Decode(&countries); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated body", ErrMalformed)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return countries, nil
}
