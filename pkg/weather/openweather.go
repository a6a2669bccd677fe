package weather

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultBaseURL is the OpenWeather current-weather endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// OpenWeather queries the OpenWeather current-weather API by city name.
type OpenWeather struct {
	APIKey  string
	BaseURL string
	Units   string
	Lang    string
	Client  *http.Client
}

// NewOpenWeather creates a client. Empty fields fall back to metric units,
// Spanish descriptions and the public endpoint.
func NewOpenWeather(apiKey, baseURL, units, lang string, timeout time.Duration) *OpenWeather {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if units == "" {
		units = "metric"
	}
	if lang == "" {
		lang = "es"
	}
	return &OpenWeather{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Units:   units,
		Lang:    lang,
		Client:  &http.Client{Timeout: timeout},
	}
}

type owmResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
}

// Current implements Client.
func (o *OpenWeather) Current(ctx context.Context, location string) (Report, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return Report{}, ErrNoLocation
	}

	q := url.Values{}
	q.Set("q", location)
	q.Set("appid", o.APIKey)
	q.Set("units", o.Units)
	q.Set("lang", o.Lang)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Report{}, &ConnectionError{Location: location, Err: err}
	}

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Debugf("Weather request for %s failed: %v", location, err)
		return Report{}, &ConnectionError{Location: location, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Debugf("Weather lookup for %s returned HTTP %d", location, resp.StatusCode)
		return Report{}, &LookupError{Location: location, Status: resp.StatusCode}
	}

	var body owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Report{}, &LookupError{Location: location, Status: resp.StatusCode, Err: err}
	}
	if len(body.Weather) == 0 {
		return Report{}, &LookupError{Location: location, Status: resp.StatusCode, Err: errors.New("no weather conditions in response")}
	}

	return Report{
		Location:    location,
		Temperature: body.Main.Temp,
		FeelsLike:   body.Main.FeelsLike,
		Description: body.Weather[0].Description,
		Icon:        body.Weather[0].Icon,
		Humidity:    body.Main.Humidity,
	}, nil
}
