/*
Package server implements msgpack IPC for country lookups.

The server reads msgpack requests from stdin and writes one msgpack response per request to stdout.
It is meant to be spawned by editors, launchers and scripts that want country data without linking Go code.

# IPC

Every message carries an ID that is echoed back in the response.
Search requests only need the query:

	{"id": "q1", "q": "spa"}

The response names the result tier and carries what that tier shows:

	{"id": "q1", "tier": "list", "c": 2, "countries": [{"n": "Spain", "f": "https://flagcdn.com/es.svg"}, ...], "t": 85}

A single match also carries the country details and, when an API key is configured, the current weather of its capital:

	{"id": "q2", "tier": "single", "c": 1, "country": {...}, "weather": {"s": "ready", "temp": 21, ...}, "t": 230512}

Other actions:

	{"id": "c1", "action": "country", "name": "Spain"}
	{"id": "h1", "action": "health"}
	{"id": "r1", "action": "reload"}

Requests are served one at a time. Weather is fetched synchronously, so a response always reflects the request that produced it.

# Message Types

SearchRequest covers every request; Action selects the operation and defaults to search.
SearchResponse answers search and country requests, HealthResponse answers health and reload.
ErrorResponse is sent for bad requests (400), unknown countries (404) and requests that arrive before the catalog is loaded (503).
*/
package server

// Actions understood by the server.
const (
	ActionSearch  = "search"
	ActionCountry = "country"
	ActionHealth  = "health"
	ActionReload  = "reload"
)

// SearchRequest - any request sent to the server
type SearchRequest struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action,omitempty"`
	Query  string `msgpack:"q,omitempty"`
	Name   string `msgpack:"name,omitempty"`
}

// CountryEntry - one entry of a list result
type CountryEntry struct {
	Name string `msgpack:"n"`
	Flag string `msgpack:"f,omitempty"`
}

// CountryDetail - display fields of a single match
type CountryDetail struct {
	Name       string `msgpack:"n"`
	Flag       string `msgpack:"f,omitempty"`
	Capital    string `msgpack:"capital"`
	Population string `msgpack:"population"`
	Region     string `msgpack:"region"`
	Subregion  string `msgpack:"subregion"`
	Languages  string `msgpack:"languages"`
	Currencies string `msgpack:"currencies"`
}

// WeatherInfo - weather panel of a single match
type WeatherInfo struct {
	Status      string `msgpack:"s"`
	Capital     string `msgpack:"capital,omitempty"`
	Temperature int    `msgpack:"temp"`
	FeelsLike   int    `msgpack:"feels"`
	Description string `msgpack:"d,omitempty"`
	Humidity    int    `msgpack:"h"`
	Icon        string `msgpack:"i,omitempty"`
}

// SearchResponse - search and country response
type SearchResponse struct {
	ID        string         `msgpack:"id"`
	Tier      string         `msgpack:"tier"`
	Count     int            `msgpack:"c"`
	Countries []CountryEntry `msgpack:"countries,omitempty"`
	Country   *CountryDetail `msgpack:"country,omitempty"`
	Weather   *WeatherInfo   `msgpack:"weather,omitempty"`
	TimeTaken int64          `msgpack:"t"`
}

// HealthResponse - health and reload response
type HealthResponse struct {
	ID        string `msgpack:"id"`
	Status    string `msgpack:"status"`
	Countries int    `msgpack:"countries"`
	Error     string `msgpack:"error,omitempty"`
}

// ErrorResponse holds basic error information for failed requests
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
