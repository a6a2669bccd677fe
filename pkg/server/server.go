package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bastiangx/countryserve/internal/logger"
	"github.com/bastiangx/countryserve/internal/utils"
	"github.com/bastiangx/countryserve/pkg/render"
	"github.com/bastiangx/countryserve/pkg/search"
	"github.com/bastiangx/countryserve/pkg/session"
	"github.com/bastiangx/countryserve/pkg/weather"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

const defaultWeatherTimeout = 8 * time.Second

// Server handles the IPC for country lookups
type Server struct {
	session        *session.Session
	load           session.Loader
	weather        weather.Client
	weatherTimeout time.Duration
	reader         io.Reader
	writer         io.Writer
	encoder        *msgpack.Encoder
	log            *log.Logger
	requestCount   int
}

// Option configures a Server.
type Option func(*Server)

// WithStreams replaces stdin/stdout.
func WithStreams(r io.Reader, w io.Writer) Option {
	return func(s *Server) {
		s.reader = r
		s.writer = w
	}
}

// WithWeatherTimeout bounds each weather lookup.
func WithWeatherTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.weatherTimeout = d
		}
	}
}

// NewServer creates a server over stdin/stdout. load may be nil when the
// session already holds a catalog.
func NewServer(sess *session.Session, load session.Loader, client weather.Client, opts ...Option) *Server {
	if client == nil {
		client = weather.Disabled{}
	}
	s := &Server{
		session:        sess,
		load:           load,
		weather:        client,
		weatherTimeout: defaultWeatherTimeout,
		reader:         os.Stdin,
		writer:         os.Stdout,
		log:            logger.New("ipc"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.encoder = msgpack.NewEncoder(s.writer)
	return s
}

// Start loads the catalog if needed, then serves requests until the input
// ends or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.log.Debug("Starting server")
	if !s.session.Loaded() {
		s.reload(ctx)
	}

	decoder := msgpack.NewDecoder(bufio.NewReader(s.reader))
	for {
		if ctx.Err() != nil {
			return nil
		}
		raw, err := decoder.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Debugf("Input closed after %d requests", s.requestCount)
				return nil
			}
			s.log.Errorf("Reading request: %v", err)
			return err
		}

		var req SearchRequest
		if err := msgpack.Unmarshal(raw, &req); err != nil {
			s.log.Errorf("Unmarshaling request: %v", err)
			s.sendError("", "Invalid msgpack request", 400)
			continue
		}
		s.requestCount++
		s.handleRequest(ctx, req)
	}
}

// handleRequest dispatches on the request action
func (s *Server) handleRequest(ctx context.Context, req SearchRequest) {
	switch req.Action {
	case "", ActionSearch:
		s.handleSearch(ctx, req)
	case ActionCountry:
		s.handleCountry(ctx, req)
	case ActionHealth:
		s.send(s.health(req.ID))
	case ActionReload:
		s.reload(ctx)
		s.send(s.health(req.ID))
	default:
		s.sendError(req.ID, fmt.Sprintf("Unknown action: %s", req.Action), 400)
	}
}

func (s *Server) handleSearch(ctx context.Context, req SearchRequest) {
	if strings.TrimSpace(req.Query) == "" {
		s.sendError(req.ID, "Missing 'q' parameter", 400)
		return
	}
	if !utils.IsValidQuery(req.Query) {
		s.sendError(req.ID, fmt.Sprintf("Invalid query (control characters or longer than %d)", utils.MaxQueryLength), 400)
		return
	}
	if !s.session.Loaded() {
		s.sendError(req.ID, s.unavailable(), 503)
		return
	}

	start := time.Now()
	view, wreq := s.session.Evaluate(req.Query)
	s.resolveWeather(ctx, wreq)
	s.send(buildResponse(req.ID, view, time.Since(start)))
}

func (s *Server) handleCountry(ctx context.Context, req SearchRequest) {
	if req.Name == "" {
		s.sendError(req.ID, "Missing 'name' parameter", 400)
		return
	}
	if !s.session.Loaded() {
		s.sendError(req.ID, s.unavailable(), 503)
		return
	}
	if _, ok := s.session.Catalog().Lookup(req.Name); !ok {
		s.sendError(req.ID, fmt.Sprintf("Unknown country: %s", req.Name), 404)
		return
	}

	start := time.Now()
	view, wreq := s.session.Select(req.Name)
	s.resolveWeather(ctx, wreq)
	s.send(buildResponse(req.ID, view, time.Since(start)))
}

// resolveWeather runs the lookup a single match asked for and patches the
// result into the session.
func (s *Server) resolveWeather(ctx context.Context, wreq *session.WeatherRequest) {
	if wreq == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.weatherTimeout)
	defer cancel()

	report, err := s.weather.Current(ctx, wreq.Capital)
	if err != nil && !errors.Is(err, weather.ErrDisabled) {
		s.log.Warnf("Weather lookup for %s failed: %v", wreq.Capital, err)
	}
	s.session.ApplyWeather(wreq.Generation, report, err)
}

func (s *Server) reload(ctx context.Context) {
	if s.load == nil {
		return
	}
	s.session.BeginLoad()
	c, err := s.load(ctx)
	if err != nil {
		s.session.SetLoadError(err)
		return
	}
	s.session.SetCatalog(c)
	s.log.Debugf("Catalog loaded: %d countries", c.Len())
}

func (s *Server) health(id string) HealthResponse {
	resp := HealthResponse{ID: id, Countries: s.session.Catalog().Len()}
	switch {
	case s.session.Loaded():
		resp.Status = "ok"
	case s.session.Loading():
		resp.Status = "loading"
	default:
		resp.Status = "error"
		if err := s.session.LoadErr(); err != nil {
			resp.Error = err.Error()
		}
	}
	return resp
}

func (s *Server) unavailable() string {
	if err := s.session.LoadErr(); err != nil {
		return fmt.Sprintf("Catalog not loaded: %v", err)
	}
	return "Catalog is still loading"
}

// buildResponse converts a tier view into its wire form.
func buildResponse(id string, view render.View, elapsed time.Duration) SearchResponse {
	resp := SearchResponse{ID: id, TimeTaken: elapsed.Microseconds()}
	switch v := view.(type) {
	case render.TooManyView:
		resp.Tier = search.TierMany.String()
		resp.Count = v.Count
	case render.ListView:
		resp.Tier = search.TierList.String()
		resp.Count = len(v.Entries)
		resp.Countries = make([]CountryEntry, len(v.Entries))
		for i, e := range v.Entries {
			resp.Countries[i] = CountryEntry{Name: e.Name, Flag: e.FlagURL}
		}
	case *render.SingleView:
		resp.Tier = search.TierSingle.String()
		resp.Count = 1
		resp.Country = &CountryDetail{
			Name:       v.Name,
			Flag:       v.FlagURL,
			Capital:    v.Capital,
			Population: v.Population,
			Region:     v.Region,
			Subregion:  v.Subregion,
			Languages:  v.Languages,
			Currencies: v.Currencies,
		}
		resp.Weather = &WeatherInfo{
			Status:      v.Weather.State.String(),
			Capital:     v.Weather.Capital,
			Temperature: v.Weather.Temperature,
			FeelsLike:   v.Weather.FeelsLike,
			Description: v.Weather.Description,
			Humidity:    v.Weather.Humidity,
			Icon:        v.Weather.IconURL,
		}
	default:
		resp.Tier = search.TierEmpty.String()
	}
	return resp
}

// send writes one msgpack value to the output
func (s *Server) send(v any) {
	if err := s.encoder.Encode(v); err != nil {
		s.log.Errorf("Encoding response: %v", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) {
	s.send(ErrorResponse{ID: id, Error: message, Code: code})
}
