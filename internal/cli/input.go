// Package cli handles line based country lookups, mainly for debugging and scripting
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bastiangx/countryserve/internal/utils"
	"github.com/bastiangx/countryserve/pkg/render"
	"github.com/bastiangx/countryserve/pkg/session"
	"github.com/bastiangx/countryserve/pkg/weather"
	"github.com/charmbracelet/log"
)

// Commands understood besides plain queries.
const (
	cmdReload = ":reload"
	cmdQuit   = ":q"
)

// InputHandler reads one query per line and prints the resulting view.
// Every line is a finished query, so the debounce delay is skipped. When a
// list is shown, typing an entry's number selects it.
type InputHandler struct {
	session        *session.Session
	load           session.Loader
	weather        weather.Client
	weatherTimeout time.Duration
	renderer       *render.Renderer
	in             io.Reader
	out            io.Writer
	requestCount   int
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(sess *session.Session, load session.Loader, client weather.Client, weatherTimeout time.Duration) *InputHandler {
	if client == nil {
		client = weather.Disabled{}
	}
	return &InputHandler{
		session:        sess,
		load:           load,
		weather:        client,
		weatherTimeout: weatherTimeout,
		renderer:       render.NewRenderer(render.PlainStyles()),
		in:             os.Stdin,
		out:            os.Stdout,
	}
}

// SetIO replaces stdin/stdout.
func (h *InputHandler) SetIO(in io.Reader, out io.Writer) {
	h.in = in
	h.out = out
}

// Start loads the catalog, then loops over input lines until EOF, :q or
// ctx is cancelled.
func (h *InputHandler) Start(ctx context.Context) error {
	fmt.Fprintln(h.out, "CountryServe CLI")
	h.reload(ctx)
	fmt.Fprintln(h.out, "type a country name and press Enter (empty line clears, :reload retries, :q exits):")

	scanner := bufio.NewScanner(h.in)
	for {
		fmt.Fprint(h.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(h.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == cmdQuit {
			return nil
		}
		h.handleInput(ctx, line)
	}
}

// handleInput processes a single line.
func (h *InputHandler) handleInput(ctx context.Context, line string) {
	h.requestCount++

	switch {
	case line == "":
		h.show(h.session.Clear())
		return
	case line == cmdReload:
		h.reload(ctx)
		return
	case !utils.IsValidQuery(line):
		log.Errorf("Invalid query: %q", line)
		return
	}

	if list, ok := h.session.View().(render.ListView); ok {
		if i, ok := utils.ParseIndex(line, len(list.Entries)); ok {
			h.run(ctx, func() (render.View, *session.WeatherRequest) {
				return h.session.Select(list.Entries[i].Name)
			})
			return
		}
	}
	h.run(ctx, func() (render.View, *session.WeatherRequest) {
		return h.session.Evaluate(line)
	})
}

func (h *InputHandler) run(ctx context.Context, eval func() (render.View, *session.WeatherRequest)) {
	start := time.Now()
	view, wreq := eval()
	if wreq != nil {
		h.show(view)
		h.resolveWeather(ctx, wreq)
		fmt.Fprintln(h.out, h.renderer.RenderWeather(view.(*render.SingleView).Weather))
	} else {
		h.show(view)
	}
	log.Debugf("Took [ %v ] for query '%s'", time.Since(start), h.session.Query())
}

func (h *InputHandler) resolveWeather(ctx context.Context, wreq *session.WeatherRequest) {
	if h.weatherTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.weatherTimeout)
		defer cancel()
	}
	report, err := h.weather.Current(ctx, wreq.Capital)
	if err != nil && !errors.Is(err, weather.ErrDisabled) {
		log.Warnf("Weather lookup for %s failed: %v", wreq.Capital, err)
	}
	h.session.ApplyWeather(wreq.Generation, report, err)
}

func (h *InputHandler) reload(ctx context.Context) {
	if h.load == nil {
		return
	}
	h.show(h.session.BeginLoad())
	c, err := h.load(ctx)
	if err != nil {
		h.show(h.session.SetLoadError(err))
		return
	}
	h.session.SetCatalog(c)
	fmt.Fprintf(h.out, "%d countries loaded\n", c.Len())
}

func (h *InputHandler) show(v render.View) {
	list, isList := v.(render.ListView)
	out := h.renderer.Render(v, -1)
	if isList {
		var sb strings.Builder
		for i, e := range list.Entries {
			fmt.Fprintf(&sb, "%2d. %s", i+1, e.Name)
			if e.FlagURL != "" {
				fmt.Fprintf(&sb, "  %s", e.FlagURL)
			}
			sb.WriteString("\n")
		}
		out = strings.TrimRight(sb.String(), "\n")
	}
	if out != "" {
		fmt.Fprintln(h.out, out)
	}
}
