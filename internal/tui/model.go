// Package tui is the interactive terminal front end: a search box whose
// debounced input drives the session, and a result area drawn by the
// render package.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/bastiangx/countryserve/pkg/catalog"
	"github.com/bastiangx/countryserve/pkg/render"
	"github.com/bastiangx/countryserve/pkg/search"
	"github.com/bastiangx/countryserve/pkg/session"
	"github.com/bastiangx/countryserve/pkg/weather"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Options configures the TUI.
type Options struct {
	Load           session.Loader
	Weather        weather.Client
	WeatherEnabled bool
	WeatherTimeout time.Duration
	QuietPeriod    time.Duration
	Formatter      *render.Formatter
	// Clock replaces the debounce clock in tests.
	Clock search.Clock
}

// catalogMsg carries the outcome of a catalog load.
type catalogMsg struct {
	catalog *catalog.Catalog
	err     error
}

// queryMsg is a debounced query ready to evaluate.
type queryMsg string

// weatherMsg carries a weather outcome for the view of generation gen.
type weatherMsg struct {
	gen    uint64
	report weather.Report
	err    error
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#797593", Dark: "#6e6a86"}).MarginTop(1)
	resultStyle = lipgloss.NewStyle().MarginTop(1)
)

// Model is the bubbletea model of the country search.
type Model struct {
	session        *session.Session
	load           session.Loader
	weather        weather.Client
	weatherTimeout time.Duration
	queries        chan string
	input          textinput.Model
	spinner        spinner.Model
	renderer       *render.Renderer
	cursor         int
	width          int
}

// New builds the model. The catalog load starts in Init.
func New(opts Options) Model {
	queries := make(chan string, 1)
	sess := session.New(session.Options{
		Formatter:      opts.Formatter,
		WeatherEnabled: opts.WeatherEnabled,
		QuietPeriod:    opts.QuietPeriod,
		Clock:          opts.Clock,
		OnQuery:        func(raw string) { offer(queries, raw) },
	})

	client := opts.Weather
	if client == nil {
		client = weather.Disabled{}
	}
	timeout := opts.WeatherTimeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}

	ti := textinput.New()
	ti.Placeholder = "Search for a country (e.g. spain, alemania)"
	ti.CharLimit = 60
	ti.Prompt = "🔍 "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		session:        sess,
		load:           opts.Load,
		weather:        client,
		weatherTimeout: timeout,
		queries:        queries,
		input:          ti,
		spinner:        sp,
		renderer:       render.NewRenderer(render.DefaultStyles()),
	}
}

// offer replaces any unread query with raw. The channel holds at most the
// latest debounced value.
func offer(queries chan string, raw string) {
	for {
		select {
		case queries <- raw:
			return
		default:
			select {
			case <-queries:
			default:
			}
		}
	}
}

// drain discards a fired query nobody has read yet.
func drain(queries chan string) {
	select {
	case <-queries:
	default:
	}
}

// Session exposes the underlying session.
func (m Model) Session() *session.Session { return m.session }

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.startLoad(), m.spinner.Tick, textinput.Blink, m.waitForQuery())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-6, 20)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case catalogMsg:
		if msg.err != nil {
			m.session.SetLoadError(msg.err)
			return m, nil
		}
		m.session.SetCatalog(msg.catalog)
		// a search typed while loading runs as soon as the data is there
		if strings.TrimSpace(m.input.Value()) != "" {
			cmd := m.evaluate(m.input.Value())
			return m, cmd
		}
		return m, nil

	case queryMsg:
		// the input moved on (clear, selection) after the timer fired
		if string(msg) != m.input.Value() {
			log.Debugf("Dropping outdated query %q", string(msg))
			return m, m.waitForQuery()
		}
		cmd := m.evaluate(string(msg))
		return m, tea.Batch(cmd, m.waitForQuery())

	case weatherMsg:
		m.session.ApplyWeather(msg.gen, msg.report, msg.err)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.session.Close()
		return m, tea.Quit

	case "esc", "ctrl+l":
		m.input.SetValue("")
		m.cursor = 0
		m.session.Clear()
		drain(m.queries)
		return m, nil

	case "ctrl+r":
		if m.session.Loaded() || m.session.Loading() {
			return m, nil
		}
		return m, m.startLoad()

	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down":
		if list, ok := m.session.View().(render.ListView); ok && m.cursor < len(list.Entries)-1 {
			m.cursor++
		}
		return m, nil

	case "enter":
		if list, ok := m.session.View().(render.ListView); ok && m.cursor < len(list.Entries) {
			name := list.Entries[m.cursor].Name
			m.input.SetValue(name)
			m.input.CursorEnd()
			m.cursor = 0
			_, req := m.session.Select(name)
			drain(m.queries)
			return m, m.fetchWeather(req)
		}
		m.session.Debouncer().Cancel()
		drain(m.queries)
		cmd := m.evaluate(m.input.Value())
		return m, cmd
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.session.Input(m.input.Value())
	}
	return m, cmd
}

// evaluate runs a query now and returns the weather command it needs.
func (m *Model) evaluate(raw string) tea.Cmd {
	m.cursor = 0
	_, req := m.session.Evaluate(raw)
	return m.fetchWeather(req)
}

func (m Model) startLoad() tea.Cmd {
	if m.load == nil {
		return nil
	}
	m.session.BeginLoad()
	load := m.load
	return func() tea.Msg {
		c, err := load(context.Background())
		return catalogMsg{catalog: c, err: err}
	}
}

func (m Model) fetchWeather(req *session.WeatherRequest) tea.Cmd {
	if req == nil {
		return nil
	}
	client, timeout := m.weather, m.weatherTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		report, err := client.Current(ctx, req.Capital)
		if err != nil {
			log.Debugf("Weather lookup for %s failed: %v", req.Capital, err)
		}
		return weatherMsg{gen: req.Generation, report: report, err: err}
	}
}

func (m Model) waitForQuery() tea.Cmd {
	queries := m.queries
	return func() tea.Msg {
		return queryMsg(<-queries)
	}
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("🌍 Country search"))
	sb.WriteString("\n")
	sb.WriteString(m.input.View())

	view := m.session.View()
	body := m.renderer.Render(view, m.cursor)
	if _, loading := view.(render.LoadingView); loading && m.session.Loading() {
		body = m.spinner.View() + " " + body
	}
	if body != "" {
		sb.WriteString("\n")
		sb.WriteString(resultStyle.Render(body))
	}

	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render(m.help(view)))
	return sb.String()
}

func (m Model) help(view render.View) string {
	parts := []string{"esc clear"}
	if _, ok := view.(render.ListView); ok {
		parts = append(parts, "↑/↓ move", "enter select")
	}
	if m.session.LoadErr() != nil && !m.session.Loading() {
		parts = append(parts, "ctrl+r retry")
	}
	parts = append(parts, "ctrl+c quit")
	return strings.Join(parts, " · ")
}

// Run starts the TUI on the alternate screen and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	defer m.session.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
