package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles groups the lipgloss styles used by the Renderer.
type Styles struct {
	Title    lipgloss.Style
	Message  lipgloss.Style
	Hint     lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Entry    lipgloss.Style
	Selected lipgloss.Style
	Link     lipgloss.Style
	Card     lipgloss.Style
	Weather  lipgloss.Style
	Warning  lipgloss.Style
}

// DefaultStyles returns the coloured styles used by the TUI.
func DefaultStyles() Styles {
	accent := lipgloss.AdaptiveColor{Light: "#575279", Dark: "#818cf8"}
	muted := lipgloss.AdaptiveColor{Light: "#797593", Dark: "#908caa"}
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		Message:  lipgloss.NewStyle().Bold(true),
		Hint:     lipgloss.NewStyle().Foreground(muted),
		Label:    lipgloss.NewStyle().Foreground(muted).Width(12),
		Value:    lipgloss.NewStyle(),
		Entry:    lipgloss.NewStyle().PaddingLeft(2),
		Selected: lipgloss.NewStyle().PaddingLeft(2).Bold(true).Foreground(accent),
		Link:     lipgloss.NewStyle().Italic(true).Foreground(muted),
		Card:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(0, 1),
		Weather:  lipgloss.NewStyle().MarginTop(1),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#b4637a", Dark: "#eb6f92"}),
	}
}

// PlainStyles returns unstyled text, for logs, the line CLI and tests.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Title:    plain,
		Message:  plain,
		Hint:     plain,
		Label:    plain.Width(12),
		Value:    plain,
		Entry:    plain.PaddingLeft(2),
		Selected: plain.PaddingLeft(2),
		Link:     plain,
		Card:     plain,
		Weather:  plain.MarginTop(1),
		Warning:  plain,
	}
}

// Renderer draws views as terminal text.
type Renderer struct {
	styles Styles
}

// NewRenderer creates a renderer with the given styles.
func NewRenderer(styles Styles) *Renderer {
	return &Renderer{styles: styles}
}

// Render draws v. cursor highlights a ListView entry; pass -1 for none.
func (r *Renderer) Render(v View, cursor int) string {
	s := r.styles
	switch v := v.(type) {
	case nil, IdleView:
		return ""
	case LoadingView:
		if v.Searching {
			return r.message("⏳", "Still loading...", "Wait a second while the country list downloads.")
		}
		return r.message("", "Loading country database...", "Fetching information about the countries of the world")
	case LoadFailedView:
		return r.message("⚠️", "Connection error",
			fmt.Sprintf("Could not load the countries (%s). Check your connection and try again.", v.Reason))
	case EmptyView:
		return r.message("🔍", "No countries found", "Try another name or check the spelling")
	case TooManyView:
		return r.message("🌍", fmt.Sprintf("Too many results (%d countries)", v.Count), "Be more specific in your search")
	case ListView:
		var sb strings.Builder
		for i, e := range v.Entries {
			style := s.Entry
			marker := "  "
			if i == cursor {
				style = s.Selected
				marker = "> "
			}
			sb.WriteString(style.Render(marker + e.Name))
			if e.FlagURL != "" {
				sb.WriteString("  ")
				sb.WriteString(s.Link.Render(e.FlagURL))
			}
			sb.WriteString("\n")
		}
		return strings.TrimRight(sb.String(), "\n")
	case *SingleView:
		return r.single(v)
	default:
		return ""
	}
}

// RenderWeather draws only the weather panel.
func (r *Renderer) RenderWeather(p WeatherPanel) string {
	s := r.styles
	switch p.State {
	case WeatherLoading:
		return s.Hint.Render("Loading weather...")
	case WeatherReady:
		lines := []string{
			s.Hint.Render(fmt.Sprintf("Current weather in %s", p.Capital)),
			s.Message.Render(fmt.Sprintf("%d°C", p.Temperature)),
			fmt.Sprintf("%s · Feels like %d°C · Humidity %d%%", p.Description, p.FeelsLike, p.Humidity),
		}
		if p.IconURL != "" {
			lines = append(lines, s.Link.Render(p.IconURL))
		}
		return strings.Join(lines, "\n")
	case WeatherLookupFailed:
		return s.Warning.Render(fmt.Sprintf("⚠️ Could not get the weather for %s", p.Capital))
	case WeatherConnectionFailed:
		return s.Warning.Render("⚠️ Connection error with the weather service")
	case WeatherNoCapital:
		return s.Hint.Render("This country has no registered capital")
	case WeatherDisabled:
		return s.Hint.Render("Weather lookups are disabled (no API key configured)")
	default:
		return ""
	}
}

func (r *Renderer) single(v *SingleView) string {
	s := r.styles
	rows := [][2]string{
		{"Capital", v.Capital},
		{"Population", v.Population},
		{"Region", v.Region},
		{"Subregion", v.Subregion},
		{"Languages", v.Languages},
		{"Currency", v.Currencies},
	}

	var sb strings.Builder
	sb.WriteString(s.Title.Render(v.Name))
	sb.WriteString("\n")
	if v.FlagURL != "" {
		sb.WriteString(s.Link.Render(v.FlagURL))
		sb.WriteString("\n")
	}
	for _, row := range rows {
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, s.Label.Render(row[0]), s.Value.Render(row[1])))
		sb.WriteString("\n")
	}
	sb.WriteString(s.Weather.Render(r.RenderWeather(v.Weather)))
	return s.Card.Render(sb.String())
}

func (r *Renderer) message(icon, title, body string) string {
	s := r.styles
	head := title
	if icon != "" {
		head = icon + " " + title
	}
	return s.Message.Render(head) + "\n" + s.Hint.Render(body)
}
