package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the colour scheme of the race view. Agents cycle through
// AgentColors by roster position.
type Theme struct {
	Name        string
	TitleFrom   lipgloss.Color
	TitleTo     lipgloss.Color
	Border      lipgloss.Color
	Track       lipgloss.Color
	Text        lipgloss.Color
	Muted       lipgloss.Color
	Success     lipgloss.Color
	Warning     lipgloss.Color
	Error       lipgloss.Color
	AgentColors []lipgloss.Color
}

var (
	ThemeCyberpunk = Theme{
		Name:      "cyberpunk",
		TitleFrom: lipgloss.Color("#ff00ff"),
		TitleTo:   lipgloss.Color("#00ffff"),
		Border:    lipgloss.Color("#444466"),
		Track:     lipgloss.Color("#00ffff"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#666688"),
		Success:   lipgloss.Color("#00ff88"),
		Warning:   lipgloss.Color("#ffaa00"),
		Error:     lipgloss.Color("#ff4444"),
		AgentColors: []lipgloss.Color{
			"#ff00ff", "#ffff00", "#00ff88", "#ff8800", "#66aaff", "#ff6b6b",
		},
	}

	ThemeRetroGreen = Theme{
		Name:        "retro",
		TitleFrom:   lipgloss.Color("#00ff00"),
		TitleTo:     lipgloss.Color("#88ff88"),
		Border:      lipgloss.Color("#005500"),
		Track:       lipgloss.Color("#00cc00"),
		Text:        lipgloss.Color("#00ff00"),
		Muted:       lipgloss.Color("#005500"),
		Success:     lipgloss.Color("#88ff88"),
		Warning:     lipgloss.Color("#ffff00"),
		Error:       lipgloss.Color("#ff0000"),
		AgentColors: []lipgloss.Color{"#00ff00", "#88ff88", "#ccffcc", "#00aa00"},
	}

	ThemeSunset = Theme{
		Name:      "sunset",
		TitleFrom: lipgloss.Color("#ff6b6b"),
		TitleTo:   lipgloss.Color("#feca57"),
		Border:    lipgloss.Color("#8b6b8c"),
		Track:     lipgloss.Color("#feca57"),
		Text:      lipgloss.Color("#fff5f5"),
		Muted:     lipgloss.Color("#8b6b8c"),
		Success:   lipgloss.Color("#5fd068"),
		Warning:   lipgloss.Color("#ffc048"),
		Error:     lipgloss.Color("#ff4757"),
		AgentColors: []lipgloss.Color{
			"#ff6b6b", "#feca57", "#ff9ff3", "#48dbfb", "#1dd1a1",
		},
	}

	Themes = []Theme{ThemeCyberpunk, ThemeRetroGreen, ThemeSunset}
)

// GetTheme returns the named theme, falling back to the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

// NextTheme cycles to the theme after t.
func NextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

func (t Theme) AgentColor(i int) lipgloss.Color {
	if len(t.AgentColors) == 0 {
		return t.Text
	}
	return t.AgentColors[i%len(t.AgentColors)]
}
