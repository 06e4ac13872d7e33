package viz

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/airace/internal/config"
)

var (
	menuTitle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	menuSub    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	menuCursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	menuActive = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	menuDesc   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	menuIdle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	menuKey    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

var presetInfo = map[string]string{
	"training": "default curriculum",
	"race":     "crash and respawn",
	"sprint":   "short loop, tight timeout",
	"crowded":  "eight aircraft",
	"figure8":  "crossing course",
	"slalom":   "weaving gates",
}

// tunedParams are the settings offered on the config screen.
var tunedParams = []string{"thrust", "max_pitch", "max_roll", "smoothing_rate", "checkpoint_radius", "step_timeout"}

const (
	stateMenu = iota
	stateConfig
)

type picker struct {
	state       int
	cursor      int
	presets     []string
	cfg         *config.Config
	paramCursor int
	editing     bool
	editBuf     string
	err         string
	chosen      bool
}

func newPicker() picker {
	return picker{presets: config.ListPresets()}
}

func (m picker) Init() tea.Cmd { return nil }

func (m picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if key.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.state == stateMenu {
		return m.menuKey(key)
	}
	return m.configKey(key)
}

func (m picker) menuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter":
		m.cfg = config.GetPreset(m.presets[m.cursor])
		m.state, m.paramCursor, m.err = stateConfig, 0, ""
	}
	return m, nil
}

func (m picker) configKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			m.editing = false
			v, err := strconv.ParseFloat(m.editBuf, 64)
			if err != nil {
				m.err = err.Error()
				return m, nil
			}
			m.set(v)
		case "esc":
			m.editing = false
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			m.editBuf += msg.String()
		}
		return m, nil
	}

	name := tunedParams[m.paramCursor]
	switch msg.String() {
	case "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(tunedParams)-1 {
			m.paramCursor++
		}
	case "h", "left":
		m.set(m.cfg.GetParams()[name] * 0.9)
	case "l", "right":
		m.set(m.cfg.GetParams()[name] * 1.1)
	case "e", "enter":
		m.editing, m.editBuf = true, ""
	case "s":
		if err := m.cfg.Validate(); err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.chosen = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *picker) set(v float64) {
	if err := m.cfg.SetParam(tunedParams[m.paramCursor], v); err != nil {
		m.err = err.Error()
		return
	}
	m.err = ""
}

func (m picker) View() string {
	if m.state == stateConfig {
		return m.viewConfig()
	}
	return m.viewMenu()
}

func (m picker) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render("AIRACE") + "\n    " + menuSub.Render("pick a preset") + "\n    " + menuSub.Render("─────────────────────────") + "\n\n")
	for i, name := range m.presets {
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", menuCursor.Render("▸"), menuActive.Render(fmt.Sprintf("%-10s", name)), menuDesc.Render(presetInfo[name])))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", menuIdle.Render(fmt.Sprintf("%-10s", name)), menuIdle.Render(presetInfo[name])))
		}
	}
	b.WriteString("\n    " + menuKey.Render("j/k") + menuIdle.Render(" navigate  ") + menuKey.Render("enter") + menuIdle.Render(" select  ") + menuKey.Render("q") + menuIdle.Render(" quit") + "\n")
	return b.String()
}

func (m picker) viewConfig() string {
	var b strings.Builder
	preset := m.presets[m.cursor]
	b.WriteString("\n\n    " + menuTitle.Render(strings.ToUpper(preset)) + "\n    " + menuSub.Render(fmt.Sprintf("%s, %d agents, %s", m.cfg.Arena.Track, m.cfg.Arena.Agents, mode(m.cfg))) + "\n    " + menuSub.Render("─────────────────────────") + "\n\n")
	params := m.cfg.GetParams()
	for i, name := range tunedParams {
		val := fmt.Sprintf("%10.3f", params[name])
		if m.editing && i == m.paramCursor {
			val = fmt.Sprintf("%10s", m.editBuf+"_")
		}
		if i == m.paramCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", menuCursor.Render("▸"), menuActive.Render(fmt.Sprintf("%-18s", name)), menuDesc.Render(val)))
		} else {
			b.WriteString(fmt.Sprintf("      %s %s\n", menuIdle.Render(fmt.Sprintf("%-18s", name)), menuIdle.Render(val)))
		}
	}
	if m.err != "" {
		b.WriteString("\n    " + lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444")).Render(m.err) + "\n")
	}
	b.WriteString("\n    " + menuKey.Render("j/k") + menuIdle.Render(" select  ") + menuKey.Render("h/l") + menuIdle.Render(" adjust  ") + menuKey.Render("e") + menuIdle.Render(" edit  ") + menuKey.Render("s") + menuIdle.Render(" start  ") + menuKey.Render("esc") + menuIdle.Render(" back") + "\n")
	return b.String()
}

func mode(cfg *config.Config) string {
	if cfg.Arena.Training {
		return "training"
	}
	return "race"
}

// PickConfig shows the preset menu and returns the chosen config, or nil
// if the user quit.
func PickConfig() (*config.Config, error) {
	final, err := tea.NewProgram(newPicker(), tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}
	if p, ok := final.(picker); ok && p.chosen {
		return p.cfg, nil
	}
	return nil, nil
}
