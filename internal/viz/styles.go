package viz

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	panel  lipgloss.Style
	header lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	muted  lipgloss.Style
	track  lipgloss.Style
	good   lipgloss.Style
	warn   lipgloss.Style
	bad    lipgloss.Style
	graph  lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Text).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Border),
		label: lipgloss.NewStyle().Foreground(t.Muted).Width(10),
		value: lipgloss.NewStyle().Foreground(t.Text).Bold(true),
		muted: lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		track: lipgloss.NewStyle().Foreground(t.Track),
		good:  lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		warn:  lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		bad:   lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		graph: lipgloss.NewStyle().Foreground(t.Track).Padding(1, 0, 0, 0),
	}
}

// GradientText colours each rune of text along a line from one hex colour
// to another.
func GradientText(text string, from, to lipgloss.Color) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}

	sr, sg, sb := parseHex(string(from))
	er, eg, eb := parseHex(string(to))

	var b strings.Builder
	for i, c := range runes {
		t := 0.0
		if len(runes) > 1 {
			t = float64(i) / float64(len(runes)-1)
		}
		col := fmt.Sprintf("#%02x%02x%02x",
			lerp(sr, er, t), lerp(sg, eg, t), lerp(sb, eb, t))
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(col)).Render(string(c)))
	}
	return b.String()
}

func lerp(a, b int, t float64) int {
	return a + int(t*float64(b-a))
}

func parseHex(hex string) (r, g, b int) {
	if len(hex) != 7 || hex[0] != '#' {
		return 255, 255, 255
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return 255, 255, 255
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

// ProgressBar renders fraction in [0, 1] as a bar of width cells.
func ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// AnimatedSpinner returns one frame of a braille spinner.
func AnimatedSpinner(frame int) string {
	spinners := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return spinners[frame%len(spinners)]
}
