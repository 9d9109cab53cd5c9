package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorOn     = lipgloss.AdaptiveColor{Light: "#2e7d32", Dark: "#66bb6a"}
	colorOff    = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#9e9e9e"}
	colorAlarm  = lipgloss.AdaptiveColor{Light: "#c62828", Dark: "#ef5350"}
	colorInfo   = lipgloss.AdaptiveColor{Light: "#0277bd", Dark: "#4fc3f7"}
	colorWarn   = lipgloss.AdaptiveColor{Light: "#e65100", Dark: "#ffa726"}
	colorBorder = lipgloss.AdaptiveColor{Light: "#1565c0", Dark: "#42a5f5"}
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorBorder)
	styleSection = lipgloss.NewStyle().Bold(true).Underline(true)
	styleKey     = lipgloss.NewStyle().Foreground(colorInfo)
	styleDim     = lipgloss.NewStyle().Faint(true)
	styleOn      = lipgloss.NewStyle().Foreground(colorOn).Bold(true)
	styleOff     = lipgloss.NewStyle().Foreground(colorOff)
	styleAlarm   = lipgloss.NewStyle().Foreground(colorAlarm).Bold(true)
	styleWarn    = lipgloss.NewStyle().Foreground(colorWarn)
	styleHeld    = lipgloss.NewStyle().Reverse(true).Bold(true)

	styleModal = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorAlarm).
			Padding(1, 2)
)

// classStyle maps the render classes the panel carries to terminal styles.
func classStyle(class string) lipgloss.Style {
	switch {
	case strings.Contains(class, "status-alarm"), strings.Contains(class, "log-status-error"):
		return styleAlarm
	case strings.Contains(class, "status-on"), strings.Contains(class, "log-status-success"):
		return styleOn
	case strings.Contains(class, "status-off"):
		return styleOff
	case strings.Contains(class, "log-status-pending"):
		return styleWarn
	default:
		return lipgloss.NewStyle()
	}
}
