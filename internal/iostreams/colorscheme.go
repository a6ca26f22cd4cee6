package iostreams

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorSuccess = lipgloss.Color("#04B575")
	colorWarning = lipgloss.Color("#FFCC00")
	colorError   = lipgloss.Color("#FF5F87")
	colorInfo    = lipgloss.Color("#87CEEB")
	colorMuted   = lipgloss.Color("#626262")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	boldStyle    = lipgloss.NewStyle().Bold(true)
)

// ColorScheme formats text for the terminal.
// When colors are disabled, methods return the input string unmodified.
type ColorScheme struct {
	enabled bool
}

// NewColorScheme creates a new ColorScheme.
func NewColorScheme(enabled bool) *ColorScheme {
	return &ColorScheme{enabled: enabled}
}

// Enabled returns whether colors are enabled.
func (cs *ColorScheme) Enabled() bool {
	return cs.enabled
}

func (cs *ColorScheme) render(style lipgloss.Style, s string) string {
	if !cs.enabled {
		return s
	}
	return style.Render(s)
}

// Red returns the string in the error color.
func (cs *ColorScheme) Red(s string) string { return cs.render(errorStyle, s) }

// Yellow returns the string in the warning color.
func (cs *ColorScheme) Yellow(s string) string { return cs.render(warningStyle, s) }

// Green returns the string in the success color.
func (cs *ColorScheme) Green(s string) string { return cs.render(successStyle, s) }

// Cyan returns the string in the info color.
func (cs *ColorScheme) Cyan(s string) string { return cs.render(infoStyle, s) }

// Muted returns the string in gray.
func (cs *ColorScheme) Muted(s string) string { return cs.render(mutedStyle, s) }

// Bold returns the string in bold.
func (cs *ColorScheme) Bold(s string) string { return cs.render(boldStyle, s) }

// Boldf returns a formatted string in bold.
func (cs *ColorScheme) Boldf(format string, a ...any) string {
	return cs.Bold(fmt.Sprintf(format, a...))
}

// SuccessIcon returns a green check, or [ok] without colors.
func (cs *ColorScheme) SuccessIcon() string {
	if cs.enabled {
		return cs.Green("✓")
	}
	return "[ok]"
}

// WarningIcon returns a yellow bang, or [warn] without colors.
func (cs *ColorScheme) WarningIcon() string {
	if cs.enabled {
		return cs.Yellow("!")
	}
	return "[warn]"
}

// FailureIcon returns a red cross, or [error] without colors.
func (cs *ColorScheme) FailureIcon() string {
	if cs.enabled {
		return cs.Red("✗")
	}
	return "[error]"
}

// InfoIcon returns a cyan info mark, or [info] without colors.
func (cs *ColorScheme) InfoIcon() string {
	if cs.enabled {
		return cs.Cyan("ℹ")
	}
	return "[info]"
}
