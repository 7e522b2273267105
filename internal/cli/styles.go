package cli

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"
)

var (
	colorXP      = lipgloss.Color("#10B981")
	colorWarn    = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B6B6B")
	colorHeading = lipgloss.Color("#A78BFA")

	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorHeading)
	xpStyle      = lipgloss.NewStyle().Bold(true).Foreground(colorXP)
	warnStyle    = lipgloss.NewStyle().Foreground(colorWarn)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle = lipgloss.NewStyle().Foreground(colorXP)
)

const ruleWidth = 50

func rule() string {
	return mutedStyle.Render(strings.Repeat("─", ruleWidth))
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
