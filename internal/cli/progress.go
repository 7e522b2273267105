package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a fixed-width CLI progress bar.
type ProgressBar struct {
	completed int64
	total     int64
	label     string
	width     int
	color     lipgloss.Color
}

// NewProgressBar creates a new progress bar with the specified total and width.
func NewProgressBar(total int64, width int) *ProgressBar {
	if width <= 0 {
		width = 15
	}
	return &ProgressBar{
		total: total,
		width: width,
		color: colorXP,
	}
}

// Update sets the current progress and label.
func (p *ProgressBar) Update(completed int64, label string) {
	p.completed = completed
	p.label = label
}

// Filled returns the number of filled cells, clamped to the width.
func (p *ProgressBar) Filled() int {
	if p.total <= 0 || p.completed <= 0 {
		return 0
	}
	if p.completed >= p.total {
		return p.width
	}
	return int(int64(p.width) * p.completed / p.total)
}

// Render returns the formatted progress bar string.
func (p *ProgressBar) Render() string {
	if p.total == 0 {
		return ""
	}

	filled := p.Filled()
	bar := strings.Repeat("█", filled) + strings.Repeat("░", p.width-filled)

	barStyle := lipgloss.NewStyle().Foreground(p.color)
	labelStyle := barStyle.Bold(true)

	out := barStyle.Render("["+bar+"]") +
		mutedStyle.Render(fmt.Sprintf(" %d/%d ", p.completed, p.total))
	if p.label != "" {
		out += labelStyle.Render(p.label)
	}
	return out
}
