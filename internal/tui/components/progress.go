package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rgehrsitz/satax/internal/tui/tuistyles"
)

// ProgressBar displays how many of a fixed number of items are done.
type ProgressBar struct {
	Current   int
	Total     int
	Width     int
	Label     string
	ShowCount bool
}

// NewProgressBar creates a new progress bar
func NewProgressBar(current, total int) *ProgressBar {
	return &ProgressBar{
		Current:   current,
		Total:     total,
		Width:     30,
		ShowCount: true,
	}
}

// WithLabel sets the progress label
func (p *ProgressBar) WithLabel(label string) *ProgressBar {
	p.Label = label
	return p
}

// WithWidth sets the bar width
func (p *ProgressBar) WithWidth(width int) *ProgressBar {
	p.Width = width
	return p
}

// IsComplete returns true when every item is done.
func (p *ProgressBar) IsComplete() bool {
	return p.Total > 0 && p.Current >= p.Total
}

// Render returns the styled progress bar
func (p *ProgressBar) Render() string {
	var content strings.Builder
	if p.Label != "" {
		content.WriteString(tuistyles.MetricLabelStyle.Render(p.Label))
		content.WriteString(" ")
	}

	filled := 0
	if p.Total > 0 {
		filled = p.Width * p.Current / p.Total
	}
	if filled > p.Width {
		filled = p.Width
	}

	barColor := tuistyles.ColorPrimary
	if p.IsComplete() {
		barColor = tuistyles.ColorSuccess
	}
	content.WriteString("[")
	content.WriteString(lipgloss.NewStyle().Foreground(barColor).Render(strings.Repeat("█", filled)))
	content.WriteString(lipgloss.NewStyle().Foreground(tuistyles.ColorBorder).Render(strings.Repeat("░", p.Width-filled)))
	content.WriteString("]")
	if p.ShowCount {
		content.WriteString(" ")
		content.WriteString(tuistyles.SubtitleStyle.Render(fmt.Sprintf("%d/%d", p.Current, p.Total)))
	}
	return content.String()
}

// Stepper renders a row of numbered wizard steps with the current one highlighted.
type Stepper struct {
	Titles  []string
	Current int // 1-based; 0 highlights nothing
}

// NewStepper creates a stepper for titles.
func NewStepper(titles []string, current int) *Stepper {
	return &Stepper{Titles: titles, Current: current}
}

// Render returns the step row.
func (s *Stepper) Render() string {
	parts := make([]string, len(s.Titles))
	for i, title := range s.Titles {
		n := i + 1
		label := fmt.Sprintf("%d. %s", n, title)
		switch {
		case n == s.Current:
			parts[i] = tuistyles.SelectedItemStyle.Render("▶ " + label)
		case n < s.Current:
			parts[i] = tuistyles.SuccessStyle.Render("✓ " + label)
		default:
			parts[i] = tuistyles.SubtitleStyle.Render("  " + label)
		}
	}
	return strings.Join(parts, tuistyles.SubtitleStyle.Render("  ›  "))
}
