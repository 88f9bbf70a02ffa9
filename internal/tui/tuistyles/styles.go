// Package tuistyles holds the colour palette and lipgloss styles shared by
// the wizard and its components.
package tuistyles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/rgehrsitz/satax/internal/output"
	"github.com/shopspring/decimal"
)

// Colors
var (
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#1D4F91", Dark: "#7AA7E8"}
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#5B6770", Dark: "#A8B3BC"}
	ColorAccent    = lipgloss.AdaptiveColor{Light: "#00703C", Dark: "#4CC38A"}
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#00703C", Dark: "#4CC38A"}
	ColorDanger    = lipgloss.AdaptiveColor{Light: "#D4351C", Dark: "#FF6F61"}
	ColorWarning   = lipgloss.AdaptiveColor{Light: "#B58105", Dark: "#FFDD00"}

	ColorForeground = lipgloss.AdaptiveColor{Light: "#0B0C0C", Dark: "#F3F2F1"}
	ColorMuted      = lipgloss.AdaptiveColor{Light: "#6F777B", Dark: "#8A9299"}
	ColorBorder     = lipgloss.AdaptiveColor{Light: "#B1B4B6", Dark: "#505A5F"}
)

// Base styles
var (
	AppStyle = lipgloss.NewStyle().Padding(1, 2)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			MarginTop(1)

	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2)

	ActiveBorderStyle = BorderStyle.
				BorderForeground(ColorPrimary)

	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(ColorPrimary).
				Bold(true)

	UnselectedItemStyle = lipgloss.NewStyle().
				Foreground(ColorForeground)

	MetricLabelStyle = lipgloss.NewStyle().
				Foreground(ColorMuted)

	MetricValueStyle = lipgloss.NewStyle().
				Foreground(ColorForeground).
				Bold(true)

	TotalValueStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorDanger).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Italic(true)
)

// FormatCurrency is output.FormatCurrency, shared so every screen shows money the same way.
func FormatCurrency(amount decimal.Decimal) string {
	return output.FormatCurrency(amount)
}
