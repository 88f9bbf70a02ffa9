package tui

import "github.com/rgehrsitz/satax/internal/tui/tuistyles"

// Re-exported so wizard screens can use the shared palette unqualified.
var (
	AppStyle          = tuistyles.AppStyle
	TitleStyle        = tuistyles.TitleStyle
	SubtitleStyle     = tuistyles.SubtitleStyle
	StatusBarStyle    = tuistyles.StatusBarStyle
	BorderStyle       = tuistyles.BorderStyle
	ActiveBorderStyle = tuistyles.ActiveBorderStyle
	ErrorStyle        = tuistyles.ErrorStyle
	WarningStyle      = tuistyles.WarningStyle
	SuccessStyle      = tuistyles.SuccessStyle
	InfoStyle         = tuistyles.InfoStyle
	MetricLabelStyle  = tuistyles.MetricLabelStyle
	TotalValueStyle   = tuistyles.TotalValueStyle
)
