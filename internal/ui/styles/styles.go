// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Text hierarchy
	TextPrimaryColor   = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#CCCCCC"}
	TextSecondaryColor = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"}
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#888888", Dark: "#696969"}

	// Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	StatusInfoColor    = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}

	// Overlays
	OverlayTitleColor  = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#C9C9C9"}
	OverlayBorderColor = lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#8C8C8C"}

	SpinnerColor = lipgloss.AdaptiveColor{Light: "#8839EF", Dark: "#CBA6F7"}
)

var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(TextPrimaryColor)

	MutedStyle = lipgloss.NewStyle().Foreground(TextMutedColor)

	SecondaryStyle = lipgloss.NewStyle().Foreground(TextSecondaryColor)

	ErrorStyle = lipgloss.NewStyle().Foreground(StatusErrorColor)

	SpinnerStyle = lipgloss.NewStyle().Foreground(SpinnerColor)

	// Badge for the cache/fresh source marker.
	BadgeStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true)

	FooterStyle = lipgloss.NewStyle().Foreground(TextMutedColor).PaddingLeft(1)
)
