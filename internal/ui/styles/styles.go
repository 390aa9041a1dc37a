// Package styles holds the palette and lipgloss styles shared by every tab.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette. Metric colors match across cards, charts and legends.
var (
	Primary   = lipgloss.Color("48")  // neon green
	Secondary = lipgloss.Color("111")
	Subtle    = lipgloss.Color("240")

	Compute  = lipgloss.Color("48")
	Storage  = lipgloss.Color("111")
	Child    = lipgloss.Color("75")
	History  = lipgloss.Color("183")
	Transfer = lipgloss.Color("214")
	Branches = lipgloss.Color("210")

	Success = lipgloss.Color("42")
	Error   = lipgloss.Color("196")
	Warning = lipgloss.Color("220")
	Info    = lipgloss.Color("39")

	BgDark   = lipgloss.Color("235")
	BgAccent = lipgloss.Color("236")

	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")
)

// Page layout and headings.
var (
	DocStyle = lipgloss.NewStyle().Margin(1, 2).Padding(0, 1)

	TitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(Primary).MarginBottom(1)
	SubTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(Secondary).MarginBottom(1)
)

// Cards. StatCardStyle is the compact variant used for the four summary numbers.
var (
	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Subtle).
			Padding(1, 2).
			MarginBottom(1)

	CardTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(Primary).MarginBottom(1)

	StatCardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Subtle).
			Padding(0, 2).
			MarginRight(1)

	StatLabelStyle = lipgloss.NewStyle().Foreground(TextSecondary)
	StatValueStyle = lipgloss.NewStyle().Bold(true).Foreground(TextPrimary)

	ProgressLabelStyle = lipgloss.NewStyle().Foreground(TextSecondary).Width(16)
)

// Project picker.
var (
	BlurredStyle = lipgloss.NewStyle().Foreground(TextMuted)

	FocusedBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(Primary).
				Padding(0, 1)
	BlurredBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(Subtle).
				Padding(0, 1)

	ListItemStyle         = lipgloss.NewStyle().PaddingLeft(2)
	SelectedListItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(Primary).Bold(true)
	CheckedStyle          = lipgloss.NewStyle().Foreground(Success).Bold(true)
)

// Tables.
var (
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Primary).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(Subtle)

	TableSelectedStyle = lipgloss.NewStyle().
				Background(BgAccent).
				Foreground(TextPrimary).
				Bold(true)
)

// Help overlay and toasts.
var (
	HelpStyle     = lipgloss.NewStyle().Foreground(TextMuted)
	HelpKeyStyle  = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	HelpDescStyle = lipgloss.NewStyle().Foreground(TextSecondary)

	HelpPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(Primary).
			Padding(1, 3).
			Background(BgDark)

	ToastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1).
			MarginBottom(1)
)

// Status text.
var (
	ErrorTextStyle   = lipgloss.NewStyle().Foreground(Error)
	SuccessTextStyle = lipgloss.NewStyle().Foreground(Success)
	WarningTextStyle = lipgloss.NewStyle().Foreground(Warning)
	InfoTextStyle    = lipgloss.NewStyle().Foreground(Info)
)

// MetricStyle colors text with a metric's series color.
func MetricStyle(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

// CenterBoth centers content in a width x height box.
func CenterBoth(content string, width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center).
		AlignVertical(lipgloss.Center).
		Render(content)
}
