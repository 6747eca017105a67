// Package themes holds the color schemes of the entry form.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Label         lipgloss.Style
	FocusedLabel  lipgloss.Style
	Selected      lipgloss.Style
	Normal        lipgloss.Style
	Muted         lipgloss.Style
	Suggestion    lipgloss.Style
	StatusError   lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusPending lipgloss.Style
	RoundedBox    lipgloss.Style
	Primary       lipgloss.Color
}

func build(primary, foreground, muted, success, errColor, info, border lipgloss.Color) Theme {
	return Theme{
		Primary: primary,
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary).
			MarginBottom(1),
		Label: lipgloss.NewStyle().
			Width(13).
			Foreground(muted),
		FocusedLabel: lipgloss.NewStyle().
			Width(13).
			Bold(true).
			Foreground(primary),
		Selected: lipgloss.NewStyle().
			Background(primary).
			Foreground(foreground).
			Bold(true).
			Padding(0, 1),
		Normal: lipgloss.NewStyle().
			Foreground(foreground).
			Padding(0, 1),
		Muted: lipgloss.NewStyle().
			Foreground(muted),
		Suggestion: lipgloss.NewStyle().
			Foreground(info).
			Italic(true),
		StatusError: lipgloss.NewStyle().
			Foreground(errColor).
			Bold(true),
		StatusSuccess: lipgloss.NewStyle().
			Foreground(success).
			Bold(true),
		StatusPending: lipgloss.NewStyle().
			Foreground(muted).
			Italic(true),
		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(1, 2),
	}
}

// Default is the default theme.
var Default = build(
	lipgloss.Color("#7c3aed"),
	lipgloss.Color("#fafafa"),
	lipgloss.Color("#737373"),
	lipgloss.Color("#10b981"),
	lipgloss.Color("#ef4444"),
	lipgloss.Color("#3b82f6"),
	lipgloss.Color("#404040"),
)

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = build(
	lipgloss.Color("#cba6f7"),
	lipgloss.Color("#cdd6f4"),
	lipgloss.Color("#6c7086"),
	lipgloss.Color("#a6e3a1"),
	lipgloss.Color("#f38ba8"),
	lipgloss.Color("#89dceb"),
	lipgloss.Color("#45475a"),
)

// ByName resolves a theme name, falling back to Default.
func ByName(name string) Theme {
	switch name {
	case "catppuccin", "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}
