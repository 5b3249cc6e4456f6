package tui

import "github.com/charmbracelet/lipgloss"

// styles holds the lipgloss styles for one theme.
type styles struct {
	app      lipgloss.Style
	title    lipgloss.Style
	tab      lipgloss.Style
	tabOn    lipgloss.Style
	quote    lipgloss.Style
	failed   lipgloss.Style
	muted    lipgloss.Style
	status   lipgloss.Style
	copied   lipgloss.Style
	panel    lipgloss.Style
	selected lipgloss.Style
	help     lipgloss.Style
}

func newStyles(dark bool) styles {
	fg, muted, accent, bg := lipgloss.Color("235"), lipgloss.Color("244"), lipgloss.Color("99"), lipgloss.Color("255")
	danger, ok := lipgloss.Color("160"), lipgloss.Color("28")
	if dark {
		fg, muted, accent, bg = lipgloss.Color("252"), lipgloss.Color("245"), lipgloss.Color("141"), lipgloss.Color("235")
		danger, ok = lipgloss.Color("210"), lipgloss.Color("114")
	}

	return styles{
		app:      lipgloss.NewStyle().Foreground(fg).Background(bg).Padding(1, 2),
		title:    lipgloss.NewStyle().Foreground(accent).Bold(true),
		tab:      lipgloss.NewStyle().Foreground(muted).Padding(0, 1),
		tabOn:    lipgloss.NewStyle().Foreground(bg).Background(accent).Bold(true).Padding(0, 1),
		quote:    lipgloss.NewStyle().Foreground(fg).Italic(true).Padding(1, 2),
		failed:   lipgloss.NewStyle().Foreground(danger).Padding(1, 2),
		muted:    lipgloss.NewStyle().Foreground(muted),
		status:   lipgloss.NewStyle().Foreground(accent),
		copied:   lipgloss.NewStyle().Foreground(ok).Bold(true),
		panel:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(0, 1),
		selected: lipgloss.NewStyle().Foreground(accent).Bold(true),
		help:     lipgloss.NewStyle().Foreground(muted),
	}
}
