package main

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	Secondary = lipgloss.Color("#06B6D4")
	Success   = lipgloss.Color("#10B981")
	Warning   = lipgloss.Color("#F59E0B")
	Error     = lipgloss.Color("#EF4444")
	Muted     = lipgloss.Color("#64748B")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Secondary)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Warning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)

	TicketStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Muted).
			Padding(0, 1)
)

// StatusIcon returns a colored dot for a bridge state or dispatch tier
func StatusIcon(status string) string {
	switch status {
	case "connected", "delivered-to-device":
		return SuccessStyle.Render("●")
	case "disconnected", "recorded-as-mock":
		return ErrorStyle.Render("●")
	default:
		return WarningStyle.Render("●")
	}
}
