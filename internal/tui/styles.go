// Package tui renders WardenXT results for terminals and drives the
// interactive prompts of the CLI.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/abhishekK50/wardenxt/internal/safety"
)

// Styles contains lipgloss styles for terminal output
type Styles struct {
	Title   lipgloss.Style
	Heading lipgloss.Style
	Muted   lipgloss.Style
	Command lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Border  lipgloss.Style
	Safe    lipgloss.Style
	Medium  lipgloss.Style
	High    lipgloss.Style
	Blocked lipgloss.Style
}

// DefaultStyles returns the default lipgloss styles
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")), // Purple
		Heading: lipgloss.NewStyle().
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Command: lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")), // Cyan
		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")), // Green
		Warning: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226")), // Yellow
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1),
		Safe:    lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		Medium:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // Orange
		High:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Blocked: lipgloss.NewStyle().Bold(true).Reverse(true).Foreground(lipgloss.Color("196")),
	}
}

// Tier renders a risk tier label in its colour.
func (s Styles) Tier(t safety.Tier) string {
	label := "[" + string(t) + "]"
	switch t {
	case safety.TierSafe:
		return s.Safe.Render(label)
	case safety.TierMedium:
		return s.Medium.Render(label)
	case safety.TierHigh:
		return s.High.Render(label)
	}
	return s.Muted.Render(label)
}

// Verdict renders a classifier verdict label.
func (s Styles) Verdict(v safety.Verdict) string {
	if !v.Allowed {
		return s.Blocked.Render("BLOCKED")
	}
	return s.Tier(v.Tier)
}
