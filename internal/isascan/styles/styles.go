// Package styles holds the terminal styles of the isascan output.
package styles

import (
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"
)

// Styles are the lipgloss styles of the plain-text report.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Feature lipgloss.Style
	Level   lipgloss.Style
	Count   lipgloss.Style
	Offset  lipgloss.Style
	Dim     lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// New returns the report styles. Without color every style renders its
// input unchanged.
func New(color bool) Styles {
	if !color {
		s := lipgloss.NewStyle()
		return Styles{s, s, s, s, s, s, s, s, s}
	}
	fg := func(hex string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
	}
	return Styles{
		Title:   fg(charmtone.Zest.Hex()).Bold(true),
		Label:   fg(charmtone.Squid.Hex()),
		Feature: fg(charmtone.Malibu.Hex()).Bold(true),
		Level:   fg(charmtone.Guac.Hex()).Bold(true),
		Count:   fg(charmtone.Cheeky.Hex()),
		Offset:  fg(charmtone.Charcoal.Hex()),
		Dim:     fg(charmtone.Squid.Hex()).Italic(true),
		Warning: fg(charmtone.Zest.Hex()),
		Error:   fg("196").Bold(true),
	}
}
