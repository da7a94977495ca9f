// Package style holds the colors and symbols weld prints with.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette.
var (
	Accent = lipgloss.Color("#8B5CF6")
	Muted  = lipgloss.Color("#667085")
	Good   = lipgloss.Color("#22A06B")
	Bad    = lipgloss.Color("#D93025")
	Warn   = lipgloss.Color("#F59E0B")
)

// Symbols.
const (
	Cross   = "✗"
	Warning = "!"
	Arrow   = "->"
)

// Report styles the parts of a target report.
type Report struct {
	Heading lipgloss.Style
	Label   lipgloss.Style
	Off     lipgloss.Style
}

// NewReport binds the palette to out, keeping its color profile.
func NewReport(out *termenv.Output) Report {
	r := lipgloss.NewRenderer(out, termenv.WithProfile(out.Profile))
	r.SetColorProfile(out.Profile)
	return Report{
		Heading: r.NewStyle().Foreground(Accent).Bold(true),
		Label:   r.NewStyle().Foreground(Muted),
		Off:     r.NewStyle().Foreground(Warn),
	}
}
