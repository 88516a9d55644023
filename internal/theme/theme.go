// Package theme provides the Lip Gloss color palette and reusable styles
// for the recipe TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Stream state colors.
var (
	ColorStreaming  = lipgloss.Color("#2563eb")
	ColorStarting   = lipgloss.Color("#7c3aed")
	ColorIdle       = lipgloss.Color("#4b5563")
	ColorClosed     = lipgloss.Color("#16a34a")
	ColorErrored    = lipgloss.Color("#dc2626")
	ColorSuperseded = lipgloss.Color("#d97706")
)

// UI chrome colors.
var (
	ColorAccent  = lipgloss.Color("#f97316")
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// ReasonColor returns the color for a stream update reason
// ("started", "chunk", "closed", ...).
func ReasonColor(reason string) lipgloss.Color {
	switch reason {
	case "started":
		return ColorStarting
	case "chunk":
		return ColorStreaming
	case "closed":
		return ColorClosed
	case "errored":
		return ColorErrored
	case "superseded", "shutdown":
		return ColorSuperseded
	default:
		return ColorDimmed
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleFocused = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorDanger)
)
