package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/adi-analytics/ticketdesk/internal/types"
)

// Ayu palette with adaptive light/dark variants.
var (
	ColorPass = lipgloss.AdaptiveColor{
		Light: "#86b300",
		Dark:  "#c2d94c",
	}
	ColorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49",
		Dark:  "#ffb454",
	}
	ColorFail = lipgloss.AdaptiveColor{
		Light: "#f07171",
		Dark:  "#f07178",
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6",
		Dark:  "#59c2ff",
	}
)

var (
	PassStyle     = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle     = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle     = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle   = lipgloss.NewStyle().Foreground(ColorAccent)
	CategoryStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
)

// Status icons
const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
	IconInfo = "ℹ"
)

const SeparatorLight = "──────────────────────────────────────────"

func RenderPass(s string) string {
	return PassStyle.Render(s)
}

func RenderWarn(s string) string {
	return WarnStyle.Render(s)
}

func RenderFail(s string) string {
	return FailStyle.Render(s)
}

func RenderMuted(s string) string {
	return MutedStyle.Render(s)
}

func RenderAccent(s string) string {
	return AccentStyle.Render(s)
}

// RenderCategory renders an upper-cased section header.
func RenderCategory(s string) string {
	return CategoryStyle.Render(strings.ToUpper(s))
}

func RenderSeparator() string {
	return MutedStyle.Render(SeparatorLight)
}

// StatusStyle picks the color for a project status.
func StatusStyle(s types.ProjectStatus) lipgloss.Style {
	switch s {
	case types.StatusCompleted:
		return PassStyle
	case types.StatusPending:
		return WarnStyle
	case types.StatusAssigned:
		return AccentStyle
	default:
		return MutedStyle
	}
}

// RenderStatus renders a project status in its color.
func RenderStatus(s types.ProjectStatus) string {
	return StatusStyle(s).Render(string(s))
}
