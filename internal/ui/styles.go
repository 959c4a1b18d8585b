package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the browser.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorWarn      = lipgloss.Color("214") // Orange
	colorError     = lipgloss.Color("196") // Red
)

// TitleStyle for the report title line.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Padding(0, 1)

// TabStyle for inactive tabs.
var TabStyle = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// ActiveTabStyle for the selected tab.
var ActiveTabStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// SectionHeader for headings inside a tab.
var SectionHeader = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	MarginTop(1)

// BarStyle colors histogram bars.
var BarStyle = lipgloss.NewStyle().
	Foreground(colorPrimary)

// MutedStyle for secondary numbers and empty states.
var MutedStyle = lipgloss.NewStyle().
	Foreground(colorMuted)

// WatchedStyle marks privileged identities.
var WatchedStyle = lipgloss.NewStyle().
	Foreground(colorWarn)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// levelStyles color event levels in the events tab.
var levelStyles = map[string]lipgloss.Style{
	"debug": lipgloss.NewStyle().Foreground(colorMuted),
	"info":  lipgloss.NewStyle().Foreground(colorSecondary),
	"warn":  lipgloss.NewStyle().Foreground(colorWarn),
	"error": lipgloss.NewStyle().Foreground(colorError).Bold(true),
}
