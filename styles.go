package main

import "github.com/charmbracelet/lipgloss"

// Terminal styles for report and list output. lipgloss drops colors when stdout is not a terminal.
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4A90E2")).
			Padding(0, 1)

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	durationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F7DC6F"))

	totalStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)
