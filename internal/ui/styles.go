package ui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	colorGreen  = lipgloss.Color("#22c55e")
	colorRed    = lipgloss.Color("#ef4444")
	colorYellow = lipgloss.Color("#eab308")
	colorCyan   = lipgloss.Color("#22d3ee")
	colorBlue   = lipgloss.Color("#3b82f6")

	// Styles
	infoStyle    = lipgloss.NewStyle().Foreground(colorCyan)
	successStyle = lipgloss.NewStyle().Foreground(colorGreen)
	warningStyle = lipgloss.NewStyle().Foreground(colorYellow)
	errorStyle   = lipgloss.NewStyle().Foreground(colorRed)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
)

const (
	infoMark    = "i "
	successMark = "+ "
	warningMark = "! "
	errorMark   = "x "

	headerBar = "============================================"
)
