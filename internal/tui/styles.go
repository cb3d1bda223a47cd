package tui

import (
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	InputWidth      = 72
	URLInputHeight  = 5
	LogHeight       = 10
	DebugLines      = 8
	DefaultTick     = 500 * time.Millisecond
	DefaultIdleTick = 2 * time.Second
)

// Palette
var (
	Purple    = lipgloss.Color("#bd93f9")
	Pink      = lipgloss.Color("#ff79c6")
	Cyan      = lipgloss.Color("#8be9fd")
	Gray      = lipgloss.Color("#44475a")
	LightGray = lipgloss.Color("#a9b1d6")
	Red       = lipgloss.Color("#ff5555")
	Green     = lipgloss.Color("#50fa7b")
	Yellow    = lipgloss.Color("#f1fa8c")
)

const (
	ProgressStart = "#ff79c6"
	ProgressEnd   = "#bd93f9"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(Pink)

	labelStyle = lipgloss.NewStyle().Foreground(Cyan).Bold(true)

	mutedStyle = lipgloss.NewStyle().Foreground(LightGray)

	errorStyle = lipgloss.NewStyle().Foreground(Red)

	warnStyle = lipgloss.NewStyle().Foreground(Yellow)

	okStyle = lipgloss.NewStyle().Foreground(Green)

	boxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(Gray).Padding(0, 1)

	focusedBoxStyle = boxStyle.BorderForeground(Purple)

	helpStyle = lipgloss.NewStyle().Foreground(Gray).MarginTop(1)
)
