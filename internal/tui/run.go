package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the terminal app and blocks until it exits. Mouse motion is
// reported so history rows can be dragged.
func Run(opts Options) error {
	program := tea.NewProgram(New(opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
	)
	_, err := program.Run()
	return err
}
