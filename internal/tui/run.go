package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the UI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Bridge == nil {
		opts.Bridge = NewBridge()
	}
	defer opts.Bridge.Close()

	program := tea.NewProgram(
		NewModel(opts),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
