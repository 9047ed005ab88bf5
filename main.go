package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/tally/internal/rollover"
	"github.com/sadopc/tally/internal/store"
	"github.com/sadopc/tally/internal/tui"
)

func main() {
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	s, err := store.New(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	// Bring every counter current before the first frame. A failure here is
	// not fatal: the UI retries on its own schedule.
	eng := rollover.New(s)
	if err := eng.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: rollover: %v\n", err)
	}

	app := tui.NewApp(s, eng)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
