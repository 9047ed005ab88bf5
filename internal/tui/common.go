package tui

import (
	"fmt"
	"time"

	"github.com/sadopc/tally/internal/history"
	"github.com/sadopc/tally/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewCounters viewState = iota
	viewHistory
	viewSettings
)

var viewNames = []string{"Counters", "History", "Settings"}

// --- Messages ---

type countersDataMsg struct {
	counters     []store.CounterWithCount
	showArchived bool
}

type counterOpenedMsg struct {
	counterID int64
}

type historyDataMsg struct {
	counter    *store.Counter
	entries    []history.Entry
	stats      []history.Stat
	dateFormat string
	notes      map[string]string // note body keyed by formatted day
}

type settingsDataMsg struct {
	settings []store.Setting
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type rolloverDoneMsg struct {
	err error
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func formatTarget(target *int) string {
	if target == nil {
		return "—"
	}
	return fmt.Sprintf("%d", *target)
}

func formatCountOverTarget(count int, target *int) string {
	if target == nil {
		return fmt.Sprintf("%d", count)
	}
	return fmt.Sprintf("%d/%d", count, *target)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
