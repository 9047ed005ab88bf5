// Package history reconstructs a counter's sparse snapshots into a dense,
// calendar-complete grid and derives overview statistics from it. Everything
// here is a pure function over its inputs; the TUI renders the results.
package history

// EntryKind distinguishes real days from the layout cells interleaved for the
// Monday-first grid.
type EntryKind int

const (
	// KindDay is a real calendar day, recorded or synthesized.
	KindDay EntryKind = iota
	// KindMonth is a month label occupying slot 0 of a grid week row.
	KindMonth
	// KindSpacer is a blank layout cell.
	KindSpacer
)

// Entry is one cell of the reconstructed history grid. Colors are hex strings
// ("" meaning transparent) so the package stays independent of any UI toolkit.
type Entry struct {
	Kind        EntryKind
	SnapshotID  *int64 // nil for synthesized days
	Label       string // formatted date for days, month name for headers
	Day         int64  // UTC epoch millis, zero for layout cells
	Count       int
	Target      *int
	Color       string
	HasNote     bool
	Bordered    bool
	BorderColor string
}

// IsDay reports whether the entry is a real calendar day.
func (e Entry) IsDay() bool {
	return e.Kind == KindDay
}

// Stat is one overview statistic, pre-formatted for display.
type Stat struct {
	Value string
	Label string
}
