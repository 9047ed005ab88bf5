package store

import "fmt"

// Cadence is a counter's reset frequency.
type Cadence string

const (
	CadenceNone   Cadence = "none"
	CadenceDaily  Cadence = "daily"
	CadenceWeekly Cadence = "weekly"
)

// ParseCadence decodes a stored cadence string. Unknown values are a decode
// failure, not a default.
func ParseCadence(s string) (Cadence, error) {
	switch Cadence(s) {
	case CadenceNone, CadenceDaily, CadenceWeekly:
		return Cadence(s), nil
	}
	return "", fmt.Errorf("invalid cadence %q", s)
}

func (c Cadence) Label() string {
	switch c {
	case CadenceDaily:
		return "Daily"
	case CadenceWeekly:
		return "Weekly"
	default:
		return "None"
	}
}

type Counter struct {
	ID        int64
	Name      string
	Icon      string
	Cadence   Cadence
	Target    *int
	Archived  bool
	CreatedAt int64 // UTC epoch millis
}

// Snapshot is one recorded count observation for a counter. EditedCount is a
// user correction that takes precedence over Count when set.
type Snapshot struct {
	ID          int64
	CounterID   int64
	Count       int
	RecordedAt  int64 // UTC epoch millis
	Target      *int
	EditedCount *int
}

// Value returns the effective count: the user's correction when present,
// otherwise the recorded count.
func (sn Snapshot) Value() int {
	if sn.EditedCount != nil {
		return *sn.EditedCount
	}
	return sn.Count
}

type Note struct {
	CounterID  int64
	RecordedAt int64 // UTC epoch millis, matched at day granularity
	Body       string
}

type Setting struct {
	Key   string
	Value string
}

// CounterWithCount is a counter joined with its most recent snapshot, for the
// list view.
type CounterWithCount struct {
	Counter
	SnapshotID   *int64
	CurrentCount int
}
