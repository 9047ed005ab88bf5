// Package rollover keeps the snapshot store healthy across day boundaries: it
// prunes redundant rows and makes sure every active counter has a snapshot
// opening the current period. It is triggered on startup and whenever the app
// notices the date has changed.
package rollover

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/sadopc/tally/internal/calendar"
	"github.com/sadopc/tally/internal/store"
)

type Engine struct {
	store *store.Store

	// Serializes invocations. Two concurrent runs could both observe "no row
	// for today" and double-insert; per-counter work inside one run is free to
	// fan out.
	mu sync.Mutex
}

func New(s *store.Store) *Engine {
	return &Engine{store: s}
}

// Run executes one cleanup-and-reset pass. It is idempotent: a second
// invocation right after the first finds nothing to do. Per-counter failures
// are collected, not fatal; the next invocation self-heals.
func (e *Engine) Run() error {
	return e.runAt(time.Now().UTC().UnixMilli())
}

func (e *Engine) runAt(now int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error

	if err := e.cleanupNoneDuplicates(); err != nil {
		errs = append(errs, err)
	}
	if err := e.store.CleanupDailyZeroSnapshots(); err != nil {
		errs = append(errs, err)
	}
	if err := e.cleanupWeekly(); err != nil {
		errs = append(errs, err)
	}

	counters, err := e.store.ListCounters(true)
	if err != nil {
		errs = append(errs, fmt.Errorf("list counters: %w", err))
		return errors.Join(errs...)
	}

	results := make([]error, len(counters))
	var wg sync.WaitGroup
	for i, c := range counters {
		wg.Add(1)
		go func(i int, c store.Counter) {
			defer wg.Done()
			results[i] = e.rolloverCounter(c, now)
		}(i, c)
	}
	wg.Wait()
	errs = append(errs, results...)

	return errors.Join(errs...)
}

// cleanupNoneDuplicates collapses runs of identical none-cadence snapshots
// within a week. Values that persist across a week boundary keep one row per
// week, and the first row of a run always survives.
func (e *Engine) cleanupNoneDuplicates() error {
	snaps, err := e.store.ListSnapshotsForCadence(store.CadenceNone)
	if err != nil {
		return err
	}
	return e.store.DeleteSnapshots(redundantIDs(snaps, false))
}

// cleanupWeekly prunes weekly-cadence history across all counters: same-week
// duplicates of their predecessor, plus zero-value rows that are not the
// chronologically last entry for their counter.
func (e *Engine) cleanupWeekly() error {
	snaps, err := e.store.ListSnapshotsForCadence(store.CadenceWeekly)
	if err != nil {
		return err
	}
	return e.store.DeleteSnapshots(redundantIDs(snaps, true))
}

// redundantIDs scans each counter's chronological snapshot run for rows that
// carry no information. With dropZeros set, zero-value rows are also marked
// unless they are the group's last entry.
func redundantIDs(snaps []store.Snapshot, dropZeros bool) []int64 {
	groups := lo.GroupBy(snaps, func(sn store.Snapshot) int64 { return sn.CounterID })

	var ids []int64
	for _, group := range groups {
		var prev *store.Snapshot
		for i := range group {
			sn := &group[i]
			if prev != nil &&
				sn.Count == prev.Count &&
				equalIntPtr(sn.EditedCount, prev.EditedCount) &&
				!calendar.DifferentWeek(sn.RecordedAt, prev.RecordedAt) {
				ids = append(ids, sn.ID)
			}
			prev = sn

			if dropZeros && sn.Count == 0 &&
				(sn.EditedCount == nil || *sn.EditedCount == 0) &&
				i != len(group)-1 {
				ids = append(ids, sn.ID)
			}
		}
	}
	return lo.Uniq(ids)
}

// rolloverCounter inserts the snapshot that opens a new period for one
// counter, when its cadence calls for it.
func (e *Engine) rolloverCounter(c store.Counter, now int64) error {
	recent, err := e.store.MostRecentSnapshot(c.ID)
	if err != nil {
		return fmt.Errorf("counter %q: %w", c.Name, err)
	}

	if recent == nil {
		// A brand new counter gets its initial row immediately.
		return e.insert(c, 0, now)
	}

	switch c.Cadence {
	case store.CadenceNone:
		if calendar.DifferentDay(recent.RecordedAt, now) {
			return e.insert(c, recent.Value(), now)
		}
	case store.CadenceDaily:
		if calendar.DifferentDay(recent.RecordedAt, now) {
			return e.insert(c, 0, now)
		}
	case store.CadenceWeekly:
		if calendar.DifferentWeek(recent.RecordedAt, now) {
			return e.insert(c, 0, now)
		}
		// Mid-week day rollover: the value persists into the new day.
		if calendar.DifferentDay(recent.RecordedAt, now) {
			return e.insert(c, recent.Value(), now)
		}
	}
	return nil
}

func (e *Engine) insert(c store.Counter, count int, now int64) error {
	_, err := e.store.InsertSnapshot(store.Snapshot{
		CounterID:  c.ID,
		Count:      count,
		RecordedAt: now,
		Target:     c.Target,
	})
	if err != nil {
		return fmt.Errorf("counter %q: %w", c.Name, err)
	}
	return nil
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
