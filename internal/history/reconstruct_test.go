package history

import (
	"testing"
	"time"

	"github.com/sadopc/tally/internal/calendar"
	"github.com/sadopc/tally/internal/store"
)

// at returns UTC epoch millis for a calendar day at noon.
func at(y int, m time.Month, d int) int64 {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC).UnixMilli()
}

func intPtr(n int) *int { return &n }

func testCounter(cadence store.Cadence, createdAt int64) store.Counter {
	return store.Counter{ID: 1, Name: "test", Cadence: cadence, CreatedAt: createdAt}
}

func dayEntries(entries []Entry) []Entry {
	var days []Entry
	for _, e := range entries {
		if e.IsDay() {
			days = append(days, e)
		}
	}
	return days
}

// Fixed reference instant for the walks below: 2026-03-15, a Sunday.
var now = at(2026, time.March, 15)

// ============================================================
// Dense expansion
// ============================================================

func TestReconstructDenseLength(t *testing.T) {
	// Created on Jan 1st, more than two months back: the walk covers every
	// day from creation through today. Jan (31) + Feb (28) + 15 = 74.
	c := testCounter(store.CadenceNone, at(2026, time.January, 1))

	entries := Reconstruct(c, nil, nil, calendar.DayMonthYear, now, DefaultGradient)

	days := dayEntries(entries)
	if len(days) != 74 {
		t.Fatalf("expected 74 days, got %d", len(days))
	}
	if days[0].Label != "01/01/2026" {
		t.Fatalf("first day = %q", days[0].Label)
	}
	if days[len(days)-1].Label != "15/03/2026" {
		t.Fatalf("last day = %q", days[len(days)-1].Label)
	}
}

func TestReconstructShortHistoryPadsTwoMonths(t *testing.T) {
	// Created five days ago: the grid reaches two months behind creation.
	c := testCounter(store.CadenceNone, at(2026, time.March, 10))

	entries := Reconstruct(c, nil, nil, calendar.DayMonthYear, now, DefaultGradient)

	days := dayEntries(entries)
	if days[0].Label != "10/01/2026" {
		t.Fatalf("first day = %q, want 10/01/2026", days[0].Label)
	}
	// Jan 10..31 (22) + Feb (28) + Mar 1..15 (15)
	if len(days) != 65 {
		t.Fatalf("expected 65 days, got %d", len(days))
	}
}

func TestReconstructStartsAtEarliestSnapshot(t *testing.T) {
	// A snapshot older than the creation date extends the walk back to it.
	c := testCounter(store.CadenceNone, at(2026, time.January, 10))
	snaps := []store.Snapshot{
		{ID: 1, CounterID: 1, Count: 2, RecordedAt: at(2026, time.January, 3)},
	}

	entries := Reconstruct(c, snaps, nil, calendar.DayMonthYear, now, DefaultGradient)
	days := dayEntries(entries)
	if days[0].Label != "03/01/2026" {
		t.Fatalf("first day = %q, want 03/01/2026", days[0].Label)
	}
}

func TestReconstructLayoutCells(t *testing.T) {
	// 2026-01-01 is a Thursday: the first row opens with its month label and
	// three spacers so day one lands in the Thursday column.
	c := testCounter(store.CadenceNone, at(2026, time.January, 1))

	entries := Reconstruct(c, nil, nil, calendar.DayMonthYear, now, DefaultGradient)

	if entries[0].Kind != KindMonth || entries[0].Label != "January" {
		t.Fatalf("entries[0] = %+v, want January header", entries[0])
	}
	for i := 1; i <= 3; i++ {
		if entries[i].Kind != KindSpacer {
			t.Fatalf("entries[%d] = %+v, want spacer", i, entries[i])
		}
	}
	if !entries[4].IsDay() {
		t.Fatalf("entries[4] = %+v, want first day", entries[4])
	}

	// Every row past the first opens with a layout cell: slot 0 of each
	// 8-wide row is never a day.
	for i := 8; i < len(entries); i += 8 {
		if entries[i].IsDay() {
			t.Fatalf("entries[%d] is a day, want month or spacer", i)
		}
	}

	// February's header appears exactly once.
	headers := 0
	for _, e := range entries {
		if e.Kind == KindMonth && e.Label == "February" {
			headers++
		}
	}
	if headers != 1 {
		t.Fatalf("February headers = %d, want 1", headers)
	}
}

// ============================================================
// Gap synthesis per cadence
// ============================================================

func TestReconstructNoneCarriesForward(t *testing.T) {
	c := testCounter(store.CadenceNone, at(2026, time.January, 1))
	snaps := []store.Snapshot{
		{ID: 1, CounterID: 1, Count: 5, RecordedAt: at(2026, time.March, 14)},
	}

	entries := Reconstruct(c, snaps, nil, calendar.DayMonthYear, now, DefaultGradient)
	days := dayEntries(entries)

	last := days[len(days)-1]
	if last.Label != "15/03/2026" || last.Count != 5 {
		t.Fatalf("synthesized day = %+v, want carried count 5", last)
	}
	if last.SnapshotID != nil {
		t.Fatal("synthesized day should have no snapshot ID")
	}
	if days[len(days)-2].SnapshotID == nil {
		t.Fatal("recorded day should keep its snapshot ID")
	}
}

func TestReconstructDailyResetsGaps(t *testing.T) {
	c := testCounter(store.CadenceDaily, at(2026, time.January, 1))
	snaps := []store.Snapshot{
		{ID: 1, CounterID: 1, Count: 7, RecordedAt: at(2026, time.March, 13)},
	}

	entries := Reconstruct(c, snaps, nil, calendar.DayMonthYear, now, DefaultGradient)
	days := dayEntries(entries)

	n := len(days)
	if days[n-3].Count != 7 {
		t.Fatalf("recorded day count = %d, want 7", days[n-3].Count)
	}
	if days[n-2].Count != 0 || days[n-1].Count != 0 {
		t.Fatalf("daily gaps = %d, %d, want zeros", days[n-2].Count, days[n-1].Count)
	}
}

func TestReconstructWeeklyMondayResetAndCarry(t *testing.T) {
	// 2026-03-09 is a Monday. A value recorded Friday the 6th carries through
	// the weekend, resets on the synthesized Monday, and the Tuesday snapshot
	// carries through the rest of the week.
	c := testCounter(store.CadenceWeekly, at(2026, time.January, 1))
	snaps := []store.Snapshot{
		{ID: 1, CounterID: 1, Count: 9, RecordedAt: at(2026, time.March, 6)},
		{ID: 2, CounterID: 1, Count: 4, RecordedAt: at(2026, time.March, 10)},
	}

	entries := Reconstruct(c, snaps, nil, calendar.DayMonthYear, now, DefaultGradient)

	byLabel := map[string]Entry{}
	for _, e := range dayEntries(entries) {
		byLabel[e.Label] = e
	}

	if got := byLabel["07/03/2026"].Count; got != 9 {
		t.Fatalf("Saturday carry = %d, want 9", got)
	}
	if got := byLabel["08/03/2026"].Count; got != 9 {
		t.Fatalf("Sunday carry = %d, want 9", got)
	}
	if got := byLabel["09/03/2026"].Count; got != 0 {
		t.Fatalf("Monday reset = %d, want 0", got)
	}
	if got := byLabel["10/03/2026"].Count; got != 4 {
		t.Fatalf("Tuesday record = %d, want 4", got)
	}
	if got := byLabel["15/03/2026"].Count; got != 4 {
		t.Fatalf("Sunday carry = %d, want 4", got)
	}
}

// ============================================================
// Corrections and notes
// ============================================================

func TestReconstructEditedCountWins(t *testing.T) {
	c := testCounter(store.CadenceNone, at(2026, time.January, 1))
	snaps := []store.Snapshot{
		{ID: 1, CounterID: 1, Count: 3, RecordedAt: at(2026, time.March, 14), EditedCount: intPtr(9)},
	}

	entries := Reconstruct(c, snaps, nil, calendar.DayMonthYear, now, DefaultGradient)
	days := dayEntries(entries)

	if got := days[len(days)-2].Count; got != 9 {
		t.Fatalf("recorded day = %d, want corrected 9", got)
	}
	// The correction also carries into the synthesized day.
	if got := days[len(days)-1].Count; got != 9 {
		t.Fatalf("carried day = %d, want 9", got)
	}
}

func TestReconstructNotesFlagged(t *testing.T) {
	c := testCounter(store.CadenceNone, at(2026, time.January, 1))
	notes := []store.Note{
		{CounterID: 1, RecordedAt: at(2026, time.March, 14), Body: "good day"},
	}

	entries := Reconstruct(c, nil, notes, calendar.DayMonthYear, now, DefaultGradient)

	flagged := 0
	for _, e := range dayEntries(entries) {
		if e.HasNote {
			flagged++
			if e.Label != "14/03/2026" {
				t.Fatalf("wrong day flagged: %q", e.Label)
			}
		}
	}
	if flagged != 1 {
		t.Fatalf("flagged days = %d, want 1", flagged)
	}
}

// ============================================================
// Coloring
// ============================================================

func TestReconstructColors(t *testing.T) {
	c := testCounter(store.CadenceNone, at(2026, time.January, 1))
	c.Target = intPtr(10)
	snaps := []store.Snapshot{
		{ID: 1, CounterID: 1, Count: 10, RecordedAt: at(2026, time.March, 13), Target: intPtr(10)},
		{ID: 2, CounterID: 1, Count: 0, RecordedAt: at(2026, time.March, 14), Target: intPtr(10)},
	}

	entries := Reconstruct(c, snaps, nil, calendar.DayMonthYear, now, DefaultGradient)
	byLabel := map[string]Entry{}
	for _, e := range dayEntries(entries) {
		byLabel[e.Label] = e
	}

	// On-target day gets the deepest gradient bucket.
	if got := byLabel["13/03/2026"].Color; got != DefaultGradient[0] {
		t.Fatalf("on-target color = %q, want %q", got, DefaultGradient[0])
	}
	// A recorded zero after a carried value marks the break.
	if got := byLabel["14/03/2026"].Color; got != colorCarryBreak {
		t.Fatalf("carry-break color = %q, want %q", got, colorCarryBreak)
	}
	// Untouched early days are empty.
	if got := byLabel["05/01/2026"].Color; got != ColorEmpty {
		t.Fatalf("idle day color = %q, want empty", got)
	}
}

func TestReconstructWeeklyBorders(t *testing.T) {
	// Carried weekly days are drawn bordered in the carried color.
	c := testCounter(store.CadenceWeekly, at(2026, time.January, 1))
	snaps := []store.Snapshot{
		{ID: 1, CounterID: 1, Count: 4, RecordedAt: at(2026, time.March, 10)},
	}

	entries := Reconstruct(c, snaps, nil, calendar.DayMonthYear, now, DefaultGradient)
	byLabel := map[string]Entry{}
	for _, e := range dayEntries(entries) {
		byLabel[e.Label] = e
	}

	recorded := byLabel["10/03/2026"]
	if recorded.Bordered {
		t.Fatal("the recording day itself is not bordered")
	}
	carried := byLabel["12/03/2026"]
	if !carried.Bordered {
		t.Fatal("carried weekly day should be bordered")
	}
	if carried.BorderColor != DefaultGradient[1] {
		t.Fatalf("border color = %q, want %q", carried.BorderColor, DefaultGradient[1])
	}
}

func TestReconstructEmptyWithoutRows(t *testing.T) {
	c := testCounter(store.CadenceNone, 0)
	entries := Reconstruct(c, nil, nil, calendar.DayMonthYear, now, DefaultGradient)
	if len(entries) == 0 {
		t.Fatal("creation epoch zero still yields a grid")
	}
}
