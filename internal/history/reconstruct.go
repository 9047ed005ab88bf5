package history

import (
	"time"

	"github.com/sadopc/tally/internal/calendar"
	"github.com/sadopc/tally/internal/store"
)

// dayRow is one day of the dense sequence before grid processing. Synthesized
// days have a nil snapshotID.
type dayRow struct {
	snapshotID *int64
	key        string // formatted date, the snapshot matching key
	day        int64
	count      int
	target     *int
	edited     *int
}

func (r dayRow) value() int {
	if r.edited != nil {
		return *r.edited
	}
	return r.count
}

// Reconstruct expands a counter's sparse snapshots into the full grid: one
// entry per calendar day from the computed start date through today, plus the
// month-header and spacer cells the 7-column layout needs. Pure function; safe
// to call concurrently for different counters.
func Reconstruct(counter store.Counter, snapshots []store.Snapshot, notes []store.Note, dateFormat string, nowMillis int64, palette []string) []Entry {
	rows := denseRows(counter, snapshots, dateFormat, nowMillis)
	if len(rows) == 0 {
		return nil
	}

	noteDays := make(map[string]bool, len(notes))
	for _, n := range notes {
		noteDays[calendar.FormatDate(n.RecordedAt, dateFormat)] = true
	}

	offset := calendar.GridOffset(rows[0].day)
	out := make([]Entry, 0, len(rows)+len(rows)/7+offset+2)

	// The first grid row opens with its month label and enough spacers to put
	// day one in its weekday column.
	out = append(out, Entry{Kind: KindMonth, Label: calendar.MonthName(rows[0].day)})
	for i := 0; i < offset; i++ {
		out = append(out, Entry{Kind: KindSpacer})
	}
	prevMonth := calendar.Month(rows[0].day)

	// Carried across the walk: the previous effective count and border color.
	prevCount := 0
	prevColor := ColorTransparent

	for i, row := range rows {
		if (i+offset)%7 == 0 && i > 0 {
			// Header slot of the next grid week: a month label when the
			// upcoming week's anchor day changes month, a spacer otherwise.
			if i+7 < len(rows) {
				anchor := rows[i+7]
				if m := calendar.Month(anchor.day); m != prevMonth {
					out = append(out, Entry{Kind: KindMonth, Label: calendar.MonthName(anchor.day)})
					prevMonth = m
				} else {
					out = append(out, Entry{Kind: KindSpacer})
				}
			} else {
				out = append(out, Entry{Kind: KindMonth})
			}
		}

		value := row.value()
		var color string
		switch {
		case counter.Cadence == store.CadenceDaily:
			color = BucketColor(value, row.target, palette)
		case value != prevCount && value != 0:
			color = BucketColor(value, row.target, palette)
		case counter.Cadence == store.CadenceWeekly && i > 1 &&
			calendar.DifferentWeek(rows[i-1].day, row.day):
			color = BucketColor(value, row.target, palette)
		case value == 0 && prevCount > 0 && counter.Cadence != store.CadenceWeekly:
			color = colorCarryBreak
		default:
			color = ColorEmpty
		}

		borderColor := prevColor
		if counter.Cadence == store.CadenceWeekly && value != prevCount && value != 0 {
			borderColor = BucketColor(value, row.target, palette)
		}

		out = append(out, Entry{
			Kind:        KindDay,
			SnapshotID:  row.snapshotID,
			Label:       row.key,
			Day:         row.day,
			Count:       value,
			Target:      row.target,
			Color:       color,
			HasNote:     noteDays[row.key],
			Bordered:    counter.Cadence == store.CadenceWeekly && prevCount == value && value != 0,
			BorderColor: borderColor,
		})

		prevCount = value
		prevColor = borderColor
	}

	return out
}

// denseRows walks day by day from the computed start date through the end of
// today, matching snapshots by formatted-date key and synthesizing the gaps
// with cadence-dependent carry or reset values.
func denseRows(counter store.Counter, snapshots []store.Snapshot, dateFormat string, nowMillis int64) []dayRow {
	end := calendar.EndOfDay(nowMillis)

	// Short histories get a two-month pad behind the creation date so the
	// grid has enough rows to fill the view.
	var start int64
	if calendar.MonthsBetween(counter.CreatedAt, end) < 2 {
		start = calendar.AddMonths(counter.CreatedAt, -2)
	} else {
		start = counter.CreatedAt
		if len(snapshots) > 0 && snapshots[0].RecordedAt < start {
			start = snapshots[0].RecordedAt
		}
	}

	byKey := make(map[string]store.Snapshot, len(snapshots))
	for _, sn := range snapshots {
		key := calendar.FormatDate(sn.RecordedAt, dateFormat)
		// Cleanup keeps one row per day; before it runs, the earliest wins.
		if _, ok := byKey[key]; !ok {
			byKey[key] = sn
		}
	}

	var rows []dayRow
	var prevValue *int
	var prevTarget *int

	for day := calendar.StartOfDay(start); day < end; day += calendar.DayMillis {
		key := calendar.FormatDate(day, dateFormat)

		if sn, ok := byKey[key]; ok {
			switch {
			case sn.EditedCount != nil:
				prevValue = sn.EditedCount
			case sn.Count != 0:
				c := sn.Count
				prevValue = &c
			}
			prevTarget = sn.Target
			id := sn.ID
			rows = append(rows, dayRow{
				snapshotID: &id,
				key:        key,
				day:        sn.RecordedAt,
				count:      sn.Count,
				target:     sn.Target,
				edited:     sn.EditedCount,
			})
			continue
		}

		count := 0
		switch counter.Cadence {
		case store.CadenceNone:
			if prevValue != nil {
				count = *prevValue
			}
		case store.CadenceDaily:
			count = 0
		case store.CadenceWeekly:
			if calendar.IsMonday(day) {
				zero := 0
				prevValue = &zero
			} else if prevValue != nil {
				count = *prevValue
			}
		}
		rows = append(rows, dayRow{
			key:    key,
			day:    day,
			count:  count,
			target: prevTarget,
		})
	}
	return rows
}

// Today returns the current instant in UTC epoch millis, the "now" bound the
// engines expect.
func Today() int64 {
	return time.Now().UTC().UnixMilli()
}
