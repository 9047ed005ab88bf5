package history

import (
	"fmt"
	"math"
	"strconv"

	"github.com/sadopc/tally/internal/store"
)

// Overview derives the summary statistics for a reconstructed grid. The
// entries must be the full grid (headers and spacers included): the weekly
// computations stride over the fixed 8-slot-per-week layout, sampling each
// week's closing value.
func Overview(entries []Entry, cadence store.Cadence, hasTarget bool) []Stat {
	if len(entries) == 0 {
		return nil
	}

	var stats []Stat
	switch cadence {
	case store.CadenceNone:
		last := entries[len(entries)-1]
		stats = append(stats, Stat{Value: strconv.Itoa(last.Count), Label: "Total Count"})
		if hasTarget {
			pct := 0.0
			if last.Target != nil && *last.Target != 0 {
				pct = float64(last.Count) / float64(*last.Target) * 100
			}
			stats = append(stats, Stat{
				Value: fmt.Sprintf("%d%%", int(math.Round(pct))),
				Label: "% of target",
			})
		}

	case store.CadenceDaily:
		total := 0
		for _, e := range entries {
			total += e.Count
		}
		stats = append(stats, Stat{Value: strconv.Itoa(total), Label: "Total Count"})
		stats = append(stats, Stat{Value: formatAverage(dailyAverage(entries, total)), Label: "Avg per day"})

		if start := firstNonZeroIndex(entries); hasTarget && start >= 0 {
			stats = append(stats, Stat{
				Value: strconv.Itoa(dailyLongestStreak(entries, start)),
				Label: "Longest Streak",
			})
		}

	case store.CadenceWeekly:
		stats = append(stats, Stat{Value: strconv.Itoa(weeklyTotal(entries)), Label: "Total Count"})
		stats = append(stats, Stat{Value: formatAverage(weeklyAverage(entries)), Label: "Avg per week"})
		if hasTarget {
			stats = append(stats, Stat{
				Value: strconv.Itoa(weeklyLongestStreak(entries)),
				Label: "Longest Streak",
			})
		}
	}
	return stats
}

func firstNonZeroIndex(entries []Entry) int {
	for i, e := range entries {
		if e.Count > 0 {
			return i
		}
	}
	return -1
}

// dailyAverage divides the total by the number of real days from the first
// non-zero day through today. Layout cells are not days and do not count.
func dailyAverage(entries []Entry, total int) float64 {
	start := -1
	for i, e := range entries {
		if e.Count != 0 {
			start = i
			break
		}
	}
	if start < 0 {
		return float64(total)
	}

	days := 0
	for _, e := range entries[start:] {
		if e.Color != ColorTransparent {
			days++
		}
	}
	if days == 0 {
		return 0
	}
	return float64(total) / float64(days)
}

// dailyLongestStreak finds the longest run of consecutive days meeting the
// target, starting at the first non-zero day. Header and spacer cells are
// skipped rather than treated as misses, so a streak survives week rollovers.
func dailyLongestStreak(entries []Entry, start int) int {
	longest, current := 0, 0
	for _, e := range entries[start:] {
		if !e.IsDay() {
			continue
		}
		if e.Target != nil && e.Count >= *e.Target {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 0
		}
	}
	return longest
}

// Weekly statistics sample one value per week from the grid: with the label
// cell in slot 0 of each row, index 7 is the first complete week's Sunday and
// every 8th entry after it is the next one.

func weeklyTotal(entries []Entry) int {
	total := 0
	i := 7
	if i < len(entries) {
		total += entries[i].Count
	}
	for i+8 < len(entries) {
		i += 8
		total += entries[i].Count
	}
	// Trailing partial week: today's value stands in for its Sunday.
	if i < len(entries)-1 {
		total += entries[len(entries)-1].Count
	}
	return total
}

func weeklyAverage(entries []Entry) float64 {
	total, weeks := 0, 0
	started := false

	i := 7
	for i < len(entries) {
		if c := entries[i].Count; c > 0 {
			total += c
			weeks++
			started = true
		} else if started {
			// Zero weeks after counting has begun still dilute the average.
			weeks++
		}
		i += 8
	}
	if i > len(entries)-1 {
		total += entries[len(entries)-1].Count
		weeks++
	}

	if weeks == 0 {
		return 0
	}
	return float64(total) / float64(weeks)
}

func weeklyLongestStreak(entries []Entry) int {
	longest, current := 0, 0

	// Skip leading weeks with no target on record.
	i := 7
	for i < len(entries) && entries[i].Target == nil {
		i += 8
	}

	for i+8 < len(entries) {
		i += 8
		target := entries[i].Target
		if target == nil {
			continue
		}
		if entries[i].Count >= *target {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 0
		}
	}

	// Trailing partial week.
	if i < len(entries)-1 {
		last := entries[len(entries)-1]
		if last.Target != nil && last.Count >= *last.Target {
			current++
			if current > longest {
				longest = current
			}
		}
	}
	return longest
}

// formatAverage renders whole numbers as integers and everything else to two
// decimal places.
func formatAverage(f float64) string {
	if f == math.Trunc(f) {
		return strconv.Itoa(int(f))
	}
	return fmt.Sprintf("%.2f", f)
}
