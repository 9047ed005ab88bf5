// Package calendar holds the date arithmetic shared by the rollover and
// history engines. Every comparison and day boundary is evaluated in UTC,
// matching how snapshots are stored.
package calendar

import "time"

// The three supported date layouts. Anything else falls back to DayMonthYear.
const (
	DayMonthYear = "dd/MM/yyyy"
	MonthDayYear = "MM/dd/yyyy"
	YearMonthDay = "yyyy/MM/dd"
)

const DayMillis = 24 * 60 * 60 * 1000

// FromMillis converts UTC epoch milliseconds to a UTC time.
func FromMillis(millis int64) time.Time {
	return time.UnixMilli(millis).UTC()
}

// DifferentDay reports whether two instants fall on different UTC calendar
// days.
func DifferentDay(a, b int64) bool {
	ta, tb := FromMillis(a), FromMillis(b)
	ya, ma, da := ta.Date()
	yb, mb, db := tb.Date()
	return ya != yb || ma != mb || da != db
}

// DifferentWeek reports whether two instants fall in different ISO weeks
// (weeks start on Monday).
func DifferentWeek(a, b int64) bool {
	ya, wa := FromMillis(a).ISOWeek()
	yb, wb := FromMillis(b).ISOWeek()
	return ya != yb || wa != wb
}

// FormatDate renders an instant's UTC wall-clock date under one of the three
// supported layouts.
func FormatDate(millis int64, pattern string) string {
	return FromMillis(millis).Format(goLayout(pattern))
}

func goLayout(pattern string) string {
	switch pattern {
	case MonthDayYear:
		return "01/02/2006"
	case YearMonthDay:
		return "2006/01/02"
	default:
		return "02/01/2006"
	}
}

// GridOffset returns the number of spacer cells needed before the given day in
// a Monday-first 7-column grid whose row already starts with a label cell, so
// the day lands in its weekday column.
func GridOffset(millis int64) int {
	wd := int(FromMillis(millis).Weekday()) // Sunday = 0
	return (wd + 6) % 7
}

// StartOfDay truncates an instant to UTC midnight.
func StartOfDay(millis int64) int64 {
	t := FromMillis(millis)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).UnixMilli()
}

// EndOfDay returns the last millisecond of the instant's UTC day, the upper
// bound of a history walk.
func EndOfDay(millis int64) int64 {
	return StartOfDay(millis) + DayMillis - 1
}

// IsMonday reports whether the instant falls on a Monday in UTC.
func IsMonday(millis int64) bool {
	return FromMillis(millis).Weekday() == time.Monday
}

// AddMonths shifts an instant by whole calendar months.
func AddMonths(millis int64, n int) int64 {
	return FromMillis(millis).AddDate(0, n, 0).UnixMilli()
}

// MonthsBetween counts how many month steps it takes to walk from a to b,
// rounding up. Zero when a is not before b.
func MonthsBetween(a, b int64) int {
	months := 0
	t := FromMillis(a)
	end := FromMillis(b)
	for t.Before(end) {
		t = t.AddDate(0, 1, 0)
		months++
	}
	return months
}

// MonthName returns the full English month name of the instant's UTC month.
func MonthName(millis int64) string {
	return FromMillis(millis).Month().String()
}

// Month returns the instant's UTC month.
func Month(millis int64) time.Month {
	return FromMillis(millis).Month()
}
