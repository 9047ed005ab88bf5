package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tally/internal/calendar"
	"github.com/sadopc/tally/internal/history"
	"github.com/sadopc/tally/internal/store"
)

const gridRowLen = 8 // month/spacer slot plus seven day columns

type historyModel struct {
	store  *store.Store
	width  int
	height int

	counterID  int64
	counter    *store.Counter
	entries    []history.Entry
	stats      []history.Stat
	dateFormat string
	notes      map[string]string

	cursor int // index into entries, always a day cell
	chart  barchart.Model

	formActive bool
	form       *huh.Form
	formType   string // "count", "note"
	formValue  *string
	formDay    int64
	formEntry  history.Entry
}

func newHistoryModel(s *store.Store) historyModel {
	value := ""
	return historyModel{
		store:     s,
		chart:     barchart.New(60, 10),
		formValue: &value,
	}
}

func (h *historyModel) setSize(w, ht int) {
	h.width = w
	h.height = ht
}

// load reconstructs the selected counter's grid and statistics.
func (h historyModel) load(counterID int64) tea.Cmd {
	st := h.store
	return func() tea.Msg {
		counter, err := st.CounterByID(counterID)
		if err != nil || counter == nil {
			return statusMsg{text: "Counter not found", isError: true}
		}

		snapshots, err := st.ListSnapshots(counterID)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load error: %v", err), isError: true}
		}
		noteRows, _ := st.ListNotes(counterID)

		dateFormat, _ := st.GetSetting(store.SettingDateFormat)
		dynamic, _ := st.GetSetting(store.SettingDynamicColor)
		accent, _ := st.GetSetting(store.SettingAccentColor)
		palette := history.ActivePalette(dynamic == "1", accent)

		entries := history.Reconstruct(*counter, snapshots, noteRows, dateFormat, history.Today(), palette)
		stats := history.Overview(entries, counter.Cadence, counter.Target != nil)

		notes := make(map[string]string, len(noteRows))
		for _, n := range noteRows {
			notes[calendar.FormatDate(n.RecordedAt, dateFormat)] = n.Body
		}

		return historyDataMsg{
			counter:    counter,
			entries:    entries,
			stats:      stats,
			dateFormat: dateFormat,
			notes:      notes,
		}
	}
}

func (h historyModel) refresh() tea.Cmd {
	if h.counterID == 0 {
		return nil
	}
	return h.load(h.counterID)
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	if h.formActive && h.form != nil {
		return h.updateForm(msg)
	}

	switch msg := msg.(type) {
	case counterOpenedMsg:
		h.counterID = msg.counterID
		return h, h.load(msg.counterID)

	case historyDataMsg:
		h.counter = msg.counter
		h.counterID = msg.counter.ID
		h.entries = msg.entries
		h.stats = msg.stats
		h.dateFormat = msg.dateFormat
		h.notes = msg.notes
		h.cursor = lastDayIndex(h.entries)
		h.buildChart()
		return h, nil

	case tea.KeyMsg:
		return h.updateKeys(msg)
	}
	return h, nil
}

func (h historyModel) updateKeys(msg tea.KeyMsg) (historyModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Left):
		h.cursor = prevDayIndex(h.entries, h.cursor)
	case key.Matches(msg, keys.Right):
		h.cursor = nextDayIndex(h.entries, h.cursor)
	case key.Matches(msg, keys.Up):
		h.cursor = stepDayIndex(h.entries, h.cursor, -gridRowLen)
	case key.Matches(msg, keys.Down):
		h.cursor = stepDayIndex(h.entries, h.cursor, gridRowLen)
	case key.Matches(msg, keys.Increment):
		return h, h.adjust(1)
	case key.Matches(msg, keys.Decrement):
		return h, h.adjust(-1)
	case key.Matches(msg, keys.Edit):
		return h.showCountForm()
	case key.Matches(msg, keys.Note):
		return h.showNoteForm()
	}
	return h, nil
}

func (h historyModel) adjust(delta int) tea.Cmd {
	if h.counter == nil {
		return nil
	}
	st := h.store
	id := h.counterID
	load := h.load(id)
	return func() tea.Msg {
		now := time.Now().UTC().UnixMilli()
		if err := st.AdjustCurrentCount(id, delta, now); err != nil {
			return statusMsg{text: fmt.Sprintf("Update error: %v", err), isError: true}
		}
		return load()
	}
}

// showCountForm opens the per-day count correction dialog for the selected
// cell.
func (h historyModel) showCountForm() (historyModel, tea.Cmd) {
	if h.cursor < 0 || h.cursor >= len(h.entries) || !h.entries[h.cursor].IsDay() {
		return h, nil
	}
	entry := h.entries[h.cursor]
	*h.formValue = strconv.Itoa(entry.Count)
	h.formType = "count"
	h.formDay = entry.Day
	h.formEntry = entry

	h.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("Count on %s", entry.Label)).
				Description("The recorded value clears a correction.").
				Value(h.formValue).
				Validate(func(s string) error {
					if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("enter a whole number")
					}
					return nil
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)

	h.formActive = true
	return h, h.form.Init()
}

func (h historyModel) showNoteForm() (historyModel, tea.Cmd) {
	if h.cursor < 0 || h.cursor >= len(h.entries) || !h.entries[h.cursor].IsDay() {
		return h, nil
	}
	entry := h.entries[h.cursor]
	*h.formValue = h.notes[entry.Label]
	h.formType = "note"
	h.formDay = entry.Day

	h.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title(fmt.Sprintf("Note for %s", entry.Label)).
				Description("Leave empty to delete the note.").
				Value(h.formValue),
		),
	).WithShowHelp(true).WithShowErrors(true)

	h.formActive = true
	return h, h.form.Init()
}

func (h historyModel) updateForm(msg tea.Msg) (historyModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			h.formActive = false
			h.form = nil
			return h, nil
		}
	}

	form, cmd := h.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		h.form = f
	}

	if h.form.State == huh.StateCompleted {
		h.formActive = false
		switch h.formType {
		case "count":
			return h, h.applyCountEdit(*h.formValue)
		case "note":
			st := h.store
			id := h.counterID
			day := h.formDay
			body := strings.TrimSpace(*h.formValue)
			load := h.load(id)
			return h, func() tea.Msg {
				if err := st.SaveNote(id, day, body); err != nil {
					return statusMsg{text: fmt.Sprintf("Note error: %v", err), isError: true}
				}
				return load()
			}
		}
	}
	return h, cmd
}

// applyCountEdit stores a manual correction for the selected day. The row is
// deleted only when the edit collapses the day back to its initial state
// (recorded count zero, correction gone); the original stored count clears any
// earlier correction; anything else becomes the day's edited count. Days that
// only ever existed synthesized get a zero-count row carrying the correction.
func (h historyModel) applyCountEdit(raw string) tea.Cmd {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}

	st := h.store
	id := h.counterID
	day := h.formDay
	entry := h.formEntry
	load := h.load(id)

	return func() tea.Msg {
		sn, err := st.SnapshotByDay(id, day)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Edit error: %v", err), isError: true}
		}

		switch {
		case sn == nil && value == 0:
			// Nothing recorded for the day, nothing to correct.
		case sn == nil:
			_, err = st.InsertSnapshot(store.Snapshot{
				CounterID:   id,
				Count:       0,
				RecordedAt:  day,
				Target:      entry.Target,
				EditedCount: &value,
			})
		case value == 0 && sn.Count == 0:
			err = st.DeleteSnapshotByDay(id, day)
		case value == sn.Count:
			err = st.UpdateSnapshotEditedCount(id, day, nil)
		default:
			err = st.UpdateSnapshotEditedCount(id, day, &value)
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Edit error: %v", err), isError: true}
		}
		return load()
	}
}

// buildChart charts the trailing month of real days.
func (h *historyModel) buildChart() {
	chartWidth := h.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	h.chart = barchart.New(chartWidth, 8)

	days := make([]history.Entry, 0, 30)
	for i := len(h.entries) - 1; i >= 0 && len(days) < 30; i-- {
		if h.entries[i].IsDay() {
			days = append(days, h.entries[i])
		}
	}

	var bars []barchart.BarData
	for i := len(days) - 1; i >= 0; i-- {
		e := days[i]
		style := cellStyle(e.Color)
		if e.Color == "" {
			style = lipgloss.NewStyle().Foreground(colorSubtle)
		}
		bars = append(bars, barchart.BarData{
			Label: calendar.FromMillis(e.Day).Format("02"),
			Values: []barchart.BarValue{
				{Name: e.Label, Value: float64(e.Count), Style: style},
			},
		})
	}

	h.chart.PushAll(bars)
	h.chart.Draw()
}

func (h historyModel) view() string {
	w := h.width - 4

	if h.counter == nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("History"),
			"",
			mutedStyle.Render("Select a counter on the Counters tab and press enter."),
		)
		return panelStyle.Width(w).Render(content)
	}

	if h.formActive && h.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(h.counter.Name),
			"",
			h.form.View(),
		)
		return panelStyle.Width(w).Render(content)
	}

	name := h.counter.Name
	if h.counter.Icon != "" {
		name = h.counter.Icon + " " + name
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render(name),
		"  ",
		mutedStyle.Render(h.counter.Cadence.Label()),
		"  ",
		mutedStyle.Render("target "+formatTarget(h.counter.Target)),
	)

	var rows []string
	rows = append(rows, header)
	rows = append(rows, "")
	rows = append(rows, h.renderStats())
	rows = append(rows, "")
	rows = append(rows, h.renderGrid())
	rows = append(rows, "")
	rows = append(rows, h.renderSelection())
	rows = append(rows, "")
	rows = append(rows, h.chart.View())
	rows = append(rows, mutedStyle.Render("←→↑↓: move  +/-: count  e: edit day  o: note  E: export"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (h historyModel) renderStats() string {
	if len(h.stats) == 0 {
		return mutedStyle.Render("No statistics yet")
	}
	parts := make([]string, 0, len(h.stats))
	for _, s := range h.stats {
		parts = append(parts, lipgloss.JoinVertical(lipgloss.Center,
			highlightStyle.Bold(true).Render(s.Value),
			mutedStyle.Render(s.Label),
		))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, insertGaps(parts, "   ")...)
}

// renderGrid draws the reconstructed entries as calendar rows: a month or
// spacer slot followed by seven day cells, Monday first.
func (h historyModel) renderGrid() string {
	if len(h.entries) == 0 {
		return mutedStyle.Render("No history yet")
	}

	var lines []string
	lines = append(lines, mutedStyle.Render(fmt.Sprintf("%-5s %s", "", "Mo Tu We Th Fr Sa Su")))

	for rowStart := 0; rowStart < len(h.entries); rowStart += gridRowLen {
		rowEnd := min(rowStart+gridRowLen, len(h.entries))
		var cells []string
		for i := rowStart; i < rowEnd; i++ {
			cells = append(cells, h.renderCell(i))
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return strings.Join(lines, "\n")
}

func (h historyModel) renderCell(i int) string {
	e := h.entries[i]
	switch e.Kind {
	case history.KindMonth:
		label := e.Label
		if len(label) > 3 {
			label = label[:3]
		}
		return monthLabelStyle.Render(fmt.Sprintf("%-5s", label))
	case history.KindSpacer:
		if i%gridRowLen == 0 {
			return "     "
		}
		return "  "
	}

	glyph := "██"
	if e.Bordered {
		glyph = "▓▓"
	}
	cell := cellStyle(e.Color).Render(glyph)
	if e.Bordered && e.BorderColor != "" {
		cell = cellStyle(e.BorderColor).Render(glyph)
	}
	if i == h.cursor {
		cell = selectedCellStyle.Render(glyph)
	}
	if e.HasNote {
		return cell + accentStyle.Render("·")
	}
	return cell
}

func (h historyModel) renderSelection() string {
	if h.cursor < 0 || h.cursor >= len(h.entries) || !h.entries[h.cursor].IsDay() {
		return ""
	}
	e := h.entries[h.cursor]
	line := fmt.Sprintf("%s  %s", e.Label, formatCountOverTarget(e.Count, e.Target))
	if note, ok := h.notes[e.Label]; ok {
		line += "  " + mutedStyle.Render("✎ "+note)
	}
	return highlightStyle.Render(line)
}

// --- cursor helpers ---

func lastDayIndex(entries []history.Entry) int {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].IsDay() {
			return i
		}
	}
	return -1
}

func prevDayIndex(entries []history.Entry, from int) int {
	for i := from - 1; i >= 0; i-- {
		if entries[i].IsDay() {
			return i
		}
	}
	return from
}

func nextDayIndex(entries []history.Entry, from int) int {
	for i := from + 1; i < len(entries); i++ {
		if entries[i].IsDay() {
			return i
		}
	}
	return from
}

// stepDayIndex jumps a whole grid row up or down, then settles on the nearest
// day cell.
func stepDayIndex(entries []history.Entry, from, step int) int {
	i := from + step
	if i < 0 || i >= len(entries) {
		return from
	}
	if entries[i].IsDay() {
		return i
	}
	if j := nextDayIndex(entries, i); j != i && j < from+step+gridRowLen {
		return j
	}
	return from
}

func insertGaps(parts []string, gap string) []string {
	out := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			out = append(out, gap)
		}
		out = append(out, p)
	}
	return out
}
