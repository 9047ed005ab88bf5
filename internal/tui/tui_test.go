package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/tally/internal/calendar"
	"github.com/sadopc/tally/internal/history"
	"github.com/sadopc/tally/internal/rollover"
	"github.com/sadopc/tally/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestApp(t *testing.T) (App, *store.Store) {
	t.Helper()
	s := newTestStore(t)
	return NewApp(s, rollover.New(s)), s
}

func intPtr(n int) *int { return &n }

// ============================================================
// Helper functions
// ============================================================

func TestFormatTarget(t *testing.T) {
	if got := formatTarget(nil); got != "—" {
		t.Fatalf("formatTarget(nil) = %q", got)
	}
	if got := formatTarget(intPtr(12)); got != "12" {
		t.Fatalf("formatTarget(12) = %q", got)
	}
}

func TestFormatCountOverTarget(t *testing.T) {
	if got := formatCountOverTarget(5, nil); got != "5" {
		t.Fatalf("without target = %q", got)
	}
	if got := formatCountOverTarget(5, intPtr(10)); got != "5/10" {
		t.Fatalf("with target = %q", got)
	}
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in   string
		want *int
	}{
		{"", nil},
		{"  ", nil},
		{"abc", nil},
		{"0", nil},
		{"-3", nil},
		{"10", intPtr(10)},
		{" 7 ", intPtr(7)},
	}
	for _, tt := range tests {
		got := parseTarget(tt.in)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("parseTarget(%q) = %d, want nil", tt.in, *got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Errorf("parseTarget(%q) = %v, want %d", tt.in, got, *tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate short = %q", got)
	}
	got := truncate("a very long counter name", 10)
	if len([]rune(got)) > 10 {
		t.Fatalf("truncate too long: %q", got)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("truncated string should end with ellipsis: %q", got)
	}
}

func TestMinMax(t *testing.T) {
	if min(3, 5) != 3 || min(5, 3) != 3 {
		t.Fatal("min broken")
	}
	if max(3, 5) != 5 || max(5, 3) != 5 {
		t.Fatal("max broken")
	}
}

// ============================================================
// View state
// ============================================================

func TestViewNames(t *testing.T) {
	if len(viewNames) != 3 {
		t.Fatalf("expected 3 view names, got %d", len(viewNames))
	}
	expected := []string{"Counters", "History", "Settings"}
	for i, name := range expected {
		if viewNames[i] != name {
			t.Fatalf("viewNames[%d] = %q, want %q", i, viewNames[i], name)
		}
	}
}

func TestViewStateConstants(t *testing.T) {
	if viewCounters != 0 || viewHistory != 1 || viewSettings != 2 {
		t.Fatal("view state constants out of order")
	}
}

// ============================================================
// Counters model
// ============================================================

func TestCountersDataClampsCursor(t *testing.T) {
	s := newTestStore(t)
	c := newCountersModel(s, rollover.New(s))
	c.cursor = 5

	c, _ = c.update(countersDataMsg{counters: []store.CounterWithCount{
		{Counter: store.Counter{ID: 1, Name: "Only"}},
	}})

	if c.cursor != 0 {
		t.Fatalf("cursor = %d, want clamped to 0", c.cursor)
	}
}

func TestCountersViewEmpty(t *testing.T) {
	s := newTestStore(t)
	c := newCountersModel(s, rollover.New(s))
	c.setSize(100, 30)

	view := c.view()
	if !strings.Contains(view, "No counters yet") {
		t.Fatal("empty list should hint at creating a counter")
	}
}

func TestCountersViewShowsCounts(t *testing.T) {
	s := newTestStore(t)
	c := newCountersModel(s, rollover.New(s))
	c.setSize(100, 30)
	c.counters = []store.CounterWithCount{
		{Counter: store.Counter{ID: 1, Name: "Pushups", Cadence: store.CadenceDaily, Target: intPtr(50)}, CurrentCount: 12},
	}

	view := c.view()
	if !strings.Contains(view, "Pushups") {
		t.Fatal("view should list the counter")
	}
	if !strings.Contains(view, "12/50") {
		t.Fatal("view should show count over target")
	}
	if !strings.Contains(view, "Daily") {
		t.Fatal("view should show the cadence")
	}
}

func TestCountersRefreshReadsShowArchivedSetting(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC().UnixMilli()
	s.CreateCounter("Active", "", store.CadenceNone, nil, now)
	archived, _ := s.CreateCounter("Old", "", store.CadenceNone, nil, now)
	s.SetCounterArchived(archived.ID, true)

	c := newCountersModel(s, rollover.New(s))

	msg := c.refresh()().(countersDataMsg)
	if msg.showArchived || len(msg.counters) != 1 {
		t.Fatalf("default refresh = %d counters (archived %v), want 1 active only",
			len(msg.counters), msg.showArchived)
	}

	// The persisted preference drives the list without any in-session toggle.
	s.SetSetting(store.SettingShowArchived, "1")
	msg = c.refresh()().(countersDataMsg)
	if !msg.showArchived || len(msg.counters) != 2 {
		t.Fatalf("refresh with preference set = %d counters (archived %v), want both",
			len(msg.counters), msg.showArchived)
	}
}

func TestArchivedTogglePersistsSetting(t *testing.T) {
	s := newTestStore(t)
	c := newCountersModel(s, rollover.New(s))

	c, cmd := c.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'v'}})
	if cmd == nil {
		t.Fatal("toggle should reload the list")
	}
	msg := cmd().(countersDataMsg)
	if !msg.showArchived {
		t.Fatal("toggle should enable archived visibility")
	}
	if v, _ := s.GetSetting(store.SettingShowArchived); v != "1" {
		t.Fatalf("setting = %q, want 1", v)
	}

	// Toggling back persists too.
	c, _ = c.update(msg)
	_, cmd = c.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'v'}})
	cmd()
	if v, _ := s.GetSetting(store.SettingShowArchived); v != "0" {
		t.Fatalf("setting = %q, want 0", v)
	}
}

func TestArchiveErrorSurfacesAsStatus(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC().UnixMilli()
	counter, _ := s.CreateCounter("A", "", store.CadenceNone, nil, now)

	c := newCountersModel(s, rollover.New(s))
	c.counters = []store.CounterWithCount{{Counter: *counter}}

	s.Close()
	_, cmd := c.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	if cmd == nil {
		t.Fatal("failed archive should report a status")
	}
	status, ok := cmd().(statusMsg)
	if !ok || !status.isError {
		t.Fatalf("msg = %+v, want error status", status)
	}
}

// ============================================================
// History cursor movement
// ============================================================

func gridEntries() []history.Entry {
	// month, 3 days, spacer, 2 days
	return []history.Entry{
		{Kind: history.KindMonth, Label: "January"},
		{Kind: history.KindDay, Label: "d1"},
		{Kind: history.KindDay, Label: "d2"},
		{Kind: history.KindDay, Label: "d3"},
		{Kind: history.KindSpacer},
		{Kind: history.KindDay, Label: "d4"},
		{Kind: history.KindDay, Label: "d5"},
	}
}

func TestLastDayIndex(t *testing.T) {
	entries := gridEntries()
	if got := lastDayIndex(entries); got != 6 {
		t.Fatalf("lastDayIndex = %d, want 6", got)
	}
	if got := lastDayIndex(nil); got != -1 {
		t.Fatalf("lastDayIndex(nil) = %d, want -1", got)
	}
}

func TestPrevNextDayIndex(t *testing.T) {
	entries := gridEntries()

	// Moving right from d3 skips the spacer to d4.
	if got := nextDayIndex(entries, 3); got != 5 {
		t.Fatalf("nextDayIndex = %d, want 5", got)
	}
	// Moving left from d4 skips the spacer back to d3.
	if got := prevDayIndex(entries, 5); got != 3 {
		t.Fatalf("prevDayIndex = %d, want 3", got)
	}
	// At the edges the cursor stays put.
	if got := prevDayIndex(entries, 1); got != 1 {
		t.Fatalf("prevDayIndex at edge = %d, want 1", got)
	}
	if got := nextDayIndex(entries, 6); got != 6 {
		t.Fatalf("nextDayIndex at edge = %d, want 6", got)
	}
}

func TestStepDayIndexOutOfRange(t *testing.T) {
	entries := gridEntries()
	if got := stepDayIndex(entries, 1, -gridRowLen); got != 1 {
		t.Fatalf("stepping above the grid moved to %d", got)
	}
	if got := stepDayIndex(entries, 6, gridRowLen); got != 6 {
		t.Fatalf("stepping below the grid moved to %d", got)
	}
}

// ============================================================
// History count edits
// ============================================================

func TestApplyCountEditSemantics(t *testing.T) {
	s := newTestStore(t)
	counter, _ := s.CreateCounter("A", "", store.CadenceNone, nil, time.Now().UTC().UnixMilli())
	day := time.Date(2026, 6, 2, 12, 0, 0, 0, time.UTC).UnixMilli()
	s.InsertSnapshot(store.Snapshot{CounterID: counter.ID, Count: 5, RecordedAt: day})

	h := newHistoryModel(s)
	h.counterID = counter.ID
	h.formDay = day

	// A differing value becomes the day's correction.
	h.applyCountEdit("8")()
	sn, _ := s.SnapshotByDay(counter.ID, day)
	if sn.EditedCount == nil || *sn.EditedCount != 8 {
		t.Fatalf("edited = %v, want 8", sn.EditedCount)
	}

	// Re-entering the original stored count clears it.
	h.applyCountEdit("5")()
	sn, _ = s.SnapshotByDay(counter.ID, day)
	if sn.EditedCount != nil {
		t.Fatalf("edited = %v, want cleared", sn.EditedCount)
	}

	// Zero on a day with a recorded count keeps the row as a correction.
	h.applyCountEdit("0")()
	sn, _ = s.SnapshotByDay(counter.ID, day)
	if sn == nil {
		t.Fatal("zero must not delete a day with a recorded count")
	}
	if sn.Count != 5 || sn.EditedCount == nil || *sn.EditedCount != 0 {
		t.Fatalf("row = %+v, want recorded 5 corrected to 0", sn)
	}

	// Zero on a row already at count zero collapses it back to nothing.
	day2 := time.Date(2026, 6, 3, 12, 0, 0, 0, time.UTC).UnixMilli()
	s.InsertSnapshot(store.Snapshot{CounterID: counter.ID, Count: 0, RecordedAt: day2, EditedCount: intPtr(3)})
	h.formDay = day2
	h.applyCountEdit("0")()
	sn, _ = s.SnapshotByDay(counter.ID, day2)
	if sn != nil {
		t.Fatalf("row = %+v, want zero-count row deleted", sn)
	}

	// Zero on a day with no row writes nothing.
	day3 := time.Date(2026, 6, 4, 12, 0, 0, 0, time.UTC).UnixMilli()
	h.formDay = day3
	h.applyCountEdit("0")()
	if sn, _ = s.SnapshotByDay(counter.ID, day3); sn != nil {
		t.Fatalf("row = %+v, want none", sn)
	}

	// Editing a day with no row inserts one carrying the correction.
	h.formEntry = history.Entry{Target: intPtr(10)}
	h.applyCountEdit("4")()
	sn, _ = s.SnapshotByDay(counter.ID, day3)
	if sn == nil {
		t.Fatal("edit should insert a row for a synthesized day")
	}
	if sn.Count != 0 || sn.EditedCount == nil || *sn.EditedCount != 4 {
		t.Fatalf("inserted row = %+v, want count 0 with correction 4", sn)
	}
	if sn.Target == nil || *sn.Target != 10 {
		t.Fatalf("inserted row target = %v, want 10", sn.Target)
	}
}

func TestApplyCountEditZeroShowsZeroInGrid(t *testing.T) {
	// Correcting a recorded day down to zero must display zero in the grid;
	// a deleted row would make the walk carry the previous day's value in.
	s := newTestStore(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	counter, _ := s.CreateCounter("A", "", store.CadenceNone, nil, created)
	s.InsertSnapshot(store.Snapshot{CounterID: counter.ID, Count: 7,
		RecordedAt: time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC).UnixMilli()})
	day := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC).UnixMilli()
	s.InsertSnapshot(store.Snapshot{CounterID: counter.ID, Count: 5, RecordedAt: day})

	h := newHistoryModel(s)
	h.counterID = counter.ID
	h.formDay = day
	h.applyCountEdit("0")()

	if sn, _ := s.SnapshotByDay(counter.ID, day); sn == nil {
		t.Fatal("recorded day must survive a zero correction")
	}

	snapshots, _ := s.ListSnapshots(counter.ID)
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC).UnixMilli()
	entries := history.Reconstruct(*counter, snapshots, nil, calendar.DayMonthYear, now, history.DefaultGradient)
	for _, e := range entries {
		if e.IsDay() && e.Label == "14/03/2026" {
			if e.Count != 0 {
				t.Fatalf("corrected day shows %d, want 0", e.Count)
			}
			return
		}
	}
	t.Fatal("corrected day missing from the grid")
}

// ============================================================
// App model
// ============================================================

func TestNewApp(t *testing.T) {
	app, _ := newTestApp(t)

	if app.activeView != viewCounters {
		t.Fatal("default view should be counters")
	}
	if app.showHelp {
		t.Fatal("help should be hidden by default")
	}
	if app.exportPicking {
		t.Fatal("export picker should be hidden by default")
	}
}

func TestAppIsFormActiveDefault(t *testing.T) {
	app, _ := newTestApp(t)
	if app.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
}

func TestAppViewStates(t *testing.T) {
	app, _ := newTestApp(t)
	app.width = 120
	app.height = 40

	for _, v := range []viewState{viewCounters, viewHistory, viewSettings} {
		app.activeView = v
		if output := app.View(); output == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppLoadingState(t *testing.T) {
	app, _ := newTestApp(t)
	if output := app.View(); output != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", output)
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	app, _ := newTestApp(t)
	app.width = 120
	app.height = 40

	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppStatusMessage(t *testing.T) {
	app, _ := newTestApp(t)
	app.width = 120
	app.height = 40
	app.status = "test status"

	if footer := app.renderFooter(); !strings.Contains(footer, "test status") {
		t.Fatal("footer should contain status message")
	}
}

func TestAppRolloverDoneRecordsError(t *testing.T) {
	app, _ := newTestApp(t)

	model, _ := app.Update(rolloverDoneMsg{err: errFake})
	app = model.(App)
	if !app.isError || app.status == "" {
		t.Fatal("rollover failure should surface in the status line")
	}
}

var errFake = &fakeError{}

type fakeError struct{}

func (*fakeError) Error() string { return "boom" }

func TestAppExportPickerRender(t *testing.T) {
	app, _ := newTestApp(t)
	app.width = 120
	app.height = 40
	app.exportPicking = true

	view := app.View()
	if !strings.Contains(view, "CSV") || !strings.Contains(view, "JSON") {
		t.Fatal("export picker should offer CSV and JSON")
	}
}

// ============================================================
// Settings model
// ============================================================

func TestSettingsLoadsStoredValues(t *testing.T) {
	s := newTestStore(t)
	s.SetSetting(store.SettingDynamicColor, "1")
	s.SetSetting(store.SettingAccentColor, "#2ECC71")

	m := newSettingsModel(s)
	settings, _ := s.GetAllSettings()
	m, _ = m.update(settingsDataMsg{settings: settings})

	if !*m.dynamicColor {
		t.Fatal("dynamic color should be on")
	}
	if *m.accentColor != "#2ECC71" {
		t.Fatalf("accent = %q", *m.accentColor)
	}
}

func TestSettingsPreviewRenders(t *testing.T) {
	s := newTestStore(t)
	m := newSettingsModel(s)
	if m.renderPreview() == "" {
		t.Fatal("gradient preview should render")
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles (smoke test — just verify they don't panic)
// ============================================================

func TestStylesRender(t *testing.T) {
	styles := []struct {
		name string
		fn   func() string
	}{
		{"activeTab", func() string { return activeTabStyle.Render("test") }},
		{"inactiveTab", func() string { return inactiveTabStyle.Render("test") }},
		{"panel", func() string { return panelStyle.Render("test") }},
		{"activePanel", func() string { return activePanelStyle.Render("test") }},
		{"title", func() string { return titleStyle.Render("test") }},
		{"accent", func() string { return accentStyle.Render("test") }},
		{"success", func() string { return successStyle.Render("test") }},
		{"warning", func() string { return warningStyle.Render("test") }},
		{"error", func() string { return errorStyle.Render("test") }},
		{"muted", func() string { return mutedStyle.Render("test") }},
		{"highlight", func() string { return highlightStyle.Render("test") }},
		{"header", func() string { return headerStyle.Render("test") }},
		{"footer", func() string { return footerStyle.Render("test") }},
		{"selectedItem", func() string { return selectedItemStyle.Render("test") }},
		{"normalItem", func() string { return normalItemStyle.Render("test") }},
		{"monthLabel", func() string { return monthLabelStyle.Render("test") }},
		{"selectedCell", func() string { return selectedCellStyle.Render("test") }},
	}

	for _, s := range styles {
		if s.fn() == "" {
			t.Fatalf("style %q rendered empty", s.name)
		}
	}
}

func TestCellStyle(t *testing.T) {
	if cellStyle("#FF0000").Render("██") == "" {
		t.Fatal("colored cell rendered empty")
	}
	if cellStyle("").Render("██") != "██" {
		t.Fatal("transparent cells render unstyled")
	}
}
