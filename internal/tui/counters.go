package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tally/internal/rollover"
	"github.com/sadopc/tally/internal/store"
)

type countersModel struct {
	store  *store.Store
	engine *rollover.Engine
	width  int
	height int

	counters     []store.CounterWithCount
	cursor       int
	showArchived bool
	confirming   bool // delete confirmation pending

	formActive bool
	form       *huh.Form
	formType   string // "new", "edit"

	// Form field pointers (survive value copies)
	formName    *string
	formIcon    *string
	formCadence *string
	formTarget  *string

	editingID int64
}

func newCountersModel(s *store.Store, eng *rollover.Engine) countersModel {
	name, icon, cadence, target := "", "", string(store.CadenceNone), ""
	return countersModel{
		store:       s,
		engine:      eng,
		formName:    &name,
		formIcon:    &icon,
		formCadence: &cadence,
		formTarget:  &target,
	}
}

func (c *countersModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

// refresh reloads the list, honoring the persisted archived-visibility
// preference.
func (c countersModel) refresh() tea.Cmd {
	st := c.store
	return func() tea.Msg {
		v, _ := st.GetSetting(store.SettingShowArchived)
		showArchived := v == "1"
		counters, _ := st.ListCountersWithCount(showArchived)
		return countersDataMsg{counters: counters, showArchived: showArchived}
	}
}

// adjust applies a +/- delta to the selected counter's open day and reloads.
func (c countersModel) adjust(delta int) tea.Cmd {
	if c.cursor >= len(c.counters) {
		return nil
	}
	sel := c.counters[c.cursor]
	showArchived := c.showArchived
	return func() tea.Msg {
		if sel.SnapshotID == nil {
			// No current row yet; let the rollover engine create it first.
			if err := c.engine.Run(); err != nil {
				return statusMsg{text: fmt.Sprintf("Rollover error: %v", err), isError: true}
			}
		}
		now := time.Now().UTC().UnixMilli()
		if err := c.store.AdjustCurrentCount(sel.ID, delta, now); err != nil {
			return statusMsg{text: fmt.Sprintf("Update error: %v", err), isError: true}
		}
		counters, _ := c.store.ListCountersWithCount(showArchived)
		return countersDataMsg{counters: counters, showArchived: showArchived}
	}
}

func (c countersModel) update(msg tea.Msg) (countersModel, tea.Cmd) {
	if c.formActive && c.form != nil {
		return c.updateForm(msg)
	}

	switch msg := msg.(type) {
	case countersDataMsg:
		c.counters = msg.counters
		c.showArchived = msg.showArchived
		if c.cursor >= len(c.counters) {
			c.cursor = max(0, len(c.counters)-1)
		}
		return c, nil

	case tea.KeyMsg:
		if c.confirming {
			return c.updateConfirm(msg)
		}
		return c.updateList(msg)
	}
	return c, nil
}

func (c countersModel) updateList(msg tea.KeyMsg) (countersModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if c.cursor > 0 {
			c.cursor--
		}
	case key.Matches(msg, keys.Down):
		if c.cursor < len(c.counters)-1 {
			c.cursor++
		}
	case key.Matches(msg, keys.Increment):
		return c, c.adjust(1)
	case key.Matches(msg, keys.Decrement):
		return c, c.adjust(-1)
	case key.Matches(msg, keys.Enter):
		if c.cursor < len(c.counters) {
			id := c.counters[c.cursor].ID
			return c, func() tea.Msg { return counterOpenedMsg{counterID: id} }
		}
	case key.Matches(msg, keys.New):
		return c.showNewForm()
	case key.Matches(msg, keys.Edit):
		if c.cursor < len(c.counters) {
			return c.showEditForm()
		}
	case key.Matches(msg, keys.Archive):
		if c.cursor < len(c.counters) {
			sel := c.counters[c.cursor]
			if err := c.store.SetCounterArchived(sel.ID, !sel.Archived); err != nil {
				return c, func() tea.Msg {
					return statusMsg{text: fmt.Sprintf("Archive error: %v", err), isError: true}
				}
			}
			return c, c.refresh()
		}
	case key.Matches(msg, keys.Delete):
		if c.cursor < len(c.counters) {
			c.confirming = true
		}
	case key.Matches(msg, keys.Archived):
		// The toggle persists so Settings and the list stay in agreement.
		v := "1"
		if c.showArchived {
			v = "0"
		}
		if err := c.store.SetSetting(store.SettingShowArchived, v); err != nil {
			return c, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Settings error: %v", err), isError: true}
			}
		}
		return c, c.refresh()
	}
	return c, nil
}

func (c countersModel) updateConfirm(msg tea.KeyMsg) (countersModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Enter):
		c.confirming = false
		if c.cursor < len(c.counters) {
			sel := c.counters[c.cursor]
			if err := c.store.DeleteCounter(sel.ID); err != nil {
				return c, func() tea.Msg {
					return statusMsg{text: fmt.Sprintf("Delete error: %v", err), isError: true}
				}
			}
		}
		return c, c.refresh()
	case key.Matches(msg, keys.Back):
		c.confirming = false
	}
	return c, nil
}

func (c countersModel) showNewForm() (countersModel, tea.Cmd) {
	*c.formName = ""
	*c.formIcon = ""
	*c.formCadence = string(store.CadenceNone)
	*c.formTarget = ""
	c.formType = "new"

	c.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(c.formName),
			huh.NewInput().Title("Icon (optional)").Value(c.formIcon),
			huh.NewSelect[string]().Title("Cadence").
				Description("How often the counter resets. Cannot be changed later.").
				Options(
					huh.NewOption("None", string(store.CadenceNone)),
					huh.NewOption("Daily", string(store.CadenceDaily)),
					huh.NewOption("Weekly", string(store.CadenceWeekly)),
				).Value(c.formCadence),
			huh.NewInput().Title("Target (optional)").Value(c.formTarget),
		),
	).WithShowHelp(true).WithShowErrors(true)

	c.formActive = true
	return c, c.form.Init()
}

func (c countersModel) showEditForm() (countersModel, tea.Cmd) {
	sel := c.counters[c.cursor]
	*c.formName = sel.Name
	*c.formIcon = sel.Icon
	*c.formTarget = ""
	if sel.Target != nil {
		*c.formTarget = strconv.Itoa(*sel.Target)
	}
	c.formType = "edit"
	c.editingID = sel.ID

	// Cadence is immutable after creation, so the edit form omits it.
	c.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(c.formName),
			huh.NewInput().Title("Icon (optional)").Value(c.formIcon),
			huh.NewInput().Title("Target (optional)").Value(c.formTarget),
		),
	).WithShowHelp(true).WithShowErrors(true)

	c.formActive = true
	return c, c.form.Init()
}

func (c countersModel) updateForm(msg tea.Msg) (countersModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			c.formActive = false
			c.form = nil
			return c, nil
		}
	}

	form, cmd := c.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		c.form = f
	}

	if c.form.State == huh.StateCompleted {
		c.formActive = false
		target := parseTarget(*c.formTarget)

		switch c.formType {
		case "new":
			if *c.formName != "" {
				cadence, err := store.ParseCadence(*c.formCadence)
				if err != nil {
					cadence = store.CadenceNone
				}
				now := time.Now().UTC().UnixMilli()
				eng := c.engine
				st := c.store
				name, icon := *c.formName, *c.formIcon
				showArchived := c.showArchived
				return c, func() tea.Msg {
					if _, err := st.CreateCounter(name, icon, cadence, target, now); err != nil {
						return statusMsg{text: fmt.Sprintf("Create error: %v", err), isError: true}
					}
					// Seed the initial snapshot for the new counter.
					eng.Run()
					counters, _ := st.ListCountersWithCount(showArchived)
					return countersDataMsg{counters: counters, showArchived: showArchived}
				}
			}
			return c, c.refresh()
		case "edit":
			if *c.formName != "" {
				if err := c.store.UpdateCounter(c.editingID, *c.formName, *c.formIcon, target); err != nil {
					return c, func() tea.Msg {
						return statusMsg{text: fmt.Sprintf("Update error: %v", err), isError: true}
					}
				}
			}
			return c, c.refresh()
		}
	}

	return c, cmd
}

func parseTarget(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

func (c countersModel) view() string {
	w := c.width - 4

	if c.formActive && c.form != nil {
		title := titleStyle.Render("New Counter")
		if c.formType == "edit" {
			title = titleStyle.Render("Edit Counter")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", c.form.View())
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Counters")
	if c.showArchived {
		title = titleStyle.Render("Counters (including archived)")
	}

	if len(c.counters) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No counters yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	header := mutedStyle.Render(fmt.Sprintf("  %-3s %-24s %-8s %10s", "", "Name", "Cadence", "Count"))
	rows = append(rows, header)

	for i, counter := range c.counters {
		cursor := "  "
		style := normalItemStyle
		if i == c.cursor {
			cursor = "> "
			style = selectedItemStyle
		}

		name := counter.Name
		if counter.Icon != "" {
			name = counter.Icon + " " + name
		}
		if counter.Archived {
			name += " (archived)"
			style = mutedStyle
		}

		line := fmt.Sprintf("%s%-28s %-8s %10s",
			cursor, truncate(name, 28), counter.Cadence.Label(),
			formatCountOverTarget(counter.CurrentCount, counter.Target))
		rows = append(rows, style.Render(line))
	}

	if c.confirming && c.cursor < len(c.counters) {
		rows = append(rows, "")
		rows = append(rows, errorStyle.Render(fmt.Sprintf(
			"Delete %q and all its history? enter: confirm  esc: cancel",
			c.counters[c.cursor].Name)))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("+/-: count  n: new  e: edit  a: archive  x: delete  enter: history"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
