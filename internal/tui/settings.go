package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tally/internal/calendar"
	"github.com/sadopc/tally/internal/history"
	"github.com/sadopc/tally/internal/store"
)

// Accent seeds offered for the dynamic gradient.
var accentChoices = []string{"#6C63FF", "#2ECC71", "#F39C12", "#E74C3C", "#7AA2F7", "#FF6B6B"}

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	formActive bool
	form       *huh.Form

	dateFormat   *string
	dynamicColor *bool
	accentColor  *string
	showArchived *bool
}

func newSettingsModel(s *store.Store) settingsModel {
	dateFormat := calendar.DayMonthYear
	dynamic := false
	accent := accentChoices[0]
	archived := false
	return settingsModel{
		store:        s,
		dateFormat:   &dateFormat,
		dynamicColor: &dynamic,
		accentColor:  &accent,
		showArchived: &archived,
	}
}

func (m *settingsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m settingsModel) refresh() tea.Cmd {
	st := m.store
	return func() tea.Msg {
		settings, err := st.GetAllSettings()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Settings error: %v", err), isError: true}
		}
		return settingsDataMsg{settings: settings}
	}
}

func (m settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		for _, s := range msg.settings {
			switch s.Key {
			case store.SettingDateFormat:
				*m.dateFormat = s.Value
			case store.SettingDynamicColor:
				*m.dynamicColor = s.Value == "1"
			case store.SettingAccentColor:
				*m.accentColor = s.Value
			case store.SettingShowArchived:
				*m.showArchived = s.Value == "1"
			}
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Edit) || key.Matches(msg, keys.Enter) {
			return m.showForm()
		}
	}
	return m, nil
}

func (m settingsModel) showForm() (settingsModel, tea.Cmd) {
	accentOptions := make([]huh.Option[string], 0, len(accentChoices))
	for _, hex := range accentChoices {
		accentOptions = append(accentOptions, huh.NewOption(hex, hex))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Date format").
				Options(
					huh.NewOption("Day / Month / Year", calendar.DayMonthYear),
					huh.NewOption("Month / Day / Year", calendar.MonthDayYear),
					huh.NewOption("Year / Month / Day", calendar.YearMonthDay),
				).Value(m.dateFormat),
			huh.NewConfirm().Title("Dynamic history colors").
				Description("Tint the history grid from the accent color instead of the default gradient.").
				Affirmative("On").Negative("Off").
				Value(m.dynamicColor),
			huh.NewSelect[string]().Title("Accent color").
				Options(accentOptions...).
				Value(m.accentColor),
			huh.NewConfirm().Title("Show archived counters").
				Affirmative("Yes").Negative("No").
				Value(m.showArchived),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		m.form = nil
		return m, m.save()
	}
	return m, cmd
}

func (m settingsModel) save() tea.Cmd {
	bool01 := func(b bool) string {
		if b {
			return "1"
		}
		return "0"
	}

	st := m.store
	pairs := map[string]string{
		store.SettingDateFormat:   *m.dateFormat,
		store.SettingDynamicColor: bool01(*m.dynamicColor),
		store.SettingAccentColor:  *m.accentColor,
		store.SettingShowArchived: bool01(*m.showArchived),
	}

	return func() tea.Msg {
		for key, value := range pairs {
			if err := st.SetSetting(key, value); err != nil {
				return statusMsg{text: fmt.Sprintf("Save error: %v", err), isError: true}
			}
		}
		return statusMsg{text: "Settings saved"}
	}
}

func (m settingsModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Settings"),
			"",
			m.form.View(),
		)
		return panelStyle.Width(w).Render(content)
	}

	onOff := func(b bool) string {
		if b {
			return successStyle.Render("on")
		}
		return mutedStyle.Render("off")
	}

	var rows []string
	rows = append(rows, titleStyle.Render("Settings"))
	rows = append(rows, "")
	rows = append(rows, fmt.Sprintf("%-24s %s", "Date format", highlightStyle.Render(*m.dateFormat)))
	rows = append(rows, fmt.Sprintf("%-24s %s", "Dynamic history colors", onOff(*m.dynamicColor)))
	rows = append(rows, fmt.Sprintf("%-24s %s %s", "Accent color",
		highlightStyle.Render(*m.accentColor), cellStyle(*m.accentColor).Render("██")))
	rows = append(rows, fmt.Sprintf("%-24s %s", "Show archived counters", onOff(*m.showArchived)))
	rows = append(rows, "")
	rows = append(rows, m.renderPreview())
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("e: edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderPreview shows the gradient the history grid will use with the current
// choices.
func (m settingsModel) renderPreview() string {
	palette := history.ActivePalette(*m.dynamicColor, *m.accentColor)
	swatches := ""
	for _, hex := range palette {
		swatches += cellStyle(hex).Render("██")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		mutedStyle.Render("Gradient preview  "), swatches)
}
