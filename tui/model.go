package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-chords/instruments"
	"go-chords/midi"
	"go-chords/theme"
)

// Alerts is a midi.Alerter that hands alert texts to the UI
type Alerts chan string

func NewAlerts() Alerts {
	return make(Alerts, 8)
}

// Alert never blocks; alerts beyond the buffer are dropped
func (a Alerts) Alert(msg string) {
	select {
	case a <- msg:
	default:
	}
}

type pane int

const (
	paneOutputs pane = iota
	paneInstrument
)

type keyMap struct {
	Quit       key.Binding
	Switch     key.Binding
	Up         key.Binding
	Down       key.Binding
	Select     key.Binding
	Deselect   key.Binding
	NextInst   key.Binding
	PrevInst   key.Binding
	CloseAlert key.Binding
}

var keys = keyMap{
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Switch:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "outputs/instrument")),
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Select:     key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "use output")),
	Deselect:   key.NewBinding(key.WithKeys("backspace"), key.WithHelp("⌫", "no output")),
	NextInst:   key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next instrument")),
	PrevInst:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev instrument")),
	CloseAlert: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
}

type Model struct {
	System  *midi.System
	Catalog *instruments.Catalog
	Theme   *theme.Theme

	updates <-chan struct{}
	alerts  Alerts

	focus      pane
	cursor     int
	entries    []instruments.Entry
	instIdx    int
	instrument tea.Model
	alert      string
	quitting   bool
}

type UpdateMsg struct{}

type AlertMsg string

// NewModel builds the UI. updates should come from sys.Subscribe and alerts
// should be the Alerter the System was built with.
func NewModel(sys *midi.System, catalog *instruments.Catalog, th *theme.Theme, updates <-chan struct{}, alerts Alerts) Model {
	m := Model{
		System:  sys,
		Catalog: catalog,
		Theme:   th,
		updates: updates,
		alerts:  alerts,
		entries: catalog.Instruments(),
	}
	if len(m.entries) > 0 {
		m.focus = paneInstrument
		m.instrument = m.entries[0].Component(sys, th)
	}
	return m
}

func ListenForUpdates(updates <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return nil
		}
		return UpdateMsg{}
	}
}

func ListenForAlerts(alerts Alerts) tea.Cmd {
	return func() tea.Msg {
		return AlertMsg(<-alerts)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		ListenForUpdates(m.updates),
		ListenForAlerts(m.alerts),
	}
	if m.instrument != nil {
		cmds = append(cmds, m.instrument.Init())
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case UpdateMsg:
		if n := len(m.System.Outputs()); m.cursor >= n {
			m.cursor = max(n-1, 0)
		}
		return m, ListenForUpdates(m.updates)

	case AlertMsg:
		m.alert = string(msg)
		return m, ListenForAlerts(m.alerts)
	}

	if m.instrument != nil {
		var cmd tea.Cmd
		m.instrument, cmd = m.instrument.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.alert != "" {
		if key.Matches(msg, keys.CloseAlert, keys.Select) {
			m.alert = ""
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		if r, ok := m.instrument.(interface{ Release() }); ok {
			r.Release()
		}
		return m, tea.Quit

	case key.Matches(msg, keys.Switch):
		if m.focus == paneOutputs && m.instrument != nil {
			m.focus = paneInstrument
		} else {
			m.focus = paneOutputs
		}
		return m, nil

	case key.Matches(msg, keys.NextInst):
		return m.switchInstrument(1)

	case key.Matches(msg, keys.PrevInst):
		return m.switchInstrument(-1)
	}

	if m.focus == paneInstrument && m.instrument != nil {
		var cmd tea.Cmd
		m.instrument, cmd = m.instrument.Update(msg)
		return m, cmd
	}

	outputs := m.System.Outputs()
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(outputs)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Select):
		if m.cursor < len(outputs) {
			m.System.SelectOutput(outputs[m.cursor].Key)
		}
	case key.Matches(msg, keys.Deselect):
		m.System.SelectOutput("")
	}
	return m, nil
}

func (m Model) switchInstrument(delta int) (tea.Model, tea.Cmd) {
	if len(m.entries) < 2 {
		return m, nil
	}
	if r, ok := m.instrument.(interface{ Release() }); ok {
		r.Release()
	}
	m.instIdx = (m.instIdx + delta + len(m.entries)) % len(m.entries)
	m.instrument = m.entries[m.instIdx].Component(m.System, m.Theme)
	return m, m.instrument.Init()
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Color(theme.Accent)).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Color(theme.Muted))
	titleStyle := lipgloss.NewStyle().Foreground(m.Theme.Color(theme.Text)).Underline(true)
	alertStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.Theme.Color(theme.Warning)).
		Padding(0, 1)

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(headerStyle.Render("go-chords"))
	out.WriteString("  ")
	out.WriteString(m.System.Status())
	out.WriteString("\n\n")

	out.WriteString(titleStyle.Render(m.paneTitle(paneOutputs, "Outputs")))
	out.WriteString("\n")
	out.WriteString(m.renderOutputs())
	out.WriteString("\n")

	if m.instrument != nil {
		e := m.entries[m.instIdx]
		out.WriteString(titleStyle.Render(m.paneTitle(paneInstrument, e.Name)))
		out.WriteString("  ")
		out.WriteString(dimStyle.Render(e.Description))
		out.WriteString("\n")
		out.WriteString(m.instrument.View())
		out.WriteString("\n")
	}

	if m.alert != "" {
		out.WriteString("\n")
		out.WriteString(alertStyle.Render(m.alert + "\n\n" + dimStyle.Render("esc/enter to dismiss")))
		out.WriteString("\n")
	}

	out.WriteString("\n")
	out.WriteString(dimStyle.Render("tab:switch pane  ↑↓:move  enter:use output  ⌫:no output  [ ]:instrument  q:quit"))
	return out.String()
}

func (m Model) paneTitle(p pane, title string) string {
	if m.focus == p {
		return "» " + title
	}
	return "  " + title
}

func (m Model) renderOutputs() string {
	outputs := m.System.Outputs()
	if len(outputs) == 0 {
		return lipgloss.NewStyle().Foreground(m.Theme.Color(theme.Muted)).Render("  (no outputs)") + "\n"
	}

	cursorStyle := lipgloss.NewStyle().Foreground(m.Theme.Color(theme.Cursor))
	selectedStyle := lipgloss.NewStyle().Foreground(m.Theme.Color(theme.Success))

	var out strings.Builder
	for i, p := range outputs {
		cursor := " "
		if m.focus == paneOutputs && i == m.cursor {
			cursor = cursorStyle.Render(string(m.Theme.Symbols.Cursor))
		}
		mark := string(m.Theme.Symbols.Unselected)
		if m.System.IsSelected(p.Key) {
			mark = selectedStyle.Render(string(m.Theme.Symbols.Selected))
		}
		fmt.Fprintf(&out, " %s %s %s\n", cursor, mark, p.Name)
	}
	return out.String()
}
