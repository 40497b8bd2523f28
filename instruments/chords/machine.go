package chords

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-chords/instruments"
	"go-chords/theme"
	"go-chords/widgets"
)

const (
	gridCols        = 3
	defaultVelocity = 100
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Play    key.Binding
	Release key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
	Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
	Play:    key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "play chord")),
	Release: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "release")),
}

// Machine is the chord machine UI. Playing a chord releases the previous
// one first.
type Machine struct {
	out      instruments.Sender
	chords   []Chord
	colors   []theme.RGB
	channel  uint8
	velocity uint8
	cursor   int
	playing  int // index into chords, -1 when silent
}

// New builds a machine writing to out on MIDI channel 1. A nil theme uses
// the default palette.
func New(out instruments.Sender, th *theme.Theme) tea.Model {
	if th == nil {
		th = theme.New(nil)
	}
	return &Machine{
		out:      out,
		chords:   Common,
		colors:   th.Swatches(len(Common)),
		velocity: defaultVelocity,
		playing:  -1,
	}
}

func (m *Machine) Init() tea.Cmd { return nil }

func (m *Machine) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Up):
		m.move(-gridCols)
	case key.Matches(keyMsg, keys.Down):
		m.move(gridCols)
	case key.Matches(keyMsg, keys.Left):
		m.move(-1)
	case key.Matches(keyMsg, keys.Right):
		m.move(1)
	case key.Matches(keyMsg, keys.Play):
		m.Play(m.cursor)
	case key.Matches(keyMsg, keys.Release):
		m.Release()
	default:
		// 1-9 play a chord directly
		s := keyMsg.String()
		if len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
			idx := int(s[0] - '1')
			if idx < len(m.chords) {
				m.cursor = idx
				m.Play(idx)
			}
		}
	}
	return m, nil
}

func (m *Machine) move(delta int) {
	next := m.cursor + delta
	if next < 0 || next >= len(m.chords) {
		return
	}
	m.cursor = next
}

// Play sounds chord idx
func (m *Machine) Play(idx int) {
	if idx < 0 || idx >= len(m.chords) {
		return
	}
	m.Release()
	for _, note := range m.chords[idx].Notes {
		m.out.Send(gomidi.NoteOn(m.channel, note, m.velocity).Bytes())
	}
	m.playing = idx
}

// Release silences the sounding chord, if any
func (m *Machine) Release() {
	if m.playing < 0 {
		return
	}
	for _, note := range m.chords[m.playing].Notes {
		m.out.Send(gomidi.NoteOff(m.channel, note).Bytes())
	}
	m.playing = -1
}

// Playing returns the sounding chord's name, "" when silent
func (m *Machine) Playing() string {
	if m.playing < 0 {
		return ""
	}
	return m.chords[m.playing].Name
}

func (m *Machine) View() string {
	buttons := make([]widgets.Button, len(m.chords))
	for i, c := range m.chords {
		buttons[i] = widgets.Button{
			Label:   c.Name,
			Color:   m.colors[i],
			Focused: i == m.cursor,
			Active:  i == m.playing,
		}
	}

	var out strings.Builder
	out.WriteString(widgets.RenderButtonGrid(buttons, gridCols))
	out.WriteString("\n")
	out.WriteString(widgets.RenderKeyHelp([]widgets.KeySection{{
		Keys: []key.Binding{keys.Up, keys.Down, keys.Left, keys.Right, keys.Play, keys.Release},
	}}))
	return out.String()
}
