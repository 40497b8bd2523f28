package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"go-chords/theme"
)

// Button is one cell of a button grid
type Button struct {
	Label   string
	Color   theme.RGB
	Focused bool // cursor is here
	Active  bool // currently sounding
}

const buttonWidth = 7

// RenderButton draws a bordered button. Active buttons are filled with
// their color, the focused one gets a thick border.
func RenderButton(b Button) string {
	style := lipgloss.NewStyle().
		Width(buttonWidth).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(b.Color.Color())

	if b.Focused {
		style = style.Border(lipgloss.ThickBorder())
	}
	if b.Active {
		style = style.
			Background(b.Color.Color()).
			Foreground(lipgloss.Color("#000000")).
			Bold(true)
	}
	return style.Render(b.Label)
}

// RenderButtonGrid lays buttons out left to right, cols per row
func RenderButtonGrid(buttons []Button, cols int) string {
	if cols <= 0 {
		cols = len(buttons)
	}
	var rows []string
	for start := 0; start < len(buttons); start += cols {
		end := start + cols
		if end > len(buttons) {
			end = len(buttons)
		}
		cells := make([]string, 0, end-start)
		for _, b := range buttons[start:end] {
			cells = append(cells, RenderButton(b))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []key.Binding
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			if !k.Enabled() {
				continue
			}
			h := k.Help()
			lines = append(lines, fmt.Sprintf("  %-12s %s", h.Key, h.Desc))
		}
	}
	return strings.Join(lines, "\n")
}
