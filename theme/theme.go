package theme

import "github.com/charmbracelet/lipgloss"

// Theme maps UI roles and instrument buttons onto a palette
type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	Selected   rune // output receiving sends
	Unselected rune
	Cursor     rune
}

// Role is a position on the palette ramp
type Role float64

const (
	Muted   Role = 0.2
	Text    Role = 0.45
	Accent  Role = 0.55
	Cursor  Role = 0.65
	Warning Role = 0.8
	Success Role = 1.0
)

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = Default()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Selected:   '●',
			Unselected: '○',
			Cursor:     '▶',
		},
	}
}

// Load builds a theme from a .gpl palette file, or the built-in palette
// when path is empty
func Load(path string) (*Theme, error) {
	if path == "" {
		return New(nil), nil
	}
	p, err := LoadGPL(path)
	if err != nil {
		return nil, err
	}
	return New(p), nil
}

func (t *Theme) Color(r Role) lipgloss.Color {
	return t.Palette.At(float64(r)).Color()
}

// Swatches returns n colours taken from the middle of n equal slices of the
// ramp, so neighbouring buttons never share a colour.
func (t *Theme) Swatches(n int) []RGB {
	out := make([]RGB, n)
	for i := range out {
		out[i] = t.Palette.At((float64(i) + 0.5) / float64(n))
	}
	return out
}
