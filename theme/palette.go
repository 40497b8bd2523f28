package theme

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var ErrEmptyPalette = errors.New("palette has no colors")

// RGB is one palette entry
type RGB [3]uint8

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

func (c RGB) Color() lipgloss.Color {
	return lipgloss.Color(c.Hex())
}

// Palette is an ordered colour ramp. It is sampled as a gradient, so a
// handful of entries is enough.
type Palette struct {
	Name   string
	Colors []RGB
}

// Default is a plasma-like ramp used when no palette file is configured
func Default() *Palette {
	return &Palette{
		Name: "plasma",
		Colors: []RGB{
			{13, 8, 135},
			{84, 2, 163},
			{139, 10, 165},
			{185, 50, 137},
			{219, 92, 104},
			{244, 136, 73},
			{254, 188, 43},
			{240, 249, 33},
		},
	}
}

// LoadGPL reads a GIMP .gpl palette file
func LoadGPL(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("theme: open palette: %w", err)
	}
	defer f.Close()

	p, err := ParseGPL(f)
	if err != nil {
		return nil, fmt.Errorf("theme: %s: %w", path, err)
	}
	return p, nil
}

// ParseGPL parses the GIMP palette format. Entries are "R G B [label]"
// lines; headers, comments and malformed entries are skipped.
func ParseGPL(r io.Reader) (*Palette, error) {
	p := &Palette{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if name, ok := strings.CutPrefix(line, "Name:"); ok {
			p.Name = strings.TrimSpace(name)
			continue
		}
		if c, ok := parseEntry(line); ok {
			p.Colors = append(p.Colors, c)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(p.Colors) == 0 {
		return nil, ErrEmptyPalette
	}
	return p, nil
}

func parseEntry(line string) (RGB, bool) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return RGB{}, false
	}

	var c RGB
	for i := range c {
		v, err := strconv.ParseUint(fields[i], 10, 8)
		if err != nil {
			return RGB{}, false
		}
		c[i] = uint8(v)
	}
	return c, true
}

// At samples the ramp at pos, clamped to [0,1]
func (p *Palette) At(pos float64) RGB {
	pos = math.Max(0, math.Min(1, pos))

	scaled := pos * float64(len(p.Colors)-1)
	lo := int(scaled)
	hi := min(lo+1, len(p.Colors)-1)
	t := scaled - float64(lo)

	var c RGB
	for i := range c {
		from, to := float64(p.Colors[lo][i]), float64(p.Colors[hi][i])
		c[i] = uint8(math.Round(from + (to-from)*t))
	}
	return c
}
