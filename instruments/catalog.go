// Package instruments holds the catalog of playable UI instruments. Each
// instrument package exports a static Descriptor that main registers.
package instruments

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/thoas/go-funk"
	"gopkg.in/yaml.v3"

	"go-chords/theme"
)

// Sender is where an instrument writes raw MIDI bytes
type Sender interface {
	Send(data []byte)
}

// Component builds the UI for an instrument, colouring it from th
type Component func(out Sender, th *theme.Theme) tea.Model

// Instrument is one playable entry of a Descriptor
type Instrument struct {
	ID          string    `yaml:"id"`
	SortKey     string    `yaml:"sortKey"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Component   Component `yaml:"-"`
}

// Descriptor groups instruments under a name and category
type Descriptor struct {
	Name        string       `yaml:"name"`
	Category    string       `yaml:"category"`
	Description string       `yaml:"description"`
	Instruments []Instrument `yaml:"instruments"`
}

// Entry is an instrument together with the descriptor it came from
type Entry struct {
	Instrument
	Descriptor string
	Category   string
}

var (
	ErrInvalidDescriptor = errors.New("invalid descriptor")
	ErrDuplicateID       = errors.New("duplicate instrument id")
)

// Catalog is a registry of descriptors. The zero value is ready to use.
type Catalog struct {
	mu          sync.RWMutex
	descriptors []Descriptor
	byID        map[string]Entry
}

// Register adds d. Descriptors need a name and instrument ids must be
// unique across the catalog.
func (c *Catalog) Register(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("instruments: %w: empty name", ErrInvalidDescriptor)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.byID == nil {
		c.byID = make(map[string]Entry)
	}

	seen := make(map[string]bool, len(d.Instruments))
	for _, inst := range d.Instruments {
		if inst.ID == "" {
			return fmt.Errorf("instruments: %w: %s has an instrument without id", ErrInvalidDescriptor, d.Name)
		}
		if inst.Component == nil {
			return fmt.Errorf("instruments: %w: %s/%s has no component", ErrInvalidDescriptor, d.Name, inst.ID)
		}
		if _, ok := c.byID[inst.ID]; ok || seen[inst.ID] {
			return fmt.Errorf("instruments: %w: %s", ErrDuplicateID, inst.ID)
		}
		seen[inst.ID] = true
	}

	for _, inst := range d.Instruments {
		c.byID[inst.ID] = Entry{Instrument: inst, Descriptor: d.Name, Category: d.Category}
	}
	c.descriptors = append(c.descriptors, d)
	return nil
}

// Instruments returns every registered instrument ordered by SortKey
func (c *Catalog) Instruments() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]Entry, 0, len(c.byID))
	for _, e := range c.byID {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].SortKey != entries[j].SortKey {
			return entries[i].SortKey < entries[j].SortKey
		}
		return entries[i].ID < entries[j].ID
	})
	return entries
}

// Categories lists categories in registration order, without repeats
func (c *Catalog) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cats := make([]string, 0, len(c.descriptors))
	for _, d := range c.descriptors {
		cats = append(cats, d.Category)
	}
	return funk.UniqString(cats)
}

// Find looks an instrument up by id
func (c *Catalog) Find(id string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.byID[id]
	return e, ok
}

// WriteYAML dumps the registered descriptors (components omitted)
func (c *Catalog) WriteYAML(w io.Writer) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c.descriptors); err != nil {
		return fmt.Errorf("instruments: encode catalog: %w", err)
	}
	return enc.Close()
}
