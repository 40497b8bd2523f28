// Package chords is the beginner chord machine: a grid of common chords
// played by tapping a button.
package chords

import "go-chords/instruments"

// Descriptor registers the chord machine in the instruments catalog
var Descriptor = instruments.Descriptor{
	Name:        "beginner-chord-machine",
	Category:    "instruments",
	Description: "A simple instrument that lets you play common chords by tapping on the desired chord button.",
	Instruments: []instruments.Instrument{
		{
			ID:          "beginner",
			SortKey:     "501_beginner",
			Name:        "Beginner chord machine",
			Description: "A simple instrument that lets you play common chords.",
			Component:   New,
		},
	},
}

// Chord is a named set of MIDI note numbers
type Chord struct {
	Name  string
	Notes []uint8
}

// Common is the grid shown by the machine, three per row. Button colours
// come from the theme in this order.
var Common = []Chord{
	{Name: "C", Notes: []uint8{60, 64, 67}},
	{Name: "Dm", Notes: []uint8{62, 65, 69}},
	{Name: "Em", Notes: []uint8{64, 67, 71}},
	{Name: "F", Notes: []uint8{65, 69, 72}},
	{Name: "G", Notes: []uint8{67, 71, 74}},
	{Name: "Am", Notes: []uint8{69, 72, 76}},
	{Name: "D", Notes: []uint8{62, 66, 69}},
	{Name: "E", Notes: []uint8{64, 68, 71}},
	{Name: "A", Notes: []uint8{69, 73, 76}},
}
