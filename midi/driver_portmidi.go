//go:build cgo && portmidi

package midi

import (
	_ "gitlab.com/gomidi/midi/v2/drivers/portmididrv" // Register MIDI driver (go build -tags portmidi)
)
