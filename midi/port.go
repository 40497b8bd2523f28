package midi

import "errors"

// Port types and connection states carried by hot-plug events
const (
	PortTypeOutput = "output"
	PortTypeInput  = "input"

	ConnectionOpen    = "open"
	ConnectionClosed  = "closed"
	ConnectionPending = "pending"

	StateConnected    = "connected"
	StateDisconnected = "disconnected"
)

var (
	ErrNotSupported  = errors.New("MIDI not supported")
	ErrNoDriver      = errors.New("no MIDI driver registered")
	ErrScanTimeout   = errors.New("MIDI port scan timed out")
	ErrSysExDisabled = errors.New("sysex disabled")
)

// Port identifies one output device in the registry
type Port struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

// PortInfo describes the port a hot-plug event refers to
type PortInfo struct {
	ID         string
	Name       string
	Type       string // PortTypeOutput, PortTypeInput
	State      string // StateConnected, StateDisconnected
	Connection string
}

// StateChange is a hot-plug notification. Port may be nil.
type StateChange struct {
	Port *PortInfo
}

// Output is one addressable MIDI output
type Output interface {
	ID() string
	Name() string
	Send(data []byte) error
}

// Access is a live handle on a MIDI output subsystem
type Access interface {
	// Outputs lists the outputs in enumeration order
	Outputs() ([]Output, error)
	// Output looks an output up by id
	Output(id string) (Output, bool)
	// OnStateChange installs the hot-plug handler, replacing any previous one.
	// Handlers may be called from another goroutine.
	OnStateChange(fn func(StateChange))
	Close() error
}
