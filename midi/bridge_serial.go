package midi

import (
	"context"
	"fmt"
	"sync"

	"github.com/thoas/go-funk"
	"go.bug.st/serial"
)

type serialDialer struct {
	port string
	baud int
}

// SerialDialer opens a serial line to a BLE-MIDI dongle or microcontroller.
// Each message is written as one '\n'-terminated line.
func SerialDialer(port string, baud int) ChannelDialer {
	if baud <= 0 {
		baud = 31250
	}
	return &serialDialer{port: port, baud: baud}
}

func (d *serialDialer) String() string { return fmt.Sprintf("%s@%d", d.port, d.baud) }

// Probe checks the port is currently enumerated by the OS
func (d *serialDialer) Probe() bool {
	ports, err := serial.GetPortsList()
	if err != nil {
		return false
	}
	return funk.ContainsString(ports, d.port)
}

func (d *serialDialer) Dial(ctx context.Context) (Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := serial.Open(d.port, &serial.Mode{BaudRate: d.baud})
	if err != nil {
		return nil, err
	}
	return &serialChannel{port: p}, nil
}

type serialChannel struct {
	mu   sync.Mutex
	port serial.Port
}

func (c *serialChannel) PostMessage(msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.port.Write([]byte(msg + "\n"))
	return err
}

func (c *serialChannel) Close() error {
	return c.port.Close()
}
