package midi

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const wsWriteTimeout = 2 * time.Second

type wsDialer struct {
	url string
}

// WebSocketDialer dials a host page or companion app that relays text
// messages to its MIDI transport
func WebSocketDialer(rawURL string) ChannelDialer {
	return &wsDialer{url: rawURL}
}

func (d *wsDialer) String() string { return d.url }

func (d *wsDialer) Probe() bool {
	u, err := url.Parse(d.url)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
		return u.Host != ""
	}
	return false
}

func (d *wsDialer) Dial(ctx context.Context) (Channel, error) {
	conn, _, err := websocket.Dial(ctx, d.url, nil)
	if err != nil {
		return nil, err
	}
	return &wsChannel{conn: conn}, nil
}

type wsChannel struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsChannel) PostMessage(msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), wsWriteTimeout)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, []byte(msg))
}

func (c *wsChannel) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
