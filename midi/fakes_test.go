package midi

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeOutput struct {
	id   string
	name string
	err  error

	mu   sync.Mutex
	sent [][]byte
}

func (o *fakeOutput) ID() string   { return o.id }
func (o *fakeOutput) Name() string { return o.name }

func (o *fakeOutput) Send(data []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, append([]byte(nil), data...))
	return o.err
}

func (o *fakeOutput) Sent() [][]byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sent
}

type fakeAccess struct {
	mu      sync.Mutex
	outs    []*fakeOutput
	enumErr error
	handler func(StateChange)
	closed  bool
}

func newFakeAccess(outs ...*fakeOutput) *fakeAccess {
	return &fakeAccess{outs: outs}
}

func (a *fakeAccess) Outputs() ([]Output, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.enumErr != nil {
		return nil, a.enumErr
	}
	outs := make([]Output, len(a.outs))
	for i, o := range a.outs {
		outs[i] = o
	}
	return outs, nil
}

func (a *fakeAccess) Output(id string) (Output, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, o := range a.outs {
		if o.id == id {
			return o, true
		}
	}
	return nil, false
}

func (a *fakeAccess) OnStateChange(fn func(StateChange)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handler = fn
}

func (a *fakeAccess) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}

// plug adds an output and fires the hot-plug handler like a driver would
func (a *fakeAccess) plug(o *fakeOutput) {
	a.mu.Lock()
	a.outs = append(a.outs, o)
	h := a.handler
	a.mu.Unlock()
	if h != nil {
		h(StateChange{Port: &PortInfo{ID: o.id, Name: o.name, Type: PortTypeOutput, State: StateConnected, Connection: ConnectionClosed}})
	}
}

func (a *fakeAccess) unplug(id string) {
	a.mu.Lock()
	var name string
	kept := a.outs[:0]
	for _, o := range a.outs {
		if o.id == id {
			name = o.name
			continue
		}
		kept = append(kept, o)
	}
	a.outs = kept
	h := a.handler
	a.mu.Unlock()
	if h != nil {
		h(StateChange{Port: &PortInfo{ID: id, Name: name, Type: PortTypeOutput, State: StateDisconnected, Connection: ConnectionClosed}})
	}
}

func (a *fakeAccess) fire(ev StateChange) {
	a.mu.Lock()
	h := a.handler
	a.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

type fakeProvider struct {
	kind      ProviderKind
	available bool
	access    Access
	err       error
	requests  int
}

func (p *fakeProvider) Kind() ProviderKind { return p.kind }
func (p *fakeProvider) Available() bool    { return p.available }

func (p *fakeProvider) Request(ctx context.Context) (Access, error) {
	p.requests++
	if p.err != nil {
		return nil, p.err
	}
	return p.access, nil
}

type alertRecorder struct {
	mu     sync.Mutex
	alerts []string
}

func (r *alertRecorder) Alert(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, msg)
}

func (r *alertRecorder) All() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.alerts...)
}

type fakeChannel struct {
	mu       sync.Mutex
	messages []string
	closed   bool
}

func (c *fakeChannel) PostMessage(msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("channel closed")
	}
	c.messages = append(c.messages, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeChannel) Messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.messages...)
}

func testLogger() (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core).Sugar(), logs
}
