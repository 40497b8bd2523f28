package midi

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/thoas/go-funk"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"go.uber.org/zap"

	"go-chords/debug"
)

// NativeOptions tune the platform driver provider
type NativeOptions struct {
	PollInterval time.Duration
	ScanTimeout  time.Duration
	SysEx        bool
	Exclude      []string
}

// NativeProvider obtains access through a gomidi driver. Hot-plug is
// detected by polling the driver's output list.
type NativeProvider struct {
	drv    drivers.Driver // nil means the registered driver
	opts   NativeOptions
	logger *zap.SugaredLogger
}

// NewNativeProvider creates a provider over drv, or over the driver
// registered with gomidi when drv is nil.
func NewNativeProvider(drv drivers.Driver, opts NativeOptions, logger *zap.SugaredLogger) *NativeProvider {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = 3 * time.Second
	}
	return &NativeProvider{
		drv:    drv,
		opts:   opts,
		logger: logger.Named("native"),
	}
}

func (p *NativeProvider) Kind() ProviderKind { return ProviderNative }

func (p *NativeProvider) driver() drivers.Driver {
	if p.drv != nil {
		return p.drv
	}
	return drivers.Get()
}

func (p *NativeProvider) Available() bool {
	return p.driver() != nil
}

// Request enumerates the outputs once and starts the hot-plug poll loop,
// which runs until ctx is cancelled or the Access is closed.
func (p *NativeProvider) Request(ctx context.Context) (Access, error) {
	drv := p.driver()
	if drv == nil {
		return nil, ErrNoDriver
	}

	outs, err := p.scan(ctx, drv)
	if err != nil {
		return nil, err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	a := &nativeAccess{
		provider: p,
		drv:      drv,
		byID:     make(map[string]*nativeOutput),
		cancel:   cancel,
	}
	a.order, a.byID = a.build(outs)

	p.logger.Debugw("Access granted", "driver", drv.String(), "outputs", len(a.order))

	go a.run(loopCtx)

	return a, nil
}

// scan lists output ports with a timeout (CoreMIDI can hang)
func (p *NativeProvider) scan(ctx context.Context, drv drivers.Driver) ([]drivers.Out, error) {
	type portsResult struct {
		outs []drivers.Out
		err  error
	}

	ch := make(chan portsResult, 1)
	go func() {
		outs, err := drv.Outs()
		ch <- portsResult{outs: outs, err: err}
	}()

	select {
	case result := <-ch:
		if result.err != nil {
			return nil, fmt.Errorf("list outputs: %w", result.err)
		}
		return result.outs, nil
	case <-time.After(p.opts.ScanTimeout):
		return nil, ErrScanTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *NativeProvider) excluded(name string) bool {
	lower := strings.ToLower(name)
	matches := funk.FilterString(p.opts.Exclude, func(pattern string) bool {
		return pattern != "" && strings.Contains(lower, strings.ToLower(pattern))
	})
	return len(matches) > 0
}

type nativeAccess struct {
	provider *NativeProvider
	drv      drivers.Driver
	cancel   context.CancelFunc

	// held across a rescan and its event dispatch so Outputs never lists a
	// port whose connect event is still in flight
	emit sync.Mutex

	mu      sync.Mutex
	order   []*nativeOutput
	byID    map[string]*nativeOutput
	handler func(StateChange)
}

// build turns driver ports into outputs, reusing already known outputs so
// open senders survive a rescan
func (a *nativeAccess) build(outs []drivers.Out) ([]*nativeOutput, map[string]*nativeOutput) {
	order := make([]*nativeOutput, 0, len(outs))
	byID := make(map[string]*nativeOutput, len(outs))

	for _, port := range outs {
		name := port.String()
		if a.provider.excluded(name) {
			debug.Log("native", "output excluded: %s", name)
			continue
		}

		id := name
		if _, dup := byID[id]; dup {
			id = fmt.Sprintf("%s #%d", name, port.Number())
		}

		out, ok := a.byID[id]
		if ok {
			out.rebind(port)
		} else {
			out = &nativeOutput{id: id, name: name, port: port, sysex: a.provider.opts.SysEx}
		}
		order = append(order, out)
		byID[id] = out
	}

	return order, byID
}

func (a *nativeAccess) run(ctx context.Context) {
	ticker := time.NewTicker(a.provider.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.rescan(ctx)
		}
	}
}

func (a *nativeAccess) rescan(ctx context.Context) {
	outs, err := a.provider.scan(ctx, a.drv)
	if err != nil {
		a.provider.logger.Debugw("Rescan failed", "error", err)
		return
	}

	a.emit.Lock()
	defer a.emit.Unlock()

	a.mu.Lock()
	order, byID := a.build(outs)

	var removed, added []*nativeOutput
	for _, out := range a.order {
		if _, ok := byID[out.id]; !ok {
			removed = append(removed, out)
		}
	}
	for _, out := range order {
		if _, ok := a.byID[out.id]; !ok {
			added = append(added, out)
		}
	}

	a.order, a.byID = order, byID
	handler := a.handler
	a.mu.Unlock()

	debug.LogEvery(30, "native", "rescan outputs=%d", len(order))

	for _, out := range removed {
		a.provider.logger.Infow("Output disconnected", "id", out.id)
		out.close()
		if handler != nil {
			handler(StateChange{Port: out.info(StateDisconnected)})
		}
	}
	for _, out := range added {
		a.provider.logger.Infow("Output connected", "id", out.id)
		if handler != nil {
			handler(StateChange{Port: out.info(StateConnected)})
		}
	}
}

func (a *nativeAccess) Outputs() ([]Output, error) {
	a.emit.Lock()
	defer a.emit.Unlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	outs := make([]Output, len(a.order))
	for i, out := range a.order {
		outs[i] = out
	}
	return outs, nil
}

func (a *nativeAccess) Output(id string) (Output, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	out, ok := a.byID[id]
	if !ok {
		return nil, false
	}
	return out, true
}

func (a *nativeAccess) OnStateChange(fn func(StateChange)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handler = fn
}

func (a *nativeAccess) Close() error {
	a.cancel()

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, out := range a.order {
		out.close()
	}
	a.handler = nil
	return nil
}

type nativeOutput struct {
	id    string
	name  string
	port  drivers.Out
	sysex bool

	mu   sync.Mutex
	send func(gomidi.Message) error
}

func (o *nativeOutput) ID() string   { return o.id }
func (o *nativeOutput) Name() string { return o.name }

// Send opens the port on first use
func (o *nativeOutput) Send(data []byte) error {
	if !o.sysex && len(data) > 0 && data[0] == 0xF0 {
		return ErrSysExDisabled
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.send == nil {
		send, err := gomidi.SendTo(o.port)
		if err != nil {
			return fmt.Errorf("open output %s: %w", o.id, err)
		}
		o.send = send
	}
	return o.send(gomidi.Message(data))
}

// rebind swaps in the freshly enumerated port unless a sender is already
// open on the old one. Port numbers shift when a lower numbered device goes.
func (o *nativeOutput) rebind(port drivers.Out) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.send == nil {
		o.port = port
	}
}

func (o *nativeOutput) info(state string) *PortInfo {
	o.mu.Lock()
	open := o.port.IsOpen()
	o.mu.Unlock()

	connection := ConnectionClosed
	if open {
		connection = ConnectionOpen
	}
	return &PortInfo{
		ID:         o.id,
		Name:       o.name,
		Type:       PortTypeOutput,
		State:      state,
		Connection: connection,
	}
}

func (o *nativeOutput) close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.send = nil
	if o.port.IsOpen() {
		_ = o.port.Close()
	}
}
