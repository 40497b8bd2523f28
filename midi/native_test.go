package midi

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/drivers"
)

type fakeOut struct {
	name   string
	number int

	mu   sync.Mutex
	open bool
	sent [][]byte
}

func (o *fakeOut) Open() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.open = true
	return nil
}

func (o *fakeOut) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.open = false
	return nil
}

func (o *fakeOut) IsOpen() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.open
}

func (o *fakeOut) Number() int             { return o.number }
func (o *fakeOut) String() string          { return o.name }
func (o *fakeOut) Underlying() interface{} { return nil }

func (o *fakeOut) Send(data []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, append([]byte(nil), data...))
	return nil
}

func (o *fakeOut) Sent() [][]byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sent
}

type fakeDriver struct {
	mu    sync.Mutex
	outs  []drivers.Out
	err   error
	block chan struct{}
}

func (d *fakeDriver) Ins() ([]drivers.In, error) { return nil, nil }

func (d *fakeDriver) Outs() ([]drivers.Out, error) {
	if d.block != nil {
		<-d.block
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]drivers.Out(nil), d.outs...), d.err
}

func (d *fakeDriver) String() string { return "fake" }
func (d *fakeDriver) Close() error   { return nil }

func (d *fakeDriver) setOuts(outs ...drivers.Out) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outs = outs
}

func newTestNative(drv drivers.Driver, opts NativeOptions) *NativeProvider {
	logger, _ := testLogger()
	return NewNativeProvider(drv, opts, logger)
}

func TestNativeEnumeratesInDriverOrder(t *testing.T) {
	drv := &fakeDriver{outs: []drivers.Out{
		&fakeOut{name: "Synth", number: 0},
		&fakeOut{name: "Drum", number: 1},
	}}
	p := newTestNative(drv, NativeOptions{PollInterval: time.Hour})
	require.True(t, p.Available())

	access, err := p.Request(context.Background())
	require.NoError(t, err)
	defer access.Close()

	outs, err := access.Outputs()
	require.NoError(t, err)
	require.Len(t, outs, 2)
	assert.Equal(t, "Synth", outs[0].ID())
	assert.Equal(t, "Drum", outs[1].Name())

	_, ok := access.Output("Drum")
	assert.True(t, ok)
	_, ok = access.Output("Nope")
	assert.False(t, ok)
}

func TestNativeDuplicateNamesGetDistinctIDs(t *testing.T) {
	drv := &fakeDriver{outs: []drivers.Out{
		&fakeOut{name: "USB MIDI", number: 0},
		&fakeOut{name: "USB MIDI", number: 3},
	}}
	access, err := newTestNative(drv, NativeOptions{PollInterval: time.Hour}).Request(context.Background())
	require.NoError(t, err)
	defer access.Close()

	outs, _ := access.Outputs()
	require.Len(t, outs, 2)
	assert.Equal(t, "USB MIDI", outs[0].ID())
	assert.Equal(t, "USB MIDI #3", outs[1].ID())
}

func TestNativeExcludesPatterns(t *testing.T) {
	drv := &fakeDriver{outs: []drivers.Out{
		&fakeOut{name: "Midi Through Port-0"},
		&fakeOut{name: "Synth"},
	}}
	access, err := newTestNative(drv, NativeOptions{PollInterval: time.Hour, Exclude: []string{"midi through"}}).Request(context.Background())
	require.NoError(t, err)
	defer access.Close()

	outs, _ := access.Outputs()
	require.Len(t, outs, 1)
	assert.Equal(t, "Synth", outs[0].ID())
}

func TestNativeListError(t *testing.T) {
	drv := &fakeDriver{err: errors.New("alsa gone")}
	_, err := newTestNative(drv, NativeOptions{}).Request(context.Background())
	assert.ErrorContains(t, err, "alsa gone")
}

func TestNativeScanTimeout(t *testing.T) {
	drv := &fakeDriver{block: make(chan struct{})}
	defer close(drv.block)

	_, err := newTestNative(drv, NativeOptions{ScanTimeout: 20 * time.Millisecond}).Request(context.Background())
	assert.ErrorIs(t, err, ErrScanTimeout)
}

func TestNativeSendOpensPortAndRejectsSysEx(t *testing.T) {
	port := &fakeOut{name: "Synth"}
	drv := &fakeDriver{outs: []drivers.Out{port}}
	access, err := newTestNative(drv, NativeOptions{PollInterval: time.Hour}).Request(context.Background())
	require.NoError(t, err)

	out, ok := access.Output("Synth")
	require.True(t, ok)

	require.NoError(t, out.Send([]byte{0x90, 60, 100}))
	assert.True(t, port.IsOpen())
	assert.Equal(t, [][]byte{{0x90, 60, 100}}, port.Sent())

	assert.ErrorIs(t, out.Send([]byte{0xF0, 0x7E, 0xF7}), ErrSysExDisabled)

	require.NoError(t, access.Close())
	assert.False(t, port.IsOpen())
}

func TestNativeSysExAllowed(t *testing.T) {
	port := &fakeOut{name: "Synth"}
	drv := &fakeDriver{outs: []drivers.Out{port}}
	access, err := newTestNative(drv, NativeOptions{PollInterval: time.Hour, SysEx: true}).Request(context.Background())
	require.NoError(t, err)
	defer access.Close()

	out, _ := access.Output("Synth")
	assert.NoError(t, out.Send([]byte{0xF0, 0x7E, 0xF7}))
}

func TestNativeHotPlugEvents(t *testing.T) {
	synth := &fakeOut{name: "Synth"}
	drv := &fakeDriver{outs: []drivers.Out{synth}}
	access, err := newTestNative(drv, NativeOptions{PollInterval: 10 * time.Millisecond}).Request(context.Background())
	require.NoError(t, err)
	defer access.Close()

	events := make(chan StateChange, 8)
	access.OnStateChange(func(ev StateChange) { events <- ev })

	drv.setOuts(synth, &fakeOut{name: "Drum", number: 1})

	select {
	case ev := <-events:
		require.NotNil(t, ev.Port)
		assert.Equal(t, "Drum", ev.Port.ID)
		assert.Equal(t, PortTypeOutput, ev.Port.Type)
		assert.Equal(t, StateConnected, ev.Port.State)
	case <-time.After(time.Second):
		t.Fatal("no connect event")
	}

	drv.setOuts(synth)

	select {
	case ev := <-events:
		assert.Equal(t, "Drum", ev.Port.ID)
		assert.Equal(t, StateDisconnected, ev.Port.State)
	case <-time.After(time.Second):
		t.Fatal("no disconnect event")
	}
}

func TestNativeFeedsSystem(t *testing.T) {
	synth := &fakeOut{name: "Synth"}
	drv := &fakeDriver{outs: []drivers.Out{synth}}
	logger, _ := testLogger()
	p := NewNativeProvider(drv, NativeOptions{PollInterval: 10 * time.Millisecond}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sys := NewSystem(p, NewSession(), nil, logger)
	sys.Init(ctx)
	require.True(t, sys.IsSelected("Synth"))

	drv.setOuts()

	require.Eventually(t, func() bool {
		return len(sys.Outputs()) == 0 && sys.Status() == "Device Removed"
	}, time.Second, 5*time.Millisecond)
}

// lateAccess plugs a device right after the first listing, before System
// has finished applying it
type lateAccess struct {
	Access
	once  sync.Once
	after func()
}

func (a *lateAccess) Outputs() ([]Output, error) {
	outs, err := a.Access.Outputs()
	a.once.Do(a.after)
	return outs, err
}

func TestNativeDevicePluggedDuringInitIsListed(t *testing.T) {
	synth := &fakeOut{name: "Synth"}
	drv := &fakeDriver{outs: []drivers.Out{synth}}
	logger, _ := testLogger()
	native := NewNativeProvider(drv, NativeOptions{PollInterval: 5 * time.Millisecond}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	access, err := native.Request(ctx)
	require.NoError(t, err)
	defer access.Close()

	wrapped := &lateAccess{Access: access, after: func() {
		drv.setOuts(synth, &fakeOut{name: "Late", number: 1})
		time.Sleep(50 * time.Millisecond)
	}}
	provider := &fakeProvider{kind: ProviderNative, available: true, access: wrapped}

	sys := NewSystem(provider, NewSession(), nil, logger)
	sys.Init(ctx)

	require.Eventually(t, func() bool {
		return len(sys.Outputs()) == 2
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []Port{{Key: "Synth", Name: "Synth"}, {Key: "Late", Name: "Late"}}, sys.Outputs())
	assert.True(t, sys.IsSelected("Synth"))
}

func TestNativeRescanRebindsUnopenedPort(t *testing.T) {
	first := &fakeOut{name: "First", number: 0}
	second := &fakeOut{name: "Second", number: 1}
	drv := &fakeDriver{outs: []drivers.Out{first, second}}
	access, err := newTestNative(drv, NativeOptions{PollInterval: 5 * time.Millisecond}).Request(context.Background())
	require.NoError(t, err)
	defer access.Close()

	events := make(chan StateChange, 8)
	access.OnStateChange(func(ev StateChange) { events <- ev })

	// First goes away and Second moves down to index 0
	renumbered := &fakeOut{name: "Second", number: 0}
	drv.setOuts(renumbered)

	select {
	case ev := <-events:
		assert.Equal(t, "First", ev.Port.ID)
		assert.Equal(t, StateDisconnected, ev.Port.State)
	case <-time.After(time.Second):
		t.Fatal("no disconnect event")
	}

	out, ok := access.Output("Second")
	require.True(t, ok)
	require.NoError(t, out.Send([]byte{0x90, 60, 100}))

	assert.Equal(t, [][]byte{{0x90, 60, 100}}, renumbered.Sent())
	assert.Empty(t, second.Sent())
}

func TestDetectOrder(t *testing.T) {
	native := &fakeProvider{kind: ProviderNative}
	bridge := &fakeProvider{kind: ProviderBridge, available: true}

	assert.Same(t, bridge, Detect(native, bridge))

	native.available = true
	assert.Same(t, native, Detect(native, bridge))

	assert.Equal(t, ProviderUnsupported, Detect(nil, &fakeProvider{}).Kind())
}
