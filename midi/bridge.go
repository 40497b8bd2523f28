package midi

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Key and name of the single output a bridge exposes
const (
	BridgeOutputKey  = "bluetooth"
	BridgeOutputName = "Bluetooth"
)

// Channel is a host message channel that accepts text messages
type Channel interface {
	PostMessage(msg string) error
	Close() error
}

// ChannelDialer probes for and opens a host channel
type ChannelDialer interface {
	// Probe reports whether the channel looks reachable, without opening it
	Probe() bool
	Dial(ctx context.Context) (Channel, error)
	String() string
}

// BridgeProvider synthesises a one-output Access over a host channel. It is
// the fallback for hosts without a native MIDI driver.
type BridgeProvider struct {
	dialer ChannelDialer
	logger *zap.SugaredLogger
}

func NewBridgeProvider(dialer ChannelDialer, logger *zap.SugaredLogger) *BridgeProvider {
	return &BridgeProvider{
		dialer: dialer,
		logger: logger.Named("bridge"),
	}
}

func (p *BridgeProvider) Kind() ProviderKind { return ProviderBridge }

func (p *BridgeProvider) Available() bool {
	return p.dialer != nil && p.dialer.Probe()
}

func (p *BridgeProvider) Request(ctx context.Context) (Access, error) {
	ch, err := p.dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", p.dialer, err)
	}
	p.logger.Debugw("Bridge channel open", "channel", p.dialer.String())
	return NewBridgeAccess(ch), nil
}

// NewBridgeAccess wraps ch in an Access with the single "bluetooth" output
func NewBridgeAccess(ch Channel) Access {
	return &bridgeAccess{out: &bridgeOutput{ch: ch}}
}

type bridgeAccess struct {
	out *bridgeOutput
}

func (a *bridgeAccess) Outputs() ([]Output, error) {
	return []Output{a.out}, nil
}

func (a *bridgeAccess) Output(id string) (Output, bool) {
	if id != BridgeOutputKey {
		return nil, false
	}
	return a.out, true
}

// OnStateChange is a no-op: a bridge never hot-plugs
func (a *bridgeAccess) OnStateChange(fn func(StateChange)) {}

func (a *bridgeAccess) Close() error {
	return a.out.ch.Close()
}

type bridgeOutput struct {
	ch Channel
}

func (o *bridgeOutput) ID() string   { return BridgeOutputKey }
func (o *bridgeOutput) Name() string { return BridgeOutputName }

func (o *bridgeOutput) Send(data []byte) error {
	return o.ch.PostMessage(JoinBytes(data))
}

// JoinBytes renders data as ';'-separated decimals: {1,2,3} -> "1;2;3"
func JoinBytes(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = strconv.Itoa(int(b))
	}
	return strings.Join(parts, ";")
}
