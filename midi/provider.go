package midi

import (
	"context"

	"go.uber.org/zap"

	"go-chords/config"
)

// ProviderKind tells System which status texts to use while acquiring
type ProviderKind int

const (
	ProviderUnsupported ProviderKind = iota
	ProviderNative
	ProviderBridge
)

func (k ProviderKind) String() string {
	switch k {
	case ProviderNative:
		return "native"
	case ProviderBridge:
		return "bridge"
	default:
		return "unsupported"
	}
}

// AccessProvider is one way of obtaining an Access handle
type AccessProvider interface {
	Kind() ProviderKind
	// Available probes whether the capability exists in this environment
	Available() bool
	// Request obtains the handle. It may block (driver enumeration, dialing).
	Request(ctx context.Context) (Access, error)
}

// Detect returns the first available provider, or Unsupported
func Detect(providers ...AccessProvider) AccessProvider {
	for _, p := range providers {
		if p != nil && p.Available() {
			return p
		}
	}
	return Unsupported{}
}

// ProvidersFromConfig lists candidate providers in priority order:
// native driver, websocket bridge, serial bridge.
func ProvidersFromConfig(cfg *config.Config, logger *zap.SugaredLogger) []AccessProvider {
	var providers []AccessProvider

	if cfg.Native.Enabled {
		providers = append(providers, NewNativeProvider(nil, NativeOptions{
			PollInterval: cfg.Native.PollInterval,
			ScanTimeout:  cfg.Native.ScanTimeout,
			SysEx:        cfg.Native.SysEx,
			Exclude:      cfg.Native.Exclude,
		}, logger))
	}
	if cfg.Bridge.WebSocketURL != "" {
		providers = append(providers, NewBridgeProvider(WebSocketDialer(cfg.Bridge.WebSocketURL), logger))
	}
	if cfg.Bridge.SerialPort != "" {
		providers = append(providers, NewBridgeProvider(SerialDialer(cfg.Bridge.SerialPort, cfg.Bridge.SerialBaud), logger))
	}

	return providers
}

// Unsupported is the provider of last resort; it never yields access
type Unsupported struct{}

func (Unsupported) Kind() ProviderKind { return ProviderUnsupported }
func (Unsupported) Available() bool    { return true }

func (Unsupported) Request(ctx context.Context) (Access, error) {
	return nil, ErrNotSupported
}
