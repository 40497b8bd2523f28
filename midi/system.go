package midi

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// System ties a provider, the shared Session and the observable Store
// together. It keeps the list of outputs in sync with hot-plug events,
// tracks the selected output and forwards outgoing bytes to it.
//
// All mutations are serialised, so hot-plug callbacks from the driver's
// goroutine never interleave with selection calls from the UI.
type System struct {
	mu       sync.Mutex
	store    *Store
	session  *Session
	provider AccessProvider
	alerter  Alerter
	logger   *zap.SugaredLogger

	// bumped by every hot-plug event; ok re-enumerates when it moves
	events uint64
}

// NewSystem creates a System. A nil alerter logs alerts only.
func NewSystem(provider AccessProvider, session *Session, alerter Alerter, logger *zap.SugaredLogger) *System {
	logger = logger.Named("midi")
	if provider == nil {
		provider = Unsupported{}
	}
	if alerter == nil {
		alerter = AlertFunc(func(msg string) { logger.Warnw("Alert", "message", msg) })
	}
	return &System{
		store:    NewStore(),
		session:  session,
		provider: provider,
		alerter:  alerter,
		logger:   logger,
	}
}

func (s *System) Store() *Store { return s.store }

func (s *System) Status() string { return s.store.Status() }

// Outputs returns the known outputs in enumeration/insertion order
func (s *System) Outputs() []Port { return s.store.Outputs() }

// IsSelected reports whether key is the selected output
func (s *System) IsSelected(key string) bool {
	selected := s.store.Selected()
	return selected != "" && selected == key
}

func (s *System) Subscribe() (<-chan struct{}, func()) { return s.store.Subscribe() }

func (s *System) Snapshot() State { return s.store.Snapshot() }

// Init acquires access and populates the outputs. It blocks while the
// provider's request is pending; run it in its own goroutine. Failures end
// up in the status text, never as a returned error.
func (s *System) Init(ctx context.Context) {
	if access := s.session.Access(); access != nil {
		s.store.setStatus("MIDI saved!!")
		access.OnStateChange(s.onStateChange)
		s.ok(access)
		return
	}

	kind := s.provider.Kind()
	if kind == ProviderNative {
		s.store.setStatus("Requesting MIDI access")
	}

	access, err := s.provider.Request(ctx)
	if err != nil {
		if errors.Is(err, ErrNotSupported) {
			s.logger.Infow("No MIDI access provider available")
			s.store.setStatus("MIDI not supported")
			return
		}
		s.logger.Warnw("MIDI access request failed", "provider", kind, "error", err)
		s.store.setStatus("MIDI cannot request!! " + err.Error())
		return
	}

	s.logger.Infow("MIDI access granted", "provider", kind)
	s.session.SetAccess(access)
	access.OnStateChange(s.onStateChange)
	s.ok(access)
}

// ok enumerates outputs and applies the default selection. The handler is
// already installed, so a hot-plug event that lands between the listing and
// the refresh forces another listing instead of being overwritten.
func (s *System) ok(access Access) {
	for {
		s.mu.Lock()
		seen := s.events
		s.mu.Unlock()

		outs, err := access.Outputs()
		if err != nil {
			s.logger.Warnw("Failed to enumerate outputs", "error", err)
			s.store.setStatus("Cannot access MIDI output " + err.Error())
			return
		}

		s.mu.Lock()
		if s.events != seen {
			s.mu.Unlock()
			s.logger.Debugw("Outputs changed during enumeration, listing again")
			continue
		}
		s.store.setStatus(fmt.Sprintf("Found MIDI outputs: %d", len(outs)))
		alert := s.refreshLocked(outs)
		s.mu.Unlock()

		s.alert(alert)
		return
	}
}

// refreshLocked replaces the port list and re-applies the selection: the
// previous key if still present, else the first port, else none.
func (s *System) refreshLocked(outs []Output) string {
	ports := make([]Port, 0, len(outs))
	for _, out := range outs {
		ports = append(ports, Port{Key: out.ID(), Name: out.Name()})
	}
	s.store.setOutputs(ports)

	selected := s.store.Selected()
	if !containsKey(ports, selected) {
		selected = ""
		if len(ports) > 0 {
			selected = ports[0].Key
		}
		s.store.setSelected(selected)
	}

	return s.selectLocked(selected)
}

// SelectOutput makes key the active send target. An empty key clears the
// selection. An unknown key raises an alert and changes nothing.
func (s *System) SelectOutput(key string) {
	s.mu.Lock()
	alert := s.selectLocked(key)
	s.mu.Unlock()

	s.alert(alert)
}

// selectLocked returns the alert text to show, if any
func (s *System) selectLocked(key string) string {
	access := s.session.Access()
	if access == nil {
		return ""
	}

	if key == "" {
		s.session.SetOutput(nil)
		s.store.setSelected("")
		return ""
	}

	out, ok := access.Output(key)
	if !ok {
		return "No output key " + key + " found"
	}

	s.session.SetOutput(out)
	s.store.setSelected(key)
	s.store.setStatus("Using output: " + out.Name())
	return ""
}

// Send forwards data to the active output. It always logs the payload and
// drops it silently when nothing is selected.
func (s *System) Send(data []byte) {
	s.logger.Debugw("Send", "bytes", JoinBytes(data))

	out := s.session.Output()
	if out == nil {
		return
	}
	if err := out.Send(data); err != nil {
		s.logger.Warnw("Output send failed", "output", out.ID(), "error", err)
	}
}

func (s *System) onStateChange(ev StateChange) {
	if ev.Port == nil || ev.Port.Type != PortTypeOutput {
		return
	}

	s.mu.Lock()
	s.events++
	var alert string
	if containsKey(s.store.Outputs(), ev.Port.ID) {
		alert = s.removeOutputLocked(ev.Port.ID)
	} else {
		s.addOutputLocked(*ev.Port)
	}
	s.mu.Unlock()

	s.alert(alert)
}

func (s *System) addOutputLocked(info PortInfo) {
	ports := s.store.Outputs()
	if containsKey(ports, info.ID) {
		return
	}
	s.logger.Debugw("Output added", "id", info.ID, "name", info.Name)
	s.store.setOutputs(append(ports, Port{Key: info.ID, Name: info.Name}))
}

func (s *System) removeOutputLocked(id string) string {
	ports := s.store.Outputs()
	kept := ports[:0]
	for _, p := range ports {
		if p.Key != id {
			kept = append(kept, p)
		}
	}
	s.logger.Debugw("Output removed", "id", id)
	s.store.setOutputs(kept)

	if s.store.Selected() != id {
		return ""
	}
	alert := s.selectLocked("")
	s.store.setStatus("Device Removed")
	return alert
}

func (s *System) alert(msg string) {
	if msg == "" {
		return
	}
	s.logger.Infow("Alert", "message", msg)
	s.alerter.Alert(msg)
}

func containsKey(ports []Port, key string) bool {
	if key == "" {
		return false
	}
	for _, p := range ports {
		if p.Key == key {
			return true
		}
	}
	return false
}
