package midi

import "sync"

// Session carries the process-wide MIDI handles: the cached Access and the
// output that Send writes to. Build one at startup and hand it to every
// System that should share them; a new System on the same Session reuses
// the cached Access instead of asking the provider again.
type Session struct {
	mu     sync.RWMutex
	access Access
	output Output
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) Access() Access {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

func (s *Session) SetAccess(a Access) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = a
}

// Output returns the active send target, nil when none is selected
func (s *Session) Output() Output {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.output
}

func (s *Session) SetOutput(o Output) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = o
}

// Close releases the cached Access
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.output = nil
	if s.access == nil {
		return nil
	}
	err := s.access.Close()
	s.access = nil
	return err
}
