package midi

import "sync"

// State is a copy of everything the store publishes
type State struct {
	Status   string
	Outputs  []Port
	Selected string // "" when nothing is selected
}

// Store holds the observable MIDI state. Every mutation notifies
// subscribers; notifications coalesce and never block the writer.
type Store struct {
	mu          sync.RWMutex
	state       State
	subscribers map[int]chan struct{}
	nextID      int
}

// NewStore creates a store with the initial status text
func NewStore() *Store {
	return &Store{
		state:       State{Status: "Initializing MIDI system", Outputs: []Port{}},
		subscribers: make(map[int]chan struct{}),
	}
}

// Subscribe returns a channel signalled after every mutation, and a func
// that stops the subscription and closes the channel.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan struct{}, 1)
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subscribers, id)
			close(ch)
		})
	}
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.state
	out.Outputs = append([]Port(nil), s.state.Outputs...)
	return out
}

func (s *Store) Status() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Status
}

// Outputs returns a copy of the port list in insertion order
func (s *Store) Outputs() []Port {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Port(nil), s.state.Outputs...)
}

func (s *Store) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Selected
}

func (s *Store) setStatus(status string) {
	s.update(func(st *State) { st.Status = status })
}

func (s *Store) setOutputs(ports []Port) {
	s.update(func(st *State) { st.Outputs = ports })
}

func (s *Store) setSelected(key string) {
	s.update(func(st *State) { st.Selected = key })
}

func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	for _, ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	s.mu.Unlock()
}
