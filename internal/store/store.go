package store

import (
	"sync"

	"github.com/grovetools/ftrack/pkg/models"
)

// Store is the in-memory state coordinator.
// It is thread-safe and publishes a snapshot to subscribers after each change.
type Store struct {
	mu          sync.RWMutex
	state       State
	subscribers map[chan Update]struct{}
}

// New creates a Store in the rehydrating state.
func New() *Store {
	return &Store{
		state:       State{Rehydrating: true},
		subscribers: make(map[chan Update]struct{}),
	}
}

// Get returns a copy of the current state.
func (s *Store) Get() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// mutate applies fn under the write lock and broadcasts when it reports a change.
func (s *Store) mutate(typ UpdateType, source string, fn func(*State) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !fn(&s.state) {
		return false
	}

	update := Update{Type: typ, Source: source, State: s.state.clone()}
	for ch := range s.subscribers {
		select {
		case ch <- update:
		default:
			// Non-blocking send to prevent slow subscribers from stalling writers
		}
	}
	return true
}

// SetSession replaces the session and clears any login error.
func (s *Store) SetSession(source string, session models.Session) {
	s.mutate(UpdateSession, source, func(st *State) bool {
		st.Session = session.Clone()
		st.SessionError = ""
		return true
	})
}

// ClearSession resets the session to empty.
func (s *Store) ClearSession(source string) {
	s.mutate(UpdateSession, source, func(st *State) bool {
		st.Session = models.Session{}
		return true
	})
}

// SetRehydrating toggles the startup restore flag.
func (s *Store) SetRehydrating(source string, on bool) {
	s.mutate(UpdateSession, source, func(st *State) bool {
		if st.Rehydrating == on {
			return false
		}
		st.Rehydrating = on
		return true
	})
}

// SetSessionError records the message of a failed authentication attempt.
func (s *Store) SetSessionError(source, message string) {
	s.mutate(UpdateSession, source, func(st *State) bool {
		st.SessionError = message
		return true
	})
}

// SetSessionExpired raises or acknowledges the session expired signal.
func (s *Store) SetSessionExpired(source string, expired bool) {
	s.mutate(UpdateSessionExpired, source, func(st *State) bool {
		if st.SessionExpired == expired {
			return false
		}
		st.SessionExpired = expired
		return true
	})
}

// SetClients replaces the shared first page.
func (s *Store) SetClients(source string, clients []models.Client, sort models.SortOption) {
	s.mutate(UpdateClients, source, func(st *State) bool {
		st.Clients = append([]models.Client(nil), clients...)
		st.ClientsSort = sort
		st.ClientsLoaded = true
		return true
	})
}

// UpdateClient merges patch into the shared copy of a client. It reports
// whether the client was present.
func (s *Store) UpdateClient(source, id string, patch models.ClientPatch) bool {
	return s.mutate(UpdateClients, source, func(st *State) bool {
		for i, c := range st.Clients {
			if c.ID == id {
				st.Clients[i] = patch.Apply(c)
				return true
			}
		}
		return false
	})
}

// RemoveClient drops a client from the shared first page. It reports whether
// the client was present.
func (s *Store) RemoveClient(source, id string) bool {
	return s.mutate(UpdateClients, source, func(st *State) bool {
		for i, c := range st.Clients {
			if c.ID == id {
				st.Clients = append(st.Clients[:i:i], st.Clients[i+1:]...)
				return true
			}
		}
		return false
	})
}

// ClearClients empties the shared cache, e.g. after logout.
func (s *Store) ClearClients(source string) {
	s.mutate(UpdateClients, source, func(st *State) bool {
		st.Clients = nil
		st.ClientsSort = models.SortOption{}
		st.ClientsLoaded = false
		return true
	})
}

// Subscribe creates a new subscription channel for state updates.
func (s *Store) Subscribe() chan Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Update, 100)
	s.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (s *Store) Unsubscribe(ch chan Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[ch]; !ok {
		return
	}
	delete(s.subscribers, ch)
	close(ch)
}
