// Package store holds the application state shared between the session
// manager, the client cache and the view layer.
package store

import "github.com/grovetools/ftrack/pkg/models"

// State is the complete application view. Values returned by the Store are
// deep copies and safe to read without locking.
type State struct {
	Session models.Session `json:"session"`
	// Rehydrating is true until the saved session has been restored. No
	// redirect decisions are made while it is set.
	Rehydrating bool `json:"rehydrating"`
	// SessionError is the message of the last failed login/signup attempt.
	SessionError string `json:"sessionError,omitempty"`
	// SessionExpired is raised when a token refresh failed and the session
	// was cleared; the view layer shows a re-login prompt.
	SessionExpired bool `json:"sessionExpired"`

	// Clients is the shared copy of the first client page.
	Clients []models.Client `json:"clients"`
	// ClientsSort is the sort Clients was loaded with.
	ClientsSort   models.SortOption `json:"clientsSort"`
	ClientsLoaded bool              `json:"clientsLoaded"`
}

func (s State) clone() State {
	s.Session = s.Session.Clone()
	if s.Clients != nil {
		s.Clients = append([]models.Client(nil), s.Clients...)
	}
	return s
}

// UpdateType defines what kind of data changed.
type UpdateType string

const (
	UpdateSession        UpdateType = "session"
	UpdateSessionExpired UpdateType = "session_expired"
	UpdateClients        UpdateType = "clients"
)

// Update is published after every mutation.
type Update struct {
	Type   UpdateType
	Source string // component that made the change, e.g. "session", "refresh", "clients"
	State  State  // snapshot after the change
}
