package store

import (
	"time"

	"github.com/grovetools/ftrack/pkg/models"
)

// summaryNames is how many client names a Summary carries.
const summaryNames = 3

// Summary is the dashboard header: who is signed in, when the token runs
// out and what the shared first page holds.
type Summary struct {
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user,omitempty"`
	ExpiresAt     *time.Time   `json:"expiresAt,omitempty"`
	// ExpiresIn is the time left in whole seconds; negative once expired.
	ExpiresIn      *int64   `json:"expiresInSeconds,omitempty"`
	SessionExpired bool     `json:"sessionExpired"`
	CachedClients  int      `json:"cachedClients"`
	FirstClients   []string `json:"firstClients"`
	ClientsSort    string   `json:"clientsSort,omitempty"`
}

// Summarize derives the header data from a snapshot at time now.
func (s State) Summarize(now time.Time) Summary {
	sum := Summary{
		Authenticated:  s.Session.Authenticated(),
		SessionExpired: s.SessionExpired,
		CachedClients:  len(s.Clients),
		FirstClients:   []string{},
		ClientsSort:    s.ClientsSort.Label,
	}
	if s.Session.User != nil {
		u := *s.Session.User
		sum.User = &u
	}
	if left, ok := s.Session.ExpiresIn(now); ok {
		at := s.Session.Expiry()
		secs := int64(left / time.Second)
		sum.ExpiresAt = &at
		sum.ExpiresIn = &secs
	}
	for i := 0; i < len(s.Clients) && i < summaryNames; i++ {
		sum.FirstClients = append(sum.FirstClients, s.Clients[i].Name)
	}
	return sum
}

// ExpiryText renders the time left, e.g. "in 4m30s", "expired 10s ago" or
// "unknown".
func (sum Summary) ExpiryText() string {
	if sum.ExpiresIn == nil {
		return "unknown"
	}
	left := time.Duration(*sum.ExpiresIn) * time.Second
	if left < 0 {
		return "expired " + (-left).String() + " ago"
	}
	return "in " + left.String()
}
