package store

import (
	"testing"

	"github.com/grovetools/ftrack/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clients(ids ...string) []models.Client {
	out := make([]models.Client, len(ids))
	for i, id := range ids {
		out[i] = models.Client{ID: id, Name: "Client " + id}
	}
	return out
}

func TestNewStoreIsRehydrating(t *testing.T) {
	s := New()
	assert.True(t, s.Get().Rehydrating)

	s.SetRehydrating("test", false)
	assert.False(t, s.Get().Rehydrating)
}

func TestGetReturnsCopies(t *testing.T) {
	s := New()
	s.SetSession("test", models.Session{User: &models.User{ID: "1"}, Token: "t"})
	s.SetClients("test", clients("c1", "c2"), models.DefaultClientSort())

	snap := s.Get()
	snap.Session.User.ID = "mutated"
	snap.Clients[0].Name = "mutated"

	again := s.Get()
	assert.Equal(t, "1", again.Session.User.ID)
	assert.Equal(t, "Client c1", again.Clients[0].Name)
}

func TestSetSessionClearsError(t *testing.T) {
	s := New()
	s.SetSessionError("session", "Invalid credentials")
	assert.Equal(t, "Invalid credentials", s.Get().SessionError)

	s.SetSession("session", models.Session{User: &models.User{ID: "1"}, Token: "t", RefreshToken: "r"})
	assert.Empty(t, s.Get().SessionError)

	s.ClearSession("session")
	assert.False(t, s.Get().Session.Authenticated())
}

func TestClientMirrorOperations(t *testing.T) {
	s := New()
	s.SetClients("clients", clients("c1", "c2", "c3"), models.DefaultClientSort())

	name := "Renamed"
	assert.True(t, s.UpdateClient("clients", "c2", models.ClientPatch{Name: &name}))
	assert.False(t, s.UpdateClient("clients", "c9", models.ClientPatch{Name: &name}))
	assert.Equal(t, "Renamed", s.Get().Clients[1].Name)

	assert.True(t, s.RemoveClient("clients", "c1"))
	assert.False(t, s.RemoveClient("clients", "c1"))
	got := s.Get().Clients
	require.Len(t, got, 2)
	assert.Equal(t, "c2", got[0].ID)

	s.ClearClients("session")
	assert.False(t, s.Get().ClientsLoaded)
	assert.Empty(t, s.Get().Clients)
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	s := New()
	ch := s.Subscribe()

	s.SetSessionExpired("refresh", true)
	update := <-ch
	assert.Equal(t, UpdateSessionExpired, update.Type)
	assert.Equal(t, "refresh", update.Source)
	assert.True(t, update.State.SessionExpired)

	// No change, no broadcast.
	s.SetSessionExpired("refresh", true)
	s.SetClients("clients", clients("c1"), models.DefaultClientSort())
	update = <-ch
	assert.Equal(t, UpdateClients, update.Type)
	assert.Len(t, update.State.Clients, 1)

	s.Unsubscribe(ch)
	_, open := <-ch
	assert.False(t, open)
	s.Unsubscribe(ch)
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	s := New()
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	for i := 0; i < 250; i++ {
		s.SetSessionError("test", "x")
	}
	assert.Len(t, ch, 100)
}
