package store

import (
	"testing"
	"time"

	"github.com/grovetools/ftrack/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	user := &models.User{ID: "1", Name: "Ada", Email: "a@b.com"}

	tests := []struct {
		name       string
		state      State
		wantAuth   bool
		wantCount  int
		wantNames  []string
		wantExpiry string
	}{
		{
			name:       "anonymous",
			state:      State{},
			wantNames:  []string{},
			wantExpiry: "unknown",
		},
		{
			name: "signed in with five cached clients",
			state: State{
				Session: models.Session{User: user, Token: "t", RefreshToken: "r", ExpiresAt: now.Add(5 * time.Minute).UnixMilli()},
				Clients: clients("c1", "c2", "c3", "c4", "c5"),
			},
			wantAuth:   true,
			wantCount:  5,
			wantNames:  []string{"Client c1", "Client c2", "Client c3"},
			wantExpiry: "in 5m0s",
		},
		{
			name: "expired token",
			state: State{
				Session: models.Session{User: user, Token: "t", RefreshToken: "r", ExpiresAt: now.Add(-10 * time.Second).UnixMilli()},
				Clients: clients("c1"),
			},
			wantAuth:   true,
			wantCount:  1,
			wantNames:  []string{"Client c1"},
			wantExpiry: "expired 10s ago",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum := tt.state.Summarize(now)
			assert.Equal(t, tt.wantAuth, sum.Authenticated)
			assert.Equal(t, tt.wantCount, sum.CachedClients)
			assert.Equal(t, tt.wantNames, sum.FirstClients)
			assert.Equal(t, tt.wantExpiry, sum.ExpiryText())
		})
	}
}

func TestSummaryDoesNotAliasUser(t *testing.T) {
	st := State{Session: models.Session{User: &models.User{ID: "1", Name: "Ada"}, Token: "t"}}
	sum := st.Summarize(time.Now())
	require.NotNil(t, sum.User)
	sum.User.Name = "changed"
	assert.Equal(t, "Ada", st.Session.User.Name)
}
