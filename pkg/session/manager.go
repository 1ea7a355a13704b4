// Package session owns the authenticated session: restoring it from durable
// storage, login and logout, and keeping the access token fresh.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/grovetools/ftrack/errors"
	"github.com/grovetools/ftrack/internal/store"
	"github.com/grovetools/ftrack/logging"
	"github.com/grovetools/ftrack/pkg/models"
	"github.com/grovetools/ftrack/state"
	"github.com/sirupsen/logrus"
)

// StorageKey is the durable key holding the saved session.
const StorageKey = "auth"

const (
	// DefaultRefreshThreshold is how close to expiry a token must be before
	// it is refreshed.
	DefaultRefreshThreshold = 3 * time.Minute
	// DefaultRefreshInterval is how often the monitor checks the token.
	DefaultRefreshInterval = time.Minute
)

// AuthAPI is the subset of the backend client the session needs.
type AuthAPI interface {
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error)
	Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error)
	GoogleLogin(ctx context.Context, idToken string) (*models.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*models.RefreshResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Manager mutates the session held in the store and mirrors it to durable
// storage.
type Manager struct {
	store     *store.Store
	durable   state.Store
	api       AuthAPI
	now       func() time.Time
	threshold time.Duration
	logger    *logrus.Entry

	// mu serializes session writes so a refresh result can be checked
	// against the current session before it is applied.
	mu sync.Mutex
	// refreshMu keeps at most one refresh call in flight.
	refreshMu sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithThreshold sets the refresh threshold. Non-positive values are ignored.
func WithThreshold(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.threshold = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Entry) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a Manager over the shared store.
func NewManager(st *store.Store, durable state.Store, api AuthAPI, opts ...Option) *Manager {
	m := &Manager{
		store:     st,
		durable:   durable,
		api:       api,
		now:       time.Now,
		threshold: DefaultRefreshThreshold,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.NewLogger("session")
	}
	return m
}

// Store returns the shared store the manager writes to.
func (m *Manager) Store() *store.Store {
	return m.store
}

// Session returns a copy of the current session.
func (m *Manager) Session() models.Session {
	return m.store.Get().Session
}

// Token returns the current access token. It is used as the API client's
// token source.
func (m *Manager) Token() string {
	return m.store.Get().Session.Token
}

// Restore loads the saved session. It never fails: unreadable, malformed or
// incomplete records are treated as absent. Rehydrating is cleared when it
// returns.
func (m *Manager) Restore(ctx context.Context) {
	defer m.store.SetRehydrating("restore", false)

	saved, ok := m.loadDurable(ctx)
	if !ok {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.store.SetSession("restore", saved)
	m.logger.WithField("user", saved.User.ID).Debug("Restored saved session")
}

// loadDurable reads a complete session record. ok is false for anything else.
func (m *Manager) loadDurable(ctx context.Context) (models.Session, bool) {
	var saved models.Session
	found, err := state.GetJSON(ctx, m.durable, StorageKey, &saved)
	switch {
	case err != nil:
		m.logger.WithError(err).Debug("Ignoring unreadable saved session")
		return models.Session{}, false
	case !found:
		return models.Session{}, false
	case !saved.Complete():
		m.logger.Debug("Ignoring incomplete saved session")
		return models.Session{}, false
	}
	return saved, true
}

// SetSession replaces the session, persists it and clears any login error.
// The two tokens must be set together; passing both empty clears the session.
func (m *Manager) SetSession(ctx context.Context, user *models.User, accessToken, refreshToken string, expiresAt int64) error {
	if (accessToken == "") != (refreshToken == "") {
		return errors.InvalidInput("access and refresh tokens must be set together")
	}
	if accessToken == "" {
		return m.ClearSession(ctx)
	}
	if user == nil {
		return errors.InvalidInput("a session needs a user")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setLocked(ctx, "session", models.Session{
		User:         user,
		Token:        accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	})
}

func (m *Manager) setLocked(ctx context.Context, source string, s models.Session) error {
	m.store.SetSession(source, s)
	if err := state.SetJSON(ctx, m.durable, StorageKey, s); err != nil {
		m.logger.WithError(err).Warn("Failed to persist session")
		return err
	}
	return nil
}

// ClearSession empties the session and erases the saved copy.
func (m *Manager) ClearSession(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clearLocked(ctx, "session")
}

func (m *Manager) clearLocked(ctx context.Context, source string) error {
	m.store.ClearSession(source)
	m.store.ClearClients(source)
	if err := m.durable.Delete(ctx, StorageKey); err != nil {
		m.logger.WithError(err).Warn("Failed to erase saved session")
		return err
	}
	return nil
}

// Login authenticates with email and password.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	resp, err := m.api.Login(ctx, models.Credentials{Email: email, Password: password})
	return m.finishAuth(ctx, "login", resp, err)
}

// Signup creates an account and logs into it.
func (m *Manager) Signup(ctx context.Context, name, email, password string) error {
	resp, err := m.api.Signup(ctx, models.SignupRequest{Name: name, Email: email, Password: password})
	return m.finishAuth(ctx, "signup", resp, err)
}

// GoogleLogin authenticates with a Google ID token.
func (m *Manager) GoogleLogin(ctx context.Context, idToken string) error {
	if idToken == "" {
		return errors.InvalidInput("an ID token is required")
	}
	resp, err := m.api.GoogleLogin(ctx, idToken)
	return m.finishAuth(ctx, "google", resp, err)
}

func (m *Manager) finishAuth(ctx context.Context, method string, resp *models.AuthResponse, err error) error {
	log := m.logger.WithField("method", method)
	if err != nil {
		log.WithError(err).Info("Authentication failed")
		m.store.SetSessionError("session", errors.UserMessage(err))
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.store.SetSessionExpired("session", false)
	if err := m.setLocked(ctx, "session", resp.Session()); err != nil {
		return err
	}
	log.WithField("user", resp.User.ID).Info("Logged in")
	return nil
}

// Logout revokes the refresh token and clears the session. When the backend
// rejects the call the session is kept and the backend's error is returned.
func (m *Manager) Logout(ctx context.Context) error {
	current := m.Session()
	if !current.Authenticated() {
		return m.ClearSession(ctx)
	}
	if err := m.api.Logout(ctx, current.RefreshToken); err != nil {
		m.logger.WithError(err).Warn("Logout rejected, keeping session")
		return err
	}
	m.logger.WithField("user", current.User.ID).Info("Logged out")
	return m.ClearSession(ctx)
}

// NeedsRefresh reports whether the session's access token is within the
// refresh threshold. Sessions with an unknown expiry are never refreshed.
func (m *Manager) NeedsRefresh(s models.Session) bool {
	if !s.Authenticated() || s.RefreshToken == "" {
		return false
	}
	left, ok := s.ExpiresIn(m.now())
	return ok && left < m.threshold
}

// RefreshIfNeeded trades the refresh token for a new access token when the
// current one is about to expire. refreshed reports whether a new token was
// applied. Any refresh failure clears the session, raises the session expired
// signal and returns a SESSION_EXPIRED error.
func (m *Manager) RefreshIfNeeded(ctx context.Context) (refreshed bool, err error) {
	return m.refresh(ctx, false)
}

// Refresh trades the refresh token for a new access token regardless of the
// time left. Failures behave as in RefreshIfNeeded.
func (m *Manager) Refresh(ctx context.Context) (refreshed bool, err error) {
	return m.refresh(ctx, true)
}

func (m *Manager) refresh(ctx context.Context, force bool) (bool, error) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	issued := m.Session()
	if force {
		if !issued.Authenticated() || issued.RefreshToken == "" {
			return false, nil
		}
	} else if !m.NeedsRefresh(issued) {
		return false, nil
	}

	log := m.logger.WithField("user", issued.User.ID)
	log.Debug("Refreshing access token")
	resp, err := m.api.Refresh(ctx, issued.RefreshToken)
	if err != nil && ctx.Err() != nil {
		// Canceled mid-flight; the token was not rejected.
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store.Get().Session.RefreshToken != issued.RefreshToken {
		log.Debug("Session changed during refresh, discarding result")
		return false, nil
	}

	if err != nil {
		log.WithError(err).Warn("Token refresh failed, session cleared")
		_ = m.clearLocked(ctx, "refresh")
		m.store.SetSessionExpired("refresh", true)
		return false, errors.SessionExpired(err)
	}

	next := issued
	next.Token = resp.Token
	next.ExpiresAt = resp.ExpiresAt
	if err := m.setLocked(ctx, "refresh", next); err != nil {
		return true, err
	}
	log.WithField("expires_at", next.Expiry().Format(time.RFC3339)).Info("Access token refreshed")
	return true, nil
}

// AcknowledgeExpired lowers the session expired signal once the user has
// been told.
func (m *Manager) AcknowledgeExpired() {
	m.store.SetSessionExpired("session", false)
}

// Sync reloads the saved session into memory without writing it back. It is
// used when another process changed durable storage. changed reports whether
// the in-memory session was replaced or cleared.
func (m *Manager) Sync(ctx context.Context) (changed bool) {
	saved, ok := m.loadDurable(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.store.Get().Session
	switch {
	case ok && !sameSession(current, saved):
		m.store.SetSession("sync", saved)
		m.logger.WithField("user", saved.User.ID).Info("Session changed on disk, reloaded")
		return true
	case !ok && current.Authenticated():
		m.store.ClearSession("sync")
		m.store.ClearClients("sync")
		m.logger.Info("Session removed on disk, cleared")
		return true
	}
	return false
}

func sameSession(a, b models.Session) bool {
	if a.Token != b.Token || a.RefreshToken != b.RefreshToken || a.ExpiresAt != b.ExpiresAt {
		return false
	}
	if a.User == nil || b.User == nil {
		return a.User == b.User
	}
	return *a.User == *b.User
}
