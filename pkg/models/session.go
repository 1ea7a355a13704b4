package models

import (
	"encoding/json"
	"time"
)

// User is the authenticated account.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// UnmarshalJSON accepts the backend's "_id" as well as "id".
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*u = User(aux.plain)
	if u.ID == "" {
		u.ID = aux.MongoID
	}
	return nil
}

// Session is the credential set persisted under the "auth" key. ExpiresAt is
// epoch milliseconds; zero means unknown.
type Session struct {
	User         *User  `json:"user"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt,omitempty"`
}

// Authenticated reports whether the session carries a user and an access token.
func (s Session) Authenticated() bool {
	return s.User != nil && s.Token != ""
}

// Complete reports whether a durable record is usable: user and both tokens.
func (s Session) Complete() bool {
	return s.User != nil && s.Token != "" && s.RefreshToken != ""
}

// ExpiresIn returns the time left on the access token. ok is false when the
// expiry is unknown.
func (s Session) ExpiresIn(now time.Time) (time.Duration, bool) {
	if s.ExpiresAt == 0 {
		return 0, false
	}
	return time.Duration(s.ExpiresAt-now.UnixMilli()) * time.Millisecond, true
}

// Expiry returns ExpiresAt as a time, or the zero time.
func (s Session) Expiry() time.Time {
	if s.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.ExpiresAt)
}

// Clone returns a copy that shares no pointers with s.
func (s Session) Clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Credentials is the body of POST /auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleLoginRequest is the body of POST /auth/google.
type GoogleLoginRequest struct {
	IDToken string `json:"idToken"`
}

// RefreshRequest is the body of POST /auth/refresh-token and /auth/logout.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthResponse is returned by login, signup and google login.
type AuthResponse struct {
	User         *User  `json:"user"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
}

// Session converts the response into a session record.
func (r AuthResponse) Session() Session {
	return Session{
		User:         r.User,
		Token:        r.Token,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    r.ExpiresAt,
	}
}

// RefreshResponse is returned by POST /auth/refresh-token.
type RefreshResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}
