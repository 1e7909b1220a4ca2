package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
)

// SessionName is the cookie carrying the signed session.
const SessionName = "session"

const (
	valueUserID   = "user_id"
	valueUsername = "username"
)

// ErrNoSession is returned when a request carries no valid session.
var ErrNoSession = errors.New("no session")

// Sessions issues and reads signed session cookies.
type Sessions struct {
	store  sessions.Store
	maxAge int
}

// sessionMaxAge is the cookie lifetime in seconds.
const sessionMaxAge = 7 * 24 * 60 * 60

// NewSessions creates a cookie-backed session manager signed with secret.
// secure should be true whenever the server is reached over HTTPS.
func NewSessions(secret []byte, secure bool) *Sessions {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store, maxAge: sessionMaxAge}
}

// Principal returns the user bound to the request's session cookie.
func (s *Sessions) Principal(r *http.Request) (*Principal, error) {
	session, err := s.store.Get(r, SessionName)
	if err != nil {
		// Tampered or stale cookie: treat as signed out
		return nil, ErrNoSession
	}

	userID, _ := session.Values[valueUserID].(string)
	username, _ := session.Values[valueUsername].(string)
	if userID == "" {
		return nil, ErrNoSession
	}
	return &Principal{UserID: userID, Username: username}, nil
}

// Start binds p to a fresh session cookie on w.
func (s *Sessions) Start(w http.ResponseWriter, r *http.Request, p Principal) error {
	session, _ := s.store.Get(r, SessionName)
	for k := range session.Values {
		delete(session.Values, k)
	}
	session.Values[valueUserID] = p.UserID
	session.Values[valueUsername] = p.Username
	session.Options.MaxAge = s.maxAge

	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// End expires the session cookie. It succeeds when there is no session.
func (s *Sessions) End(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, SessionName)
	for k := range session.Values {
		delete(session.Values, k)
	}
	session.Options.MaxAge = -1

	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
