package sessions

import (
	"sync"

	autherrors "github.com/jrsteele09/go-admin-console/internal/errors"
	"github.com/jrsteele09/go-admin-console/users"
)

// Listener is called with the new session after every transition
type Listener func(Session)

type subscription struct {
	id       uint64
	listener Listener
}

// Store owns the current session and is its only writer. Every mutation is
// atomic with respect to Get, and listeners see transitions in the order
// they happened. Listeners run synchronously and must not call the Store's
// mutators.
type Store struct {
	mu      sync.RWMutex
	session Session

	notifyMu sync.Mutex // serializes transition+notify so listener order matches transition order

	listenersMu sync.Mutex
	listeners   []subscription
	nextID      uint64
}

// NewStore creates an empty (anonymous) store
func NewStore() *Store {
	return &Store{}
}

// Get returns a copy of the current session
func (s *Store) Get() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.clone()
}

// Set replaces the whole session after a login or registration
func (s *Store) Set(accessToken, refreshToken string, user users.User) error {
	if accessToken == "" {
		return autherrors.Wrapf(autherrors.ErrPartialSession, "[Store Set] access token is empty")
	}
	s.transition(func(Session) (Session, bool) {
		return Session{AccessToken: accessToken, RefreshToken: refreshToken, User: &user}, true
	})
	return nil
}

// SetAccessToken swaps only the access token, keeping user and refresh token
func (s *Store) SetAccessToken(accessToken string) error {
	if accessToken == "" {
		return autherrors.Wrapf(autherrors.ErrPartialSession, "[Store SetAccessToken] access token is empty")
	}
	ok := s.transition(func(cur Session) (Session, bool) {
		if !cur.Authenticated() {
			return cur, false
		}
		cur.AccessToken = accessToken
		return cur, true
	})
	if !ok {
		return autherrors.Wrapf(autherrors.ErrNoSession, "[Store SetAccessToken]")
	}
	return nil
}

// Rotate applies a refresh result, but only if the session still holds
// previousRefreshToken. It reports false when the session was cleared or
// replaced while the refresh was in flight, so a late refresh can never
// resurrect a logged out session. An empty refreshToken or nil user keeps
// the current value.
func (s *Store) Rotate(previousRefreshToken, accessToken, refreshToken string, user *users.User) bool {
	if accessToken == "" {
		return false
	}
	return s.transition(func(cur Session) (Session, bool) {
		if !cur.Authenticated() || cur.RefreshToken != previousRefreshToken {
			return cur, false
		}
		cur.AccessToken = accessToken
		if refreshToken != "" {
			cur.RefreshToken = refreshToken
		}
		if user != nil {
			u := *user
			cur.User = &u
		}
		return cur, true
	})
}

// Clear drops the session. Clearing an empty store is a no-op and does not
// notify listeners.
func (s *Store) Clear() {
	s.transition(func(cur Session) (Session, bool) {
		if cur == (Session{}) {
			return cur, false
		}
		return Session{}, true
	})
}

// Subscribe registers listener and returns a func that removes it
func (s *Store) Subscribe(listener Listener) (unsubscribe func()) {
	s.listenersMu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, listener: listener})
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			defer s.listenersMu.Unlock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) transition(apply func(cur Session) (next Session, changed bool)) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	next, changed := apply(s.session)
	if changed {
		s.session = next
	}
	snapshot := s.session
	s.mu.Unlock()

	if changed {
		s.notify(snapshot)
	}
	return changed
}

func (s *Store) notify(snapshot Session) {
	s.listenersMu.Lock()
	subs := make([]subscription, len(s.listeners))
	copy(subs, s.listeners)
	s.listenersMu.Unlock()

	for _, sub := range subs {
		sub.listener(snapshot.clone())
	}
}
