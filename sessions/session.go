package sessions

import (
	"net/http"

	"github.com/jrsteele09/go-admin-console/users"
	"golang.org/x/oauth2"
)

// Session is the client-held proof of authentication. AccessToken and User
// are either both set or both empty; RefreshToken may be empty when the API
// issued none, in which case the session cannot be refreshed.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *users.User
}

// Authenticated reports whether the session carries an access token
func (s Session) Authenticated() bool {
	return s.AccessToken != "" && s.User != nil
}

// Token returns the access token as an oauth2 bearer token
func (s Session) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    "Bearer",
	}
}

// Authorize sets "Authorization: Bearer <access token>" on r. It does
// nothing for an anonymous session.
func (s Session) Authorize(r *http.Request) {
	if s.AccessToken == "" {
		return
	}
	s.Token().SetAuthHeader(r)
}

// clone copies the user so callers can't reach the store's snapshot
func (s Session) clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
