package server

import (
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-admin-console/guard"
)

// operatorCookie ties the console's single session to the browser that
// signed in. Other clients of the console see it as anonymous.
const operatorCookie = "console_session"

// bindOperator issues a fresh cookie to the caller and makes it the only one
// the current session answers to.
func (s *Server) bindOperator(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()

	s.operatorLock.Lock()
	s.operatorID = id
	s.operatorLock.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     operatorCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// releaseOperator forgets the bound cookie and expires it in the caller
func (s *Server) releaseOperator(w http.ResponseWriter, r *http.Request) {
	s.operatorLock.Lock()
	s.operatorID = ""
	s.operatorLock.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     operatorCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// isOperator reports whether r comes from the browser holding the live session
func (s *Server) isOperator(r *http.Request) bool {
	if s.guard.State() == guard.Anonymous {
		return false
	}
	c, err := r.Cookie(operatorCookie)
	if err != nil || c.Value == "" {
		return false
	}

	s.operatorLock.Lock()
	id := s.operatorID
	s.operatorLock.Unlock()

	return id != "" && subtle.ConstantTimeCompare([]byte(c.Value), []byte(id)) == 1
}
