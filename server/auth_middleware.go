package server

import (
	"net/http"
	"net/url"
)

const sessionRequiredMessage = "Please log in to continue"

// RequireSession lets a request through only while a session exists and the
// caller holds its cookie. An expired access token is still let through; the
// protected call itself triggers the refresh.
func (s *Server) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.isOperator(r) {
			redirectWithError(w, r, RouteLogin, sessionRequiredMessage)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAnonymous keeps a signed in operator away from the login and
// register forms.
func (s *Server) RequireAnonymous(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.isOperator(r) {
			redirectSuccess(w, r, RouteUsers)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithError helper for htmx-aware error redirects
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string) {
	redirectSuccess(w, r, path+"?error="+url.QueryEscape(errorMsg))
}
