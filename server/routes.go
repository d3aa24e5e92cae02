package server

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func (s *Server) initRoutes() error {
	pages, err := parsePages()
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.LoggingMiddleware)
	r.Use(s.FrameSecurityMiddleware)

	r.Group(func(r chi.Router) {
		r.Use(s.RequireAnonymous)
		r.Get(RouteLogin, s.LoginPageHandler(pages))
		r.Post(RouteLogin, s.LoginSubmissionHandler(pages))
		r.Get(RouteRegister, s.RegisterPageHandler(pages))
		r.Post(RouteRegister, s.RegisterSubmissionHandler(pages))
	})

	r.Get(RouteWelcome, s.WelcomeHandler(pages))
	r.Get(RouteLogout, s.LogoutHandler())
	r.Post(RouteLogout, s.LogoutHandler())

	r.Group(func(r chi.Router) {
		r.Use(s.RequireSession, NoStoreMiddleware)
		r.Get(RouteUsers, s.UsersPageHandler(pages))
		r.Get(RouteUsersCSV, s.UsersCSVHandler())
	})

	s.router = r
	return nil
}
