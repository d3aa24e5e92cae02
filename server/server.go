package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-admin-console/auth"
	"github.com/jrsteele09/go-admin-console/guard"
	"github.com/jrsteele09/go-admin-console/internal/config"
	"github.com/jrsteele09/go-admin-console/sessions"
	"github.com/jrsteele09/go-admin-console/users"
	"github.com/jrsteele09/go-admin-console/validation"
	"github.com/rs/zerolog/log"
)

// Authenticator is the part of auth.Client the console forms use
type Authenticator interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.AuthResponse, error)
	Login(ctx context.Context, id auth.LoginIdentifier, password string) (*auth.AuthResponse, error)
}

var _ Authenticator = (*auth.Client)(nil)

// Server is the admin console frontend. It holds one session, owned by
// store, for the browser that signed in.
type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	router    chi.Router
	config    config.Config
	auth      Authenticator
	store     *sessions.Store
	guard     *guard.Guard
	directory users.Lister

	registerSchema validation.Schema
	profileForm    bool

	operatorLock sync.Mutex
	operatorID   string // console_session cookie value bound to the session
}

func New(cfg config.Config, authenticator Authenticator, store *sessions.Store, g *guard.Guard, directory users.Lister) (*Server, error) {
	s := &Server{
		env:       cfg.GetEnv(),
		config:    cfg,
		auth:      authenticator,
		store:     store,
		guard:     g,
		directory: directory,
	}

	s.registerSchema = validation.RegisterSchema
	if cfg.GetRegisterForm() == config.RegisterFormProfile {
		s.registerSchema = validation.ProfileRegisterSchema
		s.profileForm = true
	}

	if err := s.initRoutes(); err != nil {
		return nil, fmt.Errorf("[Server New] failed to initialise routes: %w", err)
	}
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	_ = chi.Walk(s.router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		logRoute(method, route)
		return nil
	})
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

func logError(method, path, error string) {
	log.Error().Msgf("[%-19s] %s %s", colourMethod(method), path, Red+error+ResetColor)
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}
