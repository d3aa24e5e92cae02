package server

import (
	"net/http"

	"github.com/jrsteele09/go-admin-console/auth"
	autherrors "github.com/jrsteele09/go-admin-console/internal/errors"
	"github.com/jrsteele09/go-admin-console/validation"
	"github.com/rs/zerolog/log"
)

// LoginPageHandler displays the login page (GET /login)
func (s *Server) LoginPageHandler(p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.render(w, r, http.StatusOK, loginTemplate, s.pageData(r, r.URL.Query().Get("error")))
	}
}

// LoginSubmissionHandler processes the login form submission (POST /login)
func (s *Server) LoginSubmissionHandler(p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		values, result := validation.LoginSchema.Validate(map[string]string{
			validation.FieldLogin:    r.PostFormValue(validation.FieldLogin),
			validation.FieldPassword: r.PostFormValue(validation.FieldPassword),
		})
		data := s.pageData(r, "")
		data.Values = validation.Values{validation.FieldLogin: values[validation.FieldLogin]}
		if err := result.Err(); err != nil {
			log.Debug().Err(err).Msg("Login form rejected")
			data.Errors = result
			p.render(w, r, statusFor(err), loginTemplate, data)
			return
		}

		id := auth.ClassifyLogin(values[validation.FieldLogin])
		resp, err := s.auth.Login(r.Context(), id, values[validation.FieldPassword])
		if err == nil {
			err = s.startSession(resp)
		}
		if err != nil {
			log.Err(err).Str("kind", string(id.Kind())).Msg("Login failed")
			data.Notice = auth.UserMessage(err)
			p.render(w, r, statusFor(err), loginTemplate, data)
			return
		}

		log.Info().Str("user_id", resp.User.ID).Str("kind", string(id.Kind())).Msg("Logged in")
		s.bindOperator(w, r)
		redirectSuccess(w, r, RouteUsers)
	}
}

// LogoutHandler drops the session (GET or POST /logout). A browser that does
// not hold the session cookie only loses its own stale cookie.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.isOperator(r) {
			s.guard.Logout()
			s.releaseOperator(w, r)
		}
		redirectSuccess(w, r, RouteLogin)
	}
}

// startSession stores a register or login response
func (s *Server) startSession(resp *auth.AuthResponse) error {
	if resp.User == nil {
		return autherrors.Wrapf(autherrors.ErrPartialSession, "[Server startSession] response has no user")
	}
	return s.store.Set(resp.AccessToken, resp.RefreshToken, *resp.User)
}

// statusFor maps a typed error to the status the form is re-rendered with
func statusFor(err error) int {
	switch {
	case autherrors.Is(err, autherrors.ErrFieldValidation):
		return http.StatusUnprocessableEntity
	case autherrors.Is(err, autherrors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case autherrors.Is(err, autherrors.ErrDuplicateAccount):
		return http.StatusConflict
	case autherrors.Is(err, autherrors.ErrValidationRejected):
		return http.StatusUnprocessableEntity
	case autherrors.Is(err, autherrors.ErrNetwork):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
