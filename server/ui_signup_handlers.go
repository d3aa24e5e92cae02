package server

import (
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-admin-console/auth"
	"github.com/jrsteele09/go-admin-console/validation"
	"github.com/rs/zerolog/log"
)

// RegisterPageData is the model of the registration page
type RegisterPageData struct {
	PageData
	Profile bool // first/last name and date of birth instead of a username
}

// WelcomePageData is the model of the page shown after registering
type WelcomePageData struct {
	PageData
	Email string
}

// RegisterPageHandler renders the registration page (GET /register)
func (s *Server) RegisterPageHandler(p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := RegisterPageData{PageData: s.pageData(r, r.URL.Query().Get("error")), Profile: s.profileForm}
		p.render(w, r, http.StatusOK, registerTemplate, data)
	}
}

// RegisterSubmissionHandler handles the registration form (POST /register)
func (s *Server) RegisterSubmissionHandler(p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		input := make(map[string]string, len(s.registerSchema))
		for _, field := range s.registerSchema {
			input[field.Name] = r.PostFormValue(field.Name)
		}
		values, result := s.registerSchema.Validate(input)

		data := RegisterPageData{PageData: s.pageData(r, ""), Profile: s.profileForm}
		data.Values = withoutPassword(values)
		if err := result.Err(); err != nil {
			log.Debug().Err(err).Msg("Registration form rejected")
			data.Errors = result
			p.render(w, r, statusFor(err), registerTemplate, data)
			return
		}

		resp, err := s.auth.Register(r.Context(), registerRequest(values))
		if err == nil {
			err = s.startSession(resp)
		}
		if err != nil {
			log.Err(err).Msg("Registration failed")
			data.Notice = auth.UserMessage(err)
			p.render(w, r, statusFor(err), registerTemplate, data)
			return
		}

		log.Info().Str("user_id", resp.User.ID).Msg("Registered")
		s.bindOperator(w, r)
		redirectSuccess(w, r, RouteWelcome+"?email="+url.QueryEscape(values[validation.FieldEmail]))
	}
}

// WelcomeHandler greets a newly registered user (GET /welcome)
func (s *Server) WelcomeHandler(p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := WelcomePageData{PageData: s.pageData(r, ""), Email: r.URL.Query().Get("email")}
		p.render(w, r, http.StatusOK, welcomeTemplate, data)
	}
}

// registerRequest builds the API body from validated values. Fields the
// active form does not collect are empty and omitted.
func registerRequest(values validation.Values) auth.RegisterRequest {
	return auth.RegisterRequest{
		UserName:    values[validation.FieldUsername],
		FirstName:   values[validation.FieldFirstName],
		LastName:    values[validation.FieldLastName],
		Email:       values[validation.FieldEmail],
		Phone:       values[validation.FieldPhone],
		Password:    values[validation.FieldPassword],
		DateOfBirth: values[validation.FieldDateOfBirth],
	}
}

// withoutPassword copies values for echoing back into the form
func withoutPassword(values validation.Values) validation.Values {
	echo := make(validation.Values, len(values))
	for name, value := range values {
		if name != validation.FieldPassword {
			echo[name] = value
		}
	}
	return echo
}
