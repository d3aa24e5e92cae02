// Package fakeapi is an in-memory stand-in for the boundary REST API, for
// use with httptest. It issues HS256 JWT access tokens and rotating opaque
// refresh tokens.
package fakeapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-admin-console/users"
)

type account struct {
	user     users.User
	password string
}

// Server is the fake API. The zero value is not usable; call New.
type Server struct {
	mu            sync.Mutex
	secret        []byte
	accessTTL     time.Duration
	now           func() time.Time
	accounts      map[string]*account // email -> account
	phones        map[string]string   // phone -> email
	refreshTokens map[string]string   // refresh token -> email
	issued        []string
	revoked       map[string]bool

	rejectRefresh bool
	refreshCalls  int
	refreshGate   chan struct{}
	userListCalls int
}

// Option configures a Server
type Option func(*Server)

// WithAccessTTL sets the exp claim distance of issued access tokens
func WithAccessTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.accessTTL = ttl
	}
}

// WithNow sets the clock used for iat/exp claims
func WithNow(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

func New(options ...Option) *Server {
	s := &Server{
		secret:        []byte("fake-api-secret"),
		accessTTL:     15 * time.Minute,
		now:           time.Now,
		accounts:      make(map[string]*account),
		phones:        make(map[string]string),
		refreshTokens: make(map[string]string),
		revoked:       make(map[string]bool),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Handler routes the API under prefix (e.g. "/api/v1")
func (s *Server) Handler(prefix string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+prefix+"/auth/register", s.register)
	mux.HandleFunc("POST "+prefix+"/auth/login", s.login)
	mux.HandleFunc("POST "+prefix+"/auth/refresh-token", s.refresh)
	mux.HandleFunc("GET "+prefix+"/user/all-users", s.allUsers)
	return mux
}

// AddAccount seeds an account
func (s *Server) AddAccount(u users.User, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	s.accounts[u.Email] = &account{user: u, password: password}
	if u.Phone != "" {
		s.phones[u.Phone] = u.Email
	}
}

// ExpireAccessTokens makes every access token issued so far fail with 401
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tok := range s.issued {
		s.revoked[tok] = true
	}
}

// RejectRefresh makes refresh calls fail with 401
func (s *Server) RejectRefresh(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectRefresh = reject
}

// HoldRefresh makes refresh calls block until the returned release func is
// called.
func (s *Server) HoldRefresh() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.refreshGate = gate
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() { close(gate) })
	}
}

// RefreshCalls is the number of refresh requests received
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// UserListCalls is the number of user listing requests received
func (s *Server) UserListCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userListCalls
}

type registerBody struct {
	UserName    string `json:"userName"`
	FirstName   string `json:"firstname"`
	LastName    string `json:"lastname"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Password    string `json:"password"`
	DateOfBirth string `json:"dateOfBirth"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var body registerBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST|Malformed request body")
		return
	}
	if body.Email == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR|Email and password are required")
		return
	}

	dob, _ := users.ParseTimestamp(body.DateOfBirth)
	firstName := body.FirstName
	if firstName == "" {
		firstName = body.UserName
	}

	s.mu.Lock()
	if _, exists := s.accounts[body.Email]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "USER_EXISTS|A user with this email already exists")
		return
	}
	acct := &account{
		user: users.User{
			ID:          uuid.NewString(),
			Email:       body.Email,
			FirstName:   firstName,
			LastName:    body.LastName,
			Phone:       body.Phone,
			DateOfBirth: users.Timestamp{Time: dob},
			LastLoginAt: users.Timestamp{Time: s.now().UTC()},
		},
		password: body.Password,
	}
	s.accounts[body.Email] = acct
	if body.Phone != "" {
		s.phones[body.Phone] = body.Email
	}
	resp := s.issueLocked(acct)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, resp)
}

type loginBody struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST|Malformed request body")
		return
	}

	s.mu.Lock()
	email := body.Email
	if email == "" {
		email = s.phones[body.Phone]
	}
	acct, ok := s.accounts[email]
	if !ok || acct.password != body.Password {
		s.mu.Unlock()
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS|Invalid login details")
		return
	}
	acct.user.LastLoginAt = users.Timestamp{Time: s.now().UTC()}
	resp := s.issueLocked(acct)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	s.refreshCalls++
	gate := s.refreshGate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	s.mu.Lock()
	email, ok := s.refreshTokens[body.RefreshToken]
	if s.rejectRefresh || !ok {
		s.mu.Unlock()
		writeError(w, http.StatusUnauthorized, "REFRESH_EXPIRED|Refresh token expired")
		return
	}
	delete(s.refreshTokens, body.RefreshToken)
	resp := s.issueLocked(s.accounts[email])
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) allUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.userListCalls++
	s.mu.Unlock()

	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED|Access token expired")
		return
	}

	s.mu.Lock()
	list := make([]users.User, 0, len(s.accounts))
	for _, acct := range s.accounts {
		list = append(list, acct.user)
	}
	s.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].Email < list[j].Email })

	writeJSON(w, http.StatusOK, map[string]any{"data": list})
}

func (s *Server) authorized(r *http.Request) bool {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return false
	}
	tok := strings.TrimSpace(parts[1])

	s.mu.Lock()
	revoked := s.revoked[tok]
	now := s.now
	s.mu.Unlock()
	if revoked {
		return false
	}

	_, err := jwt.ParseWithClaims(tok, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(now))
	return err == nil
}

type authResponse struct {
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	User         users.User `json:"user"`
}

func (s *Server) issueLocked(acct *account) authResponse {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   acct.user.ID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic("fakeapi: sign access token: " + err.Error())
	}
	refresh := uuid.NewString()
	s.refreshTokens[refresh] = acct.user.Email
	s.issued = append(s.issued, access)
	return authResponse{AccessToken: access, RefreshToken: refresh, User: acct.user}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"errorMessage": message})
}
