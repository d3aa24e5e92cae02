package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/go-admin-console/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Auth API routes, relative to the API base URL
const (
	RegisterPath = "/auth/register"
	LoginPath    = "/auth/login"
	RefreshPath  = "/auth/refresh-token"

	RequestIDHeader = "X-Request-ID"
)

// maxErrorBody caps how much of an error response is read
const maxErrorBody = 64 << 10

// RegisterRequest is the POST /auth/register body. Depending on the form
// either UserName or FirstName/LastName (and DateOfBirth) are set.
type RegisterRequest struct {
	UserName    string `json:"userName,omitempty"`
	FirstName   string `json:"firstname,omitempty"`
	LastName    string `json:"lastname,omitempty"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Password    string `json:"password"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type errorResponse struct {
	ErrorMessage string `json:"errorMessage"`
}

// Client performs the register, login and refresh round trips. It never
// retries; retry policy belongs to the caller.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	logger       zerolog.Logger
	newRequestID func() string
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient sets the http.Client used for API calls
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger for API calls
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRequestIDFunc sets the X-Request-ID generator (primarily for testing)
func WithRequestIDFunc(f func() string) ClientOption {
	return func(c *Client) {
		c.newRequestID = f
	}
}

// NewClient creates a Client for the API rooted at baseURL
// (e.g. "http://localhost:3000/api/v1").
func NewClient(baseURL string, options ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("[NewClient] invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("[NewClient] base URL must be absolute, got %q", baseURL)
	}

	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   http.DefaultClient,
		logger:       log.Logger,
		newRequestID: uuid.NewString,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Register creates an account and returns its first token pair.
// A conflict fails with ErrDuplicateAccount, any other rejection with
// ErrValidationRejected.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	return c.post(ctx, RegisterPath, req, RegisterFailedMessage, func(status int) error {
		if status == http.StatusConflict {
			return autherrors.ErrDuplicateAccount
		}
		return autherrors.ErrValidationRejected
	})
}

// Login exchanges an email or phone identifier and password for a token pair.
// A 400, 401, 403 or 404 fails with ErrInvalidCredentials. Any other status,
// such as 408 or 429, is not about the credentials and fails with ErrNetwork.
func (c *Client) Login(ctx context.Context, id LoginIdentifier, password string) (*AuthResponse, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("[Client Login] identifier is required")
	}
	return c.post(ctx, LoginPath, id.Request(password), LoginFailedMessage, func(status int) error {
		switch status {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return autherrors.ErrInvalidCredentials
		}
		return autherrors.ErrNetwork
	})
}

// Refresh exchanges a refresh token for a new token pair. A rejected refresh
// token fails with ErrRefreshExpired, which is terminal for the session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken == "" {
		return nil, &APIError{Message: RefreshFailedMessage, Kind: autherrors.ErrRefreshExpired}
	}
	return c.post(ctx, RefreshPath, refreshRequest{RefreshToken: refreshToken}, RefreshFailedMessage, func(int) error {
		return autherrors.ErrRefreshExpired
	})
}

// post sends body as JSON. rejected maps a 4xx status to its sentinel;
// transport failures and 5xx are always ErrNetwork.
func (c *Client) post(ctx context.Context, path string, body any, fallback string, rejected func(status int) error) (*AuthResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("[Client %s] encode request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("[Client %s] build request: %w", path, err)
	}
	requestID := c.newRequestID()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	logger := c.logger.With().Str("request_id", requestID).Str("path", path).Logger()
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Err(err).Msg("Auth API request failed")
		return nil, &APIError{Message: NetworkFailedMessage, Kind: autherrors.ErrNetwork, Cause: err}
	}
	defer resp.Body.Close()

	logger.Debug().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("Auth API response")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var authResp AuthResponse
		if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
			return nil, fmt.Errorf("[Client %s] decode response: %w", path, err)
		}
		if authResp.AccessToken == "" {
			return nil, fmt.Errorf("[Client %s] response has no accessToken", path)
		}
		return &authResp, nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var errBody errorResponse
	_ = json.Unmarshal(raw, &errBody)
	code, message := ParseErrorMessage(errBody.ErrorMessage, fallback)

	kind := autherrors.ErrNetwork
	if resp.StatusCode < http.StatusInternalServerError {
		kind = rejected(resp.StatusCode)
	}
	logger.Warn().Int("status", resp.StatusCode).Str("code", code).Str("kind", kind.Error()).Msg("Auth API rejected request")

	return nil, &APIError{
		Status:  resp.StatusCode,
		Code:    code,
		Message: message,
		Kind:    kind,
	}
}
