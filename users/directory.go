package users

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	autherrors "github.com/jrsteele09/go-admin-console/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// AllUsersPath is the protected listing endpoint, relative to the API base URL
const AllUsersPath = "/user/all-users"

// Lister provides the full user list
type Lister interface {
	List(ctx context.Context) ([]User, error)
}

// Directory reads users from the API. Its http.Client is expected to carry
// the session (see guard.Transport); Directory itself never sees a token.
type Directory struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

var _ Lister = (*Directory)(nil)

// DirectoryOption configures a Directory
type DirectoryOption func(*Directory)

// WithDirectoryLogger sets the logger used for failed listings
func WithDirectoryLogger(logger zerolog.Logger) DirectoryOption {
	return func(d *Directory) {
		d.logger = logger
	}
}

// NewDirectory creates a Directory rooted at baseURL
func NewDirectory(baseURL string, client *http.Client, options ...DirectoryOption) *Directory {
	if client == nil {
		client = http.DefaultClient
	}
	d := &Directory{
		baseURL: baseURL,
		client:  client,
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

type listResponse struct {
	Data []User `json:"data"`
}

// List fetches every user
func (d *Directory) List(ctx context.Context) ([]User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+AllUsersPath, nil)
	if err != nil {
		return nil, fmt.Errorf("[Directory List] build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Err(err).Str("path", AllUsersPath).Msg("Failed to fetch users")
		return nil, fmt.Errorf("[Directory List] %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("[Directory List] status %d: %w", resp.StatusCode, autherrors.ErrNetwork)
	case resp.StatusCode >= http.StatusBadRequest:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("[Directory List] unexpected status %d", resp.StatusCode)
	}

	var body listResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("[Directory List] decode: %w", err)
	}
	return body.Data, nil
}
