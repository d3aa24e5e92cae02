package auth_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-admin-console/auth"
	autherrors "github.com/jrsteele09/go-admin-console/internal/errors"
	"github.com/jrsteele09/go-admin-console/internal/fakeapi"
	"github.com/jrsteele09/go-admin-console/users"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "a@b.com"
	testPhone    = "5551234567"
	testPassword = "Abcd123!"
)

type testFixture struct {
	api    *fakeapi.Server
	server *httptest.Server
	client *auth.Client
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	api := fakeapi.New()
	api.AddAccount(users.User{Email: testEmail, Phone: testPhone, FirstName: "Ada", LastName: "Lovelace"}, testPassword)
	srv := httptest.NewServer(api.Handler("/api/v1"))
	t.Cleanup(srv.Close)

	client, err := auth.NewClient(srv.URL+"/api/v1", auth.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	return &testFixture{api: api, server: srv, client: client}
}

// stubAPI answers every request with status and body
func stubAPI(t *testing.T, status int, body string) *auth.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client, err := auth.NewClient(srv.URL, auth.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	_, err := auth.NewClient("")
	require.Error(t, err)

	_, err = auth.NewClient("/api/v1")
	require.Error(t, err)

	_, err = auth.NewClient("http://localhost:3000/api/v1/")
	require.NoError(t, err)
}

func TestClassifyLogin(t *testing.T) {
	t.Run("email", func(t *testing.T) {
		id := auth.ClassifyLogin("user@x.com")
		require.Equal(t, auth.IdentifierEmail, id.Kind())
		require.Equal(t, "user@x.com", id.Value())
		require.Equal(t, auth.LoginRequest{Email: "user@x.com", Password: "pw"}, id.Request("pw"))
	})

	t.Run("phone", func(t *testing.T) {
		id := auth.ClassifyLogin("5551234567")
		require.Equal(t, auth.IdentifierPhone, id.Kind())
		require.Equal(t, "5551234567", id.Value())
		require.Equal(t, auth.LoginRequest{Phone: "5551234567", Password: "pw"}, id.Request("pw"))
	})

	t.Run("request body carries one identifier", func(t *testing.T) {
		body, err := json.Marshal(auth.ClassifyLogin("5551234567").Request("pw"))
		require.NoError(t, err)
		require.JSONEq(t, `{"phone":"5551234567","password":"pw"}`, string(body))
	})

	t.Run("zero identifier", func(t *testing.T) {
		require.True(t, auth.LoginIdentifier{}.IsZero())
		require.False(t, auth.ClassifyLogin("x").IsZero())
	})
}

func TestParseErrorMessage(t *testing.T) {
	tests := []struct {
		raw, code, message string
	}{
		{"USER_EXISTS|A user with this email already exists", "USER_EXISTS", "A user with this email already exists"},
		{" E1 |  padded message  ", "E1", "padded message"},
		{"A|B|C", "A", "B"},
		{"no delimiter here", "", "fallback"},
		{"CODE|", "CODE", "fallback"},
		{"CODE|   ", "CODE", "fallback"},
		{"", "", "fallback"},
	}
	for _, tt := range tests {
		code, message := auth.ParseErrorMessage(tt.raw, "fallback")
		require.Equal(t, tt.code, code, tt.raw)
		require.Equal(t, tt.message, message, tt.raw)
	}
}

func TestClientLogin(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	t.Run("by email", func(t *testing.T) {
		resp, err := f.client.Login(ctx, auth.ClassifyLogin(testEmail), testPassword)
		require.NoError(t, err)
		require.NotEmpty(t, resp.AccessToken)
		require.NotEmpty(t, resp.RefreshToken)
		require.NotNil(t, resp.User)
		require.Equal(t, testEmail, resp.User.Email)

		tok := resp.Token()
		require.Equal(t, "Bearer", tok.TokenType)
		require.False(t, tok.Expiry.IsZero())
	})

	t.Run("by phone", func(t *testing.T) {
		resp, err := f.client.Login(ctx, auth.ClassifyLogin(testPhone), testPassword)
		require.NoError(t, err)
		require.Equal(t, testEmail, resp.User.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.client.Login(ctx, auth.ClassifyLogin(testEmail), "Wrong123!")
		require.ErrorIs(t, err, autherrors.ErrInvalidCredentials)

		var apiErr *auth.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusUnauthorized, apiErr.Status)
		require.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
		require.Equal(t, "Invalid login details", apiErr.Message)
		require.Equal(t, "Invalid login details", auth.UserMessage(err))
	})

	t.Run("zero identifier", func(t *testing.T) {
		_, err := f.client.Login(ctx, auth.LoginIdentifier{}, testPassword)
		require.Error(t, err)
	})

	t.Run("unknown account is invalid credentials", func(t *testing.T) {
		client := stubAPI(t, http.StatusNotFound, `{"errorMessage":"USER_NOT_FOUND|No such user"}`)
		_, err := client.Login(ctx, auth.ClassifyLogin(testEmail), testPassword)
		require.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})

	for _, status := range []int{http.StatusRequestTimeout, http.StatusTooManyRequests} {
		t.Run(fmt.Sprintf("status %d is not a credentials failure", status), func(t *testing.T) {
			client := stubAPI(t, status, `{"errorMessage":"TRY_LATER|Slow down"}`)
			_, err := client.Login(ctx, auth.ClassifyLogin(testEmail), testPassword)
			require.ErrorIs(t, err, autherrors.ErrNetwork)
			require.NotErrorIs(t, err, autherrors.ErrInvalidCredentials)

			var apiErr *auth.APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, status, apiErr.Status)
		})
	}
}

func TestClientRegister(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	t.Run("creates account", func(t *testing.T) {
		resp, err := f.client.Register(ctx, auth.RegisterRequest{
			FirstName:   "Grace",
			LastName:    "Hopper",
			Email:       "grace@example.com",
			Phone:       "5550001111",
			Password:    testPassword,
			DateOfBirth: "1906-12-09",
		})
		require.NoError(t, err)
		require.Equal(t, "grace@example.com", resp.User.Email)
		require.Equal(t, "1906-12-09", resp.User.DateOfBirth.Date())
	})

	t.Run("duplicate", func(t *testing.T) {
		_, err := f.client.Register(ctx, auth.RegisterRequest{Email: testEmail, Phone: testPhone, Password: testPassword})
		require.ErrorIs(t, err, autherrors.ErrDuplicateAccount)
		require.Equal(t, "A user with this email already exists", auth.UserMessage(err))
	})

	t.Run("rejected", func(t *testing.T) {
		_, err := f.client.Register(ctx, auth.RegisterRequest{Email: "x@y.com"})
		require.ErrorIs(t, err, autherrors.ErrValidationRejected)
	})

	t.Run("malformed error message falls back", func(t *testing.T) {
		client := stubAPI(t, http.StatusUnprocessableEntity, `{"errorMessage":"just text"}`)
		_, err := client.Register(ctx, auth.RegisterRequest{Email: "x@y.com"})
		require.ErrorIs(t, err, autherrors.ErrValidationRejected)
		require.Equal(t, auth.RegisterFailedMessage, auth.UserMessage(err))
	})

	t.Run("non json error body falls back", func(t *testing.T) {
		client := stubAPI(t, http.StatusConflict, `<html>conflict</html>`)
		_, err := client.Register(ctx, auth.RegisterRequest{Email: "x@y.com"})
		require.ErrorIs(t, err, autherrors.ErrDuplicateAccount)
		require.Equal(t, auth.RegisterFailedMessage, err.Error())
	})
}

func TestClientRefresh(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	login, err := f.client.Login(ctx, auth.ClassifyLogin(testEmail), testPassword)
	require.NoError(t, err)

	t.Run("rotates tokens", func(t *testing.T) {
		resp, err := f.client.Refresh(ctx, login.RefreshToken)
		require.NoError(t, err)
		require.NotEqual(t, login.AccessToken, resp.AccessToken)
		require.NotEqual(t, login.RefreshToken, resp.RefreshToken)
		require.Equal(t, testEmail, resp.User.Email)
		require.Equal(t, 1, f.api.RefreshCalls())
	})

	t.Run("reused refresh token is expired", func(t *testing.T) {
		_, err := f.client.Refresh(ctx, login.RefreshToken)
		require.ErrorIs(t, err, autherrors.ErrRefreshExpired)
	})

	t.Run("empty refresh token fails without a call", func(t *testing.T) {
		calls := f.api.RefreshCalls()
		_, err := f.client.Refresh(ctx, "")
		require.ErrorIs(t, err, autherrors.ErrRefreshExpired)
		require.Equal(t, calls, f.api.RefreshCalls())
	})

	t.Run("server error is a network error", func(t *testing.T) {
		client := stubAPI(t, http.StatusServiceUnavailable, `{"errorMessage":"DOWN|Service unavailable"}`)
		_, err := client.Refresh(ctx, "token")
		require.ErrorIs(t, err, autherrors.ErrNetwork)
		require.NotErrorIs(t, err, autherrors.ErrRefreshExpired)
	})
}

func TestClientTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := auth.NewClient(url)
	require.NoError(t, err)

	_, err = client.Login(context.Background(), auth.ClassifyLogin(testEmail), testPassword)
	require.ErrorIs(t, err, autherrors.ErrNetwork)
	require.Equal(t, auth.NetworkFailedMessage, auth.UserMessage(err))
}

func TestClientRequestHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accessToken":"a","refreshToken":"r","user":{"email":"a@b.com"}}`))
	}))
	defer srv.Close()

	client, err := auth.NewClient(srv.URL, auth.WithRequestIDFunc(func() string { return "req-1" }))
	require.NoError(t, err)

	_, err = client.Login(context.Background(), auth.ClassifyLogin(testEmail), testPassword)
	require.NoError(t, err)
	require.Equal(t, "req-1", got.Get(auth.RequestIDHeader))
	require.Equal(t, "application/json", got.Get("Content-Type"))
}

func TestAccessTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("any-secret"))
	require.NoError(t, err)

	got, ok := auth.AccessTokenExpiry(signed)
	require.True(t, ok)
	require.True(t, exp.Equal(got))

	_, ok = auth.AccessTokenExpiry("opaque-token")
	require.False(t, ok)

	_, ok = auth.AccessTokenExpiry("")
	require.False(t, ok)
}
