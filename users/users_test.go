package users_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	autherrors "github.com/jrsteele09/go-admin-console/internal/errors"
	"github.com/jrsteele09/go-admin-console/users"
	"github.com/stretchr/testify/require"
)

func day(s string) users.Timestamp {
	t, err := time.Parse(users.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return users.Timestamp{Time: t}
}

func testUsers(n int) []users.User {
	list := make([]users.User, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, users.User{ID: string(rune('a' + i)), Email: string(rune('a'+i)) + "@example.com"})
	}
	return list
}

func TestUserJSON(t *testing.T) {
	t.Run("decodes dates and timestamps", func(t *testing.T) {
		var u users.User
		err := json.Unmarshal([]byte(`{
			"id": "u-1",
			"email": "a@b.com",
			"firstname": "Ada",
			"lastname": "Lovelace",
			"phone": "5551234567",
			"dateOfBirth": "1990-04-02",
			"lastLoginAt": "2024-05-01T10:30:00.000Z"
		}`), &u)
		require.NoError(t, err)
		require.Equal(t, "a@b.com", u.Email)
		require.Equal(t, "1990-04-02", u.DateOfBirth.Date())
		require.Equal(t, 10, u.LastLoginAt.Hour())
		require.Equal(t, "Ada Lovelace", u.DisplayName())
	})

	t.Run("null and empty are zero", func(t *testing.T) {
		var u users.User
		require.NoError(t, json.Unmarshal([]byte(`{"email":"x@y.io","dateOfBirth":null,"lastLoginAt":""}`), &u))
		require.True(t, u.DateOfBirth.IsZero())
		require.True(t, u.LastLoginAt.IsZero())
		require.Equal(t, "x@y.io", u.DisplayName())
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		var u users.User
		require.Error(t, json.Unmarshal([]byte(`{"dateOfBirth":"02/04/1990"}`), &u))
	})
}

func TestPaginate(t *testing.T) {
	list := testUsers(23)

	t.Run("middle page", func(t *testing.T) {
		p := users.Paginate(list, 2, 10)
		require.Len(t, p.Users, 10)
		require.Equal(t, list[10].ID, p.Users[0].ID)
		require.Equal(t, 3, p.Pages)
		require.Equal(t, 23, p.Total)
		require.True(t, p.HasPrev())
		require.True(t, p.HasNext())
	})

	t.Run("last page is short", func(t *testing.T) {
		p := users.Paginate(list, 3, 10)
		require.Len(t, p.Users, 3)
		require.False(t, p.HasNext())
	})

	t.Run("out of range is clamped", func(t *testing.T) {
		require.Equal(t, 3, users.Paginate(list, 99, 10).Number)
		require.Equal(t, 1, users.Paginate(list, -4, 10).Number)
	})

	t.Run("empty list has one empty page", func(t *testing.T) {
		p := users.Paginate(nil, 1, 10)
		require.Empty(t, p.Users)
		require.Equal(t, 1, p.Pages)
		require.False(t, p.HasPrev())
		require.False(t, p.HasNext())
	})
}

func TestFilterByLastLogin(t *testing.T) {
	list := []users.User{
		{Email: "old@x.com", LastLoginAt: day("2024-01-01")},
		{Email: "mid@x.com", LastLoginAt: users.Timestamp{Time: time.Date(2024, 3, 15, 23, 59, 0, 0, time.UTC)}},
		{Email: "new@x.com", LastLoginAt: day("2024-06-01")},
		{Email: "never@x.com"},
	}

	emails := func(l []users.User) []string {
		out := []string{}
		for _, u := range l {
			out = append(out, u.Email)
		}
		return out
	}

	require.Len(t, users.FilterByLastLogin(list, time.Time{}, time.Time{}), 4)
	require.Equal(t, []string{"mid@x.com", "new@x.com"}, emails(users.FilterByLastLogin(list, day("2024-03-15").Time, time.Time{})))
	require.Equal(t, []string{"old@x.com", "mid@x.com"}, emails(users.FilterByLastLogin(list, time.Time{}, day("2024-03-15").Time)))
	require.Equal(t, []string{"mid@x.com"}, emails(users.FilterByLastLogin(list, day("2024-02-01").Time, day("2024-04-01").Time)))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := users.WriteCSV(&buf, []users.User{{
		Email:       "a@b.com",
		FirstName:   "Ada",
		LastName:    "Lovelace, Countess",
		Phone:       "5551234567",
		DateOfBirth: day("1990-04-02"),
		LastLoginAt: day("2024-05-01"),
	}})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "email,firstname,lastname,phone,dateOfBirth,lastLoginAt", lines[0])
	require.Equal(t, `a@b.com,Ada,"Lovelace, Countess",5551234567,1990-04-02,2024-05-01T00:00:00Z`, lines[1])
}

func TestDirectoryList(t *testing.T) {
	t.Run("decodes data envelope", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, users.AllUsersPath, r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":[{"id":"1","email":"a@b.com"},{"id":"2","email":"c@d.com"}]}`))
		}))
		defer srv.Close()

		list, err := users.NewDirectory(srv.URL, srv.Client()).List(context.Background())
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, "c@d.com", list[1].Email)
	})

	t.Run("server errors are network errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := users.NewDirectory(srv.URL, srv.Client()).List(context.Background())
		require.ErrorIs(t, err, autherrors.ErrNetwork)
	})
}
