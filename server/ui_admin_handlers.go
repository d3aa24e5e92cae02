package server

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jrsteele09/go-admin-console/auth"
	autherrors "github.com/jrsteele09/go-admin-console/internal/errors"
	"github.com/jrsteele09/go-admin-console/users"
	"github.com/rs/zerolog/log"
)

const invalidFilterMessage = "Dates must be in YYYY-MM-DD format"

// UsersPageData is the model of the user table
type UsersPageData struct {
	PageData
	Page    users.Page
	From    string
	To      string
	Query   string // filter query string, reused by the CSV link
	PrevURL string
	NextURL string
}

// lastLoginFilter is the ?from=&to= date range of the table
type lastLoginFilter struct {
	from, to       time.Time
	fromRaw, toRaw string
	invalid        bool
}

func parseLastLoginFilter(q url.Values) lastLoginFilter {
	f := lastLoginFilter{fromRaw: q.Get("from"), toRaw: q.Get("to")}
	var err error
	if f.fromRaw != "" {
		if f.from, err = time.Parse(users.DateLayout, f.fromRaw); err != nil {
			f.invalid, f.fromRaw = true, ""
		}
	}
	if f.toRaw != "" {
		if f.to, err = time.Parse(users.DateLayout, f.toRaw); err != nil {
			f.invalid, f.toRaw = true, ""
		}
	}
	return f
}

// query encodes the valid bounds, with a leading "?" when not empty
func (f lastLoginFilter) query(extra url.Values) string {
	q := url.Values{}
	if f.fromRaw != "" {
		q.Set("from", f.fromRaw)
	}
	if f.toRaw != "" {
		q.Set("to", f.toRaw)
	}
	for k, v := range extra {
		q[k] = v
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// listUsers fetches every user through the guarded directory and applies f
func (s *Server) listUsers(ctx context.Context, f lastLoginFilter) ([]users.User, error) {
	list, err := s.directory.List(ctx)
	if err != nil {
		return nil, err
	}
	return users.FilterByLastLogin(list, f.from, f.to), nil
}

// sessionLost reports whether err ended the session and, if so, sends the
// operator back to the login page.
func sessionLost(w http.ResponseWriter, r *http.Request, err error) bool {
	if !autherrors.Is(err, autherrors.ErrSessionExpired) && !autherrors.Is(err, autherrors.ErrNoSession) {
		return false
	}
	redirectWithError(w, r, RouteLogin, auth.RefreshFailedMessage)
	return true
}

// UsersPageHandler renders the paginated, filterable user table (GET /)
func (s *Server) UsersPageHandler(p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := parseLastLoginFilter(q)
		number, _ := strconv.Atoi(q.Get("page"))

		data := UsersPageData{
			From:  filter.fromRaw,
			To:    filter.toRaw,
			Query: filter.query(nil),
		}
		status := http.StatusOK
		notice := ""
		if filter.invalid {
			notice = invalidFilterMessage
		}

		list, err := s.listUsers(r.Context(), filter)
		if err != nil {
			if sessionLost(w, r, err) {
				return
			}
			log.Err(err).Msg("Failed to list users")
			notice = auth.UserMessage(err)
			status = http.StatusBadGateway
		}

		// page data is read after the call so a refreshed session is shown
		data.PageData = s.pageData(r, notice)
		data.Page = users.Paginate(list, number, s.config.GetPageSize())
		if data.Page.HasPrev() {
			data.PrevURL = RouteUsers + filter.query(url.Values{"page": {strconv.Itoa(data.Page.Number - 1)}})
		}
		if data.Page.HasNext() {
			data.NextURL = RouteUsers + filter.query(url.Values{"page": {strconv.Itoa(data.Page.Number + 1)}})
		}
		p.render(w, r, status, usersTemplate, data)
	}
}

// UsersCSVHandler downloads the filtered user list (GET /users.csv)
func (s *Server) UsersCSVHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := parseLastLoginFilter(r.URL.Query())
		list, err := s.listUsers(r.Context(), filter)
		if err != nil {
			if sessionLost(w, r, err) {
				return
			}
			log.Err(err).Msg("Failed to export users")
			http.Error(w, auth.UserMessage(err), http.StatusBadGateway)
			return
		}

		var buf bytes.Buffer
		if err := users.WriteCSV(&buf, list); err != nil {
			logError(r.Method, r.URL.Path, err.Error())
			http.Error(w, "Failed to export users", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+CSVFileName+`"`)
		_, _ = buf.WriteTo(w)
	}
}
