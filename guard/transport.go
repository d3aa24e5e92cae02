package guard

import (
	"context"
	"fmt"
	"io"
	"net/http"

	autherrors "github.com/jrsteele09/go-admin-console/internal/errors"
	"github.com/jrsteele09/go-admin-console/sessions"
)

// transport sends every request through the guard
type transport struct {
	guard *Guard
	base  http.RoundTripper
}

// Transport returns a RoundTripper that authorizes requests with the current
// access token and refreshes the session on a 401. A request with a body can
// only be retried when it has GetBody set, as requests built by
// http.NewRequest from a bytes or strings reader do.
func (g *Guard) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{guard: g, base: base}
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	var (
		resp     *http.Response
		attempts int
	)
	err := t.guard.Do(req.Context(), func(ctx context.Context, accessToken string) error {
		r := req.Clone(ctx)
		if attempts > 0 && req.Body != nil && req.Body != http.NoBody {
			if req.GetBody == nil {
				return fmt.Errorf("[Guard Transport] %s %s: request body cannot be replayed", req.Method, req.URL.Path)
			}
			body, err := req.GetBody()
			if err != nil {
				return fmt.Errorf("[Guard Transport] replay body: %w", err)
			}
			r.Body = body
		}
		attempts++

		sessions.Session{AccessToken: accessToken}.Authorize(r)

		res, err := t.base.RoundTrip(r)
		if err != nil {
			return fmt.Errorf("%w: %w", autherrors.ErrNetwork, err)
		}
		if res.StatusCode == http.StatusUnauthorized {
			_, _ = io.Copy(io.Discard, res.Body)
			res.Body.Close()
			return autherrors.Wrapf(autherrors.ErrUnauthorized, "[Guard Transport] %s %s", req.Method, req.URL.Path)
		}
		resp = res
		return nil
	})
	if err != nil {
		if attempts == 0 && req.Body != nil {
			req.Body.Close()
		}
		return nil, err
	}
	return resp, nil
}
