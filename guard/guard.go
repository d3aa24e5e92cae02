// Package guard decides, for every protected call, whether the current
// session can be used as is, must be refreshed first, or is gone.
//
// A protected call that is rejected with ErrUnauthorized moves the guard to
// Expired. The first caller to observe Expired starts the one and only
// refresh; every caller that arrives while it is in flight queues behind it
// and is released, in arrival order, with the outcome of that refresh.
package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-admin-console/auth"
	autherrors "github.com/jrsteele09/go-admin-console/internal/errors"
	"github.com/jrsteele09/go-admin-console/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultRefreshTimeout = 10 * time.Second

// State of the guard
type State int

const (
	Anonymous State = iota
	Authenticated
	Expired
	Refreshing
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	case Refreshing:
		return "refreshing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Refresher exchanges a refresh token for a new token pair. *auth.Client
// satisfies it.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*auth.AuthResponse, error)
}

var _ Refresher = (*auth.Client)(nil)

// Call is a protected operation. It must return an error wrapping
// errors.ErrUnauthorized when the API rejects accessToken.
type Call func(ctx context.Context, accessToken string) error

type outcome struct {
	token string
	err   error
}

// Guard coordinates protected calls around a sessions.Store
type Guard struct {
	store          *sessions.Store
	refresher      Refresher
	logger         zerolog.Logger
	refreshTimeout time.Duration

	checkExpiry bool
	now         func() time.Time
	leeway      time.Duration

	mu          sync.Mutex
	state       State
	waiters     []chan outcome
	unsubscribe func()

	released func(chan outcome) // observes each waiter as settle releases it
}

// Option configures a Guard
type Option func(*Guard)

// WithLogger sets the guard's logger
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// WithRefreshTimeout bounds the shared refresh call
func WithRefreshTimeout(timeout time.Duration) Option {
	return func(g *Guard) {
		if timeout > 0 {
			g.refreshTimeout = timeout
		}
	}
}

// WithExpiryCheck makes the guard read the exp claim of JWT access tokens and
// treat a token expiring within leeway of now() as already rejected. A leeway
// of zero or less leaves the check off.
func WithExpiryCheck(now func() time.Time, leeway time.Duration) Option {
	return func(g *Guard) {
		if leeway <= 0 {
			g.checkExpiry = false
			return
		}
		if now == nil {
			now = time.Now
		}
		g.checkExpiry = true
		g.now = now
		g.leeway = leeway
	}
}

// New creates a Guard that follows store. Call Close to detach it.
func New(store *sessions.Store, refresher Refresher, options ...Option) *Guard {
	g := &Guard{
		store:          store,
		refresher:      refresher,
		logger:         log.Logger,
		refreshTimeout: DefaultRefreshTimeout,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(g)
	}

	g.mu.Lock()
	g.unsubscribe = store.Subscribe(g.sessionChanged)
	if store.Get().Authenticated() {
		g.state = Authenticated
	}
	g.mu.Unlock()
	return g
}

// Close stops following the store
func (g *Guard) Close() {
	g.mu.Lock()
	unsubscribe := g.unsubscribe
	g.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// State returns the current state
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Pending is the number of callers waiting on the in-flight refresh
func (g *Guard) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.waiters)
}

// Logout clears the session. A refresh still in flight settles normally but
// its result is discarded and its waiters see ErrSessionExpired.
func (g *Guard) Logout() {
	g.store.Clear()
}

// Do runs call with a usable access token. If the call is rejected as
// unauthorized the session is refreshed (once, shared with every concurrent
// caller) and the call is issued again with the new token. A second
// rejection is returned to the caller as is.
func (g *Guard) Do(ctx context.Context, call Call) error {
	token, refreshed, err := g.acquire(ctx)
	if err != nil {
		return err
	}

	err = call(ctx, token)
	if refreshed || !autherrors.Is(err, autherrors.ErrUnauthorized) {
		return err
	}
	g.logger.Debug().Msg("Protected call unauthorized, refreshing session")

	token, err = g.expire(ctx, token)
	if err != nil {
		return err
	}
	return call(ctx, token)
}

// acquire returns the token to use for a first attempt. refreshed is true
// when getting it already took a refresh.
func (g *Guard) acquire(ctx context.Context) (token string, refreshed bool, err error) {
	g.mu.Lock()
	switch g.state {
	case Anonymous:
		g.mu.Unlock()
		return "", false, autherrors.Wrapf(autherrors.ErrNoSession, "[Guard Do]")
	case Refreshing:
		token, err = g.wait(ctx, g.enqueueLocked())
		return token, true, err
	}

	sess := g.store.Get()
	if !sess.Authenticated() {
		g.state = Anonymous
		g.mu.Unlock()
		return "", false, autherrors.Wrapf(autherrors.ErrNoSession, "[Guard Do]")
	}
	if g.state == Expired || g.expiredLocked(sess.AccessToken) {
		token, err = g.wait(ctx, g.startRefreshLocked(sess))
		return token, true, err
	}
	g.mu.Unlock()
	return sess.AccessToken, false, nil
}

// expire handles a rejection of staleToken
func (g *Guard) expire(ctx context.Context, staleToken string) (string, error) {
	g.mu.Lock()
	if g.state == Refreshing {
		return g.wait(ctx, g.enqueueLocked())
	}

	sess := g.store.Get()
	switch {
	case !sess.Authenticated():
		g.state = Anonymous
		g.mu.Unlock()
		return "", autherrors.Wrapf(autherrors.ErrSessionExpired, "[Guard Do] session ended")
	case sess.AccessToken != staleToken:
		// refreshed by someone else since this call started
		g.mu.Unlock()
		return sess.AccessToken, nil
	}
	g.state = Expired
	return g.wait(ctx, g.startRefreshLocked(sess))
}

func (g *Guard) expiredLocked(accessToken string) bool {
	if !g.checkExpiry {
		return false
	}
	exp, ok := auth.AccessTokenExpiry(accessToken)
	return ok && !g.now().Add(g.leeway).Before(exp)
}

func (g *Guard) enqueueLocked() chan outcome {
	ch := make(chan outcome, 1)
	g.waiters = append(g.waiters, ch)
	return ch
}

// startRefreshLocked moves Expired to Refreshing and queues the caller first
func (g *Guard) startRefreshLocked(sess sessions.Session) chan outcome {
	g.state = Refreshing
	ch := g.enqueueLocked()
	go g.refresh(sess.RefreshToken)
	return ch
}

// wait releases g.mu and blocks until the refresh settles or ctx is done
func (g *Guard) wait(ctx context.Context, ch chan outcome) (string, error) {
	g.mu.Unlock()
	select {
	case out := <-ch:
		return out.token, out.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// refresh runs detached from every caller's context so one caller giving up
// does not fail the others.
func (g *Guard) refresh(refreshToken string) {
	ctx, cancel := context.WithTimeout(context.Background(), g.refreshTimeout)
	defer cancel()

	start := time.Now()
	resp, err := g.refresher.Refresh(ctx, refreshToken)

	var out outcome
	switch {
	case err == nil:
		if g.store.Rotate(refreshToken, resp.AccessToken, resp.RefreshToken, resp.User) {
			out.token = resp.AccessToken
			g.logger.Info().Dur("elapsed", time.Since(start)).Msg("Session refreshed")
		} else {
			out.err = autherrors.Wrapf(autherrors.ErrSessionExpired, "[Guard refresh] session ended while refreshing")
			g.logger.Info().Msg("Refresh result discarded, session ended while refreshing")
		}
	case autherrors.Is(err, autherrors.ErrRefreshExpired):
		g.store.Clear()
		out.err = fmt.Errorf("%w: %w", autherrors.ErrSessionExpired, err)
		g.logger.Info().Msg("Refresh token rejected, session cleared")
	default:
		out.err = err
		g.logger.Err(err).Msg("Refresh failed, keeping session")
	}

	g.settle(out)
}

// settle drains the waiters in arrival order. The new state follows the store:
// no session is Anonymous, a kept session after a failed refresh is Expired.
func (g *Guard) settle(out outcome) {
	g.mu.Lock()
	waiters := g.waiters
	g.waiters = nil
	switch {
	case !g.store.Get().Authenticated():
		g.state = Anonymous
	case out.err != nil && !autherrors.Is(out.err, autherrors.ErrSessionExpired):
		g.state = Expired
	default:
		g.state = Authenticated
	}
	g.mu.Unlock()

	for _, ch := range waiters {
		if g.released != nil {
			g.released(ch)
		}
		ch <- out
	}
}

// sessionChanged follows store transitions made outside the guard. While
// refreshing the state is left to settle.
func (g *Guard) sessionChanged(sess sessions.Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == Refreshing {
		return
	}
	if sess.Authenticated() {
		g.state = Authenticated
	} else {
		g.state = Anonymous
	}
}
