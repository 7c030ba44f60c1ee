// Package guard decides whether navigation into a protected route may
// proceed for the actor that owns it.
package guard

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/storefront/observe"
	"github.com/jonwraymond/storefront/session"
)

var (
	ErrRedirectLoop   = errors.New("guard: redirect loop")
	ErrNilStore       = errors.New("guard: store is nil")
	ErrNilProfile     = errors.New("guard: profile fetcher is nil")
	ErrMissingLogin   = errors.New("guard: login route is required")
	ErrActorMismatch  = errors.New("guard: store belongs to another actor")
	ErrNothingToGuard = errors.New("guard: no protected routes")
)

// Reasons reported in a Decision.
const (
	ReasonPublic      = "public"
	ReasonSession     = "session"
	ReasonConfirmed   = "confirmed"
	ReasonRejected    = "rejected"
	ReasonUnavailable = "unavailable"
)

// Config configures one actor's guard.
type Config struct {
	Actor   session.Actor
	Store   *session.Store
	Profile session.ProfileFetcher

	// LoginRoute is where failed checks redirect. It must not be covered
	// by Protected.
	LoginRoute string
	// Protected lists route prefixes. A prefix covers itself and every
	// path below it.
	Protected []string

	Middleware *observe.Middleware
}

// Decision is the outcome of a check.
type Decision struct {
	Allow    bool
	Redirect string
	Reason   string
	// Cause is the profile error behind a redirect.
	Cause error
}

// Guard enforces authentication for one actor's routes.
type Guard struct {
	actor     session.Actor
	store     *session.Store
	profile   session.ProfileFetcher
	login     string
	protected []string
	mw        *observe.Middleware
	logger    observe.Logger
	inflight  singleflight.Group
}

// New validates cfg and builds a Guard.
func New(cfg Config) (*Guard, error) {
	if cfg.Store == nil {
		return nil, ErrNilStore
	}
	if cfg.Profile == nil {
		return nil, ErrNilProfile
	}
	if cfg.Actor == "" {
		cfg.Actor = cfg.Store.Actor()
	}
	if cfg.Actor != cfg.Store.Actor() {
		return nil, fmt.Errorf("%w: %s guard on %s store", ErrActorMismatch, cfg.Actor, cfg.Store.Actor())
	}
	if cfg.LoginRoute == "" {
		return nil, ErrMissingLogin
	}
	if len(cfg.Protected) == 0 {
		return nil, ErrNothingToGuard
	}

	g := &Guard{
		actor:   cfg.Actor,
		store:   cfg.Store,
		profile: cfg.Profile,
		login:   clean(cfg.LoginRoute),
		mw:      cfg.Middleware,
	}
	for _, p := range cfg.Protected {
		g.protected = append(g.protected, clean(p))
	}
	if g.Protects(g.login) {
		return nil, fmt.Errorf("%w: login route %s is protected by the %s guard", ErrRedirectLoop, g.login, g.actor)
	}
	if g.mw == nil {
		g.mw = observe.NopMiddleware()
	}
	g.logger = g.mw.Logger().With(observe.F("component", "guard"), observe.F("actor", string(g.actor)))
	return g, nil
}

// Actor returns the guarded actor.
func (g *Guard) Actor() session.Actor { return g.actor }

// LoginRoute returns the redirect target.
func (g *Guard) LoginRoute() string { return g.login }

// Protects reports whether p falls under a protected prefix.
func (g *Guard) Protects(p string) bool {
	p = clean(p)
	for _, prefix := range g.protected {
		if prefix == "/" || p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

// Check decides whether p may be entered.
//
// Unprotected paths are allowed. A held, unexpired session is allowed
// without a request. Otherwise the profile is fetched: success confirms
// the session and allows, failure redirects to the login route. When the
// server rejected the session the store is cleared as well. Concurrent
// checks share one profile request, which keeps running for the others
// when one caller's context ends.
//
// The error is non-nil only when ctx ended before a decision was made.
func (g *Guard) Check(ctx context.Context, p string) (Decision, error) {
	if !g.Protects(p) {
		return Decision{Allow: true, Reason: ReasonPublic}, nil
	}
	if g.store.IsAuthenticated() && !g.store.IsExpired() {
		return Decision{Allow: true, Reason: ReasonSession}, nil
	}

	// The shared confirm is detached from the first caller's cancellation;
	// each caller waits on its own context.
	shared := context.WithoutCancel(ctx)
	ch := g.inflight.DoChan("confirm", func() (any, error) {
		if g.store.IsAuthenticated() && !g.store.IsExpired() {
			return nil, nil
		}
		meta := observe.OperationMeta{
			Kind:     observe.KindQuery,
			Name:     "confirm_session",
			Resource: "profile",
			Actor:    string(g.actor),
		}
		return nil, g.mw.Run(shared, meta, func(ctx context.Context) error {
			_, err := g.store.Confirm(ctx, g.profile)
			return err
		})
	})

	var err error
	select {
	case res := <-ch:
		err = res.Err
	case <-ctx.Done():
		return Decision{}, ctx.Err()
	}
	if err == nil {
		return Decision{Allow: true, Reason: ReasonConfirmed}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Decision{}, ctxErr
	}

	d := Decision{Redirect: g.login, Reason: ReasonUnavailable, Cause: err}
	if session.IsRejected(err) {
		d.Reason = ReasonRejected
		if g.store.IsAuthenticated() {
			g.store.Reject(ctx, err)
		}
	}
	g.logger.Debug(ctx, "guard redirect",
		observe.F("path", clean(p)),
		observe.F("redirect", g.login),
		observe.F("reason", d.Reason),
	)
	return d, nil
}

func clean(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return path.Clean(p)
}
