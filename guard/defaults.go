package guard

import (
	"fmt"

	"github.com/jonwraymond/storefront/observe"
	"github.com/jonwraymond/storefront/session"
)

// Routes is the login route and protected prefixes of one actor.
type Routes struct {
	Login     string
	Protected []string
}

// DefaultRoutes returns the storefront's route layout for actor.
func DefaultRoutes(actor session.Actor) (Routes, error) {
	switch actor {
	case session.ActorShopper:
		return Routes{
			Login:     "/login",
			Protected: []string{"/cart", "/checkout", "/orders", "/wallet", "/profile"},
		}, nil
	case session.ActorVendor:
		return Routes{
			Login:     "/vendor/login",
			Protected: []string{"/vendor/dashboard", "/vendor/orders", "/vendor/products", "/vendor/coupons", "/vendor/wallet"},
		}, nil
	case session.ActorAdmin:
		return Routes{
			Login:     "/admin/login",
			Protected: []string{"/admin/dashboard", "/admin/vendors", "/admin/categories", "/admin/coupons"},
		}, nil
	default:
		return Routes{}, fmt.Errorf("%w: %q", session.ErrUnknownActor, actor)
	}
}

// NewDefaultRouter builds one guard per actor with DefaultRoutes. profile
// returns the profile fetcher of an actor.
func NewDefaultRouter(stores *session.Stores, profile func(session.Actor) session.ProfileFetcher, mw *observe.Middleware, nav Navigator) (*Router, error) {
	guards := make([]*Guard, 0, len(session.Actors))
	for _, actor := range session.Actors {
		routes, err := DefaultRoutes(actor)
		if err != nil {
			return nil, err
		}
		store, err := stores.For(actor)
		if err != nil {
			return nil, err
		}
		g, err := New(Config{
			Actor:      actor,
			Store:      store,
			Profile:    profile(actor),
			LoginRoute: routes.Login,
			Protected:  routes.Protected,
			Middleware: mw,
		})
		if err != nil {
			return nil, err
		}
		guards = append(guards, g)
	}
	return NewRouter(nav, guards...), nil
}
