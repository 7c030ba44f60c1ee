package api

import (
	"fmt"

	"github.com/jonwraymond/storefront/session"
)

// Clients bundles one client per actor. Each keeps its own cookies and
// token, so the three actors can be signed in side by side.
type Clients struct {
	Shopper *Client
	Vendor  *Client
	Admin   *Client
}

// NewClients creates a client for every actor. perActor may add options
// for a single actor, such as its executor; it may be nil.
func NewClients(baseURL string, perActor func(session.Actor) []Option, opts ...Option) (*Clients, error) {
	build := func(actor session.Actor) (*Client, error) {
		all := append([]Option(nil), opts...)
		if perActor != nil {
			all = append(all, perActor(actor)...)
		}
		return New(baseURL, actor, all...)
	}

	var cs Clients
	var err error
	if cs.Shopper, err = build(session.ActorShopper); err != nil {
		return nil, err
	}
	if cs.Vendor, err = build(session.ActorVendor); err != nil {
		return nil, err
	}
	if cs.Admin, err = build(session.ActorAdmin); err != nil {
		return nil, err
	}
	return &cs, nil
}

// For returns the client of actor.
func (cs *Clients) For(actor session.Actor) (*Client, error) {
	switch actor {
	case session.ActorShopper:
		return cs.Shopper, nil
	case session.ActorVendor:
		return cs.Vendor, nil
	case session.ActorAdmin:
		return cs.Admin, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActor, actor)
	}
}

// Authenticator returns actor's client as a session.Authenticator, or nil
// for an unknown actor.
func (cs *Clients) Authenticator(actor session.Actor) session.Authenticator {
	c, err := cs.For(actor)
	if err != nil {
		return nil
	}
	return c
}

// Profile returns actor's client as a session.ProfileFetcher, or nil for
// an unknown actor.
func (cs *Clients) Profile(actor session.Actor) session.ProfileFetcher {
	c, err := cs.For(actor)
	if err != nil {
		return nil
	}
	return c
}

// All returns the clients in session.Actors order.
func (cs *Clients) All() []*Client {
	return []*Client{cs.Shopper, cs.Vendor, cs.Admin}
}
