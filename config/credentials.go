package config

import (
	"context"
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/jonwraymond/storefront/secret"
	"github.com/jonwraymond/storefront/session"
)

// Credentials are the sign-in credentials of each actor, read from
// STOREFRONT_SHOPPER_EMAIL, STOREFRONT_SHOPPER_PASSWORD and so on.
type Credentials struct {
	Shopper session.Credentials `envPrefix:"SHOPPER_"`
	Vendor  session.Credentials `envPrefix:"VENDOR_"`
	Admin   session.Credentials `envPrefix:"ADMIN_"`
}

// LoadCredentials reads credentials from the process environment.
func LoadCredentials() (Credentials, error) {
	return parseCredentials(env.Options{Prefix: EnvPrefix + "_"})
}

// LoadCredentialsFrom reads credentials from environ instead of the
// process environment.
func LoadCredentialsFrom(environ map[string]string) (Credentials, error) {
	return parseCredentials(env.Options{Prefix: EnvPrefix + "_", Environment: environ})
}

func parseCredentials(opts env.Options) (Credentials, error) {
	var c Credentials
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return Credentials{}, fmt.Errorf("parse env: %w", err)
	}
	return c, nil
}

// For returns the credentials of actor.
func (c Credentials) For(actor session.Actor) (session.Credentials, error) {
	switch actor {
	case session.ActorShopper:
		return c.Shopper, nil
	case session.ActorVendor:
		return c.Vendor, nil
	case session.ActorAdmin:
		return c.Admin, nil
	default:
		return session.Credentials{}, fmt.Errorf("%w: %q", session.ErrUnknownActor, actor)
	}
}

// Resolve returns a copy with secret references replaced, so a password
// can be given as secretref:file:/run/secrets/shopper.
func (c Credentials) Resolve(ctx context.Context, r *secret.Resolver) (Credentials, error) {
	for _, actor := range session.Actors {
		cred, _ := c.For(actor)
		if err := r.Resolve(ctx, &cred.Email, &cred.Password); err != nil {
			return Credentials{}, fmt.Errorf("%s credentials: %w", actor, err)
		}
		c.set(actor, cred)
	}
	return c, nil
}

func (c *Credentials) set(actor session.Actor, cred session.Credentials) {
	switch actor {
	case session.ActorShopper:
		c.Shopper = cred
	case session.ActorVendor:
		c.Vendor = cred
	case session.ActorAdmin:
		c.Admin = cred
	}
}
