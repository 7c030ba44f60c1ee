package session

import (
	"context"
	"errors"
)

// Stores bundles the three actor sessions. It is built once per client
// and passed explicitly to whatever needs it.
type Stores struct {
	Shopper *Store
	Vendor  *Store
	Admin   *Store
}

// NewStores creates a store per actor sharing the given options.
func NewStores(ctx context.Context, opts ...StoreOption) (*Stores, error) {
	shopper, err := NewStore(ctx, ActorShopper, opts...)
	if err != nil {
		return nil, err
	}
	vendor, err := NewStore(ctx, ActorVendor, opts...)
	if err != nil {
		return nil, err
	}
	admin, err := NewStore(ctx, ActorAdmin, opts...)
	if err != nil {
		return nil, err
	}
	return &Stores{Shopper: shopper, Vendor: vendor, Admin: admin}, nil
}

// For returns the store of actor.
func (s *Stores) For(actor Actor) (*Store, error) {
	switch actor {
	case ActorShopper:
		return s.Shopper, nil
	case ActorVendor:
		return s.Vendor, nil
	case ActorAdmin:
		return s.Admin, nil
	default:
		return nil, ErrUnknownActor
	}
}

// LogoutAll logs every authenticated store out and joins the errors.
func (s *Stores) LogoutAll(ctx context.Context, auth func(Actor) Authenticator) error {
	var errs []error
	for _, st := range []*Store{s.Shopper, s.Vendor, s.Admin} {
		if !st.IsAuthenticated() {
			continue
		}
		var a Authenticator
		if auth != nil {
			a = auth(st.Actor())
		}
		if err := st.Logout(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
