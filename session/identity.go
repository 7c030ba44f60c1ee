package session

import (
	"fmt"
	"time"
)

// Actor is the kind of user a session belongs to.
type Actor string

const (
	ActorShopper Actor = "shopper"
	ActorVendor  Actor = "vendor"
	ActorAdmin   Actor = "admin"
)

// Actors lists every actor in a stable order.
var Actors = []Actor{ActorShopper, ActorVendor, ActorAdmin}

// ParseActor validates an actor name.
func ParseActor(s string) (Actor, error) {
	for _, a := range Actors {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownActor, s)
}

func (a Actor) String() string { return string(a) }

// State is the authentication state of a store.
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Identity is the confirmed profile of a signed-in user.
type Identity struct {
	Actor Actor  `json:"actor"`
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`

	// Profile carries any further fields the profile endpoint returned.
	Profile map[string]any `json:"profile,omitempty"`

	// Token is the bearer token from login, if the backend issued one.
	Token string `json:"token,omitempty"`

	IssuedAt  time.Time `json:"issued_at,omitzero"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// HasRole reports whether the identity has the given role.
func (id *Identity) HasRole(role string) bool {
	return id != nil && id.Role == role
}

// IsExpired reports whether the identity expired before now. An identity
// without an expiry never expires.
func (id *Identity) IsExpired(now time.Time) bool {
	if id == nil || id.ExpiresAt.IsZero() {
		return false
	}
	return now.After(id.ExpiresAt)
}

// Clone returns a deep copy of the identity.
func (id *Identity) Clone() *Identity {
	if id == nil {
		return nil
	}
	out := *id
	if id.Profile != nil {
		out.Profile = make(map[string]any, len(id.Profile))
		for k, v := range id.Profile {
			out.Profile[k] = v
		}
	}
	return &out
}

// Credentials are the login form values.
type Credentials struct {
	Email    string `env:"EMAIL" json:"email"`
	Password string `env:"PASSWORD" json:"password"`
}

// Validate checks that both fields are present.
func (c Credentials) Validate() error {
	if c.Email == "" || c.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}
