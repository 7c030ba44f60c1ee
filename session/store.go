package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/storefront/observe"
)

// ProfileFetcher returns the identity the server holds for the current
// session. It fails when the session is missing or rejected.
type ProfileFetcher interface {
	Profile(ctx context.Context) (*Identity, error)
}

// Authenticator is the actor-scoped auth surface of the backend.
type Authenticator interface {
	ProfileFetcher
	Login(ctx context.Context, cred Credentials) (*Identity, error)
	Logout(ctx context.Context) error
}

// Change describes a state transition of a store.
type Change struct {
	Actor    Actor
	State    State
	Identity *Identity
	// Reason is one of "login", "confirm", "logout", "reject".
	Reason string
}

// Store is the session of one actor.
//
// Contract:
//   - Concurrency: safe for concurrent use. Listeners run after the state
//     is updated, outside the store lock.
//   - Persistence: failures to persist are logged and do not undo the
//     in-memory transition.
type Store struct {
	actor   Actor
	backend Backend
	logger  observe.Logger
	now     func() time.Time

	mu        sync.RWMutex
	identity  *Identity
	listeners map[int]func(Change)
	nextID    int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithBackend sets the persistence backend.
func WithBackend(b Backend) StoreOption {
	return func(s *Store) {
		if b != nil {
			s.backend = b
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates the store for actor and restores a persisted,
// unexpired identity from the backend.
func NewStore(ctx context.Context, actor Actor, opts ...StoreOption) (*Store, error) {
	if _, err := ParseActor(string(actor)); err != nil {
		return nil, err
	}
	s := &Store{
		actor:     actor,
		backend:   NewMemoryBackend(),
		logger:    observe.NopLogger(),
		now:       time.Now,
		listeners: make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(observe.F("component", "session"), observe.F("actor", string(actor)))

	if err := s.restore(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) restore(ctx context.Context) error {
	id, err := s.backend.Load(ctx, s.actor)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore %s session: %w", s.actor, err)
	}
	if id.IsExpired(s.now()) || id.ID == "" {
		s.logger.Debug(ctx, "dropping persisted session", observe.F("expired", id.IsExpired(s.now())))
		return s.backend.Delete(ctx, s.actor)
	}
	id.Actor = s.actor
	s.identity = id
	s.logger.Debug(ctx, "session restored", observe.F("user_id", id.ID))
	return nil
}

// Actor returns the store's actor.
func (s *Store) Actor() Actor { return s.actor }

// State returns the current state.
func (s *Store) State() State {
	if s.IsAuthenticated() {
		return Authenticated
	}
	return Anonymous
}

// IsAuthenticated reports whether an identity is held.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil
}

// IsExpired reports whether the held identity has passed its expiry.
func (s *Store) IsExpired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity.IsExpired(s.now())
}

// Identity returns a copy of the current identity, or nil.
func (s *Store) Identity() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity.Clone()
}

// Login submits credentials and, on success, authenticates the store with
// the identity the server returned. A failed login leaves the state as it
// was.
func (s *Store) Login(ctx context.Context, auth Authenticator, cred Credentials) (*Identity, error) {
	if auth == nil {
		return nil, ErrNilAuthenticator
	}
	if err := cred.Validate(); err != nil {
		return nil, err
	}
	id, err := auth.Login(ctx, cred)
	if err != nil {
		s.logger.Info(ctx, "login failed", observe.F("error", err))
		return nil, err
	}
	return s.authenticate(ctx, id, "login")
}

// Confirm fetches the profile and, on success, authenticates the store
// with it. On failure the state is unchanged; callers decide whether the
// failure is a rejection (see Reject).
func (s *Store) Confirm(ctx context.Context, p ProfileFetcher) (*Identity, error) {
	if p == nil {
		return nil, ErrNilAuthenticator
	}
	id, err := p.Profile(ctx)
	if err != nil {
		return nil, err
	}
	return s.authenticate(ctx, id, "confirm")
}

func (s *Store) authenticate(ctx context.Context, id *Identity, reason string) (*Identity, error) {
	if id == nil || id.ID == "" {
		return nil, ErrEmptyIdentity
	}
	id = id.Clone()
	id.Actor = s.actor

	s.mu.Lock()
	prev := s.identity
	// a profile response carries no token; keep the one from login
	if id.Token == "" && prev != nil && prev.ID == id.ID {
		id.Token = prev.Token
	}
	if id.Token != "" {
		if claims, err := ParseToken(id.Token); err == nil {
			claims.Apply(id)
		} else {
			s.logger.Debug(ctx, "token claims unreadable", observe.F("error", err))
		}
	}
	s.identity = id
	s.mu.Unlock()

	if err := s.backend.Save(ctx, id); err != nil {
		s.logger.Warn(ctx, "failed to persist session", observe.F("error", err))
	}
	if prev == nil || prev.ID != id.ID {
		s.logger.Info(ctx, "session authenticated", observe.F("user_id", id.ID), observe.F("reason", reason))
	}
	s.emit(Change{Actor: s.actor, State: Authenticated, Identity: id.Clone(), Reason: reason})
	return id.Clone(), nil
}

// Logout calls the server logout and then clears the local identity. The
// local identity is cleared even when the server call fails; that error is
// still returned.
func (s *Store) Logout(ctx context.Context, auth Authenticator) error {
	var serverErr error
	if auth != nil {
		serverErr = auth.Logout(ctx)
	}
	s.clear(ctx, "logout")
	if serverErr != nil {
		return fmt.Errorf("server logout: %w", serverErr)
	}
	return nil
}

// Reject clears the identity after the server refused the session.
func (s *Store) Reject(ctx context.Context, cause error) {
	if cause != nil {
		s.logger.Info(ctx, "session rejected", observe.F("error", cause))
	}
	s.clear(ctx, "reject")
}

func (s *Store) clear(ctx context.Context, reason string) {
	s.mu.Lock()
	had := s.identity != nil
	s.identity = nil
	s.mu.Unlock()

	if err := s.backend.Delete(ctx, s.actor); err != nil {
		s.logger.Warn(ctx, "failed to delete persisted session", observe.F("error", err))
	}
	if had {
		s.emit(Change{Actor: s.actor, State: Anonymous, Reason: reason})
	}
}

// OnChange registers fn to run after every transition and returns a
// function that unregisters it.
func (s *Store) OnChange(fn func(Change)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) emit(c Change) {
	s.mu.RLock()
	fns := make([]func(Change), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(c)
	}
}
