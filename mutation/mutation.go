// Package mutation runs server writes and keeps the cache consistent with
// them.
//
// A mutation declares up front which cached resources its success makes
// stale. The coordinator runs the call, and only after it resolves
// successfully invalidates exactly those resources, runs the caller's
// side effect and emits a success notification. A failed call touches no
// cache entry and surfaces the server's message to the user.
package mutation

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/jonwraymond/storefront/cache"
	"github.com/jonwraymond/storefront/notify"
	"github.com/jonwraymond/storefront/observe"
)

// FallbackMessage is shown when a failure carries no server message.
const FallbackMessage = "Something went wrong"

var (
	ErrNilCall     = errors.New("mutation: call is nil")
	ErrMissingName = errors.New("mutation: name is required")
)

// userMessager is implemented by errors that carry a message meant for the
// end user, such as api.Error.
type userMessager interface {
	UserMessage() string
}

// fieldErrorer is implemented by validation failures.
type fieldErrorer interface {
	FieldErrors() map[string]string
}

// Coordinator holds what every mutation needs: the cache to invalidate,
// where to send notifications and how to observe runs.
type Coordinator struct {
	cache    *cache.Cache
	notifier notify.Notifier
	logger   observe.Logger
	mw       *observe.Middleware
	actor    string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithNotifier sets the notifier. The default discards notifications.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Coordinator) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithMiddleware sets the observe middleware.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(c *Coordinator) {
		if mw != nil {
			c.mw = mw
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithActor tags telemetry with the acting session kind.
func WithActor(actor string) Option {
	return func(c *Coordinator) { c.actor = actor }
}

// NewCoordinator creates a Coordinator over the given cache.
func NewCoordinator(c *cache.Cache, opts ...Option) *Coordinator {
	co := &Coordinator{
		cache:    c,
		notifier: notify.Discard,
		logger:   observe.NopLogger(),
		mw:       observe.NopMiddleware(),
	}
	for _, opt := range opts {
		opt(co)
	}
	co.logger = co.logger.With(observe.F("component", "mutation"))
	return co
}

// Cache returns the coordinated cache.
func (c *Coordinator) Cache() *cache.Cache { return c.cache }

// Spec declares one write operation.
type Spec[Req, Resp any] struct {
	// Name identifies the operation in telemetry and notifications.
	Name string
	// Resource is the primary resource the call writes.
	Resource string

	Call func(ctx context.Context, req Req) (Resp, error)

	// Invalidates returns the cache entries a successful call makes stale.
	Invalidates func(req Req, resp Resp) []cache.Matcher

	// OnSuccess runs after invalidation, e.g. to navigate or update a
	// session store.
	OnSuccess func(ctx context.Context, req Req, resp Resp)

	// SuccessMessage, if set, is shown after a successful call.
	SuccessMessage string

	// ErrorMessage overrides the message shown for a failure. Returning
	// "" falls back to the server message.
	ErrorMessage func(err error) string
}

// Mutation is a runnable write operation.
type Mutation[Req, Resp any] struct {
	co      *Coordinator
	spec    Spec[Req, Resp]
	pending atomic.Int64
}

// New binds spec to a coordinator.
func New[Req, Resp any](co *Coordinator, spec Spec[Req, Resp]) *Mutation[Req, Resp] {
	return &Mutation[Req, Resp]{co: co, spec: spec}
}

// Name returns the operation name.
func (m *Mutation[Req, Resp]) Name() string { return m.spec.Name }

// Pending reports whether a run is in progress.
func (m *Mutation[Req, Resp]) Pending() bool { return m.pending.Load() > 0 }

// Run performs the call. On success the declared entries are invalidated,
// then OnSuccess runs, then the success notification is sent. On failure
// nothing is invalidated, an error notification is sent and the error is
// returned.
//
// Concurrent runs are not serialized; the server decides which write wins.
func (m *Mutation[Req, Resp]) Run(ctx context.Context, req Req) (Resp, error) {
	var zero Resp
	if m.spec.Name == "" {
		return zero, ErrMissingName
	}
	if m.spec.Call == nil {
		return zero, ErrNilCall
	}

	m.pending.Add(1)
	defer m.pending.Add(-1)

	meta := observe.OperationMeta{
		Kind:     observe.KindMutation,
		Name:     m.spec.Name,
		Resource: m.spec.Resource,
		Actor:    m.co.actor,
	}

	var resp Resp
	err := m.co.mw.Run(ctx, meta, func(ctx context.Context) error {
		var err error
		resp, err = m.spec.Call(ctx, req)
		return err
	})
	if err != nil {
		m.co.notifier.Notify(ctx, m.failure(err))
		return zero, err
	}

	if m.spec.Invalidates != nil && m.co.cache != nil {
		matchers := m.spec.Invalidates(req, resp)
		n := m.co.cache.InvalidateMatching(ctx, matchers...)
		m.co.logger.Debug(ctx, "mutation invalidated entries",
			observe.F("op", m.spec.Name),
			observe.F("entries", n),
		)
	}
	if m.spec.OnSuccess != nil {
		m.spec.OnSuccess(ctx, req, resp)
	}
	if m.spec.SuccessMessage != "" {
		m.co.notifier.Notify(ctx, notify.Notification{
			Level:     notify.LevelSuccess,
			Operation: m.spec.Name,
			Message:   m.spec.SuccessMessage,
		})
	}
	return resp, nil
}

func (m *Mutation[Req, Resp]) failure(err error) notify.Notification {
	n := notify.Notification{
		Level:     notify.LevelError,
		Operation: m.spec.Name,
		Message:   MessageOf(err),
	}
	if m.spec.ErrorMessage != nil {
		if msg := m.spec.ErrorMessage(err); msg != "" {
			n.Message = msg
		}
	}
	var fe fieldErrorer
	if errors.As(err, &fe) {
		if fields := fe.FieldErrors(); len(fields) > 0 {
			n.Fields = fields
		}
	}
	return n
}

// MessageOf returns the user-facing message carried by err, or
// FallbackMessage.
func MessageOf(err error) string {
	var um userMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return FallbackMessage
}
