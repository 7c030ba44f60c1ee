package shop

import (
	"errors"
	"fmt"

	"github.com/jonwraymond/storefront/api"
	"github.com/jonwraymond/storefront/cache"
	"github.com/jonwraymond/storefront/mutation"
	"github.com/jonwraymond/storefront/observe"
	"github.com/jonwraymond/storefront/session"
)

var (
	ErrNilClient      = errors.New("shop: client is nil")
	ErrNilCoordinator = errors.New("shop: coordinator has no cache")
	ErrWrongActor     = errors.New("shop: client belongs to another actor")
)

// InputError is a request rejected before it reached the server.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string { return fmt.Sprintf("shop: %s: %s", e.Field, e.Message) }

// UserMessage returns the message shown to the user.
func (e *InputError) UserMessage() string { return e.Message }

// FieldErrors returns the offending field.
func (e *InputError) FieldErrors() map[string]string {
	return map[string]string{e.Field: e.Message}
}

func required(field, value string) error {
	if value == "" {
		return &InputError{Field: field, Message: field + " is required"}
	}
	return nil
}

type options struct {
	counter *CartCounter
	visitor Visitor
	logger  observe.Logger
}

// Option configures a service.
type Option func(*options)

// WithCounter sets the cart counter the shopper service keeps current.
func WithCounter(c *CartCounter) Option {
	return func(o *options) { o.counter = c }
}

// WithVisitor sets where the service navigates after writes that move the
// user to another page.
func WithVisitor(v Visitor) Option {
	return func(o *options) { o.visitor = v }
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

type base struct {
	client *api.Client
	cache  *cache.Cache
	co     *mutation.Coordinator
	opts   options
	logger observe.Logger
}

func newBase(actor session.Actor, client *api.Client, co *mutation.Coordinator, opts []Option) (base, error) {
	if client == nil {
		return base{}, ErrNilClient
	}
	if co == nil || co.Cache() == nil {
		return base{}, ErrNilCoordinator
	}
	if client.Actor() != actor {
		return base{}, fmt.Errorf("%w: %s service with %s client", ErrWrongActor, actor, client.Actor())
	}
	o := options{logger: observe.NopLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return base{
		client: client,
		cache:  co.Cache(),
		co:     co,
		opts:   o,
		logger: o.logger.With(observe.F("component", "shop"), observe.F("actor", string(actor))),
	}, nil
}

func matchers(ms ...cache.Matcher) []cache.Matcher { return ms }
