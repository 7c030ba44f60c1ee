package guard

import (
	"context"
	"fmt"
	"sync"
)

// Navigator performs a navigation once the guards allowed it.
type Navigator interface {
	Navigate(ctx context.Context, path string)
}

// History is a Navigator that records visited paths.
type History struct {
	mu     sync.Mutex
	visits []string
}

// Navigate records p.
func (h *History) Navigate(_ context.Context, p string) {
	h.mu.Lock()
	h.visits = append(h.visits, p)
	h.mu.Unlock()
}

// Visits returns the recorded paths in order.
func (h *History) Visits() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.visits))
	copy(out, h.visits)
	return out
}

// Current returns the last visited path, or "".
func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.visits) == 0 {
		return ""
	}
	return h.visits[len(h.visits)-1]
}

// Router runs every guard covering a path before navigating.
type Router struct {
	guards []*Guard
	nav    Navigator
}

// NewRouter creates a Router. A nil navigator records into a new History.
func NewRouter(nav Navigator, guards ...*Guard) *Router {
	if nav == nil {
		nav = &History{}
	}
	return &Router{guards: guards, nav: nav}
}

// Navigator returns the router's navigator.
func (r *Router) Navigator() Navigator { return r.nav }

// Resolve runs the guards covering p in registration order and returns
// the first redirect, or an allow decision.
func (r *Router) Resolve(ctx context.Context, p string) (Decision, error) {
	for _, g := range r.guards {
		if !g.Protects(p) {
			continue
		}
		d, err := g.Check(ctx, p)
		if err != nil {
			return Decision{}, err
		}
		if !d.Allow {
			return d, nil
		}
	}
	return Decision{Allow: true, Reason: ReasonPublic}, nil
}

// Visit navigates to p, or to the login route of the guard that refused
// it. At most one redirect is followed; a redirect target that is itself
// refused is reported as ErrRedirectLoop and nothing is navigated.
// It returns the path actually navigated to.
func (r *Router) Visit(ctx context.Context, p string) (string, error) {
	d, err := r.Resolve(ctx, p)
	if err != nil {
		return "", err
	}
	if d.Allow {
		target := clean(p)
		r.nav.Navigate(ctx, target)
		return target, nil
	}

	next, err := r.Resolve(ctx, d.Redirect)
	if err != nil {
		return "", err
	}
	if !next.Allow {
		return "", fmt.Errorf("%w: %s -> %s -> %s", ErrRedirectLoop, clean(p), d.Redirect, next.Redirect)
	}
	r.nav.Navigate(ctx, d.Redirect)
	return d.Redirect, nil
}
