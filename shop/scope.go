package shop

import (
	"github.com/jonwraymond/storefront/cache"
	"github.com/jonwraymond/storefront/session"
)

// ForgetOnSignOut drops actor's cached views whenever its session ends,
// so the next user of the client never sees them. It returns a function
// that stops watching.
func ForgetOnSignOut(store *session.Store, c *cache.Cache) (cancel func()) {
	actor := store.Actor()
	return store.OnChange(func(ch session.Change) {
		if ch.State == session.Anonymous {
			c.RemoveMatching(ScopeOf(actor))
		}
	})
}
