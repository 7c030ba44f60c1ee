// Package session holds the per-actor authentication state of the
// storefront client.
//
// There is one Store per actor (shopper, vendor, admin). A store becomes
// Authenticated only from a verified server response: a successful login
// or a successful profile fetch. It returns to Anonymous only on explicit
// logout or when a guard sees the server reject the session. Stores are
// independent, so a shopper and a vendor may be signed in at once.
//
// Identities are persisted through a Backend so a restarted client can
// restore them.
package session
