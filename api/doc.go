// Package api is the REST surface of the storefront backend.
//
// A Client talks to the backend on behalf of one actor. It keeps that
// actor's cookies and bearer token, sends JSON, and turns non-2xx
// responses into *Error. Every request runs through the actor's
// resilience executor and is observed with a span, metrics and a log
// line. Nothing is retried.
//
// Typed endpoint methods wrap Do for each resource; a Client also
// satisfies session.Authenticator for its actor.
package api
