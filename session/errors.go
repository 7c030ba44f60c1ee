package session

import "errors"

// Sentinel errors for session operations.
var (
	ErrUnknownActor       = errors.New("session: unknown actor")
	ErrMissingCredentials = errors.New("session: missing credentials")
	ErrNoSession          = errors.New("session: no persisted session")
	ErrNilAuthenticator   = errors.New("session: authenticator is nil")
	ErrEmptyIdentity      = errors.New("session: server returned an empty identity")
	ErrMissingToken       = errors.New("session: missing token")
	ErrTokenMalformed     = errors.New("session: token malformed")

	// ErrRejected marks an error as the server refusing the session
	// (expired or revoked). Transport errors match it with errors.Is when
	// the response status was 401 or 403.
	ErrRejected = errors.New("session: rejected by server")
)

// IsRejected reports whether err means the server refused the session.
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}
