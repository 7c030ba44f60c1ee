package cache

import (
	"errors"
	"time"
)

// Sentinel errors for cache operations.
var (
	ErrNilLoader     = errors.New("cache: loader is nil")
	ErrEmptyResource = errors.New("cache: key resource is empty")
)

// Status is the lifecycle state of an entry.
type Status int

const (
	// StatusIdle means the key has never been fetched.
	StatusIdle Status = iota
	// StatusLoading means a load is in flight.
	StatusLoading
	// StatusSuccess means the last load succeeded.
	StatusSuccess
	// StatusError means the last load failed.
	StatusError
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Entry is a read-only view of one cached server resource.
//
// A failed load keeps the last successful Value and records Err.
type Entry struct {
	Key           Key
	Status        Status
	Value         []byte
	Err           error
	LastFetchedAt time.Time

	// Stale is set by invalidation and cleared by the next successful load.
	Stale bool

	// Fingerprint is a hash of Value. Consumers compare it to skip
	// re-rendering when a refetch returned identical bytes.
	Fingerprint uint64
}

// HasValue reports whether the entry holds data from a successful load.
func (e Entry) HasValue() bool {
	return !e.LastFetchedAt.IsZero()
}
