package cache

import "time"

// Policy configures freshness.
type Policy struct {
	// StaleTime is how long a successful load stays fresh. Zero means fresh
	// until invalidated.
	StaleTime time.Duration

	// MaxEntries bounds the number of entries without mounted consumers.
	// When exceeded, the least recently fetched unmounted entries are
	// dropped. Zero means unbounded.
	MaxEntries int
}

// DefaultPolicy returns the default policy: fresh until invalidated,
// unbounded.
func DefaultPolicy() Policy {
	return Policy{}
}

// isFresh reports whether a successful entry fetched at fetchedAt may be
// served without a load.
func (p Policy) isFresh(fetchedAt, now time.Time) bool {
	if p.StaleTime <= 0 {
		return true
	}
	return now.Sub(fetchedAt) < p.StaleTime
}
