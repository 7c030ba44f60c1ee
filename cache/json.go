package cache

import (
	"context"
	"encoding/json"
	"fmt"
)

// FetchJSON is Fetch for typed values. The value returned by load is
// stored JSON-encoded and decoded on every read, so callers never share
// mutable state through the cache.
func FetchJSON[T any](ctx context.Context, c *Cache, key Key, load func(ctx context.Context) (T, error)) (T, error) {
	raw, err := c.Fetch(ctx, key, JSONLoader(load))
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](key, raw)
}

// JSONLoader adapts a typed load function to a Loader.
func JSONLoader[T any](load func(ctx context.Context) (T, error)) Loader {
	return func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	}
}

// WatchJSON is Watch for typed values. fn receives the decoded value after
// every successful load and the error after every failed one.
func WatchJSON[T any](ctx context.Context, c *Cache, key Key, load func(ctx context.Context) (T, error), fn func(T, error)) (*Subscription, error) {
	var deliver func(Entry)
	if fn != nil {
		deliver = func(e Entry) {
			if e.Status == StatusError {
				var zero T
				fn(zero, e.Err)
				return
			}
			fn(Decode[T](e))
		}
	}
	return c.Watch(ctx, key, JSONLoader(load), deliver)
}

// Decode returns the typed value of a successful entry.
func Decode[T any](e Entry) (T, error) {
	var zero T
	if !e.HasValue() {
		return zero, fmt.Errorf("cache: %s has no value (status %s)", e.Key, e.Status)
	}
	return decode[T](e.Key, e.Value)
}

func decode[T any](key Key, raw []byte) (T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return out, nil
}
