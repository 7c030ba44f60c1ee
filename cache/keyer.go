package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// Params are the filter and pagination parameters of a key. Values must be
// JSON-encodable.
type Params map[string]any

// Key addresses one cached view of a server resource.
//
// Two keys are the same slot if and only if their String forms match, so
// parameter order never matters but every parameter value does.
type Key struct {
	Resource string
	Params   Params
}

// NewKey builds a key from a resource name and alternating name/value
// pairs. A trailing name without a value is ignored.
//
//	cache.NewKey("orders", "page", 2, "status", "shipped")
func NewKey(resource string, kv ...any) Key {
	k := Key{Resource: resource}
	for i := 0; i+1 < len(kv); i += 2 {
		name, ok := kv[i].(string)
		if !ok {
			name = fmt.Sprint(kv[i])
		}
		if k.Params == nil {
			k.Params = make(Params, len(kv)/2)
		}
		k.Params[name] = kv[i+1]
	}
	return k
}

// With returns a copy of the key with one more parameter.
func (k Key) With(name string, value any) Key {
	params := make(Params, len(k.Params)+1)
	for n, v := range k.Params {
		params[n] = v
	}
	params[name] = value
	return Key{Resource: k.Resource, Params: params}
}

// String returns the canonical form of the key.
// Format: <resource> or <resource>?<canonical JSON of params>
func (k Key) String() string {
	if len(k.Params) == 0 {
		return k.Resource
	}
	canonical, err := canonicalize(map[string]any(k.Params))
	if err != nil {
		// Unencodable params still get a distinct, deterministic slot.
		return k.Resource + "?" + fmt.Sprintf("%v", map[string]any(k.Params))
	}
	return k.Resource + "?" + string(canonical)
}

// Param returns a parameter value and whether it is present.
func (k Key) Param(name string) (any, bool) {
	v, ok := k.Params[name]
	return v, ok
}

// canonicalize produces a deterministic JSON representation of the input.
// Maps are sorted by key to ensure consistent ordering.
func canonicalize(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case map[string]any:
		return canonicalizeMap(val)
	case Params:
		return canonicalizeMap(map[string]any(val))
	case []any:
		return canonicalizeSlice(val)
	default:
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	return append(result, '}'), nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}
		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	return append(result, ']'), nil
}

// Matcher selects keys for invalidation.
type Matcher func(Key) bool

// Exact matches a single key.
func Exact(key Key) Matcher {
	want := key.String()
	return func(k Key) bool { return k.String() == want }
}

// Resource matches every key of a resource regardless of parameters.
func Resource(name string) Matcher {
	return func(k Key) bool { return k.Resource == name }
}

// ResourceWith matches keys of a resource whose parameters include every
// given parameter with an equal value. Extra parameters on the key are
// ignored, so ResourceWith("order", Params{"id": 42}) matches the order
// detail key of every scope.
func ResourceWith(name string, params Params) Matcher {
	return func(k Key) bool {
		if k.Resource != name {
			return false
		}
		for n, want := range params {
			got, ok := k.Params[n]
			if !ok || !sameValue(got, want) {
				return false
			}
		}
		return true
	}
}

// sameValue compares parameter values by their JSON form so 42 and
// int64(42) are equal.
func sameValue(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	ab, errA := canonicalize(a)
	bb, errB := canonicalize(b)
	return errA == nil && errB == nil && string(ab) == string(bb)
}

// Any matches keys selected by at least one matcher.
func Any(matchers ...Matcher) Matcher {
	return func(k Key) bool {
		for _, m := range matchers {
			if m != nil && m(k) {
				return true
			}
		}
		return false
	}
}
