package mutation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/storefront/cache"
	"github.com/jonwraymond/storefront/notify"
)

type validationError struct {
	msg    string
	fields map[string]string
}

func (e *validationError) Error() string                  { return "validation: " + e.msg }
func (e *validationError) UserMessage() string            { return e.msg }
func (e *validationError) FieldErrors() map[string]string { return e.fields }

func seed(t *testing.T, c *cache.Cache, keys ...cache.Key) {
	t.Helper()
	for i, k := range keys {
		v := []byte(fmt.Sprintf(`{"v":%d}`, i))
		_, err := c.Fetch(context.Background(), k, func(context.Context) ([]byte, error) { return v, nil })
		require.NoError(t, err)
	}
}

func TestRunSuccessOrder(t *testing.T) {
	c := cache.New()
	orders := cache.NewKey("orders", "scope", "vendor")
	categories := cache.NewKey("categories")
	seed(t, c, orders, categories)

	rec := notify.NewRecorder()
	co := NewCoordinator(c, WithNotifier(rec))

	var steps []string
	m := New(co, Spec[string, int]{
		Name:     "update_order_status",
		Resource: "order",
		Call: func(_ context.Context, status string) (int, error) {
			steps = append(steps, "call")
			assert.False(t, c.Get(orders).Stale, "invalidated before the call resolved")
			return 7, nil
		},
		Invalidates: func(string, int) []cache.Matcher {
			steps = append(steps, "invalidate")
			return []cache.Matcher{cache.Resource("orders")}
		},
		OnSuccess: func(_ context.Context, status string, id int) {
			steps = append(steps, "side-effect")
			assert.True(t, c.Get(orders).Stale, "side effect ran before invalidation")
			assert.Empty(t, rec.All(), "notified before side effect")
		},
		SuccessMessage: "Status updated",
	})

	got, err := m.Run(context.Background(), "shipped")
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, []string{"call", "invalidate", "side-effect"}, steps)

	assert.True(t, c.Get(orders).Stale)
	assert.False(t, c.Get(categories).Stale, "unrelated entry invalidated")

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, notify.LevelSuccess, last.Level)
	assert.Equal(t, "Status updated", last.Message)
	assert.Equal(t, "update_order_status", last.Operation)
	assert.False(t, m.Pending())
}

func TestRunFailureLeavesCacheUntouched(t *testing.T) {
	c := cache.New()
	seed(t, c, cache.NewKey("cart"), cache.NewKey("wallet"), cache.NewKey("orders", "page", 1))
	before := c.Snapshot()

	rec := notify.NewRecorder()
	co := NewCoordinator(c, WithNotifier(rec))

	sideEffect := false
	invalidatesCalled := false
	boom := &validationError{msg: "Invalid quantity", fields: map[string]string{"qty": "must be at least 1"}}
	m := New(co, Spec[int, struct{}]{
		Name: "add_to_cart",
		Call: func(context.Context, int) (struct{}, error) { return struct{}{}, boom },
		Invalidates: func(int, struct{}) []cache.Matcher {
			invalidatesCalled = true
			return []cache.Matcher{cache.Resource("cart")}
		},
		OnSuccess:      func(context.Context, int, struct{}) { sideEffect = true },
		SuccessMessage: "Added",
	})

	_, err := m.Run(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.False(t, sideEffect)
	assert.False(t, invalidatesCalled)
	assert.Equal(t, before, c.Snapshot())

	all := rec.All()
	require.Len(t, all, 1)
	assert.Equal(t, notify.LevelError, all[0].Level)
	assert.Equal(t, "Invalid quantity", all[0].Message)
	assert.Equal(t, map[string]string{"qty": "must be at least 1"}, all[0].Fields)
}

func TestRunFailureMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		override func(error) string
		want     string
	}{
		{"plain error uses fallback", errors.New("dial tcp: refused"), nil, FallbackMessage},
		{"server message", &validationError{msg: "Coupon expired"}, nil, "Coupon expired"},
		{"wrapped server message", fmt.Errorf("apply: %w", &validationError{msg: "Coupon expired"}), nil, "Coupon expired"},
		{"empty server message", &validationError{}, nil, FallbackMessage},
		{"override", errors.New("x"), func(error) string { return "Could not apply coupon" }, "Could not apply coupon"},
		{"empty override", &validationError{msg: "Server says no"}, func(error) string { return "" }, "Server says no"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := notify.NewRecorder()
			m := New(NewCoordinator(cache.New(), WithNotifier(rec)), Spec[int, int]{
				Name:         "apply_coupon",
				Call:         func(context.Context, int) (int, error) { return 0, tt.err },
				ErrorMessage: tt.override,
			})
			_, err := m.Run(context.Background(), 1)
			require.ErrorIs(t, err, tt.err)
			last, ok := rec.Last()
			require.True(t, ok)
			assert.Equal(t, tt.want, last.Message)
			assert.Nil(t, last.Fields)
		})
	}
}

func TestRunWithoutSuccessMessageIsSilent(t *testing.T) {
	rec := notify.NewRecorder()
	m := New(NewCoordinator(cache.New(), WithNotifier(rec)), Spec[int, int]{
		Name: "logout",
		Call: func(_ context.Context, v int) (int, error) { return v, nil },
	})
	_, err := m.Run(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, rec.All())
}

func TestRunValidation(t *testing.T) {
	co := NewCoordinator(cache.New())

	_, err := New(co, Spec[int, int]{Call: func(context.Context, int) (int, error) { return 0, nil }}).Run(context.Background(), 0)
	assert.ErrorIs(t, err, ErrMissingName)

	_, err = New(co, Spec[int, int]{Name: "x"}).Run(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNilCall)
}

func TestPendingDuringCall(t *testing.T) {
	var m *Mutation[int, int]
	m = New(NewCoordinator(cache.New()), Spec[int, int]{
		Name: "place_order",
		Call: func(context.Context, int) (int, error) {
			assert.True(t, m.Pending())
			return 1, nil
		},
	})
	_, err := m.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, m.Pending())
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, FallbackMessage, MessageOf(errors.New("x")))
	assert.Equal(t, "Out of stock", MessageOf(&validationError{msg: "Out of stock"}))
}
