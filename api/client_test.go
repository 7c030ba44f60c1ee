package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/storefront/resilience"
	"github.com/jonwraymond/storefront/session"
)

func newTestClient(t *testing.T, h http.Handler, actor session.Actor, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, actor, opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func signedToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": "shopper",
		"exp":  exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestNewValidates(t *testing.T) {
	_, err := New("", session.ActorShopper)
	require.ErrorIs(t, err, ErrMissingBaseURL)

	_, err = New("http://localhost", session.Actor("guest"))
	require.ErrorIs(t, err, ErrUnknownActor)

	_, err = New("localhost:8080", session.ActorShopper)
	require.Error(t, err)

	c, err := New("http://localhost:8080/api/", session.ActorVendor)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api", c.BaseURL())
	assert.Equal(t, session.ActorVendor, c.Actor())
}

func TestDoSendsHeaders(t *testing.T) {
	var got http.Header
	var body map[string]any
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		assert.Equal(t, "/cart", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, Cart{Items: []CartItem{{SKU: "A-1", Quantity: 2}, {SKU: "B-7", Quantity: 3}}, Total: 50})
	})
	c := newTestClient(t, h, session.ActorShopper, WithToken("tok-1"))

	cart, err := c.AddToCart(context.Background(), AddToCartRequest{ProductID: "p1", SKU: "A-1", Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Count())

	assert.Equal(t, "Bearer tok-1", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.NotEmpty(t, got.Get(RequestIDHeader))
	assert.Equal(t, DefaultUserAgent, got.Get("User-Agent"))
	assert.Equal(t, "A-1", body["sku"])
}

func TestDoQueryAndEscaping(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/order":
			assert.Equal(t, "shipped", r.URL.Query().Get("status"))
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			writeJSON(w, http.StatusOK, OrderList{Orders: []Order{{ID: "o1"}}, Total: 1})
		case "/cart/SKU 1":
			writeJSON(w, http.StatusOK, Cart{})
		default:
			http.NotFound(w, r)
		}
	})
	c := newTestClient(t, h, session.ActorShopper)

	list, err := c.Orders(context.Background(), OrderQuery{Status: OrderShipped, Page: 2})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)

	_, err = c.RemoveFromCart(context.Background(), "SKU 1")
	require.NoError(t, err)

	_, err = c.Order(context.Background(), "")
	require.ErrorIs(t, err, ErrEmptyID)
}

func TestErrorResponses(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/coupon/apply":
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"message": "Coupon expired",
				"code":    "COUPON_EXPIRED",
			})
		case "/categorys":
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"errors": []map[string]string{{"field": "name", "message": "Name is required"}},
			})
		case "/auth/shopper/profile":
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "jwt expired"})
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("upstream exploded"))
		}
	})
	c := newTestClient(t, h, session.ActorShopper)
	ctx := context.Background()

	_, err := c.ApplyCoupon(ctx, ApplyCouponRequest{Code: "OLD"})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "COUPON_EXPIRED", apiErr.Code)
	assert.Equal(t, "Coupon expired", apiErr.UserMessage())
	assert.NotEmpty(t, apiErr.RequestID)
	assert.True(t, IsValidation(err))
	assert.False(t, session.IsRejected(err))

	_, err = c.CreateCategory(ctx, CategoryRequest{})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, map[string]string{"name": "Name is required"}, apiErr.FieldErrors())
	assert.Equal(t, "Please correct the highlighted fields", MessageOf(err, "fallback"))

	_, err = c.Profile(ctx)
	assert.True(t, IsUnauthorized(err))
	assert.True(t, session.IsRejected(err))

	_, err = c.Vendors(ctx)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "upstream exploded", apiErr.Message)
	assert.False(t, session.IsRejected(err))
	assert.Equal(t, "fallback", MessageOf(errors.New("dial tcp: refused"), "fallback"))
}

func TestLoginWithBodyToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedToken(t, "u-1", exp)

	var sawAuth atomic.Value
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/shopper/login":
			var req loginRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "ann@example.com", req.Email)
			writeJSON(w, http.StatusOK, map[string]any{
				"token": token,
				"user":  map[string]any{"_id": "u-1", "name": "Ann", "password": "hash"},
			})
		case "/auth/shopper/profile":
			sawAuth.Store(r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"id": "u-1", "email": "ann@example.com"}})
		}
	})
	c := newTestClient(t, h, session.ActorShopper)
	ctx := context.Background()

	id, err := c.Login(ctx, session.Credentials{Email: "ann@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.ID)
	assert.Equal(t, "Ann", id.Name)
	assert.Equal(t, "shopper", id.Role)
	assert.Equal(t, "ann@example.com", id.Email)
	assert.True(t, id.ExpiresAt.Equal(exp))
	assert.NotContains(t, id.Profile, "password")
	assert.Equal(t, token, c.Token())

	profile, err := c.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer "+token, sawAuth.Load())
	assert.Equal(t, token, profile.Token)
}

func TestLoginWithCookieSession(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/vendor/login":
			http.SetCookie(w, &http.Cookie{Name: "vendorToken", Value: "cookie-tok", Path: "/"})
			writeJSON(w, http.StatusOK, map[string]any{"vendor": map[string]any{"id": "v-9"}})
		case "/auth/vendor/logout":
			w.WriteHeader(http.StatusNoContent)
		}
	})
	c := newTestClient(t, h, session.ActorVendor)

	id, err := c.Login(context.Background(), session.Credentials{Email: "v@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "v-9", id.ID)
	assert.Equal(t, "cookie-tok", id.Token)

	require.NoError(t, c.Logout(context.Background()))
	assert.Empty(t, c.Token())
}

func TestLogoutDropsTokenOnFailure(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "boom"})
	})
	c := newTestClient(t, h, session.ActorAdmin, WithToken("t"))

	err := c.Logout(context.Background())
	require.Error(t, err)
	assert.Empty(t, c.Token())
}

func TestClientsKeepSeparateCookies(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/shopper/login":
			http.SetCookie(w, &http.Cookie{Name: "token", Value: "shopper-cookie", Path: "/"})
			writeJSON(w, http.StatusOK, map[string]any{"id": "s1"})
		case "/cart":
			ck, err := r.Cookie("token")
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "no cookie"})
				return
			}
			assert.Equal(t, "shopper-cookie", ck.Value)
			writeJSON(w, http.StatusOK, Cart{})
		}
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cs, err := NewClients(srv.URL, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = cs.Shopper.Login(ctx, session.Credentials{Email: "s@example.com", Password: "pw"})
	require.NoError(t, err)

	_, err = cs.Shopper.Cart(ctx)
	require.NoError(t, err)

	// the vendor client has its own jar
	_, err = cs.Vendor.Cart(ctx)
	assert.True(t, IsUnauthorized(err))

	got, err := cs.For(session.ActorAdmin)
	require.NoError(t, err)
	assert.Same(t, cs.Admin, got)
	_, err = cs.For("guest")
	require.ErrorIs(t, err, ErrUnknownActor)
	assert.Nil(t, cs.Authenticator("guest"))
	assert.NotNil(t, cs.Profile(session.ActorVendor))
}

func TestInvoiceBlob(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/order/o-7/invoice", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="invoice-o-7.pdf"`)
		_, _ = w.Write([]byte("%PDF-1.4"))
	})
	c := newTestClient(t, h, session.ActorShopper)

	blob, err := c.Invoice(context.Background(), "o-7")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", blob.ContentType)
	assert.Equal(t, "invoice-o-7.pdf", blob.Filename)
	assert.Equal(t, []byte("%PDF-1.4"), blob.Data)
}

func TestCircuitCountsOnlyServerFailures(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusBadRequest)
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, int(status.Load()), map[string]any{"message": "nope"})
	})
	exec := NewExecutor(session.ActorShopper, resilience.Config{MaxFailures: 2, ResetTimeout: time.Hour}, nil)
	c := newTestClient(t, h, session.ActorShopper, WithExecutor(exec))
	ctx := context.Background()

	for range 3 {
		_, err := c.Cart(ctx)
		require.True(t, IsValidation(err))
	}
	assert.Equal(t, resilience.StateClosed, exec.CircuitBreaker().State())

	status.Store(http.StatusServiceUnavailable)
	for range 2 {
		_, err := c.Cart(ctx)
		require.Error(t, err)
	}
	assert.Equal(t, resilience.StateOpen, exec.CircuitBreaker().State())

	before := calls.Load()
	_, err := c.Cart(ctx)
	require.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, before, calls.Load(), "open circuit must not reach the backend")
}

func TestPing(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusNotFound)
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(int(status.Load()))
	})
	c := newTestClient(t, h, session.ActorShopper)

	require.NoError(t, c.Ping(context.Background()))
	status.Store(http.StatusBadGateway)
	require.Error(t, c.Ping(context.Background()))
}

func TestRouteOf(t *testing.T) {
	tests := map[string]string{
		"/cart":                     "/cart",
		"/order/6650a1/invoice":     "/order/:id/invoice",
		"/order/status/SKU-1":       "/order/status/:id",
		"/auth/shopper/login":       "/auth/shopper/login",
		"/wallet/vendor":            "/wallet/vendor",
		"products/665f2c3d4e5f6a7b": "/products/:id",
	}
	for in, want := range tests {
		assert.Equal(t, want, routeOf(in), in)
	}
	assert.Equal(t, "order", resourceOf("/order/1/invoice"))
	assert.Equal(t, "cart", resourceOf("/cart"))
}
