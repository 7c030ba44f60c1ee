package shop

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/storefront/api"
	"github.com/jonwraymond/storefront/cache"
	"github.com/jonwraymond/storefront/mutation"
	"github.com/jonwraymond/storefront/notify"
	"github.com/jonwraymond/storefront/session"
)

// fakeBackend is an in-memory storefront backend.
type fakeBackend struct {
	mu         sync.Mutex
	cart       api.Cart
	vendors    []api.Vendor
	categories []api.Category
	orders     map[string]*api.Order
	wallet     api.Wallet
	coupons    []api.Coupon
	hits       map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		vendors: []api.Vendor{
			{ID: "V1", Name: "Acme", Email: "acme@example.com"},
			{ID: "V2", Name: "Globex", Email: "globex@example.com"},
		},
		categories: []api.Category{{ID: "c1", Name: "Shoes", Active: true}},
		orders: map[string]*api.Order{
			"42": {ID: "42", Status: api.OrderConfirmed, Items: []api.OrderItem{
				{ProductID: "P9", SKU: "S9", Quantity: 1, Price: 30, Status: api.OrderProcessing},
			}},
		},
		wallet:  api.Wallet{Balance: 100},
		coupons: []api.Coupon{{ID: "k1", Code: "SAVE10", DiscountType: api.DiscountPercent, Value: 10, Active: true}},
		hits:    make(map[string]int),
	}
}

func (b *fakeBackend) hit(route string) {
	b.mu.Lock()
	b.hits[route]++
	b.mu.Unlock()
}

func (b *fakeBackend) Hits(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[route]
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /cart", func(w http.ResponseWriter, r *http.Request) {
		b.hit("GET /cart")
		b.mu.Lock()
		defer b.mu.Unlock()
		reply(w, http.StatusOK, b.cart)
	})
	mux.HandleFunc("POST /cart", func(w http.ResponseWriter, r *http.Request) {
		b.hit("POST /cart")
		var req api.AddToCartRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.SKU == "OOS" {
			reply(w, http.StatusConflict, map[string]any{"message": "Out of stock"})
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		b.cart.Items = append(b.cart.Items, api.CartItem{ProductID: req.ProductID, SKU: req.SKU, Quantity: req.Quantity, Price: 10})
		reply(w, http.StatusOK, b.cart)
	})
	mux.HandleFunc("GET /vendor", func(w http.ResponseWriter, r *http.Request) {
		b.hit("GET /vendor")
		b.mu.Lock()
		defer b.mu.Unlock()
		reply(w, http.StatusOK, api.VendorList{Vendors: b.vendors, Total: len(b.vendors)})
	})
	mux.HandleFunc("PATCH /vendor/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req api.UpdateVendorRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		defer b.mu.Unlock()
		for i := range b.vendors {
			if b.vendors[i].ID == r.PathValue("id") {
				b.vendors[i].Blocked = req.Blocked
				reply(w, http.StatusOK, b.vendors[i])
				return
			}
		}
		reply(w, http.StatusNotFound, map[string]any{"message": "Vendor not found"})
	})
	mux.HandleFunc("GET /categorys", func(w http.ResponseWriter, r *http.Request) {
		b.hit("GET /categorys")
		b.mu.Lock()
		defer b.mu.Unlock()
		reply(w, http.StatusOK, api.CategoryList{Categories: b.categories})
	})
	mux.HandleFunc("GET /order", func(w http.ResponseWriter, r *http.Request) {
		b.hit("GET /order")
		b.mu.Lock()
		defer b.mu.Unlock()
		var list api.OrderList
		for _, o := range b.orders {
			list.Orders = append(list.Orders, *o)
		}
		list.Total = len(list.Orders)
		reply(w, http.StatusOK, list)
	})
	mux.HandleFunc("GET /order/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.hit("GET /order/" + r.PathValue("id"))
		b.mu.Lock()
		defer b.mu.Unlock()
		o, ok := b.orders[r.PathValue("id")]
		if !ok {
			reply(w, http.StatusNotFound, map[string]any{"message": "Order not found"})
			return
		}
		reply(w, http.StatusOK, o)
	})
	mux.HandleFunc("POST /order", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		o := &api.Order{ID: "o-100", Status: api.OrderPending}
		for _, it := range b.cart.Items {
			o.Items = append(o.Items, api.OrderItem{ProductID: it.ProductID, SKU: it.SKU, Quantity: it.Quantity})
		}
		b.orders[o.ID] = o
		b.cart = api.Cart{}
		reply(w, http.StatusCreated, api.PlaceOrderResponse{Order: *o})
	})
	mux.HandleFunc("PATCH /order/status/{sku}", func(w http.ResponseWriter, r *http.Request) {
		var req api.UpdateOrderStatusRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		defer b.mu.Unlock()
		o, ok := b.orders[req.OrderID]
		if !ok {
			reply(w, http.StatusNotFound, map[string]any{"message": "Order not found"})
			return
		}
		for i := range o.Items {
			if o.Items[i].SKU == r.PathValue("sku") {
				o.Items[i].Status = req.Status
			}
		}
		reply(w, http.StatusOK, o)
	})
	mux.HandleFunc("GET /wallet/{actor}", func(w http.ResponseWriter, r *http.Request) {
		b.hit("GET /wallet")
		b.mu.Lock()
		defer b.mu.Unlock()
		reply(w, http.StatusOK, b.wallet)
	})
	mux.HandleFunc("GET /coupon", func(w http.ResponseWriter, r *http.Request) {
		b.hit("GET /coupon")
		b.mu.Lock()
		defer b.mu.Unlock()
		reply(w, http.StatusOK, api.CouponList{Coupons: b.coupons})
	})
	return mux
}

// harness wires the three services over one fake backend and one cache.
type harness struct {
	backend *fakeBackend
	cache   *cache.Cache
	clients *api.Clients
	notes   *notify.Recorder
	counter *CartCounter
	visits  *visitRecorder
	shopper *ShopperService
	vendor  *VendorService
	admin   *AdminService
}

type visitRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (v *visitRecorder) Visit(_ context.Context, p string) (string, error) {
	v.mu.Lock()
	v.paths = append(v.paths, p)
	v.mu.Unlock()
	return p, nil
}

func (v *visitRecorder) Paths() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.paths...)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		backend: newFakeBackend(),
		cache:   cache.New(),
		notes:   notify.NewRecorder(),
		counter: NewCartCounter(),
		visits:  &visitRecorder{},
	}
	srv := httptest.NewServer(h.backend.handler())
	t.Cleanup(srv.Close)
	t.Cleanup(h.cache.Wait)

	var err error
	h.clients, err = api.NewClients(srv.URL, nil)
	require.NoError(t, err)

	coordinator := func(actor session.Actor) *mutation.Coordinator {
		return mutation.NewCoordinator(h.cache, mutation.WithNotifier(h.notes), mutation.WithActor(string(actor)))
	}
	h.shopper, err = NewShopperService(h.clients.Shopper, coordinator(session.ActorShopper), WithCounter(h.counter), WithVisitor(h.visits))
	require.NoError(t, err)
	h.vendor, err = NewVendorService(h.clients.Vendor, coordinator(session.ActorVendor))
	require.NoError(t, err)
	h.admin, err = NewAdminService(h.clients.Admin, coordinator(session.ActorAdmin))
	require.NoError(t, err)
	return h
}
