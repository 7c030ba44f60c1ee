package shop

import (
	"context"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/storefront/api"
	"github.com/jonwraymond/storefront/cache"
	"github.com/jonwraymond/storefront/mutation"
	"github.com/jonwraymond/storefront/observe"
	"github.com/jonwraymond/storefront/session"
)

// Visitor navigates to a page. *guard.Router implements it, so
// navigation after a write still passes the route guards.
type Visitor interface {
	Visit(ctx context.Context, path string) (string, error)
}

// OrderPath is the shopper page of an order.
func OrderPath(id string) string { return "/orders/" + url.PathEscape(id) }

// ShopperService serves the shopper pages.
type ShopperService struct {
	base
	counter *CartCounter

	addToCart      *mutation.Mutation[api.AddToCartRequest, *api.Cart]
	updateCartItem *mutation.Mutation[api.UpdateCartRequest, *api.Cart]
	removeFromCart *mutation.Mutation[string, *api.Cart]
	placeOrder     *mutation.Mutation[api.PlaceOrderRequest, *api.PlaceOrderResponse]
	retryPayment   *mutation.Mutation[string, *api.RetryPaymentResponse]
	topUp          *mutation.Mutation[api.TopUpRequest, *api.Wallet]
	applyCoupon    *mutation.Mutation[api.ApplyCouponRequest, *api.ApplyCouponResponse]
}

// NewShopperService creates the shopper service around the shopper client.
func NewShopperService(client *api.Client, co *mutation.Coordinator, opts ...Option) (*ShopperService, error) {
	b, err := newBase(session.ActorShopper, client, co, opts)
	if err != nil {
		return nil, err
	}
	s := &ShopperService{base: b, counter: b.opts.counter}
	if s.counter == nil {
		s.counter = NewCartCounter()
	}

	cartKeys := func() []cache.Matcher {
		return matchers(inScope(ResCart, session.ActorShopper), inScope(ResStock, session.ActorShopper))
	}

	s.addToCart = mutation.New(co, mutation.Spec[api.AddToCartRequest, *api.Cart]{
		Name:     "add_to_cart",
		Resource: ResCart,
		Call: func(ctx context.Context, req api.AddToCartRequest) (*api.Cart, error) {
			if err := required("sku", req.SKU); err != nil {
				return nil, err
			}
			if req.Quantity <= 0 {
				return nil, &InputError{Field: "quantity", Message: "Quantity must be at least 1"}
			}
			return client.AddToCart(ctx, req)
		},
		Invalidates:    func(api.AddToCartRequest, *api.Cart) []cache.Matcher { return cartKeys() },
		OnSuccess:      func(_ context.Context, _ api.AddToCartRequest, cart *api.Cart) { s.counter.Set(cart.Count()) },
		SuccessMessage: "Added to cart",
	})
	s.updateCartItem = mutation.New(co, mutation.Spec[api.UpdateCartRequest, *api.Cart]{
		Name:     "update_cart_item",
		Resource: ResCart,
		Call: func(ctx context.Context, req api.UpdateCartRequest) (*api.Cart, error) {
			if err := required("sku", req.SKU); err != nil {
				return nil, err
			}
			if req.Quantity <= 0 {
				return nil, &InputError{Field: "quantity", Message: "Quantity must be at least 1"}
			}
			return client.UpdateCartItem(ctx, req)
		},
		Invalidates: func(api.UpdateCartRequest, *api.Cart) []cache.Matcher { return cartKeys() },
		OnSuccess:   func(_ context.Context, _ api.UpdateCartRequest, cart *api.Cart) { s.counter.Set(cart.Count()) },
	})
	s.removeFromCart = mutation.New(co, mutation.Spec[string, *api.Cart]{
		Name:     "remove_from_cart",
		Resource: ResCart,
		Call:     client.RemoveFromCart,
		Invalidates:    func(string, *api.Cart) []cache.Matcher { return cartKeys() },
		OnSuccess:      func(_ context.Context, _ string, cart *api.Cart) { s.counter.Set(cart.Count()) },
		SuccessMessage: "Removed from cart",
	})
	s.placeOrder = mutation.New(co, mutation.Spec[api.PlaceOrderRequest, *api.PlaceOrderResponse]{
		Name:     "place_order",
		Resource: ResOrders,
		Call: func(ctx context.Context, req api.PlaceOrderRequest) (*api.PlaceOrderResponse, error) {
			if err := required("paymentMethod", req.PaymentMethod); err != nil {
				return nil, err
			}
			return client.PlaceOrder(ctx, req)
		},
		Invalidates: func(api.PlaceOrderRequest, *api.PlaceOrderResponse) []cache.Matcher {
			return matchers(
				inScope(ResCart, session.ActorShopper),
				inScope(ResStock, session.ActorShopper),
				inScope(ResOrders, session.ActorShopper),
				inScope(ResWallet, session.ActorShopper),
			)
		},
		OnSuccess: func(ctx context.Context, _ api.PlaceOrderRequest, resp *api.PlaceOrderResponse) {
			s.counter.Set(0)
			s.visit(ctx, OrderPath(resp.Order.ID))
		},
		SuccessMessage: "Order placed",
	})
	s.retryPayment = mutation.New(co, mutation.Spec[string, *api.RetryPaymentResponse]{
		Name:     "retry_payment",
		Resource: ResOrder,
		Call:     client.RetryPayment,
		Invalidates: func(id string, _ *api.RetryPaymentResponse) []cache.Matcher {
			return matchers(anyOrder(id), inScope(ResOrders, session.ActorShopper))
		},
	})
	s.topUp = mutation.New(co, mutation.Spec[api.TopUpRequest, *api.Wallet]{
		Name:     "top_up_wallet",
		Resource: ResWallet,
		Call: func(ctx context.Context, req api.TopUpRequest) (*api.Wallet, error) {
			if req.Amount <= 0 {
				return nil, &InputError{Field: "amount", Message: "Amount must be positive"}
			}
			return client.TopUpWallet(ctx, req)
		},
		Invalidates: func(api.TopUpRequest, *api.Wallet) []cache.Matcher {
			return matchers(inScope(ResWallet, session.ActorShopper))
		},
		SuccessMessage: "Wallet topped up",
	})
	s.applyCoupon = mutation.New(co, mutation.Spec[api.ApplyCouponRequest, *api.ApplyCouponResponse]{
		Name:     "apply_coupon",
		Resource: ResCoupons,
		Call: func(ctx context.Context, req api.ApplyCouponRequest) (*api.ApplyCouponResponse, error) {
			if err := required("code", req.Code); err != nil {
				return nil, err
			}
			return client.ApplyCoupon(ctx, req)
		},
		Invalidates: func(api.ApplyCouponRequest, *api.ApplyCouponResponse) []cache.Matcher {
			return matchers(inScope(ResCart, session.ActorShopper))
		},
		SuccessMessage: "Coupon applied",
	})
	return s, nil
}

// Counter returns the cart-length indicator.
func (s *ShopperService) Counter() *CartCounter { return s.counter }

func (s *ShopperService) visit(ctx context.Context, p string) {
	if s.opts.visitor == nil {
		return
	}
	if _, err := s.opts.visitor.Visit(ctx, p); err != nil {
		s.logger.Warn(ctx, "navigation failed", observe.F("path", p), observe.F("error", err))
	}
}

// Cart returns the cart and refreshes the counter from it.
func (s *ShopperService) Cart(ctx context.Context) (*api.Cart, error) {
	cart, err := cache.FetchJSON(ctx, s.cache, CartKey(), s.client.Cart)
	if err != nil {
		return nil, err
	}
	s.counter.Set(cart.Count())
	return cart, nil
}

// WatchCart mounts fn on the cart.
func (s *ShopperService) WatchCart(ctx context.Context, fn func(*api.Cart, error)) (*cache.Subscription, error) {
	return cache.WatchJSON(ctx, s.cache, CartKey(), s.client.Cart, func(cart *api.Cart, err error) {
		if err == nil {
			s.counter.Set(cart.Count())
		}
		if fn != nil {
			fn(cart, err)
		}
	})
}

func (s *ShopperService) CheckStock(ctx context.Context) (*api.StockReport, error) {
	return cache.FetchJSON(ctx, s.cache, StockKey(), s.client.CheckStock)
}

func (s *ShopperService) Orders(ctx context.Context, q api.OrderQuery) (*api.OrderList, error) {
	return cache.FetchJSON(ctx, s.cache, OrdersKey(session.ActorShopper, q), func(ctx context.Context) (*api.OrderList, error) {
		return s.client.Orders(ctx, q)
	})
}

func (s *ShopperService) Order(ctx context.Context, id string) (*api.Order, error) {
	if err := required("id", id); err != nil {
		return nil, err
	}
	return cache.FetchJSON(ctx, s.cache, OrderKey(session.ActorShopper, id), func(ctx context.Context) (*api.Order, error) {
		return s.client.Order(ctx, id)
	})
}

// WatchOrder mounts fn on the shopper view of an order.
func (s *ShopperService) WatchOrder(ctx context.Context, id string, fn func(*api.Order, error)) (*cache.Subscription, error) {
	if err := required("id", id); err != nil {
		return nil, err
	}
	return cache.WatchJSON(ctx, s.cache, OrderKey(session.ActorShopper, id), func(ctx context.Context) (*api.Order, error) {
		return s.client.Order(ctx, id)
	}, fn)
}

// Invoice downloads an order invoice. Documents are not cached.
func (s *ShopperService) Invoice(ctx context.Context, orderID string) (*api.Blob, error) {
	return s.client.Invoice(ctx, orderID)
}

func (s *ShopperService) Wallet(ctx context.Context) (*api.Wallet, error) {
	return cache.FetchJSON(ctx, s.cache, WalletKey(session.ActorShopper), s.client.Wallet)
}

func (s *ShopperService) Coupons(ctx context.Context) (*api.CouponList, error) {
	return cache.FetchJSON(ctx, s.cache, CouponsKey(session.ActorShopper), s.client.Coupons)
}

func (s *ShopperService) AddToCart(ctx context.Context, req api.AddToCartRequest) (*api.Cart, error) {
	return s.addToCart.Run(ctx, req)
}

func (s *ShopperService) UpdateCartItem(ctx context.Context, req api.UpdateCartRequest) (*api.Cart, error) {
	return s.updateCartItem.Run(ctx, req)
}

func (s *ShopperService) RemoveFromCart(ctx context.Context, sku string) (*api.Cart, error) {
	return s.removeFromCart.Run(ctx, sku)
}

// PlaceOrder creates an order from the cart and navigates to its page.
func (s *ShopperService) PlaceOrder(ctx context.Context, req api.PlaceOrderRequest) (*api.PlaceOrderResponse, error) {
	return s.placeOrder.Run(ctx, req)
}

func (s *ShopperService) RetryPayment(ctx context.Context, orderID string) (*api.RetryPaymentResponse, error) {
	return s.retryPayment.Run(ctx, orderID)
}

func (s *ShopperService) TopUpWallet(ctx context.Context, req api.TopUpRequest) (*api.Wallet, error) {
	return s.topUp.Run(ctx, req)
}

func (s *ShopperService) ApplyCoupon(ctx context.Context, req api.ApplyCouponRequest) (*api.ApplyCouponResponse, error) {
	return s.applyCoupon.Run(ctx, req)
}

// CheckoutView is what the checkout page shows.
type CheckoutView struct {
	Cart    *api.Cart
	Wallet  *api.Wallet
	Coupons []api.Coupon
}

// Checkout loads the cart, wallet and coupons concurrently. The first
// failure cancels the remaining loads.
func (s *ShopperService) Checkout(ctx context.Context) (*CheckoutView, error) {
	var view CheckoutView
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cart, err := s.Cart(ctx)
		view.Cart = cart
		return err
	})
	g.Go(func() error {
		w, err := s.Wallet(ctx)
		view.Wallet = w
		return err
	})
	g.Go(func() error {
		list, err := s.Coupons(ctx)
		if list != nil {
			view.Coupons = list.Coupons
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &view, nil
}
