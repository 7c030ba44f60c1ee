package shop

import (
	"context"

	"github.com/jonwraymond/storefront/api"
	"github.com/jonwraymond/storefront/cache"
	"github.com/jonwraymond/storefront/mutation"
	"github.com/jonwraymond/storefront/session"
)

// StatusUpdate changes the status of one line of an order.
type StatusUpdate struct {
	OrderID string
	SKU     string
	Status  string
}

// CouponUpdate edits an existing coupon.
type CouponUpdate struct {
	ID string
	api.CouponRequest
}

// ProductStatus lists or unlists a product.
type ProductStatus struct {
	ID     string
	Active bool
}

// VendorService serves the vendor dashboard.
type VendorService struct {
	base

	updateOrderStatus *mutation.Mutation[StatusUpdate, *api.Order]
	saveProduct       *mutation.Mutation[api.SaveProductRequest, *api.Product]
	setProductStatus  *mutation.Mutation[ProductStatus, *api.Product]
	createCoupon      *mutation.Mutation[api.CouponRequest, *api.Coupon]
	updateCoupon      *mutation.Mutation[CouponUpdate, *api.Coupon]
	deleteCoupon      *mutation.Mutation[string, struct{}]
}

// NewVendorService creates the vendor service around the vendor client.
func NewVendorService(client *api.Client, co *mutation.Coordinator, opts ...Option) (*VendorService, error) {
	b, err := newBase(session.ActorVendor, client, co, opts)
	if err != nil {
		return nil, err
	}
	s := &VendorService{base: b}

	s.updateOrderStatus = mutation.New(co, mutation.Spec[StatusUpdate, *api.Order]{
		Name:     "update_order_status",
		Resource: ResOrder,
		Call: func(ctx context.Context, u StatusUpdate) (*api.Order, error) {
			for field, v := range map[string]string{"orderId": u.OrderID, "sku": u.SKU, "status": u.Status} {
				if err := required(field, v); err != nil {
					return nil, err
				}
			}
			return client.UpdateOrderStatus(ctx, u.SKU, api.UpdateOrderStatusRequest{OrderID: u.OrderID, Status: u.Status})
		},
		// the vendor list plus every view of the order, including the
		// shopper's order page
		Invalidates: func(u StatusUpdate, _ *api.Order) []cache.Matcher {
			return matchers(inScope(ResOrders, session.ActorVendor), anyOrder(u.OrderID))
		},
		SuccessMessage: "Order status updated",
	})
	productChanged := func(id string) []cache.Matcher {
		ms := matchers(cache.Resource(ResProducts))
		if id != "" {
			ms = append(ms, cache.Exact(ProductKey(id)))
		}
		return ms
	}
	s.saveProduct = mutation.New(co, mutation.Spec[api.SaveProductRequest, *api.Product]{
		Name:     "save_product",
		Resource: ResProducts,
		Call: func(ctx context.Context, req api.SaveProductRequest) (*api.Product, error) {
			if err := required("name", req.Name); err != nil {
				return nil, err
			}
			if len(req.Variants) == 0 {
				return nil, &InputError{Field: "variants", Message: "Add at least one variant"}
			}
			return client.SaveProduct(ctx, req)
		},
		Invalidates: func(req api.SaveProductRequest, p *api.Product) []cache.Matcher {
			id := req.ID
			if id == "" && p != nil {
				id = p.ID
			}
			return productChanged(id)
		},
		SuccessMessage: "Product saved",
	})
	s.setProductStatus = mutation.New(co, mutation.Spec[ProductStatus, *api.Product]{
		Name:     "set_product_status",
		Resource: ResProduct,
		Call: func(ctx context.Context, ps ProductStatus) (*api.Product, error) {
			if err := required("id", ps.ID); err != nil {
				return nil, err
			}
			return client.SetProductStatus(ctx, ps.ID, api.ProductStatusRequest{Active: ps.Active})
		},
		Invalidates: func(ps ProductStatus, _ *api.Product) []cache.Matcher { return productChanged(ps.ID) },
	})

	// shoppers see vendor coupons too, so every scope goes stale
	couponsChanged := func() []cache.Matcher { return matchers(cache.Resource(ResCoupons)) }
	s.createCoupon = mutation.New(co, mutation.Spec[api.CouponRequest, *api.Coupon]{
		Name:     "create_coupon",
		Resource: ResCoupons,
		Call: func(ctx context.Context, req api.CouponRequest) (*api.Coupon, error) {
			if err := validCoupon(req); err != nil {
				return nil, err
			}
			return client.CreateCoupon(ctx, req)
		},
		Invalidates:    func(api.CouponRequest, *api.Coupon) []cache.Matcher { return couponsChanged() },
		SuccessMessage: "Coupon created",
	})
	s.updateCoupon = mutation.New(co, mutation.Spec[CouponUpdate, *api.Coupon]{
		Name:     "update_coupon",
		Resource: ResCoupons,
		Call: func(ctx context.Context, u CouponUpdate) (*api.Coupon, error) {
			if err := required("id", u.ID); err != nil {
				return nil, err
			}
			return client.UpdateCoupon(ctx, u.ID, u.CouponRequest)
		},
		Invalidates:    func(CouponUpdate, *api.Coupon) []cache.Matcher { return couponsChanged() },
		SuccessMessage: "Coupon updated",
	})
	s.deleteCoupon = newDeleteCoupon(co, client, couponsChanged)
	return s, nil
}

func newDeleteCoupon(co *mutation.Coordinator, client *api.Client, changed func() []cache.Matcher) *mutation.Mutation[string, struct{}] {
	return mutation.New(co, mutation.Spec[string, struct{}]{
		Name:     "delete_coupon",
		Resource: ResCoupons,
		Call: func(ctx context.Context, id string) (struct{}, error) {
			return struct{}{}, client.DeleteCoupon(ctx, id)
		},
		Invalidates:    func(string, struct{}) []cache.Matcher { return changed() },
		SuccessMessage: "Coupon deleted",
	})
}

func validCoupon(req api.CouponRequest) error {
	if err := required("code", req.Code); err != nil {
		return err
	}
	switch req.DiscountType {
	case api.DiscountPercent:
		if req.Value <= 0 || req.Value > 100 {
			return &InputError{Field: "value", Message: "Percentage must be between 1 and 100"}
		}
	case api.DiscountFixed:
		if req.Value <= 0 {
			return &InputError{Field: "value", Message: "Discount must be positive"}
		}
	default:
		return &InputError{Field: "discountType", Message: "Choose percent or fixed"}
	}
	return nil
}

func (s *VendorService) Orders(ctx context.Context, q api.OrderQuery) (*api.OrderList, error) {
	return cache.FetchJSON(ctx, s.cache, OrdersKey(session.ActorVendor, q), func(ctx context.Context) (*api.OrderList, error) {
		return s.client.Orders(ctx, q)
	})
}

// WatchOrders mounts fn on a vendor order list.
func (s *VendorService) WatchOrders(ctx context.Context, q api.OrderQuery, fn func(*api.OrderList, error)) (*cache.Subscription, error) {
	return cache.WatchJSON(ctx, s.cache, OrdersKey(session.ActorVendor, q), func(ctx context.Context) (*api.OrderList, error) {
		return s.client.Orders(ctx, q)
	}, fn)
}

func (s *VendorService) Order(ctx context.Context, id string) (*api.Order, error) {
	if err := required("id", id); err != nil {
		return nil, err
	}
	return cache.FetchJSON(ctx, s.cache, OrderKey(session.ActorVendor, id), func(ctx context.Context) (*api.Order, error) {
		return s.client.Order(ctx, id)
	})
}

// UpdateOrderStatus sets the status of one order line.
func (s *VendorService) UpdateOrderStatus(ctx context.Context, u StatusUpdate) (*api.Order, error) {
	return s.updateOrderStatus.Run(ctx, u)
}

func (s *VendorService) Products(ctx context.Context, q api.ProductQuery) (*api.ProductList, error) {
	return cache.FetchJSON(ctx, s.cache, ProductsKey(q), func(ctx context.Context) (*api.ProductList, error) {
		return s.client.Products(ctx, q)
	})
}

func (s *VendorService) Product(ctx context.Context, id string) (*api.Product, error) {
	if err := required("id", id); err != nil {
		return nil, err
	}
	return cache.FetchJSON(ctx, s.cache, ProductKey(id), func(ctx context.Context) (*api.Product, error) {
		return s.client.Product(ctx, id)
	})
}

func (s *VendorService) SaveProduct(ctx context.Context, req api.SaveProductRequest) (*api.Product, error) {
	return s.saveProduct.Run(ctx, req)
}

func (s *VendorService) SetProductStatus(ctx context.Context, id string, active bool) (*api.Product, error) {
	return s.setProductStatus.Run(ctx, ProductStatus{ID: id, Active: active})
}

func (s *VendorService) Coupons(ctx context.Context) (*api.CouponList, error) {
	return cache.FetchJSON(ctx, s.cache, CouponsKey(session.ActorVendor), s.client.Coupons)
}

func (s *VendorService) CreateCoupon(ctx context.Context, req api.CouponRequest) (*api.Coupon, error) {
	return s.createCoupon.Run(ctx, req)
}

func (s *VendorService) UpdateCoupon(ctx context.Context, id string, req api.CouponRequest) (*api.Coupon, error) {
	return s.updateCoupon.Run(ctx, CouponUpdate{ID: id, CouponRequest: req})
}

func (s *VendorService) DeleteCoupon(ctx context.Context, id string) error {
	_, err := s.deleteCoupon.Run(ctx, id)
	return err
}

func (s *VendorService) Wallet(ctx context.Context) (*api.Wallet, error) {
	return cache.FetchJSON(ctx, s.cache, WalletKey(session.ActorVendor), s.client.Wallet)
}
