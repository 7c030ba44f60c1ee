package api

import (
	"context"
	"net/http"
	"net/url"
)

// Cart returns the shopper's cart.
func (c *Client) Cart(ctx context.Context) (*Cart, error) {
	var out Cart
	if err := c.Do(ctx, http.MethodGet, "/cart", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddToCart adds a line and returns the updated cart.
func (c *Client) AddToCart(ctx context.Context, req AddToCartRequest) (*Cart, error) {
	var out Cart
	if err := c.Do(ctx, http.MethodPost, "/cart", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCartItem changes the quantity of a line.
func (c *Client) UpdateCartItem(ctx context.Context, req UpdateCartRequest) (*Cart, error) {
	var out Cart
	if err := c.Do(ctx, http.MethodPatch, "/cart", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveFromCart deletes the line for sku.
func (c *Client) RemoveFromCart(ctx context.Context, sku string) (*Cart, error) {
	if sku == "" {
		return nil, ErrEmptyID
	}
	var out Cart
	if err := c.Do(ctx, http.MethodDelete, "/cart/"+url.PathEscape(sku), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckStock verifies the cart against current stock.
func (c *Client) CheckStock(ctx context.Context) (*StockReport, error) {
	var out StockReport
	if err := c.Do(ctx, http.MethodGet, "/cart/stock", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Orders lists the actor's orders. Shoppers see their own, vendors the
// orders containing their products.
func (c *Client) Orders(ctx context.Context, q OrderQuery) (*OrderList, error) {
	var out OrderList
	if err := c.Do(ctx, http.MethodGet, "/order", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Order(ctx context.Context, id string) (*Order, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	var out Order
	if err := c.Do(ctx, http.MethodGet, "/order/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResponse, error) {
	var out PlaceOrderResponse
	if err := c.Do(ctx, http.MethodPost, "/order", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateOrderStatus sets the status of the line for sku within an order.
func (c *Client) UpdateOrderStatus(ctx context.Context, sku string, req UpdateOrderStatusRequest) (*Order, error) {
	if sku == "" || req.OrderID == "" {
		return nil, ErrEmptyID
	}
	var out Order
	if err := c.Do(ctx, http.MethodPatch, "/order/status/"+url.PathEscape(sku), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RetryPayment(ctx context.Context, orderID string) (*RetryPaymentResponse, error) {
	if orderID == "" {
		return nil, ErrEmptyID
	}
	var out RetryPaymentResponse
	if err := c.Do(ctx, http.MethodPost, "/order/"+url.PathEscape(orderID)+"/retry-payment", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Invoice downloads the invoice document of an order.
func (c *Client) Invoice(ctx context.Context, orderID string) (*Blob, error) {
	if orderID == "" {
		return nil, ErrEmptyID
	}
	return c.Raw(ctx, http.MethodGet, "/order/"+url.PathEscape(orderID)+"/invoice", nil)
}

// Wallet returns the wallet of the client's actor.
func (c *Client) Wallet(ctx context.Context) (*Wallet, error) {
	var out Wallet
	if err := c.Do(ctx, http.MethodGet, "/wallet/"+string(c.actor), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TopUpWallet(ctx context.Context, req TopUpRequest) (*Wallet, error) {
	var out Wallet
	if err := c.Do(ctx, http.MethodPost, "/wallet/"+string(c.actor), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Coupons(ctx context.Context) (*CouponList, error) {
	var out CouponList
	if err := c.Do(ctx, http.MethodGet, "/coupon", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCoupon(ctx context.Context, req CouponRequest) (*Coupon, error) {
	var out Coupon
	if err := c.Do(ctx, http.MethodPost, "/coupon", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCoupon(ctx context.Context, id string, req CouponRequest) (*Coupon, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	var out Coupon
	if err := c.Do(ctx, http.MethodPatch, "/coupon/"+url.PathEscape(id), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCoupon(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyID
	}
	return c.Do(ctx, http.MethodDelete, "/coupon/"+url.PathEscape(id), nil, nil, nil)
}

// ApplyCoupon prices the shopper's cart with a coupon code.
func (c *Client) ApplyCoupon(ctx context.Context, req ApplyCouponRequest) (*ApplyCouponResponse, error) {
	var out ApplyCouponResponse
	if err := c.Do(ctx, http.MethodPost, "/coupon/apply", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Categories(ctx context.Context) (*CategoryList, error) {
	var out CategoryList
	if err := c.Do(ctx, http.MethodGet, "/categorys", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCategory(ctx context.Context, req CategoryRequest) (*Category, error) {
	var out Category
	if err := c.Do(ctx, http.MethodPost, "/categorys", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCategory(ctx context.Context, id string, req CategoryRequest) (*Category, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	var out Category
	if err := c.Do(ctx, http.MethodPatch, "/categorys/"+url.PathEscape(id), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Vendors(ctx context.Context) (*VendorList, error) {
	var out VendorList
	if err := c.Do(ctx, http.MethodGet, "/vendor", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateVendor changes a vendor's blocked flag.
func (c *Client) UpdateVendor(ctx context.Context, id string, req UpdateVendorRequest) (*Vendor, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	var out Vendor
	if err := c.Do(ctx, http.MethodPatch, "/vendor/"+url.PathEscape(id), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Products(ctx context.Context, q ProductQuery) (*ProductList, error) {
	var out ProductList
	if err := c.Do(ctx, http.MethodGet, "/products", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Product(ctx context.Context, id string) (*Product, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	var out Product
	if err := c.Do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveProduct creates or replaces a vendor product.
func (c *Client) SaveProduct(ctx context.Context, req SaveProductRequest) (*Product, error) {
	var out Product
	if err := c.Do(ctx, http.MethodPut, "/products", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetProductStatus lists or unlists a product.
func (c *Client) SetProductStatus(ctx context.Context, id string, req ProductStatusRequest) (*Product, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	var out Product
	if err := c.Do(ctx, http.MethodPatch, "/products/"+url.PathEscape(id), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
