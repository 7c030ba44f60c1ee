package api

import (
	"net/url"
	"strconv"
	"time"
)

// CartItem is one line of the shopper's cart.
type CartItem struct {
	ProductID string  `json:"productId"`
	SKU       string  `json:"sku"`
	Name      string  `json:"name,omitempty"`
	Image     string  `json:"image,omitempty"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Stock     int     `json:"stock,omitempty"`
}

// Cart is the shopper's cart.
type Cart struct {
	Items    []CartItem `json:"items"`
	Subtotal float64    `json:"subtotal"`
	Discount float64    `json:"discount,omitempty"`
	Total    float64    `json:"total"`
}

// Count returns the number of lines in the cart. Quantities are not summed.
func (c *Cart) Count() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}

type AddToCartRequest struct {
	ProductID string `json:"productId"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
}

type UpdateCartRequest struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// StockLine reports availability of one cart line.
type StockLine struct {
	SKU       string `json:"sku"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// StockReport is the result of checking the cart against stock.
type StockReport struct {
	OK          bool        `json:"ok"`
	Unavailable []StockLine `json:"unavailable,omitempty"`
}

// Order statuses used by the backend.
const (
	OrderPending    = "pending"
	OrderConfirmed  = "confirmed"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
	OrderReturned   = "returned"
)

// OrderItem is one line of an order. Vendors update status per line.
type OrderItem struct {
	ProductID string  `json:"productId"`
	SKU       string  `json:"sku"`
	Name      string  `json:"name,omitempty"`
	VendorID  string  `json:"vendorId,omitempty"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Status    string  `json:"status,omitempty"`
}

// Address is a shipping address.
type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

type Order struct {
	ID            string      `json:"id"`
	Number        string      `json:"orderNumber,omitempty"`
	Status        string      `json:"status"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
	PaymentStatus string      `json:"paymentStatus,omitempty"`
	Items         []OrderItem `json:"items"`
	Address       *Address    `json:"address,omitempty"`
	Discount      float64     `json:"discount,omitempty"`
	Total         float64     `json:"total"`
	CreatedAt     time.Time   `json:"createdAt,omitzero"`
}

// OrderQuery filters order lists.
type OrderQuery struct {
	Status string
	Page   int
	Limit  int
}

func (q OrderQuery) values() url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	setPage(v, q.Page, q.Limit)
	return v
}

type OrderList struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
	Page   int     `json:"page,omitempty"`
}

type PlaceOrderRequest struct {
	Address       Address `json:"address"`
	PaymentMethod string  `json:"paymentMethod"`
	CouponCode    string  `json:"couponCode,omitempty"`
}

// PlaceOrderResponse carries the created order and, for online payment,
// where to complete it.
type PlaceOrderResponse struct {
	Order      Order  `json:"order"`
	PaymentURL string `json:"paymentUrl,omitempty"`
}

type UpdateOrderStatusRequest struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type RetryPaymentResponse struct {
	OrderID    string `json:"orderId"`
	PaymentURL string `json:"paymentUrl,omitempty"`
	Status     string `json:"status,omitempty"`
}

type WalletTransaction struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
}

type Wallet struct {
	Balance      float64             `json:"balance"`
	Transactions []WalletTransaction `json:"transactions,omitempty"`
}

type TopUpRequest struct {
	Amount float64 `json:"amount"`
}

// Coupon discount types.
const (
	DiscountPercent = "percent"
	DiscountFixed   = "fixed"
)

type Coupon struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	DiscountType string    `json:"discountType"`
	Value        float64   `json:"value"`
	MinPurchase  float64   `json:"minPurchase,omitempty"`
	MaxDiscount  float64   `json:"maxDiscount,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt,omitzero"`
	Active       bool      `json:"active"`
}

type CouponList struct {
	Coupons []Coupon `json:"coupons"`
}

type CouponRequest struct {
	Code         string    `json:"code"`
	DiscountType string    `json:"discountType"`
	Value        float64   `json:"value"`
	MinPurchase  float64   `json:"minPurchase,omitempty"`
	MaxDiscount  float64   `json:"maxDiscount,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt,omitzero"`
	Active       *bool     `json:"active,omitempty"`
}

type ApplyCouponRequest struct {
	Code string `json:"code"`
}

type ApplyCouponResponse struct {
	Coupon   Coupon  `json:"coupon"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

type Category struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type CategoryList struct {
	Categories []Category `json:"categories"`
}

type CategoryRequest struct {
	Name   string `json:"name,omitempty"`
	Active *bool  `json:"active,omitempty"`
}

type Vendor struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Blocked   bool      `json:"isBlocked"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

type VendorList struct {
	Vendors []Vendor `json:"vendors"`
	Total   int      `json:"total"`
}

type UpdateVendorRequest struct {
	Blocked bool `json:"isBlocked"`
}

// ProductVariant is a sellable SKU of a product.
type ProductVariant struct {
	SKU   string  `json:"sku"`
	Label string  `json:"label,omitempty"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

type Product struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	CategoryID  string           `json:"categoryId,omitempty"`
	VendorID    string           `json:"vendorId,omitempty"`
	Images      []string         `json:"images,omitempty"`
	Variants    []ProductVariant `json:"variants"`
	Active      bool             `json:"active"`
}

// ProductQuery filters the product listing.
type ProductQuery struct {
	Search   string
	Category string
	Vendor   string
	Sort     string
	Page     int
	Limit    int
}

func (q ProductQuery) values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Vendor != "" {
		v.Set("vendor", q.Vendor)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	setPage(v, q.Page, q.Limit)
	return v
}

type ProductList struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page,omitempty"`
}

// SaveProductRequest creates a product, or replaces it when ID is set.
type SaveProductRequest struct {
	ID          string           `json:"id,omitempty"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	CategoryID  string           `json:"categoryId"`
	Images      []string         `json:"images,omitempty"`
	Variants    []ProductVariant `json:"variants"`
}

type ProductStatusRequest struct {
	Active bool `json:"active"`
}

func setPage(v url.Values, page, limit int) {
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
}
