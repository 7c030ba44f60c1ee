package shop

import (
	"github.com/jonwraymond/storefront/api"
	"github.com/jonwraymond/storefront/cache"
	"github.com/jonwraymond/storefront/session"
)

// Cached resources.
const (
	ResCart       = "cart"
	ResStock      = "stock"
	ResOrders     = "orders"
	ResOrder      = "order"
	ResWallet     = "wallet"
	ResCoupons    = "coupons"
	ResCategories = "categories"
	ResVendors    = "vendors"
	ResProducts   = "products"
	ResProduct    = "product"
)

// ScopeParam is the key parameter naming the actor a view belongs to.
const ScopeParam = "scope"

func scoped(resource string, actor session.Actor, kv ...any) cache.Key {
	return cache.NewKey(resource, append([]any{ScopeParam, string(actor)}, kv...)...)
}

func CartKey() cache.Key  { return scoped(ResCart, session.ActorShopper) }
func StockKey() cache.Key { return scoped(ResStock, session.ActorShopper) }

// OrdersKey is the order list of actor under the given filter.
func OrdersKey(actor session.Actor, q api.OrderQuery) cache.Key {
	k := scoped(ResOrders, actor)
	if q.Status != "" {
		k = k.With("status", q.Status)
	}
	if q.Page > 0 {
		k = k.With("page", q.Page)
	}
	if q.Limit > 0 {
		k = k.With("limit", q.Limit)
	}
	return k
}

// OrderKey is one order as actor sees it.
func OrderKey(actor session.Actor, id string) cache.Key {
	return scoped(ResOrder, actor, "id", id)
}

func WalletKey(actor session.Actor) cache.Key  { return scoped(ResWallet, actor) }
func CouponsKey(actor session.Actor) cache.Key { return scoped(ResCoupons, actor) }
func VendorsKey() cache.Key                    { return scoped(ResVendors, session.ActorAdmin) }

// CategoriesKey is the public category list.
func CategoriesKey() cache.Key { return cache.NewKey(ResCategories) }

// ProductsKey is a public product listing.
func ProductsKey(q api.ProductQuery) cache.Key {
	k := cache.NewKey(ResProducts)
	for name, v := range map[string]string{
		"search":   q.Search,
		"category": q.Category,
		"vendor":   q.Vendor,
		"sort":     q.Sort,
	} {
		if v != "" {
			k = k.With(name, v)
		}
	}
	if q.Page > 0 {
		k = k.With("page", q.Page)
	}
	if q.Limit > 0 {
		k = k.With("limit", q.Limit)
	}
	return k
}

func ProductKey(id string) cache.Key { return cache.NewKey(ResProduct, "id", id) }

// ScopeOf matches every key belonging to actor.
func ScopeOf(actor session.Actor) cache.Matcher {
	return func(k cache.Key) bool {
		v, ok := k.Param(ScopeParam)
		return ok && v == string(actor)
	}
}

func inScope(resource string, actor session.Actor) cache.Matcher {
	return cache.ResourceWith(resource, cache.Params{ScopeParam: string(actor)})
}

// anyOrder matches the detail key of an order in every scope.
func anyOrder(id string) cache.Matcher {
	return cache.ResourceWith(ResOrder, cache.Params{"id": id})
}
