package shop

import (
	"context"

	"github.com/jonwraymond/storefront/api"
	"github.com/jonwraymond/storefront/cache"
	"github.com/jonwraymond/storefront/mutation"
	"github.com/jonwraymond/storefront/session"
)

// VendorBlock blocks or unblocks a vendor.
type VendorBlock struct {
	ID      string
	Blocked bool
}

// CategoryUpdate edits a category.
type CategoryUpdate struct {
	ID string
	api.CategoryRequest
}

// AdminService serves the admin dashboard.
type AdminService struct {
	base

	setBlocked     *mutation.Mutation[VendorBlock, *api.Vendor]
	createCategory *mutation.Mutation[api.CategoryRequest, *api.Category]
	updateCategory *mutation.Mutation[CategoryUpdate, *api.Category]
	deleteCoupon   *mutation.Mutation[string, struct{}]
}

// NewAdminService creates the admin service around the admin client.
func NewAdminService(client *api.Client, co *mutation.Coordinator, opts ...Option) (*AdminService, error) {
	b, err := newBase(session.ActorAdmin, client, co, opts)
	if err != nil {
		return nil, err
	}
	s := &AdminService{base: b}

	s.setBlocked = mutation.New(co, mutation.Spec[VendorBlock, *api.Vendor]{
		Name:     "set_vendor_blocked",
		Resource: ResVendors,
		Call: func(ctx context.Context, vb VendorBlock) (*api.Vendor, error) {
			if err := required("id", vb.ID); err != nil {
				return nil, err
			}
			return client.UpdateVendor(ctx, vb.ID, api.UpdateVendorRequest{Blocked: vb.Blocked})
		},
		Invalidates: func(VendorBlock, *api.Vendor) []cache.Matcher {
			return matchers(cache.Resource(ResVendors))
		},
		SuccessMessage: "Vendor updated",
	})

	categoriesChanged := func() []cache.Matcher { return matchers(cache.Resource(ResCategories)) }
	s.createCategory = mutation.New(co, mutation.Spec[api.CategoryRequest, *api.Category]{
		Name:     "create_category",
		Resource: ResCategories,
		Call: func(ctx context.Context, req api.CategoryRequest) (*api.Category, error) {
			if err := required("name", req.Name); err != nil {
				return nil, err
			}
			return client.CreateCategory(ctx, req)
		},
		Invalidates:    func(api.CategoryRequest, *api.Category) []cache.Matcher { return categoriesChanged() },
		SuccessMessage: "Category created",
	})
	s.updateCategory = mutation.New(co, mutation.Spec[CategoryUpdate, *api.Category]{
		Name:     "update_category",
		Resource: ResCategories,
		Call: func(ctx context.Context, u CategoryUpdate) (*api.Category, error) {
			if err := required("id", u.ID); err != nil {
				return nil, err
			}
			return client.UpdateCategory(ctx, u.ID, u.CategoryRequest)
		},
		Invalidates:    func(CategoryUpdate, *api.Category) []cache.Matcher { return categoriesChanged() },
		SuccessMessage: "Category updated",
	})
	s.deleteCoupon = newDeleteCoupon(co, client, func() []cache.Matcher {
		return matchers(cache.Resource(ResCoupons))
	})
	return s, nil
}

func (s *AdminService) Vendors(ctx context.Context) (*api.VendorList, error) {
	return cache.FetchJSON(ctx, s.cache, VendorsKey(), s.client.Vendors)
}

// WatchVendors mounts fn on the vendor table.
func (s *AdminService) WatchVendors(ctx context.Context, fn func(*api.VendorList, error)) (*cache.Subscription, error) {
	return cache.WatchJSON(ctx, s.cache, VendorsKey(), s.client.Vendors, fn)
}

// BlockVendor blocks a vendor. Only the vendor list goes stale.
func (s *AdminService) BlockVendor(ctx context.Context, id string) (*api.Vendor, error) {
	return s.setBlocked.Run(ctx, VendorBlock{ID: id, Blocked: true})
}

func (s *AdminService) UnblockVendor(ctx context.Context, id string) (*api.Vendor, error) {
	return s.setBlocked.Run(ctx, VendorBlock{ID: id, Blocked: false})
}

func (s *AdminService) Categories(ctx context.Context) (*api.CategoryList, error) {
	return cache.FetchJSON(ctx, s.cache, CategoriesKey(), s.client.Categories)
}

func (s *AdminService) CreateCategory(ctx context.Context, req api.CategoryRequest) (*api.Category, error) {
	return s.createCategory.Run(ctx, req)
}

func (s *AdminService) UpdateCategory(ctx context.Context, id string, req api.CategoryRequest) (*api.Category, error) {
	return s.updateCategory.Run(ctx, CategoryUpdate{ID: id, CategoryRequest: req})
}

func (s *AdminService) Coupons(ctx context.Context) (*api.CouponList, error) {
	return cache.FetchJSON(ctx, s.cache, CouponsKey(session.ActorAdmin), s.client.Coupons)
}

func (s *AdminService) DeleteCoupon(ctx context.Context, id string) error {
	_, err := s.deleteCoupon.Run(ctx, id)
	return err
}
