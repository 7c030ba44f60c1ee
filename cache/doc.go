// Package cache is the process-wide remote data cache of the storefront
// client.
//
// Server resources (orders, cart, wallet, coupons, vendors, products) are
// stored under composite keys made of a resource name plus filter and
// pagination parameters. Fetch deduplicates concurrent loads of the same
// key, Invalidate marks entries stale and refetches the ones that have a
// mounted consumer (see Watch), and everything else is refetched lazily on
// next access.
//
// The cache never receives optimistic writes: values only change as the
// result of a loader call.
package cache
