// Package shop is what the storefront pages call: typed, cached reads of
// server resources and the writes that change them.
//
// Reads go through the shared cache under the keys built in this package.
// Writes are mutations that declare exactly which keys their success
// makes stale, so a page showing one of those resources refetches and
// everything else keeps its data.
package shop
