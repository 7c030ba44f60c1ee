// Package observe provides the logging, tracing and metrics primitives used
// by the storefront client.
//
// It is a pure instrumentation library: the cache, the mutation coordinator
// and the REST clients receive an Observer (or its parts) and report every
// query, mutation and HTTP call through it. Nothing here performs I/O beyond
// exporter setup.
package observe
