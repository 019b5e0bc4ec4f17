// Package trustxapi is the REST client for one TrustX tenant. It owns URL
// construction, bearer authentication, JSON encoding, and the boundary
// decoding that turns loosely shaped platform responses into typed values,
// so callers never re-inspect raw payload shapes.
package trustxapi
