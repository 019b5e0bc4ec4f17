// Package httpexec provides structured helpers for issuing REST requests.
//
// It wraps net/http with logging, per-call deadlines, and bounded retries via
// RequestExecutor, exposes NetworkRequestRunner for default transport
// execution, and defines the abstractions used throughout trustx-migration to
// call tenant APIs in a testable manner.
package httpexec
