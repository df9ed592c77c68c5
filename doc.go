// Package aaa is the authentication, authorization, and accounting core of
// the campus platform. It owns the token lifecycle (issue, validate,
// rotate, revoke, with refresh-reuse detection), the role-to-permission
// resolver every other service consults for request admission, and the
// append-only audit ledger.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// aaa is the public surface. It exposes [Engine], [Builder], [Config], and
// value types. The backing stores are interfaces ([credential.Store],
// [revocation.Registry], [family.Store]) injected at build time, with
// in-memory defaults and Redis implementations for multi-replica
// deployments; token logic never changes when a backend is swapped.
//
// # Security contract
//
// Every authentication attempt, reuse detection, and revocation appends
// exactly one audit record before the error returns to the caller.
// Validation is read-mostly: it never writes and never waits on audit or
// ledger I/O. A second use of a consumed refresh token revokes its whole
// family, on the assumption the token was stolen.
package aaa
