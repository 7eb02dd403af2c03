// Package middleware exposes an HTTP guard for hosted deployments of the
// reference identity backend.
//
// [RequireSession] reads the Authorization header, validates the bearer
// token against the backend, and injects the resolved user id into the
// request context for handlers to read via [UserIDFromContext].
//
// This package translates HTTP semantics into backend calls. It does not
// parse tokens itself and makes no authorization decisions beyond the
// backend's pass/reject.
package middleware
