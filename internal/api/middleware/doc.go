// Package middleware provides gin middleware for the bridge API.
//
// CORS is restricted to the host application and embedded UI origins,
// rate limiting is per client IP, and every request carries a
// correlation ID for log tracing.
package middleware
