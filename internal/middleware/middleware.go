// Package middleware stores global and route-specific middleware.
//
// These intercept requests to handle cross-cutting concerns
// such as CORS, shared-secret authentication, request logging,
// tracing, and panic recovery
package middleware
