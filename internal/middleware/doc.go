// Package middleware provides HTTP middleware for the club portal API.
//
// # Available Middleware
//
//   - RequestID, Logger, Recovery, CORS, Compress: request plumbing
//   - Metrics: Prometheus request counters and latency
//   - Auth, OptionalAuth: JWT bearer validation
//   - Gate: path prefix → role enforcement
//   - RateLimit: fixed window limits on Redis, per user or IP
//
// # Authentication
//
// The server runs every request through OptionalAuth and then Gate, so
// handlers behind a gated prefix can rely on the caller's role:
//
//	middleware.Chain(mux,
//	    middleware.OptionalAuth(jwtService),
//	    middleware.Gate(authService, middleware.DefaultGateRules()),
//	)
//
// Routes outside the gate that still need a user wrap the handler in Auth.
//
// # Context Values
//
//   - GetUserID(ctx): authenticated user ID
//   - GetClaims(ctx), GetRole(ctx): token claims
//   - GetRequestID(ctx): unique request identifier
package middleware
