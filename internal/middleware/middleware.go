// Package middleware holds the global and route-level echo middleware:
// authentication (Clerk), request ids, request-scoped loggers, tracing,
// metrics, rate limiting and the global error handler.
package middleware
