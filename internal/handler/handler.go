// Package handler is the HTTP layer. Handlers bind and validate requests,
// call the service layer and write JSON responses; errors are returned to
// the global error handler.
package handler
