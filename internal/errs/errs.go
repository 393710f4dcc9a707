// Package errs defines the error shapes returned to API clients.
//
// Every error leaving a handler is converted into an HTTPError so clients
// always receive the same JSON structure: a machine-readable code, a
// message, optional field errors and an optional action hint.
package errs
