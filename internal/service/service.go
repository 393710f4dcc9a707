// Package service contains the business logic.
//
// It sits between the handler and repository layers: it receives validated
// input from handlers, enforces the domain rules and calls repositories.
// Errors meant for clients are returned as *errs.HTTPError; database errors
// pass through for the global error handler to classify.
package service
