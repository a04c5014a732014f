// Package middleware provides the gin middleware shared by paperqa servers.
//
//   - RequestID: propagates or generates X-Request-ID
//   - Logger: structured request logging via kart-io/logger
//   - Recovery: converts panics into an ErrPanic envelope
//   - Timeout: bounds the request context
//   - CORS: cross-origin headers for browser clients
package middleware
