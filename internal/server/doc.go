// Package server provides HTTP routing, middleware, and the JSON API behind the local map page.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with a per-path method table,
// so GET and DELETE on the same path are registered separately and unknown methods get a JSON 405.
//
// # Middleware Stack
//
// [NewHandler] installs, outermost first:
//   - [RequestID] : uuid per request, echoed in X-Request-ID
//   - [Logging] : one log line per request
//   - [Recover] : panics become 500 responses
//   - [CORS] : allowed origins from the server config
//
// # Errors
//
// Every failure is written as an [APIError] by [WriteError]. Domain errors are classified with shared.Classify
// and mapped to status codes (missing credential 401, not found 404, provider 502, bad input 400,
// forbidden origin 403, busy 409).
//
// # Inbound Batches
//
// POST /api/inbound accepts place descriptions pushed by a cooperating browser extension. The batch must come
// from an allowed origin and carry the configured source tag. Valid batches are de-duplicated and queued on
// the resolution pipeline behind any run in flight.
package server
