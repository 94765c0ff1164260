// Package server exposes the bridge's health over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so requests with the wrong method get 405.
//
// # Handlers
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// [HealthHandler] serves GET /health. It answers 200 while the stream is authenticated and 503 otherwise.
//
// # Middleware
//
// [RequestLogger] logs method, path, status and duration for every request.
// [Recoverer] turns handler panics into 500 responses.
package server
