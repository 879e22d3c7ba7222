// Package server provides HTTP routing, middleware, and the daemon API handlers.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method-qualified patterns.
//
// # Daemon API
//
// [PanelHandler] exposes one control panel over HTTP. The route set
// mirrors what the remote backend client consumes:
//
//	GET  /health                        liveness probe, never authenticated
//	GET  /api/settings                  current persisted settings
//	PUT  /api/settings                  store settings, echo the normalized tree
//	GET  /api/games                     refresh and return the library snapshot
//	POST /api/games/{name}/install      run the install pipeline
//	POST /api/games/{name}/remove       run the remove pipeline
//	POST /api/games/{name}/sync         sync one game's saves
//	POST /api/sync                      sync every installed game's saves
//
// Errors are returned as {"error": "..."} with the status encoding the
// failure class: 404 unknown game, 409 conflicting state or an
// operation already in flight, 503 remote or tooling unavailable.
//
// # Lifecycle
//
// [Daemon] owns the [http.Server]; callers run Start in a goroutine and
// stop it with Shutdown, typically from a signal handler.
package server
