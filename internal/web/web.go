// Package web implements an HTMX-based web application mirroring the TUI functionality.
//
// # HTMX Web Application Implementation Plan
//
// # Architecture
//
// The web app replicates the TUI workflow using server-side rendering
// with HTMX for dynamic updates, layered on the daemon API in
// internal/server. Each view corresponds to a template and handler:
//
//  1. Library: Server-rendered game table with hx-get row refresh
//  2. Game Detail: HTMX partial swap showing install state, prefix, saves
//  3. Operation Confirm: Modal confirmation with hx-post trigger
//  4. Operation Monitor: SSE (Server-Sent Events) streaming step updates
//  5. Settings: Form bound to the settings draft with commit/discard
//
// Core Components
//
//   - HTTP Server: reuses the internal/server router and middleware
//   - Panel Integration: Uses the same panel.Panel as the TUI and CLI,
//     so busy gating and in-flight rejection behave identically
//   - SSE Handler: streams pipeline steps during install/remove/sync
//
// Routes
//
//	GET  /                      → Library view
//	GET  /games/{name}          → HTMX partial: game detail
//	POST /games/{name}/install  → Start install, return SSE endpoint
//	POST /games/{name}/remove   → Start removal after confirmation
//	POST /games/{name}/sync     → Sync one game's saves
//	GET  /operations/{id}/steps → SSE step stream
//	GET  /settings              → Settings form
//	POST /settings              → Apply draft mutations and commit
//
// Templates
//
//   - base.html: Layout with banner area for refresh errors
//   - library.html: Table with hx-get on rows and busy-state classes
//   - game.html: Partial template for game detail
//   - operation.html: SSE consumer with step log
//   - settings.html: Draft form with dirty indicator
//
// Implementation Status
//
// Planned. The daemon API (internal/server) is the contract this package
// will build on; nothing here ships yet.
package web
