// Package services implements the library backends behind the control panel.
//
// Two implementations of [Backend] exist:
//
//   - [LocalBackend] : manages the library directly. Reads the remote
//     manifest over rsync, decorates entries with local install state,
//     runs install/remove/sync pipelines against the filesystem and the
//     Proton compatibility layer.
//   - [RemoteBackend] : proxies every operation to a deckhand daemon over
//     HTTP via [APIService], for clients running away from the device.
//
// Backends are stateless between calls; all durable state lives in the
// data directory ([LocalBackend]) or behind the daemon ([RemoteBackend]).
package services
